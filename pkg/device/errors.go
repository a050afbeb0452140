/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package device

import (
	"fmt"
)

// ErrNoReply returned when a device does not answer a register access
// within the retry budget. The access may or may not have been applied;
// callers must not assume either.
type ErrNoReply struct {
	Device   string
	Attempts int
}

func (e ErrNoReply) Error() string {
	return fmt.Sprintf("No reply from device %s after %d attempts", e.Device, e.Attempts)
}

// ErrVerifyMismatch returned when a write went through at the transport
// level but reading the register back produced a different value
type ErrVerifyMismatch struct {
	Device string
	Addr   uint16
	Wrote  uint16
	Read   uint16
}

func (e ErrVerifyMismatch) Error() string {
	return fmt.Sprintf("Device %s register 0x%02x readback mismatch: wrote 0x%04x, read 0x%04x",
		e.Device, e.Addr, e.Wrote, e.Read)
}

// ErrBadArgument returned when an operation argument is rejected before
// any network I/O is attempted
type ErrBadArgument struct {
	Op   string
	What string
}

func (e ErrBadArgument) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.What)
}

// ErrNotInitialized returned when an operation is invoked on a device
// whose socket has not been opened yet
type ErrNotInitialized struct {
	Device string
}

func (e ErrNotInitialized) Error() string {
	return fmt.Sprintf("Device not initialized: %s", e.Device)
}
