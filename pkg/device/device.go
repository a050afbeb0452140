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
	"net"
	"sync"
	"time"

	"sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/log"
)

const (
	// ReplyTimeout is how long one attempt waits for the device to answer.
	ReplyTimeout = 1000 * time.Millisecond

	// NumRetries is the attempt budget of one register access. Together
	// with ReplyTimeout it bounds a failed access to about three seconds.
	NumRetries = 3
)

// Device is one configured EVG card. It owns the connected UDP socket and
// the mutex that serializes all register access to the card. Every
// multi-register operation holds the mutex for its whole duration, so the
// address-select/data register pairs can never be observed half-updated.
//
// Devices are created once from configuration and live for the lifetime of
// the registry; after Init only the register state on the remote card
// changes.
type Device struct {
	*config.Device

	conn *net.UDPConn
	mu   sync.Mutex

	timeout time.Duration
	retries int
}

// NewDevice ...
func NewDevice(cfg *config.Device) *Device {
	return &Device{
		Device:  cfg,
		timeout: ReplyTimeout,
		retries: NumRetries,
	}
}

// Init creates the device socket and connects it to the configured
// endpoint. A UDP connect binds the default peer without any handshake,
// so Init succeeding says nothing about the card being reachable.
func (d *Device) Init() error {
	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", d.IP, d.Port))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, uaddr)
	if err != nil {
		return err
	}
	d.conn = conn
	log.Debug("Initialized device %s at %s", d.Name, uaddr)
	return nil
}

// Close releases the device socket.
func (d *Device) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
