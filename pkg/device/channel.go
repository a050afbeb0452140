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
	"time"

	"github.com/google/gopacket"

	"sesame.org.jo/timing/go-evg/pkg/layers"
	"sesame.org.jo/timing/go-evg/pkg/log"
)

// exchange performs one reliable register access: serialize the request,
// send it, wait for the reply. UDP gives no delivery guarantee, so the
// whole send/wait/receive sequence is retried up to the attempt budget
// before the access is reported failed. Undersized, oversized and
// mismatched replies count as failed attempts.
//
// The caller must hold the device mutex.
func (d *Device) exchange(req *layers.RegisterLayer) (*layers.RegisterLayer, error) {
	if d.conn == nil {
		return nil, ErrNotInitialized{Device: d.Name}
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, req); err != nil {
		return nil, err
	}

	reply := make([]byte, 64)
	for attempt := 0; attempt < d.retries; attempt++ {
		n, err := d.conn.Write(buf.Bytes())
		if err != nil || n != layers.RegisterMessageLength {
			log.Debug("Device %s: send failed on attempt %d", d.Name, attempt+1)
			continue
		}
		if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return nil, err
		}
		n, err = d.conn.Read(reply)
		if err != nil || n != layers.RegisterMessageLength {
			log.Debug("Device %s: no valid reply on attempt %d", d.Name, attempt+1)
			continue
		}
		packet := gopacket.NewPacket(reply[:n], layers.RegisterLayerType, gopacket.Default)
		regLayer := packet.Layer(layers.RegisterLayerType)
		if regLayer == nil {
			log.Debug("Device %s: undecodable reply on attempt %d", d.Name, attempt+1)
			continue
		}
		resp := regLayer.(*layers.RegisterLayer)
		// a reply left queued by a timed-out attempt answers a different
		// register; it counts as a failed attempt, not as the answer
		if resp.Addr != req.Addr || resp.Access != req.Access {
			log.Debug("Device %s: reply for wrong register on attempt %d", d.Name, attempt+1)
			continue
		}
		return resp, nil
	}
	return nil, ErrNoReply{Device: d.Name, Attempts: d.retries}
}

// regRead reads one 16-bit register at the given offset.
func (d *Device) regRead(offset uint16) (uint16, error) {
	req := &layers.RegisterLayer{
		Access: layers.AccessRead,
		Addr:   layers.BaseAddress + uint32(offset),
	}
	resp, err := d.exchange(req)
	if err != nil {
		return 0, err
	}
	return resp.Data, nil
}

// regWrite writes one 16-bit register at the given offset. The reply only
// confirms transport success, not that the card accepted the value; use
// regWriteVerify for state that must stick.
func (d *Device) regWrite(offset uint16, value uint16) error {
	req := &layers.RegisterLayer{
		Access: layers.AccessWrite,
		Data:   value,
		Addr:   layers.BaseAddress + uint32(offset),
	}
	_, err := d.exchange(req)
	return err
}

// regWriteVerify writes a register and reads it back. The protocol has no
// write acknowledgement, so this is the standard building block for every
// state-changing operation.
func (d *Device) regWriteVerify(offset uint16, value uint16) error {
	if err := d.regWrite(offset, value); err != nil {
		return err
	}
	data, err := d.regRead(offset)
	if err != nil {
		return err
	}
	if data != value {
		return ErrVerifyMismatch{Device: d.Name, Addr: offset, Wrote: value, Read: data}
	}
	return nil
}

// RegRead reads an arbitrary register offset. Diagnostic entry point.
func (d *Device) RegRead(offset uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regRead(offset)
}

// RegWrite writes an arbitrary register offset without read-back
// verification. Diagnostic entry point.
func (d *Device) RegWrite(offset uint16, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regWrite(offset, value)
}
