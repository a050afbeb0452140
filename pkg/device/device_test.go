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
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/layers"
)

type regOp struct {
	access uint8
	addr   uint16
	data   uint16
}

// fakeCard emulates the register file of an EVG card behind a loopback UDP
// socket. Writes to the MXC prescaler register are banked per counter, with
// the high/low half selected by the MXC control register, like the real
// hardware does. Every request is recorded for order assertions.
type fakeCard struct {
	conn *net.UDPConn

	mu   sync.Mutex
	regs map[uint16]uint16
	mxc  [NumCounters]uint32
	ops  []regOp

	// silent makes the card swallow requests without answering
	silent bool

	// stale makes the card precede every reply with a datagram for a
	// different register, like a late answer to an earlier request
	stale bool

	done chan struct{}
}

func startFakeCard(t *testing.T) *fakeCard {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeCard{
		conn: conn,
		regs: make(map[uint16]uint16),
		done: make(chan struct{}),
	}
	go f.serve()
	t.Cleanup(func() {
		f.conn.Close()
		<-f.done
	})
	return f
}

func (f *fakeCard) port() int {
	return f.conn.LocalAddr().(*net.UDPAddr).Port
}

func (f *fakeCard) serve() {
	defer close(f.done)
	buf := make([]byte, 64)
	for {
		n, raddr, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n != layers.RegisterMessageLength {
			continue
		}
		access := buf[0]
		data := binary.BigEndian.Uint16(buf[2:4])
		addr := binary.BigEndian.Uint32(buf[4:8])
		offset := uint16(addr - layers.BaseAddress)

		f.mu.Lock()
		f.ops = append(f.ops, regOp{access: access, addr: offset, data: data})
		switch access {
		case layers.AccessRead:
			data = f.read(offset)
		case layers.AccessWrite:
			f.write(offset, data)
		}
		silent := f.silent
		stale := f.stale
		f.mu.Unlock()

		if silent {
			continue
		}
		if stale {
			old := make([]byte, layers.RegisterMessageLength)
			old[0] = access
			binary.BigEndian.PutUint16(old[2:4], 0xDEAD)
			binary.BigEndian.PutUint32(old[4:8], addr+2)
			f.conn.WriteToUDP(old, raddr)
		}
		reply := make([]byte, layers.RegisterMessageLength)
		reply[0] = access
		binary.BigEndian.PutUint16(reply[2:4], data)
		binary.BigEndian.PutUint32(reply[4:8], addr)
		f.conn.WriteToUDP(reply, raddr)
	}
}

// caller must hold f.mu
func (f *fakeCard) read(offset uint16) uint16 {
	if offset == RegMap[RegMxcPrescaler] {
		ctl := f.regs[RegMap[RegMxcControl]]
		counter := ctl & MxcCounterMask
		if ctl&MxcHighWord != 0 {
			return uint16(f.mxc[counter] >> 16)
		}
		return uint16(f.mxc[counter])
	}
	return f.regs[offset]
}

// caller must hold f.mu
func (f *fakeCard) write(offset, value uint16) {
	if offset == RegMap[RegMxcPrescaler] {
		ctl := f.regs[RegMap[RegMxcControl]]
		counter := ctl & MxcCounterMask
		if ctl&MxcHighWord != 0 {
			f.mxc[counter] = f.mxc[counter]&0x0000FFFF | uint32(value)<<16
		} else {
			f.mxc[counter] = f.mxc[counter]&0xFFFF0000 | uint32(value)
		}
		return
	}
	f.regs[offset] = value
}

func (f *fakeCard) reg(offset uint16) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[offset]
}

func (f *fakeCard) setReg(offset, value uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[offset] = value
}

func (f *fakeCard) setSilent(silent bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent = silent
}

func (f *fakeCard) setStale(stale bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale = stale
}

func (f *fakeCard) opCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops)
}

func (f *fakeCard) opLog() []regOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]regOp, len(f.ops))
	copy(ops, f.ops)
	return ops
}

func newTestDevice(t *testing.T, f *fakeCard) *Device {
	t.Helper()
	d := NewDevice(&config.Device{
		Name:      "EVG1",
		IP:        "127.0.0.1",
		Port:      f.port(),
		Frequency: 125,
	})
	d.timeout = 200 * time.Millisecond
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestExchangeNotInitialized(t *testing.T) {
	d := NewDevice(&config.Device{Name: "EVG1", IP: "127.0.0.1", Port: 2000, Frequency: 125})
	_, err := d.RegRead(0x00)
	if _, ok := err.(ErrNotInitialized); !ok {
		t.Errorf("RegRead on uninitialized device: got %v, want ErrNotInitialized", err)
	}
}

func TestRegReadWrite(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.RegWrite(0x68, 125); err != nil {
		t.Fatalf("RegWrite: %s", err)
	}
	value, err := d.RegRead(0x68)
	if err != nil {
		t.Fatalf("RegRead: %s", err)
	}
	if value != 125 {
		t.Errorf("RegRead: got %d, want 125", value)
	}
}

func TestNoReplyRetries(t *testing.T) {
	f := startFakeCard(t)
	f.setSilent(true)
	d := newTestDevice(t, f)
	d.timeout = 20 * time.Millisecond

	_, err := d.RegRead(0x00)
	if _, ok := err.(ErrNoReply); !ok {
		t.Fatalf("RegRead against silent card: got %v, want ErrNoReply", err)
	}

	// the request must have been attempted exactly NumRetries times
	deadline := time.Now().Add(time.Second)
	for f.opCount() < NumRetries && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := f.opCount(); got != NumRetries {
		t.Errorf("attempts: got %d, want %d", got, NumRetries)
	}
}

func TestStaleReplySkipped(t *testing.T) {
	f := startFakeCard(t)
	f.setReg(0x68, 125)
	f.setStale(true)
	d := newTestDevice(t, f)

	value, err := d.RegRead(0x68)
	if err != nil {
		t.Fatalf("RegRead with stale replies queued: %s", err)
	}
	if value != 125 {
		t.Errorf("RegRead: got 0x%04x, want 125; a reply for another register was taken as the answer", value)
	}
}

func TestRegistryConfigure(t *testing.T) {
	cfg := &config.Config{Capacity: 2}
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ok := &config.Device{Name: "EVG1", IP: "192.0.2.5", Port: 2000, Frequency: 125}
	if err := r.Configure(ok); err != nil {
		t.Fatalf("Configure: %s", err)
	}

	bad := &config.Device{Name: "EVG2", IP: "not-an-ip", Port: 2000, Frequency: 125}
	if err := r.Configure(bad); err == nil {
		t.Error("Configure accepted invalid device")
	}

	dup := &config.Device{Name: "EVG1", IP: "192.0.2.6", Port: 2000, Frequency: 125}
	if err := r.Configure(dup); err == nil {
		t.Error("Configure accepted duplicate name")
	}

	second := &config.Device{Name: "EVG2", IP: "192.0.2.6", Port: 2000, Frequency: 125}
	if err := r.Configure(second); err != nil {
		t.Fatalf("Configure: %s", err)
	}

	over := &config.Device{Name: "EVG3", IP: "192.0.2.7", Port: 2000, Frequency: 125}
	if err := r.Configure(over); err == nil {
		t.Error("Configure accepted device over capacity")
	}
	if len(r.Devices()) != 2 {
		t.Errorf("registry size: got %d, want 2", len(r.Devices()))
	}
}

func TestRegistryOpen(t *testing.T) {
	cfg := &config.Config{
		Devices: []*config.Device{
			{Name: "EVG1", IP: "192.0.2.5", Port: 2000, Frequency: 125},
		},
	}
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatal(err)
	}

	d, err := r.Open("EVG1")
	if err != nil {
		t.Fatalf("Open(EVG1): %s", err)
	}
	if d.Name != "EVG1" {
		t.Errorf("Open(EVG1): got device %q", d.Name)
	}

	if _, err := r.Open("EVG9"); err == nil {
		t.Error("Open(EVG9): expected error, got nil")
	} else if _, ok := err.(config.ErrDeviceNotFound); !ok {
		t.Errorf("Open(EVG9): got %T, want ErrDeviceNotFound", err)
	}
}

func TestRegistryInitializeAll(t *testing.T) {
	f := startFakeCard(t)
	cfg := &config.Config{
		Devices: []*config.Device{
			{Name: "EVG1", IP: "127.0.0.1", Port: f.port(), Frequency: 125},
		},
	}
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.InitializeAll(); err != nil {
		t.Fatalf("InitializeAll: %s", err)
	}
	defer r.Close()

	d, err := r.Open("EVG1")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.RegWrite(0x04, 0x22); err != nil {
		t.Errorf("RegWrite after InitializeAll: %s", err)
	}
}
