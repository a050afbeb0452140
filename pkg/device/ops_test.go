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
	"math"
	"sync"
	"testing"

	"sesame.org.jo/timing/go-evg/pkg/layers"
)

func TestEnableDisable(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.Enable(true); err != nil {
		t.Fatalf("Enable(true): %s", err)
	}
	enabled, err := d.IsEnabled()
	if err != nil {
		t.Fatal(err)
	}
	if !enabled {
		t.Error("IsEnabled after Enable(true): got false")
	}
	if ctrl := f.reg(RegMap[RegControl]); ctrl&CtrlDisableFifo == 0 {
		t.Errorf("control register 0x%04x: FIFO-disable bit not set", ctrl)
	}

	if err := d.Enable(false); err != nil {
		t.Fatalf("Enable(false): %s", err)
	}
	enabled, err = d.IsEnabled()
	if err != nil {
		t.Fatal(err)
	}
	if enabled {
		t.Error("IsEnabled after Enable(false): got true")
	}
}

func TestClockSource(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	for _, domain := range []ClockDomain{ClockRf, ClockAc} {
		for _, src := range []ClockSource{SourceExternal, SourceInternal} {
			if err := d.SetClockSource(domain, src); err != nil {
				t.Fatalf("SetClockSource(%s, %s): %s", domain, src, err)
			}
			got, err := d.GetClockSource(domain)
			if err != nil {
				t.Fatal(err)
			}
			if got != src {
				t.Errorf("GetClockSource(%s): got %s, want %s", domain, got, src)
			}
		}
	}
}

func TestRfPrescaler(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	// source selection must survive a prescaler change
	if err := d.SetClockSource(ClockRf, SourceExternal); err != nil {
		t.Fatal(err)
	}
	if err := d.SetRfPrescaler(4); err != nil {
		t.Fatalf("SetRfPrescaler(4): %s", err)
	}
	got, err := d.GetRfPrescaler()
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("GetRfPrescaler: got %d, want 4", got)
	}
	src, err := d.GetClockSource(ClockRf)
	if err != nil {
		t.Fatal(err)
	}
	if src != SourceExternal {
		t.Errorf("clock source after prescaler change: got %s, want external", src)
	}
	// stored value is the divisor minus one
	if rf := f.reg(RegMap[RegRfControl]); rf&RfDividerMask != 3 {
		t.Errorf("rf control register 0x%04x: divider field %d, want 3", rf, rf&RfDividerMask)
	}

	for _, bad := range []int{0, 33, -1} {
		if err := d.SetRfPrescaler(bad); err == nil {
			t.Errorf("SetRfPrescaler(%d) accepted", bad)
		}
	}
}

func TestAcPrescaler(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.SetAcPrescaler(50); err != nil {
		t.Fatalf("SetAcPrescaler(50): %s", err)
	}
	got, err := d.GetAcPrescaler()
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Errorf("GetAcPrescaler: got %d, want 50", got)
	}

	for _, bad := range []int{0, 256} {
		if err := d.SetAcPrescaler(bad); err == nil {
			t.Errorf("SetAcPrescaler(%d) accepted", bad)
		}
	}
}

func TestSequencerPrescaler(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	for seq := 0; seq < NumSequencers; seq++ {
		want := uint16(seq + 7)
		if err := d.SetSequencerPrescaler(seq, want); err != nil {
			t.Fatalf("SetSequencerPrescaler(%d): %s", seq, err)
		}
		got, err := d.GetSequencerPrescaler(seq)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("GetSequencerPrescaler(%d): got %d, want %d", seq, got, want)
		}
	}
	// the two sequencers must not share a register
	if f.reg(RegMap[RegSeq0ClockSel]) == f.reg(RegMap[RegSeq1ClockSel]) {
		t.Error("sequencer clock-select registers hold the same value")
	}

	if err := d.SetSequencerPrescaler(2, 1); err == nil {
		t.Error("SetSequencerPrescaler(2) accepted")
	}
}

func TestCounterPrescaler(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.SetCounterPrescaler(3, 0x12345678); err != nil {
		t.Fatalf("SetCounterPrescaler: %s", err)
	}
	got, err := d.GetCounterPrescaler(3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x12345678 {
		t.Errorf("GetCounterPrescaler: got 0x%08x, want 0x12345678", got)
	}

	// the high word must be written before the low word
	var writes []regOp
	for _, op := range f.opLog() {
		if op.access == layers.AccessWrite && op.addr == RegMap[RegMxcPrescaler] {
			writes = append(writes, op)
		}
	}
	if len(writes) < 2 {
		t.Fatalf("prescaler writes: got %d, want at least 2", len(writes))
	}
	if writes[0].data != 0x1234 || writes[1].data != 0x5678 {
		t.Errorf("prescaler write order: got 0x%04x then 0x%04x, want 0x1234 then 0x5678",
			writes[0].data, writes[1].data)
	}

	for _, bad := range []int{-1, NumCounters} {
		if err := d.SetCounterPrescaler(bad, 1); err == nil {
			t.Errorf("SetCounterPrescaler(%d) accepted", bad)
		}
		if _, err := d.GetCounterPrescaler(bad); err == nil {
			t.Errorf("GetCounterPrescaler(%d) accepted", bad)
		}
	}
}

func TestSequencerTriggerSource(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.SetSequencerTriggerSource(0, TriggerAc); err != nil {
		t.Fatalf("SetSequencerTriggerSource(0, ac): %s", err)
	}
	if f.reg(RegMap[RegAcEnable])&AcEnSeq0 == 0 {
		t.Error("AC trigger bit not set")
	}
	if f.reg(RegMap[RegEventEnable])&EvtEnSeq0Vme != 0 {
		t.Error("software trigger bit still set")
	}
	got, err := d.GetSequencerTriggerSource(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != TriggerAc {
		t.Errorf("GetSequencerTriggerSource: got %s, want ac", got)
	}

	if err := d.SetSequencerTriggerSource(0, TriggerSoft); err != nil {
		t.Fatal(err)
	}
	before := f.opCount()
	got, err = d.GetSequencerTriggerSource(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != TriggerSoft {
		t.Errorf("GetSequencerTriggerSource: got %s, want soft", got)
	}
	// the selection is held in one register; the read-back costs one access
	if n := f.opCount() - before; n != 1 {
		t.Errorf("GetSequencerTriggerSource made %d register accesses, want 1", n)
	}

	// sequencer 1 must be untouched by sequencer 0 updates
	if f.reg(RegMap[RegAcEnable])&AcEnSeq1 != 0 {
		t.Error("sequencer 1 AC trigger bit set by sequencer 0 update")
	}
}

func TestEnableSequencer(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	for seq := 0; seq < NumSequencers; seq++ {
		if err := d.EnableSequencer(seq, true); err != nil {
			t.Fatalf("EnableSequencer(%d, true): %s", seq, err)
		}
		enabled, err := d.IsSequencerEnabled(seq)
		if err != nil {
			t.Fatal(err)
		}
		if !enabled {
			t.Errorf("IsSequencerEnabled(%d): got false after enable", seq)
		}
		if err := d.EnableSequencer(seq, false); err != nil {
			t.Fatalf("EnableSequencer(%d, false): %s", seq, err)
		}
		enabled, err = d.IsSequencerEnabled(seq)
		if err != nil {
			t.Fatal(err)
		}
		if enabled {
			t.Errorf("IsSequencerEnabled(%d): got true after disable", seq)
		}
	}

	if err := d.EnableSequencer(-1, true); err == nil {
		t.Error("EnableSequencer(-1) accepted")
	}
}

func TestTriggerSequencer(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.TriggerSequencer(1); err != nil {
		t.Fatalf("TriggerSequencer(1): %s", err)
	}
	if f.reg(RegMap[RegControl])&CtrlSeq1Trigger == 0 {
		t.Error("sequencer 1 trigger bit not written")
	}
	if f.reg(RegMap[RegControl])&CtrlSeq0Trigger != 0 {
		t.Error("sequencer 0 trigger bit written by TriggerSequencer(1)")
	}
}

func TestEventTable(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.SetEvent(1, 5, 0x22); err != nil {
		t.Fatalf("SetEvent: %s", err)
	}
	if f.reg(RegMap[RegSeq1Address]) != 5 {
		t.Errorf("address-select register: got %d, want 5", f.reg(RegMap[RegSeq1Address]))
	}
	code, err := d.GetEvent(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if code != 0x22 {
		t.Errorf("GetEvent: got 0x%02x, want 0x22", code)
	}

	// invalid arguments must be rejected before any network traffic
	before := f.opCount()
	if err := d.SetEvent(2, 0, 1); err == nil {
		t.Error("SetEvent with bad sequencer accepted")
	}
	if err := d.SetEvent(0, SeqAddressLimit, 1); err == nil {
		t.Error("SetEvent with bad address accepted")
	}
	if _, err := d.GetEvent(0, -1); err == nil {
		t.Error("GetEvent with bad address accepted")
	}
	if f.opCount() != before {
		t.Errorf("rejected operations produced %d register accesses", f.opCount()-before)
	}
}

func TestTimestamp(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	// 100 us at 125 MHz is 12500 cycles
	if err := d.SetTimestamp(0, 10, 100.0); err != nil {
		t.Fatalf("SetTimestamp: %s", err)
	}
	if f.reg(RegMap[RegSeq0TimeHigh]) != 0 || f.reg(RegMap[RegSeq0TimeLow]) != 12500 {
		t.Errorf("timestamp registers: got high=%d low=%d, want high=0 low=12500",
			f.reg(RegMap[RegSeq0TimeHigh]), f.reg(RegMap[RegSeq0TimeLow]))
	}
	got, err := d.GetTimestamp(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100.0 {
		t.Errorf("GetTimestamp: got %g, want 100", got)
	}

	// a timestamp crossing the high word boundary
	if err := d.SetTimestamp(0, 11, 600.0); err != nil {
		t.Fatalf("SetTimestamp: %s", err)
	}
	if f.reg(RegMap[RegSeq0TimeHigh]) != 1 || f.reg(RegMap[RegSeq0TimeLow]) != 9464 {
		t.Errorf("timestamp registers: got high=%d low=%d, want high=1 low=9464",
			f.reg(RegMap[RegSeq0TimeHigh]), f.reg(RegMap[RegSeq0TimeLow]))
	}

	// out-of-range and non-finite timestamps must be rejected before any
	// network traffic
	before := f.opCount()
	for _, bad := range []float64{-1.0, 40000000.0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := d.SetTimestamp(0, 0, bad); err == nil {
			t.Errorf("SetTimestamp(%g) accepted", bad)
		} else if _, ok := err.(ErrBadArgument); !ok {
			t.Errorf("SetTimestamp(%g): got %T, want ErrBadArgument", bad, err)
		}
	}
	if f.opCount() != before {
		t.Errorf("rejected timestamps produced %d register accesses", f.opCount()-before)
	}
}

func TestSoftwareEvent(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.SetSoftwareEvent(0x2A); err != nil {
		t.Fatalf("SetSoftwareEvent: %s", err)
	}
	if f.reg(RegMap[RegSwEvent]) != 0x2A {
		t.Errorf("software event register: got 0x%02x, want 0x2a", f.reg(RegMap[RegSwEvent]))
	}
}

func TestAcTrigger(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	// prescaler must survive sync arming
	if err := d.SetAcPrescaler(50); err != nil {
		t.Fatal(err)
	}
	if err := d.EnableAcTrigger(true); err != nil {
		t.Fatalf("EnableAcTrigger(true): %s", err)
	}
	enabled, err := d.IsAcTriggerEnabled()
	if err != nil {
		t.Fatal(err)
	}
	if !enabled {
		t.Error("IsAcTriggerEnabled: got false after enable")
	}
	prescaler, err := d.GetAcPrescaler()
	if err != nil {
		t.Fatal(err)
	}
	if prescaler != 50 {
		t.Errorf("AC prescaler after sync arming: got %d, want 50", prescaler)
	}

	if err := d.EnableAcTrigger(false); err != nil {
		t.Fatal(err)
	}
	enabled, err = d.IsAcTriggerEnabled()
	if err != nil {
		t.Fatal(err)
	}
	if enabled {
		t.Error("IsAcTriggerEnabled: got true after disable")
	}
}

func TestFirmwareVersion(t *testing.T) {
	f := startFakeCard(t)
	f.setReg(RegMap[RegFirmware], 0x0207)
	d := newTestDevice(t, f)

	version, err := d.FirmwareVersion()
	if err != nil {
		t.Fatalf("FirmwareVersion: %s", err)
	}
	if version != 0x0207 {
		t.Errorf("FirmwareVersion: got 0x%04x, want 0x0207", version)
	}
}

func TestUsecDivider(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.SetUsecDivider(125); err != nil {
		t.Fatalf("SetUsecDivider: %s", err)
	}
	got, err := d.GetUsecDivider()
	if err != nil {
		t.Fatal(err)
	}
	if got != 125 {
		t.Errorf("GetUsecDivider: got %d, want 125", got)
	}
}

func TestSetup(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	if err := d.Setup(); err != nil {
		t.Fatalf("Setup: %s", err)
	}

	if ctrl := f.reg(RegMap[RegControl]); ctrl&CtrlDisable == 0 {
		t.Errorf("control register 0x%04x: card not disabled after Setup", ctrl)
	}
	if f.reg(RegMap[RegUsecDivider]) != 125 {
		t.Errorf("usec divider: got %d, want 125", f.reg(RegMap[RegUsecDivider]))
	}
	prescaler, err := d.GetAcPrescaler()
	if err != nil {
		t.Fatal(err)
	}
	if prescaler != DefaultAcPrescaler {
		t.Errorf("AC prescaler: got %d, want %d", prescaler, DefaultAcPrescaler)
	}
	rf, err := d.GetRfPrescaler()
	if err != nil {
		t.Fatal(err)
	}
	if rf != DefaultRfPrescaler {
		t.Errorf("RF prescaler: got %d, want %d", rf, DefaultRfPrescaler)
	}
	for seq := 0; seq < NumSequencers; seq++ {
		enabled, err := d.IsSequencerEnabled(seq)
		if err != nil {
			t.Fatal(err)
		}
		if enabled {
			t.Errorf("sequencer %d running after Setup", seq)
		}
		code, err := d.GetEvent(seq, DefaultEventCount-1)
		if err != nil {
			t.Fatal(err)
		}
		if code != EventEndSequence {
			t.Errorf("sequencer %d event code: got 0x%02x, want 0x%02x", seq, code, EventEndSequence)
		}
	}
}

// Two goroutines hammer different sequencers; the device mutex must keep
// each multi-register transaction contiguous on the wire.
func TestSerializedAccess(t *testing.T) {
	f := startFakeCard(t)
	d := newTestDevice(t, f)

	const rounds = 20
	var wg sync.WaitGroup
	for seq := 0; seq < NumSequencers; seq++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if err := d.SetEvent(seq, i, uint8(i)); err != nil {
					t.Errorf("SetEvent(%d, %d): %s", seq, i, err)
					return
				}
			}
		}(seq)
	}
	wg.Wait()

	// each SetEvent is four accesses: write/read of the address-select
	// register, then write/read of the code register, all on the same
	// sequencer
	ops := f.opLog()
	for i := 0; i < len(ops); i += 4 {
		var seq int
		switch ops[i].addr {
		case RegMap[RegSeq0Address]:
			seq = 0
		case RegMap[RegSeq1Address]:
			seq = 1
		default:
			t.Fatalf("op %d: transaction starts at register 0x%02x", i, ops[i].addr)
		}
		if ops[i+1].addr != RegMap[seqAddressReg[seq]] ||
			ops[i+2].addr != RegMap[seqCodeReg[seq]] ||
			ops[i+3].addr != RegMap[seqCodeReg[seq]] {
			t.Fatalf("ops %d-%d: interleaved transaction: %+v", i, i+3, ops[i:i+4])
		}
	}
}
