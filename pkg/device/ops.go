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
	"math"

	"sesame.org.jo/timing/go-evg/pkg/log"
)

// ClockDomain selects which clock a source or prescaler operation acts on.
type ClockDomain int

const (
	ClockRf ClockDomain = iota
	ClockAc
)

func (d ClockDomain) String() string {
	switch d {
	case ClockRf:
		return "rf"
	case ClockAc:
		return "ac"
	}
	return fmt.Sprintf("ClockDomain(%d)", int(d))
}

func ParseClockDomain(s string) (ClockDomain, error) {
	switch s {
	case "rf":
		return ClockRf, nil
	case "ac":
		return ClockAc, nil
	}
	return 0, ErrBadArgument{Op: "ParseClockDomain", What: fmt.Sprintf("unknown clock domain %q", s)}
}

// ClockSource enumerates where a clock domain takes its reference from.
type ClockSource int

const (
	SourceInternal ClockSource = iota
	SourceExternal
)

func (s ClockSource) String() string {
	switch s {
	case SourceInternal:
		return "internal"
	case SourceExternal:
		return "external"
	}
	return fmt.Sprintf("ClockSource(%d)", int(s))
}

func ParseClockSource(s string) (ClockSource, error) {
	switch s {
	case "internal":
		return SourceInternal, nil
	case "external":
		return SourceExternal, nil
	}
	return 0, ErrBadArgument{Op: "ParseClockSource", What: fmt.Sprintf("unknown clock source %q", s)}
}

// TriggerSource enumerates what starts a sequencer.
type TriggerSource int

const (
	TriggerSoft TriggerSource = iota
	TriggerAc
)

func (s TriggerSource) String() string {
	switch s {
	case TriggerSoft:
		return "soft"
	case TriggerAc:
		return "ac"
	}
	return fmt.Sprintf("TriggerSource(%d)", int(s))
}

func ParseTriggerSource(s string) (TriggerSource, error) {
	switch s {
	case "soft":
		return TriggerSoft, nil
	case "ac":
		return TriggerAc, nil
	}
	return 0, ErrBadArgument{Op: "ParseTriggerSource", What: fmt.Sprintf("unknown trigger source %q", s)}
}

func checkSequencer(op string, seq int) error {
	if seq < 0 || seq >= NumSequencers {
		return ErrBadArgument{Op: op, What: fmt.Sprintf("sequencer id %d out of range", seq)}
	}
	return nil
}

func checkSeqAddress(op string, addr int) error {
	if addr < 0 || addr >= SeqAddressLimit {
		return ErrBadArgument{Op: op, What: fmt.Sprintf("event-table address %d out of range", addr)}
	}
	return nil
}

// Enable enables or disables the card. Enabling always leaves the upstream
// receiver FIFO disabled; the hardware generation this driver grew up on
// latched receive violations otherwise.
func (d *Device) Enable(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	want := CtrlDisableFifo
	if !on {
		want |= CtrlDisable
	}
	if err := d.regWrite(RegMap[RegControl], want); err != nil {
		return err
	}
	data, err := d.regRead(RegMap[RegControl])
	if err != nil {
		return err
	}
	if (data&CtrlDisable != 0) == on {
		return ErrVerifyMismatch{Device: d.Name, Addr: RegMap[RegControl], Wrote: want, Read: data}
	}
	return nil
}

// IsEnabled reports whether the control register's disable bit is clear.
func (d *Device) IsEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegControl])
	if err != nil {
		return false, err
	}
	return data&CtrlDisable == 0, nil
}

// SetClockSource selects the reference of the RF or AC clock domain.
func (d *Device) SetClockSource(domain ClockDomain, src ClockSource) error {
	var reg RegAlias
	var bits uint16
	switch domain {
	case ClockRf:
		reg, bits = RegRfControl, RfSourceMask
	case ClockAc:
		reg, bits = RegAcEnable, AcEnExternal
	default:
		return ErrBadArgument{Op: "SetClockSource", What: fmt.Sprintf("unknown clock domain %d", domain)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[reg])
	if err != nil {
		return err
	}
	data &^= bits
	if src == SourceExternal {
		if domain == ClockRf {
			data |= RfSourceExternal
		} else {
			data |= AcEnExternal
		}
	}
	return d.regWriteVerify(RegMap[reg], data)
}

// GetClockSource reads back the reference of the RF or AC clock domain.
func (d *Device) GetClockSource(domain ClockDomain) (ClockSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch domain {
	case ClockRf:
		data, err := d.regRead(RegMap[RegRfControl])
		if err != nil {
			return 0, err
		}
		if data&RfSourceMask == RfSourceExternal {
			return SourceExternal, nil
		}
		return SourceInternal, nil
	case ClockAc:
		data, err := d.regRead(RegMap[RegAcEnable])
		if err != nil {
			return 0, err
		}
		if data&AcEnExternal != 0 {
			return SourceExternal, nil
		}
		return SourceInternal, nil
	}
	return 0, ErrBadArgument{Op: "GetClockSource", What: fmt.Sprintf("unknown clock domain %d", domain)}
}

// SetRfPrescaler sets the divisor of the RF reference. The hardware stores
// the divisor minus one in the low bits of the RF control register; the
// source-select bits are preserved.
func (d *Device) SetRfPrescaler(prescaler int) error {
	if prescaler < RfPrescalerMin || prescaler > RfPrescalerMax {
		return ErrBadArgument{Op: "SetRfPrescaler", What: fmt.Sprintf("prescaler %d out of range", prescaler)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegRfControl])
	if err != nil {
		return err
	}
	data = data&^RfDividerMask | uint16(prescaler-1)
	return d.regWriteVerify(RegMap[RegRfControl], data)
}

// GetRfPrescaler ...
func (d *Device) GetRfPrescaler() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegRfControl])
	if err != nil {
		return 0, err
	}
	return int(data&RfDividerMask) + 1, nil
}

// SetAcPrescaler sets the divisor of the AC sync input, held in the low
// byte of the AC enable register.
func (d *Device) SetAcPrescaler(prescaler int) error {
	if prescaler < AcPrescalerMin || prescaler > AcPrescalerMax {
		return ErrBadArgument{Op: "SetAcPrescaler", What: fmt.Sprintf("prescaler %d out of range", prescaler)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegAcEnable])
	if err != nil {
		return err
	}
	data = data&^AcEnPrescalerMask | uint16(prescaler)
	return d.regWriteVerify(RegMap[RegAcEnable], data)
}

// GetAcPrescaler ...
func (d *Device) GetAcPrescaler() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegAcEnable])
	if err != nil {
		return 0, err
	}
	return int(data & AcEnPrescalerMask), nil
}

// SetSequencerPrescaler sets the clock divisor of one sequencer. Each
// sequencer has its own clock-select register.
func (d *Device) SetSequencerPrescaler(seq int, prescaler uint16) error {
	if err := checkSequencer("SetSequencerPrescaler", seq); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.regWriteVerify(RegMap[seqClockSelReg[seq]], prescaler)
}

// GetSequencerPrescaler ...
func (d *Device) GetSequencerPrescaler(seq int) (uint16, error) {
	if err := checkSequencer("GetSequencerPrescaler", seq); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.regRead(RegMap[seqClockSelReg[seq]])
}

// SetCounterPrescaler programs the 32-bit prescaler of one of the
// general-purpose counters. The value is written through a shared data
// register in two 16-bit halves, high word first; the MXC control register
// selects the counter and which half the data register addresses.
func (d *Device) SetCounterPrescaler(counter int, prescaler uint32) error {
	if counter < 0 || counter >= NumCounters {
		return ErrBadArgument{Op: "SetCounterPrescaler", What: fmt.Sprintf("counter id %d out of range", counter)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.regWriteVerify(RegMap[RegMxcControl], MxcHighWord|uint16(counter)); err != nil {
		return err
	}
	if err := d.regWriteVerify(RegMap[RegMxcPrescaler], uint16(prescaler>>16)); err != nil {
		return err
	}
	if err := d.regWriteVerify(RegMap[RegMxcControl], uint16(counter)); err != nil {
		return err
	}
	return d.regWriteVerify(RegMap[RegMxcPrescaler], uint16(prescaler))
}

// GetCounterPrescaler ...
func (d *Device) GetCounterPrescaler(counter int) (uint32, error) {
	if counter < 0 || counter >= NumCounters {
		return 0, ErrBadArgument{Op: "GetCounterPrescaler", What: fmt.Sprintf("counter id %d out of range", counter)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.regWriteVerify(RegMap[RegMxcControl], MxcHighWord|uint16(counter)); err != nil {
		return 0, err
	}
	high, err := d.regRead(RegMap[RegMxcPrescaler])
	if err != nil {
		return 0, err
	}
	if err := d.regWriteVerify(RegMap[RegMxcControl], uint16(counter)); err != nil {
		return 0, err
	}
	low, err := d.regRead(RegMap[RegMxcPrescaler])
	if err != nil {
		return 0, err
	}
	return uint32(high)<<16 | uint32(low), nil
}

// SetSequencerTriggerSource selects what starts a sequencer: the software
// trigger bit in the event-enable register or the per-sequencer AC trigger
// bit in the AC-enable register. Both registers are updated under the same
// lock acquisition so no caller can observe the trigger half-moved.
func (d *Device) SetSequencerTriggerSource(seq int, src TriggerSource) error {
	if err := checkSequencer("SetSequencerTriggerSource", seq); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	enable, err := d.regRead(RegMap[RegEventEnable])
	if err != nil {
		return err
	}
	ac, err := d.regRead(RegMap[RegAcEnable])
	if err != nil {
		return err
	}

	if src == TriggerSoft {
		enable |= seqVmeBit[seq]
		ac &^= seqAcBit[seq]
	} else {
		enable &^= seqVmeBit[seq]
		ac |= seqAcBit[seq]
	}

	if err := d.regWriteVerify(RegMap[RegEventEnable], enable); err != nil {
		return err
	}
	return d.regWriteVerify(RegMap[RegAcEnable], ac)
}

// GetSequencerTriggerSource reads the trigger selection back. The AC bit
// alone decides: the write path keeps the AC-enable and software-trigger
// bits complementary, and a sequencer with its AC trigger armed is
// AC-triggered no matter what the software-trigger bit says. One read, one
// round-trip.
func (d *Device) GetSequencerTriggerSource(seq int) (TriggerSource, error) {
	if err := checkSequencer("GetSequencerTriggerSource", seq); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ac, err := d.regRead(RegMap[RegAcEnable])
	if err != nil {
		return 0, err
	}
	if ac&seqAcBit[seq] != 0 {
		return TriggerAc, nil
	}
	return TriggerSoft, nil
}

// TriggerSequencer fires the one-shot software trigger of a sequencer. The
// bit self-clears, so there is nothing to verify.
func (d *Device) TriggerSequencer(seq int) error {
	if err := checkSequencer("TriggerSequencer", seq); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegControl])
	if err != nil {
		return err
	}
	return d.regWrite(RegMap[RegControl], data|seqTriggerBit[seq])
}

// EnableSequencer starts or stops a sequencer. Some firmware revisions
// ignore the first write while a sequence is draining, so the write is
// retried until the run bit matches, up to five rounds.
func (d *Device) EnableSequencer(seq int, on bool) error {
	if err := checkSequencer("EnableSequencer", seq); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < 5; i++ {
		data, err := d.regRead(RegMap[RegEventEnable])
		if err != nil {
			return err
		}
		if (data&seqRunBit[seq] != 0) == on {
			return nil
		}
		if on {
			data |= seqRunBit[seq]
		} else {
			data &^= seqRunBit[seq]
		}
		if err := d.regWrite(RegMap[RegEventEnable], data); err != nil {
			return err
		}
	}
	data, err := d.regRead(RegMap[RegEventEnable])
	if err != nil {
		return err
	}
	if (data&seqRunBit[seq] != 0) == on {
		return nil
	}
	return ErrVerifyMismatch{Device: d.Name, Addr: RegMap[RegEventEnable], Wrote: seqRunBit[seq], Read: data}
}

// IsSequencerEnabled reports whether the run bit of a sequencer is set.
func (d *Device) IsSequencerEnabled(seq int) (bool, error) {
	if err := checkSequencer("IsSequencerEnabled", seq); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegEventEnable])
	if err != nil {
		return false, err
	}
	return data&seqRunBit[seq] != 0, nil
}

// SetEvent writes an event code into the event table of a sequencer. The
// address-select register and the paired code register are written under
// one lock acquisition.
func (d *Device) SetEvent(seq int, addr int, code uint8) error {
	if err := checkSequencer("SetEvent", seq); err != nil {
		return err
	}
	if err := checkSeqAddress("SetEvent", addr); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.regWriteVerify(RegMap[seqAddressReg[seq]], uint16(addr)); err != nil {
		return err
	}
	return d.regWriteVerify(RegMap[seqCodeReg[seq]], uint16(code))
}

// GetEvent reads the event code stored at an event-table address.
func (d *Device) GetEvent(seq int, addr int) (uint8, error) {
	if err := checkSequencer("GetEvent", seq); err != nil {
		return 0, err
	}
	if err := checkSeqAddress("GetEvent", addr); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.regWriteVerify(RegMap[seqAddressReg[seq]], uint16(addr)); err != nil {
		return 0, err
	}
	data, err := d.regRead(RegMap[seqCodeReg[seq]])
	if err != nil {
		return 0, err
	}
	return uint8(data), nil
}

// SetTimestamp writes a timestamp, in microseconds, into the event table
// of a sequencer. The timestamp is converted to event-clock cycles using
// the configured frequency and must fit a 32-bit cycle count; the guard
// compares the very product that is truncated afterwards, so guard and
// conversion agree at the boundary. The comparison is phrased so NaN and
// infinities fail it too.
func (d *Device) SetTimestamp(seq int, addr int, timestamp float64) error {
	if err := checkSequencer("SetTimestamp", seq); err != nil {
		return err
	}
	if err := checkSeqAddress("SetTimestamp", addr); err != nil {
		return err
	}
	cycles := timestamp * float64(d.Frequency)
	if !(cycles >= 0 && cycles <= math.MaxUint32) {
		return ErrBadArgument{Op: "SetTimestamp", What: fmt.Sprintf("timestamp %g us does not fit the cycle counter", timestamp)}
	}
	count := uint32(cycles)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.regWriteVerify(RegMap[seqAddressReg[seq]], uint16(addr)); err != nil {
		return err
	}
	if err := d.regWriteVerify(RegMap[seqTimeHighReg[seq]], uint16(count>>16)); err != nil {
		return err
	}
	return d.regWriteVerify(RegMap[seqTimeLowReg[seq]], uint16(count))
}

// GetTimestamp reads a timestamp back from the event table, in
// microseconds.
func (d *Device) GetTimestamp(seq int, addr int) (float64, error) {
	if err := checkSequencer("GetTimestamp", seq); err != nil {
		return 0, err
	}
	if err := checkSeqAddress("GetTimestamp", addr); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.regWriteVerify(RegMap[seqAddressReg[seq]], uint16(addr)); err != nil {
		return 0, err
	}
	high, err := d.regRead(RegMap[seqTimeHighReg[seq]])
	if err != nil {
		return 0, err
	}
	low, err := d.regRead(RegMap[seqTimeLowReg[seq]])
	if err != nil {
		return 0, err
	}
	count := uint32(high)<<16 | uint32(low)
	return float64(count) / float64(d.Frequency), nil
}

// SetSoftwareEvent injects an event code directly into the event stream.
// The card clears the register as soon as the event is sent, so the write
// is deliberately not verified.
func (d *Device) SetSoftwareEvent(code uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.regWrite(RegMap[RegSwEvent], uint16(code))
}

// EnableAcTrigger arms or disarms the AC sync input as a whole, leaving
// the rest of the AC enable register intact.
func (d *Device) EnableAcTrigger(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegAcEnable])
	if err != nil {
		return err
	}
	if on {
		data |= AcEnSync
	} else {
		data &^= AcEnSync
	}
	return d.regWriteVerify(RegMap[RegAcEnable], data)
}

// IsAcTriggerEnabled ...
func (d *Device) IsAcTriggerEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.regRead(RegMap[RegAcEnable])
	if err != nil {
		return false, err
	}
	return data&AcEnSync != 0, nil
}

// FirmwareVersion reads the firmware revision register. No side effects.
func (d *Device) FirmwareVersion() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.regRead(RegMap[RegFirmware])
}

// Setup brings a freshly initialized card into a known state: everything
// disabled, default prescalers, the microsecond divider matched to the
// configured event-clock frequency, and the first DefaultEventCount
// event-table slots of each sequencer set to the end-of-sequence event
// with timestamp zero. It composes the public operations, so the card is
// locked per step, not for the whole pass; Setup is meant for the
// single-threaded initialization phase.
func (d *Device) Setup() error {
	log.Info("Setting up device %s", d.Name)

	if err := d.Enable(false); err != nil {
		return err
	}
	if err := d.EnableAcTrigger(false); err != nil {
		return err
	}
	if err := d.SetAcPrescaler(DefaultAcPrescaler); err != nil {
		return err
	}
	if err := d.SetRfPrescaler(DefaultRfPrescaler); err != nil {
		return err
	}
	if err := d.SetUsecDivider(uint16(d.Frequency)); err != nil {
		return err
	}
	for seq := 0; seq < NumSequencers; seq++ {
		if err := d.EnableSequencer(seq, false); err != nil {
			return err
		}
		if err := d.SetSequencerPrescaler(seq, DefaultSeqPrescaler); err != nil {
			return err
		}
		for addr := 0; addr < DefaultEventCount; addr++ {
			if err := d.SetEvent(seq, addr, EventEndSequence); err != nil {
				return err
			}
			if err := d.SetTimestamp(seq, addr, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetUsecDivider programs the microsecond divider register, which must
// hold the event-clock frequency in MHz for the card's timestamp hardware
// to count in microseconds.
func (d *Device) SetUsecDivider(divider uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.regWriteVerify(RegMap[RegUsecDivider], divider)
}

// GetUsecDivider ...
func (d *Device) GetUsecDivider() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.regRead(RegMap[RegUsecDivider])
}
