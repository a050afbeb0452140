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

// Register map of the dual-sequencer VME-EVG-230/RF revision. Offsets are
// relative to the base address of the card; every register is 16 bits wide.

type RegAlias int

const (
	RegControl RegAlias = iota
	RegEventEnable
	RegSwEvent
	RegSeq0ClockSel
	RegSeq1ClockSel
	RegAcEnable
	RegMxcControl
	RegMxcPrescaler
	RegFirmware
	RegRfControl
	RegSeq0Address
	RegSeq0Code
	RegSeq0TimeHigh
	RegSeq0TimeLow
	RegSeq1Address
	RegSeq1Code
	RegSeq1TimeHigh
	RegSeq1TimeLow
	RegUsecDivider
	RegAliasLimit
)

var RegMap = map[RegAlias]uint16{
	RegControl:      0x00,
	RegEventEnable:  0x02,
	RegSwEvent:      0x04,
	RegSeq0ClockSel: 0x24,
	RegSeq1ClockSel: 0x26,
	RegAcEnable:     0x28,
	RegMxcControl:   0x2A,
	RegMxcPrescaler: 0x2C,
	RegFirmware:     0x2E,
	RegRfControl:    0x40,
	RegSeq0Address:  0x44,
	RegSeq0Code:     0x46,
	RegSeq0TimeHigh: 0x48,
	RegSeq0TimeLow:  0x4A,
	RegSeq1Address:  0x4C,
	RegSeq1Code:     0x4E,
	RegSeq1TimeHigh: 0x50,
	RegSeq1TimeLow:  0x52,
	RegUsecDivider:  0x68,
}

// Control register bits
const (
	CtrlDisable     uint16 = 0x8000
	CtrlFifoFull    uint16 = 0x4000
	CtrlDisableFifo uint16 = 0x1000
	CtrlErrorLed    uint16 = 0x0800
	CtrlSeq1Trigger uint16 = 0x0200
	CtrlSeq0Trigger uint16 = 0x0100
	CtrlRxViolation uint16 = 0x0001
)

// Event enable register bits
const (
	EvtEnSeq1Run uint16 = 0x0008
	EvtEnSeq0Run uint16 = 0x0004
	EvtEnSeq1Vme uint16 = 0x0002
	EvtEnSeq0Vme uint16 = 0x0001
)

// AC enable register bits; the low byte holds the AC prescaler
const (
	AcEnExternal      uint16 = 0x8000
	AcEnSync          uint16 = 0x4000
	AcEnSeq1          uint16 = 0x2000
	AcEnSeq0          uint16 = 0x1000
	AcEnPrescalerMask uint16 = 0x00FF
)

// MXC control register bits
const (
	MxcHighWord    uint16 = 0x0008
	MxcCounterMask uint16 = 0x0007
)

// RF control register bits
const (
	RfSourceMask     uint16 = 0x01C0
	RfSourceExternal uint16 = 0x01C0
	RfDividerMask    uint16 = 0x001F
)

const (
	NumSequencers = 2
	NumCounters   = 8

	// SeqAddressLimit bounds the event-table address space of a sequencer.
	SeqAddressLimit = 2048

	RfPrescalerMin = 1
	RfPrescalerMax = 32
	AcPrescalerMin = 1
	AcPrescalerMax = 255

	// EventEndSequence is the event code that terminates a sequence.
	EventEndSequence uint8 = 0x7F

	DefaultAcPrescaler  = 50
	DefaultRfPrescaler  = 4
	DefaultSeqPrescaler = 1

	// DefaultEventCount is how many event-table slots Setup initializes
	// per sequencer.
	DefaultEventCount = 100
)

// Per-sequencer register and bit lookup tables, indexed by sequencer id.
var (
	seqAddressReg  = [NumSequencers]RegAlias{RegSeq0Address, RegSeq1Address}
	seqCodeReg     = [NumSequencers]RegAlias{RegSeq0Code, RegSeq1Code}
	seqTimeHighReg = [NumSequencers]RegAlias{RegSeq0TimeHigh, RegSeq1TimeHigh}
	seqTimeLowReg  = [NumSequencers]RegAlias{RegSeq0TimeLow, RegSeq1TimeLow}
	seqClockSelReg = [NumSequencers]RegAlias{RegSeq0ClockSel, RegSeq1ClockSel}

	seqTriggerBit = [NumSequencers]uint16{CtrlSeq0Trigger, CtrlSeq1Trigger}
	seqRunBit     = [NumSequencers]uint16{EvtEnSeq0Run, EvtEnSeq1Run}
	seqVmeBit     = [NumSequencers]uint16{EvtEnSeq0Vme, EvtEnSeq1Vme}
	seqAcBit      = [NumSequencers]uint16{AcEnSeq0, AcEnSeq1}
)
