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

package layers

import (
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RegisterLayerNum identifies the layer
	RegisterLayerNum = 2014

	// RegisterMessageLength is the fixed size of a register access message.
	// Request and reply share the same layout.
	RegisterMessageLength = 12

	// BaseAddress is added to every register offset to form the address
	// field of the message.
	BaseAddress uint32 = 0x80000000
)

const (
	AccessRead  uint8 = 1
	AccessWrite uint8 = 2
)

// RegisterLayer represents a single register access: a read or a write of
// one 16-bit register. The status field is filled by the device and is
// advisory; the reference field is reserved and always zero.
type RegisterLayer struct {
	layers.BaseLayer
	Access uint8
	Status uint8
	Data   uint16
	Addr   uint32
	Ref    uint32
}

var RegisterLayerType = gopacket.RegisterLayerType(RegisterLayerNum,
	gopacket.LayerTypeMetadata{Name: "RegisterLayerType", Decoder: gopacket.DecodeFunc(DecodeRegisterLayer)})

// LayerType returns the type of the register layer in the layer catalog
func (reg *RegisterLayer) LayerType() gopacket.LayerType {
	return RegisterLayerType
}

// Serialize serializes the register access message to a buffer of at least
// RegisterMessageLength bytes. Multibyte fields are big-endian on the wire.
func (reg *RegisterLayer) Serialize(buf []byte) {
	buf[0] = reg.Access
	buf[1] = reg.Status
	binary.BigEndian.PutUint16(buf[2:4], reg.Data)
	binary.BigEndian.PutUint32(buf[4:8], reg.Addr)
	binary.BigEndian.PutUint32(buf[8:12], reg.Ref)
}

// SerializeTo serializes the register access message into bytes and writes the bytes to the SerializeBuffer
func (reg *RegisterLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(RegisterMessageLength)
	if err != nil {
		return err
	}
	reg.Serialize(bytes)
	return nil
}

func (reg *RegisterLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) != RegisterMessageLength {
		df.SetTruncated()
		return ErrMessageLength{Length: len(data)}
	}
	reg.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	reg.Access = data[0]
	reg.Status = data[1]
	reg.Data = binary.BigEndian.Uint16(data[2:4])
	reg.Addr = binary.BigEndian.Uint32(data[4:8])
	reg.Ref = binary.BigEndian.Uint32(data[8:12])
	return nil
}

func DecodeRegisterLayer(data []byte, p gopacket.PacketBuilder) error {
	reg := &RegisterLayer{}
	err := reg.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(reg)
	return nil
}
