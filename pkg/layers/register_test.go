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
	"bytes"
	"testing"

	"github.com/google/gopacket"
)

func TestSerialize(t *testing.T) {
	reg := &RegisterLayer{
		Access: AccessWrite,
		Data:   0xBEEF,
		Addr:   BaseAddress + 0x44,
		Ref:    0x01020304,
	}
	buf := make([]byte, RegisterMessageLength)
	reg.Serialize(buf)
	want := []byte{
		0x02, 0x00,
		0xBE, 0xEF,
		0x80, 0x00, 0x00, 0x44,
		0x01, 0x02, 0x03, 0x04,
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("Serialize: got % x, want % x", buf, want)
	}
}

func TestSerializeTo(t *testing.T) {
	reg := &RegisterLayer{
		Access: AccessRead,
		Addr:   BaseAddress + 0x2E,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, reg); err != nil {
		t.Fatal(err)
	}
	if len(buf.Bytes()) != RegisterMessageLength {
		t.Errorf("SerializeTo: got %d bytes, want %d", len(buf.Bytes()), RegisterMessageLength)
	}
	if buf.Bytes()[0] != AccessRead {
		t.Errorf("SerializeTo: access byte %d, want %d", buf.Bytes()[0], AccessRead)
	}
}

func TestDecodeRoundtrip(t *testing.T) {
	reg := &RegisterLayer{
		Access: AccessRead,
		Status: 1,
		Data:   0x1234,
		Addr:   BaseAddress + 0x68,
	}
	buf := make([]byte, RegisterMessageLength)
	reg.Serialize(buf)

	packet := gopacket.NewPacket(buf, RegisterLayerType, gopacket.Default)
	layer := packet.Layer(RegisterLayerType)
	if layer == nil {
		t.Fatalf("Decode: no register layer in packet: %s", packet.ErrorLayer())
	}
	decoded := layer.(*RegisterLayer)
	if decoded.Access != reg.Access || decoded.Status != reg.Status ||
		decoded.Data != reg.Data || decoded.Addr != reg.Addr || decoded.Ref != reg.Ref {
		t.Errorf("Decode: got %+v, want %+v", decoded, reg)
	}
}

func TestDecodeBadLength(t *testing.T) {
	for _, n := range []int{0, 11, 13, 64} {
		data := make([]byte, n)
		reg := &RegisterLayer{}
		err := reg.DecodeFromBytes(data, gopacket.NilDecodeFeedback)
		if err == nil {
			t.Errorf("DecodeFromBytes accepted %d bytes", n)
			continue
		}
		if _, ok := err.(ErrMessageLength); !ok {
			t.Errorf("DecodeFromBytes(%d bytes): got %T, want ErrMessageLength", n, err)
		}
	}
}
