package isotp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSTmin(t *testing.T) {
	cases := []struct {
		name string
		raw  uint8
		want uint32
	}{
		{"zero", 0x00, 0},
		{"one ms", 0x01, 1000},
		{"max ms", 0x7F, 127000},
		{"min sub-ms", 0xF1, 100},
		{"max sub-ms", 0xF9, 900},
		{"reserved below sub-ms", 0x80, 127000},
		{"reserved above sub-ms", 0xFA, 127000},
		{"reserved top", 0xFF, 127000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decodeSTmin(tc.raw))
		})
	}
}

func TestBuildAndReadSingleFrame(t *testing.T) {
	f := &CANFrame{}
	buildSingleFrame(f, 0, []byte{0x67})
	assert.Equal(t, SingleFrame, pduTypeOf(f, 0))
	assert.Equal(t, uint8(1), sfLength(f, 0))
	assert.Equal(t, uint8(2), f.DLC())
	assert.Equal(t, uint8(0x67), f.Byte(1))
}

func TestBuildAndReadFirstFrame(t *testing.T) {
	f := &CANFrame{}
	buildFirstFrame(f, 0, 0xFFF, []byte{0, 1, 2, 3, 4, 5})
	assert.Equal(t, FirstFrame, pduTypeOf(f, 0))
	assert.Equal(t, uint16(0xFFF), ffLength(f, 0))
	assert.Equal(t, uint8(8), f.DLC())
}

func TestBuildAndReadConsecutiveFrame(t *testing.T) {
	f := &CANFrame{}
	buildConsecutiveFrame(f, 0, 3, []byte{6, 7})
	assert.Equal(t, ConsecutiveFrame, pduTypeOf(f, 0))
	assert.Equal(t, uint8(3), cfSequenceNumber(f, 0))
	assert.Equal(t, uint8(6), f.Byte(1))
}

func TestBuildAndReadFlowControlFrame(t *testing.T) {
	f := &CANFrame{}
	buildFlowControlFrame(f, 0, Wait, 8, 0x0A)
	assert.Equal(t, FlowControlFrame, pduTypeOf(f, 0))
	assert.Equal(t, Wait, flowStatusOf(f, 0))
	assert.Equal(t, uint8(8), f.Byte(1))
	assert.Equal(t, uint8(0x0A), f.Byte(2))
}

func TestExtendedByteShiftsOffset(t *testing.T) {
	f := &CANFrame{}
	buildSingleFrame(f, 1, []byte{0x11, 0x22})
	assert.Equal(t, SingleFrame, pduTypeOf(f, 1))
	assert.Equal(t, uint8(2), sfLength(f, 1))
	assert.Equal(t, uint8(0x11), f.Byte(2))
}
