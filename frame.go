package isotp

import (
	"encoding/binary"
	"errors"
)

// Frame is the CAN frame abstraction the core operates on. A platform
// integrates its own CAN frame representation by implementing these
// accessors; CANFrame below is the library's own default implementation,
// suitable when no other binding is required.
type Frame interface {
	ID() uint32
	SetID(id uint32)
	Extended() bool
	SetExtended(extended bool)
	DLC() uint8
	SetDLC(dlc uint8)
	Byte(i int) uint8
	SetByte(i int, b uint8)
}

// CANFrame is the default, dependency-free Frame implementation: an 11 or
// 29 bit identifier, an extended flag, a DLC and up to 8 data bytes.
type CANFrame struct {
	id       uint32
	extended bool
	dlc      uint8
	data     [8]byte
}

var _ Frame = (*CANFrame)(nil)

func (f *CANFrame) ID() uint32            { return f.id }
func (f *CANFrame) SetID(id uint32)       { f.id = id }
func (f *CANFrame) Extended() bool        { return f.extended }
func (f *CANFrame) SetExtended(e bool)    { f.extended = e }
func (f *CANFrame) DLC() uint8            { return f.dlc }
func (f *CANFrame) SetDLC(dlc uint8)      { f.dlc = dlc }
func (f *CANFrame) Byte(i int) uint8      { return f.data[i] }
func (f *CANFrame) SetByte(i int, b byte) { f.data[i] = b }

// ErrFrameTooShort is returned by UnmarshalBinary when fewer than 16 bytes
// (the Linux SocketCAN struct can_frame layout) are supplied.
var ErrFrameTooShort = errors.New("isotp: frame buffer shorter than 16 bytes")

const (
	canEFFFlag = 0x80000000
	canRTRFlag = 0x40000000
	canErrFlag = 0x20000000
	canSFFMask = 0x000007FF
	canEFFMask = 0x1FFFFFFF
)

// MarshalBinary encodes the frame in the Linux SocketCAN "struct can_frame"
// wire layout (16 bytes, little-endian id+flags, dlc, 3 bytes padding, 8
// bytes of data).
func (f *CANFrame) MarshalBinary() ([]byte, error) {
	id := f.id
	if f.extended {
		id = (id & canEFFMask) | canEFFFlag
	} else {
		id &= canSFFMask
	}

	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.dlc
	copy(buf[8:16], f.data[:])
	return buf, nil
}

// UnmarshalBinary decodes the Linux SocketCAN "struct can_frame" wire
// layout produced by MarshalBinary (and by a real AF_CAN socket read).
func (f *CANFrame) UnmarshalBinary(buf []byte) error {
	if len(buf) < 16 {
		return ErrFrameTooShort
	}

	raw := binary.LittleEndian.Uint32(buf[0:4])
	f.extended = raw&canEFFFlag != 0
	if f.extended {
		f.id = raw & canEFFMask
	} else {
		f.id = raw & canSFFMask
	}
	f.dlc = buf[4]
	copy(f.data[:], buf[8:16])
	return nil
}
