package isotp

import "errors"

// defines the configuration range for a Transport instance.
const (
	// MaxMessageSizeMin and MaxMessageSizeMax bound the configurable
	// reassembly/segmentation ceiling. 4095 is the ISO 15765-2 absolute
	// limit (12-bit FF length field).
	MaxMessageSizeMin = 8
	MaxMessageSizeMax = 4095

	// ReceiveTableCapacityMin and Max bound how many peers may have a
	// multi-frame reception in progress at once.
	ReceiveTableCapacityMin = 1
	ReceiveTableCapacityMax = 32

	// MaxWaitFrameNumberMin and Max bound N_WFTmax, the number of
	// consecutive WAIT flow-control frames tolerated before N_WFT_OVRN.
	MaxWaitFrameNumberMin = 1
	MaxWaitFrameNumberMax = 255

	// TimeoutMin and TimeoutMax bound N_As/N_Ar/N_Bs/N_Cr, in milliseconds.
	// ISO bounds each at 1000 ms; this library budgets 1500 ms by default.
	TimeoutMin = 1
	TimeoutMax = 1500
)

// Config defines a Transport instance's construction-time parameters.
// The default is applied for each unspecified value.
type Config struct {
	// Mode selects one of the seven address encoding schemes. There is no
	// default; a zero Config always selects Normal11.
	Mode AddressingMode

	// MyAddress is the local peer's address; matches is evaluated against
	// it on every received frame.
	MyAddress Address

	// MaxMessageSize caps reassembled and segmented message length.
	// Default 4095.
	MaxMessageSize uint16

	// BlockSize is N_BS as sent in outgoing flow-control frames; while
	// receiving, a further flow-control frame is emitted after every
	// BlockSize consecutive frames. 0 means unlimited. Default 0.
	BlockSize uint8

	// SeparationTime is the raw STmin byte sent in outgoing flow-control
	// frames. Default 0 (send consecutive frames back to back).
	SeparationTime uint8

	// ReceiveTableCapacity bounds concurrent in-progress receptions.
	// Default 8.
	ReceiveTableCapacity int

	// MaxWaitFrameNumber is N_WFTmax. Default 10.
	MaxWaitFrameNumber int

	// TimeoutA, TimeoutBS and TimeoutCR are N_As/N_Ar, N_Bs and N_Cr in
	// milliseconds. Default 1500 each.
	TimeoutA  uint32
	TimeoutBS uint32
	TimeoutCR uint32
}

// Valid applies the default for each unspecified value and rejects values
// outside the documented range.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("isotp: nil config")
	}

	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = MaxMessageSizeMax
	} else if c.MaxMessageSize < MaxMessageSizeMin || c.MaxMessageSize > MaxMessageSizeMax {
		return errors.New("isotp: MaxMessageSize not in [8, 4095]")
	}

	if c.ReceiveTableCapacity == 0 {
		c.ReceiveTableCapacity = 8
	} else if c.ReceiveTableCapacity < ReceiveTableCapacityMin || c.ReceiveTableCapacity > ReceiveTableCapacityMax {
		return errors.New("isotp: ReceiveTableCapacity not in [1, 32]")
	}

	if c.MaxWaitFrameNumber == 0 {
		c.MaxWaitFrameNumber = 10
	} else if c.MaxWaitFrameNumber < MaxWaitFrameNumberMin || c.MaxWaitFrameNumber > MaxWaitFrameNumberMax {
		return errors.New("isotp: MaxWaitFrameNumber not in [1, 255]")
	}

	if c.TimeoutA == 0 {
		c.TimeoutA = TimeoutMax
	} else if c.TimeoutA < TimeoutMin || c.TimeoutA > TimeoutMax {
		return errors.New("isotp: TimeoutA not in [1, 1500]ms")
	}

	if c.TimeoutBS == 0 {
		c.TimeoutBS = TimeoutMax
	} else if c.TimeoutBS < TimeoutMin || c.TimeoutBS > TimeoutMax {
		return errors.New("isotp: TimeoutBS not in [1, 1500]ms")
	}

	if c.TimeoutCR == 0 {
		c.TimeoutCR = TimeoutMax
	} else if c.TimeoutCR < TimeoutMin || c.TimeoutCR > TimeoutMax {
		return errors.New("isotp: TimeoutCR not in [1, 1500]ms")
	}

	return nil
}

// DefaultConfig returns a Config using Normal11 addressing and every
// default value; callers still need to set MyAddress.
func DefaultConfig() Config {
	return Config{
		Mode:                 Normal11,
		MaxMessageSize:       MaxMessageSizeMax,
		BlockSize:            0,
		SeparationTime:       0,
		ReceiveTableCapacity: 8,
		MaxWaitFrameNumber:   10,
		TimeoutA:             TimeoutMax,
		TimeoutBS:            TimeoutMax,
		TimeoutCR:            TimeoutMax,
	}
}
