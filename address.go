package isotp

import "fmt"

// MessageType is N_AI Mtype as in ISO 15765-2, 5.3.1.
type MessageType uint8

const (
	// Diagnostics messages carry N_SA, N_TA and N_TAtype.
	Diagnostics MessageType = iota
	// RemoteDiagnostics messages additionally carry N_AE (mixed addressing).
	RemoteDiagnostics
)

func (sf MessageType) String() string {
	switch sf {
	case Diagnostics:
		return "Diagnostics"
	case RemoteDiagnostics:
		return "RemoteDiagnostics"
	default:
		return "Unknown"
	}
}

// TargetAddressType is N_TAtype, 5.3.2.4.
type TargetAddressType uint8

const (
	// Physical addressing is 1:1 and supports single and multi frame messages.
	Physical TargetAddressType = iota
	// Functional addressing is 1:n and only single frame messages are allowed.
	Functional
)

func (sf TargetAddressType) String() string {
	switch sf {
	case Physical:
		return "Physical"
	case Functional:
		return "Functional"
	default:
		return "Unknown"
	}
}

// Address is the network address information (N_AI) that addresses a peer.
// Not every field is meaningful for every AddressingMode; the encoder
// selected at construction decides which ones it reads and writes.
type Address struct {
	// RxID and TxID are the 11-bit or 29-bit CAN identifiers this address
	// is received on / transmitted on.
	RxID uint32
	TxID uint32

	// SourceAddress is N_SA, the network sender address. 5.3.2.2.
	SourceAddress uint8
	// TargetAddress is N_TA, the network target address. 5.3.2.3.
	TargetAddress uint8
	// NetworkAddressExtension is N_AE, used only by mixed addressing. 5.3.2.5.
	NetworkAddressExtension uint8

	MessageType       MessageType
	TargetAddressType TargetAddressType
}

// Max11ID and Max29ID are the largest identifiers a standard / extended CAN
// frame can carry.
const (
	Max11ID uint32 = 0x7FF
	Max29ID uint32 = 0x1FFFFFFF
	// MaxN is the largest value that fits in an 8-bit source/target address
	// field used by the fixed-29 and extended addressing modes.
	MaxN uint8 = 0xFF
)

func (a Address) String() string {
	return fmt.Sprintf("Address{rx:%#x tx:%#x sa:%#x ta:%#x ae:%#x %s %s}",
		a.RxID, a.TxID, a.SourceAddress, a.TargetAddress, a.NetworkAddressExtension, a.MessageType, a.TargetAddressType)
}
