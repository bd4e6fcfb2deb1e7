package isotp

import "errors"

// ErrAddressEncode is returned by an encoder's toFrame when the Address
// cannot be represented by the selected AddressingMode (an id or field
// exceeds what that mode can carry). It surfaces to the error handler as
// StatusAddressEncodeError; decode failures are not errors, they simply
// cause the frame to be ignored (fromFrame returns ok=false).
var ErrAddressEncode = errors.New("isotp: address does not fit addressing mode")

// AddressingMode selects one of the seven address encoding schemes defined
// by ISO 15765-2. The set is closed and chosen once, at Transport
// construction.
type AddressingMode uint8

const (
	Normal11 AddressingMode = iota
	Normal29
	NormalFixed29
	Extended11
	Extended29
	Mixed11
	Mixed29
)

func (sf AddressingMode) String() string {
	switch sf {
	case Normal11:
		return "Normal11"
	case Normal29:
		return "Normal29"
	case NormalFixed29:
		return "NormalFixed29"
	case Extended11:
		return "Extended11"
	case Extended29:
		return "Extended29"
	case Mixed11:
		return "Mixed11"
	case Mixed29:
		return "Mixed29"
	default:
		return "Unknown"
	}
}

// addressEncoder is the per-mode pure transformation between Address and
// Frame. It is selected once (newEncoder) and never switched on again per
// frame; usesExtendedByte is queried once at construction to derive the
// N_PCI offset.
type addressEncoder interface {
	toFrame(a Address, f Frame) error
	fromFrame(f Frame) (Address, bool)
	matches(peer, our Address) bool
	usesExtendedByte() bool

	// reply builds the Address a response to peer must be sent with, given
	// our own configured address. Addressing modes that carry a distinct
	// address per peer (NormalFixed29, Mixed29) route back to peer
	// specifically; the ID-based modes (Normal11/29) are inherently
	// single-peer per instance and reply on the same CAN ID the request
	// arrived on, since our.RxID always equals peer.TxID by construction.
	reply(our, peer Address) Address

	// matchesSend reports whether decoded (an Address just produced by
	// fromFrame) is the counterpart's reply to sent (the Address a message
	// was Send to). Needed because a decoded Address and a send-format
	// Address describe the same wire identity with source/target swapped
	// under NormalFixed29 and Mixed29.
	matchesSend(decoded, sent Address) bool
}

func newEncoder(mode AddressingMode) addressEncoder {
	switch mode {
	case Normal11:
		return normal11Encoder{}
	case Normal29:
		return normal29Encoder{}
	case NormalFixed29:
		return normalFixed29Encoder{}
	case Extended11:
		return extended11Encoder{}
	case Extended29:
		return extended29Encoder{}
	case Mixed11:
		return mixed11Encoder{}
	case Mixed29:
		return mixed29Encoder{}
	default:
		panic("isotp: unknown addressing mode")
	}
}

// npciOffset derives the N_PCI byte offset once per instance: 1 when the
// mode consumes the first data byte for addressing, 0 otherwise.
func npciOffset(e addressEncoder) int {
	if e.usesExtendedByte() {
		return 1
	}
	return 0
}

/* --- Normal11 --- */

type normal11Encoder struct{}

func (normal11Encoder) usesExtendedByte() bool { return false }

func (normal11Encoder) fromFrame(f Frame) (Address, bool) {
	id := f.ID()
	if f.Extended() || id > Max11ID {
		return Address{}, false
	}
	return Address{TxID: id}, true
}

func (normal11Encoder) toFrame(a Address, f Frame) error {
	if a.TxID > Max11ID {
		return ErrAddressEncode
	}
	f.SetID(a.TxID)
	f.SetExtended(false)
	return nil
}

func (normal11Encoder) matches(peer, our Address) bool {
	return peer.TxID == our.RxID
}

func (normal11Encoder) reply(our, peer Address) Address {
	return Address{TxID: peer.TxID}
}

func (normal11Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.TxID == sent.TxID
}

/* --- Normal29 --- */

type normal29Encoder struct{}

func (normal29Encoder) usesExtendedByte() bool { return false }

func (normal29Encoder) fromFrame(f Frame) (Address, bool) {
	id := f.ID()
	if !f.Extended() || id > Max29ID {
		return Address{}, false
	}
	return Address{TxID: id}, true
}

func (normal29Encoder) toFrame(a Address, f Frame) error {
	if a.TxID > Max29ID {
		return ErrAddressEncode
	}
	f.SetID(a.TxID)
	f.SetExtended(true)
	return nil
}

func (normal29Encoder) matches(peer, our Address) bool {
	return peer.TxID == our.RxID
}

func (normal29Encoder) reply(our, peer Address) Address {
	return Address{TxID: peer.TxID}
}

func (normal29Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.TxID == sent.TxID
}

/* --- NormalFixed29 --- */

const (
	fixedPhysicalPrefix   uint32 = 0x18DA0000
	fixedFunctionalPrefix uint32 = 0x18DB0000
	fixedPrefixMask       uint32 = 0xFFFE0000
	fixedTargetTypeBit    uint32 = 0x00010000
)

type normalFixed29Encoder struct{}

func (normalFixed29Encoder) usesExtendedByte() bool { return false }

func (normalFixed29Encoder) fromFrame(f Frame) (Address, bool) {
	if !f.Extended() {
		return Address{}, false
	}

	id := f.ID()
	if id&fixedPrefixMask != fixedPhysicalPrefix&fixedPrefixMask {
		return Address{}, false
	}

	tat := Physical
	if id&fixedTargetTypeBit != 0 {
		tat = Functional
	}

	return Address{
		SourceAddress:     uint8(id),
		TargetAddress:     uint8(id >> 8),
		TargetAddressType: tat,
	}, true
}

func (normalFixed29Encoder) toFrame(a Address, f Frame) error {
	prefix := fixedPhysicalPrefix
	if a.TargetAddressType == Functional {
		prefix = fixedFunctionalPrefix
	}
	f.SetID(prefix | uint32(a.TargetAddress)<<8 | uint32(a.SourceAddress))
	f.SetExtended(true)
	return nil
}

func (normalFixed29Encoder) matches(peer, our Address) bool {
	return peer.TargetAddress == our.SourceAddress
}

func (normalFixed29Encoder) reply(our, peer Address) Address {
	return Address{
		SourceAddress:     our.SourceAddress,
		TargetAddress:     peer.SourceAddress,
		TargetAddressType: peer.TargetAddressType,
	}
}

func (normalFixed29Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.SourceAddress == sent.TargetAddress && decoded.TargetAddressType == sent.TargetAddressType
}

/* --- Extended11 --- */

type extended11Encoder struct{}

func (extended11Encoder) usesExtendedByte() bool { return true }

func (extended11Encoder) fromFrame(f Frame) (Address, bool) {
	id := f.ID()
	if f.Extended() || id > Max11ID || f.DLC() < 1 {
		return Address{}, false
	}
	return Address{TxID: id, TargetAddress: f.Byte(0)}, true
}

func (extended11Encoder) toFrame(a Address, f Frame) error {
	if a.TxID > Max11ID {
		return ErrAddressEncode
	}
	f.SetID(a.TxID)
	f.SetExtended(false)
	if f.DLC() < 1 {
		f.SetDLC(1)
	}
	f.SetByte(0, a.TargetAddress)
	return nil
}

func (extended11Encoder) matches(peer, our Address) bool {
	return peer.TxID == our.RxID && peer.TargetAddress == our.SourceAddress
}

func (extended11Encoder) reply(our, peer Address) Address {
	return Address{TxID: peer.TxID, TargetAddress: our.TargetAddress}
}

func (extended11Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.TxID == sent.TxID
}

/* --- Extended29 --- */

type extended29Encoder struct{}

func (extended29Encoder) usesExtendedByte() bool { return true }

func (extended29Encoder) fromFrame(f Frame) (Address, bool) {
	id := f.ID()
	if !f.Extended() || id > Max29ID || f.DLC() < 1 {
		return Address{}, false
	}
	return Address{TxID: id, TargetAddress: f.Byte(0)}, true
}

func (extended29Encoder) toFrame(a Address, f Frame) error {
	if a.TxID > Max29ID {
		return ErrAddressEncode
	}
	f.SetID(a.TxID)
	f.SetExtended(true)
	if f.DLC() < 1 {
		f.SetDLC(1)
	}
	f.SetByte(0, a.TargetAddress)
	return nil
}

func (extended29Encoder) matches(peer, our Address) bool {
	return peer.TxID == our.RxID && peer.TargetAddress == our.SourceAddress
}

func (extended29Encoder) reply(our, peer Address) Address {
	return Address{TxID: peer.TxID, TargetAddress: our.TargetAddress}
}

func (extended29Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.TxID == sent.TxID
}

/* --- Mixed11 --- */

type mixed11Encoder struct{}

func (mixed11Encoder) usesExtendedByte() bool { return true }

func (mixed11Encoder) fromFrame(f Frame) (Address, bool) {
	id := f.ID()
	if f.Extended() || id > Max11ID || f.DLC() < 1 {
		return Address{}, false
	}
	return Address{TxID: id, NetworkAddressExtension: f.Byte(0), MessageType: RemoteDiagnostics}, true
}

func (mixed11Encoder) toFrame(a Address, f Frame) error {
	if a.TxID > Max11ID {
		return ErrAddressEncode
	}
	f.SetID(a.TxID)
	f.SetExtended(false)
	if f.DLC() < 1 {
		f.SetDLC(1)
	}
	f.SetByte(0, a.NetworkAddressExtension)
	return nil
}

func (mixed11Encoder) matches(peer, our Address) bool {
	return peer.TxID == our.RxID && peer.NetworkAddressExtension == our.NetworkAddressExtension
}

func (mixed11Encoder) reply(our, peer Address) Address {
	return Address{TxID: peer.TxID, NetworkAddressExtension: our.NetworkAddressExtension}
}

func (mixed11Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.TxID == sent.TxID && decoded.NetworkAddressExtension == sent.NetworkAddressExtension
}

/* --- Mixed29 --- */

const (
	mixedPhysicalPrefix   uint32 = 0x18CE0000
	mixedFunctionalPrefix uint32 = 0x18CD0000
	// mixedPrefixMask clears both bits that distinguish the Mixed29
	// physical/functional prefixes (0x18CE vs 0x18CD differ in bits 16
	// and 17), unlike NormalFixed29's pair which differs in bit 16 alone.
	mixedPrefixMask uint32 = 0xFFFC0000
)

type mixed29Encoder struct{}

func (mixed29Encoder) usesExtendedByte() bool { return true }

func (mixed29Encoder) fromFrame(f Frame) (Address, bool) {
	if !f.Extended() || f.DLC() < 1 {
		return Address{}, false
	}

	id := f.ID()
	if id&mixedPrefixMask != mixedPhysicalPrefix&mixedPrefixMask {
		return Address{}, false
	}

	tat := Physical
	if id&fixedTargetTypeBit != 0 {
		tat = Functional
	}

	return Address{
		SourceAddress:           uint8(id),
		TargetAddress:           uint8(id >> 8),
		NetworkAddressExtension: f.Byte(0),
		TargetAddressType:       tat,
		MessageType:             RemoteDiagnostics,
	}, true
}

func (mixed29Encoder) toFrame(a Address, f Frame) error {
	prefix := mixedPhysicalPrefix
	if a.TargetAddressType == Functional {
		prefix = mixedFunctionalPrefix
	}
	f.SetID(prefix | uint32(a.TargetAddress)<<8 | uint32(a.SourceAddress))
	f.SetExtended(true)
	if f.DLC() < 1 {
		f.SetDLC(1)
	}
	f.SetByte(0, a.NetworkAddressExtension)
	return nil
}

func (mixed29Encoder) matches(peer, our Address) bool {
	return peer.TargetAddress == our.SourceAddress && peer.NetworkAddressExtension == our.NetworkAddressExtension
}

func (mixed29Encoder) reply(our, peer Address) Address {
	return Address{
		SourceAddress:           our.SourceAddress,
		TargetAddress:           peer.SourceAddress,
		TargetAddressType:       peer.TargetAddressType,
		NetworkAddressExtension: our.NetworkAddressExtension,
	}
}

func (mixed29Encoder) matchesSend(decoded, sent Address) bool {
	return decoded.SourceAddress == sent.TargetAddress &&
		decoded.TargetAddressType == sent.TargetAddressType &&
		decoded.NetworkAddressExtension == sent.NetworkAddressExtension
}
