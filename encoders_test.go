package isotp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormal11RoundTrip(t *testing.T) {
	e := normal11Encoder{}
	f := &CANFrame{}

	assert.NoError(t, e.toFrame(Address{TxID: 0x123}, f))
	assert.Equal(t, uint32(0x123), f.ID())
	assert.False(t, f.Extended())

	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x123), peer.TxID)
	assert.True(t, e.matches(peer, Address{RxID: 0x123}))
	assert.False(t, e.matches(peer, Address{RxID: 0x456}))

	assert.ErrorIs(t, e.toFrame(Address{TxID: Max11ID + 1}, f), ErrAddressEncode)
}

func TestNormal11DecodeRejectsExtendedOrOversize(t *testing.T) {
	e := normal11Encoder{}
	f := &CANFrame{}
	f.SetExtended(true)
	f.SetID(0x123)
	_, ok := e.fromFrame(f)
	assert.False(t, ok)

	f = &CANFrame{}
	f.SetID(Max11ID + 1)
	_, ok = e.fromFrame(f)
	assert.False(t, ok)
}

func TestNormal29RoundTrip(t *testing.T) {
	e := normal29Encoder{}
	f := &CANFrame{}

	assert.NoError(t, e.toFrame(Address{TxID: 0x1ABCDEF}, f))
	assert.True(t, f.Extended())

	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x1ABCDEF), peer.TxID)
	assert.True(t, e.matches(peer, Address{RxID: 0x1ABCDEF}))
}

func TestNormalFixed29RoundTrip(t *testing.T) {
	e := normalFixed29Encoder{}
	f := &CANFrame{}

	our := Address{SourceAddress: 0x89, TargetAddress: 0x12, TargetAddressType: Physical}
	assert.NoError(t, e.toFrame(our, f))
	assert.True(t, f.Extended())
	assert.Equal(t, uint32(0x18DA1289), f.ID())

	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x89), peer.SourceAddress)
	assert.Equal(t, uint8(0x12), peer.TargetAddress)
	assert.Equal(t, Physical, peer.TargetAddressType)

	assert.True(t, e.matches(peer, Address{SourceAddress: 0x12}))
}

func TestNormalFixed29Functional(t *testing.T) {
	e := normalFixed29Encoder{}
	f := &CANFrame{}

	assert.NoError(t, e.toFrame(Address{TargetAddressType: Functional}, f))
	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, Functional, peer.TargetAddressType)
}

func TestExtended11RoundTrip(t *testing.T) {
	e := extended11Encoder{}
	f := &CANFrame{}

	our := Address{TxID: 0x700, TargetAddress: 0xF1}
	assert.NoError(t, e.toFrame(our, f))
	assert.Equal(t, uint8(1), f.DLC())
	assert.Equal(t, uint8(0xF1), f.Byte(0))

	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x700), peer.TxID)
	assert.Equal(t, uint8(0xF1), peer.TargetAddress)
	assert.True(t, e.matches(peer, Address{RxID: 0x700, SourceAddress: 0xF1}))
}

func TestMixed11RoundTrip(t *testing.T) {
	e := mixed11Encoder{}
	f := &CANFrame{}

	our := Address{TxID: 0x321, NetworkAddressExtension: 0x5A}
	assert.NoError(t, e.toFrame(our, f))

	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, RemoteDiagnostics, peer.MessageType)
	assert.True(t, e.matches(peer, Address{RxID: 0x321, NetworkAddressExtension: 0x5A}))
}

func TestMixed29RoundTrip(t *testing.T) {
	e := mixed29Encoder{}
	f := &CANFrame{}

	our := Address{SourceAddress: 0x89, TargetAddress: 0x12, NetworkAddressExtension: 0x3C}
	assert.NoError(t, e.toFrame(our, f))
	assert.Equal(t, uint32(0x18CE1289), f.ID())

	peer, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.Equal(t, RemoteDiagnostics, peer.MessageType)
	assert.True(t, e.matches(peer, Address{SourceAddress: 0x12, NetworkAddressExtension: 0x3C}))
}

func TestNormalFixed29ReplyRoutesToSender(t *testing.T) {
	e := normalFixed29Encoder{}

	our := Address{SourceAddress: 0x89}
	sender := Address{SourceAddress: 0x12, TargetAddress: 0x89, TargetAddressType: Physical}

	reply := e.reply(our, sender)
	assert.Equal(t, uint8(0x89), reply.SourceAddress)
	assert.Equal(t, uint8(0x12), reply.TargetAddress)

	f := &CANFrame{}
	assert.NoError(t, e.toFrame(reply, f))
	assert.Equal(t, uint32(0x18DA1289), f.ID())

	sent := Address{SourceAddress: 0x12, TargetAddress: 0x89, TargetAddressType: Physical}
	decodedReply, ok := e.fromFrame(f)
	assert.True(t, ok)
	assert.True(t, e.matchesSend(decodedReply, sent))
}

func TestNormal11ReplyEchoesRequestID(t *testing.T) {
	e := normal11Encoder{}
	our := Address{RxID: 0x700}
	reply := e.reply(our, Address{TxID: 0x700})
	assert.Equal(t, uint32(0x700), reply.TxID)
}

func TestNpciOffsetPerMode(t *testing.T) {
	cases := []struct {
		mode AddressingMode
		want int
	}{
		{Normal11, 0},
		{Normal29, 0},
		{NormalFixed29, 0},
		{Extended11, 1},
		{Extended29, 1},
		{Mixed11, 1},
		{Mixed29, 1},
	}

	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, npciOffset(newEncoder(tc.mode)))
		})
	}
}
