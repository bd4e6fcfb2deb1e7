package isotp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// pairedNormal11 wires two Normal11 Transports so every frame one sink
// emits is handed to the other's OnFrame, queued rather than delivered
// inline so callers can drive both instances with Tick in between.
func pairedNormal11(t *rapid.T, aRx, bRx uint32) (a, b *Transport, aQueue, bQueue *[]*CANFrame) {
	aQueue, bQueue = &[]*CANFrame{}, &[]*CANFrame{}
	clockA, clockB := &stepClock{}, &stepClock{}

	cfgA := DefaultConfig()
	cfgA.MyAddress = Address{RxID: aRx}
	var err error
	a, err = NewTransport(cfgA, func(f Frame) bool {
		*bQueue = append(*bQueue, copyCANFrame(f))
		return true
	}, clockA.now, Callback{}, nil)
	require.NoError(t, err)

	cfgB := DefaultConfig()
	cfgB.MyAddress = Address{RxID: bRx}
	b, err = NewTransport(cfgB, func(f Frame) bool {
		*aQueue = append(*aQueue, copyCANFrame(f))
		return true
	}, clockB.now, Callback{}, nil)
	require.NoError(t, err)

	return a, b, aQueue, bQueue
}

func pumpUntilIdle(a, b *Transport, aQueue, bQueue *[]*CANFrame, rounds int) {
	for i := 0; i < rounds; i++ {
		a.Tick()
		b.Tick()
		for _, f := range *aQueue {
			a.OnFrame(f)
		}
		*aQueue = nil
		for _, f := range *bQueue {
			b.OnFrame(f)
		}
		*bQueue = nil
	}
}

// Invariant 1: a message of 1 to 200 bytes, covering both the Single Frame
// and the First/Consecutive frame paths, round-trips exactly.
func TestPropertyRoundTripAnySize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		message := rapid.SliceOfN(rapid.Byte(), 1, 200).Draw(t, "message")

		var got []indicationRecord
		a, b, aQueue, bQueue := pairedNormal11(t, 0x700, 0x600)
		a.cb.Indication = func(addr Address, m []byte, r Result) {
			got = append(got, indicationRecord{addr, append([]byte(nil), m...), r})
		}

		err := b.Send(Address{TxID: 0x700}, message)
		require.NoError(t, err)

		pumpUntilIdle(a, b, aQueue, bQueue, 300)

		require.Len(t, got, 1)
		assert.Equal(t, ResultOK, got[0].result)
		assert.Equal(t, message, got[0].message)
	})
}

// Invariant 2: a frame addressed to a different RxID produces no
// indication and leaves the receive table untouched.
func TestPropertyNonMatchingAddressIsIgnored(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ourRx := rapid.Uint32Range(0, Max11ID).Draw(t, "ourRx")
		delta := rapid.Uint32Range(1, Max11ID).Draw(t, "delta")
		otherID := (ourRx + delta) % (Max11ID + 1)

		sink := &memSink{}
		clock := &stepClock{}
		cfg := DefaultConfig()
		cfg.MyAddress = Address{RxID: ourRx}

		var got []indicationRecord
		tp, err := NewTransport(cfg, sink.send, clock.now, Callback{
			Indication: func(addr Address, m []byte, r Result) {
				got = append(got, indicationRecord{addr, m, r})
			},
		}, nil)
		require.NoError(t, err)

		tp.OnFrame(frameOf(otherID, false, 0x01, 0x42))

		assert.Empty(t, got)
		assert.Empty(t, tp.rx.messages)
	})
}

// Invariant 3: single-frame receptions from distinct peers are
// independent; neither's bytes or result leak into the other's.
func TestPropertySingleFrameFromDistinctPeersIsIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		byteA := rapid.Byte().Draw(t, "byteA")
		byteB := rapid.Byte().Draw(t, "byteB")

		sink := &memSink{}
		clock := &stepClock{}
		cfg := DefaultConfig()
		cfg.Mode = NormalFixed29
		cfg.MyAddress = Address{SourceAddress: 0x10}

		var got []indicationRecord
		tp, err := NewTransport(cfg, sink.send, clock.now, Callback{
			Indication: func(addr Address, m []byte, r Result) {
				got = append(got, indicationRecord{addr, append([]byte(nil), m...), r})
			},
		}, nil)
		require.NoError(t, err)

		sfFrom := func(source, b uint8) *CANFrame {
			id := fixedPhysicalPrefix | uint32(0x10)<<8 | uint32(source)
			return frameOf(id, true, 0x01, b)
		}
		tp.OnFrame(sfFrom(0x01, byteA))
		tp.OnFrame(sfFrom(0x02, byteB))

		require.Len(t, got, 2)
		assert.Equal(t, []byte{byteA}, got[0].message)
		assert.Equal(t, []byte{byteB}, got[1].message)
		assert.Equal(t, ResultOK, got[0].result)
		assert.Equal(t, ResultOK, got[1].result)
	})
}

// Invariant 4: giving the first consecutive frame any sequence number other
// than 1 yields exactly one N_WRONG_SN indication and drops the partial
// message.
func TestPropertyWrongSequenceNumberIsDetected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		badSN := rapid.IntRange(0, 15).Filter(func(n int) bool { return n != 1 }).Draw(t, "badSN")

		sink := &memSink{}
		clock := &stepClock{}
		cfg := DefaultConfig()
		cfg.MyAddress = Address{RxID: 0x700}

		var got []indicationRecord
		tp, err := NewTransport(cfg, sink.send, clock.now, Callback{
			Indication: func(addr Address, m []byte, r Result) {
				got = append(got, indicationRecord{addr, m, r})
			},
		}, nil)
		require.NoError(t, err)

		tp.OnFrame(frameOf(0x700, false, 0x10, 0x08, 0, 1, 2, 3, 4, 5))
		cfPCI := 0x20 | byte(badSN)
		tp.OnFrame(frameOf(0x700, false, cfPCI, 6, 7))

		require.Len(t, got, 1)
		assert.Equal(t, ResultWrongSN, got[0].result)
		assert.Empty(t, tp.rx.messages)
	})
}

// Invariant 5: opening K+1 concurrent receptions against a table of
// capacity K rejects exactly the (K+1)-th with N_MESSAGE_NUM_MAX, leaving
// the first K in progress.
func TestPropertyTableFullnessRejectsOnlyOverflow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 6).Draw(t, "capacity")

		sink := &memSink{}
		clock := &stepClock{}
		cfg := DefaultConfig()
		cfg.Mode = NormalFixed29
		cfg.ReceiveTableCapacity = capacity
		cfg.MyAddress = Address{SourceAddress: 0x10}

		var got []indicationRecord
		tp, err := NewTransport(cfg, sink.send, clock.now, Callback{
			Indication: func(addr Address, m []byte, r Result) {
				got = append(got, indicationRecord{addr, m, r})
			},
		}, nil)
		require.NoError(t, err)

		ffFrom := func(source uint8) *CANFrame {
			id := fixedPhysicalPrefix | uint32(0x10)<<8 | uint32(source)
			return frameOf(id, true, 0x10, 0x08, 0, 1, 2, 3, 4, 5)
		}

		for i := 0; i <= capacity; i++ {
			tp.OnFrame(ffFrom(uint8(i + 1)))
		}

		require.Len(t, got, 1)
		assert.Equal(t, ResultMessageNumMax, got[0].result)
		assert.Len(t, tp.rx.messages, capacity)
	})
}
