package isotp

// transportMessage is one peer's in-progress reception. Created on FF
// arrival, mutated on each CF, destroyed on completion, error, timeout or
// a duplicate FF/SF from the same peer. 3.
type transportMessage struct {
	peer           Address
	data           []byte
	remaining      uint16
	expectedSN     uint8
	cfCountInBlock uint8
	blockSize      uint8
	timer          deadline
}

// receiveTable is a bounded, array-backed mapping from peer address to
// in-progress reception. Capacity is fixed at construction; a full table
// rejects new entries rather than growing.
type receiveTable struct {
	messages []transportMessage
	capacity int
}

func newReceiveTable(capacity int) *receiveTable {
	return &receiveTable{messages: make([]transportMessage, 0, capacity), capacity: capacity}
}

func (t *receiveTable) indexOf(peer Address) int {
	for i := range t.messages {
		if t.messages[i].peer == peer {
			return i
		}
	}
	return -1
}

func (t *receiveTable) removeAt(i int) {
	t.messages = append(t.messages[:i], t.messages[i+1:]...)
}

func (t *receiveTable) insert(m transportMessage) bool {
	if len(t.messages) >= t.capacity {
		return false
	}
	t.messages = append(t.messages, m)
	return true
}

// onSingleFrame handles an SF PDU already identified to be addressed to
// us, from peer. 4.3.
func (tp *Transport) onSingleFrame(peer Address, f Frame, offset int) {
	length := sfLength(f, offset)
	maxLen := sfMaxLength(offset)
	if length == 0 || int(length) > maxLen {
		return
	}

	if i := tp.rx.indexOf(peer); i >= 0 {
		tp.cb.indication(peer, nil, ResultUnexpectedPDU)
		tp.rx.removeAt(i)
	}

	payload := make([]byte, length)
	for i := 0; i < int(length); i++ {
		payload[i] = f.Byte(offset + 1 + i)
	}
	tp.cb.indication(peer, payload, ResultOK)
}

// onFirstFrame handles an FF PDU addressed to us, from peer. 4.3.
func (tp *Transport) onFirstFrame(peer Address, f Frame, offset int) {
	total := ffLength(f, offset)
	minLen := uint16(sfMaxLength(offset) + 1)
	if total < minLen {
		return
	}

	if total > tp.config.MaxMessageSize || total > MaxMessageSizeMax {
		if fc, err := tp.newReplyFrame(peer); err == nil {
			buildFlowControlFrame(fc, offset, Overflow, 0, 0)
			tp.sink(fc)
		}
		return
	}

	if i := tp.rx.indexOf(peer); i >= 0 {
		tp.cb.indication(peer, nil, ResultUnexpectedPDU)
		tp.rx.removeAt(i)
	}

	chunk := ffPayloadCount(offset)
	if int(total) < chunk {
		chunk = int(total)
	}

	msg := transportMessage{
		peer:       peer,
		data:       make([]byte, 0, total),
		remaining:  total - uint16(chunk),
		expectedSN: 1,
		blockSize:  tp.config.BlockSize,
		timer:      newDeadline(tp.now),
	}
	for i := 0; i < chunk; i++ {
		msg.data = append(msg.data, f.Byte(offset+2+i))
	}
	msg.timer.arm(tp.config.TimeoutBS, ResultTimeoutBS)

	if !tp.rx.insert(msg) {
		tp.cb.indication(peer, nil, ResultMessageNumMax)
		return
	}

	tp.cb.firstFrameIndication(peer, total)

	fc, err := tp.newReplyFrame(peer)
	if err != nil {
		if i := tp.rx.indexOf(peer); i >= 0 {
			tp.rx.removeAt(i)
		}
		return
	}
	buildFlowControlFrame(fc, offset, ContinueToSend, tp.config.BlockSize, tp.config.SeparationTime)
	if !tp.sink(fc) {
		tp.Log.Warnf("isotp: flow control send failed for %s", peer)
		tp.errorHandler.report(StatusSendFailed, ErrFlowControlSendFailed)
		tp.cb.indication(peer, nil, ResultError)
		if i := tp.rx.indexOf(peer); i >= 0 {
			tp.rx.removeAt(i)
		}
	}
}

// onConsecutiveFrame handles a CF PDU addressed to us, from peer. 4.3.
func (tp *Transport) onConsecutiveFrame(peer Address, f Frame, offset int) {
	i := tp.rx.indexOf(peer)
	if i < 0 {
		return
	}
	msg := &tp.rx.messages[i]

	msg.timer.arm(tp.config.TimeoutCR, ResultTimeoutCR)

	sn := cfSequenceNumber(f, offset)
	if sn != msg.expectedSN {
		tp.cb.indication(peer, msg.data, ResultWrongSN)
		tp.rx.removeAt(i)
		return
	}

	chunk := cfPayloadCount(offset)
	if int(msg.remaining) < chunk {
		chunk = int(msg.remaining)
	}
	for j := 0; j < chunk; j++ {
		msg.data = append(msg.data, f.Byte(offset+1+j))
	}
	msg.remaining -= uint16(chunk)
	msg.expectedSN = (msg.expectedSN + 1) & 0x0F
	msg.cfCountInBlock++

	if msg.blockSize > 0 && msg.cfCountInBlock == msg.blockSize {
		msg.cfCountInBlock = 0
		if fc, err := tp.newReplyFrame(peer); err == nil {
			buildFlowControlFrame(fc, offset, ContinueToSend, msg.blockSize, tp.config.SeparationTime)
			tp.sink(fc)
		}
	}

	if msg.remaining == 0 {
		tp.cb.indication(peer, msg.data, ResultOK)
		tp.rx.removeAt(i)
	}
}

// checkReceiveTimeouts drops any in-progress reception whose timer has
// elapsed, delivering its timeout reason. Called once per tick.
func (tp *Transport) checkReceiveTimeouts() {
	for i := 0; i < len(tp.rx.messages); {
		msg := &tp.rx.messages[i]
		if msg.timer.expired() {
			tp.cb.indication(msg.peer, msg.data, msg.timer.reason)
			tp.rx.removeAt(i)
			continue
		}
		i++
	}
}
