package isotp

// senderState is the send-side state machine's current step. 3.
type senderState uint8

const (
	// senderDone is the idle state: no send owns the instance, a new Send
	// is accepted. It is also the zero value, so a freshly constructed
	// Transport starts idle without explicit initialization.
	senderDone senderState = iota
	senderIdle
	senderSendFirstFrame
	senderReceiveFirstFlowControlFrame
	senderSendConsecutiveFrame
	senderReceiveBSFlowControlFrame
)

// sender owns the one multi-frame send a Transport may have in flight.
type sender struct {
	state   senderState
	peer    Address
	message []byte

	bytesSent      int
	sn             uint8
	cfCountInBlock uint8

	receivedBlockSize            uint8
	receivedSeparationTimeMicros uint32

	separationTimer deadline
	bsCrTimer       deadline
	waitFrameCount  int
}

// Send either emits a Single Frame immediately (confirming the outcome
// synchronously) or arms the send state machine for a multi-frame message,
// to be driven to completion by subsequent Tick and OnFrame calls. 4.4.
func (tp *Transport) Send(addr Address, message []byte) error {
	if len(message) > int(tp.config.MaxMessageSize) {
		return ErrMessageTooLarge
	}

	offset := tp.pciOffset
	if len(message) <= sfMaxLength(offset) {
		f := tp.newFrame()
		if err := tp.encoder.toFrame(addr, f); err != nil {
			tp.errorHandler.report(StatusAddressEncodeError, err)
			return err
		}
		buildSingleFrame(f, offset, message)
		if tp.sink(f) {
			tp.cb.confirm(addr, ResultOK)
		} else {
			tp.cb.confirm(addr, ResultTimeoutA)
		}
		return nil
	}

	if addr.TargetAddressType == Functional {
		return ErrFunctionalMessageTooLarge
	}

	if tp.tx.state != senderDone {
		return ErrSenderBusy
	}

	tp.tx = sender{
		state:           senderIdle,
		peer:            addr,
		message:         message,
		sn:              1,
		separationTimer: newDeadline(tp.now),
		bsCrTimer:       newDeadline(tp.now),
	}
	return nil
}

// tickSend advances the send state machine by one step. 4.4.
func (tp *Transport) tickSend() {
	switch tp.tx.state {
	case senderDone:
		return
	case senderIdle:
		tp.tx.state = senderSendFirstFrame
	case senderSendFirstFrame:
		tp.sendFirstFrame()
	case senderReceiveFirstFlowControlFrame, senderReceiveBSFlowControlFrame:
		if tp.tx.bsCrTimer.expired() {
			tp.cb.confirm(tp.tx.peer, ResultTimeoutBS)
			tp.tx.state = senderDone
		}
	case senderSendConsecutiveFrame:
		tp.sendConsecutiveFrame()
	}
}

func (tp *Transport) sendFirstFrame() {
	offset := tp.pciOffset
	f := tp.newFrame()
	if err := tp.encoder.toFrame(tp.tx.peer, f); err != nil {
		tp.errorHandler.report(StatusAddressEncodeError, err)
		tp.cb.confirm(tp.tx.peer, ResultTimeoutA)
		tp.tx.state = senderDone
		return
	}

	chunk := ffPayloadCount(offset)
	if chunk > len(tp.tx.message) {
		chunk = len(tp.tx.message)
	}
	buildFirstFrame(f, offset, uint16(len(tp.tx.message)), tp.tx.message[:chunk])

	if !tp.sink(f) {
		tp.cb.confirm(tp.tx.peer, ResultTimeoutA)
		tp.tx.state = senderDone
		return
	}

	tp.tx.bytesSent = chunk
	tp.tx.bsCrTimer.arm(tp.config.TimeoutBS, ResultTimeoutBS)
	tp.tx.state = senderReceiveFirstFlowControlFrame
}

func (tp *Transport) sendConsecutiveFrame() {
	if !tp.tx.separationTimer.due() {
		return
	}

	offset := tp.pciOffset
	f := tp.newFrame()
	if err := tp.encoder.toFrame(tp.tx.peer, f); err != nil {
		tp.errorHandler.report(StatusAddressEncodeError, err)
		tp.cb.confirm(tp.tx.peer, ResultTimeoutA)
		tp.tx.state = senderDone
		return
	}

	remaining := tp.tx.message[tp.tx.bytesSent:]
	chunk := cfPayloadCount(offset)
	if chunk > len(remaining) {
		chunk = len(remaining)
	}
	buildConsecutiveFrame(f, offset, tp.tx.sn, remaining[:chunk])

	if !tp.sink(f) {
		tp.cb.confirm(tp.tx.peer, ResultTimeoutA)
		tp.tx.state = senderDone
		return
	}

	tp.tx.bytesSent += chunk
	tp.tx.sn = (tp.tx.sn + 1) & 0x0F
	tp.tx.cfCountInBlock++

	if tp.tx.bytesSent >= len(tp.tx.message) {
		tp.cb.confirm(tp.tx.peer, ResultOK)
		tp.tx.state = senderDone
		return
	}

	if tp.tx.receivedBlockSize > 0 && tp.tx.cfCountInBlock == tp.tx.receivedBlockSize {
		tp.tx.cfCountInBlock = 0
		tp.tx.state = senderReceiveBSFlowControlFrame
		tp.tx.bsCrTimer.arm(tp.config.TimeoutBS, ResultTimeoutBS)
		return
	}

	tp.tx.separationTimer.arm(microsToMillis(tp.tx.receivedSeparationTimeMicros), ResultOK)
	tp.tx.bsCrTimer.arm(tp.config.TimeoutCR, ResultTimeoutCR)
}

// onFlowControl handles an FC PDU while a send is waiting for one. Any FC
// that does not come from the peer currently being sent to, or that
// arrives while no send is waiting, is ignored. 4.4.
func (tp *Transport) onFlowControl(peer Address, f Frame, offset int) {
	if tp.tx.state != senderReceiveFirstFlowControlFrame && tp.tx.state != senderReceiveBSFlowControlFrame {
		return
	}
	if !tp.encoder.matchesSend(peer, tp.tx.peer) {
		return
	}

	fs := flowStatusOf(f, offset)
	if !fs.valid() {
		tp.cb.confirm(peer, ResultInvalidFS)
		tp.tx.state = senderDone
		return
	}

	switch fs {
	case Overflow:
		tp.cb.confirm(peer, ResultBufferOverflow)
		tp.tx.state = senderDone

	case Wait:
		tp.tx.bsCrTimer.arm(tp.config.TimeoutBS, ResultTimeoutBS)
		tp.tx.waitFrameCount++
		if tp.tx.waitFrameCount >= tp.config.MaxWaitFrameNumber {
			tp.cb.confirm(peer, ResultWaitFrameOverrun)
			tp.tx.state = senderDone
		}

	case ContinueToSend:
		if tp.tx.state == senderReceiveFirstFlowControlFrame {
			tp.tx.receivedBlockSize = f.Byte(offset + 1)
			tp.tx.receivedSeparationTimeMicros = decodeSTmin(f.Byte(offset + 2))
		}
		tp.tx.waitFrameCount = 0
		// The first CF after a CTS goes out immediately; STmin paces only
		// the CFs after that (applied in sendConsecutiveFrame).
		tp.tx.separationTimer.arm(0, ResultOK)
		tp.tx.bsCrTimer.arm(tp.config.TimeoutCR, ResultTimeoutCR)
		tp.tx.state = senderSendConsecutiveFrame
	}
}

// microsToMillis rounds a microsecond interval up to the millisecond
// resolution of TimeSource. Sub-millisecond STmin values (the 0xF1-0xF9
// range) therefore collapse to a 1ms pacing gate; this is the documented
// resolution gap between the ISO STmin encoding and a millisecond clock.
func microsToMillis(micros uint32) uint32 {
	return (micros + 999) / 1000
}
