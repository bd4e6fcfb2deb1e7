package isotp

import "github.com/rob-gra/go-isotp/isolog"

// Transport is the top-level coordinator: it owns exactly one receive
// table and one send state machine, decodes and classifies every incoming
// frame, and drives both state machines forward on Tick. All three entry
// points — Send, OnFrame, Tick — must be serialized by the caller; the
// instance does not lock internally. 4.5, 5.
type Transport struct {
	config    Config
	encoder   addressEncoder
	pciOffset int

	sink         Sink
	now          TimeSource
	cb           Callback
	errorHandler ErrorHandler

	rx *receiveTable
	tx sender

	scratch CANFrame

	// Log is disabled by default; call Log.LogMode(true) to enable it.
	Log isolog.Log
}

// NewTransport constructs a Transport from config, validating it and
// filling in defaults (see Config.Valid). sink transmits one frame and
// reports success; now returns the current monotonic millisecond count.
// cb and errorHandler may be the zero value if the caller does not need
// them.
func NewTransport(config Config, sink Sink, now TimeSource, cb Callback, errorHandler ErrorHandler) (*Transport, error) {
	if err := config.Valid(); err != nil {
		return nil, err
	}

	encoder := newEncoder(config.Mode)
	tp := &Transport{
		config:       config,
		encoder:      encoder,
		pciOffset:    npciOffset(encoder),
		sink:         sink,
		now:          now,
		cb:           cb,
		errorHandler: errorHandler,
		rx:           newReceiveTable(config.ReceiveTableCapacity),
		Log:          isolog.New("isotp"),
	}
	return tp, nil
}

// newFrame hands out the instance's single reusable scratch frame. The
// sink is expected to consume or copy it synchronously, as with every
// other callback invoked from inside OnFrame/Tick/Send.
func (tp *Transport) newFrame() Frame {
	tp.scratch = CANFrame{}
	return &tp.scratch
}

// newReplyFrame hands out the scratch frame already addressed back to
// peer, ready for a PDU builder to fill in. Used for flow-control frames
// emitted while receiving, where the frame is a reply rather than
// something the caller explicitly addressed.
func (tp *Transport) newReplyFrame(peer Address) (Frame, error) {
	f := tp.newFrame()
	addr := tp.encoder.reply(tp.config.MyAddress, peer)
	if err := tp.encoder.toFrame(addr, f); err != nil {
		tp.errorHandler.report(StatusAddressEncodeError, err)
		return nil, err
	}
	return f, nil
}

// OnFrame decodes addr, drops the frame if it is not addressed to us, and
// routes it by PDU type. 4.5.
func (tp *Transport) OnFrame(f Frame) {
	peer, ok := tp.encoder.fromFrame(f)
	if !ok {
		tp.Log.Debugf("isotp: dropped frame %#x, does not decode under %s", f.ID(), tp.config.Mode)
		return
	}
	if !tp.encoder.matches(peer, tp.config.MyAddress) {
		return
	}

	offset := tp.pciOffset
	switch pduTypeOf(f, offset) {
	case SingleFrame:
		tp.onSingleFrame(peer, f, offset)
	case FirstFrame:
		tp.onFirstFrame(peer, f, offset)
	case ConsecutiveFrame:
		tp.onConsecutiveFrame(peer, f, offset)
	case FlowControlFrame:
		tp.onFlowControl(peer, f, offset)
	}
}

// Tick advances time: it drops any receive-table entry whose timer has
// elapsed, delivering its timeout reason, then steps the send state
// machine once. It does at most a bounded amount of work per call and
// never blocks. 4.5, 5.
func (tp *Transport) Tick() {
	tp.checkReceiveTimeouts()
	tp.tickSend()
}

// SetBlockSize changes N_BS for future flow-control frames this instance
// sends as a receiver. It does not affect a reception already in
// progress.
func (tp *Transport) SetBlockSize(bs uint8) {
	tp.config.BlockSize = bs
}

// SetSeparationTime changes the raw STmin byte sent in future flow-control
// frames.
func (tp *Transport) SetSeparationTime(st uint8) {
	tp.config.SeparationTime = st
}

// SetMyAddress changes the address OnFrame matches incoming frames
// against.
func (tp *Transport) SetMyAddress(addr Address) {
	tp.config.MyAddress = addr
}

// Busy reports whether a multi-frame send currently owns the instance.
func (tp *Transport) Busy() bool {
	return tp.tx.state != senderDone
}
