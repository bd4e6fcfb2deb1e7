package isotp

import "errors"

var (
	// ErrMessageTooLarge is returned by Send when the message exceeds the
	// instance's configured MaxMessageSize.
	ErrMessageTooLarge = errors.New("isotp: message exceeds configured maximum size")

	// ErrSenderBusy is returned by Send when a multi-frame send is already
	// in progress; only one send state machine exists per Transport.
	ErrSenderBusy = errors.New("isotp: send state machine busy")

	// ErrReceiveTableFull is neither returned nor reported by this package:
	// a full receive table is signalled only by a ResultMessageNumMax
	// indication. It is kept for callers that want a named error for it.
	ErrReceiveTableFull = errors.New("isotp: receive table at capacity")

	// ErrFlowControlSendFailed is reported to the error handler when the
	// sink rejects the flow-control frame that answers a First Frame.
	// Rejections of later flow-control frames are not reported.
	ErrFlowControlSendFailed = errors.New("isotp: flow control frame rejected by sink")

	// ErrFunctionalMessageTooLarge is returned by Send when addr is
	// Functional and message would require multi-frame segmentation.
	// Functionally addressed requests are 1:n broadcasts; ISO 15765-2
	// only allows a Single Frame on that path.
	ErrFunctionalMessageTooLarge = errors.New("isotp: functionally addressed message requires multiple frames")
)
