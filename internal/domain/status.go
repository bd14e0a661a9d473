package domain

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusDelivered MessageStatus = "delivered"
	StatusReceived  MessageStatus = "received"
	StatusRead      MessageStatus = "read"
	StatusError     MessageStatus = "error"
)

// statusTransitions is the allowed-transition table. Read is terminal.
// Sending after delivered/error covers resend and retry.
var statusTransitions = map[MessageStatus]map[MessageStatus]bool{
	StatusSending: {
		StatusDelivered: true,
		StatusReceived:  true,
		StatusRead:      true,
		StatusError:     true,
	},
	StatusDelivered: {
		StatusReceived: true,
		StatusRead:     true,
		StatusError:    true,
		StatusSending:  true,
	},
	StatusReceived: {
		StatusRead: true,
	},
	StatusRead: {},
	StatusError: {
		StatusSending:   true,
		StatusDelivered: true,
		StatusReceived:  true,
		StatusRead:      true,
	},
}

// ValidStatus reports whether s is a known message status.
func ValidStatus(s MessageStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether a message may move from one status to the
// next. Status events arrive asynchronously and may race with local state, so
// callers treat a disallowed transition as a stale event to drop, never as a
// failure: last writer loses if invalid.
func CanTransition(from, to MessageStatus) bool {
	next, ok := statusTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Transition returns the new status, or ErrInvalidTransition with the prior
// status retained. Event-path callers drop the error after logging it; only
// direct users of the state machine inspect it.
func Transition(from, to MessageStatus) (MessageStatus, error) {
	if !CanTransition(from, to) {
		return from, ErrInvalidTransition
	}
	return to, nil
}
