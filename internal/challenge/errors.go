package challenge

import "errors"

// Kind classifies why an operation failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindNotAParticipant
	KindInvalidInput
	KindPersistence
	KindFetch
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotAParticipant:
		return "not_a_participant"
	case KindInvalidInput:
		return "invalid_input"
	case KindPersistence:
		return "persistence"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Fixed user-facing messages. Causes are logged, never returned.
const (
	MsgUserNotFound    = "User not found"
	MsgNotAParticipant = "You are not a participant of this challenge"
	MsgCreateFailed    = "Failed to create challenge"
	MsgToggleFailed    = "Failed to toggle challenge completion"
	MsgFetchFailed     = "Failed to fetch challenges"
	MsgTitleRequired   = "Title is required"
	MsgNegativeXP      = "XP reward must not be negative"
)

// Error is returned by every Service operation. Error() yields only the
// fixed message so it is safe to show to users.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
