package backend

import (
	"errors"
	"fmt"
)

// Kind classifies why a backend exchange failed.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindDecode
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by Client.Chat. Its message is the cause's message so
// the text shown to the user stays the same whatever the kind.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or 0 when err did not come
// from the backend client.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}
