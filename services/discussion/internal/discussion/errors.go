package discussion

import (
	"errors"
	"fmt"
)

// Kind classifies a discussion error for the transport layers.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnauthorized
	KindValidation
)

// Sentinel errors. Any error outside this set is a storage failure.
var (
	ErrNotFound     = errors.New("comment not found")
	ErrUnauthorized = errors.New("comment not found or not the author")
	ErrValidation   = errors.New("invalid input")
)

// Error carries the context of a classified failure.
type Error struct {
	Kind  Kind
	ID    int64
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("comment %d not found", e.ID)
	case KindUnauthorized:
		return fmt.Sprintf("comment %d: not found or not the author", e.ID)
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
		}
		return "invalid input: " + e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "discussion error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindUnauthorized:
		return target == ErrUnauthorized
	case KindValidation:
		return target == ErrValidation
	}
	return false
}

func notFound(id int64) error {
	return &Error{Kind: KindNotFound, ID: id}
}

func unauthorized(id int64) error {
	return &Error{Kind: KindUnauthorized, ID: id}
}

func invalid(field, msg string) error {
	return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

// KindOf reports the kind of err, or 0 for storage and unknown failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrValidation):
		return KindValidation
	}
	return 0
}
