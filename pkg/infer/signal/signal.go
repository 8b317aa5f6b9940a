package signal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Signal carries the outcome of an asynchronous operation: either a value or
// an error message, never both. Wrapped values must not be mutated after
// construction; a Signal may then be sent across goroutines and read by
// several of them without locking.
type Signal[T any] struct {
	id        uuid.UUID
	createdAt time.Time
	value     T
	message   string
	failed    bool
}

// Any is a Signal whose payload type is only known to the receiver.
type Any = Signal[any]

func Ok[T any](v T) Signal[T] {
	return Signal[T]{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		value:     v,
	}
}

func Err[T any](message string) Signal[T] {
	return Signal[T]{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		message:   message,
		failed:    true,
	}
}

// FromError is Ok(v) when err is nil and Err(err.Error()) otherwise.
func FromError[T any](v T, err error) Signal[T] {
	if err != nil {
		return Err[T](err.Error())
	}
	return Ok(v)
}

// Erase drops the static payload type, keeping identity and timestamp.
func Erase[T any](s Signal[T]) Any {
	return Any{
		id:        s.id,
		createdAt: s.createdAt,
		value:     any(s.value),
		message:   s.message,
		failed:    s.failed,
	}
}

// As recovers a typed Signal from an erased one. It reports false when the
// payload of a successful signal is not a T. Failed signals convert to any T.
func As[T any](s Any) (Signal[T], bool) {
	out := Signal[T]{
		id:        s.id,
		createdAt: s.createdAt,
		message:   s.message,
		failed:    s.failed,
	}
	if s.failed {
		return out, true
	}
	v, ok := s.value.(T)
	if !ok {
		return Signal[T]{}, false
	}
	out.value = v
	return out, true
}

func (s Signal[T]) ID() uuid.UUID {
	return s.id
}

func (s Signal[T]) CreatedAt() time.Time {
	return s.createdAt
}

func (s Signal[T]) IsOk() bool {
	return !s.failed
}

func (s Signal[T]) IsErr() bool {
	return s.failed
}

// Value returns the payload and true for a successful signal.
func (s Signal[T]) Value() (T, bool) {
	if s.failed {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Message is the error text of a failed signal.
func (s Signal[T]) Message() string {
	return s.message
}

// Err returns nil for a successful signal.
func (s Signal[T]) Err() error {
	if !s.failed {
		return nil
	}
	return errors.New(s.message)
}
