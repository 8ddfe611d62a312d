// Package remote models the local state of a single asynchronous backend
// operation: Idle, Loading, Success(data) or Error(reason).
package remote

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when an operation is started while a previous
// invocation is still loading.
var ErrInFlight = errors.New("remote: operation already in flight")

// Status tags a State.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}

// State is a snapshot of an operation. Data is meaningful for Success,
// Reason for Error.
type State[T any] struct {
	Status Status
	Data   T
	Reason string
}

// Op owns one State and enforces a single in-flight invocation. The zero
// value is Idle and ready to use.
type Op[T any] struct {
	mu    sync.Mutex
	state State[T]
}

// State returns the current snapshot.
func (o *Op[T]) State() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin moves the op to Loading. It reports false, leaving the state alone,
// when the op is already Loading.
func (o *Op[T]) Begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Status == Loading {
		return false
	}
	o.state = State[T]{Status: Loading, Data: o.state.Data}
	return true
}

// Succeed records data.
func (o *Op[T]) Succeed(data T) {
	o.mu.Lock()
	o.state = State[T]{Status: Success, Data: data}
	o.mu.Unlock()
}

// Fail records reason, keeping fallback as Data.
func (o *Op[T]) Fail(reason string, fallback T) {
	o.mu.Lock()
	o.state = State[T]{Status: Error, Data: fallback, Reason: reason}
	o.mu.Unlock()
}

// Reset returns the op to Idle.
func (o *Op[T]) Reset() {
	o.mu.Lock()
	o.state = State[T]{}
	o.mu.Unlock()
}

// Run performs fn as the op's single awaited call. A concurrent Run while
// Loading returns ErrInFlight without calling fn. Errors leave the op in the
// Error state with the zero value as Data.
func (o *Op[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !o.Begin() {
		return zero, ErrInFlight
	}
	data, err := fn(ctx)
	if err != nil {
		o.Fail(err.Error(), zero)
		return zero, err
	}
	o.Succeed(data)
	return data, nil
}
