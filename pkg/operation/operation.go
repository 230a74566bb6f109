// Package operation defines the poll-driven unit of asynchronous work used by
// the bootstrap machinery. Nothing in this package blocks the caller of
// Update except Sync tasks, whose work is expected to be local and short.
package operation

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle state of an operation.
type Status int

const (
	StatusNone Status = iota
	StatusProcessing
	StatusSucceed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusProcessing:
		return "processing"
	case StatusSucceed:
		return "succeed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Operation is advanced by repeated calls to Update until IsDone reports
// true. Once done, Status and Err never change.
type Operation interface {
	Update()
	IsDone() bool
	Status() Status
	Err() error
	Progress() float64
}

// Task is an Operation that yields a value on success.
type Task[T any] interface {
	Operation
	Result() T
}

// Drive polls op every interval until it is done or ctx ends. It is the
// host-side loop; the core never polls itself.
func Drive(ctx context.Context, op Operation, interval time.Duration) error {
	op.Update()
	if op.IsDone() {
		return op.Err()
	}
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("drive operation: %w", ctx.Err())
		case <-ticker.C:
			op.Update()
			if op.IsDone() {
				return op.Err()
			}
		}
	}
}

// state carries the bookkeeping shared by the task implementations.
type state[T any] struct {
	status   Status
	err      error
	progress float64
	result   T
}

func (s *state[T]) IsDone() bool {
	return s.status == StatusSucceed || s.status == StatusFailed
}

func (s *state[T]) Status() Status    { return s.status }
func (s *state[T]) Err() error        { return s.err }
func (s *state[T]) Progress() float64 { return s.progress }
func (s *state[T]) Result() T         { return s.result }

func (s *state[T]) succeed(v T) {
	if s.IsDone() {
		return
	}
	s.result = v
	s.progress = 1
	s.status = StatusSucceed
}

func (s *state[T]) fail(err error) {
	if s.IsDone() {
		return
	}
	s.err = err
	s.status = StatusFailed
}
