package operation

import (
	"context"
	"fmt"
)

type doneTask[T any] struct {
	state[T]
}

func (t *doneTask[T]) Update() {}

// Done returns a task that has already succeeded with v.
func Done[T any](v T) Task[T] {
	t := &doneTask[T]{}
	t.succeed(v)
	return t
}

// Fail returns a task that has already failed with err.
func Fail[T any](err error) Task[T] {
	t := &doneTask[T]{}
	t.fail(err)
	return t
}

type syncTask[T any] struct {
	state[T]
	fn func() (T, error)
}

// Sync returns a task that runs fn on its first Update. Use it for local
// work that finishes quickly, such as reading a small file.
func Sync[T any](fn func() (T, error)) Task[T] {
	return &syncTask[T]{fn: fn}
}

func (t *syncTask[T]) Update() {
	if t.IsDone() {
		return
	}
	v, err := t.fn()
	if err != nil {
		t.fail(err)
		return
	}
	t.succeed(v)
}

type goResult[T any] struct {
	v   T
	err error
}

type goTask[T any] struct {
	state[T]
	ctx context.Context
	fn  func(context.Context) (T, error)
	ch  chan goResult[T]
}

// Go returns a task that runs fn on its own goroutine, started on the first
// Update. Later Updates check for the result without blocking.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) Task[T] {
	return &goTask[T]{ctx: ctx, fn: fn}
}

func (t *goTask[T]) Update() {
	if t.IsDone() {
		return
	}
	if t.ch == nil {
		t.ch = make(chan goResult[T], 1)
		t.status = StatusProcessing
		go func() {
			defer func() {
				if r := recover(); r != nil {
					t.ch <- goResult[T]{err: fmt.Errorf("operation panicked: %v", r)}
				}
			}()
			v, err := t.fn(t.ctx)
			t.ch <- goResult[T]{v: v, err: err}
		}()
	}
	select {
	case res := <-t.ch:
		if res.err != nil {
			t.fail(res.err)
			return
		}
		t.succeed(res.v)
	default:
	}
}

type thenTask[A, B any] struct {
	state[B]
	first  Task[A]
	next   func(A) Task[B]
	second Task[B]
}

// Then runs first and, once it succeeds, the task built by next from its
// result. A failure of either task fails the chain with that error.
func Then[A, B any](first Task[A], next func(A) Task[B]) Task[B] {
	return &thenTask[A, B]{first: first, next: next}
}

func (t *thenTask[A, B]) Update() {
	if t.IsDone() {
		return
	}
	t.status = StatusProcessing
	if t.second == nil {
		t.first.Update()
		t.progress = t.first.Progress() / 2
		if !t.first.IsDone() {
			return
		}
		if t.first.Status() != StatusSucceed {
			t.fail(t.first.Err())
			return
		}
		t.second = t.next(t.first.Result())
	}
	t.second.Update()
	t.progress = 0.5 + t.second.Progress()/2
	if !t.second.IsDone() {
		return
	}
	if t.second.Status() != StatusSucceed {
		t.fail(t.second.Err())
		return
	}
	t.succeed(t.second.Result())
}

// Stepper is incremental work advanced one bounded step at a time.
type Stepper[T any] interface {
	Step() (done bool, err error)
	Progress() float64
	Result() T
}

type stepperTask[T any] struct {
	state[T]
	s Stepper[T]
}

// FromStepper adapts a Stepper into a Task that performs one step per
// Update.
func FromStepper[T any](s Stepper[T]) Task[T] {
	return &stepperTask[T]{s: s}
}

func (t *stepperTask[T]) Update() {
	if t.IsDone() {
		return
	}
	t.status = StatusProcessing
	done, err := t.s.Step()
	t.progress = t.s.Progress()
	if err != nil {
		t.fail(err)
		return
	}
	if done {
		t.succeed(t.s.Result())
	}
}
