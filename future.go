package initargs

import (
	"context"
	"sync"
)

// Future is the result of an asynchronous resolution. It completes exactly
// once with a value, a found flag and an error.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	ok    bool
	err   error
}

// NewFuture returns a pending future. Complete it with Complete.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future that already holds value.
func Completed[T any](value T, ok bool) *Future[T] {
	f := NewFuture[T]()
	f.Complete(value, ok, nil)
	return f
}

// Failed returns a future that already failed with err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	var zero T
	f.Complete(zero, false, err)
	return f
}

// Go runs fn on a new goroutine and completes the returned future with its
// result. A panic in fn fails the future with ErrProviderPanic.
func Go[T any](fn func() (T, bool, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		var zero T
		defer func() {
			if r := recover(); r != nil {
				f.Complete(zero, false, recovered(ErrProviderPanic, r))
			}
		}()
		value, ok, err := fn()
		f.Complete(value, ok, err)
	}()
	return f
}

// Complete sets the result. Only the first call has an effect.
func (f *Future[T]) Complete(value T, ok bool, err error) {
	f.once.Do(func() {
		if err != nil {
			var zero T
			value, ok = zero, false
		}
		f.value, f.ok, f.err = value, ok, err
		close(f.done)
	})
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsCompleted reports whether the future has completed.
func (f *Future[T]) IsCompleted() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the result without blocking. It returns ErrNotCompleted
// while the future is pending.
func (f *Future[T]) Result() (T, bool, error) {
	if !f.IsCompleted() {
		var zero T
		return zero, false, ErrNotCompleted
	}
	return f.value, f.ok, f.err
}

// Await blocks until the future completes or ctx is done. Cancelling ctx
// only stops the wait; the underlying work keeps running.
func (f *Future[T]) Await(ctx context.Context) (T, bool, error) {
	select {
	case <-f.done:
		return f.value, f.ok, f.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// Then returns a future completed with fn applied to the result of f. fn
// runs on the completing goroutine, or immediately if f has completed.
func Then[T, U any](f *Future[T], fn func(T, bool, error) (U, bool, error)) *Future[U] {
	next := NewFuture[U]()
	apply := func() {
		var zero U
		defer func() {
			if r := recover(); r != nil {
				next.Complete(zero, false, recovered(ErrProviderPanic, r))
			}
		}()
		value, ok, err := fn(f.value, f.ok, f.err)
		next.Complete(value, ok, err)
	}

	if f.IsCompleted() {
		apply()
		return next
	}

	go func() {
		<-f.done
		apply()
	}()
	return next
}
