package location

import (
	"context"
	"errors"
)

// Result is the outcome of an asynchronous lookup. Err is context.Canceled
// (or DeadlineExceeded) when the lookup was abandoned; such results carry no
// label and should be dropped.
type Result struct {
	Coordinate Coordinate
	Label      string
	OK         bool
	Err        error
}

// Canceled reports whether the lookup ended because its context did.
func (r Result) Canceled() bool {
	return errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
}

// Lookup is a single in-flight reverse geocode.
type Lookup struct {
	cancel context.CancelFunc
	done   chan struct{}
	out    chan Result
	result Result
}

// Start resolves c on its own goroutine. The lookup ends when ctx is done or
// Cancel is called; no retries or timeouts are added.
func (r *Resolver) Start(ctx context.Context, c Coordinate) *Lookup {
	ctx, cancel := context.WithCancel(ctx)
	l := &Lookup{
		cancel: cancel,
		done:   make(chan struct{}),
		out:    make(chan Result, 1),
	}

	go func() {
		defer cancel()
		defer close(l.done)

		// A geocoder that ignores ctx must not hold up a cancelled lookup; its
		// late answer lands in the buffered channel and is dropped.
		resolved := make(chan Result, 1)
		go func() {
			label, ok, err := r.ResolveCurrentPlace(ctx, c)
			resolved <- Result{Coordinate: c, Label: label, OK: ok, Err: err}
		}()

		var res Result
		select {
		case res = <-resolved:
			if ctxErr := ctx.Err(); ctxErr != nil {
				res = Result{Coordinate: c, Err: ctxErr}
			}
		case <-ctx.Done():
			res = Result{Coordinate: c, Err: ctx.Err()}
		}

		l.result = res
		l.out <- res
	}()

	return l
}

// Done is closed once the result is available.
func (l *Lookup) Done() <-chan struct{} { return l.done }

// Results delivers the result once. The channel is buffered, so an unread
// result never blocks the lookup goroutine.
func (l *Lookup) Results() <-chan Result { return l.out }

// Result blocks until the lookup has finished and returns its outcome.
func (l *Lookup) Result() Result {
	<-l.done
	return l.result
}

// Cancel abandons the lookup. It is safe to call more than once.
func (l *Lookup) Cancel() { l.cancel() }
