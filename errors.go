// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a nil scheduler, stream or buffer where one is required.
	ErrInvalidArgument = errors.New("synconn: invalid argument")

	// ErrIdle reports that the scheduler ran out of queued completions before
	// the awaited condition became true.
	ErrIdle = errors.New("synconn: scheduler idle")

	// ErrStopped reports that the scheduler was stopped while work was still queued.
	ErrStopped = errors.New("synconn: scheduler stopped")

	// ErrNotReady reports that a Future was queried before its completion ran.
	ErrNotReady = errors.New("synconn: result not ready")

	// ErrInvalidWrite reports a writer that returned a count outside [0, len(p)].
	ErrInvalidWrite = errors.New("synconn: invalid write result")
)

// Try runs fn and returns the error carried by a panic raised from one of the
// Must* call forms. It returns nil when fn returns normally. Every other panic,
// including runtime errors and error values panicked by the caller's own code,
// is re-raised.
func Try(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		p, ok := r.(*mustPanic)
		if !ok {
			panic(r)
		}
		err = p.err
	}()
	fn()
	return nil
}

// mustPanic is the panic value of the Must* forms. It is an error so callers
// that recover directly still get something errors.Is understands.
type mustPanic struct{ err error }

func (p *mustPanic) Error() string { return p.err.Error() }

func (p *mustPanic) Unwrap() error { return p.err }

func mustNoError(n int, err error) int {
	if err != nil {
		panic(&mustPanic{err: fmt.Errorf("synconn: %w", err)})
	}
	return n
}
