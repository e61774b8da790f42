// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

// Handler is the continuation of an asynchronous operation. It receives the
// number of bytes transferred and the error-code result (nil or EOF).
type Handler func(n int, err error)

// Future is a completion token for callers that prefer to poll a result
// rather than pass a continuation.
//
//	var f synconn.Future
//	s.AsyncReadSome([][]byte{buf}, f.Handler())
//	n, err := f.Wait(s.Scheduler())
type Future struct {
	ready bool
	n     int
	err   error
}

// Handler returns a Handler that stores its arguments in f.
func (f *Future) Handler() Handler {
	return func(n int, err error) {
		f.n, f.err, f.ready = n, err, true
	}
}

// Ready reports whether the completion has run.
func (f *Future) Ready() bool { return f.ready }

// Result returns the stored result, or ErrNotReady before completion.
func (f *Future) Result() (int, error) {
	if !f.ready {
		return 0, ErrNotReady
	}
	return f.n, f.err
}

// Wait drives s until f is ready and returns the result. Scheduler errors
// (ErrIdle, ErrStopped) are returned when f can never become ready.
func (f *Future) Wait(s *Scheduler) (int, error) {
	if s == nil {
		return 0, ErrInvalidArgument
	}
	if _, err := s.RunUntil(f.Ready); err != nil {
		return 0, err
	}
	return f.n, f.err
}
