// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package synconn provides a synthetic duplex stream for exercising protocol
// and I/O code without a network.
//
// Semantics and design:
//   - Input: a Stream is built from a payload that reads consume front to back.
//     The payload is never replenished; once drained every read reports EOF.
//   - Output: writes are counted and discarded. They always report the full
//     size and never fail.
//   - Two error conventions: ReadSome/WriteSome return (n, err); MustReadSome
//     and MustWriteSome panic with the error instead. Try recovers such a panic.
//   - Deferred completion: AsyncReadSome and AsyncWriteSome transfer at call
//     time and post only the notification to the stream's Scheduler. The
//     handler never runs inline, and completions run in the order the calls
//     were issued.
//   - io compatibility: Stream implements io.Reader, io.Writer, io.WriterTo,
//     io.ReaderFrom and net.Conn, so it drops in wherever a connection is
//     expected.
//
// Nothing in this package is safe for concurrent use; one goroutine owns the
// stream and drives its scheduler.
package synconn

import (
	"io"
	"net"
	"time"

	"code.hybscloud.com/iox"
	"github.com/sirupsen/logrus"
)

var (
	_ net.Conn        = (*Stream)(nil)
	_ io.WriterTo     = (*Stream)(nil)
	_ io.ReaderFrom   = (*Stream)(nil)
	_ io.StringWriter = (*Stream)(nil)
	_ AsyncReader     = (*Stream)(nil)
	_ AsyncWriter     = (*Stream)(nil)
)

// Stream is a synthetic duplex stream backed by an in-memory payload.
type Stream struct {
	sched *Scheduler
	input []byte

	readLimit int

	id            string
	local, remote Addr

	bytesRead    int64
	bytesWritten int64

	log *logrus.Entry
}

// NewStream returns a stream whose reads yield a copy of payload and whose
// completions are posted to sched. It panics with ErrInvalidArgument when
// sched is nil. The scheduler must outlive the stream and its completions.
func NewStream(sched *Scheduler, payload []byte, opts ...Option) *Stream {
	if sched == nil {
		panic(ErrInvalidArgument)
	}
	o := resolveOptions(opts)
	id := newStreamID()
	s := &Stream{
		sched:     sched,
		readLimit: o.ReadLimit,
		id:        id,
		log:       o.Logger.WithField("stream", id),
	}
	if len(payload) > 0 {
		s.input = append([]byte(nil), payload...)
	}
	s.local, s.remote = addrPair(o.Network, id)
	return s
}

// NewStringStream is NewStream with a string payload.
func NewStringStream(sched *Scheduler, payload string, opts ...Option) *Stream {
	return NewStream(sched, []byte(payload), opts...)
}

// Scheduler returns the scheduler completions are posted to, so wrappers can
// post their own follow-up work on the same queue.
func (s *Stream) Scheduler() *Scheduler { return s.sched }

// ReadSome copies min(capacity, Len()) bytes into bufs in order and consumes
// them. It returns EOF with n == 0 when nothing was copied.
func (s *Stream) ReadSome(bufs ...[]byte) (int, error) {
	return s.readSome(bufs)
}

// MustReadSome is ReadSome that panics with the error. Use Try to recover it.
func (s *Stream) MustReadSome(bufs ...[]byte) int {
	return mustNoError(s.readSome(bufs))
}

// AsyncReadSome copies and consumes like ReadSome, then posts h(n, err) to the
// scheduler. The transfer happens now; only the notification is deferred.
func (s *Stream) AsyncReadSome(bufs [][]byte, h Handler) {
	n, err := s.readSome(bufs)
	s.post(h, n, err)
}

// WriteSome discards bufs and returns their total size. The error is always nil.
func (s *Stream) WriteSome(bufs ...[]byte) (int, error) {
	return s.writeSome(bufs)
}

// MustWriteSome is WriteSome that panics with the error. It never panics.
func (s *Stream) MustWriteSome(bufs ...[]byte) int {
	return mustNoError(s.writeSome(bufs))
}

// AsyncWriteSome discards bufs and posts h(total, nil) to the scheduler.
func (s *Stream) AsyncWriteSome(bufs [][]byte, h Handler) {
	n, err := s.writeSome(bufs)
	s.post(h, n, err)
}

// Read implements io.Reader on top of ReadSome. A zero-length p returns (0, nil).
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return s.readSome([][]byte{p})
}

func (s *Stream) Write(p []byte) (int, error) { return s.writeSome([][]byte{p}) }

func (s *Stream) WriteString(str string) (int, error) {
	return s.writeSome([][]byte{[]byte(str)})
}

// WriteTo implements io.WriterTo. It hands all pending input to dst and
// consumes what dst accepted. Errors from dst, including iox.ErrWouldBlock
// and iox.ErrMore, are returned unchanged; EOF is not an error here. A count
// outside [0, len(p)] consumes nothing and returns ErrInvalidWrite.
func (s *Stream) WriteTo(dst io.Writer) (int64, error) {
	if len(s.input) == 0 {
		return 0, nil
	}
	n, err := dst.Write(s.input)
	if n < 0 || n > len(s.input) {
		if err == nil {
			err = ErrInvalidWrite
		}
		return 0, err
	}
	if n > 0 {
		s.input = s.input[n:]
		s.bytesRead += int64(n)
	}
	if err == nil && len(s.input) > 0 {
		err = io.ErrShortWrite
	}
	if len(s.input) == 0 {
		s.input = nil
	}
	if s.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		s.log.WithFields(logrus.Fields{"n": n, "remaining": len(s.input)}).Trace("write to")
	}
	return int64(n), err
}

// ReadFrom implements io.ReaderFrom by reading src to its end and discarding
// it. Only src can fail; its iox semantic errors propagate with the progress
// made so far.
func (s *Stream) ReadFrom(src io.Reader) (int64, error) {
	return iox.Copy(discard{s}, src)
}

// discard is the write side seen by iox.Copy. It hides Stream's ReaderFrom so
// the copy does not recurse.
type discard struct{ s *Stream }

func (d discard) Write(p []byte) (int, error) { return d.s.writeSome([][]byte{p}) }

// Len returns the number of unread payload bytes.
func (s *Stream) Len() int { return len(s.input) }

// ReadLimit returns the configured read cap. It is not enforced.
func (s *Stream) ReadLimit() int { return s.readLimit }

// BytesRead returns the number of payload bytes consumed so far.
func (s *Stream) BytesRead() int64 { return s.bytesRead }

// BytesWritten returns the number of bytes accepted and discarded so far.
func (s *Stream) BytesWritten() int64 { return s.bytesWritten }

// ID returns the identifier shown in the stream's addresses and log fields.
func (s *Stream) ID() string { return s.id }

// Close is a no-op; the payload stays readable. It never fails.
func (s *Stream) Close() error { return nil }

func (s *Stream) LocalAddr() net.Addr  { return s.local }
func (s *Stream) RemoteAddr() net.Addr { return s.remote }

// Deadlines are accepted and ignored: no operation ever waits.
func (s *Stream) SetDeadline(time.Time) error      { return nil }
func (s *Stream) SetReadDeadline(time.Time) error  { return nil }
func (s *Stream) SetWriteDeadline(time.Time) error { return nil }

// These are provided as package-level aliases so callers can reference the
// end-of-stream and semantic control-flow errors without importing io or iox.
var (
	// EOF is the only error a Stream produces: a read found no pending input.
	// It is an expected "no more data" signal, not a failure.
	EOF = iox.EOF

	// ErrWouldBlock means “no further progress without waiting”. A Stream never
	// returns it, but ReadFrom and WriteTo pass it through from their peers.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means “this completion is usable and more completions will follow”.
	// Like ErrWouldBlock it only passes through ReadFrom and WriteTo.
	ErrMore = iox.ErrMore
)
