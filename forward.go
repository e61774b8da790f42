// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

import (
	"io"

	"github.com/sirupsen/logrus"
)

// AsyncReader is the asynchronous read side of a stream.
type AsyncReader interface {
	AsyncReadSome(bufs [][]byte, h Handler)
	Scheduler() *Scheduler
}

// AsyncWriter is the asynchronous write side of a stream.
type AsyncWriter interface {
	AsyncWriteSome(bufs [][]byte, h Handler)
	Scheduler() *Scheduler
}

// AsyncRead reads from r until buf is full, chaining AsyncReadSome calls
// through r's scheduler. h receives:
//   - (len(buf), nil) when buf was filled;
//   - (0, EOF) when the stream ended before any byte was read;
//   - (n, io.ErrUnexpectedEOF) when it ended after a partial fill;
//   - (n, err) for any other error reported by r.
//
// An empty buf completes with (0, nil) on the next turn. AsyncRead panics
// with ErrInvalidArgument when r is nil.
func AsyncRead(r AsyncReader, buf []byte, h Handler) {
	if r == nil {
		panic(ErrInvalidArgument)
	}
	op := &readOp{r: r, buf: buf, h: h}
	if len(buf) == 0 {
		r.Scheduler().Post(func() { op.finish(nil) })
		return
	}
	op.next()
}

type readOp struct {
	r   AsyncReader
	buf []byte
	got int
	h   Handler
}

func (op *readOp) next() {
	op.r.AsyncReadSome([][]byte{op.buf[op.got:]}, op.done)
}

func (op *readOp) done(n int, err error) {
	op.got += n
	switch {
	case err == nil && op.got < len(op.buf):
		op.next()
	case err == EOF && op.got > 0 && op.got < len(op.buf):
		op.finish(io.ErrUnexpectedEOF)
	case err == EOF && op.got == len(op.buf):
		op.finish(nil)
	default:
		op.finish(err)
	}
}

func (op *readOp) finish(err error) {
	if op.h != nil {
		op.h(op.got, err)
	}
}

// AsyncWrite writes all of buf to w, chaining AsyncWriteSome calls through
// w's scheduler, then calls h(len(buf), nil). A writer that reports no
// progress and no error ends the operation with io.ErrShortWrite.
//
// An empty buf completes with (0, nil) on the next turn. AsyncWrite panics
// with ErrInvalidArgument when w is nil.
func AsyncWrite(w AsyncWriter, buf []byte, h Handler) {
	if w == nil {
		panic(ErrInvalidArgument)
	}
	op := &writeOp{w: w, buf: buf, h: h}
	if len(buf) == 0 {
		w.Scheduler().Post(func() { op.finish(nil) })
		return
	}
	op.next()
}

type writeOp struct {
	w    AsyncWriter
	buf  []byte
	sent int
	h    Handler
}

func (op *writeOp) next() {
	op.w.AsyncWriteSome([][]byte{op.buf[op.sent:]}, op.done)
}

func (op *writeOp) done(n int, err error) {
	op.sent += n
	if err != nil {
		op.finish(err)
		return
	}
	if op.sent == len(op.buf) {
		op.finish(nil)
		return
	}
	// Guard against writers that violate the io.Writer contract by reporting
	// (0, nil); the chain would otherwise never end.
	if n == 0 {
		op.finish(io.ErrShortWrite)
		return
	}
	op.next()
}

func (op *writeOp) finish(err error) {
	if op.h != nil {
		op.h(op.sent, err)
	}
}

// ForwardHandler receives the total number of bytes a Forwarder relayed and
// the error that stopped it (nil on a clean end of stream).
type ForwardHandler func(n int64, err error)

// Forwarder relays bytes from an AsyncReader to an AsyncWriter through
// continuation chains on the source's scheduler.
//
// Semantics:
//   - Each cycle reads one chunk with AsyncReadSome and writes it out whole
//     with AsyncWrite before the next read is issued, so the destination sees
//     the source's bytes in order.
//   - EOF from the source ends the relay with a nil error.
//   - A read that reports (0, nil) ends the relay with io.ErrNoProgress.
//   - Any other read or write error ends the relay with that error and the
//     byte count forwarded before it.
//
// The chunk buffer is allocated once at construction, sized by WithChunkSize
// (32KiB by default). A Forwarder runs once.
type Forwarder struct {
	dst AsyncWriter
	src AsyncReader

	buf []byte

	total   int64
	started bool
	done    bool
	err     error
	h       ForwardHandler

	log *logrus.Entry
}

// NewForwarder constructs a Forwarder that relays from src to dst.
func NewForwarder(dst AsyncWriter, src AsyncReader, opts ...Option) *Forwarder {
	o := resolveOptions(opts)
	return &Forwarder{
		dst: dst,
		src: src,
		buf: make([]byte, o.ChunkSize),
		log: o.Logger.WithField("component", "forwarder"),
	}
}

// Start issues the first read. h runs once, from the scheduler, when the
// relay ends. Start returns ErrInvalidArgument when either side is nil or
// the Forwarder was already started.
func (f *Forwarder) Start(h ForwardHandler) error {
	if f.dst == nil || f.src == nil || f.started {
		return ErrInvalidArgument
	}
	f.started = true
	f.h = h
	f.readNext()
	return nil
}

// Forwarded returns the number of bytes written to the destination so far.
func (f *Forwarder) Forwarded() int64 { return f.total }

// Done reports whether the relay has ended.
func (f *Forwarder) Done() bool { return f.done }

// Err returns the error that ended the relay, nil while running or after a
// clean end of stream.
func (f *Forwarder) Err() error { return f.err }

func (f *Forwarder) readNext() {
	f.src.AsyncReadSome([][]byte{f.buf}, f.onRead)
}

func (f *Forwarder) onRead(n int, err error) {
	if err != nil {
		if err == EOF {
			err = nil
		}
		f.finish(err)
		return
	}
	if n == 0 {
		f.finish(io.ErrNoProgress)
		return
	}
	AsyncWrite(f.dst, f.buf[:n], f.onWrite)
}

func (f *Forwarder) onWrite(n int, err error) {
	f.total += int64(n)
	if err != nil {
		f.finish(err)
		return
	}
	f.log.WithFields(logrus.Fields{"n": n, "total": f.total}).Trace("forwarded chunk")
	f.readNext()
}

func (f *Forwarder) finish(err error) {
	f.done = true
	f.err = err
	f.log.WithFields(logrus.Fields{"total": f.total, "error": err}).Debug("forwarder finished")
	if f.h != nil {
		f.h(f.total, err)
	}
}
