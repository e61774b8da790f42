// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

import "github.com/sirupsen/logrus"

// buffersLen returns the total size of a buffer sequence.
func buffersLen(bufs [][]byte) int {
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	return n
}

// readSome is the single read core behind ReadSome, MustReadSome, Read and
// AsyncReadSome. It scatters the front of the pending input into bufs, drops
// what it copied and reports EOF when nothing was copied.
func (s *Stream) readSome(bufs [][]byte) (n int, err error) {
	for _, b := range bufs {
		if len(s.input) == 0 {
			break
		}
		c := copy(b, s.input)
		s.input = s.input[c:]
		n += c
	}
	if n == 0 {
		if s.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			s.log.WithFields(logrus.Fields{"capacity": buffersLen(bufs)}).Debug("end of stream")
		}
		return 0, EOF
	}
	if len(s.input) == 0 {
		// Release the backing array once everything has been consumed.
		s.input = nil
	}
	s.bytesRead += int64(n)
	if s.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		s.log.WithFields(logrus.Fields{"n": n, "remaining": len(s.input)}).Trace("read")
	}
	return n, nil
}

// writeSome is the write core. Bytes are counted and discarded; it never fails.
func (s *Stream) writeSome(bufs [][]byte) (int, error) {
	n := buffersLen(bufs)
	s.bytesWritten += int64(n)
	if s.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		s.log.WithField("n", n).Trace("write")
	}
	return n, nil
}

// post schedules h(n, err) on the stream's scheduler. A nil h posts nothing.
func (s *Stream) post(h Handler, n int, err error) {
	if h == nil {
		return
	}
	s.sched.Post(func() { h(n, err) })
}
