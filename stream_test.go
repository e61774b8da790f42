// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "code.hybscloud.com/synconn"
)

// --- Core read/write semantics ---

func TestStream_Hello(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStringStream(sched, "hello")

	buf := make([]byte, 10)
	n, err := s.ReadSome(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))

	n, err = s.ReadSome(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	var f sc.Future
	s.AsyncWriteSome([][]byte{[]byte("world")}, f.Handler())
	require.False(t, f.Ready(), "completion ran inline")
	assert.Equal(t, 1, sched.Turn())
	n, err = f.Result()
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStream_ReadWholePayload(t *testing.T) {
	for _, size := range []int{1, 5, 253, 4096, 70 << 10} {
		payload := bytes.Repeat([]byte{'x'}, size)
		s := sc.NewStream(sc.NewScheduler(), payload)

		buf := make([]byte, size+7)
		n, err := s.ReadSome(buf)
		if err != nil || n != size {
			t.Fatalf("size=%d: n=%d err=%v", size, n, err)
		}
		if !bytes.Equal(buf[:n], payload) {
			t.Fatalf("size=%d: payload mismatch", size)
		}
		if s.Len() != 0 {
			t.Fatalf("size=%d: remaining=%d want 0", size, s.Len())
		}
	}
}

func TestStream_SplitReadsReassemble(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		payload := make([]byte, rng.Intn(512))
		rng.Read(payload)
		s := sc.NewStream(sc.NewScheduler(), payload)

		var got []byte
		for {
			buf := make([]byte, 1+rng.Intn(64))
			n, err := s.ReadSome(buf)
			got = append(got, buf[:n]...)
			if err != nil {
				require.ErrorIs(t, err, io.EOF)
				require.Zero(t, n)
				break
			}
		}
		require.Equal(t, len(payload), len(got), "trial %d", trial)
		require.True(t, bytes.Equal(payload, got), "trial %d: reassembled bytes differ", trial)
		require.Equal(t, int64(len(payload)), s.BytesRead())
	}
}

func TestStream_ScatterRead(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "abcdefgh")
	a, b, c := make([]byte, 3), make([]byte, 0), make([]byte, 4)

	n, err := s.ReadSome(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "abc", string(a))
	assert.Equal(t, "defg", string(c))
	assert.Equal(t, 1, s.Len())

	n, err = s.ReadSome(a, c)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte('h'), a[0])
}

func TestStream_ExhaustedReadBothForms(t *testing.T) {
	s := sc.NewStream(sc.NewScheduler(), nil)
	buf := make([]byte, 4)

	n, err := s.ReadSome(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, sc.EOF)

	var got int
	err = sc.Try(func() { got = s.MustReadSome(buf) })
	assert.Zero(t, got)
	assert.ErrorIs(t, err, io.EOF)

	assert.Panics(t, func() { s.MustReadSome(buf) })
}

func TestStream_MustReadSome_ReturnsCount(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "xyz")
	buf := make([]byte, 2)
	var n int
	require.NoError(t, sc.Try(func() { n = s.MustReadSome(buf) }))
	assert.Equal(t, 2, n)
	assert.Equal(t, "xy", string(buf))
}

// A zero-capacity destination copies nothing, and a read that copies nothing
// reports end of stream even while input remains.
func TestStream_ZeroCapacityReadReportsEOF(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "abc")

	n, err := s.ReadSome()
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = s.ReadSome([]byte{})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, s.Len(), "input must be untouched")

	// io.Reader keeps its own contract for empty buffers.
	n, err = s.Read(nil)
	assert.Zero(t, n)
	assert.NoError(t, err)
}

func TestStream_WritesNeverFail(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStringStream(sched, "keep")

	n, err := s.WriteSome([]byte("ab"), []byte("cde"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.WriteSome()
	assert.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, 3, s.MustWriteSome([]byte("xyz")))

	var f sc.Future
	s.AsyncWriteSome([][]byte{[]byte("1234"), []byte("5")}, f.Handler())
	n, err = f.Wait(sched)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.Write(make([]byte, 100))
	assert.NoError(t, err)
	assert.Equal(t, 100, n)

	n, err = s.WriteString("tail")
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, 4, s.Len(), "writes must not touch pending input")
	assert.Equal(t, int64(5+3+5+100+4), s.BytesWritten())
}

func TestStream_WritesAfterExhaustion(t *testing.T) {
	s := sc.NewStream(sc.NewScheduler(), nil)
	_, _ = s.ReadSome(make([]byte, 1))
	n, err := s.WriteSome([]byte("still fine"))
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
}

// --- Asynchronous delivery ---

func TestStream_AsyncReadTransfersEagerly(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStringStream(sched, "hello world")

	buf := make([]byte, 5)
	called := false
	s.AsyncReadSome([][]byte{buf}, func(n int, err error) {
		called = true
		assert.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	require.False(t, called, "handler ran inline")
	assert.Equal(t, "hello", string(buf), "data must be copied at call time")
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, 1, sched.Pending())

	require.True(t, sched.RunOne())
	assert.True(t, called)
}

func TestStream_AsyncReadOnEmptyDeliversEOF(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStream(sched, nil)

	var f sc.Future
	s.AsyncReadSome([][]byte{make([]byte, 8)}, f.Handler())
	n, err := f.Wait(sched)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_AsyncCompletionsInIssueOrder(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStringStream(sched, "abcdef")

	var order []string
	record := func(tag string) sc.Handler {
		return func(n int, err error) { order = append(order, tag) }
	}

	s.AsyncReadSome([][]byte{make([]byte, 2)}, record("A"))
	s.AsyncWriteSome([][]byte{[]byte("zz")}, record("B"))
	s.AsyncReadSome([][]byte{make([]byte, 2)}, record("C"))
	s.AsyncReadSome([][]byte{make([]byte, 9)}, record("D"))
	s.AsyncReadSome([][]byte{make([]byte, 9)}, record("E"))

	assert.Empty(t, order)
	_, err := sched.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, order)
}

func TestStream_AsyncNilHandlerStillTransfers(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStringStream(sched, "abc")

	s.AsyncReadSome([][]byte{make([]byte, 2)}, nil)
	s.AsyncWriteSome([][]byte{[]byte("x")}, nil)
	assert.Equal(t, 1, s.Len())
	assert.Zero(t, sched.Pending())
	assert.Equal(t, int64(1), s.BytesWritten())
}

func TestStream_ContinuationChain(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStringStream(sched, "0123456789")

	var got []byte
	var final error
	buf := make([]byte, 3)
	var step sc.Handler
	step = func(n int, err error) {
		got = append(got, buf[:n]...)
		if err != nil {
			final = err
			return
		}
		s.Scheduler().Post(func() {}) // interleave unrelated work on the same queue
		s.AsyncReadSome([][]byte{buf}, step)
	}
	s.AsyncReadSome([][]byte{buf}, step)

	_, err := sched.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))
	assert.ErrorIs(t, final, io.EOF)
}

// --- Construction and options ---

func TestNewStream_NilScheduler_Panics(t *testing.T) {
	assert.PanicsWithValue(t, sc.ErrInvalidArgument, func() { sc.NewStream(nil, []byte("x")) })
}

func TestNewStream_CopiesPayload(t *testing.T) {
	payload := []byte("abc")
	s := sc.NewStream(sc.NewScheduler(), payload)
	payload[0] = 'X'

	buf := make([]byte, 3)
	_, err := s.ReadSome(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))
}

func TestStream_SchedulerAccessor(t *testing.T) {
	sched := sc.NewScheduler()
	s := sc.NewStream(sched, nil)
	assert.Same(t, sched, s.Scheduler())
}

// The read limit is recorded but reads ignore it.
func TestStream_ReadLimitIsNotEnforced(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "0123456789", sc.WithReadLimit(3))
	assert.Equal(t, 3, s.ReadLimit())

	buf := make([]byte, 10)
	n, err := s.ReadSome(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

// --- Standard interfaces ---

func TestStream_ReadAll(t *testing.T) {
	payload := bytes.Repeat([]byte("synconn "), 1000)
	s := sc.NewStream(sc.NewScheduler(), payload)

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStream_WriteTo(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "drain me")

	var dst bytes.Buffer
	n, err := s.WriteTo(&dst)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "drain me", dst.String())
	assert.Zero(t, s.Len())

	n, err = s.WriteTo(&dst)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

type limitedWriter struct {
	limit int
	err   error
}

func (w limitedWriter) Write(p []byte) (int, error) {
	n := min(len(p), w.limit)
	return n, w.err
}

func TestStream_WriteTo_PartialProgress(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "abcdef")

	n, err := s.WriteTo(limitedWriter{limit: 2, err: sc.ErrWouldBlock})
	assert.Equal(t, int64(2), n)
	assert.ErrorIs(t, err, sc.ErrWouldBlock)
	assert.Equal(t, 4, s.Len())

	n, err = s.WriteTo(limitedWriter{limit: 1})
	assert.Equal(t, int64(1), n)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 3, s.Len())
}

type lyingWriter struct{ n func(p []byte) int }

func (w lyingWriter) Write(p []byte) (int, error) { return w.n(p), nil }

func TestStream_WriteTo_InvalidCount(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "abcdef")

	for _, w := range []lyingWriter{
		{n: func(p []byte) int { return len(p) + 1 }},
		{n: func(p []byte) int { return -1 }},
	} {
		n, err := s.WriteTo(w)
		assert.Zero(t, n)
		assert.ErrorIs(t, err, sc.ErrInvalidWrite)
		assert.Equal(t, 6, s.Len())
		assert.Zero(t, s.BytesRead())
	}
}

func TestStream_ReadFromDiscards(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "keep")

	n, err := s.ReadFrom(bytes.NewReader(bytes.Repeat([]byte{1}, 100_000)))
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), n)
	assert.Equal(t, int64(100_000), s.BytesWritten())
	assert.Equal(t, 4, s.Len())
}

type wouldBlockReader struct{ sent bool }

func (r *wouldBlockReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, sc.ErrWouldBlock
	}
	r.sent = true
	return copy(p, "abc"), nil
}

func TestStream_ReadFrom_PropagatesWouldBlock(t *testing.T) {
	s := sc.NewStream(sc.NewScheduler(), nil)
	n, err := s.ReadFrom(&wouldBlockReader{})
	assert.Equal(t, int64(3), n)
	assert.True(t, errors.Is(err, sc.ErrWouldBlock), "err=%v", err)
}

func TestStream_CopyBetweenStreams(t *testing.T) {
	sched := sc.NewScheduler()
	src := sc.NewStringStream(sched, "relay")
	dst := sc.NewStream(sched, nil)

	n, err := io.Copy(dst, src)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, int64(5), dst.BytesWritten())
	assert.Zero(t, src.Len())
}

func TestStream_NetConn(t *testing.T) {
	s := sc.NewStream(sc.NewScheduler(), nil, sc.WithUnix())

	assert.Equal(t, "unix", s.LocalAddr().Network())
	assert.Equal(t, "unix", s.RemoteAddr().Network())
	assert.Equal(t, "synconn-local/"+s.ID(), s.LocalAddr().String())
	assert.Equal(t, "synconn-remote/"+s.ID(), s.RemoteAddr().String())
	assert.Len(t, s.ID(), 8)

	deadline := time.Now().Add(-time.Hour)
	assert.NoError(t, s.SetDeadline(deadline))
	assert.NoError(t, s.SetReadDeadline(deadline))
	assert.NoError(t, s.SetWriteDeadline(deadline))
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	n, err := s.Write([]byte("after close"))
	assert.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestStream_DistinctIDs(t *testing.T) {
	sched := sc.NewScheduler()
	a, b := sc.NewStream(sched, nil), sc.NewStream(sched, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}

// --- Try ---

func TestTry_NoPanic(t *testing.T) {
	assert.NoError(t, sc.Try(func() {}))
}

func TestTry_RepanicsNonError(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		_ = sc.Try(func() { panic("boom") })
	})
}

func TestTry_RepanicsForeignError(t *testing.T) {
	boom := errors.New("boom")
	assert.PanicsWithError(t, "boom", func() {
		_ = sc.Try(func() { panic(boom) })
	})
}

func TestTry_RepanicsRuntimeError(t *testing.T) {
	assert.Panics(t, func() {
		_ = sc.Try(func() {
			var m map[string]int
			m["x"] = 1
		})
	})
}

func TestTry_RecoversMustForm(t *testing.T) {
	s := sc.NewStringStream(sc.NewScheduler(), "")
	err := sc.Try(func() { s.MustReadSome(make([]byte, 4)) })
	assert.ErrorIs(t, err, sc.EOF)
}
