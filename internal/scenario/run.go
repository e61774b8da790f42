// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scenario

import (
	"context"

	"github.com/goccy/go-yaml"

	"code.hybscloud.com/synconn"
)

// Record is what one synchronous call or one completion observed. Async
// records carry the index of the step that issued them and are appended when
// the completion runs.
type Record struct {
	Step       int    `yaml:"step"`
	Op         Op     `yaml:"op"`
	N          int    `yaml:"n"`
	Data       string `yaml:"data,omitempty"`
	Err        string `yaml:"error,omitempty"`
	Async      bool   `yaml:"async,omitempty"`
	Dispatched int    `yaml:"dispatched,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	Name         string   `yaml:"name"`
	Stream       string   `yaml:"stream"`
	Records      []Record `yaml:"records"`
	Remaining    int      `yaml:"remaining"`
	Pending      int      `yaml:"pending"`
	BytesRead    int64    `yaml:"bytes_read"`
	BytesWritten int64    `yaml:"bytes_written"`
}

// YAML renders the report.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Run replays sc against a fresh stream and scheduler. Completions still
// queued after the last step are left pending and counted in the report.
func Run(ctx context.Context, sc *Scenario, opts ...synconn.Option) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sc.ReadLimit > 0 {
		opts = append(opts, synconn.WithReadLimit(sc.ReadLimit))
	}
	if sc.Network != "" {
		opts = append(opts, synconn.WithNetwork(sc.Network))
	}
	sched := synconn.NewScheduler(opts...)
	s := synconn.NewStringStream(sched, sc.Payload, opts...)
	rep := &Report{Name: sc.Name, Stream: s.ID()}

	for i, st := range sc.Steps {
		if err := runStep(ctx, rep, s, i, st); err != nil {
			return nil, err
		}
	}

	rep.Remaining = s.Len()
	rep.Pending = sched.Pending()
	rep.BytesRead = s.BytesRead()
	rep.BytesWritten = s.BytesWritten()
	return rep, nil
}

func runStep(ctx context.Context, rep *Report, s *synconn.Stream, i int, st Step) error {
	sched := s.Scheduler()
	switch st.Op {
	case OpRead:
		bufs := makeBuffers(st.sizes())
		n, err := s.ReadSome(bufs...)
		rep.add(Record{Step: i, Op: st.Op, N: n, Data: gather(bufs, n), Err: errString(err)})
	case OpMustRead:
		bufs := makeBuffers(st.sizes())
		var n int
		err := synconn.Try(func() { n = s.MustReadSome(bufs...) })
		rep.add(Record{Step: i, Op: st.Op, N: n, Data: gather(bufs, n), Err: errString(err)})
	case OpAsyncRead:
		bufs := makeBuffers(st.sizes())
		s.AsyncReadSome(bufs, func(n int, err error) {
			rep.add(Record{Step: i, Op: st.Op, N: n, Data: gather(bufs, n), Err: errString(err), Async: true})
		})
	case OpReadFull:
		buf := make([]byte, st.Capacity)
		synconn.AsyncRead(s, buf, func(n int, err error) {
			rep.add(Record{Step: i, Op: st.Op, N: n, Data: string(buf[:n]), Err: errString(err), Async: true})
		})
	case OpWrite:
		n, err := s.WriteSome([]byte(st.Data))
		rep.add(Record{Step: i, Op: st.Op, N: n, Err: errString(err)})
	case OpMustWrite:
		var n int
		err := synconn.Try(func() { n = s.MustWriteSome([]byte(st.Data)) })
		rep.add(Record{Step: i, Op: st.Op, N: n, Err: errString(err)})
	case OpAsyncWrite:
		s.AsyncWriteSome([][]byte{[]byte(st.Data)}, func(n int, err error) {
			rep.add(Record{Step: i, Op: st.Op, N: n, Err: errString(err), Async: true})
		})
	case OpRunOne:
		ran := 0
		if sched.RunOne() {
			ran = 1
		}
		rep.add(Record{Step: i, Op: st.Op, Dispatched: ran})
	case OpTurn:
		rep.add(Record{Step: i, Op: st.Op, Dispatched: sched.Turn()})
	case OpRun:
		// The record is added after the run so it follows the completions it drove.
		ran, err := sched.Run(ctx)
		if err != nil {
			return err
		}
		rep.add(Record{Step: i, Op: st.Op, Dispatched: ran})
	}
	return nil
}

func (r *Report) add(rec Record) {
	r.Records = append(r.Records, rec)
}

func makeBuffers(sizes []int) [][]byte {
	bufs := make([][]byte, len(sizes))
	for i, c := range sizes {
		bufs[i] = make([]byte, c)
	}
	return bufs
}

// gather concatenates the first n bytes spread across bufs.
func gather(bufs [][]byte, n int) string {
	out := make([]byte, 0, n)
	for _, b := range bufs {
		if n == 0 {
			break
		}
		c := min(len(b), n)
		out = append(out, b[:c]...)
		n -= c
	}
	return string(out)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
