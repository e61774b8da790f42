// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scenario replays a scripted sequence of stream operations against a
// synconn.Stream and records what each operation and completion observed.
//
// A scenario file looks like:
//
//	name: hello
//	payload: "hello"
//	steps:
//	  - op: read
//	    capacity: 10
//	  - op: read
//	    capacity: 10
//	  - op: async_write
//	    data: "hello"
//	  - op: turn
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// Op names a scenario step.
type Op string

const (
	OpRead       Op = "read"        // ReadSome
	OpMustRead   Op = "must_read"   // MustReadSome
	OpAsyncRead  Op = "async_read"  // AsyncReadSome
	OpReadFull   Op = "read_full"   // AsyncRead
	OpWrite      Op = "write"       // WriteSome
	OpMustWrite  Op = "must_write"  // MustWriteSome
	OpAsyncWrite Op = "async_write" // AsyncWriteSome
	OpRunOne     Op = "run_one"     // Scheduler.RunOne
	OpTurn       Op = "turn"        // Scheduler.Turn
	OpRun        Op = "run"         // Scheduler.Run
)

var (
	ErrUnknownOp   = errors.New("scenario: unknown op")
	ErrBadCapacity = errors.New("scenario: capacity out of range")
)

// maxCapacity bounds the bytes a single read step may allocate, summed over
// its buffers.
const maxCapacity = 64 << 20

// Scenario is the decoded form of a scenario file.
type Scenario struct {
	Name      string `yaml:"name"`
	Payload   string `yaml:"payload"`
	ReadLimit int    `yaml:"read_limit"`
	Network   string `yaml:"network"`
	Steps     []Step `yaml:"steps"`
}

// Step is one operation. Reads use Buffers when set (scatter read), otherwise
// a single buffer of Capacity bytes. Writes send Data.
type Step struct {
	Op       Op     `yaml:"op"`
	Capacity int    `yaml:"capacity"`
	Buffers  []int  `yaml:"buffers"`
	Data     string `yaml:"data"`
}

func (st Step) sizes() []int {
	if len(st.Buffers) > 0 {
		return st.Buffers
	}
	return []int{st.Capacity}
}

// Validate checks every step's op and buffer sizes.
func (sc *Scenario) Validate() error {
	for i, st := range sc.Steps {
		switch st.Op {
		case OpRead, OpMustRead, OpAsyncRead, OpReadFull:
			if st.Capacity < 0 || st.Capacity > maxCapacity {
				return fmt.Errorf("step %d: %w", i, ErrBadCapacity)
			}
			total := 0
			for _, c := range st.sizes() {
				if c < 0 || c > maxCapacity-total {
					return fmt.Errorf("step %d: %w", i, ErrBadCapacity)
				}
				total += c
			}
		case OpWrite, OpMustWrite, OpAsyncWrite, OpRunOne, OpTurn, OpRun:
		default:
			return fmt.Errorf("step %d: %w %q", i, ErrUnknownOp, st.Op)
		}
	}
	return nil
}

// Decode parses and validates a scenario.
func Decode(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc := new(Scenario)
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Load decodes the scenario file at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
