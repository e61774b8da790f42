// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

import (
	"github.com/sirupsen/logrus"

	"code.hybscloud.com/synconn/internal/log"
)

// Options configures streams, schedulers and forwarders.
type Options struct {
	// ReadLimit is recorded for callers that inspect it but is not enforced:
	// reads always copy the full available amount up to the destination capacity.
	// Zero means no limit.
	ReadLimit int

	// ChunkSize sizes the Forwarder's relay buffer. Zero selects 32KiB.
	ChunkSize int

	// Network is reported by the stream's LocalAddr and RemoteAddr.
	Network string

	// Logger receives per-operation traces. Nil selects the shared "synconn" logger.
	Logger *logrus.Entry
}

const defaultChunkSize = 32 * 1024

var defaultOptions = Options{
	ReadLimit: 0,
	ChunkSize: defaultChunkSize,
	Network:   "tcp",
}

type Option func(*Options)

func resolveOptions(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.Logger == nil {
		o.Logger = log.NewLogger("synconn")
	}
	return o
}

// WithReadLimit records a per-read cap. See Options.ReadLimit.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

func WithChunkSize(size int) Option {
	return func(o *Options) { o.ChunkSize = size }
}

func WithNetwork(network string) Option {
	return func(o *Options) { o.Network = network }
}

func WithLogger(logger *logrus.Entry) Option {
	return func(o *Options) { o.Logger = logger }
}
