// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

// Network option helpers.
//
// A synthetic stream never touches a socket, but consumers that log or branch
// on conn.LocalAddr().Network() expect the name of the transport they are
// standing in for. Mapping:
//   - TCP        → "tcp"
//   - UDP        → "udp"
//   - Unix       → "unix"
//   - UnixPacket → "unixpacket"
//   - Pipe       → "pipe"  (same name net.Pipe reports)

type netKind uint8

const (
	netTCP netKind = iota
	netUDP
	netUnixStream
	netUnixPacket
	netPipe
)

func networkFor(kind netKind) string {
	switch kind {
	case netTCP:
		return "tcp"
	case netUDP:
		return "udp"
	case netUnixStream:
		return "unix"
	case netUnixPacket:
		return "unixpacket"
	case netPipe:
		return "pipe"
	default:
		return "tcp"
	}
}

// WithTCP makes the stream report itself as a TCP connection.
func WithTCP() Option {
	return WithNetwork(networkFor(netTCP))
}

// WithUDP makes the stream report itself as a connected UDP socket.
func WithUDP() Option {
	return WithNetwork(networkFor(netUDP))
}

// WithUnix makes the stream report itself as a Unix stream socket.
func WithUnix() Option {
	return WithNetwork(networkFor(netUnixStream))
}

// WithUnixPacket makes the stream report itself as a Unix seqpacket socket.
func WithUnixPacket() Option {
	return WithNetwork(networkFor(netUnixPacket))
}

// WithPipe makes the stream report itself like one end of net.Pipe.
func WithPipe() Option {
	return WithNetwork(networkFor(netPipe))
}
