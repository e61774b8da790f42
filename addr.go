// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

import (
	"net"

	"github.com/google/uuid"
)

var _ net.Addr = Addr{}

// Addr is the synthetic address of one end of a Stream.
type Addr struct {
	network string
	side    string
	id      string
}

func (a Addr) Network() string { return a.network }

func (a Addr) String() string { return "synconn-" + a.side + "/" + a.id }

// newStreamID returns the short identifier shared by both ends of one stream.
func newStreamID() string {
	return uuid.New().String()[:8]
}

func addrPair(network, id string) (local, remote Addr) {
	return Addr{network: network, side: "local", id: id}, Addr{network: network, side: "remote", id: id}
}
