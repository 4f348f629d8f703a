package transport

import (
	"net"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// Endpoint is the substrate interface the reliability engines depend on.
// *Substrate is the production implementation; tests substitute the fake
// in-memory Link below, the same way transport/tcp/testing/context wires
// a fake stack through the production tcp.Endpoint interface instead of
// real sockets.
type Endpoint interface {
	Send(pkt *wire.Packet, addr *net.UDPAddr) (fullySent bool, err error)
	Receive() (*wire.Packet, *net.UDPAddr, error)
	WaitReadable(timeout time.Duration) (bool, error)
	ReceiveTimeout(timeout time.Duration) (*wire.Packet, *net.UDPAddr, error)
}

var _ Endpoint = (*Substrate)(nil)
