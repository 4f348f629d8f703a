package receiver

import (
	"io"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
)

// ErrIdleTimeout is returned by Run when no traffic arrives for the
// configured idle window, the receiver's only fatal condition.
var ErrIdleTimeout = idleTimeoutError{}

type idleTimeoutError struct{}

func (idleTimeoutError) Error() string { return "receiver: idle timeout" }

// Run drives the receiver's event loop to completion: block on the
// substrate for one datagram at a time, dispatch handshake legs and data
// packets, and return once the session reaches its completed state. It
// returns ErrIdleTimeout if idleTimeout elapses with nothing received.
func Run(s *State, ep transport.Endpoint, out io.Writer, sink *diag.Sink, idleTimeout time.Duration) error {
	for {
		pkt, addr, err := ep.ReceiveTimeout(idleTimeout)
		if err != nil {
			if isTimeout(err) {
				return ErrIdleTimeout
			}
			sink.Error("corrupt packet: " + err.Error())
			continue
		}

		handledSyn, err := HandleSyn(s, pkt, addr, ep, sink)
		if err != nil {
			return err
		}
		if handledSyn {
			continue
		}

		if err := HandleData(s, pkt, addr, out, ep, sink); err != nil {
			return err
		}
		if s.Done() {
			sink.Completed()
			return nil
		}
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}
