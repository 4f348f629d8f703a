package sender

import (
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/seqnum"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// Handshake drives the sender's half of the three-way exchange: send SYN,
// wait up to the handshake timeout for the matching SYN/ACK, and on
// success send the closing SYN/ACK leg. A lost or mismatched reply retries
// from the first SYN. The elapsed wall-clock time from the first send to
// the successful close seeds s's RTT estimate directly, bypassing the EWMA
// smoother for this first sample.
func Handshake(s *State, ep transport.Endpoint, sink *diag.Sink) error {
	start := time.Now()
	s0 := s.Sequence
	wantAck := uint32(seqnum.Wrap(s0, 1))

	for {
		syn := &wire.Packet{Sequence: uint32(s0), Syn: wire.SynTrue()}
		if _, err := ep.Send(syn, nil); err != nil {
			return err
		}

		reply, _, err := ep.ReceiveTimeout(s.tun.HandshakeTimeout)
		if err != nil {
			sink.Error("handshake: " + err.Error())
			continue
		}
		if !reply.HasSyn() || !reply.Syn.IsValue() || !reply.HasAck() {
			sink.Error("handshake: unexpected reply")
			continue
		}
		if *reply.Ack != wantAck {
			sink.Error("handshake: ack mismatch")
			continue
		}

		sink.RecvSynAck(reply.Syn.Value(), *reply.Ack)

		s.Sequence = seqnum.Value(wantAck)
		closeLeg := &wire.Packet{
			Sequence: uint32(s.Sequence),
			Syn:      wire.SynTrue(),
			Ack:      ackOf(seqnum.Wrap(seqnum.Value(reply.Syn.Value()), 1)),
		}
		if _, err := ep.Send(closeLeg, nil); err != nil {
			return err
		}

		s.seedRTT(time.Since(start))
		sink.UpdateRTO(s.RTO)
		return nil
	}
}

func ackOf(v seqnum.Value) *uint32 {
	a := uint32(v)
	return &a
}
