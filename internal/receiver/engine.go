package receiver

import (
	"io"
	"net"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/seqnum"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// HandleSyn processes one handshake datagram. A SYN without an ACK is the
// first leg: it seeds AckedSequence one past the sender's initial
// sequence and replies with the second leg. A datagram carrying both SYN
// and ACK is the closing third leg: the handshake is complete and no
// reply is sent. HandleSyn reports whether pkt was a handshake datagram
// at all, so the caller can fall through to data handling otherwise.
func HandleSyn(s *State, pkt *wire.Packet, addr *net.UDPAddr, ep transport.Endpoint, sink *diag.Sink) (handled bool, err error) {
	if !pkt.HasSyn() {
		return false, nil
	}
	if pkt.HasAck() {
		s.Handshaked = true
		return true, nil
	}

	sink.RecvSyn(pkt.Sequence)
	s.AckedSequence = seqnum.Wrap(seqnum.Value(pkt.Sequence), 1)
	s.Handshaked = true

	reply := &wire.Packet{
		Syn: wire.SynValue(pkt.Sequence),
		Ack: ackPtr(uint32(s.AckedSequence)),
	}
	if _, err := ep.Send(reply, addr); err != nil {
		return true, err
	}
	return true, nil
}

// HandleData processes one data-bearing datagram: it classifies the
// sequence, emits or buffers the payload as appropriate, and replies with
// an ack. An in-order payload is acked with AckedSequence as it stands
// just past that payload; only then are any now-contiguous buffered
// payloads drained.
// EOF is latched whenever pkt carries it, independent of classification.
func HandleData(s *State, pkt *wire.Packet, addr *net.UDPAddr, out io.Writer, ep transport.Endpoint, sink *diag.Sink) error {
	if pkt.EOF {
		s.EOF = true
	}

	class := s.Classify(pkt.Sequence)
	if class == InOrder && len(pkt.Data) > 0 {
		if err := emitInOrder(s, pkt.Sequence, pkt.Data, out, sink); err != nil {
			return err
		}
		if err := sendAck(ep, addr, uint32(s.AckedSequence), sink); err != nil {
			return err
		}
		return drainBuffered(s, out)
	}

	hint := uint32(seqnum.Wrap(seqnum.Value(pkt.Sequence), len(pkt.Data)))
	switch class {
	case OutOfOrder:
		sink.RecvDataAccepted(pkt.Sequence, len(pkt.Data), "out-of-order")
		s.Buffered[pkt.Sequence] = pkt.Data
	case Duplicate:
		if len(pkt.Data) > 0 {
			sink.RecvDataDuplicate(pkt.Sequence, len(pkt.Data))
		}
	}
	return sendAck(ep, addr, hint, sink)
}

func sendAck(ep transport.Endpoint, addr *net.UDPAddr, ack uint32, sink *diag.Sink) error {
	full, err := ep.Send(wire.AckPacket(ack), addr)
	if err != nil {
		return err
	}
	if !full {
		sink.Error("unable to fully send packet")
	}
	return nil
}

func emitInOrder(s *State, seq uint32, data []byte, out io.Writer, sink *diag.Sink) error {
	sink.RecvDataAccepted(seq, len(data), "in-order")
	if _, err := out.Write(data); err != nil {
		return err
	}
	s.AckedSequence = seqnum.Wrap(seqnum.Value(seq), len(data))
	return nil
}

// drainBuffered emits buffered payloads while one starts at AckedSequence,
// advancing AckedSequence past each.
func drainBuffered(s *State, out io.Writer) error {
	for {
		next := uint32(s.AckedSequence)
		buffered, ok := s.Buffered[next]
		if !ok {
			return nil
		}
		delete(s.Buffered, next)
		if _, err := out.Write(buffered); err != nil {
			return err
		}
		s.AckedSequence = seqnum.Wrap(seqnum.Value(next), len(buffered))
	}
}

func ackPtr(v uint32) *uint32 { return &v }
