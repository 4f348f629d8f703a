package sender

import (
	"io"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/plist"
	"github.com/nimmisuri/custom-transport-protocol/internal/seqnum"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// LoadPackets reads from in until EndOfFile is set or the Loaded queue
// reaches Window(). A short read marks the chunk as the final one; a
// zero-byte read instead produces a standalone, dataless EOF record at the
// current sequence, which travels through the same Loaded/Sent bookkeeping
// as any other record so it is retransmitted like anything else until
// acknowledged.
func LoadPackets(s *State, in io.Reader) error {
	if s.EndOfFile {
		return nil
	}

	buf := make([]byte, s.tun.DataSize)
	for s.Loaded.Len() < s.Window() {
		n, err := io.ReadFull(in, buf)
		if n == 0 {
			if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				return err
			}
			s.EndOfFile = true
			s.Loaded.PushBack(&plist.Record{
				Key:      uint32(s.Sequence),
				Sequence: uint32(s.Sequence),
				EOF:      true,
			})
			return nil
		}

		short := err == io.EOF || err == io.ErrUnexpectedEOF
		s.EndOfFile = short

		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		seq := s.Sequence
		s.Sequence = seqnum.Wrap(seq, n)

		s.Loaded.PushBack(&plist.Record{
			Key:      uint32(s.Sequence),
			Sequence: uint32(seq),
			Data:     chunk,
			EOF:      short,
		})

		if short {
			return nil
		}
	}
	return nil
}

// TransmitPending moves records from Loaded to Sent while the window has
// room, sending each one and arming its retransmission deadline.
func TransmitPending(s *State, ep transport.Endpoint, sink *diag.Sink) error {
	for s.Sent.Len() < s.Window() {
		rec := s.Loaded.Front()
		if rec == nil {
			return nil
		}
		s.Loaded.Pop(rec.Key)

		now := time.Now()
		rec.Timestamp = now
		rec.Deadline = now.Add(s.RTO)
		s.Sent.PushBack(rec)

		if err := sendRecord(ep, sink, rec); err != nil {
			return err
		}
	}
	return nil
}

func sendRecord(ep transport.Endpoint, sink *diag.Sink, rec *plist.Record) error {
	pkt := wire.DataPacket(rec.Sequence, rec.Data, rec.EOF)
	full, err := ep.Send(pkt, nil)
	if err != nil {
		return err
	}
	if !full {
		sink.Error("unable to fully send packet")
	}
	sink.SendData(rec.Sequence, len(rec.Data))
	return nil
}

// HandleAck processes one received ACK datagram. It returns true when the
// ACK retired an in-flight record (signaling the caller there may be room
// to load and send more); a fast retransmit triggered by the third
// duplicate ACK is carried out here and is not reported to the caller.
func HandleAck(s *State, pkt *wire.Packet, ep transport.Endpoint, sink *diag.Sink) (retired bool, err error) {
	ack := *pkt.Ack

	if rec := s.Sent.Pop(ack); rec != nil {
		sink.RecvAck(ack)
		s.DupAcks = 0
		s.BytesAcked += len(rec.Data)
		s.updateRTT(time.Since(rec.Timestamp))
		sink.UpdateRTO(s.RTO)
		s.growCWND()
		return true, nil
	}

	if pkt.HasSyn() {
		return false, nil
	}

	s.DupAcks++
	if s.DupAcks == 3 {
		s.DupAcks = 0
		if err := fastRetransmit(s, ep, sink); err != nil {
			return false, err
		}
	}
	return false, nil
}

// fastRetransmit resurfaces every in-flight record back into Loaded and
// resends it, dropping CWND to SSThresh/2 rather than collapsing all the
// way to slow start.
func fastRetransmit(s *State, ep transport.Endpoint, sink *diag.Sink) error {
	sink.FastRetransmit()
	// Put the in-flight records ahead of the unsent ones so Loaded stays
	// in ascending key order and resending starts at the window's head.
	s.Loaded.DrainInto(s.Sent)
	s.Sent.DrainInto(s.Loaded)
	if err := TransmitPending(s, ep, sink); err != nil {
		return err
	}
	s.CWND = s.SSThresh / 2
	return nil
}

// HandleTimeout implements the RTO-expiry path: multiplicative decrease,
// slow-start reset, and a pessimistic RTT re-estimate using the expired RTO
// itself as the elapsed sample, since no real round trip completed.
func HandleTimeout(s *State, ep transport.Endpoint, sink *diag.Sink) error {
	sink.Timeout()
	s.SSThresh = s.CWND / 2
	s.CWND = 1
	s.updateRTT(s.RTO)
	sink.UpdateRTO(s.RTO)

	// In-flight records go ahead of the unsent ones, as in fastRetransmit.
	s.Loaded.DrainInto(s.Sent)
	s.Sent.DrainInto(s.Loaded)
	return TransmitPending(s, ep, sink)
}
