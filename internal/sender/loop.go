package sender

import (
	"io"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
)

// Snapshot is a point-in-time read of the fields the metrics sidecar
// exports; Run refreshes one once per iteration under the caller-supplied
// setter so the sidecar never touches engine state directly.
type Snapshot struct {
	CWND            float64
	SSThresh        float64
	RTT             float64
	RTO             float64
	DupAcks         int
	LoadedPackets   int
	InflightPackets int
	BytesAcked      int
}

func snapshotOf(s *State) Snapshot {
	return Snapshot{
		CWND:            s.CWND,
		SSThresh:        s.SSThresh,
		RTT:             s.RTT().Seconds(),
		RTO:             s.RTO.Seconds(),
		DupAcks:         s.DupAcks,
		LoadedPackets:   s.Loaded.Len(),
		InflightPackets: s.Sent.Len(),
		BytesAcked:      s.BytesAcked,
	}
}

// Run drives the sender's event loop to completion: load pending input,
// transmit within the window, wait up to RTO for a datagram, and dispatch
// it as an ACK or a timeout. It returns once the session reaches its
// completed state. observe, if non-nil, is called once per iteration with
// a fresh Snapshot for the metrics sidecar.
func Run(s *State, in io.Reader, ep transport.Endpoint, sink *diag.Sink, observe func(Snapshot)) error {
	for {
		if err := LoadPackets(s, in); err != nil {
			return err
		}
		if err := TransmitPending(s, ep, sink); err != nil {
			return err
		}
		if observe != nil {
			observe(snapshotOf(s))
		}
		if s.Done() {
			sink.Completed()
			return nil
		}

		ready, err := ep.WaitReadable(s.RTO)
		if err != nil {
			return err
		}
		if !ready {
			if err := HandleTimeout(s, ep, sink); err != nil {
				return err
			}
			continue
		}

		pkt, _, err := ep.Receive()
		if err != nil {
			sink.Error("corrupt packet: " + err.Error())
			continue
		}
		if !pkt.HasAck() {
			continue
		}
		if _, err := HandleAck(s, pkt, ep, sink); err != nil {
			return err
		}
	}
}
