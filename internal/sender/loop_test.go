package sender_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/sender"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// runToyPeer acknowledges every datagram it receives on peer, treating
// sequence+len(data) as the next expected offset — standing in for a real
// receiver so the sender's event loop can be exercised end to end.
func runToyPeer(t *testing.T, peer transport.Endpoint, done <-chan struct{}) {
	t.Helper()
	for {
		select {
		case <-done:
			return
		default:
		}
		ready, err := peer.WaitReadable(20 * time.Millisecond)
		if err != nil || !ready {
			continue
		}
		pkt, addr, err := peer.Receive()
		if err != nil {
			continue
		}
		if pkt.HasSyn() {
			if pkt.HasAck() {
				continue // closing leg; handshake already complete
			}
			ack := wire.Packet{
				Sequence: pkt.Sequence,
				Syn:      wire.SynValue(pkt.Sequence),
				Ack:      ackPtr(pkt.Sequence + 1),
			}
			peer.Send(&ack, addr)
			continue
		}
		next := pkt.Sequence + uint32(len(pkt.Data))
		peer.Send(wire.AckPacket(next), addr)
	}
}

func ackPtr(v uint32) *uint32 { return &v }

func TestHandshakeAndRunCleanPath(t *testing.T) {
	ep, peer := linkPair(t, 9101, 9102)

	s := sender.New(sender.Tunables{
		DataSize:         1200,
		InitialRTO:       50 * time.Millisecond,
		MinRTO:           10 * time.Millisecond,
		InitialSSThresh:  4,
		HandshakeTimeout: 200 * time.Millisecond,
	})
	s.Sequence = 1000

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runToyPeer(t, peer, done)
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	sink := quietSink()
	if err := sender.Handshake(s, ep, sink); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if s.RTT() <= 0 {
		t.Fatal("expected RTT seeded from handshake elapsed time")
	}

	errc := make(chan error, 1)
	go func() {
		errc <- sender.Run(s, bytes.NewReader([]byte("HELLO")), ep, sink, nil)
	}()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not complete")
	}
	if !s.Done() {
		t.Fatal("expected sender to reach completed state")
	}
}
