package receiver_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/receiver"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

func TestRunIdleTimeoutIsFatal(t *testing.T) {
	s := receiver.New()
	ep, _ := linkPair(t, 9211, 9212)

	err := receiver.Run(s, ep, &bytes.Buffer{}, quietSink(), 20*time.Millisecond)
	if err != receiver.ErrIdleTimeout {
		t.Fatalf("expected ErrIdleTimeout, got %v", err)
	}
}

func TestRunCleanPathToCompletion(t *testing.T) {
	s := receiver.New()
	ep, peer := linkPair(t, 9213, 9214)
	var out bytes.Buffer

	peer.Send(&wire.Packet{Sequence: 1000, Syn: wire.SynTrue()}, nil)

	go func() {
		reply, addr, err := peer.Receive()
		if err != nil || !reply.HasSyn() || !reply.HasAck() {
			return
		}
		peer.Send(&wire.Packet{Syn: wire.SynTrue(), Ack: ackPtr(reply.Syn.Value() + 1)}, addr)
		peer.Send(wire.DataPacket(1001, []byte("HI"), true), addr)
	}()

	err := receiver.Run(s, ep, &out, quietSink(), 2*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "HI" {
		t.Fatalf("expected output HI, got %q", out.String())
	}
}
