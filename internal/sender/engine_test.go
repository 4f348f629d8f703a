package sender_test

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/sender"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

func quietSink() *diag.Sink { return diag.New(io.Discard) }

func newState(dataSize int, cwnd float64) *sender.State {
	tun := sender.DefaultTunables()
	tun.InitialRTO = 50 * time.Millisecond
	tun.MinRTO = 10 * time.Millisecond
	tun.DataSize = dataSize
	s := sender.New(tun)
	s.Sequence = 1000
	s.CWND = cwnd
	return s
}

func linkPair(t *testing.T, portA, portB int) (transport.Endpoint, transport.Endpoint) {
	t.Helper()
	a, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	b, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	a.Port, b.Port = portA, portB
	ep, peer := transport.NewLinkPair(a, b)
	return ep, peer
}

func TestLoadPacketsShortReadSetsEOF(t *testing.T) {
	s := newState(1200, 4)
	if err := sender.LoadPackets(s, bytes.NewReader([]byte("HELLO"))); err != nil {
		t.Fatal(err)
	}
	if !s.EndOfFile {
		t.Fatal("expected EndOfFile set after short read")
	}
	if s.Loaded.Len() != 1 {
		t.Fatalf("expected one loaded record, got %d", s.Loaded.Len())
	}
	rec := s.Loaded.Front()
	if string(rec.Data) != "HELLO" || !rec.EOF {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Key != 1005 {
		t.Fatalf("expected key 1005, got %d", rec.Key)
	}
}

func TestLoadPacketsZeroByteInputEmitsSentinel(t *testing.T) {
	s := newState(1200, 4)
	if err := sender.LoadPackets(s, bytes.NewReader(nil)); err != nil {
		t.Fatal(err)
	}
	if !s.EndOfFile {
		t.Fatal("expected EndOfFile set")
	}
	if s.Loaded.Len() != 1 {
		t.Fatalf("expected one sentinel record, got %d", s.Loaded.Len())
	}
	rec := s.Loaded.Front()
	if len(rec.Data) != 0 || !rec.EOF || rec.Key != 1000 {
		t.Fatalf("unexpected sentinel record: %+v", rec)
	}
}

func TestHandleAckRetiresAndGrowsWindow(t *testing.T) {
	s := newState(1200, 2)
	ep, _ := linkPair(t, 9001, 9002)
	sink := quietSink()

	if err := sender.LoadPackets(s, bytes.NewReader(bytes.Repeat([]byte{'x'}, 10))); err != nil {
		t.Fatal(err)
	}
	if err := sender.TransmitPending(s, ep, sink); err != nil {
		t.Fatal(err)
	}
	if s.Sent.Len() == 0 {
		t.Fatal("expected a record in flight")
	}
	rec := s.Sent.Front()
	ackPkt := wire.AckPacket(rec.Key)

	retired, err := sender.HandleAck(s, ackPkt, ep, sink)
	if err != nil {
		t.Fatal(err)
	}
	if !retired {
		t.Fatal("expected ack to retire the in-flight record")
	}
	if s.Sent.Has(rec.Key) {
		t.Fatal("record should have been removed from Sent")
	}
	if s.CWND <= 2 {
		t.Fatalf("expected CWND to grow past 2, got %v", s.CWND)
	}
}

func TestTripleDuplicateAckTriggersFastRetransmit(t *testing.T) {
	s := newState(1200, 4)
	ep, _ := linkPair(t, 9003, 9004)
	sink := quietSink()

	if err := sender.LoadPackets(s, bytes.NewReader(bytes.Repeat([]byte{'y'}, 10))); err != nil {
		t.Fatal(err)
	}
	if err := sender.TransmitPending(s, ep, sink); err != nil {
		t.Fatal(err)
	}
	rec := s.Sent.Front()
	unrelatedAck := wire.AckPacket(rec.Key + 999)

	ssthreshBefore := s.SSThresh
	for i := 0; i < 3; i++ {
		if _, err := sender.HandleAck(s, unrelatedAck, ep, sink); err != nil {
			t.Fatal(err)
		}
	}
	if s.DupAcks != 0 {
		t.Fatalf("expected DupAcks reset after fast retransmit, got %d", s.DupAcks)
	}
	if s.CWND != ssthreshBefore/2 {
		t.Fatalf("expected CWND = SSThresh/2 = %v, got %v", ssthreshBefore/2, s.CWND)
	}
	if !s.Sent.Has(rec.Key) {
		t.Fatal("expected record resurfaced into Sent after fast retransmit")
	}
}

func TestHandleTimeoutResetsWindowAndResends(t *testing.T) {
	s := newState(1200, 4)
	ep, _ := linkPair(t, 9005, 9006)
	sink := quietSink()

	if err := sender.LoadPackets(s, bytes.NewReader(bytes.Repeat([]byte{'z'}, 10))); err != nil {
		t.Fatal(err)
	}
	if err := sender.TransmitPending(s, ep, sink); err != nil {
		t.Fatal(err)
	}
	cwndBefore := s.CWND

	if err := sender.HandleTimeout(s, ep, sink); err != nil {
		t.Fatal(err)
	}
	if s.SSThresh != cwndBefore/2 {
		t.Fatalf("expected SSThresh = %v, got %v", cwndBefore/2, s.SSThresh)
	}
	if s.CWND != 1 {
		t.Fatalf("expected CWND reset to 1, got %v", s.CWND)
	}
	if s.Sent.Len() != 1 {
		t.Fatalf("expected exactly the window's worth resent, got %d", s.Sent.Len())
	}
}
