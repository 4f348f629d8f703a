package transport

import (
	"net"
	"sync"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// ErrFakeTimeout is returned by a Link's ReceiveTimeout when nothing
// arrives before the deadline, satisfying net.Error so callers that type
// assert for Timeout() behave as they would against a real socket.
var ErrFakeTimeout = &fakeTimeoutErr{}

type fakeTimeoutErr struct{}

func (*fakeTimeoutErr) Error() string   { return "transport: fake receive timeout" }
func (*fakeTimeoutErr) Timeout() bool   { return true }
func (*fakeTimeoutErr) Temporary() bool { return true }

type queuedDatagram struct {
	pkt  *wire.Packet
	addr *net.UDPAddr
}

type mailbox struct {
	mu    sync.Mutex
	items []queuedDatagram
}

func (m *mailbox) push(d queuedDatagram) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, d)
}

func (m *mailbox) pop() (queuedDatagram, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return queuedDatagram{}, false
	}
	d := m.items[0]
	m.items = m.items[1:]
	return d, true
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Link is an in-memory Endpoint used by the sender/receiver engine tests
// to exercise loss, reordering and duplication deterministically, without
// real sockets — the same role the transport/tcp/testing/context fake
// stack plays for TCP tests. Its waits poll against the real wall clock.
type Link struct {
	inbox     *mailbox
	peer      *mailbox
	localAddr *net.UDPAddr
	peerAddr  *net.UDPAddr

	mu        sync.Mutex
	transform func(*wire.Packet) []*wire.Packet
}

// NewLinkPair returns two connected fake Links, a and b, each addressed
// as given.
func NewLinkPair(addrA, addrB *net.UDPAddr) (a, b *Link) {
	boxA := &mailbox{}
	boxB := &mailbox{}
	a = &Link{inbox: boxA, peer: boxB, localAddr: addrA, peerAddr: addrB}
	b = &Link{inbox: boxB, peer: boxA, localAddr: addrB, peerAddr: addrA}
	return a, b
}

// SetTransform installs a function applied to every packet sent from this
// end before delivery; it returns the datagrams that actually arrive
// (zero to simulate loss, two-plus to simulate duplication). A nil
// transform delivers exactly one copy unchanged.
func (l *Link) SetTransform(fn func(*wire.Packet) []*wire.Packet) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transform = fn
}

func (l *Link) Send(pkt *wire.Packet, _ *net.UDPAddr) (bool, error) {
	l.mu.Lock()
	transform := l.transform
	l.mu.Unlock()

	copies := []*wire.Packet{pkt}
	if transform != nil {
		copies = transform(pkt)
	}
	for _, c := range copies {
		if c == nil {
			continue
		}
		l.peer.push(queuedDatagram{pkt: c, addr: l.localAddr})
	}
	return true, nil
}

func (l *Link) Receive() (*wire.Packet, *net.UDPAddr, error) {
	for {
		if d, ok := l.inbox.pop(); ok {
			return d.pkt, d.addr, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (l *Link) WaitReadable(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if l.inbox.len() > 0 {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (l *Link) ReceiveTimeout(timeout time.Duration) (*wire.Packet, *net.UDPAddr, error) {
	ready, err := l.WaitReadable(timeout)
	if err != nil {
		return nil, nil, err
	}
	if !ready {
		return nil, nil, ErrFakeTimeout
	}
	return l.Receive()
}

var _ Endpoint = (*Link)(nil)
var _ error = ErrFakeTimeout
