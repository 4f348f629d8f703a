// Package transport is the substrate adapter: it owns one UDP socket,
// marshals/unmarshals datagrams through internal/wire, and exposes a
// select(2)-style readiness wait so the sender's event loop can keep its
// "wait, then read" shape instead of collapsing it into a single blocking
// read with a deadline.
//
// The readiness wait is implemented with golang.org/x/sys/unix.Select over
// the raw file descriptor, the descriptor itself obtained via
// github.com/higebu/netfd — the same technique sockstats uses in
// pkg/exporter/exporter.go to reach into a net.Conn for raw socket
// introspection, here repurposed to drive select(2) instead of SIOCOUTQ.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"

	"github.com/nimmisuri/custom-transport-protocol/internal/wire"
)

// Substrate is the datagram socket both peers send and receive through.
type Substrate struct {
	conn *net.UDPConn
	fd   int
}

// Bind opens a UDP socket at addr (port 0 for an ephemeral port; the
// receiver passes "127.0.0.1:0" to stay on loopback, while an empty host
// such as ":0" binds every interface).
func Bind(addr string) (*Substrate, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen: %w", err)
	}
	return &Substrate{conn: conn, fd: netfd.GetFdFromConn(conn)}, nil
}

// Dial opens a UDP socket connected to addr, as the sender does.
func Dial(addr string) (*Substrate, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial: %w", err)
	}
	return &Substrate{conn: conn, fd: netfd.GetFdFromConn(conn)}, nil
}

// LocalPort returns the ephemeral port this substrate bound to.
func (s *Substrate) LocalPort() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Close releases the socket.
func (s *Substrate) Close() error { return s.conn.Close() }

// Send marshals and writes pkt. If addr is nil, the substrate's connected
// peer (set via Dial) is used. A short write is non-fatal; Send reports it
// via the returned bool so the caller can log it and move on.
func (s *Substrate) Send(pkt *wire.Packet, addr *net.UDPAddr) (fullySent bool, err error) {
	b, err := wire.Encode(pkt)
	if err != nil {
		return false, err
	}
	var n int
	if addr != nil {
		n, err = s.conn.WriteToUDP(b, addr)
	} else {
		n, err = s.conn.Write(b)
	}
	if err != nil {
		return false, fmt.Errorf("transport: send: %w", err)
	}
	return n >= len(b), nil
}

// Receive blocks for exactly one datagram and decodes it. A corrupt
// datagram is returned as an error with the raw peer address still valid,
// so the caller can log-and-discard without losing track of who sent it.
func (s *Substrate) Receive() (*wire.Packet, *net.UDPAddr, error) {
	buf := make([]byte, wire.MaxDatagramSize)
	n, addr, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, addr, fmt.Errorf("transport: receive: %w", err)
	}
	pkt, err := wire.Decode(buf[:n])
	if err != nil {
		return nil, addr, err
	}
	return pkt, addr, nil
}

// ReceiveTimeout blocks for one datagram, bounded by timeout. The
// receiver uses this directly as its sole suspension point; unlike the
// sender it has no separate readiness-wait phase. A net.Error with
// Timeout() true is returned verbatim so the caller can tell an idle
// timeout (fatal) apart from a corrupt datagram (non-fatal).
func (s *Substrate) ReceiveTimeout(timeout time.Duration) (*wire.Packet, *net.UDPAddr, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, fmt.Errorf("transport: set deadline: %w", err)
	}
	buf := make([]byte, wire.MaxDatagramSize)
	n, addr, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, addr, err
	}
	pkt, err := wire.Decode(buf[:n])
	if err != nil {
		return nil, addr, err
	}
	return pkt, addr, nil
}

// WaitReadable blocks until the socket has a datagram ready or timeout
// elapses, equivalent to select([sock], [], [], timeout). It returns true
// if the socket is readable, false on timeout.
func (s *Substrate) WaitReadable(timeout time.Duration) (bool, error) {
	if timeout < 0 {
		timeout = 0
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())

	rfds := &unix.FdSet{}
	fdSet(rfds, s.fd)

	n, err := unix.Select(s.fd+1, rfds, nil, nil, &tv)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("transport: select: %w", err)
	}
	return n > 0, nil
}

// fdSet sets bit fd in set, matching the FD_SET macro. unix.FdSet's Bits
// field width depends on GOARCH, so the per-arch FdSet.Set does the math.
func fdSet(set *unix.FdSet, fd int) {
	set.Set(fd)
}
