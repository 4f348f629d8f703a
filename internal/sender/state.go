// Package sender implements the sender-side reliability engine: the
// sliding send window, cumulative-ACK processing, timeout- and
// duplicate-ACK-driven retransmission, AIMD congestion control with
// slow-start and fast recovery, and the adaptive RTO.
//
// All mutable protocol state lives in one owning State struct passed
// explicitly to every operation, the same way transport/tcp folds TCP's
// send-side state into a single *sender bound to an *endpoint.
package sender

import (
	"math/rand"
	"time"

	"github.com/nimmisuri/custom-transport-protocol/internal/plist"
	"github.com/nimmisuri/custom-transport-protocol/internal/seqnum"
)

// Tunables bundles the protocol's fixed constants as overridable values,
// so internal/config can load them from file without the engine code
// depending on package config.
type Tunables struct {
	DataSize         int
	InitialRTO       time.Duration
	MinRTO           time.Duration
	InitialSSThresh  float64
	HandshakeTimeout time.Duration
}

// DefaultTunables returns the protocol's built-in constants.
func DefaultTunables() Tunables {
	return Tunables{
		DataSize:         1200,
		InitialRTO:       30 * time.Second,
		MinRTO:           500 * time.Millisecond,
		InitialSSThresh:  4,
		HandshakeTimeout: 2500 * time.Millisecond,
	}
}

// State is the sender's complete protocol state.
type State struct {
	tun Tunables

	Sequence seqnum.Value
	Loaded   *plist.Queue
	Sent     *plist.Queue

	rtt        time.Duration
	rttInited  bool
	RTO        time.Duration
	CWND       float64
	SSThresh   float64
	DupAcks    int
	EndOfFile  bool
	BytesAcked int
}

// New returns a freshly initialized sender State with a random initial
// sequence number, as the handshake requires.
func New(tun Tunables) *State {
	return &State{
		tun:      tun,
		Sequence: seqnum.Value(rand.Uint32()),
		Loaded:   plist.New(),
		Sent:     plist.New(),
		RTO:      tun.InitialRTO,
		CWND:     1,
		SSThresh: tun.InitialSSThresh,
	}
}

// RTT returns the current smoothed round-trip estimate; zero if no
// sample has landed yet.
func (s *State) RTT() time.Duration { return s.rtt }

// Window returns floor(CWND), the admissible number of in-flight packets.
func (s *State) Window() int { return int(s.CWND) }

// Done reports whether the sender has reached its completed state: EOF
// seen and both queues drained.
func (s *State) Done() bool {
	return s.EndOfFile && s.Loaded.Empty() && s.Sent.Empty()
}

// seedRTT sets RTT directly from the handshake's elapsed wall-clock time,
// bypassing the EWMA smoother for this one, first sample: there is no
// prior estimate to blend against yet.
func (s *State) seedRTT(sample time.Duration) {
	s.rtt = sample
	s.rttInited = true
	s.RTO = rtoFromRTT(s.rtt, s.tun.MinRTO)
}

// updateRTT folds a new RTT sample into the smoothed estimate with the
// textbook alpha of 0.875 and recomputes RTO.
func (s *State) updateRTT(sample time.Duration) {
	const alpha = 0.875
	if !s.rttInited {
		s.seedRTT(sample)
		return
	}
	s.rtt = time.Duration(alpha*float64(s.rtt) + (1-alpha)*float64(sample))
	s.RTO = rtoFromRTT(s.rtt, s.tun.MinRTO)
}

func rtoFromRTT(rtt time.Duration, minRTO time.Duration) time.Duration {
	rto := 2 * rtt
	if rto < minRTO {
		return minRTO
	}
	return rto
}

// growCWND implements the AIMD growth law: slow start below SSThresh,
// congestion avoidance at or above it.
func (s *State) growCWND() {
	if s.CWND < s.SSThresh {
		s.CWND++
	} else {
		s.CWND += 1 / s.CWND
	}
}
