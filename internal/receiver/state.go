// Package receiver implements the receiver-side reassembly engine:
// sequence classification, in-order emission with buffer draining,
// out-of-order buffering, duplicate suppression, and the receiver's half
// of the three-way handshake.
package receiver

import (
	"github.com/nimmisuri/custom-transport-protocol/internal/seqnum"
)

// Classification names how an incoming data packet's sequence relates to
// the receiver's current state.
type Classification int

const (
	InOrder Classification = iota
	OutOfOrder
	Duplicate
)

func (c Classification) String() string {
	switch c {
	case InOrder:
		return "in-order"
	case OutOfOrder:
		return "out-of-order"
	default:
		return "duplicate"
	}
}

// State is the receiver's complete protocol state: the next expected byte
// offset, the set of payloads received ahead of it, and whether the
// sender has signaled end of file.
type State struct {
	AckedSequence seqnum.Value
	Buffered      map[uint32][]byte
	EOF           bool
	Handshaked    bool
}

// New returns a receiver State with no bytes yet acknowledged.
func New() *State {
	return &State{Buffered: make(map[uint32][]byte)}
}

// Done reports whether the receiver has reached its completed state: EOF
// seen and nothing left buffered ahead of AckedSequence.
func (s *State) Done() bool {
	return s.EOF && len(s.Buffered) == 0
}

// Classify determines where an incoming data packet at sequence seq falls
// relative to AckedSequence and the out-of-order buffer.
func (s *State) Classify(seq uint32) Classification {
	v := seqnum.Value(seq)
	switch {
	case v == s.AckedSequence:
		return InOrder
	case s.AckedSequence.LessThan(v):
		if _, buffered := s.Buffered[seq]; !buffered {
			return OutOfOrder
		}
		return Duplicate
	default:
		return Duplicate
	}
}
