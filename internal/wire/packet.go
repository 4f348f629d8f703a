// Package wire implements the self-describing JSON datagram codec
// exchanged between sender and receiver. Field presence is meaningful: an
// absent "ack" or "syn" is not the same as ack=0 or syn=false, so both are
// modeled as pointer-shaped optional values rather than bare scalars.
package wire

import (
	"encoding/json"
	"fmt"
)

// MaxDatagramSize is the MTU the substrate is assumed to tolerate without
// fragmentation.
const MaxDatagramSize = 1500

// MaxPayloadSize is the largest data payload a single packet may carry,
// leaving headroom in MaxDatagramSize for JSON framing overhead.
const MaxPayloadSize = 1200

// Syn carries the handshake marker. On the wire it is either the JSON
// literal true (legs 1 and 3) or a bare integer echoing the peer's initial
// sequence number (leg 2).
type Syn struct {
	isValue bool
	value   uint32
}

// SynTrue returns the boolean-true form of the marker.
func SynTrue() *Syn { return &Syn{} }

// SynValue returns the numeric-echo form of the marker.
func SynValue(v uint32) *Syn { return &Syn{isValue: true, value: v} }

// IsValue reports whether this marker carries a numeric echo rather than
// the bare boolean form.
func (s *Syn) IsValue() bool { return s != nil && s.isValue }

// Value returns the numeric echo; only meaningful when IsValue is true.
func (s *Syn) Value() uint32 { return s.value }

func (s *Syn) MarshalJSON() ([]byte, error) {
	if s.isValue {
		return json.Marshal(s.value)
	}
	return json.Marshal(true)
}

func (s *Syn) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*s = Syn{isValue: false}
		return nil
	}
	var asNum uint32
	if err := json.Unmarshal(data, &asNum); err == nil {
		*s = Syn{isValue: true, value: asNum}
		return nil
	}
	return fmt.Errorf("wire: syn field is neither bool nor number: %s", data)
}

// Packet is the logical record exchanged between sender and receiver.
// Data is a plain []byte: encoding/json already encodes []byte as a
// base64 JSON string and decodes it back losslessly, which keeps the wire
// format text-framed while carrying arbitrary binary input safely.
type Packet struct {
	Sequence uint32  `json:"sequence"`
	Data     []byte  `json:"data,omitempty"`
	Syn      *Syn    `json:"syn,omitempty"`
	Ack      *uint32 `json:"ack,omitempty"`
	EOF      bool    `json:"eof,omitempty"`
}

// HasAck reports whether this datagram is carrying an acknowledgment.
func (p *Packet) HasAck() bool { return p.Ack != nil }

// HasSyn reports whether this datagram is carrying a handshake marker.
func (p *Packet) HasSyn() bool { return p.Syn != nil }

// Encode serializes p into its wire representation.
func Encode(p *Packet) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	if len(b) > MaxDatagramSize {
		return nil, fmt.Errorf("wire: encoded packet exceeds MTU: %d bytes", len(b))
	}
	return b, nil
}

// Decode parses a received datagram. Any parse failure is a corrupt-packet
// event: non-fatal, the caller logs and discards.
func Decode(b []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("wire: corrupt packet: %w", err)
	}
	return &p, nil
}

// AckPacket builds a bare acknowledgment datagram for the given cumulative
// or per-packet-hint sequence.
func AckPacket(ack uint32) *Packet {
	a := ack
	return &Packet{Ack: &a}
}

// DataPacket builds a data-bearing datagram.
func DataPacket(seq uint32, data []byte, eof bool) *Packet {
	return &Packet{Sequence: seq, Data: data, EOF: eof}
}
