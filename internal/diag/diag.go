// Package diag is the diagnostic sink: timestamped log lines written to
// stderr, one preformatted line per call rather than key/value pairs.
// Exact line format and content take priority over any structured-logging
// convenience, since the CLI's log stream is read by scripts as well as
// people.
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/xid"
)

// timeFormat renders microsecond-resolution wall clock time.
const timeFormat = "15:04:05.000000"

// Sink is a timestamped line logger plus the one process-lifetime
// correlation id used to tag metrics and the startup log line.
type Sink struct {
	mu      sync.Mutex
	out     io.Writer
	session xid.ID
}

// New returns a Sink writing to w, with a freshly generated session id.
func New(w io.Writer) *Sink {
	return &Sink{out: w, session: xid.New()}
}

// Default returns a Sink writing to os.Stderr.
func Default() *Sink {
	return New(os.Stderr)
}

// SessionID returns this run's correlation id as a string, suitable for a
// Prometheus constant label (see internal/metrics).
func (s *Sink) SessionID() string {
	return s.session.String()
}

// Logf writes one formatted, timestamped line. It is safe for concurrent
// use by the metrics sidecar goroutine alongside the single-threaded
// engine loop.
func (s *Sink) Logf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s %s\n", time.Now().Format(timeFormat), fmt.Sprintf(format, args...))
}

// Session emits the one-time startup correlation line. It is additive and
// never replaces any of the other required lines.
func (s *Sink) Session() {
	s.Logf("[session] %s", s.SessionID())
}

// Bound logs the receiver's bound ephemeral port.
func (s *Sink) Bound(port int) { s.Logf("[bound] %d", port) }

// SendData logs an outgoing data segment.
func (s *Sink) SendData(seq uint32, length int) { s.Logf("[send data] %d (%d)", seq, length) }

// RecvDataAccepted logs an accepted (in-order or out-of-order) data segment.
func (s *Sink) RecvDataAccepted(seq uint32, length int, order string) {
	s.Logf("[recv data] %d (%d) ACCEPTED (%s)", seq, length, order)
}

// RecvDataDuplicate logs a discarded duplicate data segment.
func (s *Sink) RecvDataDuplicate(seq uint32, length int) {
	s.Logf("[recv data] %d (%d) IGNORED (duplicate)", seq, length)
}

// RecvAck logs an acknowledgment receipt.
func (s *Sink) RecvAck(ack uint32) { s.Logf("[recv ack] %d", ack) }

// RecvSyn logs a handshake SYN receipt.
func (s *Sink) RecvSyn(seq uint32) { s.Logf("[recv syn] %d", seq) }

// RecvSynAck logs a handshake SYN/ACK receipt.
func (s *Sink) RecvSynAck(syn, ack uint32) { s.Logf("[recv syn/ack] %d/%d", syn, ack) }

// Timeout logs an RTO-driven retransmission.
func (s *Sink) Timeout() { s.Logf("[timeout] resending packets") }

// FastRetransmit logs a triple-duplicate-ACK-driven retransmission.
func (s *Sink) FastRetransmit() { s.Logf("[fast retransmit] resending packets") }

// UpdateRTO logs a new retransmission timeout value.
func (s *Sink) UpdateRTO(rto time.Duration) {
	s.Logf("[update RTO] %f", rto.Seconds())
}

// Completed logs successful termination.
func (s *Sink) Completed() { s.Logf("[completed]") }

// Error logs a recoverable fault.
func (s *Sink) Error(reason string) { s.Logf("[error] %s", reason) }
