// Package link implements the ASTM E1381 low-level link-protocol session
// state machine (spec §4.2): the per-connection IDLE/TRANSFER handshake
// driven by ENQ/ACK/NAK/EOT and STX-framed messages, grounded on
// original_source/src/senaite/astm/protocol.py's ASTMProtocol.
//
// Per spec §9's REDESIGN FLAGS, the engine never raises exceptions for
// protocol violations: every transition returns an explicit Result whose
// Outcome is one of OutcomeOK, OutcomeReject, or OutcomeFatal, and the
// engine itself performs no I/O — callers own the net.Conn, the inactivity
// timer, and the outbound consumer queue.
package link

import (
	"fmt"

	"github.com/senaite/astm-go/internal/astm/frame"
)

// State is the session's position in the ASTM E1381 handshake.
type State int

const (
	StateIdle State = iota
	StateTransfer
)

func (s State) String() string {
	if s == StateTransfer {
		return "transfer"
	}
	return "idle"
}

// Outcome classifies how the caller should react to a Result.
type Outcome int

const (
	// OutcomeOK means the engine accepted the input; Reply (if non-nil)
	// should be written back, and Flush (if non-nil) should be handed to
	// the consumer.
	OutcomeOK Outcome = iota
	// OutcomeReject means a protocol violation was handled within the
	// handshake and the connection stays open. Reply carries a NAK for a
	// rejected frame or an unexpected ENQ; it is nil for a stray ACK/NAK,
	// undispatchable bytes, or an empty EOT under EmptyEOTReject.
	OutcomeReject
	// OutcomeFatal means the session is no longer usable (e.g. EOT
	// received outside TRANSFER): the engine has reset itself and the
	// caller must close the connection.
	OutcomeFatal
)

// EmptyEOTPolicy governs how the engine reacts to an EOT received with no
// accumulated messages — observed in the wild from a Yumizen H550 sending
// ENQ immediately followed by EOT, apparently as a keepalive probe (spec's
// Open Question, decided in SPEC_FULL.md: default to silent reset).
type EmptyEOTPolicy int

const (
	// EmptyEOTSilent resets the session without flushing or rejecting.
	EmptyEOTSilent EmptyEOTPolicy = iota
	// EmptyEOTReject treats an empty EOT as a protocol violation.
	EmptyEOTReject
)

// Flush is the payload handed to the consumer when a transfer completes.
type Flush struct {
	// Messages holds each accepted message's raw wire bytes (STX..CRLF),
	// in receive order.
	Messages [][]byte
	// LIS2A is the concatenation of each message's payload (spec §4.2):
	// sequence digit, body, and terminator, with no separator between
	// messages.
	LIS2A []byte
	// ASTM is the concatenation of each message's full raw frame bytes,
	// including STX and the trailing checksum/CRLF.
	ASTM []byte
}

// Result is returned by every Engine transition.
type Result struct {
	Outcome Outcome
	// Reply is the bytes to write back to the peer, or nil for none.
	Reply []byte
	// Flush is set only on the transition that completes a transfer.
	Flush *Flush
	// Err describes why Outcome is Reject or Fatal.
	Err error
}

func ok(reply []byte) Result              { return Result{Outcome: OutcomeOK, Reply: reply} }
func okFlush(f *Flush) Result             { return Result{Outcome: OutcomeOK, Flush: f} }
func reject(reply []byte, err error) Result {
	return Result{Outcome: OutcomeReject, Reply: reply, Err: err}
}
func fatal(err error) Result { return Result{Outcome: OutcomeFatal, Err: err} }

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithEmptyEOTPolicy overrides the default EmptyEOTSilent policy.
func WithEmptyEOTPolicy(p EmptyEOTPolicy) Option {
	return func(e *Engine) { e.emptyEOTPolicy = p }
}

// Engine is the per-connection link-protocol state machine. A new Engine
// must be constructed for every connection; it is not safe for concurrent
// use by more than one goroutine at a time.
type Engine struct {
	state          State
	chunks         [][]byte
	messages       [][]byte
	emptyEOTPolicy EmptyEOTPolicy
}

// New returns an idle Engine ready to receive its first ENQ.
func New(opts ...Option) *Engine {
	e := &Engine{state: StateIdle}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the engine's current handshake state.
func (e *Engine) State() State { return e.state }

// HandleBytes dispatches one unit of data received from the peer to the
// matching transition, mirroring protocol.py's handle_data.
func (e *Engine) HandleBytes(data []byte) Result {
	if len(data) == 0 {
		return ok(nil)
	}
	switch data[0] {
	case frame.ENQ:
		return e.OnENQ()
	case frame.ACK:
		return e.OnACK()
	case frame.NAK:
		return e.OnNAK()
	case frame.EOT:
		return e.OnEOT()
	case frame.STX:
		return e.OnMessage(data)
	default:
		return reject(nil, fmt.Errorf("link: unable to dispatch data starting with %#x", data[0]))
	}
}

// OnENQ handles a bid for the line. A second ENQ while already in TRANSFER
// is a protocol violation answered with NAK; the session otherwise enters
// TRANSFER and is answered with ACK.
func (e *Engine) OnENQ() Result {
	if e.state == StateTransfer {
		return reject([]byte{frame.NAK}, fmt.Errorf("link: ENQ is not expected in state %s", e.state))
	}
	e.state = StateTransfer
	return ok([]byte{frame.ACK})
}

// OnACK handles a stray ACK from the peer. The server never expects to be
// ACKed; this is a protocol violation with no reply.
func (e *Engine) OnACK() Result {
	return reject(nil, fmt.Errorf("link: server should not be ACKed"))
}

// OnNAK handles a stray NAK from the peer, the mirror of OnACK.
func (e *Engine) OnNAK() Result {
	return reject(nil, fmt.Errorf("link: server should not be NAKed"))
}

// OnMessage handles one STX-framed chunk or terminal message (spec §4.1,
// §4.2). A bad checksum or malformed frame is rejected with NAK without
// losing the session; a well-formed frame is ACKed, and once a terminal
// frame completes a chunked sequence it is appended to the transfer's
// accumulated messages.
func (e *Engine) OnMessage(data []byte) Result {
	if e.state != StateTransfer {
		e.chunks = nil
		return reject([]byte{frame.NAK}, fmt.Errorf("link: message received outside TRANSFER"))
	}

	f, err := frame.Parse(data)
	if err != nil {
		return reject([]byte{frame.NAK}, fmt.Errorf("link: %w", err))
	}

	var full []byte
	switch {
	case f.Chunked:
		e.chunks = append(e.chunks, data)
	case len(e.chunks) > 0:
		e.chunks = append(e.chunks, data)
		joined, err := frame.Join(e.chunks)
		e.chunks = nil
		if err != nil {
			return reject([]byte{frame.NAK}, fmt.Errorf("link: %w", err))
		}
		full = joined
	default:
		full = data
	}

	if full != nil {
		e.messages = append(e.messages, full)
	}
	return ok([]byte{frame.ACK})
}

// OnEOT handles the end of a transfer (spec §4.2). Receiving EOT outside
// TRANSFER is fatal: the session resets and the caller must close the
// connection. Receiving EOT with no accumulated messages follows
// emptyEOTPolicy. Otherwise the accumulated messages are flushed to the
// caller and the session returns to IDLE.
func (e *Engine) OnEOT() Result {
	if e.state != StateTransfer {
		e.reset()
		return fatal(fmt.Errorf("link: EOT received outside TRANSFER"))
	}

	if len(e.messages) == 0 {
		e.reset()
		if e.emptyEOTPolicy == EmptyEOTReject {
			return reject(nil, fmt.Errorf("link: EOT received with no messages"))
		}
		return ok(nil)
	}

	f := &Flush{Messages: append([][]byte{}, e.messages...)}
	for _, m := range e.messages {
		f.ASTM = append(f.ASTM, m...)
		if p, err := frame.Payload(m); err == nil {
			f.LIS2A = append(f.LIS2A, p...)
		}
	}

	e.reset()
	return okFlush(f)
}

// Timeout resets the session after an inactivity timeout (spec §4.2's 15s
// window); the caller is responsible for closing the connection.
func (e *Engine) Timeout() {
	e.reset()
}

func (e *Engine) reset() {
	e.state = StateIdle
	e.chunks = nil
	e.messages = nil
}
