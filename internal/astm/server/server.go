// Package server implements the ASTM TCP listener (spec §5): one
// connection per net.Conn, each driven by its own link.Engine, with
// completed transfers handed to a bounded consumer channel. Grounded on
// original_source/src/senaite/astm/server.py's accept-loop shape and
// protocol.py's per-connection timer discipline, adapted from asyncio's
// single-threaded callback model to a goroutine-per-connection model in
// the idiom of urmzd-homai/pkg/zigbee/ash.go's owning-goroutine-plus-channel
// discipline.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/senaite/astm-go/internal/astm/link"
)

// MessageFormat selects which representation of a flushed transfer is
// handed to the consumer (spec §4.2's Open Question, decided in
// SPEC_FULL.md: caller-configurable, defaulting to "lis2a").
type MessageFormat int

const (
	FormatLIS2A MessageFormat = iota
	FormatASTM
)

// DefaultTimeout is the inactivity window after which a connection is
// closed (spec §4.2).
const DefaultTimeout = 15 * time.Second

// Transfer is one completed ENQ..EOT exchange, handed to the consumer
// channel for wrapping, capture, and LIMS posting.
type Transfer struct {
	RemoteAddr string
	Flush      *link.Flush
	ReceivedAt time.Time
}

// Payload returns the bytes to forward downstream, picking LIS2A or raw
// ASTM framing per the server's configured MessageFormat.
func (t *Transfer) Payload(format MessageFormat) []byte {
	if format == FormatASTM {
		return t.Flush.ASTM
	}
	return t.Flush.LIS2A
}

// SessionObserver receives per-connection lifecycle and activity events, for
// admin/metrics surfaces that want visibility into in-flight link sessions
// without participating in the protocol path itself.
type SessionObserver interface {
	// Connected is called once a connection is accepted, before any bytes
	// are read.
	Connected(remoteAddr string)
	// Activity is called after every successful read, reporting the
	// engine's resulting link state and the number of bytes read, and once
	// more with zero bytes after an inactivity timeout resets the engine.
	Activity(remoteAddr, state string, bytesRead int)
	// Disconnected is called once the connection is closed, however it
	// ended (timeout, peer close, or fatal protocol error).
	Disconnected(remoteAddr string)
}

type noopObserver struct{}

func (noopObserver) Connected(string)            {}
func (noopObserver) Activity(string, string, int) {}
func (noopObserver) Disconnected(string)          {}

// Server accepts ASTM connections and dispatches completed transfers.
type Server struct {
	listenAddr     string
	timeout        time.Duration
	format         MessageFormat
	emptyEOTPolicy link.EmptyEOTPolicy
	consumer       chan<- *Transfer
	observer       SessionObserver
	log            zerolog.Logger
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithMessageFormat selects which payload representation is forwarded to
// the consumer channel.
func WithMessageFormat(f MessageFormat) Option {
	return func(s *Server) { s.format = f }
}

// WithEmptyEOTPolicy propagates to every connection's link.Engine.
func WithEmptyEOTPolicy(p link.EmptyEOTPolicy) Option {
	return func(s *Server) { s.emptyEOTPolicy = p }
}

// WithSessionObserver registers a SessionObserver notified of every
// connection's lifecycle and activity. The default is a no-op observer.
func WithSessionObserver(o SessionObserver) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// New builds a Server that listens on listenAddr and delivers completed
// transfers to consumer. consumer should be read continuously: a full
// channel applies backpressure by blocking the connection's goroutine,
// per spec's explicit allowance for a bounded queue.
func New(listenAddr string, consumer chan<- *Transfer, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		listenAddr: listenAddr,
		timeout:    DefaultTimeout,
		format:     FormatLIS2A,
		consumer:   consumer,
		observer:   noopObserver{},
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds listenAddr and accepts connections until ctx is
// canceled or a fatal listener error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.listenAddr, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info().Str("addr", s.listenAddr).Msg("astm server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			s.log.Error().Err(err).Msg("accept failed")
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	log := s.log.With().Str("client", remote).Logger()
	log.Debug().Msg("connection accepted")
	s.observer.Connected(remote)
	defer func() {
		conn.Close()
		s.observer.Disconnected(remote)
		log.Debug().Msg("connection closed")
	}()

	eng := link.New(link.WithEmptyEOTPolicy(s.emptyEOTPolicy))

	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(s.timeout))
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Warn().Dur("timeout", s.timeout).Msg("connection timed out, closing")
				eng.Timeout()
				s.observer.Activity(remote, eng.State().String(), 0)
			}
			return
		}

		data := append([]byte{}, buf[:n]...)
		log.Debug().Bytes("data", data).Msg("data received")

		res := eng.HandleBytes(data)
		s.observer.Activity(remote, eng.State().String(), n)
		if res.Reply != nil {
			if _, err := conn.Write(res.Reply); err != nil {
				log.Error().Err(err).Msg("write failed")
				return
			}
		}

		switch res.Outcome {
		case link.OutcomeFatal:
			log.Error().Err(res.Err).Msg("fatal protocol error, closing connection")
			return
		case link.OutcomeReject:
			log.Warn().Err(res.Err).Msg("protocol violation handled")
		}

		if res.Flush != nil {
			t := &Transfer{RemoteAddr: remote, Flush: res.Flush, ReceivedAt: time.Now()}
			select {
			case s.consumer <- t:
			case <-ctx.Done():
				return
			}
		}
	}
}
