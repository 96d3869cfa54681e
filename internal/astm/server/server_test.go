package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/senaite/astm-go/internal/astm/frame"
)

func startTestServer(t *testing.T, opts ...Option) (addr string, transfers chan *Transfer) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	transfers = make(chan *Transfer, 4)
	srv := New(ln.Addr().String(), transfers, zerolog.Nop(), opts...)
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = srv.ListenAndServe(ctx)
	}()
	t.Cleanup(cancel)

	// Give the listener goroutine a moment to bind.
	time.Sleep(20 * time.Millisecond)
	return srv.listenAddr, transfers
}

func TestServerCompletesSingleMessageTransfer(t *testing.T) {
	addr, transfers := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{frame.ENQ})
	require.NoError(t, err)

	ack := make([]byte, 1)
	_, err = conn.Read(ack)
	require.NoError(t, err)
	require.Equal(t, byte(frame.ACK), ack[0])

	msg := frame.Encode(1, []byte("H|\\^&|1"), false)
	_, err = conn.Write(msg)
	require.NoError(t, err)
	_, err = conn.Read(ack)
	require.NoError(t, err)
	require.Equal(t, byte(frame.ACK), ack[0])

	_, err = conn.Write([]byte{frame.EOT})
	require.NoError(t, err)

	select {
	case xfer := <-transfers:
		require.NotNil(t, xfer.Flush)
		payload, perr := frame.Payload(msg)
		require.NoError(t, perr)
		require.Equal(t, payload, xfer.Payload(FormatLIS2A))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transfer")
	}
}

func TestServerClosesConnectionOnTimeout(t *testing.T) {
	addr, _ := startTestServer(t, WithTimeout(50*time.Millisecond))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{frame.ENQ})
	require.NoError(t, err)
	ack := make([]byte, 1)
	_, err = conn.Read(ack)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(make([]byte, 16))
	if err == nil {
		t.Fatalf("expected connection to close after idle timeout, got %d bytes", n)
	}
}
