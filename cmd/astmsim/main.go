// Command astmsim replays captured ASTM message files against a running
// astmserver, for manual and integration testing. Grounded on
// original_source/src/senaite/astm/simulator.py's send_messages/send_message
// coroutines, translated to a single blocking goroutine per connection
// since the simulator only ever opens one connection at a time.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/senaite/astm-go/internal/astm/frame"
)

func main() {
	var (
		address = pflag.StringP("address", "a", "127.0.0.1", "ASTM server address")
		port    = pflag.StringP("port", "p", "4010", "ASTM server port")
		delay   = pflag.Float64P("delay", "d", 0.1, "Delay in seconds between two frames")
		verbose = pflag.BoolP("verbose", "v", false, "Verbose logging")
	)
	pflag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	infiles := pflag.Args()
	if len(infiles) == 0 {
		log.Fatal().Msg("at least one ASTM file must be given")
	}

	var messages [][][]byte
	for _, path := range infiles {
		lines, err := readLines(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to read file")
		}
		messages = append(messages, lines)
	}

	addr := fmt.Sprintf("%s:%s", *address, *port)
	if err := sendMessages(messages, addr, time.Duration(*delay*float64(time.Second))); err != nil {
		log.Fatal().Err(err).Msg("failed to send messages")
	}
	log.Info().Msg("done")
}

func readLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r\n")
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	return lines, scanner.Err()
}

// sendMessages sends each file's lines over a single connection, one ENQ
// handshake per file, mirroring simulator.py's send_messages.
func sendMessages(messages [][][]byte, addr string, delay time.Duration) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("astmsim: connect to %s: %w", addr, err)
	}
	defer conn.Close()
	log.Info().Str("local", conn.LocalAddr().String()).Str("remote", addr).Msg("connected")

	for _, lines := range messages {
		if err := sendMessage(conn, lines, delay); err != nil {
			return err
		}
	}
	return nil
}

func sendMessage(conn net.Conn, lines [][]byte, delay time.Duration) error {
	log.Info().Msg("-> ENQ")
	if _, err := conn.Write([]byte{frame.ENQ}); err != nil {
		return err
	}
	if err := expectResponse(conn); err != nil {
		return err
	}

	for seq, line := range lines {
		time.Sleep(delay)
		terminal := seq == len(lines)-1
		msg := frame.Encode(seq%8, line, !terminal)
		log.Debug().Bytes("frame", msg).Msg("-> frame")
		if _, err := conn.Write(msg); err != nil {
			return err
		}
		if err := expectResponse(conn); err != nil {
			log.Warn().Err(err).Msg("unexpected response, aborting message")
			break
		}
	}

	log.Info().Msg("-> EOT")
	_, err := conn.Write([]byte{frame.EOT})
	return err
}

func expectResponse(conn net.Conn) error {
	buf := make([]byte, 100)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("astmsim: read response: %w", err)
	}
	if n == 0 || buf[0] != frame.ACK {
		return fmt.Errorf("astmsim: expected ACK, got %v", buf[:n])
	}
	return nil
}
