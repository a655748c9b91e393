// Package auxinput implements the secondary InputSource over a
// go.bug.st/serial port, for an auxiliary console distinct from the
// primary MCU-facing line (e.g. a debug UART or a panel display). The
// serial.Mode setup (8-N-1) and the port-as-io.Reader wrapping are the
// usual go.bug.st/serial idiom; line buffering and the motion.InputSource
// adaptation are specific to framing command lines out of the stream.
package auxinput

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"

	"nccore/internal/motion"
)

// Config configures the serial port backing a Source.
type Config struct {
	Device   string
	BaudRate int
}

// Source is a motion.InputSource backed by a go.bug.st/serial port. Reads
// run in a background goroutine feeding a channel of completed lines, so
// ReadLine is always non-blocking from the dispatcher's point of view.
type Source struct {
	cfg    Config
	port   serial.Port
	lines  chan string
	errs   chan error
	closed bool
}

// Open opens the named serial device in 8-N-1 mode at cfg.BaudRate
// (default 9600) and starts the background line reader.
func Open(cfg Config) (*Source, error) {
	if cfg.Device == "" {
		return nil, errors.New("auxinput: device path required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("auxinput: open %s: %w", cfg.Device, err)
	}

	s := &Source{
		cfg:   cfg,
		port:  port,
		lines: make(chan string, 64),
		errs:  make(chan error, 1),
	}
	go s.readLoop()
	return s, nil
}

func (s *Source) readLoop() {
	r := bufio.NewReader(s.port)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			s.lines <- trimEOL(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.errs <- err
			} else {
				s.errs <- io.EOF
			}
			return
		}
	}
}

// ReadLine implements motion.InputSource: drains whatever complete lines
// the background reader has queued, or reports the reader's terminal
// error/EOF once the queue is empty.
func (s *Source) ReadLine() (string, motion.Status) {
	if s.closed {
		return "", motion.StatusEOF
	}
	select {
	case line := <-s.lines:
		return line, motion.StatusOK
	default:
	}
	select {
	case err := <-s.errs:
		_ = err
		return "", motion.StatusEOF
	default:
	}
	return "", motion.StatusEAGAIN
}

// Reset closes and reopens the underlying serial port.
func (s *Source) Reset() error {
	if s.port != nil {
		_ = s.port.Close()
	}
	fresh, err := Open(s.cfg)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Close releases the underlying serial port.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
