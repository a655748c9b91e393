// Package ttyinput implements the primary InputSource over a raw serial
// device: open the tty, put it in non-canonical 8N1 mode, and surface
// completed newline-terminated lines through ReadLine.
//
// The termios setup, poll loop, and ioctl constant split across
// ioctl_linux.go/ioctl_darwin.go follow the usual raw-tty approach,
// narrowed to what a non-blocking line reader needs (Open/Read/Close) and
// leaving out MCU-connection concerns (CAN bus, socket/TCP dial, RTS/DTR
// handshake, a device-specific baud table) that belong to a host-to-MCU
// transport rather than this system's command-line input.
package ttyinput

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"nccore/internal/motion"
)

// ErrClosed names the closed-source condition. No method of Source returns
// it: ReadLine reports a closed source as StatusEOF, and Reset reopens it.
var ErrClosed = errors.New("ttyinput: closed")

// Config configures the serial device backing a Source.
type Config struct {
	Device string
	// BaudRate defaults to 115200 when zero.
	BaudRate int
	// PollTimeout bounds how long a single ReadLine poll waits for data
	// before returning StatusEAGAIN. Defaults to 0 (non-blocking poll).
	PollTimeout time.Duration
}

// Source is a motion.InputSource backed by a raw serial device. It buffers
// partial lines across calls so ReadLine never blocks the main dispatch
// loop waiting on a full line to arrive.
type Source struct {
	cfg        Config
	fd         int
	oldTermios *unix.Termios
	closed     bool

	buf    []byte
	pendng []byte // bytes read but not yet consumed into a complete line
}

// Open opens and configures the serial device named by cfg.Device.
func Open(cfg Config) (*Source, error) {
	if cfg.Device == "" {
		return nil, errors.New("ttyinput: device path required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("ttyinput: open %s: %w", cfg.Device, err)
	}

	oldTermios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ttyinput: get termios: %w", err)
	}

	termios := *oldTermios
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	setSpeed(&termios, baudToSpeed(cfg.BaudRate))
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ttyinput: set termios: %w", err)
	}

	return &Source{
		cfg:        cfg,
		fd:         fd,
		oldTermios: oldTermios,
		buf:        make([]byte, 256),
	}, nil
}

// ReadLine implements motion.InputSource. It polls the fd for available
// input, appends whatever arrived to the pending buffer, and returns the
// first complete newline-terminated line once one accumulates. Returns
// StatusEAGAIN with no data yet, StatusEOF once the device reports hangup.
func (s *Source) ReadLine() (string, motion.Status) {
	if s.closed {
		return "", motion.StatusEOF
	}

	if i := indexByte(s.pendng, '\n'); i >= 0 {
		line := string(s.pendng[:i])
		s.pendng = s.pendng[i+1:]
		return trimCR(line), motion.StatusOK
	}

	pfd := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, int(s.cfg.PollTimeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return "", motion.StatusEAGAIN
		}
		return "", motion.StatusEAGAIN
	}
	if n == 0 {
		return "", motion.StatusEAGAIN
	}
	if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return "", motion.StatusEOF
	}

	nread, err := unix.Read(s.fd, s.buf)
	if err != nil {
		return "", motion.StatusEAGAIN
	}
	if nread == 0 {
		return "", motion.StatusEOF
	}
	s.pendng = append(s.pendng, s.buf[:nread]...)

	if i := indexByte(s.pendng, '\n'); i >= 0 {
		line := string(s.pendng[:i])
		s.pendng = s.pendng[i+1:]
		return trimCR(line), motion.StatusOK
	}
	return "", motion.StatusEAGAIN
}

// Reset reopens the device after EOF, discarding any partial line.
func (s *Source) Reset() error {
	if !s.closed {
		s.closeFd()
	}
	fresh, err := Open(s.cfg)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Close restores the device's original termios settings and closes it.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closeFd()
	return nil
}

func (s *Source) closeFd() {
	if s.oldTermios != nil {
		_ = unix.IoctlSetTermios(s.fd, ioctlSetTermios, s.oldTermios)
	}
	unix.Close(s.fd)
	s.closed = true
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
