//go:build darwin

package ttyinput

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = uint64(speed)
	termios.Ospeed = uint64(speed)
}

func baudToSpeed(baud int) uint32 {
	switch baud {
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 230400:
		return unix.B230400
	default:
		return unix.B115200
	}
}
