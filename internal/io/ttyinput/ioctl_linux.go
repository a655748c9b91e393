//go:build linux

package ttyinput

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS
)

func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = speed
	termios.Ospeed = speed
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
	case 250000:
		return 0x1003 // B250000, a common MCU UART rate not in unix's B-table
	default:
		return unix.B115200
	}
}
