// Package integrity implements the sentinel/magic-number memory-integrity
// check embedded in every long-lived controller state block, plus the
// emergency-propagation helper that raises a hard alarm when a check fails.
package integrity

import (
	"nccore/pkg/log"
	"nccore/pkg/ncerr"
)

const (
	magicStart uint32 = 0x4e43424f // "NCBO" — begin-of-block
	magicEnd   uint32 = 0x4e434f4b // "NCOK" — end-of-block
)

// Block is embedded as the first and last field of every state struct that
// must survive for the lifetime of the process (motion.State and
// thermal.Heater, Sensor, PID, Device). The two fields are never written
// after NewStart/NewEnd; a mismatch on either end means something wrote
// past the struct's bounds or reused its memory.
type Block struct {
	magic uint32
}

// NewStart returns a Block initialized for use as a struct's first field.
func NewStart() Block { return Block{magic: magicStart} }

// NewEnd returns a Block initialized for use as a struct's last field.
func NewEnd() Block { return Block{magic: magicEnd} }

func (b Block) validStart() bool { return b.magic == magicStart }
func (b Block) validEnd() bool   { return b.magic == magicEnd }

// Pair names the owning struct's start and end sentinels for Verify.
type Pair struct {
	Owner string
	Start Block
	End   Block
}

// Verify checks both ends of p and returns a CodeIntegrity error naming the
// owner and the corrupted end if either sentinel has been overwritten.
func Verify(p Pair) error {
	switch {
	case !p.Start.validStart() && !p.End.validEnd():
		return ncerr.Newf(ncerr.CodeIntegrity, "%s: start and end sentinels both corrupted", p.Owner)
	case !p.Start.validStart():
		return ncerr.Newf(ncerr.CodeIntegrity, "%s: start sentinel corrupted", p.Owner)
	case !p.End.validEnd():
		return ncerr.Newf(ncerr.CodeIntegrity, "%s: end sentinel corrupted", p.Owner)
	default:
		return nil
	}
}

// AlarmFunc latches the caller's controller into a hard alarm state. Each
// controller supplies its own (motion.Controller.alarmFromIntegrity,
// thermal.Controller.alarm).
type AlarmFunc func(err error)

// Must verifies p; on failure it logs at ERROR, invokes alarm, and returns
// the error so the caller's dispatch loop can short-circuit the current
// cycle. The alarm call is expected to never itself panic, but Must does
// not assume that — a panic inside alarm would otherwise take down the
// whole process on what should be a contained fault.
func Must(logger *log.Logger, p Pair, alarm AlarmFunc) (err error) {
	err = Verify(p)
	if err == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.WithFields(log.Fields{"owner": p.Owner, "panic": r}).Error("integrity: alarm handler panicked")
			}
		}
	}()
	if logger != nil {
		logger.WithFields(log.Fields{"owner": p.Owner}).WithError(err).Error("integrity violation")
	}
	if alarm != nil {
		alarm(err)
	}
	return err
}
