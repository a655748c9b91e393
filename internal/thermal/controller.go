package thermal

import (
	"nccore/pkg/integrity"
	"nccore/pkg/log"

	"nccore/internal/thermal/hwio"
)

// Status mirrors the transient status family shared across this system's
// dispatchers, limited to OK and NOOP. EAGAIN has no meaning here since the
// thermal mini-HSM has no backpressure producer to short-circuit for.
type Status int

const (
	StatusOK Status = iota
	StatusNOOP
)

// Channel bundles one heater/sensor/PID/PWM/ADC set under a name, so a
// process can regulate more than one heater (bed, hotend, chamber) from a
// single Controller.
type Channel struct {
	Name   string
	Heater *Heater
	Sensor *Sensor
	PID    *PID
	PWM    hwio.PWM
	ADC    hwio.ADC
	ADCCh  int
}

// Controller is the thermal mini-HSM: a process-wide owner of every
// heater/sensor/PID/device state block, driven by the same tick source as
// the motion controller but through its own short dispatch list (sample on
// 10ms, supervise on 100ms).
type Controller struct {
	Device *Device

	channels []*Channel

	logger *log.Logger

	alarmed bool
	onAlarm func(err error)
}

// New constructs a Controller with no channels; call AddChannel for each
// heater before starting the tick source.
func New(logger *log.Logger) *Controller {
	return &Controller{
		Device: &Device{Start: integrity.NewStart(), End: integrity.NewEnd()},
		logger: logger,
	}
}

// AddChannel registers a heater/sensor/PID/PWM/ADC set under name.
func (c *Controller) AddChannel(ch *Channel) {
	c.channels = append(c.channels, ch)
}

// SetAlarmFunc installs the callback invoked when an integrity check fails.
func (c *Controller) SetAlarmFunc(f func(err error)) {
	c.onAlarm = f
}

// Tick10ms runs the sensor sampling pass across every channel. Must run
// before Tick100ms within the same tick window (the tick.Source cascade
// guarantees this).
func (c *Controller) Tick10ms() Status {
	if c.alarmed {
		return StatusNOOP
	}
	for _, ch := range c.channels {
		if err := ch.Sensor.Sample(ch.ADC, ch.ADCCh); err != nil {
			c.logger.WithFields(log.Fields{"channel": ch.Name}).WithError(err).Warn("sensor sample failed")
		}
	}
	return StatusOK
}

// Tick100ms runs the integrity check and then the heater supervisor pass
// across every channel.
func (c *Controller) Tick100ms() Status {
	if c.alarmed {
		return StatusNOOP
	}
	if err := c.checkIntegrity(); err != nil {
		return StatusNOOP
	}
	for _, ch := range c.channels {
		ch.Heater.Tick(0.1)
	}
	return StatusOK
}

func (c *Controller) checkIntegrity() error {
	pairs := []integrity.Pair{{Owner: "thermal.Device", Start: c.Device.Start, End: c.Device.End}}
	for _, ch := range c.channels {
		pairs = append(pairs,
			integrity.Pair{Owner: "thermal.Heater." + ch.Name, Start: ch.Heater.Start, End: ch.Heater.End},
			integrity.Pair{Owner: "thermal.Sensor." + ch.Name, Start: ch.Sensor.Start, End: ch.Sensor.End},
			integrity.Pair{Owner: "thermal.PID." + ch.Name, Start: ch.PID.Start, End: ch.PID.End},
		)
	}
	for _, p := range pairs {
		if err := integrity.Must(c.logger, p, c.alarm); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) alarm(err error) {
	c.alarmed = true
	if c.onAlarm != nil {
		c.onAlarm(err)
	}
}

// Channel looks up a registered channel by name.
func (c *Controller) Channel(name string) *Channel {
	for _, ch := range c.channels {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

// Alarmed reports whether an integrity fault has latched the controller.
func (c *Controller) Alarmed() bool { return c.alarmed }
