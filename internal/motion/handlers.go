package motion

import (
	"nccore/pkg/integrity"
)

// 1. Hard reset handler.
func handleHardReset(c *Controller) Status {
	if !c.State.HardResetRequested {
		return StatusNOOP
	}
	if c.Logger != nil {
		c.Logger.Warn("hard reset requested")
	}
	c.State.Run = StateShutdown
	c.State.HardResetRequested = false
	return StatusOK
}

// 2. Bootloader handler.
func handleBootloader(c *Controller) Status {
	if !c.State.BootloaderRequested {
		return StatusNOOP
	}
	if c.Logger != nil {
		c.Logger.Warn("bootloader jump requested")
	}
	c.State.BootloaderRequested = false
	return StatusOK
}

// 3. Shutdown idler — in ALARM or SHUTDOWN, blink the LED at the alarm
// rate and return EAGAIN so nothing below this in the list runs except the
// two reset/bootloader checks already made above. ALARM is included here
// (not just the terminal SHUTDOWN) so a hard alarm blocks command dispatch
// from the very next cycle onward, rather than only once escalated.
func handleShutdownIdler(c *Controller) Status {
	if c.State.Run != StateShutdown && c.State.Run != StateAlarm {
		return StatusNOOP
	}
	c.State.LEDCounter++
	return StatusEAGAIN
}

// 4. Limit switch handler — if tripped, raise a hard alarm with
// LIMIT_SWITCH_HIT. A NOOP-while-already-alarmed branch would be
// unreachable: handleShutdownIdler (priority 3) already EAGAINs and
// short-circuits the cycle once Run is ALARM or SHUTDOWN, so this handler
// only ever runs while Run is STARTUP or READY. See DESIGN.md's Open
// Question (b).
func handleLimitSwitch(c *Controller) Status {
	if !c.LimitSwitch.Triggered() {
		return StatusNOOP
	}
	c.alarm(AlarmLimitSwitchHit)
	return StatusEAGAIN
}

// 5. Feedhold sequencing (external).
func handleFeedholdSequence(c *Controller) Status {
	return c.Feedhold.FeedholdSequence()
}

// 6. Feedhold planning (external).
func handleFeedholdPlan(c *Controller) Status {
	return c.FeedholdPlan.FeedholdPlan()
}

// 7. System assertions / integrity monitor (§4.5). Verifies every
// registered sentinel pair; on the first failure, raises a hard alarm and
// returns immediately via integrity.Must's emergency-propagation pattern.
func handleIntegrityMonitor(c *Controller) Status {
	for _, p := range c.IntegrityPairs {
		if err := integrity.Must(c.Logger, p, c.alarmFromIntegrity); err != nil {
			return StatusEAGAIN
		}
	}
	return StatusOK
}

// 8. Stepper motor power (external).
func handleStepperPower(c *Controller) Status {
	return c.Stepper.UpdateStepperPower()
}

// 9. Status report (external).
func handleStatusReport(c *Controller) Status {
	return c.StatusRep.ReportStatus()
}

// 10. Queue report (external).
func handleQueueReport(c *Controller) Status {
	return c.QueueRep.ReportQueue()
}

// 11. Arc generator (external).
func handleArcGenerator(c *Controller) Status {
	return c.Arc.GenerateArc()
}

// 12. Homing (external).
func handleHoming(c *Controller) Status {
	return c.Homing.Home()
}

// 13. Jogging (external).
func handleJogging(c *Controller) Status {
	return c.Jogging.Jog()
}

// 14. Probe (external).
func handleProbe(c *Controller) Status {
	return c.Probe.Probe()
}

// 15. Sync-to-planner — backpressure upstream of the parser: EAGAIN when
// the planner's free-buffer count is below headroom.
func handleSyncToPlanner(c *Controller) Status {
	if c.Planner.FreeBufferCount() < c.PlannerHeadroom {
		return StatusEAGAIN
	}
	return StatusNOOP
}

// 16. Sync-to-TX — backpressure on the serial link: EAGAIN when TX
// occupancy has reached or exceeded the low-water threshold.
func handleSyncToTX(c *Controller) Status {
	if c.TX.TXOccupancy() >= c.TXLowWater {
		return StatusEAGAIN
	}
	return StatusNOOP
}

// 17. Baud-rate update (external).
func handleBaudUpdate(c *Controller) Status {
	return c.Baud.UpdateBaud()
}

// 18. Command dispatcher (§4.7), implemented in command.go.
func handleCommandDispatch(c *Controller) Status {
	return c.dispatchCommand()
}

// 19. Normal idler — slow-blink the status LED.
func handleNormalIdler(c *Controller) Status {
	c.State.LEDCounter++
	return StatusNOOP
}
