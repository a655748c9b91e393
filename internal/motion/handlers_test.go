package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nccore/pkg/integrity"
)

func TestHandleHardResetConsumesRequestAndShutsDown(t *testing.T) {
	c := newTestController()
	c.State.HardResetRequested = true

	status := handleHardReset(c)

	assert.Equal(t, StatusOK, status)
	assert.Equal(t, StateShutdown, c.State.Run)
	assert.False(t, c.State.HardResetRequested)
}

func TestHandleHardResetNoopWhenNotRequested(t *testing.T) {
	c := newTestController()
	assert.Equal(t, StatusNOOP, handleHardReset(c))
}

func TestHandleBootloaderConsumesRequest(t *testing.T) {
	c := newTestController()
	c.State.BootloaderRequested = true

	status := handleBootloader(c)

	assert.Equal(t, StatusOK, status)
	assert.False(t, c.State.BootloaderRequested)
}

func TestHandleShutdownIdlerEagainsAndBlinks(t *testing.T) {
	c := newTestController()
	c.State.Run = StateShutdown
	before := c.State.LEDCounter

	assert.Equal(t, StatusEAGAIN, handleShutdownIdler(c))
	assert.Equal(t, before+1, c.State.LEDCounter)
}

func TestHandleShutdownIdlerNoopWhenNotShutdown(t *testing.T) {
	c := newTestController()
	assert.Equal(t, StatusNOOP, handleShutdownIdler(c))
}

func TestHandleLimitSwitchRaisesAlarmOnFirstTrip(t *testing.T) {
	c := newTestController()
	c.LimitSwitch = fakeLimitSwitch{triggered: true}

	assert.Equal(t, StatusEAGAIN, handleLimitSwitch(c))
	assert.Equal(t, StateAlarm, c.State.Run)
	assert.Equal(t, AlarmLimitSwitchHit, c.State.AlarmCode)
}

func TestHandleLimitSwitchNoopWhenNotTriggered(t *testing.T) {
	c := newTestController()
	assert.Equal(t, StatusNOOP, handleLimitSwitch(c))
}

func TestHandleIntegrityMonitorPassesWithNoPairs(t *testing.T) {
	c := newTestController()
	assert.Equal(t, StatusOK, handleIntegrityMonitor(c))
}

func TestHandleIntegrityMonitorEagainsOnCorruption(t *testing.T) {
	c := newTestController()
	pair := integrity.Pair{Owner: "test", Start: integrity.NewStart(), End: integrity.NewEnd()}
	// Corrupt the pair by replacing Start with a zero-value block.
	pair.Start = integrity.Block{}
	c.IntegrityPairs = []integrity.Pair{pair}

	assert.Equal(t, StatusEAGAIN, handleIntegrityMonitor(c))
	assert.Equal(t, StateAlarm, c.State.Run)
}

func TestHandleSyncToPlannerEagainsBelowHeadroom(t *testing.T) {
	c := newTestController()
	c.Planner = fakePlannerSync{free: 1}
	c.PlannerHeadroom = 2

	assert.Equal(t, StatusEAGAIN, handleSyncToPlanner(c))
}

func TestHandleSyncToPlannerNoopAtOrAboveHeadroom(t *testing.T) {
	c := newTestController()
	c.Planner = fakePlannerSync{free: 5}
	c.PlannerHeadroom = 2

	assert.Equal(t, StatusNOOP, handleSyncToPlanner(c))
}

func TestHandleSyncToTXEagainsAtOrAboveLowWater(t *testing.T) {
	c := newTestController()
	c.TX = fakeTXSync{occupancy: 10}
	c.TXLowWater = 10

	assert.Equal(t, StatusEAGAIN, handleSyncToTX(c))
}

func TestHandleSyncToTXNoopBelowLowWater(t *testing.T) {
	c := newTestController()
	c.TX = fakeTXSync{occupancy: 1}
	c.TXLowWater = 10

	assert.Equal(t, StatusNOOP, handleSyncToTX(c))
}

func TestHandleNormalIdlerBlinksAndNoops(t *testing.T) {
	c := newTestController()
	before := c.State.LEDCounter

	assert.Equal(t, StatusNOOP, handleNormalIdler(c))
	assert.Equal(t, before+1, c.State.LEDCounter)
}

type fakePlannerSync struct{ free int }

func (f fakePlannerSync) FreeBufferCount() int { return f.free }

type fakeTXSync struct{ occupancy int }

func (f fakeTXSync) TXOccupancy() int { return f.occupancy }
