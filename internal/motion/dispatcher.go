package motion

import (
	"nccore/pkg/integrity"
	"nccore/pkg/log"

	"nccore/internal/tick"
)

// Handler is one entry in the fixed priority list. It receives the
// Controller and returns a Status; EAGAIN short-circuits the dispatch
// cycle.
type Handler func(c *Controller) Status

// defaultTXLowWater is the stock low-water mark for the sync-to-TX
// backpressure handler: with no real TX-occupancy collaborator wired in
// (the zero-occupancy noopTXSync), a low default of 0 would EAGAIN on
// every cycle and never let the command dispatcher run. Chosen high
// enough that a real transport's occupancy count has to actually climb
// before backpressure kicks in.
const defaultTXLowWater = 128

// Controller owns the motion controller's state and every external
// collaborator it dispatches to. Constructed once at process startup by
// cmd/nc-control and passed by pointer into every handler call — there are
// no package-level globals.
type Controller struct {
	State *State

	Tick *tick.Source

	Primary   InputSource
	Secondary InputSource

	TextParser  TextParser
	JSONParser  JSONParser
	GCodeParser GCodeParser

	Feedhold     FeedholdSequencer
	FeedholdPlan FeedholdPlanner
	CycleStart   CycleStarter
	Stepper      StepperPower
	StatusRep    StatusReporter
	QueueRep     QueueReporter
	QueueFlush   QueueFlusher
	Arc          ArcGenerator
	Homing       HomingHandler
	Jogging      JoggingHandler
	Probe        ProbeHandler
	Baud         BaudUpdater
	Planner      PlannerSync
	TX           TXSync
	LimitSwitch  LimitSwitchReader

	PlannerHeadroom int
	TXLowWater      int

	// IntegrityPairs is populated by the owner (cmd/nc-control) with the
	// sentinel pairs the integrity monitor handler (§4.5) verifies each
	// cycle. cmd/nc-control registers the motion state block here; the
	// thermal state blocks are checked by thermal.Controller itself.
	IntegrityPairs []integrity.Pair

	Logger *log.Logger

	handlers []Handler

	respWriter func(string)
	tickFlag   bool
}

// New constructs a Controller with every external collaborator defaulted
// to a no-op implementation, and builds the fixed priority list once.
// Callers override the fields they have real backends for before calling
// Run.
func New(state *State, logger *log.Logger) *Controller {
	c := &Controller{
		State:           state,
		Feedhold:        noopFeedhold{},
		FeedholdPlan:    noopFeedhold{},
		CycleStart:      noopFeedhold{},
		Stepper:         noopStepperPower{},
		StatusRep:       noopReporter{},
		QueueRep:        noopReporter{},
		QueueFlush:      noopReporter{},
		Arc:             noopMotionFeatures{},
		Homing:          noopMotionFeatures{},
		Jogging:         noopMotionFeatures{},
		Probe:           noopMotionFeatures{},
		Baud:            noopBaudUpdater{},
		Planner:         noopPlannerSync{headroom: 1 << 30},
		TX:              noopTXSync{},
		LimitSwitch:     noLimitSwitch{},
		PlannerHeadroom: 2,
		TXLowWater:      defaultTXLowWater,
		Logger:          logger,
		respWriter:      func(string) {},
	}
	c.handlers = buildPriorityList()
	return c
}

// SetResponseWriter installs the sink the command dispatcher writes
// formatted text/JSON responses to (normally the primary input source's
// underlying writer).
func (c *Controller) SetResponseWriter(w func(string)) {
	c.respWriter = w
}

// RunOnce executes exactly one dispatch cycle: first the tick cascade (the
// main-loop half of the ISR-set-flag pattern), then the fixed priority
// list top to bottom, short-circuiting on the first EAGAIN. Returns the
// status of whichever handler short-circuited, or the last handler's
// status if none did.
func (c *Controller) RunOnce() Status {
	if c.Tick != nil {
		c.Tick.Dispatch()
	}
	last := StatusNOOP
	for _, h := range c.handlers {
		status := h(c)
		last = status
		if status == StatusEAGAIN {
			return StatusEAGAIN
		}
	}
	return last
}

// Run calls RunOnce forever. Intended for cmd/nc-control's main loop;
// tests call RunOnce directly for fine-grained control.
func (c *Controller) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
			c.RunOnce()
		}
	}
}

// buildPriorityList returns the fixed, priority-ordered handler list.
// Built once; never mutated at runtime.
func buildPriorityList() []Handler {
	return []Handler{
		handleHardReset,
		handleBootloader,
		handleShutdownIdler,
		handleLimitSwitch,
		handleFeedholdSequence,
		handleFeedholdPlan,
		handleIntegrityMonitor,
		handleStepperPower,
		handleStatusReport,
		handleQueueReport,
		handleArcGenerator,
		handleHoming,
		handleJogging,
		handleProbe,
		handleSyncToPlanner,
		handleSyncToTX,
		handleBaudUpdate,
		handleCommandDispatch,
		handleNormalIdler,
	}
}

// alarm latches the controller into ALARM (or SHUTDOWN if already in
// ALARM) and records code. Called by the limit-switch handler and by the
// integrity monitor via integrity.Must.
func (c *Controller) alarm(code AlarmCode) {
	if c.State.Run == StateAlarm {
		c.State.Run = StateShutdown
	} else {
		c.State.Run = StateAlarm
	}
	c.State.AlarmCode = code
	if c.Logger != nil {
		c.Logger.WithFields(log.Fields{"code": code.String(), "run_state": c.State.Run.String()}).Error("alarm raised")
	}
}

// alarmFromIntegrity adapts alarm to integrity.AlarmFunc's error-based
// signature.
func (c *Controller) alarmFromIntegrity(err error) {
	_ = err
	c.alarm(AlarmIntegrityFailure)
}
