package power

import (
	"sync"

	"companion-mcu/types"
)

// PMIC abstracts the power-management IC enable line the Controller
// drives on sleep/shutdown, isolated behind an interface the same way
// the display FSM isolates its SPI/Mux lines.
type PMIC interface {
	SetEnable(on bool)
}

// Controller owns the companion's coarse power lifecycle (AWAKE,
// SLEEPING, SHUTTING_DOWN), driven by POWER set_state/sleep/shutdown
// packets from the Router. It never blocks: disabling the PMIC enable
// line is a single GPIO write, so unlike the sensor reads in Reporter
// this runs inline on whatever priority the Router schedules it at.
type Controller struct {
	pmic PMIC

	mu    sync.Mutex
	state types.PowerState
}

// NewController returns a Controller in PowerAwake, driving pmic's
// enable line high.
func NewController(pmic PMIC) *Controller {
	c := &Controller{pmic: pmic, state: types.PowerAwake}
	if pmic != nil {
		pmic.SetEnable(true)
	}
	return c
}

// State returns the current power lifecycle state.
func (c *Controller) State() types.PowerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState forces the lifecycle to an explicit state (POWER
// sub=set_state, data0=desired state), returning the resulting state
// for the Router's status ack.
func (c *Controller) SetState(desired types.PowerState) types.PowerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(desired)
	return c.state
}

// Sleep transitions to SLEEPING: the PMIC enable line stays high (the
// fuel gauge and button inputs must keep working to wake the device),
// only the display/LED-driving rails are expected to be cut by
// higher-level policy outside this controller's scope.
func (c *Controller) Sleep() types.PowerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(types.PowerSleeping)
	return c.state
}

// Shutdown transitions to SHUTTING_DOWN and drives the PMIC enable
// line low, cutting power to the rest of the board. This state is
// terminal for the session: nothing in this protocol version re-enables
// the PMIC once shutdown has been requested.
func (c *Controller) Shutdown() types.PowerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(types.PowerShuttingDown)
	return c.state
}

func (c *Controller) applyLocked(desired types.PowerState) {
	c.state = desired
	if c.pmic == nil {
		return
	}
	c.pmic.SetEnable(desired != types.PowerShuttingDown)
}
