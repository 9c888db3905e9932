// Package connect turns two sequential structure selections into a link.
//
// The controller only captures intent: it calls the board's link operations
// and never resolves networks itself. The next tick picks up the change.
package connect

import (
	"fmt"

	"gridpower/pkg/engine/world"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/power"
)

// Board is the link store and registry view the controller acts on
type Board interface {
	Exists(id entities.ID) bool
	Capable(id entities.ID) bool
	TryAddLink(u, v entities.ID) error
	RemoveLinkNear(p world.Point) bool
}

// State is either Idle or Pending
type State interface {
	name() string
}

// Idle waits for the first selection
type Idle struct{}

func (Idle) name() string { return "idle" }

// Pending holds the first selected structure until a second one arrives
type Pending struct {
	ID entities.ID
}

func (p Pending) name() string { return "pending(" + string(p.ID) + ")" }

// Outcome describes what a select or cancel action did
type Outcome int

const (
	OutcomeNone      Outcome = iota // nothing happened
	OutcomeSelected                 // first endpoint chosen
	OutcomeLinked                   // link created
	OutcomeRejected                 // selection or link attempt rejected
	OutcomeCancelled                // pending selection dropped
	OutcomeUnlinked                 // link removed near the cancel point
)

var outcomeNames = [...]string{"none", "selected", "linked", "rejected", "cancelled", "unlinked"}

// String returns the outcome's name
func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Event reports the effect of one action. Err is set for OutcomeRejected and
// wraps one of the power.Err* rejections.
type Event struct {
	Outcome Outcome
	From    entities.ID
	To      entities.ID
	Err     error
}

// Controller is the two-click link gesture state machine
type Controller struct {
	state State
}

// New creates a controller in the Idle state
func New() *Controller {
	return &Controller{state: Idle{}}
}

// State returns the current state
func (c *Controller) State() State {
	if c.state == nil {
		return Idle{}
	}
	return c.state
}

// String returns the current state's name
func (c *Controller) String() string {
	return c.State().name()
}

// Reset drops any pending selection
func (c *Controller) Reset() {
	c.state = Idle{}
}

// Select handles a primary select action. An empty id means empty space was
// selected.
func (c *Controller) Select(b Board, id entities.ID) Event {
	pending, ok := c.State().(Pending)
	if ok && !b.Exists(pending.ID) {
		// The first endpoint was demolished while we waited; start over.
		c.state = Idle{}
		ok = false
	}

	if !ok {
		return c.selectFirst(b, id)
	}

	if id == "" || id == pending.ID {
		return Event{Outcome: OutcomeNone, From: pending.ID}
	}

	// Success or failure, the gesture ends here.
	c.state = Idle{}
	if err := b.TryAddLink(pending.ID, id); err != nil {
		return Event{Outcome: OutcomeRejected, From: pending.ID, To: id, Err: err}
	}
	return Event{Outcome: OutcomeLinked, From: pending.ID, To: id}
}

func (c *Controller) selectFirst(b Board, id entities.ID) Event {
	if id == "" {
		return Event{Outcome: OutcomeNone}
	}
	if !b.Exists(id) {
		return Event{Outcome: OutcomeRejected, From: id, Err: fmt.Errorf("select %s: %w", id, power.ErrUnknownStructure)}
	}
	if !b.Capable(id) {
		return Event{Outcome: OutcomeRejected, From: id, Err: fmt.Errorf("select %s: %w", id, power.ErrIncapableEndpoint)}
	}
	c.state = Pending{ID: id}
	return Event{Outcome: OutcomeSelected, From: id}
}

// Cancel handles a secondary action at p. A pending selection is dropped
// without touching links; otherwise the link nearest p (if any) is removed.
func (c *Controller) Cancel(b Board, p world.Point) Event {
	if pending, ok := c.State().(Pending); ok {
		c.state = Idle{}
		return Event{Outcome: OutcomeCancelled, From: pending.ID}
	}
	if b.RemoveLinkNear(p) {
		return Event{Outcome: OutcomeUnlinked}
	}
	return Event{Outcome: OutcomeNone}
}
