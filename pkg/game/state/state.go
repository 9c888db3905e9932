package state

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/leonelquinteros/gotext"

	"gridpower/pkg/engine/world"
	"gridpower/pkg/game/connect"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/locale"
	"gridpower/pkg/game/power"
	"gridpower/pkg/game/tuning"
)

// Game is the power grid's state: the structure registry, the link set and
// the result of the last tick. Everything is passed around explicitly; there
// is no package-level registry.
type Game struct {
	Tuning tuning.Tuning
	Caps   entities.Capabilities
	Logger *slog.Logger

	Controller *connect.Controller

	Messages []string

	// ShortageWarned is set once the player has been told a network is
	// short of power, and cleared when every generating network is satisfied.
	ShortageWarned bool

	structures []entities.Structure // registry order
	links      []power.Link
	bonus      map[entities.ID]float64
	result     power.Result
	tick       uint64
}

// NewGame creates an empty grid using t for balance and capabilities
func NewGame(t tuning.Tuning) *Game {
	return &Game{
		Tuning:     t,
		Caps:       t.Catalog(),
		Logger:     slog.Default(),
		Controller: connect.New(),
		Messages:   make([]string, 0),
		bonus:      make(map[entities.ID]float64),
		result:     power.EmptyResult(),
	}
}

// AddMessage adds a message to the game's message log
func (g *Game) AddMessage(msg string) {
	maxMessages := g.Tuning.MessageLogSize
	if maxMessages < 1 {
		maxMessages = 5
	}
	g.Messages = append(g.Messages, msg)

	// Keep only the last maxMessages
	if len(g.Messages) > maxMessages {
		g.Messages = g.Messages[len(g.Messages)-maxMessages:]
	}
}

// ClearMessages clears all messages
func (g *Game) ClearMessages() {
	g.Messages = make([]string, 0)
}

// Tick returns the number of completed resolve passes
func (g *Game) Tick() uint64 {
	return g.tick
}

// SetTick restores the tick counter (used when loading a save)
func (g *Game) SetTick(tick uint64) {
	g.tick = tick
}

func (g *Game) indexOf(id entities.ID) int {
	for i, s := range g.structures {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Build places a new structure of the given type and returns its ID.
// Unknown types are accepted; they contribute nothing until defined.
func (g *Game) Build(typeTag string, pos world.Point) (entities.ID, error) {
	id := entities.NewID()
	if err := g.Place(entities.NewStructure(id, typeTag, pos)); err != nil {
		return "", err
	}
	return id, nil
}

// Place inserts a structure with a known ID at the end of the registry
func (g *Game) Place(s entities.Structure) error {
	if s.ID == "" {
		return fmt.Errorf("place %s: empty id", s.Type)
	}
	if g.indexOf(s.ID) >= 0 {
		return fmt.Errorf("place %s: duplicate id %s", s.Type, s.ID)
	}
	if _, ok := g.Caps.Capability(s.Type); !ok {
		g.Logger.Warn("placed structure with no capability definition", "id", s.ID, "type", s.Type)
	}
	g.structures = append(g.structures, s.Clone())
	return nil
}

// Demolish removes a structure. Its links go stale and are pruned on the
// next Step.
func (g *Game) Demolish(id entities.ID) bool {
	i := g.indexOf(id)
	if i < 0 {
		return false
	}
	g.structures = append(g.structures[:i:i], g.structures[i+1:]...)
	delete(g.bonus, id)
	return true
}

// Structure returns a copy of the structure with the given ID
func (g *Game) Structure(id entities.ID) (entities.Structure, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return entities.Structure{}, false
	}
	return g.structures[i].Clone(), true
}

// Structures returns a copy of the registry in registry order
func (g *Game) Structures() []entities.Structure {
	out := make([]entities.Structure, len(g.structures))
	for i, s := range g.structures {
		out[i] = s.Clone()
	}
	return out
}

// FindByPrefix resolves a full or abbreviated structure ID. The prefix must
// match exactly one structure.
func (g *Game) FindByPrefix(prefix string) (entities.ID, error) {
	if prefix == "" {
		return "", fmt.Errorf("empty id: %w", power.ErrUnknownStructure)
	}
	var match entities.ID
	n := 0
	for _, s := range g.structures {
		if s.ID == entities.ID(prefix) {
			return s.ID, nil
		}
		if strings.HasPrefix(string(s.ID), prefix) {
			match = s.ID
			n++
		}
	}
	switch n {
	case 0:
		return "", fmt.Errorf("%s: %w", prefix, power.ErrUnknownStructure)
	case 1:
		return match, nil
	default:
		return "", fmt.Errorf("%s: ambiguous, matches %d structures", prefix, n)
	}
}

// PositionOf returns a structure's world position
func (g *Game) PositionOf(id entities.ID) (world.Point, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return world.Point{}, false
	}
	return g.structures[i].Pos, true
}

// StructureAt returns the structure nearest p within the select radius.
// Ties go to the earlier structure in registry order.
func (g *Game) StructureAt(p world.Point) (entities.ID, bool) {
	var best entities.ID
	bestDist := g.Tuning.SelectRadius
	found := false
	for _, s := range g.structures {
		d := world.Distance(p, s.Pos)
		if d <= bestDist && (!found || d < bestDist) {
			best, bestDist, found = s.ID, d, true
		}
	}
	return best, found
}

// SetFlag raises or clears an operational flag on a structure
func (g *Game) SetFlag(id entities.ID, f entities.Flag, on bool) error {
	i := g.indexOf(id)
	if i < 0 {
		return fmt.Errorf("set flag %s on %s: %w", f, id, power.ErrUnknownStructure)
	}
	if !on {
		g.structures[i].Flags.Clear(f)
		return nil
	}
	if !g.structures[i].Flags.Raise(f) {
		return fmt.Errorf("set flag on %s: undefined flag %d", id, int(f))
	}
	return nil
}

// SetOutputBonus sets an external generation multiplier for a structure
// (e.g. a staffing bonus). A multiplier of 1 removes the bonus.
func (g *Game) SetOutputBonus(id entities.ID, mult float64) error {
	if g.indexOf(id) < 0 {
		return fmt.Errorf("set bonus on %s: %w", id, power.ErrUnknownStructure)
	}
	if math.IsNaN(mult) || math.IsInf(mult, 0) {
		return fmt.Errorf("set bonus on %s: multiplier %g is not finite", id, mult)
	}
	if mult < 0 {
		return fmt.Errorf("set bonus on %s: negative multiplier %g", id, mult)
	}
	if mult == 1 {
		delete(g.bonus, id)
		return nil
	}
	g.bonus[id] = mult
	return nil
}

// OutputBonus implements power.OutputMultiplier over the stored bonuses
func (g *Game) OutputBonus(s entities.Structure) float64 {
	if mult, ok := g.bonus[s.ID]; ok {
		return mult
	}
	return 1
}

// Bonuses returns a copy of the stored output bonuses
func (g *Game) Bonuses() map[entities.ID]float64 {
	out := make(map[entities.ID]float64, len(g.bonus))
	for id, mult := range g.bonus {
		out[id] = mult
	}
	return out
}

// Links returns a copy of the link set in insertion order
func (g *Game) Links() []power.Link {
	return append([]power.Link(nil), g.links...)
}

// RestoreLinks replaces the link set wholesale, as when loading a save.
// Stale pairs are pruned, then the rest are replayed in order through the
// same checks as a player link; any pair those reject is dropped.
func (g *Game) RestoreLinks(links []power.Link) {
	live, pruned := power.Prune(g.structures, links)
	for _, l := range pruned {
		g.Logger.Info("stale link dropped on restore", "from", l.From, "to", l.To)
	}

	kept := make([]power.Link, 0, len(live))
	for _, l := range live {
		next, err := power.TryAddLink(kept, g.structures, g.Caps, l.From, l.To, g.Tuning.MaxDegree)
		if err != nil {
			g.Logger.Info("invalid link dropped on restore", "from", l.From, "to", l.To, "error", err)
			continue
		}
		kept = next
	}
	g.links = kept
}

// Exists implements connect.Board
func (g *Game) Exists(id entities.ID) bool {
	return g.indexOf(id) >= 0
}

// Capable implements connect.Board: the structure generates or consumes power
func (g *Game) Capable(id entities.ID) bool {
	i := g.indexOf(id)
	if i < 0 {
		return false
	}
	c, _ := entities.Lookup(g.Caps, g.structures[i])
	return c.Powered()
}

// TryAddLink validates and adds a link between u and v
func (g *Game) TryAddLink(u, v entities.ID) error {
	links, err := power.TryAddLink(g.links, g.structures, g.Caps, u, v, g.Tuning.MaxDegree)
	if err != nil {
		return err
	}
	g.links = links
	return nil
}

// RemoveLinkNear removes the first link within the unlink threshold of p
func (g *Game) RemoveLinkNear(p world.Point) bool {
	links, removed := power.RemoveLinkNear(g.links, p, g.PositionOf, g.Tuning.UnlinkThreshold)
	if removed {
		g.links = links
	}
	return removed
}

// DegreeOf returns the number of links touching id
func (g *Game) DegreeOf(id entities.ID) int {
	return power.DegreeOf(g.links, id)
}

// Select feeds a primary selection of a structure (or "" for empty space)
// to the connection controller and reports rejections in the message log.
func (g *Game) Select(id entities.ID) connect.Event {
	ev := g.Controller.Select(g, id)
	g.report(ev)
	return ev
}

// SelectAt selects whatever structure is under p
func (g *Game) SelectAt(p world.Point) connect.Event {
	id, _ := g.StructureAt(p)
	return g.Select(id)
}

// Cancel feeds a secondary action at p to the connection controller
func (g *Game) Cancel(p world.Point) connect.Event {
	ev := g.Controller.Cancel(g, p)
	g.report(ev)
	return ev
}

func (g *Game) report(ev connect.Event) {
	switch ev.Outcome {
	case connect.OutcomeRejected:
		g.AddMessage(power.Notice(ev.Err))
	case connect.OutcomeLinked:
		g.AddMessage(gotext.Get("LINK_CREATED"))
	case connect.OutcomeUnlinked:
		g.AddMessage(gotext.Get("LINK_REMOVED"))
	}
}

// Step runs one resolve pass (prune, partition, allocate) over a snapshot of
// the registry and link set, then publishes the result.
func (g *Game) Step() power.Result {
	cfg := power.Config{
		Caps:                  g.Caps,
		OutputMultiplier:      g.OutputBonus,
		ConsumptionMultiplier: g.Tuning.ConsumptionMultiplier,
		Logger:                g.Logger,
	}
	res, kept := power.Run(cfg, g.Structures(), g.Links())

	g.links = kept
	g.result = res
	g.tick++

	g.updateShortageWarning()
	g.Logger.Debug("grid resolved",
		"tick", g.tick,
		"networks", len(res.Networks),
		"powered", res.PoweredCount(),
		"capacity", res.Display().Capacity,
		"consumption", res.Display().Consumption,
	)
	return res
}

// updateShortageWarning tells the player once when a generating network
// cannot cover its demand
func (g *Game) updateShortageWarning() {
	short := 0
	for i, n := range g.result.Networks {
		if n.TotalGen > 0 && !g.result.NetworkPowered(i) {
			short++
		}
	}
	if short > 0 && !g.ShortageWarned {
		d := g.result.Display()
		g.AddMessage(locale.T("POWER_SHORTAGE", short, int(d.Consumption), int(d.Capacity)))
		g.ShortageWarned = true
	} else if short == 0 {
		g.ShortageWarned = false
	}
}

// Result returns the last tick's resolve result
func (g *Game) Result() power.Result {
	return g.result
}

// HasPower returns true if the structure was powered on the last tick
func (g *Game) HasPower(id entities.ID) bool {
	return g.result.HasPower(id)
}

// NetworkStatsFor returns the last tick's aggregates for id's network
func (g *Game) NetworkStatsFor(id entities.ID) (power.NetworkStats, bool) {
	return g.result.NetworkStatsFor(id)
}

// Display returns the last tick's UI totals
func (g *Game) Display() power.Display {
	return g.result.Display()
}

// Networks returns the networks found on the last tick
func (g *Game) Networks() []power.Network {
	return g.result.Networks
}
