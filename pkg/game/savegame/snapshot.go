// Package savegame captures a grid into a versioned snapshot and writes it
// to disk.
package savegame

import (
	"fmt"
	"log/slog"

	"gridpower/pkg/engine/world"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/power"
	"gridpower/pkg/game/state"
	"gridpower/pkg/game/tuning"
)

// Version is the snapshot format written by Capture
const Version = 1

type Snapshot struct {
	Version    int               `json:"version"`
	Tick       uint64            `json:"tick"`
	Structures []StructureRecord `json:"structures"`
	Links      []LinkRecord      `json:"links"`
}

type StructureRecord struct {
	ID    string   `json:"id"`
	Type  string   `json:"type"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Flags []string `json:"flags,omitempty"`
	Bonus *float64 `json:"bonus,omitempty"` // nil means no output bonus
}

type LinkRecord struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Capture records the registry, link set and tick counter of g. The result of
// the last pass is not saved; it is recomputed on the first tick after restore.
func Capture(g *state.Game) Snapshot {
	bonuses := g.Bonuses()
	snap := Snapshot{
		Version:    Version,
		Tick:       g.Tick(),
		Structures: make([]StructureRecord, 0),
		Links:      make([]LinkRecord, 0),
	}
	for _, s := range g.Structures() {
		rec := StructureRecord{
			ID:   string(s.ID),
			Type: s.Type,
			X:    s.Pos.X,
			Y:    s.Pos.Y,
		}
		if mult, ok := bonuses[s.ID]; ok {
			rec.Bonus = &mult
		}
		for _, f := range s.Flags.List() {
			rec.Flags = append(rec.Flags, f.String())
		}
		snap.Structures = append(snap.Structures, rec)
	}
	for _, l := range g.Links() {
		snap.Links = append(snap.Links, LinkRecord{From: string(l.From), To: string(l.To)})
	}
	return snap
}

// Restore rebuilds a game from snap. Links naming structures the snapshot
// does not contain are dropped.
func Restore(snap Snapshot, t tuning.Tuning, logger *slog.Logger) (*state.Game, error) {
	if snap.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	g := state.NewGame(t)
	if logger != nil {
		g.Logger = logger
	}

	for _, rec := range snap.Structures {
		s := entities.NewStructure(entities.ID(rec.ID), rec.Type, world.Pt(rec.X, rec.Y))
		for _, name := range rec.Flags {
			f, err := entities.ParseFlag(name)
			if err != nil {
				return nil, fmt.Errorf("structure %s: %w", rec.ID, err)
			}
			s.Flags.Raise(f)
		}
		if err := g.Place(s); err != nil {
			return nil, err
		}
		if rec.Bonus != nil {
			if err := g.SetOutputBonus(s.ID, *rec.Bonus); err != nil {
				return nil, err
			}
		}
	}

	links := make([]power.Link, 0, len(snap.Links))
	for _, rec := range snap.Links {
		links = append(links, power.Link{From: entities.ID(rec.From), To: entities.ID(rec.To)})
	}
	g.RestoreLinks(links)
	g.SetTick(snap.Tick)

	return g, nil
}
