// Package devtools provides developer tools for testing and debugging.
package devtools

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/state"
)

const gridDumpFilename = "grid.txt"

// DumpNetworks writes a debug report of the last resolve pass: metadata,
// every structure, every network with its totals, and the link list.
// Format is human- and LLM-readable (sections, key: value, consistent structure).
func DumpNetworks(w io.Writer, g *state.Game) error {
	res := g.Result()
	d := res.Display()

	p := &dumpWriter{w: w}

	// --- Metadata ---
	p.line("=== GRID DUMP DEBUG (structures, networks, links) ===")
	p.line("")
	p.line("--- Metadata ---")
	p.printf("tick: %d\n", g.Tick())
	p.printf("structures: %d\n", len(g.Structures()))
	p.printf("links: %d\n", len(g.Links()))
	p.printf("networks: %d\n", len(res.Networks))
	p.printf("powered: %d\n", res.PoweredCount())
	p.printf("display_capacity: %g\n", d.Capacity)
	p.printf("display_consumption: %g\n", d.Consumption)
	p.printf("consumption_multiplier: %g\n", g.Tuning.ConsumptionMultiplier)
	p.printf("max_degree: %d\n", g.Tuning.MaxDegree)
	p.printf("pending_selection: %s\n", g.Controller)
	p.line("")

	// --- Structures ---
	p.line("--- Structures (registry order) ---")
	for _, s := range g.Structures() {
		c, known := entities.Lookup(g.Caps, s)
		p.printf("  id: %s type: %q pos: %s generates: %g consumes: %g known_type: %v flags: %v degree: %d powered: %v\n",
			s.ID, s.Type, s.Pos, c.Generates, c.Consumes, known, s.Flags.List(), g.DegreeOf(s.ID), g.HasPower(s.ID))
	}
	p.line("")

	// --- Networks ---
	p.line("--- Networks (discovery order) ---")
	for i, n := range res.Networks {
		p.printf("Network %d:\n", i)
		p.printf("  members: %d\n", n.MemberCount())
		p.printf("  total_gen: %g\n", n.TotalGen)
		p.printf("  total_cons: %g\n", n.TotalCons)
		p.printf("  required: %g\n", res.Required(i))
		p.printf("  powered: %v\n", res.NetworkPowered(i))
		p.printf("  in_display: %v\n", n.TotalGen > 0)
		for _, id := range n.Members {
			p.printf("    - %s\n", id)
		}
	}
	p.line("")

	// --- Links ---
	p.line("--- Links (insertion order) ---")
	for _, l := range g.Links() {
		p.printf("  %s <-> %s\n", l.From, l.To)
	}
	if len(res.Pruned) > 0 {
		p.line("")
		p.line("--- Pruned on last tick ---")
		for _, l := range res.Pruned {
			p.printf("  %s <-> %s\n", l.From, l.To)
		}
	}

	return p.err
}

// DumpNetworksToFile writes the network dump to grid.txt in the working
// directory and returns its absolute path.
func DumpNetworksToFile(g *state.Game) (string, error) {
	absPath, err := filepath.Abs(gridDumpFilename)
	if err != nil {
		return "", err
	}

	f, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	if err := DumpNetworks(f, g); err != nil {
		f.Close()
		return "", err
	}
	return absPath, f.Close()
}

// dumpWriter remembers the first write error so the report reads linearly
type dumpWriter struct {
	w   io.Writer
	err error
}

func (p *dumpWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *dumpWriter) line(s string) {
	p.printf("%s\n", s)
}
