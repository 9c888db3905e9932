package devtools

import (
	"gridpower/pkg/engine/world"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/state"
)

// SeedDevGrid fills g with a hard-coded testing layout. Each row is one
// network:
//
//	row 0: a generator and a solar panel feeding a habitat through a pylon (powered)
//	row 3: two generators against three habitats (short of power)
//	row 6: a lone habitat (no generation, excluded from the display)
//	row 9: an offline reactor linked to a refinery (generation disabled)
//
// It returns the IDs it placed, in placement order.
func SeedDevGrid(g *state.Game) []entities.ID {
	const margin = 3
	var placed []entities.ID

	row := func(y float64, types ...string) []entities.ID {
		ids := make([]entities.ID, 0, len(types))
		for i, typeTag := range types {
			id, err := g.Build(typeTag, world.Pt(float64(i*(margin+1)), y))
			if err != nil {
				g.Logger.Warn("dev grid build failed", "type", typeTag, "error", err)
				continue
			}
			ids = append(ids, id)
		}
		placed = append(placed, ids...)
		return ids
	}
	chain := func(ids []entities.ID) {
		for i := 1; i < len(ids); i++ {
			if err := g.TryAddLink(ids[i-1], ids[i]); err != nil {
				g.Logger.Warn("dev grid link failed", "from", ids[i-1], "to", ids[i], "error", err)
			}
		}
	}

	chain(row(0, "generator", "pylon", "habitat"))
	first := placed[0]
	extra := row(1, "solar_panel")
	if err := g.TryAddLink(first, extra[0]); err != nil {
		g.Logger.Warn("dev grid link failed", "error", err)
	}

	chain(row(margin, "generator", "habitat", "generator", "habitat", "habitat"))

	row(2*margin, "habitat")

	reactor := row(3*margin, "reactor", "refinery")
	chain(reactor)
	if len(reactor) > 0 {
		if err := g.SetFlag(reactor[0], entities.FlagOffline, true); err != nil {
			g.Logger.Warn("dev grid flag failed", "error", err)
		}
	}

	return placed
}
