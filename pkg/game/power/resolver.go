package power

import (
	"log/slog"

	"github.com/zyedidia/generic/mapset"

	"gridpower/pkg/game/entities"
)

// OutputMultiplier scales a structure's generation (e.g. a staffing bonus).
// It is applied only to generation, never to consumption.
type OutputMultiplier func(s entities.Structure) float64

// NoBonus is an OutputMultiplier that leaves generation unscaled
func NoBonus(entities.Structure) float64 {
	return 1
}

// Network is a maximal set of structures connected through links
type Network struct {
	Members   []entities.ID // BFS order from the first member in registry order
	TotalGen  float64
	TotalCons float64
}

// MemberCount returns the number of structures in the network
func (n Network) MemberCount() int {
	return len(n.Members)
}

// Resolver partitions structures into networks and aggregates their totals
type Resolver struct {
	Caps       entities.Capabilities
	Multiplier OutputMultiplier // nil means NoBonus
	Logger     *slog.Logger     // nil means slog.Default()
}

func (r Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// buildAdjacency creates an id-keyed neighbour index. Each link contributes
// both directions; links to ids outside known are ignored.
func buildAdjacency(links []Link, known mapset.Set[entities.ID]) map[entities.ID][]entities.ID {
	adj := make(map[entities.ID][]entities.ID)
	for _, l := range links {
		if !known.Has(l.From) || !known.Has(l.To) {
			continue
		}
		adj[l.From] = append(adj[l.From], l.To)
		adj[l.To] = append(adj[l.To], l.From)
	}
	return adj
}

// Resolve partitions structures into networks. Structures are visited in
// slice order, so the network order is deterministic; the partition itself
// does not depend on that order. Every structure lands in exactly one network.
func (r Resolver) Resolve(structures []entities.Structure, links []Link) []Network {
	byID := make(map[entities.ID]entities.Structure, len(structures))
	known := mapset.New[entities.ID]()
	for _, s := range structures {
		if known.Has(s.ID) {
			// Duplicate ids would break the partition; the first entry wins.
			r.logger().Warn("duplicate structure id in resolve input", "id", s.ID)
			continue
		}
		known.Put(s.ID)
		byID[s.ID] = s
	}

	adj := buildAdjacency(links, known)
	visited := mapset.New[entities.ID]()
	missing := mapset.New[string]()
	var networks []Network

	for _, start := range structures {
		if visited.Has(start.ID) {
			continue
		}

		var n Network
		queue := []entities.ID{start.ID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			if visited.Has(current) {
				continue
			}
			visited.Put(current)

			n.Members = append(n.Members, current)
			gen, cons := r.contribution(byID[current], missing)
			n.TotalGen += gen
			n.TotalCons += cons

			for _, next := range adj[current] {
				if !visited.Has(next) {
					queue = append(queue, next)
				}
			}
		}
		networks = append(networks, n)
	}

	return networks
}

// contribution returns what one structure adds to its network's totals
func (r Resolver) contribution(s entities.Structure, missing mapset.Set[string]) (gen, cons float64) {
	c, ok := entities.Lookup(r.Caps, s)
	if !ok {
		if !missing.Has(s.Type) {
			missing.Put(s.Type)
			r.logger().Warn("missing capability definition, treating as zero",
				"type", s.Type, "id", s.ID)
		}
		return 0, 0
	}

	if c.Generates > 0 && !s.GenerationDisabled() {
		mult := 1.0
		if r.Multiplier != nil {
			mult = r.Multiplier(s)
		}
		gen = c.Generates * mult
	}
	if c.Consumes > 0 {
		cons = c.Consumes
	}
	return gen, cons
}
