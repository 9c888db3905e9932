package power

import (
	"log/slog"

	"github.com/zyedidia/generic/mapset"

	"gridpower/pkg/game/entities"
)

// Config holds the external inputs of a resolve pass
type Config struct {
	Caps                  entities.Capabilities
	OutputMultiplier      OutputMultiplier // nil means NoBonus
	ConsumptionMultiplier float64
	Logger                *slog.Logger // nil means slog.Default()
}

// NetworkStats is the per-structure view of its network's aggregates
type NetworkStats struct {
	TotalGen    float64
	TotalCons   float64
	MemberCount int
}

// Result is everything one tick's pass produces. It is read-only once built
// and is replaced wholesale by the next pass.
type Result struct {
	Networks []Network
	Pruned   []Link // stale links dropped before resolving

	allocation Allocation
	index      map[entities.ID]int
	multiplier float64
}

// EmptyResult is the result before any pass has run: nothing is powered
func EmptyResult() Result {
	return Result{
		allocation: Allocation{Powered: mapset.New[entities.ID]()},
		index:      map[entities.ID]int{},
		multiplier: DefaultConsumptionMultiplier,
	}
}

// Run performs one full pass: prune, partition, allocate. It returns the
// result and the pruned link set, which callers should keep for the next tick.
func Run(cfg Config, structures []entities.Structure, links []Link) (Result, []Link) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	kept, pruned := Prune(structures, links)
	for _, l := range pruned {
		logger.Info("stale link pruned", "from", l.From, "to", l.To)
	}

	r := Resolver{Caps: cfg.Caps, Multiplier: cfg.OutputMultiplier, Logger: logger}
	networks := r.Resolve(structures, kept)

	res := Result{
		Networks:   networks,
		Pruned:     pruned,
		allocation: Allocate(networks, cfg.ConsumptionMultiplier),
		index:      make(map[entities.ID]int, len(structures)),
		multiplier: cfg.ConsumptionMultiplier,
	}
	for i, n := range networks {
		for _, id := range n.Members {
			res.index[id] = i
		}
	}
	return res, kept
}

// HasPower returns true if the structure was powered by the last pass
func (r Result) HasPower(id entities.ID) bool {
	return r.allocation.Powered.Has(id)
}

// PoweredCount returns the number of powered structures
func (r Result) PoweredCount() int {
	return r.allocation.Powered.Size()
}

// Display returns the UI aggregate snapshot
func (r Result) Display() Display {
	return r.allocation.Display
}

// NetworkOf returns the network containing id
func (r Result) NetworkOf(id entities.ID) (Network, bool) {
	i, ok := r.index[id]
	if !ok {
		return Network{}, false
	}
	return r.Networks[i], true
}

// NetworkStatsFor returns the aggregates of the structure's network. The
// boolean is false if the structure is untracked or unlinked (a singleton).
func (r Result) NetworkStatsFor(id entities.ID) (NetworkStats, bool) {
	n, ok := r.NetworkOf(id)
	if !ok || n.MemberCount() < 2 {
		return NetworkStats{}, false
	}
	return NetworkStats{
		TotalGen:    n.TotalGen,
		TotalCons:   n.TotalCons,
		MemberCount: n.MemberCount(),
	}, true
}

// NetworkPowered returns true if the i-th network is powered
func (r Result) NetworkPowered(i int) bool {
	if i < 0 || i >= len(r.Networks) {
		return false
	}
	return Satisfied(r.Networks[i], r.multiplier)
}

// Required returns the i-th network's scaled demand
func (r Result) Required(i int) float64 {
	if i < 0 || i >= len(r.Networks) {
		return 0
	}
	return Required(r.Networks[i], r.multiplier)
}
