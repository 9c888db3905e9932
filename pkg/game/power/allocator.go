package power

import (
	"github.com/zyedidia/generic/mapset"

	"gridpower/pkg/game/entities"
)

// DefaultConsumptionMultiplier leaves demand unscaled
const DefaultConsumptionMultiplier = 1.0

// Display is the aggregate shown to the player. Networks without any
// generation are left out of both numbers.
type Display struct {
	Capacity    float64
	Consumption float64
}

// Allocation is the outcome of one allocation pass
type Allocation struct {
	Powered mapset.Set[entities.ID]
	Display Display
}

// Required returns a network's demand after the global consumption multiplier
func Required(n Network, consumptionMultiplier float64) float64 {
	return n.TotalCons * consumptionMultiplier
}

// Satisfied returns true if the network powers all of its members
func Satisfied(n Network, consumptionMultiplier float64) bool {
	return n.TotalGen > 0 && n.TotalGen >= Required(n, consumptionMultiplier)
}

// Allocate decides powered status for every network as a unit: either all
// members are powered or none are.
func Allocate(networks []Network, consumptionMultiplier float64) Allocation {
	a := Allocation{Powered: mapset.New[entities.ID]()}
	for _, n := range networks {
		if n.TotalGen <= 0 {
			continue
		}

		required := Required(n, consumptionMultiplier)
		a.Display.Capacity += n.TotalGen
		a.Display.Consumption += required

		if n.TotalGen >= required {
			for _, id := range n.Members {
				a.Powered.Put(id)
			}
		}
	}
	return a
}
