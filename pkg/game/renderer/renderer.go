package renderer

import (
	"fmt"
	"math"
	"strings"

	"gridpower/pkg/game/entities"
)

// Icon constants for structures
const (
	IconGeneratorUnpowered = "◇"
	IconGeneratorPowered   = "◆"
	IconConsumerUnpowered  = "○"
	IconConsumerPowered    = "●"
	IconConnector          = "┼"
	IconUnknown            = "?"
)

// StructureIcon returns the glyph for a structure given its capability and
// whether it was powered on the last tick
func StructureIcon(c entities.Capability, known, powered bool) string {
	switch {
	case !known:
		return IconUnknown
	case c.Generates > 0:
		if powered {
			return IconGeneratorPowered
		}
		return IconGeneratorUnpowered
	case c.Consumes > 0:
		if powered {
			return IconConsumerPowered
		}
		return IconConsumerUnpowered
	default:
		return IconConnector
	}
}

// FormatWatts formats a power amount for display
func FormatWatts(w float64) string {
	switch abs := math.Abs(w); {
	case abs >= 1e6:
		return fmt.Sprintf("%.2f MW", w/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1f kW", w/1e3)
	default:
		return fmt.Sprintf("%g W", math.Round(w*10)/10)
	}
}

// LoadBar draws consumption against capacity as a fixed-width bar. Load
// beyond capacity fills the bar and is marked with '!'.
func LoadBar(capacity, consumption float64, width int) string {
	if width < 3 {
		width = 3
	}
	inner := width - 2
	filled := 0
	over := false
	switch {
	case capacity <= 0 && consumption > 0:
		filled, over = inner, true
	case capacity > 0:
		ratio := consumption / capacity
		if ratio > 1 {
			ratio, over = 1, true
		}
		filled = int(math.Round(ratio * float64(inner)))
	}

	fill := "#"
	if over {
		fill = "!"
	}
	return "[" + strings.Repeat(fill, filled) + strings.Repeat(".", inner-filled) + "]"
}

// ShortID trims a structure ID for tables; full IDs are in the dump
func ShortID(id entities.ID) string {
	const n = 8
	if len(id) <= n {
		return string(id)
	}
	return string(id[:n])
}
