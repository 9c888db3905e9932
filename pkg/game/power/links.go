// Package power resolves which structures on a grid receive power.
//
// Each tick the link set is pruned against the live structures, the
// structures are partitioned into networks (connected components over the
// links), and every network is powered as a unit when its generation covers
// its scaled demand. Nothing is carried between ticks except the links.
package power

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"gridpower/pkg/engine/world"
	"gridpower/pkg/game/entities"
)

// DefaultMaxDegree is the number of links a structure may take part in
const DefaultMaxDegree = 3

// Link is an undirected connection between two structures
type Link struct {
	From entities.ID
	To   entities.ID
}

// Touches returns true if id is one of the link's endpoints
func (l Link) Touches(id entities.ID) bool {
	return l.From == id || l.To == id
}

// Connects returns true if the link joins u and v, in either direction
func (l Link) Connects(u, v entities.ID) bool {
	return (l.From == u && l.To == v) || (l.From == v && l.To == u)
}

// PositionFunc resolves a structure's world position for hit testing
type PositionFunc func(id entities.ID) (world.Point, bool)

// idSet collects the ids of a structure list
func idSet(structures []entities.Structure) mapset.Set[entities.ID] {
	ids := mapset.New[entities.ID]()
	for _, s := range structures {
		ids.Put(s.ID)
	}
	return ids
}

// Prune drops every link that references a structure not in structures.
// The surviving links keep their order. The dropped links are returned so
// callers can report them; links is not modified.
func Prune(structures []entities.Structure, links []Link) (kept []Link, pruned []Link) {
	ids := idSet(structures)
	kept = make([]Link, 0, len(links))
	for _, l := range links {
		if ids.Has(l.From) && ids.Has(l.To) {
			kept = append(kept, l)
		} else {
			pruned = append(pruned, l)
		}
	}
	return kept, pruned
}

// DegreeOf counts the links touching id
func DegreeOf(links []Link, id entities.ID) int {
	degree := 0
	for _, l := range links {
		if l.From == id {
			degree++
		}
		if l.To == id {
			degree++
		}
	}
	return degree
}

// findStructure returns the structure with the given id
func findStructure(structures []entities.Structure, id entities.ID) (entities.Structure, bool) {
	for _, s := range structures {
		if s.ID == id {
			return s, true
		}
	}
	return entities.Structure{}, false
}

// TryAddLink validates and appends the link u-v. On success it returns a new
// slice with the link at the end; on failure it returns links unchanged and
// an error wrapping one of the Err* rejections.
func TryAddLink(links []Link, structures []entities.Structure, caps entities.Capabilities, u, v entities.ID, maxDegree int) ([]Link, error) {
	su, okU := findStructure(structures, u)
	sv, okV := findStructure(structures, v)
	if !okU {
		return links, fmt.Errorf("link %s-%s: %w %s", u, v, ErrUnknownStructure, u)
	}
	if !okV {
		return links, fmt.Errorf("link %s-%s: %w %s", u, v, ErrUnknownStructure, v)
	}

	for _, l := range links {
		if l.Connects(u, v) {
			return links, fmt.Errorf("link %s-%s: %w", u, v, ErrDuplicateLink)
		}
	}

	if u == v {
		return links, fmt.Errorf("link %s-%s: %w", u, v, ErrSelfLink)
	}

	capU, _ := entities.Lookup(caps, su)
	capV, _ := entities.Lookup(caps, sv)
	if !capU.Powered() && !capV.Powered() {
		return links, fmt.Errorf("link %s-%s: %w", u, v, ErrIncapableEndpoint)
	}

	if DegreeOf(links, u)+1 > maxDegree {
		return links, fmt.Errorf("link %s-%s: %w (%s at %d)", u, v, ErrDegreeExceeded, u, maxDegree)
	}
	if DegreeOf(links, v)+1 > maxDegree {
		return links, fmt.Errorf("link %s-%s: %w (%s at %d)", u, v, ErrDegreeExceeded, v, maxDegree)
	}

	out := make([]Link, len(links), len(links)+1)
	copy(out, links)
	return append(out, Link{From: u, To: v}), nil
}

// RemoveLinkNear removes the first link (in insertion order) whose segment
// lies within threshold of point. Links with an endpoint that cannot be
// positioned are skipped. Returns links unchanged and false if nothing is
// close enough.
func RemoveLinkNear(links []Link, point world.Point, positionOf PositionFunc, threshold float64) ([]Link, bool) {
	for i, l := range links {
		a, okA := positionOf(l.From)
		b, okB := positionOf(l.To)
		if !okA || !okB {
			continue
		}
		if world.DistanceToSegment(point, a, b) > threshold {
			continue
		}
		out := make([]Link, 0, len(links)-1)
		out = append(out, links[:i]...)
		out = append(out, links[i+1:]...)
		return out, true
	}
	return links, false
}
