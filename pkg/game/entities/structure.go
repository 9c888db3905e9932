// Package entities contains the placeable structure types for the power grid.
// Structures are owned by the registry in package state; everything else
// refers to them by ID.
package entities

import (
	"github.com/google/uuid"

	"gridpower/pkg/engine/world"
)

// ID identifies a structure. IDs are unique within a registry.
type ID string

// NewID mints a fresh random structure ID
func NewID() ID {
	return ID(uuid.NewString())
}

// Structure is a placed entity that may generate and/or consume power.
type Structure struct {
	ID    ID
	Type  string // Type tag, resolved through a Capabilities lookup
	Pos   world.Point
	Flags FlagSet
}

// NewStructure creates a structure with an empty flag set
func NewStructure(id ID, typeTag string, pos world.Point) Structure {
	return Structure{
		ID:    id,
		Type:  typeTag,
		Pos:   pos,
		Flags: NewFlagSet(),
	}
}

// GenerationDisabled returns true if an operational flag zeroes this
// structure's generation
func (s Structure) GenerationDisabled() bool {
	return s.Flags.Disabling()
}

// Clone returns a copy that does not share its flag set with s
func (s Structure) Clone() Structure {
	c := s
	c.Flags = s.Flags.Copy()
	return c
}
