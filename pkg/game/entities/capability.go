package entities

import "sort"

// Capability is the power profile of a structure type.
// Zero means the type does not generate (or consume) power.
type Capability struct {
	Generates float64
	Consumes  float64
}

// Powered returns true if the capability generates or consumes power
func (c Capability) Powered() bool {
	return c.Generates > 0 || c.Consumes > 0
}

// Capabilities resolves a type tag into its power profile.
// The boolean is false when the type has no known definition.
type Capabilities interface {
	Capability(typeTag string) (Capability, bool)
}

// Catalog is a fixed Capabilities table keyed by type tag
type Catalog map[string]Capability

// Capability implements Capabilities
func (c Catalog) Capability(typeTag string) (Capability, bool) {
	capability, ok := c[typeTag]
	return capability, ok
}

// Types returns the catalog's type tags in sorted order
func (c Catalog) Types() []string {
	types := make([]string, 0, len(c))
	for t := range c {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Lookup resolves a structure's capability, treating a missing definition as
// zero generation and zero consumption
func Lookup(caps Capabilities, s Structure) (Capability, bool) {
	if caps == nil {
		return Capability{}, false
	}
	c, ok := caps.Capability(s.Type)
	if !ok {
		return Capability{}, false
	}
	return c, true
}
