package entities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// Flag is an operational condition on a structure
type Flag int

// Operational flags. Every defined flag disables generation; none of them
// removes the structure from its network.
const (
	FlagOutOfFuel Flag = iota + 1
	FlagOffline
)

var flagNames = map[Flag]string{
	FlagOutOfFuel: "out_of_fuel",
	FlagOffline:   "offline",
}

// AllFlags returns every defined flag in declaration order
func AllFlags() []Flag {
	return []Flag{FlagOutOfFuel, FlagOffline}
}

// String returns the flag's stable name (as used in saves and commands)
func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("flag(%d)", int(f))
}

// IsValid returns true if f is one of the defined flags
func (f Flag) IsValid() bool {
	_, ok := flagNames[f]
	return ok
}

// ParseFlag maps a flag name back to its Flag
func ParseFlag(name string) (Flag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range flagNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown flag %q", name)
}

// FlagSet is the set of operational flags currently raised on a structure.
// Only defined flags can be members.
type FlagSet struct {
	set *mapset.Set[Flag]
}

// NewFlagSet creates a flag set holding the given flags. Undefined flags are ignored.
func NewFlagSet(flags ...Flag) FlagSet {
	set := mapset.New[Flag]()
	fs := FlagSet{set: &set}
	for _, f := range flags {
		fs.Raise(f)
	}
	return fs
}

// Raise adds f to the set. Returns false if f is not a defined flag.
func (fs *FlagSet) Raise(f Flag) bool {
	if !f.IsValid() {
		return false
	}
	if fs.set == nil {
		set := mapset.New[Flag]()
		fs.set = &set
	}
	fs.set.Put(f)
	return true
}

// Clear removes f from the set
func (fs *FlagSet) Clear(f Flag) {
	if fs.set == nil {
		return
	}
	fs.set.Remove(f)
}

// Has returns true if f is raised
func (fs FlagSet) Has(f Flag) bool {
	if fs.set == nil {
		return false
	}
	return fs.set.Has(f)
}

// Size returns the number of raised flags
func (fs FlagSet) Size() int {
	if fs.set == nil {
		return 0
	}
	return fs.set.Size()
}

// Disabling returns true if any raised flag disables generation
func (fs FlagSet) Disabling() bool {
	return fs.Size() > 0
}

// List returns the raised flags sorted by value
func (fs FlagSet) List() []Flag {
	out := make([]Flag, 0, fs.Size())
	if fs.Size() == 0 {
		return out
	}
	fs.set.Each(func(f Flag) {
		out = append(out, f)
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Copy returns an independent copy of the set
func (fs FlagSet) Copy() FlagSet {
	return NewFlagSet(fs.List()...)
}
