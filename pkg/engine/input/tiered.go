package input

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gridpower/pkg/engine/world"
)

// Device represents a physical input source.
type Device int

const (
	DeviceUnknown Device = iota
	DeviceTerminal
	DeviceScript
)

// Action represents a high‑level intent on the grid.
type Action int

const (
	ActionNone Action = iota

	// Structures
	ActionBuild
	ActionDemolish
	ActionFlag
	ActionBonus

	// Link gesture
	ActionSelect // primary select at a point
	ActionCancel // secondary action at a point
	ActionLink   // direct link between two IDs

	// Simulation
	ActionTick

	// Meta / UI
	ActionStatus
	ActionDump
	ActionSave
	ActionLoad
	ActionDevGrid
	ActionHelp
	ActionQuit
)

// Intent is the 4th‑layer, high‑level description of what the player wants
// to do, with its arguments already parsed.
type Intent struct {
	Action Action

	Type  string      // ActionBuild
	Point world.Point // ActionBuild, ActionSelect, ActionCancel
	IDs   []string    // ActionDemolish, ActionLink, ActionFlag, ActionBonus
	Flag  string      // ActionFlag
	On    bool        // ActionFlag
	Mult  float64     // ActionBonus
	Count int         // ActionTick
	Path  string      // ActionSave, ActionLoad
}

// RawInput is the 1st‑layer event: one line of text from a device.
type RawInput struct {
	Device    Device
	Line      string
	Timestamp time.Time
}

// DebouncedInput is the 2nd‑layer representation: the line split into a
// lower-cased verb and its arguments. Blank lines and comments carry no verb.
type DebouncedInput struct {
	Device Device
	Verb   string
	Args   []string
}

// NewDebouncedInput tokenizes a raw line. Anything after '#' is a comment.
func NewDebouncedInput(raw RawInput) DebouncedInput {
	line := raw.Line
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	ev := DebouncedInput{Device: raw.Device}
	if len(fields) == 0 {
		return ev
	}
	ev.Verb = strings.ToLower(fields[0])
	ev.Args = fields[1:]
	return ev
}

// bindings maps verbs to actions (3rd-layer bindings).
// Multiple verbs may point to the same Action.
var bindings = map[string]Action{
	"build": ActionBuild,
	"b":     ActionBuild,

	"demolish": ActionDemolish,
	"rm":       ActionDemolish,

	"flag":  ActionFlag,
	"bonus": ActionBonus,

	"select": ActionSelect,
	"click":  ActionSelect,
	"s":      ActionSelect,
	"cancel": ActionCancel,
	"rclick": ActionCancel,
	"c":      ActionCancel,
	"link":   ActionLink,

	"tick": ActionTick,
	"t":    ActionTick,

	"status": ActionStatus,
	"dump":   ActionDump,
	"save":   ActionSave,
	"load":   ActionLoad,
	"dev":    ActionDevGrid,

	"help": ActionHelp,
	"?":    ActionHelp,

	"quit": ActionQuit,
	"q":    ActionQuit,
	"exit": ActionQuit,
}

// MapToIntent is the 3rd+4th layer: it applies the bindings to a debounced
// input and parses the arguments the action needs.
func MapToIntent(ev DebouncedInput) (Intent, error) {
	if ev.Verb == "" {
		return Intent{Action: ActionNone}, nil
	}
	act, ok := bindings[ev.Verb]
	if !ok {
		return Intent{Action: ActionNone}, fmt.Errorf("unknown command %q", ev.Verb)
	}

	in := Intent{Action: act}
	args := ev.Args
	var err error

	switch act {
	case ActionBuild:
		if err = wantArgs(ev, 3); err != nil {
			return in, err
		}
		in.Type = args[0]
		in.Point, err = parsePoint(args[1], args[2])
	case ActionSelect, ActionCancel:
		if err = wantArgs(ev, 2); err != nil {
			return in, err
		}
		in.Point, err = parsePoint(args[0], args[1])
	case ActionDemolish:
		if err = wantArgs(ev, 1); err != nil {
			return in, err
		}
		in.IDs = args[:1]
	case ActionLink:
		if err = wantArgs(ev, 2); err != nil {
			return in, err
		}
		in.IDs = args[:2]
	case ActionFlag:
		if err = wantArgs(ev, 3); err != nil {
			return in, err
		}
		in.IDs = args[:1]
		in.Flag = args[1]
		in.On, err = parseOnOff(args[2])
	case ActionBonus:
		if err = wantArgs(ev, 2); err != nil {
			return in, err
		}
		in.IDs = args[:1]
		in.Mult, err = strconv.ParseFloat(args[1], 64)
	case ActionTick:
		in.Count = 1
		if len(args) > 0 {
			in.Count, err = strconv.Atoi(args[0])
			if err == nil && in.Count < 1 {
				err = fmt.Errorf("tick count must be positive, got %d", in.Count)
			}
		}
	case ActionSave, ActionLoad:
		if len(args) > 0 {
			in.Path = args[0]
		}
	}

	if err != nil {
		return in, fmt.Errorf("%s: %w", ev.Verb, err)
	}
	return in, nil
}

// Parse runs a single line through every layer
func Parse(line string) (Intent, error) {
	raw := RawInput{Device: DeviceTerminal, Line: line, Timestamp: time.Now()}
	return MapToIntent(NewDebouncedInput(raw))
}

func wantArgs(ev DebouncedInput, n int) error {
	if len(ev.Args) < n {
		return fmt.Errorf("%s: need %d arguments, got %d", ev.Verb, n, len(ev.Args))
	}
	return nil
}

func parsePoint(xs, ys string) (world.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return world.Point{}, err
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return world.Point{}, err
	}
	return world.Pt(x, y), nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "raise":
		return true, nil
	case "off", "false", "0", "clear":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// ActionName returns a human-friendly name for an action.
func ActionName(a Action) string {
	switch a {
	case ActionBuild:
		return "Build"
	case ActionDemolish:
		return "Demolish"
	case ActionFlag:
		return "Flag"
	case ActionBonus:
		return "Bonus"
	case ActionSelect:
		return "Select"
	case ActionCancel:
		return "Cancel"
	case ActionLink:
		return "Link"
	case ActionTick:
		return "Tick"
	case ActionStatus:
		return "Status"
	case ActionDump:
		return "Dump"
	case ActionSave:
		return "Save"
	case ActionLoad:
		return "Load"
	case ActionDevGrid:
		return "Dev Grid"
	case ActionHelp:
		return "Help"
	case ActionQuit:
		return "Quit"
	default:
		return "None"
	}
}

// GetBindingsByAction returns the current bindings grouped by action.
func GetBindingsByAction() map[Action][]string {
	result := make(map[Action][]string)
	for code, act := range bindings {
		result[act] = append(result[act], code)
	}
	// Ensure stable ordering of codes within each action so help doesn't shuffle.
	for act, codes := range result {
		sort.Strings(codes)
		result[act] = codes
	}
	return result
}
