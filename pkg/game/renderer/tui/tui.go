package tui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gookit/color"
	"github.com/leonelquinteros/gotext"

	"gridpower/pkg/engine/terminal"
	"gridpower/pkg/game/connect"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/renderer"
	"gridpower/pkg/game/state"
)

const loadBarWidth = 32

// dynamicGet is used for runtime translation key lookups.
// We use a function variable to avoid go vet's non-constant format string check,
// since we intentionally look up translation keys dynamically from markup.
var dynamicGet = gotext.Get

// TUIRenderer is the terminal-based renderer implementation
type TUIRenderer struct {
	out         io.Writer
	interactive bool

	colorStructure   color.Style
	colorAction      color.Style
	colorActionShort color.Style
	colorDenied      color.Style
	colorPowered     color.Style
	colorUnpowered   color.Style
	colorSubtle      color.Style
	colorSelected    color.Style

	regexpStringFunctions *regexp.Regexp
}

// New creates a new TUI renderer writing to out. A non-interactive renderer
// never clears the screen or prints a prompt.
func New(out io.Writer, interactive bool) *TUIRenderer {
	return &TUIRenderer{out: out, interactive: interactive}
}

// Init initializes the TUI renderer (colors, etc.)
func (t *TUIRenderer) Init() {
	t.colorStructure = color.Style{color.FgBlue}
	t.colorAction = color.Style{color.FgMagenta}
	t.colorActionShort = color.Style{color.FgMagenta, color.OpBold}
	t.colorDenied = color.Style{color.FgRed, color.OpBold}
	t.colorPowered = color.Style{color.FgGreen}
	t.colorUnpowered = color.Style{color.FgYellow}
	t.colorSubtle = color.Style{color.FgGray, color.OpBold}
	t.colorSelected = color.Style{color.FgCyan, color.OpBold}

	t.regexpStringFunctions = regexp.MustCompile(`([a-zA-Z_]*){([a-z A-Z0-9_,:.\-]+)}`)
}

// Clear clears the terminal screen
func (t *TUIRenderer) Clear() {
	if !t.interactive {
		return
	}
	c := exec.Command("clear")
	c.Stdout = os.Stdout
	c.Run()
}

// StyleText applies a style to text
func (t *TUIRenderer) StyleText(text string, style renderer.TextStyle) string {
	switch style {
	case renderer.StyleStructure:
		return t.colorStructure.Sprint(text)
	case renderer.StyleAction:
		return t.colorAction.Sprint(text)
	case renderer.StyleActionShort:
		return t.colorActionShort.Sprint(text)
	case renderer.StyleDenied:
		return t.colorDenied.Sprint(text)
	case renderer.StylePowered:
		return t.colorPowered.Sprint(text)
	case renderer.StyleUnpowered:
		return t.colorUnpowered.Sprint(text)
	case renderer.StyleSubtle:
		return t.colorSubtle.Sprint(text)
	case renderer.StyleSelected:
		return t.colorSelected.Sprint(text)
	default:
		return text
	}
}

// FormatText formats a message with the markup system
func (t *TUIRenderer) FormatText(msg string, args ...any) string {
	ret := fmt.Sprintf(msg, args...)

	matches := t.regexpStringFunctions.FindAllStringSubmatch(ret, -1)

	for _, match := range matches {
		function := match[1]
		operand := match[2]

		val := "blat"

		switch function {
		case "GT":
			val = dynamicGet(operand)
		case "TYPE":
			val = t.colorStructure.Sprint(operand)
		case "OK":
			val = t.colorPowered.Sprint(operand)
		case "WARN":
			val = t.colorUnpowered.Sprint(operand)
		case "DENIED":
			val = t.colorDenied.Sprint(operand)
		case "ACTION":
			val = t.colorActionShort.Sprint(operand[0:1]) + t.colorAction.Sprint(operand[1:])
		default:
			ret = fmt.Sprintf("ERROR, function not found: %v -> %v", function, operand)
		}

		ret = strings.Replace(ret, match[0], val, -1)
	}

	return ret
}

// ShowMessage displays a message to the user
func (t *TUIRenderer) ShowMessage(msg string) {
	fmt.Fprintln(t.out, msg)
}

// RenderFrame renders the grid status, the message log and the prompt
func (t *TUIRenderer) RenderFrame(g *state.Game) {
	fmt.Fprint(t.out, t.colorAction.Sprintf("Tick %d", g.Tick()), "\n\n")

	t.printPowerSummary(g)
	t.printStructures(g)
	t.printSelection(g)
	t.printMessagesPane(g)

	if t.interactive {
		fmt.Fprint(t.out, "\n> ")
	}
}

// printString prints a formatted string
func (t *TUIRenderer) printString(msg string, a ...any) {
	fmt.Fprint(t.out, t.FormatText(msg, a...))
}

// printPowerSummary renders the capacity/consumption display line
func (t *TUIRenderer) printPowerSummary(g *state.Game) {
	d := g.Display()
	bar := renderer.LoadBar(d.Capacity, d.Consumption, loadBarWidth)
	if d.Consumption > d.Capacity {
		bar = t.colorDenied.Sprint(bar)
	} else {
		bar = t.colorPowered.Sprint(bar)
	}

	t.printString("GT{POWER_CAPACITY}: %s  GT{POWER_CONSUMPTION}: %s  ",
		renderer.FormatWatts(d.Capacity), renderer.FormatWatts(d.Consumption))
	fmt.Fprintln(t.out, bar)

	res := g.Result()
	fmt.Fprintln(t.out, t.colorSubtle.Sprintf("%d networks, %d structures powered, %d links",
		len(res.Networks), res.PoweredCount(), len(g.Links())))
	fmt.Fprintln(t.out)
}

// printStructures renders one row per structure in registry order
func (t *TUIRenderer) printStructures(g *state.Game) {
	structures := g.Structures()
	if len(structures) == 0 {
		fmt.Fprintln(t.out, t.colorSubtle.Sprint("  (no structures)"))
		return
	}

	var pending entities.ID
	if p, ok := g.Controller.State().(connect.Pending); ok {
		pending = p.ID
	}

	for _, s := range structures {
		c, known := entities.Lookup(g.Caps, s)
		powered := g.HasPower(s.ID)
		icon := renderer.StructureIcon(c, known, powered)
		switch {
		case s.ID == pending:
			icon = t.colorSelected.Sprint(icon)
		case powered:
			icon = t.colorPowered.Sprint(icon)
		case c.Powered():
			icon = t.colorUnpowered.Sprint(icon)
		default:
			icon = t.colorSubtle.Sprint(icon)
		}

		status := t.colorUnpowered.Sprint(dynamicGet("STATUS_UNPOWERED"))
		if powered {
			status = t.colorPowered.Sprint(dynamicGet("STATUS_POWERED"))
		}
		if s.Flags.Disabling() {
			status += " " + t.colorDenied.Sprint(fmt.Sprint(s.Flags.List()))
		}

		network := ""
		if stats, ok := g.NetworkStatsFor(s.ID); ok {
			network = t.colorSubtle.Sprintf("net %d members, %s/%s",
				stats.MemberCount, renderer.FormatWatts(stats.TotalGen), renderer.FormatWatts(stats.TotalCons))
		}

		fmt.Fprintf(t.out, "  %s %-8s %-14s %-12s deg %d  %s  %s\n",
			icon, renderer.ShortID(s.ID), t.colorStructure.Sprint(s.Type), s.Pos, g.DegreeOf(s.ID), status, network)
	}
}

// printSelection shows the pending link endpoint, if any
func (t *TUIRenderer) printSelection(g *state.Game) {
	if p, ok := g.Controller.State().(connect.Pending); ok {
		fmt.Fprintln(t.out)
		t.printString("GT{LINK_PENDING} %s\n", t.colorSelected.Sprint(renderer.ShortID(p.ID)))
	}
}

// printMessagesPane renders the messages log pane
func (t *TUIRenderer) printMessagesPane(g *state.Game) {
	width := terminal.GetWidth()

	// Create a horizontal line spanning the terminal width
	label := " Messages "
	labelLen := len(label)
	sideLen := (width - labelLen) / 2
	if sideLen < 1 {
		sideLen = 1
	}
	rightLen := width - sideLen - labelLen
	if rightLen < 1 {
		rightLen = 1
	}

	leftDashes := strings.Repeat("─", sideLen)
	rightDashes := strings.Repeat("─", rightLen)

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.colorSubtle.Sprint(leftDashes+label+rightDashes))

	if len(g.Messages) == 0 {
		fmt.Fprintln(t.out, t.colorSubtle.Sprint("  (no messages)"))
	} else {
		for _, msg := range g.Messages {
			fmt.Fprintf(t.out, "  %s\n", msg)
		}
	}

	fmt.Fprintln(t.out, t.colorSubtle.Sprint(strings.Repeat("─", width)))
}
