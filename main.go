package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"

	"gridpower/pkg/engine/input"
	"gridpower/pkg/engine/terminal"
	"gridpower/pkg/game/connect"
	"gridpower/pkg/game/devtools"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/locale"
	"gridpower/pkg/game/renderer"
	"gridpower/pkg/game/renderer/tui"
	"gridpower/pkg/game/savegame"
	"gridpower/pkg/game/savegame/sqlitestore"
	"gridpower/pkg/game/state"
	"gridpower/pkg/game/tuning"
)

// snapshotStore is where save and load commands go
type snapshotStore interface {
	Save(snap savegame.Snapshot) error
	Load() (savegame.Snapshot, error)
}

// fileStore saves zstd-compressed snapshots to a path
type fileStore struct {
	path string
}

func (f fileStore) Save(snap savegame.Snapshot) error {
	return savegame.WriteFile(f.path, snap)
}

func (f fileStore) Load() (savegame.Snapshot, error) {
	return savegame.ReadFile(f.path)
}

// openStore returns the SQLite store when dbPath is set and the snapshot
// file store otherwise, with a func that releases it
func openStore(savePath, dbPath string) (snapshotStore, func(), error) {
	if dbPath == "" {
		return fileStore{path: savePath}, func() {}, nil
	}
	db, err := sqlitestore.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			slog.Warn("closing database", "path", dbPath, "error", err)
		}
	}, nil
}

// session is one driver run: the grid plus where it is saved
type session struct {
	g      *state.Game
	tuning tuning.Tuning
	store  snapshotStore
	logger *slog.Logger
	quit   bool

	// holdFrame keeps the screen from being cleared before the next prompt
	holdFrame bool
}

// logMessage adds a formatted message to the game's message log
func (s *session) logMessage(msg string, a ...any) {
	s.g.AddMessage(renderer.FormatText(msg, a...))
}

// logDenied adds a rejection to the message log
func (s *session) logDenied(msg string) {
	s.g.AddMessage(renderer.StyleText(msg, renderer.StyleDenied))
}

// resolve maps a typed (possibly abbreviated) ID to a structure
func (s *session) resolve(prefix string) (entities.ID, bool) {
	id, err := s.g.FindByPrefix(prefix)
	if err != nil {
		s.logDenied(locale.T("NO_STRUCTURE", prefix))
		s.logger.Debug("id lookup failed", "prefix", prefix, "error", err)
		return "", false
	}
	return id, true
}

// storeFor returns the store for a save/load command; a path argument
// overrides the configured file
func (s *session) storeFor(path string) snapshotStore {
	if path != "" {
		return fileStore{path: path}
	}
	return s.store
}

// processIntent applies one parsed command to the session
func (s *session) processIntent(in input.Intent) {
	g := s.g

	switch in.Action {
	case input.ActionNone:
		return

	case input.ActionBuild:
		id, err := g.Build(in.Type, in.Point)
		if err != nil {
			s.logDenied(err.Error())
			return
		}
		s.logMessage("%s", locale.T("STRUCTURE_BUILT", in.Type, in.Point))
		s.logger.Info("structure built", "id", id, "type", in.Type, "pos", in.Point)

	case input.ActionDemolish:
		id, ok := s.resolve(in.IDs[0])
		if !ok {
			return
		}
		g.Demolish(id)
		s.logMessage("%s", locale.T("STRUCTURE_DEMOLISHED", renderer.ShortID(id)))
		s.logger.Info("structure demolished", "id", id)

	case input.ActionFlag:
		id, ok := s.resolve(in.IDs[0])
		if !ok {
			return
		}
		f, err := entities.ParseFlag(in.Flag)
		if err == nil {
			err = g.SetFlag(id, f, in.On)
		}
		if err != nil {
			s.logDenied(err.Error())
		}

	case input.ActionBonus:
		id, ok := s.resolve(in.IDs[0])
		if !ok {
			return
		}
		if err := g.SetOutputBonus(id, in.Mult); err != nil {
			s.logDenied(err.Error())
		}

	case input.ActionSelect:
		g.SelectAt(in.Point)

	case input.ActionCancel:
		g.Cancel(in.Point)

	case input.ActionLink:
		from, ok := s.resolve(in.IDs[0])
		if !ok {
			return
		}
		to, ok := s.resolve(in.IDs[1])
		if !ok {
			return
		}
		g.Controller.Reset()
		if ev := g.Select(from); ev.Outcome == connect.OutcomeSelected {
			g.Select(to)
		}

	case input.ActionTick:
		for i := 0; i < in.Count; i++ {
			g.Step()
		}

	case input.ActionStatus:
		// The frame is redrawn after every command.

	case input.ActionDump:
		path, err := devtools.DumpNetworksToFile(g)
		if err != nil {
			s.logDenied(err.Error())
			return
		}
		s.logMessage("%s", locale.T("GRID_DUMPED", path))

	case input.ActionDevGrid:
		ids := devtools.SeedDevGrid(g)
		s.logMessage("%s", locale.T("DEV_GRID_SEEDED", len(ids)))

	case input.ActionSave:
		if err := s.storeFor(in.Path).Save(savegame.Capture(g)); err != nil {
			s.logDenied(err.Error())
			return
		}
		s.logMessage("%s", locale.T("GAME_SAVED", s.describe(in.Path)))

	case input.ActionLoad:
		snap, err := s.storeFor(in.Path).Load()
		if err == nil {
			var restored *state.Game
			restored, err = savegame.Restore(snap, s.tuning, s.logger)
			if err == nil {
				s.g = restored
			}
		}
		if err != nil {
			s.logDenied(err.Error())
			return
		}
		s.g.Step()
		s.logMessage("%s", locale.T("GAME_LOADED", s.describe(in.Path)))

	case input.ActionHelp:
		s.printHelp()
		s.holdFrame = true

	case input.ActionQuit:
		renderer.ShowMessage(gotext.Get("GOODBYE"))
		s.quit = true
	}
}

func (s *session) describe(path string) string {
	if path != "" {
		return path
	}
	switch st := s.store.(type) {
	case fileStore:
		return st.path
	default:
		return "database"
	}
}

func (s *session) printHelp() {
	bindings := input.GetBindingsByAction()
	actions := make([]input.Action, 0, len(bindings))
	for act := range bindings {
		actions = append(actions, act)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })

	renderer.ShowMessage(gotext.Get("HELP_HEADER"))
	for _, act := range actions {
		renderer.ShowMessage(renderer.FormatText("- ACTION{%s}: %s", bindings[act][0], strings.Join(bindings[act], ", ")))
	}
	renderer.ShowMessage("  build TYPE X Y | demolish ID | select X Y | cancel X Y | link A B")
	renderer.ShowMessage("  flag ID out_of_fuel|offline on|off | bonus ID MULT | tick [N] | save [PATH] | load [PATH]")
}

// run reads commands until quit or end of input
func (s *session) run(r *input.LineReader, interactive bool) error {
	for !s.quit {
		if interactive {
			if !s.holdFrame {
				renderer.Clear()
			}
			s.holdFrame = false
			renderer.RenderFrame(s.g)
		}

		raw, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		in, err := input.MapToIntent(input.NewDebouncedInput(raw))
		if err != nil {
			s.logger.Debug("command rejected", "line", raw.Line, "error", err)
			s.logDenied(err.Error())
			s.logMessage("%s", gotext.Get("UNKNOWN_COMMAND"))
			continue
		}
		s.processIntent(in)
	}
	return nil
}

func main() {
	tuningPath := flag.String("tuning", "", "tuning YAML file (defaults to the built-in tuning)")
	savePath := flag.String("save", "grid.sav", "snapshot file used by save and load")
	dbPath := flag.String("db", "", "SQLite database used by save and load instead of -save")
	scriptPath := flag.String("script", "", "read commands from a file instead of stdin")
	lang := flag.String("lang", locale.DefaultLanguage, "message language")
	localeDir := flag.String("locales", "", "directory with additional message catalogs (LANG/default.po)")
	devGrid := flag.Bool("dev", false, "start with the developer testing grid")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := locale.Init(*localeDir, *lang); err != nil {
		slog.Error("locale", "error", err)
		os.Exit(1)
	}

	t := tuning.Default()
	if *tuningPath != "" {
		var err error
		if t, err = tuning.Load(*tuningPath); err != nil {
			slog.Error("tuning", "error", err)
			os.Exit(1)
		}
	}

	src := os.Stdin
	interactive := terminal.IsInteractive(os.Stdin) && terminal.IsInteractive(os.Stdout)
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			slog.Error("script", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		src = f
		interactive = false
	}

	// Must stay the last startup step that exits on error.
	store, closeStore, err := openStore(*savePath, *dbPath)
	if err != nil {
		slog.Error("database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	device := input.DeviceTerminal
	if !interactive {
		device = input.DeviceScript
	}

	renderer.SetRenderer(tui.New(os.Stdout, interactive))
	renderer.Init()

	g := state.NewGame(t)
	g.Logger = logger
	s := &session{g: g, tuning: t, store: store, logger: logger}

	if db, ok := store.(*sqlitestore.Store); ok && db.HasState() {
		s.processIntent(input.Intent{Action: input.ActionLoad})
	} else if *devGrid {
		s.processIntent(input.Intent{Action: input.ActionDevGrid})
		s.g.Step()
	}

	if err := s.run(input.NewLineReader(src, device), interactive); err != nil {
		slog.Error("input", "error", err)
	}

	if !interactive {
		renderer.RenderFrame(s.g)
	}
	fmt.Fprintln(os.Stdout)
}
