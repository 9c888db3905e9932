package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"gridpower/pkg/engine/input"
	"gridpower/pkg/game/locale"
	"gridpower/pkg/game/savegame/sqlitestore"
	"gridpower/pkg/game/state"
	"gridpower/pkg/game/tuning"
)

func newTestSession(t *testing.T, store snapshotStore) *session {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	g := state.NewGame(tuning.Default())
	g.Logger = logger
	return &session{g: g, tuning: tuning.Default(), store: store, logger: logger}
}

func runScript(t *testing.T, s *session, script string) {
	t.Helper()
	if err := s.run(input.NewLineReader(strings.NewReader(script), input.DeviceScript), false); err != nil {
		t.Fatalf("run error: %v", err)
	}
}

func TestSession_BuildLinkTick(t *testing.T) {
	s := newTestSession(t, fileStore{path: filepath.Join(t.TempDir(), "grid.sav")})
	runScript(t, s, `
build generator 0 0
build habitat 2 0
select 0 0
select 2 0
tick 3
`)

	if got := s.g.Tick(); got != 3 {
		t.Errorf("Tick() = %d, want 3", got)
	}
	if len(s.g.Links()) != 1 {
		t.Fatalf("Links() = %v, want one link", s.g.Links())
	}
	for _, st := range s.g.Structures() {
		if !s.g.HasPower(st.ID) {
			t.Errorf("%s not powered", st.Type)
		}
	}
}

func TestSession_SaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.sav")
	s := newTestSession(t, fileStore{path: path})
	runScript(t, s, "build generator 0 0\nbuild habitat 1 0\nselect 0 0\nselect 1 0\ntick\nsave\n")

	fresh := newTestSession(t, fileStore{path: path})
	runScript(t, fresh, "load\n")

	if len(fresh.g.Structures()) != 2 || len(fresh.g.Links()) != 1 {
		t.Fatalf("loaded %d structures and %d links, want 2 and 1", len(fresh.g.Structures()), len(fresh.g.Links()))
	}
	// Load runs one pass so the display is current.
	if fresh.g.Tick() != 2 || fresh.g.Display().Capacity != 50 {
		t.Errorf("after load: tick %d display %+v", fresh.g.Tick(), fresh.g.Display())
	}
}

func TestSession_SaveLoadDatabase(t *testing.T) {
	db, err := sqlitestore.Open(filepath.Join(t.TempDir(), "grid.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := newTestSession(t, db)
	runScript(t, s, "build reactor 0 0\nbuild refinery 3 0\nselect 0 0\nselect 3 0\nsave\n")
	if !db.HasState() {
		t.Fatal("database has no state after save")
	}

	fresh := newTestSession(t, db)
	runScript(t, fresh, "load\n")
	if len(fresh.g.Links()) != 1 {
		t.Errorf("Links() after load = %v, want one", fresh.g.Links())
	}
	if st := fresh.g.Structures()[1]; !fresh.g.HasPower(st.ID) {
		t.Error("refinery not powered after load")
	}
}

func TestSession_RejectionsAndUnknownCommands(t *testing.T) {
	s := newTestSession(t, fileStore{path: filepath.Join(t.TempDir(), "grid.sav")})
	runScript(t, s, "explode\nbuild pylon 0 0\nbuild pylon 1 0\nselect 0 0\ndemolish nothing\n")

	if len(s.g.Messages) == 0 {
		t.Fatal("no messages logged for rejected commands")
	}
	if len(s.g.Structures()) != 2 {
		t.Errorf("Structures() = %d, want 2", len(s.g.Structures()))
	}
}

func TestSession_QuitStopsReading(t *testing.T) {
	s := newTestSession(t, fileStore{path: filepath.Join(t.TempDir(), "grid.sav")})
	runScript(t, s, "build generator 0 0\nquit\nbuild generator 5 5\n")

	if !s.quit {
		t.Error("quit not recorded")
	}
	if len(s.g.Structures()) != 1 {
		t.Errorf("Structures() = %d, want commands after quit ignored", len(s.g.Structures()))
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	store, closeStore, err := openStore(filepath.Join(dir, "grid.sav"), "")
	if err != nil {
		t.Fatalf("openStore(file) error: %v", err)
	}
	if _, ok := store.(fileStore); !ok {
		t.Errorf("openStore without -db = %T, want fileStore", store)
	}
	closeStore()

	store, closeStore, err = openStore("", filepath.Join(dir, "grid.db"))
	if err != nil {
		t.Fatalf("openStore(db) error: %v", err)
	}
	db, ok := store.(*sqlitestore.Store)
	if !ok {
		t.Fatalf("openStore with -db = %T, want *sqlitestore.Store", store)
	}
	closeStore()
	if db.HasState() {
		t.Error("closed store still reports state")
	}

	if _, _, err := openStore("", filepath.Join(dir, "missing", "dir", "grid.db")); err == nil {
		t.Error("openStore accepted a database in a missing directory")
	}
}

func TestSession_DevGridAndDumpMessages(t *testing.T) {
	if err := locale.Init("", ""); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())

	s := newTestSession(t, fileStore{path: "grid.sav"})
	runScript(t, s, "dev\ndump\n")

	if len(s.g.Messages) < 2 {
		t.Fatalf("Messages = %q, want seed and dump notices", s.g.Messages)
	}
	got := s.g.Messages[len(s.g.Messages)-2:]
	if got[0] != "Seeded 12 developer structures." {
		t.Errorf("seed message = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Grid dump written to ") || !strings.HasSuffix(got[1], "grid.txt.") {
		t.Errorf("dump message = %q", got[1])
	}
}
