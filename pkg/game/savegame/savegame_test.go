package savegame

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"gridpower/pkg/engine/world"
	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/power"
	"gridpower/pkg/game/state"
	"gridpower/pkg/game/tuning"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func sampleGame(t *testing.T) *state.Game {
	t.Helper()
	g := state.NewGame(tuning.Default())
	g.Logger = quietLogger()

	assert.NilError(t, g.Place(entities.NewStructure("gen", "generator", world.Pt(0, 0))))
	assert.NilError(t, g.Place(entities.NewStructure("hab", "habitat", world.Pt(2, 1.5))))
	assert.NilError(t, g.Place(entities.NewStructure("pyl", "pylon", world.Pt(4, 0))))
	assert.NilError(t, g.TryAddLink("gen", "hab"))
	assert.NilError(t, g.TryAddLink("hab", "pyl"))
	assert.NilError(t, g.SetFlag("gen", entities.FlagOffline, true))
	assert.NilError(t, g.SetOutputBonus("gen", 0))
	g.Step()
	g.Step()
	return g
}

func TestCaptureRestore(t *testing.T) {
	g := sampleGame(t)
	snap := Capture(g)

	assert.Equal(t, snap.Version, Version)
	assert.Equal(t, snap.Tick, uint64(2))
	assert.Equal(t, len(snap.Structures), 3)
	assert.DeepEqual(t, snap.Structures[0].Flags, []string{"offline"})
	assert.Assert(t, snap.Structures[0].Bonus != nil, "zero bonus must survive capture")
	assert.Assert(t, snap.Structures[1].Bonus == nil)

	restored, err := Restore(snap, tuning.Default(), quietLogger())
	assert.NilError(t, err)
	assert.Equal(t, restored.Tick(), uint64(2))
	assert.DeepEqual(t, restored.Links(), g.Links())
	assert.DeepEqual(t, Capture(restored), snap)

	gen, ok := restored.Structure("gen")
	assert.Assert(t, ok)
	assert.Assert(t, gen.Flags.Has(entities.FlagOffline))
	assert.Equal(t, restored.OutputBonus(gen), 0.0)
}

func TestRestore_DropsStaleLinks(t *testing.T) {
	snap := Snapshot{
		Version: Version,
		Structures: []StructureRecord{
			{ID: "a", Type: "generator"},
			{ID: "b", Type: "habitat", X: 1},
		},
		Links: []LinkRecord{{From: "a", To: "b"}, {From: "b", To: "ghost"}},
	}
	g, err := Restore(snap, tuning.Default(), quietLogger())
	assert.NilError(t, err)
	assert.Equal(t, len(g.Links()), 1)

	g.Step()
	assert.Assert(t, g.HasPower("b"))
}

func TestRestore_ReplaysLinkRules(t *testing.T) {
	snap := Snapshot{
		Version: Version,
		Structures: []StructureRecord{
			{ID: "a", Type: "generator"},
			{ID: "b", Type: "habitat", X: 1},
			{ID: "c", Type: "habitat", X: 2},
			{ID: "d", Type: "habitat", X: 3},
			{ID: "e", Type: "habitat", X: 4},
		},
		Links: []LinkRecord{
			{From: "a", To: "b"},
			{From: "a", To: "c"},
			{From: "a", To: "d"},
			{From: "a", To: "e"},
			{From: "b", To: "a"},
			{From: "c", To: "c"},
		},
	}
	g, err := Restore(snap, tuning.Default(), quietLogger())
	assert.NilError(t, err)

	want := []power.Link{{From: "a", To: "b"}, {From: "a", To: "c"}, {From: "a", To: "d"}}
	assert.DeepEqual(t, g.Links(), want)
	assert.Equal(t, g.DegreeOf("a"), tuning.Default().MaxDegree)

	g.Step()
	assert.DeepEqual(t, g.Links(), want)
	assert.Equal(t, g.DegreeOf("e"), 0)
}

func TestRestore_Rejects(t *testing.T) {
	_, err := Restore(Snapshot{Version: 99}, tuning.Default(), nil)
	assert.ErrorContains(t, err, "version 99")

	bad := Snapshot{Version: Version, Structures: []StructureRecord{{ID: "a", Type: "generator", Flags: []string{"melted"}}}}
	_, err = Restore(bad, tuning.Default(), nil)
	assert.ErrorContains(t, err, "melted")

	dup := Snapshot{Version: Version, Structures: []StructureRecord{{ID: "a", Type: "generator"}, {ID: "a", Type: "habitat"}}}
	_, err = Restore(dup, tuning.Default(), nil)
	assert.ErrorContains(t, err, "duplicate")
}

func TestFileRoundTrip(t *testing.T) {
	snap := Capture(sampleGame(t))
	path := filepath.Join(t.TempDir(), "saves", "grid.sav")

	assert.NilError(t, WriteFile(path, snap))
	got, err := ReadFile(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, snap)
}

func TestDecode_EmptyGame(t *testing.T) {
	g := state.NewGame(tuning.Default())
	var buf bytes.Buffer
	assert.NilError(t, Encode(&buf, Capture(g)))

	snap, err := Decode(&buf)
	assert.NilError(t, err)
	assert.Equal(t, len(snap.Structures), 0)
	assert.Equal(t, len(snap.Links), 0)
}

func TestDecode_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing links":  `{"version":1,"tick":0,"structures":[]}`,
		"unknown flag":   `{"version":1,"tick":0,"structures":[{"id":"a","type":"t","x":0,"y":0,"flags":["melted"]}],"links":[]}`,
		"negative bonus": `{"version":1,"tick":0,"structures":[{"id":"a","type":"t","x":0,"y":0,"bonus":-1}],"links":[]}`,
		"empty link id":  `{"version":1,"tick":0,"structures":[],"links":[{"from":"","to":"a"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := zstd.NewWriter(&buf)
			assert.NilError(t, err)
			_, err = enc.Write([]byte(doc))
			assert.NilError(t, err)
			assert.NilError(t, enc.Close())

			_, err = Decode(&buf)
			assert.ErrorContains(t, err, "validate")
		})
	}
}

func TestReadFile_NotCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	assert.NilError(t, os.WriteFile(path, []byte(`{"version":1}`), 0o644))

	_, err := ReadFile(path)
	assert.Assert(t, err != nil)
	assert.Assert(t, is.Contains(err.Error(), "plain.json"))
}
