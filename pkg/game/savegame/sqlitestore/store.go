// Package sqlitestore keeps grid snapshots in a SQLite database.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"gridpower/pkg/game/entities"
	"gridpower/pkg/game/savegame"
)

// Store wraps a SQLite connection holding one saved grid
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS structures (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		flags INTEGER NOT NULL,
		bonus REAL
	);

	CREATE TABLE IF NOT EXISTS links (
		seq INTEGER PRIMARY KEY,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS grid_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type structureRow struct {
	ID    string          `db:"id"`
	Type  string          `db:"type"`
	X     float64         `db:"x"`
	Y     float64         `db:"y"`
	Flags int             `db:"flags"`
	Bonus sql.NullFloat64 `db:"bonus"`
}

type linkRow struct {
	From string `db:"from_id"`
	To   string `db:"to_id"`
}

// Save replaces the stored grid with snap
func (s *Store) Save(snap savegame.Snapshot) error {
	slog.Info("saving grid", "structures", len(snap.Structures), "links", len(snap.Links), "tick", snap.Tick)

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"structures", "links", "grid_meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO structures (seq, id, type, x, y, flags, bonus)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range snap.Structures {
		var bonus sql.NullFloat64
		if rec.Bonus != nil {
			bonus = sql.NullFloat64{Float64: *rec.Bonus, Valid: true}
		}
		if _, err := stmt.Exec(i, rec.ID, rec.Type, rec.X, rec.Y, joinFlags(rec.Flags), bonus); err != nil {
			return fmt.Errorf("save structure %s: %w", rec.ID, err)
		}
	}

	linkStmt, err := tx.Preparex("INSERT INTO links (seq, from_id, to_id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for i, rec := range snap.Links {
		if _, err := linkStmt.Exec(i, rec.From, rec.To); err != nil {
			return fmt.Errorf("save link %s-%s: %w", rec.From, rec.To, err)
		}
	}

	meta := map[string]string{
		"version": strconv.Itoa(snap.Version),
		"tick":    strconv.FormatUint(snap.Tick, 10),
	}
	for key, value := range meta {
		if _, err := tx.Exec("INSERT INTO grid_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("save meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("grid saved")
	return nil
}

// HasState reports whether a grid has been saved
func (s *Store) HasState() bool {
	var count int
	if err := s.conn.Get(&count, "SELECT COUNT(*) FROM grid_meta WHERE key = 'version'"); err != nil {
		return false
	}
	return count > 0
}

// Load reads the stored grid back into a snapshot
func (s *Store) Load() (savegame.Snapshot, error) {
	var snap savegame.Snapshot

	version, err := s.getMeta("version")
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("load: no saved grid")
	}
	if err != nil {
		return snap, fmt.Errorf("load version: %w", err)
	}
	if snap.Version, err = strconv.Atoi(version); err != nil {
		return snap, fmt.Errorf("load version: %w", err)
	}
	tick, err := s.getMeta("tick")
	if err != nil {
		return snap, fmt.Errorf("load tick: %w", err)
	}
	if snap.Tick, err = strconv.ParseUint(tick, 10, 64); err != nil {
		return snap, fmt.Errorf("load tick: %w", err)
	}

	var rows []structureRow
	if err := s.conn.Select(&rows, "SELECT id, type, x, y, flags, bonus FROM structures ORDER BY seq"); err != nil {
		return snap, fmt.Errorf("load structures: %w", err)
	}
	snap.Structures = make([]savegame.StructureRecord, 0, len(rows))
	for _, r := range rows {
		rec := savegame.StructureRecord{ID: r.ID, Type: r.Type, X: r.X, Y: r.Y}
		flags, err := splitFlags(r.Flags)
		if err != nil {
			return snap, fmt.Errorf("load structure %s: %w", r.ID, err)
		}
		rec.Flags = flags
		if r.Bonus.Valid {
			bonus := r.Bonus.Float64
			rec.Bonus = &bonus
		}
		snap.Structures = append(snap.Structures, rec)
	}

	var links []linkRow
	if err := s.conn.Select(&links, "SELECT from_id, to_id FROM links ORDER BY seq"); err != nil {
		return snap, fmt.Errorf("load links: %w", err)
	}
	snap.Links = make([]savegame.LinkRecord, 0, len(links))
	for _, l := range links {
		snap.Links = append(snap.Links, savegame.LinkRecord{From: l.From, To: l.To})
	}

	return snap, nil
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.conn.Get(&value, "SELECT value FROM grid_meta WHERE key = ?", key)
	return value, err
}

// Flags are stored as a bitmask of entities.Flag values.
func joinFlags(names []string) int {
	mask := 0
	for _, name := range names {
		if f, err := entities.ParseFlag(name); err == nil {
			mask |= 1 << uint(f)
		}
	}
	return mask
}

func splitFlags(mask int) ([]string, error) {
	raw := mask
	var names []string
	for _, f := range entities.AllFlags() {
		if mask&(1<<uint(f)) != 0 {
			names = append(names, f.String())
			mask &^= 1 << uint(f)
		}
	}
	if mask != 0 {
		return nil, fmt.Errorf("flags %#x: undefined bits", raw)
	}
	return names, nil
}
