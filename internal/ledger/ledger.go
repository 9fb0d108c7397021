// Package ledger keeps an SQLite index of every written sheet and the
// position of every stamp on it, so a stamp can be found again after the
// sheets are printed and filed.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/piwi3910/StampPaper/internal/model"
)

// ErrNotFound is returned when a sheet or stamp is not in the ledger.
var ErrNotFound = errors.New("not found in ledger")

const schema = `
	CREATE TABLE IF NOT EXISTS sheets (
		sheet_id          TEXT PRIMARY KEY,
		sheet_index       INTEGER NOT NULL,
		collection        INTEGER NOT NULL DEFAULT 0,
		path              TEXT NOT NULL,
		strategy          TEXT NOT NULL,
		canvas_width      INTEGER NOT NULL,
		canvas_height     INTEGER NOT NULL,
		row_count         INTEGER NOT NULL DEFAULT 0,
		stamp_count       INTEGER NOT NULL,
		fill              DOUBLE NOT NULL,
		created_at        INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS placements (
		sheet_id          TEXT NOT NULL,
		stamp_id          TEXT NOT NULL,
		x                 INTEGER NOT NULL,
		y                 INTEGER NOT NULL,
		width             INTEGER NOT NULL,
		height            INTEGER NOT NULL,
		FOREIGN KEY(sheet_id) REFERENCES sheets(sheet_id)
	);
	CREATE INDEX IF NOT EXISTS placements_stamp ON placements(stamp_id);
`

// Entry is one recorded sheet.
type Entry struct {
	ID         string
	Index      int
	Collection int
	Path       string
	Strategy   model.Strategy
	Canvas     model.Canvas
	Rows       int
	Stamps     int
	Fill       float64 // percent
	CreatedAt  time.Time
}

// Location is where a stamp was placed.
type Location struct {
	Sheet     Entry
	Placement model.PlacedItem
}

type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// A ":memory:" database lives and dies with its connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a sheet and its placements. Recording the same sheet ID
// twice replaces the earlier record.
func (l *Ledger) Record(ctx context.Context, sheet model.SheetResult) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM placements WHERE sheet_id = ?`, sheet.ID); err != nil {
		return fmt.Errorf("failed to clear placements: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sheets
			(sheet_id, sheet_index, collection, path, strategy, canvas_width, canvas_height, row_count, stamp_count, fill, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sheet.ID, sheet.Index, sheet.Collection, sheet.Path, string(sheet.Strategy),
		sheet.Canvas.Width, sheet.Canvas.Height, sheet.Rows, len(sheet.Placements),
		sheet.Efficiency(), sheet.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record sheet %s: %w", sheet.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO placements (sheet_id, stamp_id, x, y, width, height) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare placement insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range sheet.Placements {
		if _, err := stmt.ExecContext(ctx, sheet.ID, p.StampID, p.X, p.Y, p.Width, p.Height); err != nil {
			return fmt.Errorf("failed to record stamp %s: %w", p.StampID, err)
		}
	}
	return tx.Commit()
}

const entryColumns = `sheet_id, sheet_index, collection, path, strategy, canvas_width, canvas_height, row_count, stamp_count, fill, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var strategy string
	var created int64
	err := s.Scan(&e.ID, &e.Index, &e.Collection, &e.Path, &strategy,
		&e.Canvas.Width, &e.Canvas.Height, &e.Rows, &e.Stamps, &e.Fill, &created)
	if err != nil {
		return Entry{}, err
	}
	e.Strategy = model.Strategy(strategy)
	e.CreatedAt = time.UnixMilli(created).UTC()
	return e, nil
}

// List returns the most recent sheets first. limit <= 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM sheets ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sheet returns one recorded sheet.
func (l *Ledger) Sheet(ctx context.Context, id string) (Entry, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM sheets WHERE sheet_id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("sheet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read sheet %s: %w", id, err)
	}
	return e, nil
}

// Placements returns the stamps of a sheet in the order they were recorded.
// The returned items carry no image.
func (l *Ledger) Placements(ctx context.Context, sheetID string) ([]model.PlacedItem, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT stamp_id, x, y, width, height FROM placements WHERE sheet_id = ? ORDER BY rowid`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list placements: %w", err)
	}
	defer rows.Close()

	var items []model.PlacedItem
	for rows.Next() {
		var p model.PlacedItem
		if err := rows.Scan(&p.StampID, &p.X, &p.Y, &p.Width, &p.Height); err != nil {
			return nil, fmt.Errorf("failed to read placement: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Locate finds the sheet a stamp was placed on.
func (l *Ledger) Locate(ctx context.Context, stampID string) (Location, error) {
	var loc Location
	var sheetID string
	err := l.db.QueryRowContext(ctx, `
		SELECT sheet_id, stamp_id, x, y, width, height FROM placements
		WHERE stamp_id = ? ORDER BY rowid DESC LIMIT 1`, stampID,
	).Scan(&sheetID, &loc.Placement.StampID, &loc.Placement.X, &loc.Placement.Y,
		&loc.Placement.Width, &loc.Placement.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return Location{}, fmt.Errorf("stamp %s: %w", stampID, ErrNotFound)
	}
	if err != nil {
		return Location{}, fmt.Errorf("failed to locate stamp %s: %w", stampID, err)
	}
	loc.Sheet, err = l.Sheet(ctx, sheetID)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}
