// Package store persists record snapshots in a local SQLite database.
//
// The engine itself never touches storage: surfaces load a snapshot, hand it
// to the engine and write edits back through this package.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"procintel/internal/logging"
	"procintel/internal/types"
)

// ErrNotFound is returned when a record ID does not exist.
var ErrNotFound = errors.New("record not found")

const (
	collectionActive    = "active"
	collectionCompleted = "completed"
)

// LocalStore is a SQLite-backed record store.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	clock  func() time.Time
}

// NewLocalStore opens (creating if needed) the database at path.
func NewLocalStore(path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocalStore")
	defer timer.Stop()

	logging.Store("Initializing LocalStore at path: %s", path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &LocalStore{db: db, dbPath: path, clock: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processes (
		id TEXT PRIMARY KEY,
		sei TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		responsible TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		modality TEXT NOT NULL DEFAULT '',
		arrival_date TEXT NOT NULL DEFAULT '',
		exit_date TEXT,
		observations TEXT NOT NULL DEFAULT '',
		authorized TEXT DEFAULT '',
		collection TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_processes_sei ON processes(sei);
	CREATE INDEX IF NOT EXISTS idx_processes_responsible ON processes(responsible);

	CREATE TABLE IF NOT EXISTS biddings (
		id TEXT PRIMARY KEY,
		seq TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		sei TEXT NOT NULL DEFAULT '',
		preparation TEXT NOT NULL DEFAULT '',
		review TEXT NOT NULL DEFAULT '',
		system TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		updated_at TEXT,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_biddings_sei ON biddings(sei);

	CREATE TABLE IF NOT EXISTS query_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		intent TEXT NOT NULL,
		rule TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SetClock replaces the time source used to stamp status changes.
func (s *LocalStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// Path returns the database path.
func (s *LocalStore) Path() string {
	return s.dbPath
}

// =============================================================================
// DATE ENCODING
// =============================================================================

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

// decodeTime returns stored instants in local time, the zone dates are
// entered and printed in.
func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return t, err
	}
	return t.In(time.Local), nil
}

func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SaveSnapshot replaces every stored record with snap in one transaction.
func (s *LocalStore) SaveSnapshot(ctx context.Context, snap types.Snapshot) error {
	timer := logging.StartTimer(logging.CategoryStore, "SaveSnapshot")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	prior, err := biddingStates(ctx, tx)
	if err != nil {
		return err
	}
	now := s.clock()

	if _, err := tx.ExecContext(ctx, "DELETE FROM processes"); err != nil {
		return fmt.Errorf("clear processes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM biddings"); err != nil {
		return fmt.Errorf("clear biddings: %w", err)
	}

	pos := 0
	for _, set := range []struct {
		name    string
		records []types.ProcessRecord
	}{
		{collectionActive, snap.Processes},
		{collectionCompleted, snap.Completed},
	} {
		for _, p := range set.records {
			if err := insertProcess(ctx, tx, p, set.name, pos); err != nil {
				return err
			}
			pos++
		}
	}
	for i, b := range snap.Biddings {
		prev, found := prior.lookup(b)
		stampStatus(&b, prev, found, now)
		if err := insertBidding(ctx, tx, b, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logging.Store("Saved snapshot: %d active, %d completed, %d biddings",
		len(snap.Processes), len(snap.Completed), len(snap.Biddings))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertProcess(ctx context.Context, ex execer, p types.ProcessRecord, collection string, pos int) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO processes (id, sei, name, responsible, type, modality, arrival_date, exit_date, observations, authorized, collection, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sei = excluded.sei, name = excluded.name, responsible = excluded.responsible,
			type = excluded.type, modality = excluded.modality, arrival_date = excluded.arrival_date,
			exit_date = excluded.exit_date, observations = excluded.observations,
			authorized = excluded.authorized, collection = excluded.collection`,
		p.ID, p.SEI, p.Name, p.Responsible, string(p.Type), string(p.Modality),
		encodeTime(p.ArrivalDate), encodeTimePtr(p.ExitDate), p.Observations, p.Authorizer, collection, pos)
	if err != nil {
		return fmt.Errorf("insert process %s: %w", p.ID, err)
	}
	return nil
}

func insertBidding(ctx context.Context, ex execer, b types.BiddingRecord, pos int) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO biddings (id, seq, description, sei, preparation, review, system, status, notes, updated_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seq = excluded.seq, description = excluded.description, sei = excluded.sei,
			preparation = excluded.preparation, review = excluded.review, system = excluded.system,
			status = excluded.status, notes = excluded.notes, updated_at = excluded.updated_at`,
		b.ID, b.Seq, b.Description, b.SEI, b.Preparer, b.Reviewer, b.SystemOwner, b.Status, b.Notes,
		encodeTimePtr(b.UpdatedAt), pos)
	if err != nil {
		return fmt.Errorf("insert bidding %s: %w", b.ID, err)
	}
	return nil
}

// LoadSnapshot reads every stored record in insertion order. Processes with an
// exit date load as completed; a record saved as completed keeps its
// collection even without one, so data-quality checks see it unchanged.
func (s *LocalStore) LoadSnapshot(ctx context.Context) (types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap types.Snapshot
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+processColumns+`
		FROM processes ORDER BY position, rowid`)
	if err != nil {
		return snap, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, collection, err := scanProcess(rows)
		if err != nil {
			return snap, err
		}
		if p.ExitDate != nil || collection == collectionCompleted {
			snap.Completed = append(snap.Completed, p)
		} else {
			snap.Processes = append(snap.Processes, p)
		}
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate processes: %w", err)
	}

	brows, err := s.db.QueryContext(ctx, `
		SELECT `+biddingColumns+`
		FROM biddings ORDER BY position, rowid`)
	if err != nil {
		return snap, fmt.Errorf("query biddings: %w", err)
	}
	defer brows.Close()

	for brows.Next() {
		b, err := scanBidding(brows)
		if err != nil {
			return snap, err
		}
		snap.Biddings = append(snap.Biddings, b)
	}
	if err := brows.Err(); err != nil {
		return snap, fmt.Errorf("iterate biddings: %w", err)
	}

	logging.StoreDebug("Loaded snapshot: %d active, %d completed, %d biddings",
		len(snap.Processes), len(snap.Completed), len(snap.Biddings))
	return snap, nil
}

const (
	processColumns = "id, sei, name, responsible, type, modality, arrival_date, exit_date, observations, COALESCE(authorized, ''), collection"
	biddingColumns = "id, seq, description, sei, preparation, review, system, status, notes, updated_at"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcess(row rowScanner) (types.ProcessRecord, string, error) {
	var p types.ProcessRecord
	var typ, modality, arrival, collection string
	var exit sql.NullString
	if err := row.Scan(&p.ID, &p.SEI, &p.Name, &p.Responsible, &typ, &modality, &arrival, &exit, &p.Observations, &p.Authorizer, &collection); err != nil {
		return p, "", err
	}
	p.Type = types.ProcessType(typ)
	p.Modality = types.Modality(modality)
	var err error
	if p.ArrivalDate, err = decodeTime(arrival); err != nil {
		return p, "", fmt.Errorf("process %s arrival: %w", p.ID, err)
	}
	if p.ExitDate, err = decodeTimePtr(exit); err != nil {
		return p, "", fmt.Errorf("process %s exit: %w", p.ID, err)
	}
	return p, collection, nil
}

func scanBidding(row rowScanner) (types.BiddingRecord, error) {
	var b types.BiddingRecord
	var updated sql.NullString
	if err := row.Scan(&b.ID, &b.Seq, &b.Description, &b.SEI, &b.Preparer, &b.Reviewer, &b.SystemOwner, &b.Status, &b.Notes, &updated); err != nil {
		return b, err
	}
	var err error
	if b.UpdatedAt, err = decodeTimePtr(updated); err != nil {
		return b, fmt.Errorf("bidding %s updated_at: %w", b.ID, err)
	}
	return b, nil
}
