package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"procintel/internal/logging"
	"procintel/internal/types"
)

// nextPosition returns the position after the last row of table.
func nextPosition(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	var pos sql.NullInt64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(position) FROM %s", table)).Scan(&pos); err != nil {
		return 0, fmt.Errorf("max position %s: %w", table, err)
	}
	if !pos.Valid {
		return 0, nil
	}
	return int(pos.Int64) + 1, nil
}

// UpsertProcess inserts or updates a process. New records are appended; an
// existing record keeps its position. The collection follows the exit date.
func (s *LocalStore) UpsertProcess(ctx context.Context, p types.ProcessRecord) error {
	if p.ID == "" {
		return fmt.Errorf("upsert process: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	pos, err := nextPosition(ctx, tx, "processes")
	if err != nil {
		return err
	}
	collection := collectionActive
	if p.IsCompleted() {
		collection = collectionCompleted
	}
	if err := insertProcess(ctx, tx, p, collection, pos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logging.StoreDebug("Upserted process %s (%s)", p.ID, collection)
	return nil
}

// DeleteProcess removes a process by ID.
func (s *LocalStore) DeleteProcess(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "processes", id)
}

// CompleteProcess stamps an exit date on a stored process and moves it to
// the completed collection.
func (s *LocalStore) CompleteProcess(ctx context.Context, id string, exit time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE processes SET exit_date = ?, collection = ? WHERE id = ?",
		encodeTime(exit), collectionCompleted, id)
	if err != nil {
		return fmt.Errorf("complete process %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete process %s: %w", id, ErrNotFound)
	}
	logging.Store("Process %s completed", id)
	return nil
}

// CompleteByKey completes the process whose ID or SEI is key. An exit before
// the arrival date is rejected with a data-quality error.
func (s *LocalStore) CompleteByKey(ctx context.Context, key string, exit time.Time) (types.ProcessRecord, error) {
	p, err := s.GetProcess(ctx, key)
	if err != nil {
		return p, err
	}
	p.ExitDate = &exit
	if err := p.Validate(); err != nil {
		return p, err
	}
	if err := s.CompleteProcess(ctx, p.ID, exit); err != nil {
		return p, err
	}
	return p, nil
}

// UpsertBidding inserts or updates a bidding record. A status that differs
// from the stored one stamps UpdatedAt with the current time.
func (s *LocalStore) UpsertBidding(ctx context.Context, b types.BiddingRecord) error {
	if b.ID == "" {
		return fmt.Errorf("upsert bidding: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	pos, err := nextPosition(ctx, tx, "biddings")
	if err != nil {
		return err
	}
	prev, found, err := storedState(ctx, tx, b.ID)
	if err != nil {
		return err
	}
	stampStatus(&b, prev, found, s.clock())
	if err := insertBidding(ctx, tx, b, pos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logging.StoreDebug("Upserted bidding %s", b.ID)
	return nil
}

// SetBiddingStatus changes the status of the bidding whose ID or SEI is key
// and returns the updated record.
func (s *LocalStore) SetBiddingStatus(ctx context.Context, key, status string) (types.BiddingRecord, error) {
	b, err := s.GetBidding(ctx, key)
	if err != nil {
		return b, err
	}
	b.Status = strings.TrimSpace(status)
	if err := s.UpsertBidding(ctx, b); err != nil {
		return b, err
	}
	updated, err := s.GetBidding(ctx, b.ID)
	if err != nil {
		return b, err
	}
	logging.Store("Bidding %s status set to %q", b.SEI, b.Status)
	return updated, nil
}

// GetProcess returns the process whose ID or SEI is key.
func (s *LocalStore) GetProcess(ctx context.Context, key string) (types.ProcessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+processColumns+" FROM processes WHERE id = ? OR sei = ? ORDER BY position LIMIT 1", key, key)
	p, _, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("process %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("get process %s: %w", key, err)
	}
	return p, nil
}

// GetBidding returns the bidding whose ID or SEI is key.
func (s *LocalStore) GetBidding(ctx context.Context, key string) (types.BiddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+biddingColumns+" FROM biddings WHERE id = ? OR sei = ? ORDER BY position LIMIT 1", key, key)
	b, err := scanBidding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return b, fmt.Errorf("bidding %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return b, fmt.Errorf("get bidding %s: %w", key, err)
	}
	return b, nil
}

// DeleteBidding removes a bidding record by ID.
func (s *LocalStore) DeleteBidding(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "biddings", id)
}

func (s *LocalStore) deleteByID(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
	}
	logging.StoreDebug("Deleted %s %s", table, id)
	return nil
}

// =============================================================================
// STATUS STAMPS
// =============================================================================

type biddingState struct {
	status    string
	updatedAt *time.Time
}

// priorStates indexes stored biddings by ID and by SEI. Re-imports assign new
// IDs, so the SEI is the fallback key.
type priorStates struct {
	byID  map[string]biddingState
	bySEI map[string]biddingState
}

func (p priorStates) lookup(b types.BiddingRecord) (biddingState, bool) {
	if st, ok := p.byID[b.ID]; ok {
		return st, true
	}
	if b.SEI == "" {
		return biddingState{}, false
	}
	st, ok := p.bySEI[b.SEI]
	return st, ok
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func biddingStates(ctx context.Context, q queryer) (priorStates, error) {
	out := priorStates{byID: make(map[string]biddingState), bySEI: make(map[string]biddingState)}
	rows, err := q.QueryContext(ctx, "SELECT id, sei, status, updated_at FROM biddings ORDER BY position")
	if err != nil {
		return out, fmt.Errorf("query bidding states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, sei string
		var st biddingState
		var updated sql.NullString
		if err := rows.Scan(&id, &sei, &st.status, &updated); err != nil {
			return out, fmt.Errorf("scan bidding state: %w", err)
		}
		if st.updatedAt, err = decodeTimePtr(updated); err != nil {
			return out, fmt.Errorf("bidding %s updated_at: %w", id, err)
		}
		out.byID[id] = st
		if _, seen := out.bySEI[sei]; sei != "" && !seen {
			out.bySEI[sei] = st
		}
	}
	return out, rows.Err()
}

func storedState(ctx context.Context, q queryer, id string) (biddingState, bool, error) {
	var st biddingState
	var updated sql.NullString
	err := q.QueryRowContext(ctx, "SELECT status, updated_at FROM biddings WHERE id = ?", id).Scan(&st.status, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("bidding %s state: %w", id, err)
	}
	if st.updatedAt, err = decodeTimePtr(updated); err != nil {
		return st, false, fmt.Errorf("bidding %s updated_at: %w", id, err)
	}
	return st, true, nil
}

// stampStatus sets b.UpdatedAt to now when its status differs from the stored
// one. An unchanged status keeps the stored stamp unless b carries its own.
func stampStatus(b *types.BiddingRecord, prev biddingState, found bool, now time.Time) {
	if !found {
		return
	}
	if strings.TrimSpace(b.Status) != strings.TrimSpace(prev.status) {
		b.UpdatedAt = &now
		return
	}
	if b.UpdatedAt == nil {
		b.UpdatedAt = prev.updatedAt
	}
}

// =============================================================================
// QUERY LOG
// =============================================================================

// QueryLogEntry is one answered question.
type QueryLogEntry struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Intent    string    `json:"intent"`
	Rule      string    `json:"rule,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogQuery records an answered question.
func (s *LocalStore) LogQuery(ctx context.Context, query, intent, rule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO query_log (query, intent, rule, created_at) VALUES (?, ?, ?, ?)",
		query, intent, rule, encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("log query: %w", err)
	}
	return nil
}

// RecentQueries returns up to n logged questions, newest first.
func (s *LocalStore) RecentQueries(ctx context.Context, n int) ([]QueryLogEntry, error) {
	if n <= 0 {
		n = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, query, intent, rule, created_at FROM query_log ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	var out []QueryLogEntry
	for rows.Next() {
		var e QueryLogEntry
		var created string
		if err := rows.Scan(&e.ID, &e.Query, &e.Intent, &e.Rule, &created); err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		if e.CreatedAt, err = decodeTime(created); err != nil {
			return nil, fmt.Errorf("query log %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
