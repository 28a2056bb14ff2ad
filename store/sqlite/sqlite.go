/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Store (allocations, manual adjustments, resources)
  using SQLite. The engine never stores aggregates; these tables hold only
  the facts every report is recomputed from.

INTERFACES IMPLEMENTED:
  generic.AllocationStore: Phase-derived allocations
  generic.AdjustmentStore: Manual weekly overrides
  generic.ResourceStore:   Resource profiles

KEY TABLES:
  resources:          Resource profiles (read-only to the engine in production)
  allocations:        One row per resource × release × phase × range
  manual_adjustments: One row per (resource_id, week_start), enforced UNIQUE

DATES AND NUMBERS:
  Dates are stored as YYYY-MM-DD text so range filters compare as strings.
  Factors and person-days are stored as decimal text, never REAL, so values
  round-trip exactly.

CELL WRITES:
  UpsertManualAdjustment is one INSERT ... ON CONFLICT DO UPDATE statement.
  SQLite applies it atomically, so it does not take the store mutex and
  concurrent writers to the same cell resolve last-writer-wins.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/allocations.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/allocation-engine/generic"
)

const dateFormat = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // guards multi-statement writes against readers

	// Logger receives warnings about unreadable stored values.
	Logger *slog.Logger
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, Logger: slog.Default()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		grade TEXT,
		skill_function TEXT,
		skill_sub_function TEXT,
		profile_ref TEXT,
		active INTEGER NOT NULL DEFAULT 1
	);

	-- Phase-derived allocations, replaced wholesale per release
	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		release_id TEXT NOT NULL,
		phase TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		allocation_factor TEXT NOT NULL,
		allocation_days TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_resource_dates
		ON allocations(resource_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_allocations_release
		ON allocations(release_id);

	-- Manual overrides: at most one per resource-week
	CREATE TABLE IF NOT EXISTS manual_adjustments (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		person_days TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(resource_id, week_start)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ALLOCATIONS (generic.AllocationStore)
// =============================================================================

// ListAllocations builds the WHERE clause from the filter.
func (s *Store) ListAllocations(ctx context.Context, filter generic.AllocationFilter) ([]generic.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if len(filter.ResourceIDs) > 0 {
		where = append(where, "resource_id IN ("+placeholders(len(filter.ResourceIDs))+")")
		for _, id := range filter.ResourceIDs {
			args = append(args, string(id))
		}
	}
	if filter.ReleaseID != nil {
		where = append(where, "release_id = ?")
		args = append(args, string(*filter.ReleaseID))
	}
	if filter.Overlapping != nil {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, filter.Overlapping.End.String(), filter.Overlapping.Start.String())
	}

	query := `
		SELECT id, resource_id, release_id, phase, start_date, end_date,
		       allocation_factor, allocation_days
		FROM allocations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY resource_id, start_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocs []generic.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func scanAllocation(rows *sql.Rows) (generic.Allocation, error) {
	var (
		a                  generic.Allocation
		phase              string
		startDate, endDate string
		factor, days       string
	)
	err := rows.Scan(&a.ID, &a.ResourceID, &a.ReleaseID, &phase, &startDate, &endDate, &factor, &days)
	if err != nil {
		return a, fmt.Errorf("failed to scan allocation: %w", err)
	}
	// Stored dates are trusted; a corrupt row surfaces through CheckIntegrity.
	a.Phase = generic.Phase(phase)
	a.StartDate = parseDate(startDate)
	a.EndDate = parseDate(endDate)
	a.Factor = generic.MustParseDecimal(factor)
	a.Days = generic.MustParseDecimal(days)
	return a, nil
}

// ReplaceReleaseAllocations deletes and re-inserts in one SQL transaction.
func (s *Store) ReplaceReleaseAllocations(ctx context.Context, releaseID generic.ReleaseID, allocs []generic.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM allocations WHERE release_id = ?", string(releaseID)); err != nil {
		return fmt.Errorf("failed to clear release allocations: %w", err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO allocations
		(id, resource_id, release_id, phase, start_date, end_date, allocation_factor, allocation_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare allocation insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range allocs {
		_, err := stmt.ExecContext(ctx,
			string(a.ID),
			string(a.ResourceID),
			string(releaseID),
			string(a.Phase),
			a.StartDate.String(),
			a.EndDate.String(),
			a.Factor.String(),
			a.Days.String(),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return &generic.ValidationError{Field: "id", Message: fmt.Sprintf("duplicate allocation id %s", a.ID)}
			}
			return fmt.Errorf("failed to insert allocation %s: %w", a.ID, err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// MANUAL ADJUSTMENTS (generic.AdjustmentStore)
// =============================================================================

func (s *Store) ListManualAdjustments(ctx context.Context, filter generic.AdjustmentFilter) ([]generic.ManualAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if len(filter.ResourceIDs) > 0 {
		where = append(where, "resource_id IN ("+placeholders(len(filter.ResourceIDs))+")")
		for _, id := range filter.ResourceIDs {
			args = append(args, string(id))
		}
	}
	if filter.Within != nil {
		where = append(where, "week_start BETWEEN ? AND ?")
		args = append(args, filter.Within.Start.String(), filter.Within.End.String())
	}

	query := `SELECT id, resource_id, week_start, person_days, updated_at FROM manual_adjustments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY resource_id, week_start"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query manual adjustments: %w", err)
	}
	defer rows.Close()

	var result []generic.ManualAdjustment
	for rows.Next() {
		var (
			m                    generic.ManualAdjustment
			weekStart, updatedAt string
			personDays           string
		)
		if err := rows.Scan(&m.ID, &m.ResourceID, &weekStart, &personDays, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manual adjustment: %w", err)
		}
		m.WeekStart = parseDate(weekStart)
		m.PersonDays = generic.MustParseDecimal(personDays)
		// The timestamp is informational; a bad one never hides the override.
		if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			s.logger().Warn("unreadable manual adjustment timestamp",
				"adjustment_id", string(m.ID),
				"resource_id", string(m.ResourceID),
				"week_start", weekStart,
				"updated_at", updatedAt,
				"error", err.Error(),
			)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// UpsertManualAdjustment keeps the row id of the first write to the cell.
func (s *Store) UpsertManualAdjustment(ctx context.Context, adj generic.ManualAdjustment) error {
	if adj.ID == "" {
		adj.ID = generic.AdjustmentID(uuid.NewString())
	}
	updatedAt := adj.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_adjustments (id, resource_id, week_start, person_days, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(resource_id, week_start) DO UPDATE SET
			person_days = excluded.person_days,
			updated_at = excluded.updated_at
	`,
		string(adj.ID),
		string(adj.ResourceID),
		adj.WeekStart.String(),
		adj.PersonDays.String(),
		updatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert manual adjustment: %w", err)
	}
	return nil
}

func (s *Store) DeleteManualAdjustment(ctx context.Context, resourceID generic.ResourceID, weekStart generic.TimePoint) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM manual_adjustments WHERE resource_id = ? AND week_start = ?",
		string(resourceID), weekStart.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete manual adjustment: %w", err)
	}
	return nil
}

// =============================================================================
// RESOURCES (generic.ResourceStore)
// =============================================================================

func (s *Store) SaveResource(ctx context.Context, r generic.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, name, grade, skill_function, skill_sub_function, profile_ref, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			grade = excluded.grade,
			skill_function = excluded.skill_function,
			skill_sub_function = excluded.skill_sub_function,
			profile_ref = excluded.profile_ref,
			active = excluded.active
	`,
		string(r.ID), r.Name,
		nullString(r.Grade), nullString(r.SkillFunction), nullString(r.SkillSubFunction),
		nullString(r.ProfileRef), r.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, id generic.ResourceID) (*generic.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, grade, skill_function, skill_sub_function, profile_ref, active
		FROM resources WHERE id = ?
	`, string(id))

	r, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListResources(ctx context.Context) ([]generic.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, grade, skill_function, skill_sub_function, profile_ref, active
		FROM resources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []generic.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (generic.Resource, error) {
	var (
		r                             generic.Resource
		grade, skillFn, skillSub, ref sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Name, &grade, &skillFn, &skillSub, &ref, &r.Active); err != nil {
		return r, err
	}
	r.Grade = grade.String
	r.SkillFunction = skillFn.String
	r.SkillSubFunction = skillSub.String
	r.ProfileRef = ref.String
	return r, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"manual_adjustments", "allocations", "resources"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDate(s string) generic.TimePoint {
	t, _ := time.Parse(dateFormat, s)
	return generic.FromTime(t)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ generic.Store = (*Store)(nil)
