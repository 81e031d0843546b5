package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	results "microgrid-scenarios/internal/results/domain"
)

const defaultResultsTable = "scenario_results"

const schema = `
CREATE TABLE IF NOT EXISTS scenario_results (
	run_id TEXT NOT NULL,
	source TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, source)
)`

// Repository persists combined result rows.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, table: defaultResultsTable}
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("results repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveTable stores every row of the table under runID in one transaction.
// Rows from an earlier attempt with the same run id are replaced.
func (r *Repository) SaveTable(ctx context.Context, runID string, table results.Table) error {
	if r == nil || r.db == nil {
		return errors.New("results repo: nil db")
	}
	if runID == "" {
		return errors.New("results repo: run id required")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", r.table), runID); err != nil {
		_ = tx.Rollback()
		return err
	}
	now := time.Now().UTC()
	insert := fmt.Sprintf(`
INSERT INTO %s (run_id, source, row_index, payload, created_at)
VALUES ($1, $2, $3, $4, $5)`, r.table)
	for i, values := range table.Values() {
		payload, err := rowPayload(table.Columns, values)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, runID, table.Rows[i].Source, i, payload, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// CountRows returns how many rows were stored for runID.
func (r *Repository) CountRows(ctx context.Context, runID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("results repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE run_id = $1", r.table), runID).Scan(&count)
	return count, err
}

func rowPayload(columns []string, values []results.Value) ([]byte, error) {
	row := make(map[string]any, len(columns))
	for i, column := range columns {
		row[column] = values[i].Interface()
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("results repo: encode row: %w", err)
	}
	return payload, nil
}
