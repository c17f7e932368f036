// Package storage provides the PostgreSQL-backed workflow store.
package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/inkforge/contentflow/pkg/storage"
)

// PostgresStore persists workflow state as JSONB documents keyed by workflow
// id. Mutations run inside a transaction with a row lock, which gives the
// same per-workflow atomicity as the in-memory store's per-entry mutex.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &PostgresStore{db: db}, nil
}

var _ storage.Store = (*PostgresStore)(nil)

type workflowRow struct {
	WorkflowID string    `db:"workflow_id"`
	State      []byte    `db:"state"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *PostgresStore) SaveWorkflow(state models.WorkflowState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "failed to marshal workflow state")
	}
	_, err = s.db.Exec(`
		INSERT INTO workflows (workflow_id, state, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (workflow_id) DO UPDATE SET state = EXCLUDED.state`,
		state.WorkflowID, raw, state.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to save workflow")
	}
	return nil
}

func (s *PostgresStore) GetWorkflow(workflowID string) (models.WorkflowState, error) {
	var row workflowRow
	err := s.db.Get(&row, `SELECT workflow_id, state, created_at FROM workflows WHERE workflow_id = $1`, workflowID)
	if err == sql.ErrNoRows {
		return models.WorkflowState{}, storage.ErrNotFound
	}
	if err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to get workflow")
	}
	return decodeState(row.State)
}

// UpdateWorkflow applies mutate to the stored state atomically. The row is
// locked for the duration of the transaction so concurrent mutators of the
// same workflow serialize instead of losing writes.
func (s *PostgresStore) UpdateWorkflow(workflowID string, mutate func(*models.WorkflowState) error) (models.WorkflowState, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var row workflowRow
	err = tx.Get(&row, `SELECT workflow_id, state, created_at FROM workflows WHERE workflow_id = $1 FOR UPDATE`, workflowID)
	if err == sql.ErrNoRows {
		return models.WorkflowState{}, storage.ErrNotFound
	}
	if err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to lock workflow")
	}

	state, err := decodeState(row.State)
	if err != nil {
		return models.WorkflowState{}, err
	}
	if err := mutate(&state); err != nil {
		return models.WorkflowState{}, err
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to marshal workflow state")
	}
	if _, err := tx.Exec(`UPDATE workflows SET state = $1 WHERE workflow_id = $2`, raw, workflowID); err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to update workflow")
	}
	if err := tx.Commit(); err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to commit transaction")
	}
	return state, nil
}

func (s *PostgresStore) DeleteWorkflow(workflowID string) error {
	res, err := s.db.Exec(`DELETE FROM workflows WHERE workflow_id = $1`, workflowID)
	if err != nil {
		return errors.Wrap(err, "failed to delete workflow")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListWorkflows() ([]models.WorkflowState, error) {
	var rows []workflowRow
	err := s.db.Select(&rows, `SELECT workflow_id, state, created_at FROM workflows ORDER BY created_at ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workflows")
	}
	states := make([]models.WorkflowState, 0, len(rows))
	for _, row := range rows {
		state, err := decodeState(row.State)
		if err != nil {
			// A corrupted row must not hide every other workflow.
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func decodeState(raw []byte) (models.WorkflowState, error) {
	var state models.WorkflowState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to unmarshal workflow state")
	}
	return state, nil
}
