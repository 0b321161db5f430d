package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/oauthcap/internal/models"
	"github.com/desertthunder/oauthcap/internal/shared"
)

// CallbackRepository implements [models.Repository] for [models.CallbackRecord] persistence.
type CallbackRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CallbackRecord] = (*CallbackRepository)(nil)

// NewCallbackRepository creates a new [CallbackRepository] with the given database connection
func NewCallbackRepository(db *sql.DB) *CallbackRepository {
	return &CallbackRepository{db: db}
}

const callbackColumns = `id, sequence, provider, port, has_code, has_state, error, error_description,
	received_at, created_at, updated_at, deleted_at`

// Create inserts a new record with generated ID and sequence
func (r *CallbackRepository) Create(record *models.CallbackRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "callbacks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO callbacks (id, sequence, provider, port, has_code, has_state, error, error_description,
			received_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id, sequence, record.Provider(), record.Port(), record.HasCode(), record.HasState(),
		nullString(record.ErrorCode()), nullString(record.ErrorDescription()),
		record.ReceivedAt(), record.CreatedAt(), record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert callback: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a record by ID, excluding soft-deleted records
func (r *CallbackRepository) Get(id string) (*models.CallbackRecord, error) {
	query := `SELECT ` + callbackColumns + ` FROM callbacks WHERE id = ? AND deleted_at IS NULL`

	record, err := scanCallback(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: callback %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query callback: %w", err)
	}
	return record, nil
}

// Update modifies the error fields and presence flags of an existing record
func (r *CallbackRepository) Update(record *models.CallbackRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE callbacks
		SET provider = ?, port = ?, has_code = ?, has_state = ?, error = ?, error_description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		record.Provider(), record.Port(), record.HasCode(), record.HasState(),
		nullString(record.ErrorCode()), nullString(record.ErrorDescription()), now, record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update callback: %w", err)
	}

	return expectRow(result, record.ID())
}

// Delete soft-deletes a record by ID
func (r *CallbackRepository) Delete(id string) error {
	query := `UPDATE callbacks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete callback: %w", err)
	}

	return expectRow(result, id)
}

// List retrieves records matching criteria, newest first, excluding soft-deleted records.
//
// Supported criteria: "provider" (string), "port" (int), "errors_only" (bool),
// "since" ([time.Time]) and "limit" (int).
func (r *CallbackRepository) List(criteria map[string]any) ([]*models.CallbackRecord, error) {
	query := `SELECT ` + callbackColumns + ` FROM callbacks WHERE deleted_at IS NULL`
	args := []any{}

	if provider, ok := criteria["provider"].(string); ok && provider != "" {
		query += " AND provider = ?"
		args = append(args, provider)
	}

	if port, ok := criteria["port"].(int); ok && port > 0 {
		query += " AND port = ?"
		args = append(args, port)
	}

	if errorsOnly, ok := criteria["errors_only"].(bool); ok && errorsOnly {
		query += " AND error IS NOT NULL"
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND received_at >= ?"
		args = append(args, since)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query callbacks: %w", err)
	}
	defer rows.Close()

	var records []*models.CallbackRecord
	for rows.Next() {
		record, err := scanCallback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan callback: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Count returns the number of live records for provider, or all providers when empty.
func (r *CallbackRepository) Count(provider string) (int, error) {
	query := "SELECT COUNT(*) FROM callbacks WHERE deleted_at IS NULL"
	args := []any{}
	if provider != "" {
		query += " AND provider = ?"
		args = append(args, provider)
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count callbacks: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCallback(s scanner) (*models.CallbackRecord, error) {
	var (
		id               string
		sequence         int
		provider         string
		port             int
		hasCode          bool
		hasState         bool
		errorCode        sql.NullString
		errorDescription sql.NullString
		receivedAt       time.Time
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := s.Scan(&id, &sequence, &provider, &port, &hasCode, &hasState, &errorCode, &errorDescription,
		&receivedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	record := models.NewCallbackRecord(sequence, provider, port)
	record.SetID(id)
	record.SetPresence(hasCode, hasState)
	record.SetError(errorCode.String, errorDescription.String)
	record.SetReceivedAt(receivedAt)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}
	return record, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: callback %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
