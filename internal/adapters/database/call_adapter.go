package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/repositories"
	"github.com/carevoice/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carevoice/backend/pkg/errors"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// CallAdapter implements CallRepository
type CallAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCallAdapter creates a new call adapter
func NewCallAdapter(client *postgres.Client) repositories.CallRepository {
	return &CallAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var callColumns = []interface{}{
	"id", "call_id", "user_id", "phone", "direction",
	"duration_seconds", "started_at", "processed", "created_at",
}

// CreateWithTranscript inserts the call record and its transcript in a single
// transaction. Raw rows are immutable afterwards.
func (a *CallAdapter) CreateWithTranscript(ctx context.Context, call *entities.CallRecord, transcript *entities.CallTranscript) error {
	now := time.Now()
	if call.CreatedAt.IsZero() {
		call.CreatedAt = now
	}
	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = now
	}

	callRecord := goqu.Record{
		"id":               call.ID,
		"call_id":          call.CallID,
		"user_id":          call.UserID,
		"phone":            call.Phone,
		"direction":        string(call.Direction),
		"duration_seconds": call.DurationSeconds,
		"started_at":       call.StartedAt,
		"processed":        call.Processed,
		"created_at":       call.CreatedAt,
	}

	callQuery, callArgs, err := a.db.Insert("call_records").Rows(callRecord).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build call insert query", err)
	}

	transcriptRecord := goqu.Record{
		"id":             transcript.ID,
		"call_record_id": call.ID,
		"content":        transcript.Content,
		"summary":        transcript.Summary,
		"language":       transcript.Language,
		"created_at":     transcript.CreatedAt,
	}

	transcriptQuery, transcriptArgs, err := a.db.Insert("call_transcripts").Rows(transcriptRecord).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build transcript insert query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	if _, err := tx.ExecContext(ctx, callQuery, callArgs...); err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to create call record", err)
	}

	if _, err := tx.ExecContext(ctx, transcriptQuery, transcriptArgs...); err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to create call transcript", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit call sync transaction", err)
	}

	return nil
}

// GetByCallID retrieves a call record by its provider-assigned identifier
func (a *CallAdapter) GetByCallID(ctx context.Context, callID string) (*entities.CallRecord, error) {
	return a.getByField(ctx, "call_id", callID)
}

// GetByID retrieves a call record by its database id
func (a *CallAdapter) GetByID(ctx context.Context, id string) (*entities.CallRecord, error) {
	return a.getByField(ctx, "id", id)
}

func (a *CallAdapter) getByField(ctx context.Context, field, value string) (*entities.CallRecord, error) {
	query, args, err := a.db.Select(callColumns...).
		From("call_records").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	call, err := a.scanCall(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("call record with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get call record", err)
	}

	return call, nil
}

// GetTranscript retrieves the transcript owned by a call record
func (a *CallAdapter) GetTranscript(ctx context.Context, callRecordID string) (*entities.CallTranscript, error) {
	query, args, err := a.db.Select(
		"id", "call_record_id", "content", "summary", "language", "created_at",
	).From("call_transcripts").
		Where(goqu.Ex{"call_record_id": callRecordID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build transcript query", err)
	}

	transcript := &entities.CallTranscript{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&transcript.ID,
		&transcript.CallRecordID,
		&transcript.Content,
		&transcript.Summary,
		&transcript.Language,
		&transcript.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transcript for call record %s not found", callRecordID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get transcript", err)
	}

	return transcript, nil
}

// ListUnprocessed retrieves unprocessed calls, oldest first
func (a *CallAdapter) ListUnprocessed(ctx context.Context, limit int) ([]*entities.CallRecord, error) {
	ds := a.db.Select(callColumns...).
		From("call_records").
		Where(goqu.Ex{"processed": false}).
		Order(goqu.I("created_at").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list unprocessed calls", err)
	}
	defer rows.Close()

	var calls []*entities.CallRecord
	for rows.Next() {
		call, err := a.scanCall(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan call record", err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating call records", err)
	}

	return calls, nil
}

// ResetProcessed clears the processed flag for one call or for all processed
// calls when callID is empty. Returns the number of rows reset.
func (a *CallAdapter) ResetProcessed(ctx context.Context, callID string) (int64, error) {
	ds := a.db.Update("call_records").Set(goqu.Record{"processed": false})
	if callID != "" {
		ds = ds.Where(goqu.Ex{"call_id": callID})
	} else {
		ds = ds.Where(goqu.Ex{"processed": true})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build reset query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to reset processed flag", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return affected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *CallAdapter) scanCall(row rowScanner) (*entities.CallRecord, error) {
	call := &entities.CallRecord{}
	var userID sql.NullString
	var direction string

	err := row.Scan(
		&call.ID,
		&call.CallID,
		&userID,
		&call.Phone,
		&direction,
		&call.DurationSeconds,
		&call.StartedAt,
		&call.Processed,
		&call.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		call.UserID = &userID.String
	}
	call.Direction = entities.CallDirection(direction)

	return call, nil
}
