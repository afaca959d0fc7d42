package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/repositories"
	"github.com/carevoice/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carevoice/backend/pkg/errors"
	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CheckInAdapter implements CheckInRepository
type CheckInAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCheckInAdapter creates a new check-in adapter
func NewCheckInAdapter(client *postgres.Client) repositories.CheckInRepository {
	return &CheckInAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var checkinColumns = []interface{}{
	"id", "checkin_id", "call_record_id", "user_id", "checkin_type",
	"summary", "raw_content", "sentiment", "topics",
	"has_medications", "has_nutrition", "has_symptoms",
	"is_processed", "processed_at", "model_used", "status",
	"created_at", "updated_at",
}

// GetByCallRecordID retrieves the check-in linked to a call record
func (a *CheckInAdapter) GetByCallRecordID(ctx context.Context, callRecordID string) (*entities.CheckIn, error) {
	return a.getByField(ctx, "call_record_id", callRecordID)
}

// GetByCheckinID retrieves a check-in by its natural identifier
func (a *CheckInAdapter) GetByCheckinID(ctx context.Context, checkinID string) (*entities.CheckIn, error) {
	return a.getByField(ctx, "checkin_id", checkinID)
}

func (a *CheckInAdapter) getByField(ctx context.Context, field, value string) (*entities.CheckIn, error) {
	query, args, err := a.db.Select(checkinColumns...).
		From("checkins").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	checkin, err := scanCheckIn(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("checkin with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get checkin", err)
	}

	return checkin, nil
}

// SaveCallResult writes everything the persistence stage produces for one
// call in a single transaction: the check-in upsert keyed by the call
// reference, the extracted health entries, and the call's processed flag.
// Either all of it lands or none of it does.
func (a *CheckInAdapter) SaveCallResult(ctx context.Context, input *repositories.SaveCallResultInput) (*entities.CheckIn, error) {
	if input == nil || input.Call == nil || input.Result == nil || input.Result.CheckinSummary == nil {
		return nil, apperrors.NewValidationError("save call result requires call and extraction result")
	}

	call := input.Call
	medications := filterMedications(input.Result.Medications)
	foods := filterFoods(input.Result.Foods)
	symptoms := filterSymptoms(input.Result.Symptoms)

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}

	checkin, err := a.upsertCheckIn(ctx, tx, input, medications, foods, symptoms)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := a.insertEntries(ctx, tx, checkin, call, medications, foods, symptoms); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := a.markCallProcessed(ctx, tx, call.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit persistence transaction", err)
	}

	return checkin, nil
}

func (a *CheckInAdapter) upsertCheckIn(
	ctx context.Context,
	tx *sql.Tx,
	input *repositories.SaveCallResultInput,
	medications []entities.MedicationMention,
	foods []entities.FoodMention,
	symptoms []entities.SymptomMention,
) (*entities.CheckIn, error) {
	call := input.Call
	summary := input.Result.CheckinSummary
	now := time.Now()
	processedAt := input.ProcessedAt
	if processedAt.IsZero() {
		processedAt = now
	}

	selectQuery, selectArgs, err := a.db.Select(checkinColumns...).
		From("checkins").
		Where(goqu.Ex{"call_record_id": call.ID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build checkin lookup query", err)
	}

	existing, err := scanCheckIn(tx.QueryRowContext(ctx, selectQuery, selectArgs...))
	if err != nil && err != sql.ErrNoRows {
		return nil, apperrors.NewInternalError("failed to look up checkin", err)
	}

	topics := summary.Topics
	if topics == nil {
		topics = []string{}
	}

	if existing != nil {
		record := goqu.Record{
			"summary":         summary.Summary,
			"sentiment":       summary.Sentiment,
			"topics":          pq.Array(topics),
			"has_medications": len(medications) > 0,
			"has_nutrition":   len(foods) > 0,
			"has_symptoms":    len(symptoms) > 0,
			"is_processed":    true,
			"processed_at":    processedAt,
			"model_used":      input.ModelUsed,
			"updated_at":      now,
		}

		updateQuery, updateArgs, err := a.db.Update("checkins").
			Set(record).
			Where(goqu.Ex{"id": existing.ID}).
			ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build checkin update query", err)
		}
		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return nil, apperrors.NewInternalError("failed to update checkin", err)
		}

		existing.Summary = summary.Summary
		existing.Sentiment = summary.Sentiment
		existing.Topics = topics
		existing.HasMedications = len(medications) > 0
		existing.HasNutrition = len(foods) > 0
		existing.HasSymptoms = len(symptoms) > 0
		existing.IsProcessed = true
		existing.ProcessedAt = &processedAt
		existing.ModelUsed = input.ModelUsed
		existing.UpdatedAt = now
		return existing, nil
	}

	rawContent := ""
	if input.Transcript != nil {
		rawContent = input.Transcript.Content
	}

	checkin := &entities.CheckIn{
		ID:             uuid.NewString(),
		CheckinID:      summary.ID,
		CallRecordID:   &call.ID,
		UserID:         call.UserID,
		Type:           entities.CheckInTypeCall,
		Summary:        summary.Summary,
		RawContent:     rawContent,
		Sentiment:      summary.Sentiment,
		Topics:         topics,
		HasMedications: len(medications) > 0,
		HasNutrition:   len(foods) > 0,
		HasSymptoms:    len(symptoms) > 0,
		IsProcessed:    true,
		ProcessedAt:    &processedAt,
		ModelUsed:      input.ModelUsed,
		Status:         entities.CheckInStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	record := goqu.Record{
		"id":              checkin.ID,
		"checkin_id":      checkin.CheckinID,
		"call_record_id":  call.ID,
		"user_id":         checkin.UserID,
		"checkin_type":    string(checkin.Type),
		"summary":         checkin.Summary,
		"raw_content":     checkin.RawContent,
		"sentiment":       checkin.Sentiment,
		"topics":          pq.Array(topics),
		"has_medications": checkin.HasMedications,
		"has_nutrition":   checkin.HasNutrition,
		"has_symptoms":    checkin.HasSymptoms,
		"is_processed":    checkin.IsProcessed,
		"processed_at":    processedAt,
		"model_used":      checkin.ModelUsed,
		"status":          string(checkin.Status),
		"created_at":      checkin.CreatedAt,
		"updated_at":      checkin.UpdatedAt,
	}

	insertQuery, insertArgs, err := a.db.Insert("checkins").Rows(record).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build checkin insert query", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return nil, apperrors.NewInternalError("failed to create checkin", err)
	}

	return checkin, nil
}

func (a *CheckInAdapter) insertEntries(
	ctx context.Context,
	tx *sql.Tx,
	checkin *entities.CheckIn,
	call *entities.CallRecord,
	medications []entities.MedicationMention,
	foods []entities.FoodMention,
	symptoms []entities.SymptomMention,
) error {
	now := time.Now()

	for _, m := range medications {
		entry := entities.MedicationEntry{
			ID:           uuid.NewString(),
			CheckinID:    checkin.ID,
			UserID:       call.UserID,
			CallRecordID: &call.ID,
			Name:         strings.TrimSpace(m.Name),
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Timing:       m.Timing,
			CreatedAt:    now,
		}
		query, args, err := a.db.Insert("medication_entries").Rows(entry).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build medication insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create medication entry", err)
		}
	}

	for _, f := range foods {
		entry := entities.FoodLogEntry{
			ID:           uuid.NewString(),
			CheckinID:    checkin.ID,
			UserID:       call.UserID,
			CallRecordID: &call.ID,
			Name:         strings.TrimSpace(f.Name),
			Quantity:     f.Quantity,
			Calories:     f.Calories,
			MealType:     f.MealType,
			CreatedAt:    now,
		}
		query, args, err := a.db.Insert("food_log_entries").Rows(entry).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build food insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create food log entry", err)
		}
	}

	for _, s := range symptoms {
		entry := entities.SymptomEntry{
			ID:           uuid.NewString(),
			CheckinID:    checkin.ID,
			UserID:       call.UserID,
			CallRecordID: &call.ID,
			Name:         strings.TrimSpace(s.Name),
			Severity:     s.Severity,
			Duration:     s.Duration,
			Notes:        s.Notes,
			CreatedAt:    now,
		}
		query, args, err := a.db.Insert("symptom_entries").Rows(entry).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build symptom insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create symptom entry", err)
		}
	}

	return nil
}

func (a *CheckInAdapter) markCallProcessed(ctx context.Context, tx *sql.Tx, callRecordID string) error {
	query, args, err := a.db.Update("call_records").
		Set(goqu.Record{"processed": true}).
		Where(goqu.Ex{"id": callRecordID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build processed update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to mark call processed", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("call record %s not found", callRecordID))
	}

	return nil
}

func filterMedications(mentions []entities.MedicationMention) []entities.MedicationMention {
	filtered := make([]entities.MedicationMention, 0, len(mentions))
	for _, m := range mentions {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

func filterFoods(mentions []entities.FoodMention) []entities.FoodMention {
	filtered := make([]entities.FoodMention, 0, len(mentions))
	for _, f := range mentions {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered
}

func filterSymptoms(mentions []entities.SymptomMention) []entities.SymptomMention {
	filtered := make([]entities.SymptomMention, 0, len(mentions))
	for _, s := range mentions {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func scanCheckIn(row rowScanner) (*entities.CheckIn, error) {
	checkin := &entities.CheckIn{}
	var callRecordID, userID sql.NullString
	var checkinType, status string
	var processedAt sql.NullTime

	err := row.Scan(
		&checkin.ID,
		&checkin.CheckinID,
		&callRecordID,
		&userID,
		&checkinType,
		&checkin.Summary,
		&checkin.RawContent,
		&checkin.Sentiment,
		pq.Array(&checkin.Topics),
		&checkin.HasMedications,
		&checkin.HasNutrition,
		&checkin.HasSymptoms,
		&checkin.IsProcessed,
		&processedAt,
		&checkin.ModelUsed,
		&status,
		&checkin.CreatedAt,
		&checkin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if callRecordID.Valid {
		checkin.CallRecordID = &callRecordID.String
	}
	if userID.Valid {
		checkin.UserID = &userID.String
	}
	if processedAt.Valid {
		checkin.ProcessedAt = &processedAt.Time
	}
	checkin.Type = entities.CheckInType(checkinType)
	checkin.Status = entities.CheckInStatus(status)

	return checkin, nil
}
