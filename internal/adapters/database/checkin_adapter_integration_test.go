//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevoice/backend/internal/adapters/database"
	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/repositories"
	"github.com/carevoice/backend/internal/infrastructure/clients/postgres"
	"github.com/carevoice/backend/pkg/config"
)

func TestCheckInAdapter_SaveCallResult_Integration(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	client := newTestPostgresClient(t)
	defer client.Close()

	db := client.DB()
	runMigrations(t, db, "../../../migrations/001_init.sql")
	cleanupPipelineData(t, db)
	defer cleanupPipelineData(t, db)

	callRepo := database.NewCallAdapter(client)
	checkinRepo := database.NewCheckInAdapter(client)

	call := &entities.CallRecord{
		ID:        "cr-int-1",
		CallID:    "vapi-int-1",
		Phone:     "+15550009999",
		Direction: entities.CallDirectionInbound,
		StartedAt: time.Now().Add(-time.Hour),
	}
	transcript := &entities.CallTranscript{
		ID:           "tr-int-1",
		CallRecordID: call.ID,
		Content:      "I took my lisinopril this morning and had oatmeal for breakfast.",
	}
	ctx := context.Background()
	require.NoError(t, callRepo.CreateWithTranscript(ctx, call, transcript))

	result := &entities.ExtractionResult{
		CheckinSummary: &entities.CheckInSummary{
			ID:        "call_vapi-int-1",
			Type:      "call",
			Summary:   "Patient took medication and ate breakfast.",
			Sentiment: "positive",
			Topics:    []string{"medication", "nutrition"},
		},
		Medications: []entities.MedicationMention{
			{Name: "Lisinopril", Dosage: "10mg"},
			{Name: "   "},
		},
		Foods: []entities.FoodMention{
			{Name: "Oatmeal", MealType: "breakfast"},
		},
		Symptoms: []entities.SymptomMention{
			{Name: "", Severity: "mild"},
		},
	}

	checkin, err := checkinRepo.SaveCallResult(ctx, &repositories.SaveCallResultInput{
		Call:        call,
		Transcript:  transcript,
		Result:      result,
		ModelUsed:   "gpt-4o-mini",
		ProcessedAt: time.Now(),
	})
	require.NoError(t, err)

	t.Run("persists only named entries", func(t *testing.T) {
		assert.Equal(t, 1, countRows(t, db, "medication_entries", checkin.ID))
		assert.Equal(t, 1, countRows(t, db, "food_log_entries", checkin.ID))
		assert.Equal(t, 0, countRows(t, db, "symptom_entries", checkin.ID))

		assert.True(t, checkin.HasMedications)
		assert.True(t, checkin.HasNutrition)
		assert.False(t, checkin.HasSymptoms, "blank symptom name must not count as a symptom")

		var name, dosage string
		err := db.QueryRow(
			"SELECT name, dosage FROM medication_entries WHERE checkin_id = $1", checkin.ID,
		).Scan(&name, &dosage)
		require.NoError(t, err)
		assert.Equal(t, "Lisinopril", name)
		assert.Equal(t, "10mg", dosage)
	})

	t.Run("flips the call processed flag", func(t *testing.T) {
		stored, err := callRepo.GetByID(ctx, call.ID)
		require.NoError(t, err)
		assert.True(t, stored.Processed)
	})

	t.Run("second save updates the existing check-in", func(t *testing.T) {
		rerun := &entities.ExtractionResult{
			CheckinSummary: &entities.CheckInSummary{
				ID:        "call_vapi-int-1",
				Type:      "call",
				Summary:   "Patient reported a mild headache on review.",
				Sentiment: "neutral",
				Topics:    []string{"symptoms"},
			},
			Symptoms: []entities.SymptomMention{
				{Name: "Headache", Severity: "mild"},
			},
		}

		updated, err := checkinRepo.SaveCallResult(ctx, &repositories.SaveCallResultInput{
			Call:        call,
			Transcript:  transcript,
			Result:      rerun,
			ModelUsed:   "gpt-4o-mini",
			ProcessedAt: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, checkin.ID, updated.ID, "reprocessing must update, not insert")

		var total int
		err = db.QueryRow(
			"SELECT COUNT(*) FROM checkins WHERE call_record_id = $1", call.ID,
		).Scan(&total)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		stored, err := checkinRepo.GetByCallRecordID(ctx, call.ID)
		require.NoError(t, err)
		assert.Equal(t, "Patient reported a mild headache on review.", stored.Summary)
		assert.Equal(t, "neutral", stored.Sentiment)
		assert.True(t, stored.HasSymptoms)
		assert.Equal(t, 1, countRows(t, db, "symptom_entries", checkin.ID))
	})
}

func countRows(t *testing.T, db *sql.DB, table, checkinID string) int {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE checkin_id = $1", checkinID).Scan(&count)
	require.NoError(t, err)
	return count
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:     getTestEnv("TEST_DB_HOST", "localhost"),
		Port:     getTestEnvAsInt("TEST_DB_PORT", 5432),
		User:     getTestEnv("TEST_DB_USER", "postgres"),
		Password: getTestEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getTestEnv("TEST_DB_NAME", "carevoice_test"),
		SSLMode:  getTestEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func runMigrations(t *testing.T, db *sql.DB, paths ...string) {
	t.Helper()
	for _, path := range paths {
		migrationSQL, err := os.ReadFile(path)
		require.NoError(t, err)
		_, err = db.Exec(string(migrationSQL))
		require.NoError(t, err)
	}
}

func cleanupPipelineData(t *testing.T, db *sql.DB) {
	t.Helper()
	tables := []string{
		"medication_entries",
		"food_log_entries",
		"symptom_entries",
		"checkins",
		"call_transcripts",
		"call_records",
		"users",
	}
	for _, table := range tables {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func getTestEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getTestEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
