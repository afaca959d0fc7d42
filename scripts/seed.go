package main

import (
	"context"
	"log"
	"os"

	"github.com/carevoice/backend/internal/adapters/database"
	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/infrastructure/clients/postgres"
	"github.com/carevoice/backend/pkg/config"
)

// Seeds demo patients so synced calls resolve to users by phone.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				symptom_entries,
				food_log_entries,
				medication_entries,
				checkins,
				call_transcripts,
				call_records,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to truncate tables: %v", err)
		}
	}

	userRepo := database.NewUserAdapter(pgClient)

	users := []*entities.User{
		{Email: "margaret.chen@example.com", FirstName: "Margaret", LastName: "Chen", Phone: "+15550001111"},
		{Email: "robert.okafor@example.com", FirstName: "Robert", LastName: "Okafor", Phone: "+15550002222"},
		{Email: "dolores.rivera@example.com", FirstName: "Dolores", LastName: "Rivera", Phone: "+15550003333"},
	}

	created := 0
	for _, user := range users {
		if _, err := userRepo.GetByPhone(ctx, user.Phone); err == nil {
			log.Printf("User with phone %s already exists, skipping", user.Phone)
			continue
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", user.Email, err)
		}
		created++
	}

	log.Printf("Seeding complete: %d users created", created)
}
