package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/docpoint/docpoint-backend/internal/adapters/database"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	"github.com/docpoint/docpoint-backend/pkg/config"
)

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
				appointment_notifications,
				appointments,
				slots,
				doctors
			CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed doctors
	doctors := []entities.Doctor{
		{ID: uuid.New().String(), Name: "Dr. Adaeze Okonkwo", Email: "a.okonkwo@docpoint.example", Specialization: "General Practice", DefaultPatientLimit: 3, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Dr. Tunde Bakare", Email: "t.bakare@docpoint.example", Specialization: "Pediatrics", DefaultPatientLimit: 2, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Dr. Ngozi Eze", Email: "n.eze@docpoint.example", Specialization: "Cardiology", DefaultPatientLimit: 1, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for _, d := range doctors {
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO doctors (id, name, email, specialization, default_patient_limit, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (email) DO NOTHING
		`, d.ID, d.Name, d.Email, d.Specialization, d.DefaultPatientLimit, d.IsActive, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			log.Printf("Failed to create doctor %s: %v", d.Name, err)
		}
	}

	// 2. Seed morning availability over the booking horizon
	slotRepo := database.NewSlotAdapter(pgClient)

	var slots []*entities.Slot
	today := time.Now().UTC()
	for _, d := range doctors {
		for day := 0; day < cfg.Booking.HorizonDays; day++ {
			date := today.AddDate(0, 0, day).Format(entities.DateLayout)
			for hour := cfg.Booking.DayStartHour; hour <= 12; hour++ {
				slots = append(slots, &entities.Slot{
					DoctorID:     d.ID,
					Date:         date,
					Time:         fmt.Sprintf("%02d:00", hour),
					IsAvailable:  true,
					PatientLimit: d.DefaultPatientLimit,
				})
			}
		}
	}

	if err := slotRepo.UpsertMany(ctx, slots); err != nil {
		log.Fatalf("Failed to seed slots: %v", err)
	}

	log.Printf("Seeded %d doctors and %d slots", len(doctors), len(slots))
}
