package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/adapters/database"
	"github.com/docpoint/docpoint-backend/internal/application/services"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/observability"
	"github.com/docpoint/docpoint-backend/pkg/config"
)

// Recomputes slot booking counts from the appointment ledger. Run after
// incidents or migrations; safe to run at any time because the result is the
// same no matter how often it runs.
func main() {
	var doctorID string
	var fromDate string
	var toDate string

	flag.StringVar(&doctorID, "doctor", "", "Single doctor ID to resync (default: all active doctors)")
	flag.StringVar(&fromDate, "from", "", "Start date, YYYY-MM-DD (default: today)")
	flag.StringVar(&toDate, "to", "", "End date, YYYY-MM-DD (default: end of the booking horizon)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-resync", cfg.Server.Env)

	if fromDate == "" {
		fromDate = time.Now().UTC().Format(entities.DateLayout)
	}
	if toDate == "" {
		toDate = time.Now().UTC().AddDate(0, 0, cfg.Booking.HorizonDays-1).Format(entities.DateLayout)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	slotRepo := database.NewSlotAdapter(pgClient)
	appointmentRepo := database.NewAppointmentAdapter(pgClient)
	doctorRepo := database.NewDoctorAdapter(pgClient)

	reconciler := services.NewCapacityReconciler(slotRepo, appointmentRepo)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	var doctorIDs []string
	if doctorID != "" {
		doctorIDs = []string{doctorID}
	} else {
		doctors, err := doctorRepo.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list doctors")
		}
		for _, doctor := range doctors {
			doctorIDs = append(doctorIDs, doctor.ID)
		}
	}

	corrected := 0
	for _, id := range doctorIDs {
		n, err := reconciler.ResyncDoctor(ctx, id, fromDate, toDate)
		corrected += n
		if err != nil {
			log.Fatal().Err(err).Str("doctor_id", id).Int("corrected", corrected).Msg("resync aborted")
		}
	}

	log.Info().
		Int("doctors", len(doctorIDs)).
		Int("corrected", corrected).
		Str("from", fromDate).
		Str("to", toDate).
		Dur("elapsed", time.Since(start)).
		Msg("resync complete")
}
