package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// CacheWarmingService keeps the hot slot lists cached so dashboard loads do
// not all fall through to Postgres after a deploy or a cache flush. It reads
// through the cached slot repository, which stores what it reads.
type CacheWarmingService struct {
	doctorRepo repositories.DoctorRepository
	slotRepo   repositories.SlotRepository
	horizon    int
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	doctorRepo repositories.DoctorRepository,
	slotRepo repositories.SlotRepository,
	horizonDays int,
) *CacheWarmingService {
	return &CacheWarmingService{
		doctorRepo: doctorRepo,
		slotRepo:   slotRepo,
		horizon:    horizonDays,
	}
}

// WarmCache loads the slot list of every active doctor over the booking
// horizon
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return err
	}

	today := time.Now().UTC()
	fromDate := today.Format(entities.DateLayout)
	toDate := today.AddDate(0, 0, s.horizon-1).Format(entities.DateLayout)

	warmed := 0
	for _, doctor := range doctors {
		if _, err := s.slotRepo.ListByDoctor(ctx, doctor.ID, fromDate, toDate); err != nil {
			log.Warn().Err(err).Str("doctor_id", doctor.ID).Msg("failed to warm slot cache")
			continue
		}
		warmed++
	}

	log.Info().Int("doctors", warmed).Msg("slot cache warmed")
	return nil
}

// StartPeriodicWarming warms the cache now and then on every tick until the
// context is cancelled
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.WarmCache(ctx); err != nil {
				log.Warn().Err(err).Msg("periodic cache warming failed")
			}
		}
	}
}
