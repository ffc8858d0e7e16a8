package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
)

// CacheInvalidationService drops cached slot lists when another process
// mutates a slot. The cached adapter already invalidates its own writes; this
// service covers writes made by other API replicas and the resync job.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for slot events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelSlotUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to slot updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.SlotEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops the cached slot lists of the event's doctor. Stats and
// dashboard responses keep their short TTLs; connected clients get the
// update over the event stream anyway.
func (s *CacheInvalidationService) handleEvent(event *entities.SlotEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateDoctorSlots(ctx, event.DoctorID); err != nil {
		log.Warn().Err(err).
			Str("doctor_id", event.DoctorID).
			Str("event_id", event.ID).
			Msg("failed to invalidate slot cache")
	}
}

// InvalidateDoctorSlots drops every cached slot list for the doctor
func (s *CacheInvalidationService) InvalidateDoctorSlots(ctx context.Context, doctorID string) error {
	pattern := fmt.Sprintf("slots:doctor:%s:*", doctorID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
	}
	return nil
}
