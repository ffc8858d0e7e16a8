package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
)

// publishSlotEvent fans a slot event out to the doctor's channel, for
// clients streaming that calendar, and to the global channel, for
// cross-process listeners like cache invalidation. Publish failures are
// logged and swallowed; the mutation already committed.
func publishSlotEvent(ctx context.Context, eventBus providers.EventBus, event *entities.SlotEvent) {
	if eventBus == nil {
		return
	}

	for _, channel := range []string{
		providers.GetDoctorChannel(event.DoctorID),
		providers.EventChannelSlotUpdates,
	} {
		if err := eventBus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).
				Str("channel", channel).
				Str("doctor_id", event.DoctorID).
				Msg("failed to publish slot event")
		}
	}
}
