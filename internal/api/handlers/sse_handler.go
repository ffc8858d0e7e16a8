package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/providers"
)

// SSEHandler streams slot events so dashboards can re-fetch availability the
// moment a booking lands instead of polling
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: 30 * time.Second,
	}
}

// StreamDoctorUpdates handles GET /api/stream/doctors/{id}. Events carry only
// the slot key and event type; clients re-read availability for the payload.
func (h *SSEHandler) StreamDoctorUpdates(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	channel := providers.GetDoctorChannel(doctorID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to slot events")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe to updates")
		return
	}
	defer func() {
		if err := h.eventBus.Unsubscribe(r.Context(), channel); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("failed to unsubscribe from slot events")
		}
	}()

	h.sendEvent(w, "connected", map[string]interface{}{
		"doctor_id": doctorID,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("doctor_id", doctorID).Msg("slot event stream closed by client")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, open := <-eventChan:
			if !open {
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// sendEvent writes a single SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal SSE event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
