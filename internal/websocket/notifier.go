package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"doorstroom/internal/infrastructure"
	"doorstroom/pkg/contracts/domain"
)

// event is the wire envelope for every hub message.
type event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

func marshalEvent(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func mustMarshalEvent(eventType string, data interface{}) []byte {
	payload, err := marshalEvent(eventType, data)
	if err != nil {
		// Only reachable with unmarshalable data, which the envelope
		// types rule out.
		panic(err)
	}
	return payload
}

// Notifier adapts the hub to the service layer's broadcast interface.
type Notifier struct {
	hub    *Hub
	logger *slog.Logger
}

// NewNotifier creates a hub-backed notifier.
func NewNotifier(hub *Hub, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Notifier{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket.notifier")),
	}
}

// BroadcastDatasetUpdated tells the session's clients a new dataset landed.
func (n *Notifier) BroadcastDatasetUpdated(sessionID string, result domain.UploadResult) {
	payload, err := marshalEvent(TypeDatasetUpdated, result)
	if err != nil {
		n.logger.Error("failed to marshal dataset event", slog.String("error", err.Error()))
		return
	}
	n.hub.Broadcast(sessionID, payload)
}

// BroadcastFiltersUpdated tells the session's clients the selection changed.
func (n *Notifier) BroadcastFiltersUpdated(sessionID string, selection domain.FilterSelection) {
	payload, err := marshalEvent(TypeFiltersUpdated, selection)
	if err != nil {
		n.logger.Error("failed to marshal filters event", slog.String("error", err.Error()))
		return
	}
	n.hub.Broadcast(sessionID, payload)
}
