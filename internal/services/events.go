package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=events.go -destination=events_mock.go -package=services

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// publishEvent publishes an account event to Kafka, keyed by user id so
// events of one user stay ordered. Failures are logged and never returned.
func publishEvent(ctx context.Context, w KafkaWriter, userID uuid.UUID, eventType string) {
	evt := models.AccountEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		UserID:    userID.String(),
		Type:      eventType,
	}
	log := logger.FromContext(ctx)

	if w == nil {
		log.Debugw("Kafka writer not configured, skipping publishing", "event_id", evt.EventID, "type", eventType)
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Errorw("Failed to marshal event for Kafka", "event_id", evt.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:     []byte(evt.UserID),
		Value:   data,
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		log.Errorw("Failed to publish event to Kafka", "event_id", evt.EventID, "type", eventType, "error", err)
	} else {
		log.Infow("Event published to Kafka", "event_id", evt.EventID, "type", eventType, "user_id", evt.UserID)
	}
}
