package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"openlibrary-explorer/internal/models"
)

// MessageReader abstracts kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader creates a consumer-group reader for the search events topic.
func NewReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
	})
}

// DecodeEvent parses a SearchEvent message value.
func DecodeEvent(msg kafka.Message) (models.SearchEvent, error) {
	var event models.SearchEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return models.SearchEvent{}, fmt.Errorf("decode search event at partition=%d offset=%d: %w", msg.Partition, msg.Offset, err)
	}
	return event, nil
}
