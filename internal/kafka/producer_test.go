package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	kgo "github.com/segmentio/kafka-go"

	ekafka "openlibrary-explorer/internal/kafka"
	"openlibrary-explorer/internal/models"
	"openlibrary-explorer/mocks"
)

func TestProducerWriteEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	prod := ekafka.NewProducerWithWriter(writer)

	event := models.SearchEvent{
		RequestID:  "req-123",
		Query:      "dune",
		Facet:      models.FacetTitles,
		Limit:      100,
		Hits:       42,
		Outcome:    "ok",
		DurationMS: 120,
		CreatedAt:  time.Unix(0, 0).UTC(),
	}

	writer.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kgo.Message) error {
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			if string(msgs[0].Key) != event.RequestID {
				t.Fatalf("unexpected message key: %s", string(msgs[0].Key))
			}

			var got models.SearchEvent
			if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
				t.Fatalf("failed to decode message: %v", err)
			}
			if got.Query != event.Query || got.Facet != event.Facet || got.Hits != event.Hits || got.Outcome != event.Outcome {
				t.Fatalf("unexpected event payload: %+v", got)
			}
			return nil
		})

	if err := prod.WriteEvent(context.Background(), event); err != nil {
		t.Fatalf("WriteEvent returned error: %v", err)
	}
}

func TestProducerWriteEventError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	prod := ekafka.NewProducerWithWriter(writer)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("write failed"))
	if err := prod.WriteEvent(context.Background(), models.SearchEvent{RequestID: "req-err"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestProducerClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	writer.EXPECT().Close().Return(nil)
	if err := ekafka.NewProducerWithWriter(writer).Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
