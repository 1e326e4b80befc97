package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/oracleai/internal/models"
)

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// ResolutionMessage encodes an event keyed by market ID.
func ResolutionMessage(ev models.ResolutionEvent) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal resolution %d: %w", ev.MarketID, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(ev.MarketID, 10)),
		Value: payload,
		Time:  ev.ResolvedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
			{Key: "cycle_id", Value: []byte(ev.CycleID)},
		},
	}, nil
}

func PublishResolutions(ctx context.Context, writer MessageWriter, events ...models.ResolutionEvent) error {
	if writer == nil || len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := ResolutionMessage(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return writer.WriteMessages(ctx, msgs...)
}

// Publisher adapts a writer to the resolver's recorder interface.
type Publisher struct {
	Writer MessageWriter
}

func (p Publisher) RecordResolution(ctx context.Context, ev models.ResolutionEvent) error {
	return PublishResolutions(ctx, p.Writer, ev)
}
