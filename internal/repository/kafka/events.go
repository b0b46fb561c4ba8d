package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/NordCoder/Vidrate/internal/domain/content"
	domainkafka "github.com/NordCoder/Vidrate/internal/domain/kafka"
	"github.com/NordCoder/Vidrate/internal/domain/user"
	"github.com/oklog/ulid/v2"
)

// Envelope is the JSON value of every message on the events topic.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

type Events struct {
	p *Producer
}

var _ domainkafka.Events = (*Events)(nil)

func NewEvents(p *Producer) *Events { return &Events{p: p} }

func (e *Events) PublishUserRegistered(ctx context.Context, ev user.RegisteredEvent) error {
	return e.publish(ctx, []byte(ev.UserID), "user.registered", ev.RegisteredAt, ev)
}

func (e *Events) PublishContentEvent(ctx context.Context, eventType string, ev content.Event) error {
	return e.publish(ctx, KeyFromInt64(ev.ContentID), eventType, ev.At, ev)
}

func (e *Events) publish(ctx context.Context, key []byte, eventType string, at time.Time, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	value, err := json.Marshal(Envelope{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Data:       raw,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return e.p.Publish(ctx, key, eventType, value)
}

func KeyFromInt64(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
