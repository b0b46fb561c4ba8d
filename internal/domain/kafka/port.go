package kafka

import (
	"context"

	"github.com/NordCoder/Vidrate/internal/domain/content"
	"github.com/NordCoder/Vidrate/internal/domain/user"
)

// Events is the outbound event stream of the rating service.
type Events interface {
	PublishUserRegistered(ctx context.Context, e user.RegisteredEvent) error
	PublishContentEvent(ctx context.Context, eventType string, e content.Event) error
}
