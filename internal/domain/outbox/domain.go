package outbox

import (
	"context"
	"time"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

type Kind int

const (
	KindUserRegistered Kind = 1
	KindContentCreated Kind = 2
	KindContentUpdated Kind = 3
	KindContentDeleted Kind = 4
)

// String is the event type name used on the wire.
func (k Kind) String() string {
	switch k {
	case KindUserRegistered:
		return "user.registered"
	case KindContentCreated:
		return "content.created"
	case KindContentUpdated:
		return "content.updated"
	case KindContentDeleted:
		return "content.deleted"
	default:
		return "unknown"
	}
}

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tracestate     string
	Traceparent    string
	Baggage        string
}

type Repository interface {
	// Enqueue joins the transaction carried by ctx, if any.
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error

	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)

	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)

// Transactor runs fn so that every repository call made with the derived
// context shares one database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
