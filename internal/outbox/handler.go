package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Vidrate/internal/domain/content"
	domainkafka "github.com/NordCoder/Vidrate/internal/domain/kafka"
	"github.com/NordCoder/Vidrate/internal/domain/outbox"
	"github.com/NordCoder/Vidrate/internal/domain/user"
	"github.com/NordCoder/Vidrate/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle")
		defer span.End()
		span.SetAttributes(attribute.String("outbox.kind", kind))

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// MakeGlobalOutboxHandler publishes each outbox kind as its event type.
// Payloads that do not decode are permanent failures and are not retried.
func MakeGlobalOutboxHandler(pub domainkafka.Events, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		var base outbox.KindHandler
		switch kind {
		case outbox.KindUserRegistered:
			base = func(ctx context.Context, data []byte) error {
				var ev user.RegisteredEvent
				if err := json.Unmarshal(data, &ev); err != nil {
					return retry.Permanent(fmt.Errorf("unmarshal %s payload: %w", kind, err))
				}
				return pub.PublishUserRegistered(ctx, ev)
			}
		case outbox.KindContentCreated, outbox.KindContentUpdated, outbox.KindContentDeleted:
			base = func(ctx context.Context, data []byte) error {
				var ev content.Event
				if err := json.Unmarshal(data, &ev); err != nil {
					return retry.Permanent(fmt.Errorf("unmarshal %s payload: %w", kind, err))
				}
				return pub.PublishContentEvent(ctx, kind.String(), ev)
			}
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
		return instrument(kind.String(), base, pol), nil
	}
}
