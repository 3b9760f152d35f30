package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkoutflow/storecredit/internal/checkout/application"
	"github.com/checkoutflow/storecredit/internal/checkout/domain"
	"github.com/checkoutflow/storecredit/pkg/idempotency"
	"github.com/checkoutflow/storecredit/pkg/tracing"
)

// Consumer drives order lifecycle transitions from the storefront's event
// stream. Transition requests are deduplicated by topic/partition/offset;
// a rejected transition (configuration, funding, invalid state) is logged and
// the message committed, since redelivery cannot make it valid.
type Consumer struct {
	log       *slog.Logger
	reader    *kafka.Reader
	lifecycle *application.Lifecycle
	idem      *idempotency.Store
	tracer    trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, lifecycle *application.Lifecycle, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:       log,
		reader:    r,
		lifecycle: lifecycle,
		idem:      idem,
		tracer:    otel.Tracer("lifecycle-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeStateChange")

		var event domain.OrderStateChanged
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Error("unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if _, err := c.lifecycle.Transition(msgCtx, event.OrderID, event.To); err != nil {
			var funding *domain.FundingError
			switch {
			case errors.As(err, &funding):
				c.log.Warn("transition blocked: underfunded", "order_id", event.OrderID, "err", err)
			case errors.Is(err, domain.ErrInvalidTransition):
				c.log.Warn("transition rejected", "order_id", event.OrderID, "to", event.To)
			default:
				c.log.Error("transition failed", "order_id", event.OrderID, "to", event.To, "err", err)
			}
		} else {
			c.log.Info("order transitioned", "order_id", event.OrderID, "to", event.To)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
