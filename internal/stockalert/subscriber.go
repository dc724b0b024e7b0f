// Package stockalert consumes quantity updates from the product stream and reports products running low.
package stockalert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loja/cadastroprodutos/internal/product/events"
	"github.com/loja/cadastroprodutos/internal/stockalert/config"
	pb "github.com/loja/cadastroprodutos/pkg/api/catalog/v1"
	pkgnats "github.com/loja/cadastroprodutos/pkg/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const meterName = "github.com/loja/cadastroprodutos/internal/stockalert"

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// ProductLookup reads product details from the catalog. client.Client implements it.
type ProductLookup interface {
	GetProducts(ctx context.Context, ids ...int64) ([]*pb.Product, error)
}

// Handler decides whether a quantity update is an alert.
type Handler struct {
	threshold int32
	catalog   ProductLookup
	logger    *slog.Logger
	alerts    metric.Int64Counter
}

func NewHandler(threshold int32, catalog ProductLookup, logger *slog.Logger) *Handler {
	alerts, err := otel.Meter(meterName).Int64Counter("catalog.stock.alerts",
		metric.WithDescription("Quantity updates at or below the alert threshold"))
	if err != nil {
		logger.Warn("Failed to create alerts counter", "error", err)
	}
	return &Handler{
		threshold: threshold,
		catalog:   catalog,
		logger:    logger.With("component", "stockalert"),
		alerts:    alerts,
	}
}

// Handle acks every well-formed event and naks payloads it cannot decode.
// A low quantity raises an alert unless the catalog no longer has the product.
// It reports whether the event raised an alert.
func (h *Handler) Handle(ctx context.Context, msg ackableMsg) bool {
	var event events.ProductQuantityUpdatedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			h.logger.ErrorContext(ctx, "failed to nack message", "error", err)
		}
		return false
	}

	alert := event.Quantity <= h.threshold
	if alert {
		alert = h.raise(ctx, event)
	} else {
		h.logger.DebugContext(ctx, "Quantity update above threshold", "product_id", event.ProductID, "quantity", event.Quantity)
	}

	if err := msg.Ack(); err != nil {
		h.logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
	return alert
}

// raise logs and counts a low stock alert. The product name comes from the catalog; a failed lookup still alerts,
// but a product the catalog reports as gone does not.
func (h *Handler) raise(ctx context.Context, event events.ProductQuantityUpdatedEvent) bool {
	var name string
	products, err := h.catalog.GetProducts(ctx, event.ProductID)
	switch {
	case status.Code(err) == codes.NotFound:
		h.logger.InfoContext(ctx, "Skipping alert for a product no longer in the catalog", "product_id", event.ProductID)
		return false
	case err != nil:
		h.logger.WarnContext(ctx, "Catalog lookup failed, alerting without product details",
			"product_id", event.ProductID, "error", err)
	case len(products) > 0:
		name = products[0].GetName()
	}

	h.logger.WarnContext(ctx, "Product stock is low",
		slog.Int64("product_id", event.ProductID),
		slog.String("name", name),
		slog.Int("quantity", int(event.Quantity)),
		slog.Int("threshold", int(h.threshold)),
		slog.String("updated_at", event.UpdatedAt.Format(time.RFC3339)))
	if h.alerts != nil {
		h.alerts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("out_of_stock", event.Quantity <= 0)))
	}
	return true
}

// Start makes sure the product stream exists, creates or updates the durable consumer
// and runs cfg.Workers fetch loops until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, cfg config.ConsumerConfig, handler *Handler, logger *slog.Logger) error {
	if _, err := pkgnats.EnsureStream(ctx, js, cfg.Stream, events.SubjectPrefix+">"); err != nil {
		return err
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject(),
		Durable:       cfg.Durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", cfg.Durable, err)
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg, handler, logger)
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.ConsumerConfig, handler *Handler, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.FetchWait))
		if err != nil {
			logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
			sleep(ctx, cfg.Backoff)
			continue
		}
		for msg := range batch.Messages() {
			handler.Handle(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.ErrorContext(ctx, "fetch ended with error", "error", err)
			sleep(ctx, cfg.Backoff)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
