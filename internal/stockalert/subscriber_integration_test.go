package stockalert

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/loja/cadastroprodutos/internal/product/events"
	"github.com/loja/cadastroprodutos/internal/stockalert/config"
	pb "github.com/loja/cadastroprodutos/pkg/api/catalog/v1"
	pkgnats "github.com/loja/cadastroprodutos/pkg/nats"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

const skipIntegrationTests = "PRODUCT_SVC_SKIP_INTEGRATION_TESTS"

type stubCatalog struct{}

func (stubCatalog) GetProducts(_ context.Context, ids ...int64) ([]*pb.Product, error) {
	products := make([]*pb.Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, &pb.Product{Id: id, Name: "Caneta"})
	}
	return products, nil
}

func TestStartConsumesQuantityUpdates(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}

	// given
	ctx := context.Background()
	natsContainer, err := tcnats.Run(ctx, "nats:2.11.6-alpine")
	require.NoError(t, err, "Failed to run NATS container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(natsContainer) })
	url, err := natsContainer.ConnectionString(ctx)
	require.NoError(t, err)

	nc, err := pkgnats.NewClient(url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	js, err := pkgnats.NewJetStreamContext(nc)
	require.NoError(t, err)

	// the stream does not exist yet, Start has to create it
	cfg := config.ConsumerConfig{
		Stream:    "PRODUCTS",
		Durable:   "stock-alert-test",
		Batch:     10,
		FetchWait: 500 * time.Millisecond,
		Backoff:   100 * time.Millisecond,
		Workers:   2,
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)

	// when
	go func() { done <- Start(runCtx, js, cfg, NewHandler(0, stubCatalog{}, discard), discard) }()
	require.Eventually(t, func() bool {
		_, err := js.Consumer(ctx, "PRODUCTS", "stock-alert-test")
		return err == nil
	}, 15*time.Second, 100*time.Millisecond)

	publisher := pkgnats.NewNatsPublisher(js)
	for _, q := range []int32{9, 0} {
		require.NoError(t, publisher.Publish(ctx, events.ProductQuantityUpdatedEvent{ProductID: 1, Quantity: q, UpdatedAt: time.Now()}))
	}
	require.NoError(t, publisher.Publish(ctx, events.ProductDeletedEvent{ProductID: 1, DeletedAt: time.Now()}))

	// then
	require.Eventually(t, func() bool {
		consumer, err := js.Consumer(ctx, "PRODUCTS", "stock-alert-test")
		if err != nil {
			return false
		}
		info, err := consumer.Info(ctx)
		return err == nil && info.NumPending == 0 && info.NumAckPending == 0 && info.AckFloor.Consumer == 2
	}, 15*time.Second, 100*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
