// Package client is a resilient Go client for the catalog gRPC read API, used by the stock alert consumer.
package client

import (
	"context"
	"fmt"

	pb "github.com/loja/cadastroprodutos/pkg/api/catalog/v1"
	"github.com/loja/cadastroprodutos/pkg/client/grpc/interceptors"
	"github.com/loja/cadastroprodutos/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const breakerName = "catalog-product-client"

type Client struct {
	conn *grpc.ClientConn
	api  pb.ProductServiceClient
}

// New dials cfg.Addr lazily. Each attempt is bounded by cfg.Timeout, transient failures are retried
// and a circuit breaker guards the connection. Extra dial options are appended last.
func New(cfg config.ProductClientConfig, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(interceptors.NewClientChain(breakerName, cfg)...),
	}
	conn, err := grpc.NewClient(cfg.Addr, append(dialOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return &Client{conn: conn, api: pb.NewProductServiceClient(conn)}, nil
}

// GetProducts returns the products with the given ids, failing with codes.NotFound if any is missing.
func (c *Client) GetProducts(ctx context.Context, ids ...int64) ([]*pb.Product, error) {
	res, err := c.api.GetProduct(ctx, &pb.GetProductRequest{Products: ids})
	if err != nil {
		return nil, err
	}
	return res.Products, nil
}

// ListProducts returns the zero-based page. A zero size selects the server default.
func (c *Client) ListProducts(ctx context.Context, page, size int32) (*pb.ListProductsResponse, error) {
	return c.api.ListProducts(ctx, &pb.ListProductsRequest{Page: page, Size: size})
}

func (c *Client) Close() error {
	return c.conn.Close()
}
