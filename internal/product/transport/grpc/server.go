// Package grpc exposes the product catalog read API over gRPC.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	perrors "github.com/loja/cadastroprodutos/internal/product/errors"
	"github.com/loja/cadastroprodutos/internal/product/service"
	pb "github.com/loja/cadastroprodutos/pkg/api/catalog/v1"
	"github.com/loja/cadastroprodutos/pkg/server"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProductService is the part of the product service the gRPC API reads from.
type ProductService interface {
	FindByIDs(ctx context.Context, ids []int64) ([]service.ProductDto, error)
	FindPage(ctx context.Context, page, size int) (*service.ProductPage, error)
}

type Server struct {
	pb.UnimplementedProductServiceServer
	service ProductService
	logger  *slog.Logger
}

func NewServer(service ProductService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

// Registration returns the function that registers s with a grpc server built by server.NewGRPCServer.
func (s *Server) Registration() server.RegistrationFunc {
	return func(gs *grpc.Server) {
		pb.RegisterProductServiceServer(gs, s)
	}
}

// GetProduct returns every requested product. A single missing id fails the whole call with NotFound.
func (s *Server) GetProduct(ctx context.Context, req *pb.GetProductRequest) (*pb.GetProductResponse, error) {
	if len(req.Products) == 0 {
		return nil, status.Error(codes.InvalidArgument, "at least one product ID is required")
	}
	unique := make(map[int64]struct{}, len(req.Products))
	for _, id := range req.Products {
		if id <= 0 {
			return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", id)
		}
		unique[id] = struct{}{}
	}

	found, err := s.service.FindByIDs(ctx, req.Products)
	if err != nil {
		s.logger.ErrorContext(ctx, "service.FindByIDs failed", "product_ids", req.Products, "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	if len(found) < len(unique) {
		return nil, status.Error(codes.NotFound, "at least one of the products is not found")
	}

	return &pb.GetProductResponse{Products: toMessages(found)}, nil
}

// ListProducts returns one page of the catalog.
func (s *Server) ListProducts(ctx context.Context, req *pb.ListProductsRequest) (*pb.ListProductsResponse, error) {
	size := int(req.Size)
	if size == 0 {
		size = service.DefaultPageSize
	}

	page, err := s.service.FindPage(ctx, int(req.Page), size)
	if err != nil {
		if errors.Is(err, perrors.ErrInvalidPage) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid page %d with size %d", req.Page, size)
		}
		s.logger.ErrorContext(ctx, "service.FindPage failed", "page", req.Page, "size", size, "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return &pb.ListProductsResponse{
		Products:      toMessages(page.Content),
		Page:          int32(page.Page),
		Size:          int32(page.Size),
		TotalElements: page.TotalElements,
		TotalPages:    int32(page.TotalPages),
	}, nil
}

func toMessages(products []service.ProductDto) []*pb.Product {
	out := make([]*pb.Product, 0, len(products))
	for _, p := range products {
		out = append(out, &pb.Product{
			Id:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
		})
	}
	return out
}
