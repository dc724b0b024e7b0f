// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"math"
	"time"

	perrors "github.com/loja/cadastroprodutos/internal/product/errors"
	"github.com/loja/cadastroprodutos/internal/product/events"
	"github.com/loja/cadastroprodutos/internal/product/store"
	"github.com/loja/cadastroprodutos/pkg/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const meterName = "github.com/loja/cadastroprodutos/internal/product/service"

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// Create validates and stores a new product.
	// Returns ErrInvalidProduct if price or quantity is zero.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// FindAll returns all products ordered by id.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindPage returns the zero-based page of the given size.
	// Returns ErrInvalidPage if page is negative or size is outside [1, MaxPageSize].
	FindPage(ctx context.Context, page, size int) (*ProductPage, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// FindByIDs returns the products that exist among ids.
	FindByIDs(ctx context.Context, ids []int64) ([]ProductDto, error)

	// UpdateQuantity overwrites the quantity of a product. Any value is accepted.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateQuantity(ctx context.Context, id int64, quantity int32) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// Ready reports whether the backing store is reachable.
	Ready(ctx context.Context) error
}

// Service implements ProductService on top of a ProductStore and announces mutations through a Publisher.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	now        func() time.Time
	mutations  metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and event publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	mutations, err := otel.Meter(meterName).Int64Counter("catalog.product.mutations",
		metric.WithDescription("Successful product mutations by operation"))
	if err != nil {
		logger.Warn("Failed to create mutations counter", "error", err)
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
		now:        func() time.Time { return time.Now().UTC() },
		mutations:  mutations,
	}
}

// ProductCreateDto is the body of a create request.
type ProductCreateDto struct {
	XMLName     xml.Name `json:"-" xml:"product"`
	Name        string   `json:"name" xml:"name" validate:"max=255"`
	Description string   `json:"description" xml:"description" validate:"max=1000"`
	Price       float64  `json:"price" xml:"price"`
	Quantity    int32    `json:"quantity" xml:"quantity"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	XMLName     xml.Name  `json:"-" xml:"product"`
	ID          int64     `json:"id" xml:"id"`
	Name        string    `json:"name" xml:"name"`
	Description string    `json:"description" xml:"description"`
	Price       float64   `json:"price" xml:"price"`
	Quantity    int32     `json:"quantity" xml:"quantity"`
	CreatedAt   time.Time `json:"createdAt" xml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" xml:"updatedAt"`
}

// ProductList is a list response. It encodes as a bare JSON array and as a <products> XML element.
type ProductList []ProductDto

// MarshalXML wraps the items in a <products> root element.
func (l ProductList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	items := struct {
		Items []ProductDto `xml:"product"`
	}{Items: l}
	return e.EncodeElement(items, xml.StartElement{Name: xml.Name{Local: "products"}})
}

// ProductPage is one page of products plus the totals needed to navigate.
type ProductPage struct {
	XMLName       xml.Name     `json:"-" xml:"productPage"`
	Content       []ProductDto `json:"content" xml:"content>product"`
	Page          int          `json:"page" xml:"page"`
	Size          int          `json:"size" xml:"size"`
	TotalElements int64        `json:"totalElements" xml:"totalElements"`
	TotalPages    int          `json:"totalPages" xml:"totalPages"`
}

// Validate applies the creation rule: price and quantity must both be set to a non-zero value.
func (p ProductCreateDto) Validate() error {
	if p.Price == 0 || p.Quantity == 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return perrors.ErrInvalidProduct
	}
	return nil
}

func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}
	p, err := s.repository.Create(ctx, store.Product{
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.recordMutation(ctx, "create")
	s.publish(ctx, events.ProductCreatedEvent{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
	})
	return toDto(p), nil
}

func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

func (s *Service) FindPage(ctx context.Context, page, size int) (*ProductPage, error) {
	offset, limit, err := pageBounds(page, size)
	if err != nil {
		return nil, err
	}
	total, err := s.repository.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	products, err := s.repository.FindPage(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products page %d: %w", page, err)
	}
	return &ProductPage{
		Content:       toDtos(products),
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

func (s *Service) FindByIDs(ctx context.Context, ids []int64) ([]ProductDto, error) {
	if len(ids) == 0 {
		return []ProductDto{}, nil
	}
	products, err := s.repository.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

func (s *Service) UpdateQuantity(ctx context.Context, id int64, quantity int32) (*ProductDto, error) {
	product, err := s.repository.UpdateQuantity(ctx, id, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update quantity for product with ID %d: %w", id, err)
	}

	s.recordMutation(ctx, "update_quantity")
	s.publish(ctx, events.ProductQuantityUpdatedEvent{
		ProductID: product.ID,
		Quantity:  product.Quantity,
		UpdatedAt: product.UpdatedAt,
	})
	return toDto(product), nil
}

func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}

	s.recordMutation(ctx, "delete")
	s.publish(ctx, events.ProductDeletedEvent{ProductID: id, DeletedAt: s.now()})
	return nil
}

func (s *Service) Ready(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// publish never fails the mutation that triggered it; the change is already committed.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func (s *Service) recordMutation(ctx context.Context, operation string) {
	if s.mutations == nil {
		return
	}
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// pageBounds converts a zero-based page and a size into an offset and a limit.
func pageBounds(page, size int) (offset, limit int, err error) {
	if page < 0 {
		return 0, 0, fmt.Errorf("%w: page must not be negative, got %d", perrors.ErrInvalidPage, page)
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, fmt.Errorf("%w: size must be between 1 and %d, got %d", perrors.ErrInvalidPage, MaxPageSize, size)
	}
	return page * size, size, nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
