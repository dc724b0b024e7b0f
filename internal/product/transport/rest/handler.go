// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	producterrors "github.com/loja/cadastroprodutos/internal/product/errors"
	"github.com/loja/cadastroprodutos/internal/product/service"
	"github.com/loja/cadastroprodutos/pkg/web"
)

const readinessTimeout = 2 * time.Second

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the products API with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the product routes on r. The mutating routes are wrapped by guards, if any.
func (h *Handler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Get("/{id}", h.FindByID)

		r.Group(func(r chi.Router) {
			r.Use(guards...)
			r.Post("/", h.Create)
			r.Put("/{id}", h.UpdateQuantity)
			r.Delete("/{id}", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
	r.Get("/openapi.yaml", OpenAPIHandler)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductCreateDto
	if err := web.Decode(r, &dto); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		if errors.Is(err, web.ErrUnsupportedMediaType) {
			web.RespondError(w, r, h.logger, http.StatusUnsupportedMediaType, "Unsupported content type")
			return
		}
		web.RespondError(w, r, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "name", dto.Name, "price", dto.Price, "quantity", dto.Quantity)

	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fieldErrors := make(web.FieldErrors, len(validationErrors))
			for _, fieldErr := range validationErrors {
				fieldErrors[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", fieldErrors)
			web.Respond(w, r, h.logger, http.StatusBadRequest, web.ValidationErrorResponse{Errors: fieldErrors})
			return
		}
		h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		if errors.Is(err, producterrors.ErrInvalidProduct) {
			h.logger.WarnContext(r.Context(), "Product rejected", "price", dto.Price, "quantity", dto.Quantity)
			web.RespondError(w, r, h.logger, http.StatusBadRequest, producterrors.InvalidProductMessage)
			return
		}
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, r, h.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "by", web.Subject(r.Context()))
	web.Respond(w, r, h.logger, http.StatusCreated, created)
}

// FindAll returns every product, or one page of them when page or size is given.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("page") || query.Has("size") {
		h.findPage(w, r)
		return
	}

	list, err := h.service.FindAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, r, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.Respond(w, r, h.logger, http.StatusOK, service.ProductList(list))
}

func (h *Handler) findPage(w http.ResponseWriter, r *http.Request) {
	page, ok := web.OptionalQueryInt(w, r, h.logger, "page", 0, web.Gte(0))
	if !ok {
		return
	}
	size, ok := web.OptionalQueryInt(w, r, h.logger, "size", service.DefaultPageSize, web.Between(1, service.MaxPageSize))
	if !ok {
		return
	}

	result, err := h.service.FindPage(r.Context(), page, size)
	if err != nil {
		if errors.Is(err, producterrors.ErrInvalidPage) {
			web.RespondError(w, r, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Error retrieving product page", "page", page, "size", size, "error", err)
		web.RespondError(w, r, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.Respond(w, r, h.logger, http.StatusOK, result)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, "find", id, err)
		return
	}
	web.Respond(w, r, h.logger, http.StatusOK, found)
}

// UpdateQuantity overwrites the quantity of a product with the quantity query parameter.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	quantity, ok := web.RequiredQueryInt32(w, r, h.logger, "quantity")
	if !ok {
		return
	}

	updated, err := h.service.UpdateQuantity(r.Context(), id, quantity)
	if err != nil {
		h.respondLookupError(w, r, "update quantity", id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Quantity updated successfully", "ID", id, "quantity", updated.Quantity,
		"by", web.Subject(r.Context()))
	web.Respond(w, r, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondLookupError(w, r, "delete", id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id, "by", web.Subject(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck reports that the process is serving.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck reports whether the store answers within readinessTimeout.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := h.service.Ready(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		web.RespondError(w, r, h.logger, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondLookupError maps a service error for a single product to 404 or 500.
func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, op string, id int64, err error) {
	if errors.Is(err, producterrors.ErrProductNotFound) {
		h.logger.WarnContext(r.Context(), "Product not found", "op", op, "ID", id)
		web.RespondError(w, r, h.logger, http.StatusNotFound, producterrors.NotFoundMessage)
		return
	}
	h.logger.ErrorContext(r.Context(), "Product operation failed", "op", op, "ID", id, "error", err)
	web.RespondError(w, r, h.logger, http.StatusInternalServerError, "Internal server error")
}
