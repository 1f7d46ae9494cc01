package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/internal/services/catalog"
	"github.com/whoyoshome/mini-productos/internal/validation"
	"go.uber.org/zap"
)

// WarmupPublisher enqueues background loads of product images.
type WarmupPublisher interface {
	PublishWarmup(ctx context.Context, product models.Product) error
}

// ProbeStore reads and forgets warm-up probe results.
type ProbeStore interface {
	GetProbe(ctx context.Context, productID uint) (*models.ImageProbe, error)
	DeleteProbe(ctx context.Context, productID uint) error
}

type ProductHandler struct {
	repo   catalog.Repository
	warmup WarmupPublisher
	probes ProbeStore
	logger *zap.Logger
}

// NewProductHandler builds the product API. warmup and probes may be nil.
func NewProductHandler(
	repo catalog.Repository,
	warmup WarmupPublisher,
	probes ProbeStore,
	logger *zap.Logger,
) *ProductHandler {
	return &ProductHandler{
		repo:   repo,
		warmup: warmup,
		probes: probes,
		logger: logger,
	}
}

// ListProducts serves GET /api/products. With a non-empty ?id= it returns
// that single product instead of a page.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	if c.Query("id") != "" {
		h.GetProduct(c)
		return
	}

	query := parseProductQuery(c)
	ctx := c.Request.Context()

	total, err := h.repo.Count(ctx, query.Search)
	if err != nil {
		h.internalError(c, "GET /api/products", err)
		return
	}
	products, err := h.repo.List(ctx, query)
	if err != nil {
		h.internalError(c, "GET /api/products", err)
		return
	}

	views := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, toView(p))
	}

	c.JSON(http.StatusOK, models.ProductsListResponse{
		Products:   views,
		Pagination: models.NewPagination(query.Page, query.PageSize, total),
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(idParam(c))
	if !ok {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	product, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		h.repoError(c, "GET /api/products", err)
		return
	}

	c.JSON(http.StatusOK, toView(*product))
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	product, err := h.repo.Create(c.Request.Context(), input)
	if err != nil {
		h.internalError(c, "POST /api/products", err)
		return
	}

	h.publishWarmup(c.Request.Context(), *product)
	c.JSON(http.StatusCreated, toView(*product))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(idParam(c))
	if !ok {
		respondError(c, http.StatusBadRequest, msgMissingOrInvalid)
		return
	}

	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	product, err := h.repo.Update(ctx, id, input)
	if err != nil {
		h.repoError(c, "PATCH /api/products", err)
		return
	}

	h.forgetProbe(ctx, id)
	h.publishWarmup(ctx, *product)
	c.JSON(http.StatusOK, toView(*product))
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(idParam(c))
	if !ok {
		respondError(c, http.StatusBadRequest, msgMissingOrInvalid)
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.Delete(ctx, id); err != nil {
		h.repoError(c, "DELETE /api/products", err)
		return
	}

	h.forgetProbe(ctx, id)
	c.Status(http.StatusNoContent)
}

// ImageStatus returns the last warm-up probe recorded for a product.
func (h *ProductHandler) ImageStatus(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return
	}
	if h.probes == nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}

	probe, err := h.probes.GetProbe(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, "GET /api/products/:id/image-status", err)
		return
	}
	if probe == nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}

	c.JSON(http.StatusOK, probe)
}

// === HELPERS ===

func (h *ProductHandler) bindInput(c *gin.Context) (models.ProductInput, bool) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidJSON)
		return input, false
	}

	input, fieldErrors := validation.Product(input)
	if fieldErrors != nil {
		respondError(c, http.StatusUnprocessableEntity, fieldErrors)
		return input, false
	}
	return input, true
}

func (h *ProductHandler) publishWarmup(ctx context.Context, product models.Product) {
	if h.warmup == nil {
		return
	}
	if err := h.warmup.PublishWarmup(ctx, product); err != nil {
		h.logger.Warn("Failed to publish warm-up job",
			zap.Uint("product_id", product.ID),
			zap.Error(err))
	}
}

func (h *ProductHandler) forgetProbe(ctx context.Context, id uint) {
	if h.probes == nil {
		return
	}
	if err := h.probes.DeleteProbe(ctx, id); err != nil {
		h.logger.Warn("Failed to delete probe", zap.Uint("product_id", id), zap.Error(err))
	}
}

func (h *ProductHandler) repoError(c *gin.Context, op string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}
	h.internalError(c, op, err)
}

func (h *ProductHandler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op+" error", zap.Error(err))
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, msgInternal)
}
