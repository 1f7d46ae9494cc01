package handlers

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/pkg/utils"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	minPageSize     = 1
	maxPageSize     = 24

	msgInvalidID        = "Invalid id"
	msgMissingOrInvalid = "Missing or invalid id"
	msgNotFound         = "Not found"
	msgInternal         = "Internal Server Error"
	msgInvalidJSON      = "Invalid JSON body"
)

// === REQUEST PARSING ===

// parseID accepts a positive integer, also when written as an integral
// decimal such as "7.0" or "1e2".
func parseID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return uint(id), id > 0
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) || f < 1 || f > math.MaxUint32 {
		return 0, false
	}
	return uint(f), true
}

// idParam reads the product id from the path, falling back to ?id=.
func idParam(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return c.Query("id")
}

func parseProductQuery(c *gin.Context) models.ProductQuery {
	page := parseIntDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = defaultPage
	}

	pageSize := parseIntDefault(c.Query("pageSize"), defaultPageSize)
	if pageSize < minPageSize {
		pageSize = minPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	sortBy := c.Query("sortBy")
	if sortBy == "" {
		sortBy = models.SortNewest
	}

	return models.ProductQuery{
		Search:   strings.TrimSpace(c.Query("search")),
		SortBy:   sortBy,
		Page:     page,
		PageSize: pageSize,
	}
}

// parseIntDefault returns def for an empty, malformed or zero value.
func parseIntDefault(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n == 0 {
		return def
	}
	return n
}

// === RESPONSE HANDLING ===

func respondError(c *gin.Context, statusCode int, err interface{}) {
	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{Error: err})
}

func toView(p models.Product) models.ProductView {
	return models.ProductView{
		Product:    p,
		DisplayURL: utils.ProxyURL(p.ImageURL, p.Name),
	}
}
