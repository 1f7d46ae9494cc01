// Package catalog persists product records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/whoyoshome/mini-productos/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("product not found")

// Repository is the product store used by the HTTP layer.
type Repository interface {
	Create(ctx context.Context, input models.ProductInput) (*models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Update(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, search string) (int64, error)
	List(ctx context.Context, query models.ProductQuery) ([]models.Product, error)
	Ping(ctx context.Context) error
}

type productRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product := &models.Product{Name: input.Name, ImageURL: input.ImageURL}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	var product *models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		existing.Name = input.Name
		existing.ImageURL = input.ImageURL
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"name":      input.Name,
			"image_url": input.ImageURL,
		}).Error; err != nil {
			return err
		}
		product = &existing
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Count(ctx context.Context, search string) (int64, error) {
	var total int64
	if err := r.filtered(ctx, search).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func (r *productRepository) List(ctx context.Context, query models.ProductQuery) ([]models.Product, error) {
	products := make([]models.Product, 0, query.PageSize)
	err := r.filtered(ctx, query.Search).
		Order(orderClause(query.SortBy)).
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *productRepository) filtered(ctx context.Context, search string) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if search = strings.TrimSpace(search); search != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	return tx
}

// orderClause maps a sort key to an ORDER BY clause; unknown keys sort
// newest first. id breaks ties so pages are stable.
func orderClause(sortBy string) string {
	switch sortBy {
	case models.SortOldest:
		return "created_at ASC, id ASC"
	case models.SortNameAsc:
		return "name ASC, id ASC"
	case models.SortNameDesc:
		return "name DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
