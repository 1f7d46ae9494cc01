package models

import "time"

// Product is a catalog record. It doubles as the gorm model.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120;not null;index"`
	ImageURL  string    `json:"imageUrl" gorm:"column:image_url;type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// ProductView is a Product as returned by the API, with the source a display
// surface should load for its image.
type ProductView struct {
	Product
	DisplayURL string `json:"displayUrl"`
}

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	ImageURL string `json:"imageUrl" validate:"required,imageref"`
}

// Sort keys accepted by the listing endpoint.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
)

// ProductQuery filters, orders and pages a product listing.
type ProductQuery struct {
	Search   string
	SortBy   string
	Page     int
	PageSize int
}

// Offset returns the number of rows skipped before the requested page.
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
