package models

import "time"

type ProductStatus string

const (
	ProductDraft    ProductStatus = "draft"
	ProductActive   ProductStatus = "active"
	ProductArchived ProductStatus = "archived"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductActive, ProductArchived:
		return true
	}
	return false
}

type Product struct {
	ID        string        `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID  string        `gorm:"type:uuid;index;not null" json:"vendor_id"`
	Name      string        `gorm:"not null" json:"name"`
	Slug      string        `gorm:"index;not null" json:"slug"`
	Status    ProductStatus `gorm:"not null;default:draft;index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Category struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteProductVisibility is the explicit opt-in that makes a product visible
// on a site. Absence of a row means not visible.
type SiteProductVisibility struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID    string    `gorm:"type:uuid;index:idx_site_product,unique;not null" json:"site_id"`
	ProductID string    `gorm:"type:uuid;index:idx_site_product,unique;not null" json:"product_id"`
	Visible   bool      `gorm:"not null;default:false" json:"visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SiteCategoryVisibility struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID     string    `gorm:"type:uuid;index:idx_site_category,unique;not null" json:"site_id"`
	CategoryID string    `gorm:"type:uuid;index:idx_site_category,unique;not null" json:"category_id"`
	Visible    bool      `gorm:"not null;default:false" json:"visible"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
