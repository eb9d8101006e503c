package models

import "time"

type Site struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DomainStatus string

const (
	DomainActive   DomainStatus = "active"
	DomainPending  DomainStatus = "pending"
	DomainDisabled DomainStatus = "disabled"
)

func (s DomainStatus) Valid() bool {
	switch s {
	case DomainActive, DomainPending, DomainDisabled:
		return true
	}
	return false
}

// SiteDomain maps a storefront hostname to its site. At most one domain per
// site carries the primary flag.
type SiteDomain struct {
	ID         string       `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID     string       `gorm:"type:uuid;index;not null" json:"site_id"`
	Domain     string       `gorm:"uniqueIndex;not null" json:"domain"`
	IsPrimary  bool         `gorm:"not null;default:false" json:"is_primary"`
	TLSEnabled bool         `gorm:"not null;default:true" json:"tls_enabled"`
	Status     DomainStatus `gorm:"not null;default:pending" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
