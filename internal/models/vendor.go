package models

import "time"

type VendorStatus string

const (
	VendorPending   VendorStatus = "pending"
	VendorApproved  VendorStatus = "approved"
	VendorSuspended VendorStatus = "suspended"
)

func (s VendorStatus) Valid() bool {
	switch s {
	case VendorPending, VendorApproved, VendorSuspended:
		return true
	}
	return false
}

type Vendor struct {
	ID        string       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Status    VendorStatus `gorm:"not null;default:pending" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionExpired, SubscriptionCancelled:
		return true
	}
	return false
}

type VendorSubscription struct {
	ID               string             `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID         string             `gorm:"type:uuid;index;not null" json:"vendor_id"`
	Plan             string             `json:"plan,omitempty"`
	Status           SubscriptionStatus `gorm:"not null;default:active;index" json:"status"`
	BillingPeriodEnd time.Time          `gorm:"not null" json:"billing_period_end"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type AgreementStatus string

const (
	AgreementDraft    AgreementStatus = "draft"
	AgreementSent     AgreementStatus = "sent"
	AgreementSigned   AgreementStatus = "signed"
	AgreementDeclined AgreementStatus = "declined"
)

func (s AgreementStatus) Valid() bool {
	switch s {
	case AgreementDraft, AgreementSent, AgreementSigned, AgreementDeclined:
		return true
	}
	return false
}

type VendorAgreement struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID  string          `gorm:"type:uuid;index;not null" json:"vendor_id"`
	Version   string          `json:"version"`
	Status    AgreementStatus `gorm:"not null;default:draft;index" json:"status"`
	SignedAt  *time.Time      `json:"signed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type PromotionStatus string

const (
	PromotionDraft  PromotionStatus = "draft"
	PromotionActive PromotionStatus = "active"
	PromotionPaused PromotionStatus = "paused"
	PromotionEnded  PromotionStatus = "ended"
)

func (s PromotionStatus) Valid() bool {
	switch s {
	case PromotionDraft, PromotionActive, PromotionPaused, PromotionEnded:
		return true
	}
	return false
}

// Promotion discounts are vendor-funded: every usage debits the owning
// vendor, not the platform. Amounts are cents.
type Promotion struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID           string          `gorm:"type:uuid;index;not null" json:"vendor_id"`
	SiteID             *string         `gorm:"type:uuid;index" json:"site_id,omitempty"`
	Code               string          `gorm:"uniqueIndex;not null" json:"code"`
	Status             PromotionStatus `gorm:"not null;default:draft;index" json:"status"`
	StartsAt           time.Time       `gorm:"not null" json:"starts_at"`
	EndsAt             *time.Time      `json:"ends_at,omitempty"`
	AllowedRoles       StringList      `gorm:"type:jsonb" json:"allowed_roles,omitempty"`
	UsageLimit         *int            `json:"usage_limit,omitempty"`
	UsageCount         int             `gorm:"not null;default:0" json:"usage_count"`
	TotalDiscountGiven int64           `gorm:"not null;default:0" json:"total_discount_given"`
	TotalVendorCost    int64           `gorm:"not null;default:0" json:"total_vendor_cost"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type PromoUsage struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PromoID        string    `gorm:"type:uuid;index;not null" json:"promo_id"`
	VendorID       string    `gorm:"type:uuid;index;not null" json:"vendor_id"`
	OrderID        string    `gorm:"not null" json:"order_id"`
	IdentityID     *string   `gorm:"type:uuid" json:"identity_id,omitempty"`
	DiscountAmount int64     `gorm:"not null" json:"discount_amount"`
	VendorCost     int64     `gorm:"not null" json:"vendor_cost"`
	CreatedAt      time.Time `json:"created_at"`
}
