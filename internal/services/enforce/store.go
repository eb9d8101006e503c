package enforce

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storegate/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) VendorByID(ctx context.Context, id string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.db.WithContext(ctx).First(&vendor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (s *gormStore) ActiveSubscription(ctx context.Context, vendorID string) (*models.VendorSubscription, error) {
	var sub models.VendorSubscription
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, models.SubscriptionActive).
		Order("billing_period_end desc").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) HasSignedAgreement(ctx context.Context, vendorID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.VendorAgreement{}).
		Where("vendor_id = ? AND status = ?", vendorID, models.AgreementSigned).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *gormStore) ProductVisibleOnSite(ctx context.Context, productID, siteID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SiteProductVisibility{}).
		Where("product_id = ? AND site_id = ? AND visible", productID, siteID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) VisibleProductIDs(ctx context.Context, siteID string, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.SiteProductVisibility{}).
		Where("site_id = ? AND visible", siteID).
		Order("created_at asc").
		Limit(limit).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *gormStore) CategoryVisibleOnSite(ctx context.Context, categoryID, siteID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SiteCategoryVisibility{}).
		Where("category_id = ? AND site_id = ? AND visible", categoryID, siteID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) PromotionByID(ctx context.Context, id string) (*models.Promotion, error) {
	var promo models.Promotion
	err := s.db.WithContext(ctx).First(&promo, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (s *gormStore) ArchiveVendorProducts(ctx context.Context, vendorID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("vendor_id = ? AND status = ?", vendorID, models.ProductActive).
		Update("status", models.ProductArchived)
	return res.RowsAffected, res.Error
}

func (s *gormStore) MarkSubscriptionExpired(ctx context.Context, subscriptionID string) error {
	return s.db.WithContext(ctx).Model(&models.VendorSubscription{}).
		Where("id = ?", subscriptionID).
		Update("status", models.SubscriptionExpired).Error
}

// InsertPromoUsage appends the usage row and bumps the promotion counters in
// one transaction.
func (s *gormStore) InsertPromoUsage(ctx context.Context, usage *models.PromoUsage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(usage).Error; err != nil {
			return err
		}
		return tx.Model(&models.Promotion{}).
			Where("id = ?", usage.PromoID).
			Updates(map[string]any{
				"usage_count":          gorm.Expr("usage_count + 1"),
				"total_discount_given": gorm.Expr("total_discount_given + ?", usage.DiscountAmount),
				"total_vendor_cost":    gorm.Expr("total_vendor_cost + ?", usage.VendorCost),
			}).Error
	})
}
