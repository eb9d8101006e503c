package tenant

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

func (s *gormStore) DomainByName(ctx context.Context, domain string) (*models.SiteDomain, error) {
	var row models.SiteDomain
	err := s.db.WithContext(ctx).First(&row, "domain = ?", domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *gormStore) SiteByID(ctx context.Context, id string) (*models.Site, error) {
	var site models.Site
	err := s.db.WithContext(ctx).First(&site, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *gormStore) DomainsForSite(ctx context.Context, siteID string) ([]models.SiteDomain, error) {
	var rows []models.SiteDomain
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, models.DomainActive).
		Order("is_primary desc, domain asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
