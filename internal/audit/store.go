package audit

import (
	"context"

	"gorm.io/gorm"

	"storegate/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Insert(ctx context.Context, ev *models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

func (s *gormStore) List(ctx context.Context, identityID string, limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	q := s.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if identityID != "" {
		q = q.Where("identity_id = ?", identityID)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
