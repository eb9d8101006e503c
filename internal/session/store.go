package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"storegate/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Insert(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *gormStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *gormStore) MarkRevoked(ctx context.Context, token string, at time.Time, reason string) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("token = ? AND NOT revoked", token).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     at,
			"revoked_reason": reason,
		}).Error
}

func (s *gormStore) TouchActivity(ctx context.Context, token string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("token = ?", token).
		Update("last_activity_at", at).Error
}

func (s *gormStore) IdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	var ident models.Identity
	err := s.db.WithContext(ctx).First(&ident, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}
