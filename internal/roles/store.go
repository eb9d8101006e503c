package roles

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

func (s *gormStore) Current(ctx context.Context, identityID string) (*models.RoleAssignment, error) {
	var row models.RoleAssignment
	err := s.db.WithContext(ctx).
		Where("identity_id = ? AND is_current AND NOT revoked", identityID).
		Order("created_at desc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *gormStore) Swap(ctx context.Context, identityID string, next *models.RoleAssignment, revokeReason string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional update: only rows still current can be demoted, so a
		// racing swap cannot revive an already-revoked row.
		err := tx.Model(&models.RoleAssignment{}).
			Where("identity_id = ? AND is_current AND NOT revoked", identityID).
			Updates(map[string]any{
				"is_current":     false,
				"revoked":        true,
				"revoked_at":     now,
				"revoked_reason": revokeReason,
			}).Error
		if err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}
