package accounts

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

func (s *gormStore) IdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var ident models.Identity
	err := s.db.WithContext(ctx).First(&ident, "LOWER(email) = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
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

func (s *gormStore) ListIdentities(ctx context.Context, limit int) ([]models.Identity, error) {
	var idents []models.Identity
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&idents).Error
	if err != nil {
		return nil, err
	}
	return idents, nil
}

func (s *gormStore) CreateIdentity(ctx context.Context, ident *models.Identity, cred *models.Credential) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ident).Error; err != nil {
			return err
		}
		return tx.Create(cred).Error
	})
}

func (s *gormStore) SaveIdentity(ctx context.Context, ident *models.Identity) error {
	return s.db.WithContext(ctx).Save(ident).Error
}

func (s *gormStore) CredentialFor(ctx context.Context, identityID string) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).First(&cred, "identity_id = ?", identityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *gormStore) SaveCredential(ctx context.Context, cred *models.Credential) error {
	return s.db.WithContext(ctx).Save(cred).Error
}

func (s *gormStore) ReplaceCredential(ctx context.Context, oldID string, next *models.Credential) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Credential{}, "id = ?", oldID).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

// UpdateProfileRole refreshes the denormalized role column kept by the
// external profile store for fast reads.
func (s *gormStore) UpdateProfileRole(ctx context.Context, identityID string, role models.Role) error {
	return s.db.WithContext(ctx).
		Table("profiles").
		Where("identity_id = ?", identityID).
		Update("role", string(role)).Error
}
