package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"strategydesk/src/database"
	"strategydesk/src/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *UserRepository) WithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByAPIKeyID resolves the user owning an API key id. The key secret is
// verified by the caller against the stored bcrypt hash.
func (r *UserRepository) GetByAPIKeyID(ctx context.Context, keyID string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("api_key_id = ? AND active = ?", keyID, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithError(err).Error("Failed to look up user by API key")
		return nil, err
	}
	return &u, nil
}

// UpdatePassword stores a new bcrypt password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}
