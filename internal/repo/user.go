package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/models"
)

func (r *GormRepo) GetUserByUID(ctx context.Context, uid uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserWithTasks loads the user and every task it owns, newest first.
func (r *GormRepo) GetUserWithTasks(ctx context.Context, uid uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("uid = ?", uid).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user with tasks: %w", err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// CreateUser inserts u unless its email is taken.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperr.ErrAlreadyExists
	}
	return nil
}

func (r *GormRepo) MarkVerified(ctx context.Context, uid uuid.UUID) error {
	return r.updateUser(ctx, uid, map[string]any{"is_verified": true})
}

func (r *GormRepo) SetPasswordHash(ctx context.Context, uid uuid.UUID, hash string) error {
	return r.updateUser(ctx, uid, map[string]any{"password_hash": hash})
}

func (r *GormRepo) SetRole(ctx context.Context, uid uuid.UUID, role models.Role) error {
	return r.updateUser(ctx, uid, map[string]any{"role": role})
}

func (r *GormRepo) updateUser(ctx context.Context, uid uuid.UUID, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("uid = ?", uid).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count users: %w", err)
	}

	users := make([]models.User, 0, limit)
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, fmt.Errorf("list users: %w", err)
	}
	return total, users, nil
}
