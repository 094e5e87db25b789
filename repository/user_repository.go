package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"JNChoral/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// SaveAdmin creates the user or promotes and re-keys an existing one.
	SaveAdmin(ctx context.Context, user *model.User) error
	// ListUsers returns accounts newest first. pendingOnly keeps choristers awaiting verification.
	ListUsers(ctx context.Context, pendingOnly bool, limit int) ([]model.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error
	// DeleteUser removes the account with its chorister data and unlinks its applications.
	DeleteUser(ctx context.Context, id string) error
}

// gormUserRepository implements UserRepository with GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new gormUserRepository.
func NewGormUserRepository(gdb *gorm.DB) UserRepository {
	return &gormUserRepository{db: gdb}
}

// CreateUser adds a new user. Emails are stored lowercased.
func (r *gormUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *gormUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *gormUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, "user "+email)
	}
	return &user, nil
}

func (r *gormUserRepository) SaveAdmin(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Role = model.RoleAdmin
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.User
		err := tx.First(&existing, "email = ?", user.Email).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(user).Error
		}
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", user.Email, err)
		}
		user.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"name":          user.Name,
			"password_hash": user.PasswordHash,
			"role":          model.RoleAdmin,
		}).Error
	})
}

func (r *gormUserRepository) ListUsers(ctx context.Context, pendingOnly bool, limit int) ([]model.User, error) {
	var users []model.User
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if pendingOnly {
		q = q.Where("is_chorister = ? AND chorister_verified = ?", true, false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *gormUserRepository) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	return affected(res, "user "+id)
}

func (r *gormUserRepository) DeleteUser(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.AttendanceRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete attendance of %s: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.ChoristerProfile{}).Error; err != nil {
			return fmt.Errorf("failed to delete profile of %s: %w", id, err)
		}
		err := tx.Model(&model.AuditionApplication{}).Where("user_id = ?", id).Update("user_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to unlink applications of %s: %w", id, err)
		}
		return affected(tx.Where("id = ?", id).Delete(&model.User{}), "user "+id)
	})
}

// PasswordResetRepository stores one-time reset codes.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *model.PasswordReset) error
	// FindValid returns the newest unused, unexpired reset matching email and codeHash.
	FindValid(ctx context.Context, email, codeHash string, now time.Time) (*model.PasswordReset, error)
	// Consume sets the new password and marks the reset used, atomically.
	Consume(ctx context.Context, reset *model.PasswordReset, passwordHash string, now time.Time) error
}

type gormPasswordResetRepository struct {
	db *gorm.DB
}

func NewGormPasswordResetRepository(gdb *gorm.DB) PasswordResetRepository {
	return &gormPasswordResetRepository{db: gdb}
}

func (r *gormPasswordResetRepository) Create(ctx context.Context, reset *model.PasswordReset) error {
	if err := r.db.WithContext(ctx).Create(reset).Error; err != nil {
		return fmt.Errorf("failed to store password reset: %w", err)
	}
	return nil
}

func (r *gormPasswordResetRepository) FindValid(ctx context.Context, email, codeHash string, now time.Time) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.db.WithContext(ctx).
		Where("email = ? AND code_hash = ? AND used_at IS NULL AND expires_at > ?", email, codeHash, now).
		Order("created_at DESC").Order("id DESC").
		First(&reset).Error
	if err != nil {
		return nil, notFound(err, "password reset")
	}
	return &reset, nil
}

func (r *gormPasswordResetRepository) Consume(ctx context.Context, reset *model.PasswordReset, passwordHash string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("email = ?", reset.Email).Update("password_hash", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "user "+reset.Email)
		}
		// used_at IS NULL guards against two concurrent resets with the same code.
		res = tx.Model(&model.PasswordReset{}).Where("id = ? AND used_at IS NULL", reset.ID).Update("used_at", now)
		if res.Error != nil {
			return fmt.Errorf("failed to mark reset used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "password reset")
		}
		return nil
	})
}
