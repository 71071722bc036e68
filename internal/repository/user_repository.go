package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"travelwatch/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	CreateOrGetFederated(ctx context.Context, user *domain.User) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	normalized := strings.TrimSpace(strings.ToLower(email))
	err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts the user and reports ErrDuplicateEmail when the store's
// unique constraint on email fires. The constraint, not a prior lookup,
// is the source of truth for conflicts so concurrent signups for the
// same email cannot both succeed.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

// CreateOrGetFederated inserts a federated user, or returns the existing
// record unchanged when the email is already enrolled. Losing the insert
// race is indistinguishable from finding the row up front, which makes
// duplicate concurrent callbacks idempotent.
func (r *GormUserRepository) CreateOrGetFederated(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := r.Create(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrDuplicateEmail) {
		return nil, err
	}
	return r.FindByEmail(ctx, user.Email)
}
