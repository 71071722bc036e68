package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"travelwatch/internal/domain"
)

var ErrRecordNotFound = errors.New("record not found")

type RecordRepository interface {
	Create(ctx context.Context, rec *domain.Record) error
	List(ctx context.Context) ([]domain.Record, error)
	Update(ctx context.Context, rec *domain.Record) (*domain.Record, error)
	Delete(ctx context.Context, id string) error
}

type GormRecordRepository struct{ db *gorm.DB }

func NewRecordRepository(db *gorm.DB) RecordRepository { return &GormRecordRepository{db: db} }

func (r *GormRecordRepository) Create(ctx context.Context, rec *domain.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormRecordRepository) List(ctx context.Context) ([]domain.Record, error) {
	var recs []domain.Record
	err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&recs).Error
	return recs, err
}

func (r *GormRecordRepository) Update(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	var existing domain.Record
	err := r.db.WithContext(ctx).First(&existing, "id = ?", rec.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *GormRecordRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Record{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
