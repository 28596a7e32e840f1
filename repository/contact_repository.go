package repository

import (
	"context"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db}
}

func (r *ContactRepository) Create(ctx context.Context, c *entity.ContactMessage) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// newest first
func (r *ContactRepository) List(ctx context.Context, limit int) ([]entity.ContactMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []entity.ContactMessage
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
