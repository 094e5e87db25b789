package repository

import (
	"context"
	"fmt"

	"JNChoral/model"

	"gorm.io/gorm"
)

type GalleryRepository struct {
	DB *gorm.DB
}

func NewGalleryRepository(gdb *gorm.DB) *GalleryRepository {
	return &GalleryRepository{DB: gdb}
}

func (r *GalleryRepository) List(ctx context.Context, publishedOnly bool, limit int) ([]model.GalleryItem, error) {
	var items []model.GalleryItem
	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list gallery items: %w", err)
	}
	return items, nil
}

func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*model.GalleryItem, error) {
	var item model.GalleryItem
	if err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "gallery item "+id)
	}
	return &item, nil
}

// GetPublishedByKey resolves a media key only when its item is published.
func (r *GalleryRepository) GetPublishedByKey(ctx context.Context, key string) (*model.GalleryItem, error) {
	var item model.GalleryItem
	if err := r.DB.WithContext(ctx).First(&item, "object_key = ? AND is_published = ?", key, true).Error; err != nil {
		return nil, notFound(err, "gallery object "+key)
	}
	return &item, nil
}

func (r *GalleryRepository) Create(ctx context.Context, item *model.GalleryItem) error {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create gallery item: %w", err)
	}
	return nil
}

func (r *GalleryRepository) SetPublished(ctx context.Context, id string, published bool) error {
	res := r.DB.WithContext(ctx).Model(&model.GalleryItem{}).Where("id = ?", id).Update("is_published", published)
	return affected(res, "gallery item "+id)
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.GalleryItem{})
	return affected(res, "gallery item "+id)
}
