package repository

import (
	"context"
	"fmt"

	"JNChoral/model"

	"gorm.io/gorm"
)

type MusicRepository struct {
	DB *gorm.DB
}

func NewMusicRepository(gdb *gorm.DB) *MusicRepository {
	return &MusicRepository{DB: gdb}
}

func (r *MusicRepository) List(ctx context.Context, limit int) ([]model.MusicItem, error) {
	var items []model.MusicItem
	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list music: %w", err)
	}
	return items, nil
}

func (r *MusicRepository) GetByID(ctx context.Context, id string) (*model.MusicItem, error) {
	var item model.MusicItem
	if err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "music item "+id)
	}
	return &item, nil
}

func (r *MusicRepository) GetByKey(ctx context.Context, key string) (*model.MusicItem, error) {
	var item model.MusicItem
	if err := r.DB.WithContext(ctx).First(&item, "object_key = ?", key).Error; err != nil {
		return nil, notFound(err, "music object "+key)
	}
	return &item, nil
}

func (r *MusicRepository) Create(ctx context.Context, item *model.MusicItem) error {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create music item: %w", err)
	}
	return nil
}

func (r *MusicRepository) SetTitle(ctx context.Context, id string, title *string) error {
	res := r.DB.WithContext(ctx).Model(&model.MusicItem{}).Where("id = ?", id).Update("title", title)
	return affected(res, "music item "+id)
}

func (r *MusicRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.MusicItem{})
	return affected(res, "music item "+id)
}

type VideoRepository struct {
	DB *gorm.DB
}

func NewVideoRepository(gdb *gorm.DB) *VideoRepository {
	return &VideoRepository{DB: gdb}
}

func (r *VideoRepository) List(ctx context.Context, limit int) ([]model.VideoItem, error) {
	var items []model.VideoItem
	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return items, nil
}

// CreateWithAnnouncement stores the video and publishes its release announcement in one transaction.
func (r *VideoRepository) CreateWithAnnouncement(ctx context.Context, item *model.VideoItem, post *model.Announcement) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create video item: %w", err)
		}
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to announce video %s: %w", item.ID, err)
		}
		return nil
	})
}

func (r *VideoRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&model.VideoItem{}).Where("id = ?", id).Updates(fields)
	return affected(res, "video item "+id)
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.VideoItem{})
	return affected(res, "video item "+id)
}
