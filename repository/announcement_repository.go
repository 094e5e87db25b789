package repository

import (
	"context"
	"fmt"

	"JNChoral/model"

	"gorm.io/gorm"
)

// ContentStats counts total and published rows of a content table.
type ContentStats struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
}

type AnnouncementRepository struct {
	DB *gorm.DB
}

func NewAnnouncementRepository(gdb *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{DB: gdb}
}

// GetPublished 获取所有已发布公告（按创建时间倒序）
func (r *AnnouncementRepository) GetPublished(ctx context.Context, limit int) ([]model.Announcement, error) {
	var posts []model.Announcement
	q := r.DB.WithContext(ctx).Where("is_published = ?", true).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list published announcements: %w", err)
	}
	return posts, nil
}

// GetAll returns drafts and published posts, newest first.
func (r *AnnouncementRepository) GetAll(ctx context.Context, limit int) ([]model.Announcement, error) {
	var posts []model.Announcement
	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return posts, nil
}

// GetAnnouncementByID 根据ID获取公告
func (r *AnnouncementRepository) GetAnnouncementByID(ctx context.Context, id string, publishedOnly bool) (*model.Announcement, error) {
	var post model.Announcement
	q := r.DB.WithContext(ctx).Where("id = ?", id)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if err := q.First(&post).Error; err != nil {
		return nil, notFound(err, "announcement "+id)
	}
	return &post, nil
}

// CreateAnnouncement 创建公告
func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, post *model.Announcement) error {
	if err := r.DB.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (r *AnnouncementRepository) UpdateAnnouncement(ctx context.Context, id, title, body string) error {
	res := r.DB.WithContext(ctx).Model(&model.Announcement{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "body": body})
	return affected(res, "announcement "+id)
}

func (r *AnnouncementRepository) SetPublished(ctx context.Context, id string, published bool) error {
	res := r.DB.WithContext(ctx).Model(&model.Announcement{}).Where("id = ?", id).
		Update("is_published", published)
	return affected(res, "announcement "+id)
}

// DeleteAnnouncement removes the post permanently.
func (r *AnnouncementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Announcement{})
	return affected(res, "announcement "+id)
}

// GetAnnouncementStats 获取公告统计信息
func (r *AnnouncementRepository) GetAnnouncementStats(ctx context.Context) (*ContentStats, error) {
	return countStats(r.DB.WithContext(ctx), &model.Announcement{})
}

func countStats(q *gorm.DB, table interface{}) (*ContentStats, error) {
	var stats ContentStats
	if err := q.Model(table).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	if err := q.Model(table).Where("is_published = ?", true).Count(&stats.Published).Error; err != nil {
		return nil, fmt.Errorf("failed to count published rows: %w", err)
	}
	return &stats, nil
}

// affected turns a zero-row write into ErrNotFound.
func affected(res *gorm.DB, what string) error {
	if res.Error != nil {
		return fmt.Errorf("failed to write %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, what)
	}
	return nil
}
