package repository

import (
	"context"
	"fmt"

	"JNChoral/model"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(gdb *gorm.DB) *EventRepository {
	return &EventRepository{DB: gdb}
}

// GetPublished lists published events in chronological order.
func (r *EventRepository) GetPublished(ctx context.Context, limit int) ([]model.Event, error) {
	var events []model.Event
	q := r.DB.WithContext(ctx).Where("is_published = ?", true).Order("starts_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list published events: %w", err)
	}
	return events, nil
}

// GetAll lists every event, latest start first.
func (r *EventRepository) GetAll(ctx context.Context, limit int) ([]model.Event, error) {
	var events []model.Event
	q := r.DB.WithContext(ctx).Order("starts_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) Create(ctx context.Context, ev *model.Event) error {
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Update rewrites the editable fields; publish state is untouched.
func (r *EventRepository) Update(ctx context.Context, ev *model.Event) error {
	res := r.DB.WithContext(ctx).Model(&model.Event{}).Where("id = ?", ev.ID).
		Updates(map[string]interface{}{
			"title":       ev.Title,
			"description": ev.Description,
			"location":    ev.Location,
			"starts_at":   ev.StartsAt,
			"ends_at":     ev.EndsAt,
		})
	return affected(res, "event "+ev.ID)
}

func (r *EventRepository) SetPublished(ctx context.Context, id string, published bool) error {
	res := r.DB.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Update("is_published", published)
	return affected(res, "event "+id)
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{})
	return affected(res, "event "+id)
}

func (r *EventRepository) Stats(ctx context.Context) (*ContentStats, error) {
	return countStats(r.DB.WithContext(ctx), &model.Event{})
}
