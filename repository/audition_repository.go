package repository

import (
	"context"
	"fmt"
	"strings"

	"JNChoral/model"

	"gorm.io/gorm"
)

// StatusActor identifies who changed an application's status.
type StatusActor struct {
	ID    string
	Email string
}

// AuditionRepository defines the persistence operations of the audition workflow.
type AuditionRepository interface {
	Create(ctx context.Context, app *model.AuditionApplication) error
	GetByID(ctx context.Context, id string) (*model.AuditionApplication, error)
	// List returns the newest applications matching filter, at most limit rows.
	List(ctx context.Context, filter model.AuditionFilter, limit int) ([]model.AuditionApplication, error)
	ListAll(ctx context.Context) ([]model.AuditionApplication, error)
	// ListOwned matches on user id OR case-insensitive email.
	ListOwned(ctx context.Context, userID, email string) ([]model.AuditionApplication, error)
	FindOwned(ctx context.Context, id, userID, email string) (*model.AuditionApplication, error)
	// UpdateStatus overwrites the status and appends the change to the history in one transaction.
	UpdateStatus(ctx context.Context, id string, status model.AuditionStatus, actor StatusActor) (*model.AuditionStatusChange, error)
	History(ctx context.Context, id string) ([]model.AuditionStatusChange, error)
}

type gormAuditionRepository struct {
	db *gorm.DB
}

// NewGormAuditionRepository creates an AuditionRepository backed by gdb.
func NewGormAuditionRepository(gdb *gorm.DB) AuditionRepository {
	return &gormAuditionRepository{db: gdb}
}

func (r *gormAuditionRepository) Create(ctx context.Context, app *model.AuditionApplication) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("failed to insert audition application: %w", err)
	}
	return nil
}

func (r *gormAuditionRepository) GetByID(ctx context.Context, id string) (*model.AuditionApplication, error) {
	var app model.AuditionApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "audition application "+id)
	}
	return &app, nil
}

func (r *gormAuditionRepository) List(ctx context.Context, filter model.AuditionFilter, limit int) ([]model.AuditionApplication, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditionApplication{})

	if query := strings.TrimSpace(filter.Query); query != "" {
		like := likePattern(query)
		q = q.Where("(LOWER(full_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(phone) LIKE ? ESCAPE '!')",
			like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var apps []model.AuditionApplication
	if err := q.Order("created_at DESC").Order("id DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list audition applications: %w", err)
	}
	return apps, nil
}

func (r *gormAuditionRepository) ListAll(ctx context.Context) ([]model.AuditionApplication, error) {
	return r.List(ctx, model.AuditionFilter{}, 0)
}

func ownedBy(q *gorm.DB, userID, email string) *gorm.DB {
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case userID != "" && email != "":
		return q.Where("(user_id = ? OR LOWER(email) = ?)", userID, email)
	case userID != "":
		return q.Where("user_id = ?", userID)
	case email != "":
		return q.Where("LOWER(email) = ?", email)
	default:
		return q.Where("1 = 0")
	}
}

func (r *gormAuditionRepository) ListOwned(ctx context.Context, userID, email string) ([]model.AuditionApplication, error) {
	var apps []model.AuditionApplication
	q := ownedBy(r.db.WithContext(ctx).Model(&model.AuditionApplication{}), userID, email)
	if err := q.Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list owned applications: %w", err)
	}
	return apps, nil
}

func (r *gormAuditionRepository) FindOwned(ctx context.Context, id, userID, email string) (*model.AuditionApplication, error) {
	var app model.AuditionApplication
	q := ownedBy(r.db.WithContext(ctx).Where("id = ?", id), userID, email)
	if err := q.First(&app).Error; err != nil {
		return nil, notFound(err, "audition application "+id)
	}
	return &app, nil
}

func (r *gormAuditionRepository) UpdateStatus(ctx context.Context, id string, status model.AuditionStatus, actor StatusActor) (*model.AuditionStatusChange, error) {
	var change *model.AuditionStatusChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.AuditionApplication
		if err := tx.Select("id", "status").First(&current, "id = ?", id).Error; err != nil {
			return notFound(err, "audition application "+id)
		}

		if err := tx.Model(&model.AuditionApplication{}).Where("id = ?", id).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update status of %s: %w", id, err)
		}

		change = &model.AuditionStatusChange{
			ApplicationID: id,
			FromStatus:    current.Status,
			ToStatus:      status,
			ActorID:       actor.ID,
			ActorEmail:    actor.Email,
		}
		if err := tx.Create(change).Error; err != nil {
			return fmt.Errorf("failed to record status change of %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (r *gormAuditionRepository) History(ctx context.Context, id string) ([]model.AuditionStatusChange, error) {
	var changes []model.AuditionStatusChange
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", id).
		Order("created_at DESC").Order("id DESC").
		Find(&changes).Error; err != nil {
		return nil, fmt.Errorf("failed to load status history of %s: %w", id, err)
	}
	return changes, nil
}
