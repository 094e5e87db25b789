package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Announcement is a news post. Unpublished posts are only visible to administrators.
type Announcement struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	IsPublished bool      `gorm:"not null;default:false;index" json:"isPublished"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Event is a performance or rehearsal listed on the public events page.
type Event struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Location    *string    `gorm:"type:varchar(255)" json:"location"`
	StartsAt    time.Time  `gorm:"not null;index" json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	IsPublished bool       `gorm:"not null;default:false;index" json:"isPublished"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// GalleryItem points at an image held in object storage.
type GalleryItem struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       *string   `gorm:"type:varchar(255)" json:"title"`
	ObjectKey   string    `gorm:"type:varchar(512);not null;uniqueIndex" json:"objectKey"`
	ContentType string    `gorm:"type:varchar(128);not null" json:"contentType"`
	Size        int64     `json:"size"`
	IsPublished bool      `gorm:"not null;default:false;index" json:"isPublished"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (g *GalleryItem) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// All returns every persisted model, for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&PasswordReset{},
		&AuditionApplication{},
		&AuditionStatusChange{},
		&Announcement{},
		&Event{},
		&GalleryItem{},
		&MusicItem{},
		&VideoItem{},
		&ChoristerProfile{},
		&Rehearsal{},
		&AttendanceRecord{},
		&ChoristerNotice{},
	}
}
