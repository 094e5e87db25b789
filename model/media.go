package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MusicItem is a recording held in object storage.
type MusicItem struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       *string   `gorm:"type:varchar(255)" json:"title"`
	ObjectKey   string    `gorm:"type:varchar(512);not null;uniqueIndex" json:"objectKey"`
	ContentType string    `gorm:"type:varchar(128);not null" json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (m *MusicItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// VideoItem links a video hosted by an external provider.
type VideoItem struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     *string   `gorm:"type:varchar(255)" json:"title"`
	VideoURL  string    `gorm:"type:varchar(512);not null" json:"videoUrl"`
	PublicID  string    `gorm:"type:varchar(255);not null" json:"publicId"`
	PosterURL *string   `gorm:"type:varchar(512)" json:"posterUrl"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (v *VideoItem) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
