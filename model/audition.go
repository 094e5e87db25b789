package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditionCategory is the applicant's track, fixed at submission.
type AuditionCategory string

const (
	CategorySinger          AuditionCategory = "SINGER"
	CategoryInstrumentalist AuditionCategory = "INSTRUMENTALIST"
	CategoryProduction      AuditionCategory = "PRODUCTION"
)

func (c AuditionCategory) Valid() bool {
	switch c {
	case CategorySinger, CategoryInstrumentalist, CategoryProduction:
		return true
	}
	return false
}

// AuditionStatus is the administrator-controlled workflow value.
type AuditionStatus string

const (
	StatusPending     AuditionStatus = "PENDING"
	StatusShortlisted AuditionStatus = "SHORTLISTED"
	StatusAccepted    AuditionStatus = "ACCEPTED"
	StatusRejected    AuditionStatus = "REJECTED"
)

func (s AuditionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusShortlisted, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// VoicePart is only meaningful for singers.
type VoicePart string

const (
	VoiceSoprano VoicePart = "SOPRANO"
	VoiceAlto    VoicePart = "ALTO"
	VoiceTenor   VoicePart = "TENOR"
	VoiceBass    VoicePart = "BASS"
)

func (v VoicePart) Valid() bool {
	switch v {
	case VoiceSoprano, VoiceAlto, VoiceTenor, VoiceBass:
		return true
	}
	return false
}

// AuditionApplication is one audition submission.
// Category specific columns stay NULL for the other categories.
type AuditionApplication struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FullName string  `gorm:"type:varchar(191);not null" json:"fullName"`
	Phone    string  `gorm:"type:varchar(64);not null" json:"phone"`
	Email    string  `gorm:"type:varchar(191);not null;index" json:"email"`
	City     *string `gorm:"type:varchar(191)" json:"city"`
	UserID   *string `gorm:"type:varchar(36);index" json:"userId"`

	Category AuditionCategory `gorm:"type:varchar(32);not null;<-:create" json:"category"`

	VoicePart         *VoicePart `gorm:"type:varchar(16)" json:"voicePart"`
	SingingExperience *string    `gorm:"type:text" json:"singingExperience"`
	AuditionSong      *string    `gorm:"type:varchar(255)" json:"auditionSong"`

	Instrument      *string `gorm:"type:varchar(191)" json:"instrument"`
	InstrumentLevel *string `gorm:"type:varchar(64)" json:"instrumentLevel"`
	CanSightRead    *bool   `json:"canSightRead"`

	ProductionRole *string `gorm:"type:varchar(191)" json:"productionRole"`
	PortfolioLink  *string `gorm:"type:varchar(512)" json:"portfolioLink"`

	Notes  *string        `gorm:"type:text" json:"notes"`
	Status AuditionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
}

// BeforeCreate assigns the id and initial status.
func (a *AuditionApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// AuditionStatusChange is one append-only entry in an application's status history.
type AuditionStatusChange struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ApplicationID string         `gorm:"type:varchar(36);not null;index" json:"applicationId"`
	FromStatus    AuditionStatus `gorm:"type:varchar(16);not null" json:"fromStatus"`
	ToStatus      AuditionStatus `gorm:"type:varchar(16);not null" json:"toStatus"`
	ActorID       string         `gorm:"type:varchar(36)" json:"actorId"`
	ActorEmail    string         `gorm:"type:varchar(191)" json:"actorEmail"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
}

// AuditionFilter narrows the administrator listing. Zero values match everything.
type AuditionFilter struct {
	Query    string
	Status   AuditionStatus
	Category AuditionCategory
}
