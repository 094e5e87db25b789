package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the role claim carried by a session.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a site account.
type User struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name               string    `gorm:"type:varchar(80);not null" json:"name"`
	Email              string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"email"`
	PasswordHash       string    `gorm:"type:varchar(255);not null" json:"-"` // Not exposed in API responses
	Role               Role      `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	Image              *string   `gorm:"type:varchar(512)" json:"image"`
	IsChorister        bool      `gorm:"not null;default:false" json:"isChorister"`
	ChoristerVerified  bool      `gorm:"not null;default:false;index" json:"choristerVerified"`
	OnboardingComplete bool      `gorm:"not null;default:false" json:"onboardingComplete"`
	AdminNote          *string   `gorm:"type:text" json:"adminNote,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// VerifiedChorister reports whether the user may enter the chorister area as a member.
func (u *User) VerifiedChorister() bool {
	return u.IsChorister && u.ChoristerVerified
}

// ForSelf strips what only administrators see before the user is shown their own account.
func (u *User) ForSelf() *User {
	u.AdminNote = nil
	return u
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// PasswordReset is a one-time code issued by the forgot-password flow.
type PasswordReset struct {
	ID        uint       `gorm:"primaryKey"`
	Email     string     `gorm:"type:varchar(191);not null;index"`
	CodeHash  string     `gorm:"type:char(64);not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}
