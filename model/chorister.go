package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChoristerProfile holds the member details a chorister keeps up to date.
type ChoristerProfile struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"userId"`
	Phone            *string    `gorm:"type:varchar(50)" json:"phone"`
	Address          *string    `gorm:"type:varchar(200)" json:"address"`
	VoicePart        *string    `gorm:"type:varchar(50)" json:"voicePart"`
	DateOfBirth      *time.Time `json:"dateOfBirth"`
	EmergencyContact *string    `gorm:"type:varchar(120)" json:"emergencyContact"`
	StateOfOrigin    *string    `gorm:"type:varchar(60)" json:"stateOfOrigin"`
	CurrentParish    *string    `gorm:"type:varchar(120)" json:"currentParish"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (p *ChoristerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Rehearsal is a scheduled practice choristers check in to.
type Rehearsal struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(120);not null" json:"title"`
	StartsAt  time.Time `gorm:"not null;index" json:"startsAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Rehearsal) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// AttendanceStatus 考勤状态
type AttendanceStatus string

const AttendancePresent AttendanceStatus = "PRESENT"

// AttendanceRecord is a chorister's self-reported presence at a rehearsal.
// It counts once an administrator confirms it.
type AttendanceRecord struct {
	ID          string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	RehearsalID string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_attendance_rehearsal_user" json:"rehearsalId"`
	UserID      string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_attendance_rehearsal_user;index" json:"userId"`
	Status      AttendanceStatus `gorm:"type:varchar(16);not null;default:'PRESENT'" json:"status"`
	MarkedAt    time.Time        `gorm:"not null" json:"markedAt"`
	ConfirmedAt *time.Time       `gorm:"index" json:"confirmedAt"`
	ConfirmedBy *string          `gorm:"type:varchar(36)" json:"confirmedBy"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// AttendanceEntry is an attendance record joined with its rehearsal and chorister.
type AttendanceEntry struct {
	AttendanceRecord
	RehearsalTitle    string    `json:"rehearsalTitle"`
	RehearsalStartsAt time.Time `json:"rehearsalStartsAt"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
}

// ChoristerNotice is an announcement visible only inside the chorister area.
type ChoristerNotice struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string    `gorm:"type:varchar(120);not null" json:"title"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	AttachmentURL *string   `gorm:"type:varchar(512)" json:"attachmentUrl"`
	IsPublished   bool      `gorm:"not null;default:true;index" json:"isPublished"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (n *ChoristerNotice) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
