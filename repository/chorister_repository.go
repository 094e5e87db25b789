package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"JNChoral/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChoristerRepository stores member profiles, rehearsals, attendance and chorister notices.
type ChoristerRepository struct {
	DB *gorm.DB
}

func NewChoristerRepository(gdb *gorm.DB) *ChoristerRepository {
	return &ChoristerRepository{DB: gdb}
}

var profileColumns = []string{
	"phone", "address", "voice_part", "date_of_birth",
	"emergency_contact", "state_of_origin", "current_parish", "updated_at",
}

// GetProfile returns nil without error when the user has no profile yet.
func (r *ChoristerRepository) GetProfile(ctx context.Context, userID string) (*model.ChoristerProfile, error) {
	var profile model.ChoristerProfile
	err := r.DB.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile of %s: %w", userID, err)
	}
	return &profile, nil
}

// UpsertProfile creates the profile of profile.UserID or overwrites every detail of the existing one.
func (r *ChoristerRepository) UpsertProfile(ctx context.Context, profile *model.ChoristerProfile) error {
	return upsertProfile(r.DB.WithContext(ctx), profile, profileColumns)
}

func upsertProfile(tx *gorm.DB, profile *model.ChoristerProfile, columns []string) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to save profile of %s: %w", profile.UserID, err)
	}
	return nil
}

// CompleteOnboarding updates the account and the contact part of its profile together.
// Choosing to be a chorister always resets verification.
func (r *ChoristerRepository) CompleteOnboarding(ctx context.Context, userID, name string, isChorister bool, profile *model.ChoristerProfile) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"name":                name,
			"onboarding_complete": true,
			"is_chorister":        isChorister,
			"chorister_verified":  false,
		})
		if err := affected(res, "user "+userID); err != nil {
			return err
		}
		profile.UserID = userID
		return upsertProfile(tx, profile, []string{"phone", "address", "state_of_origin", "current_parish", "updated_at"})
	})
}

func (r *ChoristerRepository) CreateRehearsal(ctx context.Context, rehearsal *model.Rehearsal) error {
	if err := r.DB.WithContext(ctx).Create(rehearsal).Error; err != nil {
		return fmt.Errorf("failed to create rehearsal: %w", err)
	}
	return nil
}

func (r *ChoristerRepository) GetRehearsal(ctx context.Context, id string) (*model.Rehearsal, error) {
	var rehearsal model.Rehearsal
	if err := r.DB.WithContext(ctx).First(&rehearsal, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "rehearsal "+id)
	}
	return &rehearsal, nil
}

// ListRehearsals returns the latest rehearsals first.
func (r *ChoristerRepository) ListRehearsals(ctx context.Context, limit int) ([]model.Rehearsal, error) {
	var rehearsals []model.Rehearsal
	q := r.DB.WithContext(ctx).Order("starts_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rehearsals).Error; err != nil {
		return nil, fmt.Errorf("failed to list rehearsals: %w", err)
	}
	return rehearsals, nil
}

// DeleteRehearsal removes the rehearsal with its attendance records.
func (r *ChoristerRepository) DeleteRehearsal(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rehearsal_id = ?", id).Delete(&model.AttendanceRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete attendance of rehearsal %s: %w", id, err)
		}
		return affected(tx.Where("id = ?", id).Delete(&model.Rehearsal{}), "rehearsal "+id)
	})
}

// MarkAttendance records userID as present. Marking again clears an earlier confirmation.
func (r *ChoristerRepository) MarkAttendance(ctx context.Context, rehearsalID, userID string, now time.Time) (*model.AttendanceRecord, error) {
	record := &model.AttendanceRecord{
		RehearsalID: rehearsalID,
		UserID:      userID,
		Status:      model.AttendancePresent,
		MarkedAt:    now,
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rehearsal_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":       model.AttendancePresent,
			"marked_at":    now,
			"confirmed_at": nil,
			"confirmed_by": nil,
		}),
	}).Create(record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	// 冲突更新时主键沿用已有记录，重新读取
	var saved model.AttendanceRecord
	if err := r.DB.WithContext(ctx).First(&saved, "rehearsal_id = ? AND user_id = ?", rehearsalID, userID).Error; err != nil {
		return nil, notFound(err, "attendance record")
	}
	return &saved, nil
}

func (r *ChoristerRepository) ConfirmAttendance(ctx context.Context, id, adminID string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&model.AttendanceRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"confirmed_at": now,
		"confirmed_by": adminID,
	})
	return affected(res, "attendance record "+id)
}

// DeleteAttendance rejects a record by removing it.
func (r *ChoristerRepository) DeleteAttendance(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.AttendanceRecord{})
	return affected(res, "attendance record "+id)
}

func (r *ChoristerRepository) attendanceQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("attendance_records AS a").
		Select("a.*, r.title AS rehearsal_title, r.starts_at AS rehearsal_starts_at, u.name AS user_name, u.email AS user_email").
		Joins("JOIN rehearsals AS r ON r.id = a.rehearsal_id").
		Joins("JOIN users AS u ON u.id = a.user_id")
}

// ListAttendanceByUser returns the records of one chorister, latest rehearsal first.
func (r *ChoristerRepository) ListAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceEntry, error) {
	var entries []model.AttendanceEntry
	err := r.attendanceQuery(ctx).Where("a.user_id = ?", userID).Order("r.starts_at DESC").Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance of %s: %w", userID, err)
	}
	return entries, nil
}

// ListPendingAttendance returns unconfirmed records, oldest mark first.
func (r *ChoristerRepository) ListPendingAttendance(ctx context.Context, limit int) ([]model.AttendanceEntry, error) {
	var entries []model.AttendanceEntry
	q := r.attendanceQuery(ctx).Where("a.confirmed_at IS NULL").Order("a.marked_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending attendance: %w", err)
	}
	return entries, nil
}

func (r *ChoristerRepository) CreateNotice(ctx context.Context, notice *model.ChoristerNotice) error {
	// 显式写入 false，避免零值被列默认值 true 覆盖
	if err := r.DB.WithContext(ctx).Select("*").Create(notice).Error; err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}
	return nil
}

// ListNotices returns notices newest first.
func (r *ChoristerRepository) ListNotices(ctx context.Context, publishedOnly bool, limit int) ([]model.ChoristerNotice, error) {
	var notices []model.ChoristerNotice
	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notices).Error; err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}
	return notices, nil
}

func (r *ChoristerRepository) SetNoticePublished(ctx context.Context, id string, published bool) error {
	res := r.DB.WithContext(ctx).Model(&model.ChoristerNotice{}).Where("id = ?", id).Update("is_published", published)
	return affected(res, "notice "+id)
}

func (r *ChoristerRepository) DeleteNotice(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.ChoristerNotice{})
	return affected(res, "notice "+id)
}
