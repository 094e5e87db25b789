package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"JNChoral/core/apperr"
	"JNChoral/db/dbtest"
	"JNChoral/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func newChorister(t *testing.T, gdb *gorm.DB, name, email string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, PasswordHash: "x", IsChorister: true, ChoristerVerified: true}
	require.NoError(t, NewGormUserRepository(gdb).CreateUser(context.Background(), u))
	return u
}

func TestProfileUpsert(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := NewChoristerRepository(gdb)
	ada := newChorister(t, gdb, "Ada", "ada@example.com")

	profile, err := repo.GetProfile(ctx, ada.ID)
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, repo.UpsertProfile(ctx, &model.ChoristerProfile{UserID: ada.ID, Phone: strPtr("0801"), VoicePart: strPtr("Alto")}))
	require.NoError(t, repo.UpsertProfile(ctx, &model.ChoristerProfile{UserID: ada.ID, Phone: strPtr("0802")}))

	profile, err = repo.GetProfile(ctx, ada.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "0802", *profile.Phone)
	assert.Nil(t, profile.VoicePart, "a full save overwrites every detail")

	var count int64
	require.NoError(t, gdb.Model(&model.ChoristerProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompleteOnboardingResetsVerification(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := NewChoristerRepository(gdb)
	ada := newChorister(t, gdb, "Ada", "ada@example.com")
	require.NoError(t, repo.UpsertProfile(ctx, &model.ChoristerProfile{UserID: ada.ID, VoicePart: strPtr("Alto")}))

	err := repo.CompleteOnboarding(ctx, ada.ID, "Ada Obi", true, &model.ChoristerProfile{CurrentParish: strPtr("St. Jude")})
	require.NoError(t, err)

	user, err := NewGormUserRepository(gdb).GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", user.Name)
	assert.True(t, user.OnboardingComplete)
	assert.True(t, user.IsChorister)
	assert.False(t, user.ChoristerVerified)

	profile, err := repo.GetProfile(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "St. Jude", *profile.CurrentParish)
	assert.Equal(t, "Alto", *profile.VoicePart, "onboarding keeps member-only details")

	err = repo.CompleteOnboarding(ctx, "missing", "Nobody", false, &model.ChoristerProfile{})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestAttendanceLifecycle(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := NewChoristerRepository(gdb)
	ada := newChorister(t, gdb, "Ada", "ada@example.com")
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	rehearsal := &model.Rehearsal{Title: "Sunday", StartsAt: now.Add(-time.Hour)}
	require.NoError(t, repo.CreateRehearsal(ctx, rehearsal))

	first, err := repo.MarkAttendance(ctx, rehearsal.ID, ada.ID, now)
	require.NoError(t, err)
	assert.Equal(t, model.AttendancePresent, first.Status)

	pending, err := repo.ListPendingAttendance(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Sunday", pending[0].RehearsalTitle)
	assert.Equal(t, "ada@example.com", pending[0].UserEmail)

	require.NoError(t, repo.ConfirmAttendance(ctx, first.ID, "admin-1", now.Add(time.Minute)))
	pending, err = repo.ListPendingAttendance(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	again, err := repo.MarkAttendance(ctx, rehearsal.ID, ada.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Nil(t, again.ConfirmedAt, "marking again needs a new confirmation")
	assert.Nil(t, again.ConfirmedBy)

	mine, err := repo.ListAttendanceByUser(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	assert.True(t, errors.Is(repo.ConfirmAttendance(ctx, "missing", "admin-1", now), apperr.ErrNotFound))

	require.NoError(t, repo.DeleteRehearsal(ctx, rehearsal.ID))
	mine, err = repo.ListAttendanceByUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	var count int64
	require.NoError(t, gdb.Model(&model.AttendanceRecord{}).Count(&count).Error)
	assert.Zero(t, count, "attendance goes with its rehearsal")

	_, err = repo.GetRehearsal(ctx, rehearsal.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestNotices(t *testing.T) {
	ctx := context.Background()
	repo := NewChoristerRepository(dbtest.Open(t))

	draft := &model.ChoristerNotice{Title: "Robes", Body: "Bring white robes", IsPublished: false}
	live := &model.ChoristerNotice{Title: "Retreat", Body: "Saturday retreat", IsPublished: true}
	require.NoError(t, repo.CreateNotice(ctx, draft))
	require.NoError(t, repo.CreateNotice(ctx, live))

	published, err := repo.ListNotices(ctx, true, 10)
	require.NoError(t, err)
	require.Len(t, published, 1, "an explicit false is not replaced by the column default")
	assert.Equal(t, live.ID, published[0].ID)

	require.NoError(t, repo.SetNoticePublished(ctx, draft.ID, true))
	all, err := repo.ListNotices(ctx, true, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.DeleteNotice(ctx, draft.ID))
	assert.True(t, errors.Is(repo.DeleteNotice(ctx, draft.ID), apperr.ErrNotFound))
}
