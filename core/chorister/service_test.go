package chorister

import (
	"context"
	"errors"
	"testing"
	"time"

	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/db/dbtest"
	"JNChoral/model"
	"JNChoral/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = &auth.Principal{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}

type fixture struct {
	svc   *Service
	users repository.UserRepository
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	users := repository.NewGormUserRepository(gdb)
	svc := NewService(users, repository.NewChoristerRepository(gdb), auth.NewRolePolicy(), DefaultLimits)
	f := &fixture{svc: svc, users: users, now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.now }
	return f
}

// member creates an account and returns the principal its session would carry.
func (f *fixture) member(t *testing.T, email string, chorister, verified bool) *auth.Principal {
	t.Helper()
	u := &model.User{Name: "Ada Obi", Email: email, PasswordHash: "x", IsChorister: chorister, ChoristerVerified: verified}
	require.NoError(t, f.users.CreateUser(context.Background(), u))
	return &auth.Principal{ID: u.ID, Email: u.Email, Name: u.Name, Role: model.RoleUser}
}

func TestMembersAreaAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plain := f.member(t, "plain@example.com", false, false)
	pending := f.member(t, "pending@example.com", true, false)
	verified := f.member(t, "verified@example.com", true, true)

	for _, caller := range []*auth.Principal{nil, plain, pending, {ID: "ghost"}} {
		_, err := f.svc.Dashboard(ctx, caller)
		assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	}

	d, err := f.svc.Dashboard(ctx, verified)
	require.NoError(t, err)
	assert.Equal(t, verified.ID, d.User.ID)
	assert.Nil(t, d.Profile)

	// 审核状态以数据库为准，而不是会话里的声明
	require.NoError(t, f.users.UpdateUser(ctx, pending.ID, map[string]interface{}{"chorister_verified": true}))
	_, err = f.svc.Dashboard(ctx, pending)
	assert.NoError(t, err)
}

func TestAdminActionsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	verified := f.member(t, "verified@example.com", true, true)

	_, err := f.svc.CreateRehearsal(ctx, verified, RehearsalInput{Title: "Sunday", StartsAt: f.now})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = f.svc.PendingAttendance(ctx, verified)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = f.svc.CreateNotice(ctx, nil, NoticeInput{Title: "Robes", Body: "Bring robes"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	assert.True(t, errors.Is(f.svc.DeleteNotice(ctx, verified, "x"), apperr.ErrUnauthorized))
}

func TestOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.member(t, "ada@example.com", true, true)

	err := f.svc.CompleteOnboarding(ctx, ada, OnboardingInput{Name: " A "})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)

	require.NoError(t, f.svc.CompleteOnboarding(ctx, ada, OnboardingInput{Name: "Ada Obi", Phone: " 0801 ", IsChorister: true}))
	_, err = f.svc.Dashboard(ctx, ada)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "joining again waits for verification")

	user, err := f.users.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.True(t, user.OnboardingComplete)
}

func TestSaveProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.member(t, "ada@example.com", true, true)

	_, err := f.svc.SaveProfile(ctx, ada, ProfileInput{DateOfBirth: "15/03/1990"})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "dateOfBirth", ve.Field)

	profile, err := f.svc.SaveProfile(ctx, ada, ProfileInput{VoicePart: "Alto", DateOfBirth: "1990-03-15", Address: "  "})
	require.NoError(t, err)
	assert.Equal(t, "Alto", *profile.VoicePart)
	assert.Nil(t, profile.Address)
	require.NotNil(t, profile.DateOfBirth)
	assert.Equal(t, "1990-03-15", profile.DateOfBirth.Format("2006-01-02"))
}

func TestAttendanceFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.member(t, "ada@example.com", true, true)

	_, err := f.svc.MarkAttendance(ctx, ada, " ")
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "rehearsalId", ve.Field)
	_, err = f.svc.MarkAttendance(ctx, ada, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.svc.CreateRehearsal(ctx, admin, RehearsalInput{Title: "Sunday"})
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "startsAt", ve.Field)

	held, err := f.svc.CreateRehearsal(ctx, admin, RehearsalInput{Title: "Sunday", StartsAt: f.now.Add(-72 * time.Hour)})
	require.NoError(t, err)
	_, err = f.svc.CreateRehearsal(ctx, admin, RehearsalInput{Title: "Wednesday", StartsAt: f.now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	_, err = f.svc.CreateRehearsal(ctx, admin, RehearsalInput{Title: "Next week", StartsAt: f.now.Add(7 * 24 * time.Hour)})
	require.NoError(t, err)

	_, err = f.svc.MarkAttendance(ctx, ada, held.ID)
	require.NoError(t, err)
	pending, err := f.svc.PendingAttendance(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, f.svc.ConfirmAttendance(ctx, admin, pending[0].ID))

	d, err := f.svc.Dashboard(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, d.Rehearsals, 3)
	assert.Equal(t, 2, d.Summary.Completed, "future rehearsals are not counted")
	assert.Equal(t, 1, d.Summary.Confirmed)
	assert.Equal(t, 50, d.Summary.Percent)
	require.NotNil(t, d.Attendance[0].ConfirmedBy)
	assert.Equal(t, admin.ID, *d.Attendance[0].ConfirmedBy)

	require.NoError(t, f.svc.RejectAttendance(ctx, admin, pending[0].ID))
	d, err = f.svc.Dashboard(ctx, ada)
	require.NoError(t, err)
	assert.Zero(t, d.Summary.Confirmed)
}

func TestNoticesVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.member(t, "ada@example.com", true, true)
	hidden := false

	_, err := f.svc.CreateNotice(ctx, admin, NoticeInput{Title: "Robes", Body: "Bring robes", AttachmentURL: "robes.pdf"})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "attachmentUrl", ve.Field)

	live, err := f.svc.CreateNotice(ctx, admin, NoticeInput{Title: "Retreat", Body: "Saturday retreat"})
	require.NoError(t, err)
	assert.True(t, live.IsPublished)
	draft, err := f.svc.CreateNotice(ctx, admin, NoticeInput{Title: "Robes", Body: "Bring robes", IsPublished: &hidden})
	require.NoError(t, err)

	d, err := f.svc.Dashboard(ctx, ada)
	require.NoError(t, err)
	require.Len(t, d.Notices, 1)
	assert.Equal(t, live.ID, d.Notices[0].ID)

	all, err := f.svc.Notices(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.svc.SetNoticePublished(ctx, admin, draft.ID, true))
	d, err = f.svc.Dashboard(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, d.Notices, 2)
}
