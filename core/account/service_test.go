package account

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

func newTestService(t *testing.T, expose bool) *Service {
	t.Helper()
	gdb := dbtest.Open(t)
	tokens, err := auth.NewTokenManager("test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	users := repository.NewGormUserRepository(gdb)
	return NewService(users, repository.NewGormPasswordResetRepository(gdb), tokens, auth.NewRolePolicy(), expose)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	user, err := svc.Register(ctx, RegisterRequest{Name: "Ada Obi", Email: "Ada@Example.com", Password: "secret1", IsChorister: true})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.True(t, user.IsChorister)

	session, err := svc.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.User.ID)

	me, err := svc.Me(ctx, &auth.Principal{ID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", me.Name)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ADA@example.com", Password: "secret2"})
	require.True(t, errors.Is(err, apperr.ErrConflict))
	msg, ok := apperr.PublicMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Email already exists", msg)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	cases := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"short name", RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"}, "name"},
		{"bad email", RegisterRequest{Name: "Ada", Email: "nope", Password: "secret1"}, "email"},
		{"short password", RegisterRequest{Name: "Ada", Email: "a@example.com", Password: "12345"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			ve, ok := apperr.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	for _, req := range []LoginRequest{
		{Email: "ada@example.com", Password: "wrong-pass"},
		{Email: "ghost@example.com", Password: "secret1"},
		{Email: "", Password: ""},
	} {
		_, err := svc.Login(ctx, req)
		assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
		msg, _ := apperr.PublicMessage(err)
		assert.Equal(t, "Invalid email or password", msg)
	}
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, true)

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	code, err := svc.RequestReset(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	err = svc.ResetPassword(ctx, ResetRequest{Email: "ada@example.com", Code: "000000", Password: "newpass1"})
	if code != "000000" {
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "Invalid or expired code", ve.Message)
	}

	require.NoError(t, svc.ResetPassword(ctx, ResetRequest{Email: "ada@example.com", Code: code, Password: "newpass1"}))

	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "newpass1"})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, ResetRequest{Email: "ada@example.com", Code: code, Password: "again12"})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok, "a code works once")
}

func TestPasswordResetExpires(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, true)

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	code, err := svc.RequestReset(ctx, "ada@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(16 * time.Minute) }
	err = svc.ResetPassword(ctx, ResetRequest{Email: "ada@example.com", Code: code, Password: "newpass1"})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestRequestResetDoesNotEnumerate(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t, true)
	code, err := svc.RequestReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)

	hidden := newTestService(t, false)
	_, err = hidden.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	code, err = hidden.RequestReset(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	admin, err := svc.EnsureAdmin(ctx, "ada@example.com", "adminpass", "Ada Admin")
	require.NoError(t, err)

	session, err := svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "adminpass"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.User.ID)
	assert.Equal(t, model.RoleAdmin, session.User.Role)
}
