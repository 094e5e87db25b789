// Package account handles site registration, sign-in and password resets.
package account

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
	"JNChoral/repository"

	"github.com/go-playground/validator/v10"
)

const (
	resetCodeTTL = 15 * time.Minute

	msgEmailExists  = "Email already exists"
	msgBadLogin     = "Invalid email or password"
	msgInvalidReset = "Invalid or expired code"
	msgInvalidInput = "Invalid input"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name        string `json:"name" validate:"min=2,max=80"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"min=6,max=64"`
	IsChorister bool   `json:"isChorister"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetRequest completes a password reset.
type ResetRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"len=6,numeric"`
	Password string `json:"password" validate:"min=6,max=64"`
}

// Session is a signed-in user and their token.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

var fieldMessages = map[string]string{
	"name":      "Name must be 2 to 80 characters",
	"email":     "Enter a valid email",
	"password":  "Password must be 6 to 64 characters",
	"code":      msgInvalidReset,
	"image":     "Image must be a valid URL",
	"role":      "Role must be USER or ADMIN",
	"adminNote": "Note must be at most 2000 characters",
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("", msgInvalidInput)
	}
	field := verrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = msgInvalidInput
	}
	return apperr.Invalid(field, msg)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Service struct {
	users           repository.UserRepository
	resets          repository.PasswordResetRepository
	tokens          *auth.TokenManager
	policy          auth.Policy
	exposeResetCode bool
	now             func() time.Time
}

func NewService(users repository.UserRepository, resets repository.PasswordResetRepository, tokens *auth.TokenManager, policy auth.Policy, exposeResetCode bool) *Service {
	return &Service{
		users:           users,
		resets:          resets,
		tokens:          tokens,
		policy:          policy,
		exposeResetCode: exposeResetCode,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsChorister:  req.IsChorister,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperr.Conflict(msgEmailExists)
		}
		return nil, err
	}

	logger.Info("user registered", logger.String("userId", user.ID), logger.Bool("isChorister", user.IsChorister))
	return user, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Unauthorized(msgBadLogin)
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized(msgBadLogin)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("failed login", logger.String("userId", user.ID))
		return nil, apperr.Unauthorized(msgBadLogin)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: s.now().Add(s.tokens.TTL()), User: user.ForSelf()}, nil
}

// Me loads the account behind a session.
func (s *Service) Me(ctx context.Context, caller *auth.Principal) (*model.User, error) {
	if caller == nil {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return user.ForSelf(), nil
}

// RequestReset issues a one-time code for email. Unknown emails succeed silently.
// The returned code is empty unless codes are exposed, since no mail transport exists.
func (s *Service) RequestReset(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", apperr.Invalid("email", fieldMessages["email"])
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	code, err := auth.NewResetCode()
	if err != nil {
		return "", err
	}
	reset := &model.PasswordReset{
		Email:     email,
		CodeHash:  auth.HashResetCode(code),
		ExpiresAt: s.now().Add(resetCodeTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", err
	}

	logger.Info("password reset requested", logger.Int64("resetId", int64(reset.ID)))
	if !s.exposeResetCode {
		return "", nil
	}
	return code, nil
}

// ResetPassword consumes a valid code and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, req ResetRequest) error {
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}

	now := s.now()
	reset, err := s.resets.FindValid(ctx, req.Email, auth.HashResetCode(req.Code), now)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("code", msgInvalidReset)
	}
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.resets.Consume(ctx, reset, hash, now); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("code", msgInvalidReset)
		}
		return err
	}

	logger.Info("password reset completed", logger.Int64("resetId", int64(reset.ID)))
	return nil
}

// EnsureAdmin creates email as an ADMIN or promotes the existing account and replaces its password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	req := RegisterRequest{Name: strings.TrimSpace(name), Email: normalizeEmail(email), Password: password}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := s.users.SaveAdmin(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save admin %s: %w", req.Email, err)
	}
	logger.Info("administrator ensured", logger.String("userId", user.ID))
	return user, nil
}
