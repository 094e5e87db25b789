// Package chorister runs the members' area: onboarding, profiles, rehearsal attendance and notices.
package chorister

import (
	"context"
	"errors"
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

const msgInvalidData = "Invalid data"

// Limits caps listing sizes.
type Limits struct {
	Notices    int
	Rehearsals int
	Pending    int
}

// DefaultLimits are the listing sizes of the members' area.
var DefaultLimits = Limits{Notices: 50, Rehearsals: 200, Pending: 200}

type Service struct {
	users  repository.UserRepository
	repo   *repository.ChoristerRepository
	policy auth.Policy
	limits Limits
	now    func() time.Time
}

func NewService(users repository.UserRepository, repo *repository.ChoristerRepository, policy auth.Policy, limits Limits) *Service {
	return &Service{
		users:  users,
		repo:   repo,
		policy: policy,
		limits: limits,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var fieldMessages = map[string]string{
	"name":          "Name must be 2 to 80 characters",
	"title":         "Title must be 2 to 120 characters",
	"body":          "Body must be 2 to 2000 characters",
	"attachmentUrl": "Attachment must be a valid URL",
	"startsAt":      "Invalid date",
	"rehearsalId":   "Select a rehearsal",
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
		return apperr.Invalid("", msgInvalidData)
	}
	field := verrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = msgInvalidData
	}
	return apperr.Invalid(field, msg)
}

// optional trims s and turns a blank value into NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// account reloads the caller so role and verification changes apply without a new session.
func (s *Service) account(ctx context.Context, caller *auth.Principal) (*model.User, error) {
	if caller == nil {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	return user, err
}

// member returns the caller's account when it may enter the members' area.
func (s *Service) member(ctx context.Context, caller *auth.Principal) (*model.User, error) {
	user, err := s.account(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(auth.PrincipalFor(user), auth.ActionChoristerArea); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) authorizeAdmin(caller *auth.Principal) error {
	return s.policy.Authorize(caller, auth.ActionManageChoristers)
}

// OnboardingInput completes a new account.
type OnboardingInput struct {
	Name          string `json:"name" validate:"min=2,max=80"`
	Phone         string `json:"phone" validate:"max=50"`
	Address       string `json:"address" validate:"max=200"`
	StateOfOrigin string `json:"stateOfOrigin" validate:"max=60"`
	CurrentParish string `json:"currentParish" validate:"max=120"`
	IsChorister   bool   `json:"isChorister"`
}

// CompleteOnboarding stores the caller's contact details. Asking to join the choir
// always waits for an administrator's verification.
func (s *Service) CompleteOnboarding(ctx context.Context, caller *auth.Principal, in OnboardingInput) error {
	user, err := s.account(ctx, caller)
	if err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}

	profile := &model.ChoristerProfile{
		Phone:         optional(in.Phone),
		Address:       optional(in.Address),
		StateOfOrigin: optional(in.StateOfOrigin),
		CurrentParish: optional(in.CurrentParish),
	}
	if err := s.repo.CompleteOnboarding(ctx, user.ID, in.Name, in.IsChorister, profile); err != nil {
		return err
	}
	logger.Info("onboarding completed", logger.String("userId", user.ID), logger.Bool("isChorister", in.IsChorister))
	return nil
}

// ProfileInput is the chorister's member profile.
type ProfileInput struct {
	Phone            string `json:"phone" validate:"max=50"`
	Address          string `json:"address" validate:"max=200"`
	VoicePart        string `json:"voicePart" validate:"max=50"`
	DateOfBirth      string `json:"dateOfBirth"`
	EmergencyContact string `json:"emergencyContact" validate:"max=120"`
	StateOfOrigin    string `json:"stateOfOrigin" validate:"max=60"`
	CurrentParish    string `json:"currentParish" validate:"max=120"`
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Invalid("dateOfBirth", "Invalid date of birth")
}

// SaveProfile creates or replaces the caller's member profile.
func (s *Service) SaveProfile(ctx context.Context, caller *auth.Principal, in ProfileInput) (*model.ChoristerProfile, error) {
	user, err := s.member(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpsertProfile(ctx, &model.ChoristerProfile{
		UserID:           user.ID,
		Phone:            optional(in.Phone),
		Address:          optional(in.Address),
		VoicePart:        optional(in.VoicePart),
		DateOfBirth:      dob,
		EmergencyContact: optional(in.EmergencyContact),
		StateOfOrigin:    optional(in.StateOfOrigin),
		CurrentParish:    optional(in.CurrentParish),
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, user.ID)
}

// Dashboard is everything the members' area shows a chorister.
type Dashboard struct {
	User       *model.User             `json:"user"`
	Profile    *model.ChoristerProfile `json:"profile"`
	Notices    []model.ChoristerNotice `json:"notices"`
	Rehearsals []model.Rehearsal       `json:"rehearsals"`
	Attendance []model.AttendanceEntry `json:"attendance"`
	Summary    AttendanceSummary       `json:"summary"`
}

func (s *Service) Dashboard(ctx context.Context, caller *auth.Principal) (*Dashboard, error) {
	user, err := s.member(ctx, caller)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{User: user.ForSelf()}
	if d.Profile, err = s.repo.GetProfile(ctx, user.ID); err != nil {
		return nil, err
	}
	if d.Notices, err = s.repo.ListNotices(ctx, true, s.limits.Notices); err != nil {
		return nil, err
	}
	if d.Rehearsals, err = s.repo.ListRehearsals(ctx, s.limits.Rehearsals); err != nil {
		return nil, err
	}
	if d.Attendance, err = s.repo.ListAttendanceByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	d.Summary = Summarize(d.Rehearsals, d.Attendance, s.now())
	return d, nil
}

// MarkAttendance records the caller as present at a rehearsal, pending confirmation.
func (s *Service) MarkAttendance(ctx context.Context, caller *auth.Principal, rehearsalID string) (*model.AttendanceRecord, error) {
	user, err := s.member(ctx, caller)
	if err != nil {
		return nil, err
	}
	rehearsalID = strings.TrimSpace(rehearsalID)
	if rehearsalID == "" {
		return nil, apperr.Invalid("rehearsalId", fieldMessages["rehearsalId"])
	}
	if _, err := s.repo.GetRehearsal(ctx, rehearsalID); err != nil {
		return nil, err
	}

	record, err := s.repo.MarkAttendance(ctx, rehearsalID, user.ID, s.now())
	if err != nil {
		return nil, err
	}
	logger.Info("attendance marked", logger.String("rehearsalId", rehearsalID), logger.String("userId", user.ID))
	return record, nil
}
