// Package audition implements the audition application workflow:
// public intake, administrator review and the applicant's own status view.
package audition

import (
	"context"
	"fmt"
	"io"
	"strings"

	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
	"JNChoral/repository"
)

// SubmitFailedMessage is shown when an otherwise valid submission could not be stored.
const SubmitFailedMessage = "Something went wrong while submitting. Please try again."

// filterAll is the listing sentinel for "no status/category filter".
const filterAll = "ALL"

type Service struct {
	repo     repository.AuditionRepository
	policy   auth.Policy
	renderer *DocumentRenderer
	fetchCap int
}

func NewService(repo repository.AuditionRepository, policy auth.Policy, renderer *DocumentRenderer, fetchCap int) *Service {
	return &Service{repo: repo, policy: policy, renderer: renderer, fetchCap: fetchCap}
}

// Submit validates s and stores it as a PENDING application.
// An authenticated caller is linked to the application; anonymous submissions are allowed.
func (s *Service) Submit(ctx context.Context, caller *auth.Principal, sub Submission) (*model.AuditionApplication, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	var userID string
	if caller != nil {
		userID = caller.ID
	}
	app := sub.ToApplication(userID)
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	logger.Info("audition application submitted",
		logger.String("applicationId", app.ID),
		logger.String("category", string(app.Category)),
		logger.Bool("linkedUser", app.UserID != nil))
	return app, nil
}

// ParseFilter builds a listing filter from raw query values. "" and "ALL" disable a dimension.
func ParseFilter(query, status, category string) (model.AuditionFilter, error) {
	f := model.AuditionFilter{Query: strings.TrimSpace(query)}

	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && status != filterAll {
		if !model.AuditionStatus(status).Valid() {
			return f, apperr.Invalid("status", "Unknown status filter")
		}
		f.Status = model.AuditionStatus(status)
	}

	category = strings.ToUpper(strings.TrimSpace(category))
	if category != "" && category != filterAll {
		if !model.AuditionCategory(category).Valid() {
			return f, apperr.Invalid("category", "Unknown category filter")
		}
		f.Category = model.AuditionCategory(category)
	}
	return f, nil
}

// List returns the newest applications matching f, capped at the configured fetch limit.
func (s *Service) List(ctx context.Context, caller *auth.Principal, f model.AuditionFilter) ([]model.AuditionApplication, error) {
	if err := s.policy.Authorize(caller, auth.ActionManageAuditions); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f, s.fetchCap)
}

// UpdateStatus sets the status of application id. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, caller *auth.Principal, id, status string) (*model.AuditionStatusChange, error) {
	if err := s.policy.Authorize(caller, auth.ActionManageAuditions); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	next := model.AuditionStatus(strings.TrimSpace(status))
	if id == "" || !next.Valid() {
		return nil, apperr.Invalid("status", "Invalid input")
	}

	change, err := s.repo.UpdateStatus(ctx, id, next, repository.StatusActor{ID: caller.ID, Email: caller.Email})
	if err != nil {
		return nil, err
	}

	logger.Info("audition status changed",
		logger.String("applicationId", id),
		logger.String("from", string(change.FromStatus)),
		logger.String("to", string(change.ToStatus)),
		logger.String("actorId", caller.ID))
	return change, nil
}

// History returns the status changes of application id, newest first.
func (s *Service) History(ctx context.Context, caller *auth.Principal, id string) ([]model.AuditionStatusChange, error) {
	if err := s.policy.Authorize(caller, auth.ActionManageAuditions); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// Export writes every application as CSV, newest first.
func (s *Service) Export(ctx context.Context, caller *auth.Principal, w io.Writer) error {
	if err := s.policy.Authorize(caller, auth.ActionExportAuditions); err != nil {
		return err
	}
	apps, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	if err := WriteCSV(w, apps); err != nil {
		return fmt.Errorf("failed to export auditions: %w", err)
	}
	return nil
}

// ListOwned returns the caller's applications, matched by user id or email.
func (s *Service) ListOwned(ctx context.Context, caller *auth.Principal) ([]model.AuditionApplication, error) {
	if caller == nil {
		return nil, apperr.ErrUnauthorized
	}
	return s.repo.ListOwned(ctx, caller.ID, caller.Email)
}

// ConfirmationDocument renders the card for an owned, ACCEPTED application.
// Foreign, missing and not-yet-accepted applications are all reported as apperr.ErrNotFound.
func (s *Service) ConfirmationDocument(ctx context.Context, caller *auth.Principal, id string) ([]byte, *model.AuditionApplication, error) {
	if caller == nil {
		return nil, nil, apperr.ErrUnauthorized
	}
	app, err := s.repo.FindOwned(ctx, id, caller.ID, caller.Email)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != model.StatusAccepted {
		return nil, nil, fmt.Errorf("application %s is %s: %w", id, app.Status, apperr.ErrNotFound)
	}

	doc, err := s.renderer.Render(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	return doc, app, nil
}
