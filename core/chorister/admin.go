package chorister

import (
	"context"
	"strings"
	"time"

	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
)

// RehearsalInput schedules a rehearsal.
type RehearsalInput struct {
	Title    string    `json:"title" validate:"min=2,max=120"`
	StartsAt time.Time `json:"startsAt" validate:"required"`
}

func (s *Service) Rehearsals(ctx context.Context, caller *auth.Principal) ([]model.Rehearsal, error) {
	if err := s.authorizeAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.ListRehearsals(ctx, s.limits.Rehearsals)
}

func (s *Service) CreateRehearsal(ctx context.Context, caller *auth.Principal, in RehearsalInput) (*model.Rehearsal, error) {
	if err := s.authorizeAdmin(caller); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	rehearsal := &model.Rehearsal{Title: in.Title, StartsAt: in.StartsAt.UTC()}
	if err := s.repo.CreateRehearsal(ctx, rehearsal); err != nil {
		return nil, err
	}
	logger.Info("rehearsal created", logger.String("id", rehearsal.ID), logger.String("actorId", caller.ID))
	return rehearsal, nil
}

// DeleteRehearsal removes a rehearsal and the attendance marked for it.
func (s *Service) DeleteRehearsal(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorizeAdmin(caller); err != nil {
		return err
	}
	if err := s.repo.DeleteRehearsal(ctx, id); err != nil {
		return err
	}
	logger.Info("rehearsal deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// PendingAttendance lists attendance awaiting confirmation.
func (s *Service) PendingAttendance(ctx context.Context, caller *auth.Principal) ([]model.AttendanceEntry, error) {
	if err := s.authorizeAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.ListPendingAttendance(ctx, s.limits.Pending)
}

func (s *Service) ConfirmAttendance(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorizeAdmin(caller); err != nil {
		return err
	}
	if err := s.repo.ConfirmAttendance(ctx, id, caller.ID, s.now()); err != nil {
		return err
	}
	logger.Info("attendance confirmed", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// RejectAttendance discards a record; the chorister may mark it again.
func (s *Service) RejectAttendance(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorizeAdmin(caller); err != nil {
		return err
	}
	if err := s.repo.DeleteAttendance(ctx, id); err != nil {
		return err
	}
	logger.Info("attendance rejected", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// NoticeInput is a chorister notice. Notices are published unless IsPublished is false.
type NoticeInput struct {
	Title         string `json:"title" validate:"min=2,max=120"`
	Body          string `json:"body" validate:"min=2,max=2000"`
	AttachmentURL string `json:"attachmentUrl" validate:"omitempty,url"`
	IsPublished   *bool  `json:"isPublished"`
}

func (s *Service) Notices(ctx context.Context, caller *auth.Principal) ([]model.ChoristerNotice, error) {
	if err := s.authorizeAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.ListNotices(ctx, false, s.limits.Rehearsals)
}

func (s *Service) CreateNotice(ctx context.Context, caller *auth.Principal, in NoticeInput) (*model.ChoristerNotice, error) {
	if err := s.authorizeAdmin(caller); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.AttachmentURL = strings.TrimSpace(in.AttachmentURL)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	notice := &model.ChoristerNotice{
		Title:         in.Title,
		Body:          in.Body,
		AttachmentURL: optional(in.AttachmentURL),
		IsPublished:   in.IsPublished == nil || *in.IsPublished,
	}
	if err := s.repo.CreateNotice(ctx, notice); err != nil {
		return nil, err
	}
	logger.Info("chorister notice created", logger.String("id", notice.ID), logger.String("actorId", caller.ID))
	return notice, nil
}

func (s *Service) SetNoticePublished(ctx context.Context, caller *auth.Principal, id string, published bool) error {
	if err := s.authorizeAdmin(caller); err != nil {
		return err
	}
	return s.repo.SetNoticePublished(ctx, id, published)
}

func (s *Service) DeleteNotice(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorizeAdmin(caller); err != nil {
		return err
	}
	if err := s.repo.DeleteNotice(ctx, id); err != nil {
		return err
	}
	logger.Info("chorister notice deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}
