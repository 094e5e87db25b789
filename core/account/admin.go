package account

import (
	"context"
	"errors"
	"strings"

	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
)

const userListCap = 500

// UserUpdate is an administrator's edit of an account. Nil fields are left unchanged.
type UserUpdate struct {
	Name              *string     `json:"name" validate:"omitempty,min=2,max=80"`
	Role              *model.Role `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	IsChorister       *bool       `json:"isChorister"`
	ChoristerVerified *bool       `json:"choristerVerified"`
	AdminNote         *string     `json:"adminNote" validate:"omitempty,max=2000"`
}

// columns maps the update onto user columns.
// Verifying makes the user a chorister; leaving the choir drops verification.
func (u UserUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Role != nil {
		cols["role"] = *u.Role
	}
	if u.IsChorister != nil {
		cols["is_chorister"] = *u.IsChorister
	}
	if u.ChoristerVerified != nil {
		cols["chorister_verified"] = *u.ChoristerVerified
	}
	if u.IsChorister != nil && !*u.IsChorister {
		cols["chorister_verified"] = false
	}
	if u.ChoristerVerified != nil && *u.ChoristerVerified {
		cols["is_chorister"] = true
	}
	if u.AdminNote != nil {
		if note := strings.TrimSpace(*u.AdminNote); note != "" {
			cols["admin_note"] = note
		} else {
			cols["admin_note"] = nil
		}
	}
	return cols
}

// ProfileUpdate is a user's edit of their own account.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"min=2,max=80"`
	Image string `json:"image" validate:"omitempty,url"`
}

// ListUsers returns accounts newest first. pendingOnly keeps choristers awaiting verification.
func (s *Service) ListUsers(ctx context.Context, caller *auth.Principal, pendingOnly bool) ([]model.User, error) {
	if err := s.policy.Authorize(caller, auth.ActionManageUsers); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx, pendingOnly, userListCap)
}

// UpdateUser applies an administrator's edit and returns the stored account.
func (s *Service) UpdateUser(ctx context.Context, caller *auth.Principal, id string, upd UserUpdate) (*model.User, error) {
	if err := s.policy.Authorize(caller, auth.ActionManageUsers); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}
	if err := validate.Struct(upd); err != nil {
		return nil, validationError(err)
	}

	if cols := upd.columns(); len(cols) > 0 {
		if err := s.users.UpdateUser(ctx, id, cols); err != nil {
			return nil, err
		}
		logger.Info("user updated by admin", logger.String("userId", id), logger.String("actorId", caller.ID))
	}
	return s.users.GetUserByID(ctx, id)
}

// VerifyChorister approves or declines a chorister request.
func (s *Service) VerifyChorister(ctx context.Context, caller *auth.Principal, id string, approved bool) error {
	if err := s.policy.Authorize(caller, auth.ActionManageUsers); err != nil {
		return err
	}
	err := s.users.UpdateUser(ctx, id, map[string]interface{}{
		"is_chorister":       approved,
		"chorister_verified": approved,
	})
	if err != nil {
		return err
	}
	logger.Info("chorister verification set",
		logger.String("userId", id), logger.Bool("approved", approved), logger.String("actorId", caller.ID))
	return nil
}

// DeleteUser removes an account. Its applications stay, unlinked.
// Administrators cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.policy.Authorize(caller, auth.ActionManageUsers); err != nil {
		return err
	}
	if id == caller.ID {
		return apperr.Conflict("You cannot delete your own account")
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	logger.Info("user deleted", logger.String("userId", id), logger.String("actorId", caller.ID))
	return nil
}

// UpdateProfile changes the caller's display name and picture. A blank image clears it.
func (s *Service) UpdateProfile(ctx context.Context, caller *auth.Principal, upd ProfileUpdate) (*model.User, error) {
	if caller == nil {
		return nil, apperr.ErrUnauthorized
	}
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Image = strings.TrimSpace(upd.Image)
	if err := validate.Struct(upd); err != nil {
		return nil, validationError(err)
	}

	var image interface{}
	if upd.Image != "" {
		image = upd.Image
	}
	err := s.users.UpdateUser(ctx, caller.ID, map[string]interface{}{"name": upd.Name, "image": image})
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.Me(ctx, caller)
}
