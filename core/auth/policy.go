package auth

import (
	"fmt"

	"JNChoral/core/apperr"
	"JNChoral/model"
)

// Action names a privileged operation.
type Action string

const (
	ActionManageAuditions  Action = "auditions:manage"
	ActionExportAuditions  Action = "auditions:export"
	ActionManageContent    Action = "content:manage"
	ActionManageChoristers Action = "choristers:manage"
	ActionManageUsers      Action = "users:manage"
	ActionChoristerArea    Action = "choristers:area" // 成员专区：资料、排练、考勤、通知
)

// Policy decides whether a principal may perform an action.
type Policy interface {
	Authorize(p *Principal, action Action) error
}

// RolePolicy grants actions per role.
type RolePolicy struct {
	grants map[model.Role]map[Action]bool
}

// NewRolePolicy returns the site policy: administrators may do everything.
// Users only reach the chorister area, once verified.
func NewRolePolicy() *RolePolicy {
	return &RolePolicy{grants: map[model.Role]map[Action]bool{
		model.RoleAdmin: {
			ActionManageAuditions:  true,
			ActionExportAuditions:  true,
			ActionManageContent:    true,
			ActionManageChoristers: true,
			ActionManageUsers:      true,
			ActionChoristerArea:    true,
		},
	}}
}

func (rp *RolePolicy) Authorize(p *Principal, action Action) error {
	if p == nil {
		return apperr.ErrUnauthorized
	}
	if action == ActionChoristerArea && p.Chorister {
		return nil
	}
	if !rp.grants[p.Role][action] {
		return fmt.Errorf("%s may not %s: %w", p.ID, action, apperr.ErrUnauthorized)
	}
	return nil
}
