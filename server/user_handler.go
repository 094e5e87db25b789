package server

import (
	"net/http"
	"strconv"

	"JNChoral/core/account"
	"JNChoral/core/auth"

	"github.com/gorilla/mux"
)

type verifyRequest struct {
	Approved bool `json:"approved"`
}

// ListUsers 用户列表，pending=true 时只返回待审核的合唱团成员
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	users, err := h.accounts.ListUsers(r.Context(), auth.FromContext(r.Context()), pending)
	if err != nil {
		writeError(w, r, err, "Failed to load users")
		return
	}
	writeSuccess(w, http.StatusOK, users)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd account.UserUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err, "")
		return
	}
	user, err := h.accounts.UpdateUser(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], upd)
	if err != nil {
		writeError(w, r, err, "Failed to update user")
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

func (h *Handler) VerifyChorister(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.accounts.VerifyChorister(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Approved); err != nil {
		writeError(w, r, err, "Failed to verify chorister")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete user")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// UpdateProfile 用户修改自己的名称和头像
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd account.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err, "")
		return
	}
	user, err := h.accounts.UpdateProfile(r.Context(), auth.FromContext(r.Context()), upd)
	if err != nil {
		writeError(w, r, err, "Failed to update profile")
		return
	}
	writeSuccess(w, http.StatusOK, user)
}
