package server

import (
	"net/http"
	"time"

	"JNChoral/core/account"
	"JNChoral/core/auth"
	"JNChoral/logger"
)

// Register 用户注册
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Registration failed. Please try again.")
		return
	}
	writeSuccess(w, http.StatusCreated, user)
}

// Login 用户登录，同时下发会话 Cookie 供页面使用
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}

	session, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Login failed. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	logger.Info("[Login] 登录成功", logger.String("userId", session.User.ID))
	writeSuccess(w, http.StatusOK, session)
}

// Logout 清除会话 Cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeSuccess(w, http.StatusOK, nil)
}

// ForgotPassword 申请重置码，不暴露邮箱是否注册
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}

	code, err := h.accounts.RequestReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err, "Could not start the reset. Please try again.")
		return
	}

	resp := apiResponse{Success: true, Message: "If the email is registered, a reset code has been issued."}
	if code != "" {
		resp.Data = map[string]string{"code": code}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword 使用重置码设置新密码
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req account.ResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req); err != nil {
		writeError(w, r, err, "Could not reset the password. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Password updated"})
}

// Me 当前登录用户
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load profile")
		return
	}
	writeSuccess(w, http.StatusOK, user)
}
