package server

import (
	"net/http"

	"JNChoral/core/auth"
	"JNChoral/core/chorister"

	"github.com/gorilla/mux"
)

type attendanceRequest struct {
	RehearsalID string `json:"rehearsalId"`
}

// ChoristerDashboard 合唱团成员主页数据
func (h *Handler) ChoristerDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.choristers.Dashboard(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load members' area")
		return
	}
	writeSuccess(w, http.StatusOK, d)
}

func (h *Handler) SaveChoristerProfile(w http.ResponseWriter, r *http.Request) {
	var in chorister.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	profile, err := h.choristers.SaveProfile(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err, "Failed to save profile")
		return
	}
	writeSuccess(w, http.StatusOK, profile)
}

// MarkAttendance 成员登记出席，等待管理员确认
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	record, err := h.choristers.MarkAttendance(r.Context(), auth.FromContext(r.Context()), req.RehearsalID)
	if err != nil {
		writeError(w, r, err, "Failed to mark attendance")
		return
	}
	writeSuccess(w, http.StatusOK, record)
}

func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var in chorister.OnboardingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.choristers.CompleteOnboarding(r.Context(), auth.FromContext(r.Context()), in); err != nil {
		writeError(w, r, err, "Failed to complete onboarding")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) ListRehearsals(w http.ResponseWriter, r *http.Request) {
	rehearsals, err := h.choristers.Rehearsals(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load rehearsals")
		return
	}
	writeSuccess(w, http.StatusOK, rehearsals)
}

func (h *Handler) CreateRehearsal(w http.ResponseWriter, r *http.Request) {
	var in chorister.RehearsalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	rehearsal, err := h.choristers.CreateRehearsal(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err, "Failed to create rehearsal")
		return
	}
	writeSuccess(w, http.StatusCreated, rehearsal)
}

func (h *Handler) DeleteRehearsal(w http.ResponseWriter, r *http.Request) {
	if err := h.choristers.DeleteRehearsal(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete rehearsal")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// PendingAttendance 待确认的出席记录
func (h *Handler) PendingAttendance(w http.ResponseWriter, r *http.Request) {
	entries, err := h.choristers.PendingAttendance(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load attendance")
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}

func (h *Handler) ConfirmAttendance(w http.ResponseWriter, r *http.Request) {
	if err := h.choristers.ConfirmAttendance(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to confirm attendance")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) RejectAttendance(w http.ResponseWriter, r *http.Request) {
	if err := h.choristers.RejectAttendance(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to reject attendance")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.choristers.Notices(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load notices")
		return
	}
	writeSuccess(w, http.StatusOK, notices)
}

func (h *Handler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	var in chorister.NoticeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	notice, err := h.choristers.CreateNotice(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err, "Failed to create notice")
		return
	}
	writeSuccess(w, http.StatusCreated, notice)
}

func (h *Handler) PublishNotice(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.choristers.SetNoticePublished(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Published); err != nil {
		writeError(w, r, err, "Failed to update notice")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.choristers.DeleteNotice(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete notice")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
