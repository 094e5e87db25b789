package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"JNChoral/core/apperr"
	"JNChoral/core/audition"
	"JNChoral/core/auth"
	"JNChoral/logger"

	"github.com/gorilla/mux"
)

// SubmitAudition 提交试音申请，无需登录
func (h *Handler) SubmitAudition(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	sub, err := audition.DecodeSubmission(raw)
	if err != nil {
		writeError(w, r, err, audition.SubmitFailedMessage)
		return
	}

	app, err := h.auditions.Submit(r.Context(), auth.FromContext(r.Context()), sub)
	if err != nil {
		writeError(w, r, err, audition.SubmitFailedMessage)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]string{"id": app.ID})
}

// ListAuditions 管理员按条件查询申请
func (h *Handler) ListAuditions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := audition.ParseFilter(q.Get("q"), q.Get("status"), q.Get("category"))
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	apps, err := h.auditions.List(r.Context(), auth.FromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, err, "Failed to load applications")
		return
	}
	writeSuccess(w, http.StatusOK, apps)
}

// UpdateAuditionStatus 管理员修改申请状态
func (h *Handler) UpdateAuditionStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid input")
		return
	}

	change, err := h.auditions.UpdateStatus(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err, "Failed to update status")
		return
	}
	writeSuccess(w, http.StatusOK, change)
}

// AuditionHistory 申请状态变更记录
func (h *Handler) AuditionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.auditions.History(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, "Failed to load history")
		return
	}
	writeSuccess(w, http.StatusOK, history)
}

// ExportAuditions 导出全部申请为 CSV
func (h *Handler) ExportAuditions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.auditions.Export(r.Context(), auth.FromContext(r.Context()), &buf); err != nil {
		writeError(w, r, err, "Failed to export applications")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audition.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error("写入导出文件失败", logger.ErrorField(err))
	}
}

// MyAuditions 当前用户自己的申请
func (h *Handler) MyAuditions(w http.ResponseWriter, r *http.Request) {
	apps, err := h.auditions.ListOwned(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load applications")
		return
	}
	writeSuccess(w, http.StatusOK, apps)
}

// DownloadConfirmation 下载已录取申请的确认卡片
func (h *Handler) DownloadConfirmation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, _, err := h.auditions.ConfirmationDocument(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrUnauthorized) {
			logger.Error("生成确认卡片失败", logger.String("applicationId", id), logger.ErrorField(err))
			http.Error(w, "Failed to generate document", http.StatusInternalServerError)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audition.DocumentFilename(id)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		logger.Error("写入确认卡片失败", logger.ErrorField(err))
	}
}
