package server

import (
	"net/http"

	"JNChoral/core/auth"
	"JNChoral/core/content"

	"github.com/gorilla/mux"
)

type publishRequest struct {
	Published bool `json:"published"`
}

// GetNews 获取已发布公告
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.PublishedNews(r.Context())
	if err != nil {
		writeError(w, r, err, "获取公告失败")
		return
	}
	writeSuccess(w, http.StatusOK, posts)
}

// GetNewsItem 获取单条已发布公告
func (h *Handler) GetNewsItem(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.NewsItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, "获取公告失败")
		return
	}
	writeSuccess(w, http.StatusOK, post)
}

// ListAllAnnouncements 管理员获取全部公告（含草稿）
func (h *Handler) ListAllAnnouncements(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.AllNews(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "获取公告失败")
		return
	}
	writeSuccess(w, http.StatusOK, posts)
}

// CreateAnnouncement 创建公告
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in content.AnnouncementInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	post, err := h.content.CreateNews(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err, "创建公告失败")
		return
	}
	writeSuccess(w, http.StatusCreated, post)
}

// UpdateAnnouncement 修改公告标题和正文
func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in content.AnnouncementInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.UpdateNews(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], in); err != nil {
		writeError(w, r, err, "更新公告失败")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// PublishAnnouncement 发布或撤回公告
func (h *Handler) PublishAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.SetNewsPublished(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Published); err != nil {
		writeError(w, r, err, "更新公告失败")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// DeleteAnnouncement 删除公告
func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteNews(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "删除公告失败")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// ContentStats 内容统计
func (h *Handler) ContentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.content.Stats(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "获取统计信息失败")
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}
