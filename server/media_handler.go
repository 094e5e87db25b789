package server

import (
	"net/http"

	"JNChoral/core/auth"
	"JNChoral/core/content"

	"github.com/gorilla/mux"
)

type titleRequest struct {
	Title string `json:"title"`
}

type posterRequest struct {
	PosterURL string `json:"posterUrl"`
}

func (h *Handler) GetMusic(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.content.Music(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load music")
		return
	}
	writeSuccess(w, http.StatusOK, tracks)
}

// UploadMusic 上传音频，表单字段 file、title
func (h *Handler) UploadMusic(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := readUpload(w, r, h.cfg.MaxAudioBytes, "Audio")
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	defer cleanup()

	item, err := h.content.UploadMusic(r.Context(), auth.FromContext(r.Context()), up)
	if err != nil {
		writeError(w, r, err, "Upload failed")
		return
	}
	writeSuccess(w, http.StatusCreated, item)
}

func (h *Handler) UpdateMusic(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.UpdateMusicTitle(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Title); err != nil {
		writeError(w, r, err, "Failed to update music")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) DeleteMusic(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteMusic(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete music")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) GetVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.content.Videos(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load videos")
		return
	}
	writeSuccess(w, http.StatusOK, videos)
}

// CreateVideo 登记外部托管的视频并发布公告
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var in content.VideoInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	video, err := h.content.CreateVideo(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err, "Failed to save video")
		return
	}
	writeSuccess(w, http.StatusCreated, video)
}

func (h *Handler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.UpdateVideoTitle(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Title); err != nil {
		writeError(w, r, err, "Failed to update video")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) UpdateVideoPoster(w http.ResponseWriter, r *http.Request) {
	var req posterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.UpdateVideoPoster(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.PosterURL); err != nil {
		writeError(w, r, err, "Failed to update video")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteVideo(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete video")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
