package server

import (
	"fmt"
	"net/http"
	"strconv"

	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/core/content"
	"JNChoral/storage"

	"github.com/gorilla/mux"
)

func (h *Handler) GetGallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.PublishedGallery(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load gallery")
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) ListAllGallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.AllGallery(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load gallery")
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

// UploadGalleryImage 上传图片，表单字段 file、title、publish
func (h *Handler) UploadGalleryImage(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := readUpload(w, r, h.cfg.MaxUploadBytes, "Image")
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	defer cleanup()

	up.Publish, _ = strconv.ParseBool(r.FormValue("publish"))
	item, err := h.content.UploadImage(r.Context(), auth.FromContext(r.Context()), up)
	if err != nil {
		writeError(w, r, err, "Upload failed")
		return
	}
	writeSuccess(w, http.StatusCreated, item)
}

// readUpload 解析 multipart 表单中的 file 和 title 字段
func readUpload(w http.ResponseWriter, r *http.Request, limit int64, kind string) (content.Upload, func(), error) {
	// 允许少量表单字段的额外开销
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return content.Upload{}, nil, apperr.Invalid("file", fmt.Sprintf("%s must be at most %s", kind, storage.FormatSize(limit)))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		return content.Upload{}, nil, apperr.Invalid("file", "Select a file to upload")
	}
	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}
	return content.Upload{
		Title:    r.FormValue("title"),
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	}, cleanup, nil
}

func (h *Handler) PublishGalleryImage(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.SetGalleryPublished(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Published); err != nil {
		writeError(w, r, err, "Failed to update image")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteImage(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete image")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
