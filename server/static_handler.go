package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"JNChoral/core/apperr"
	"JNChoral/logger"
	"JNChoral/storage"
)

var errStorageUnavailable = errors.New("object storage unavailable")

// unavailableStore stands in for MinIO when it could not be reached at startup.
type unavailableStore struct{}

func (unavailableStore) Put(context.Context, string, io.Reader, int64, string) error {
	return errStorageUnavailable
}

func (unavailableStore) Get(context.Context, string) (io.ReadCloser, *storage.ObjectInfo, error) {
	return nil, nil, errStorageUnavailable
}

func (unavailableStore) Remove(context.Context, string) error {
	return errStorageUnavailable
}

// ServeMedia 从 MinIO 代理已发布的图库文件和音频
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/media/")
	if key == "" || strings.Contains(key, "..") {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	object, info, err := h.content.OpenMedia(r.Context(), key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		logger.Error("Error opening file from MinIO", logger.String("key", key), logger.ErrorField(err))
		http.Error(w, "File not available", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if info.ETag != "" {
		w.Header().Set("ETag", `"`+info.ETag+`"`)
	}
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving file from MinIO", logger.ErrorField(err))
	}
}
