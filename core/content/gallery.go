package content

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"JNChoral/cache"
	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
	"JNChoral/storage"

	"github.com/google/uuid"
)

const galleryPrefix = "gallery/"

// MediaStore is the object storage holding gallery images and music.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error)
	Remove(ctx context.Context, key string) error
}

// Upload is an image sent by an administrator.
type Upload struct {
	Title    string
	Filename string
	Size     int64
	Body     io.Reader
	Publish  bool
}

// PublishedGallery lists published gallery items, newest first.
func (s *Service) PublishedGallery(ctx context.Context) ([]model.GalleryItem, error) {
	return cached(ctx, s.cache, cache.KeyPublishedGallery, func() ([]model.GalleryItem, error) {
		return s.gallery.List(ctx, true, s.limits.Gallery)
	})
}

func (s *Service) AllGallery(ctx context.Context, caller *auth.Principal) ([]model.GalleryItem, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	return s.gallery.List(ctx, false, s.limits.Gallery)
}

// UploadImage stores an image in object storage and records it. Only image/* content is accepted,
// judged from the bytes rather than the client's declared type.
func (s *Service) UploadImage(ctx context.Context, caller *auth.Principal, up Upload) (*model.GalleryItem, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if up.Body == nil || up.Size <= 0 {
		return nil, apperr.Invalid("file", "Select an image to upload")
	}
	if s.limits.MaxUploadBytes > 0 && up.Size > s.limits.MaxUploadBytes {
		return nil, apperr.Invalid("file", fmt.Sprintf("Image must be at most %s", storage.FormatSize(s.limits.MaxUploadBytes)))
	}

	body, contentType, err := sniff(up.Body)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperr.Invalid("file", "Only image uploads are allowed")
	}

	key := objectKey(galleryPrefix, up.Filename)
	if err := s.media.Put(ctx, key, body, up.Size, contentType); err != nil {
		return nil, err
	}

	item := &model.GalleryItem{
		Title:       trimmed(&up.Title),
		ObjectKey:   key,
		ContentType: contentType,
		Size:        up.Size,
		IsPublished: up.Publish,
	}
	if err := s.gallery.Create(ctx, item); err != nil {
		s.removeOrphan(ctx, key)
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.KeyPublishedGallery)
	logger.Info("gallery image uploaded",
		logger.String("id", item.ID),
		logger.String("key", key),
		logger.Int64("size", up.Size),
		logger.String("actorId", caller.ID))
	return item, nil
}

func (s *Service) SetGalleryPublished(ctx context.Context, caller *auth.Principal, id string, published bool) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.gallery.SetPublished(ctx, id, published); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedGallery)
	return nil
}

// DeleteImage removes the record and then the stored object.
func (s *Service) DeleteImage(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	item, err := s.gallery.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gallery.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedGallery)

	if err := s.media.Remove(ctx, item.ObjectKey); err != nil {
		logger.Error("failed to remove gallery object", logger.String("key", item.ObjectKey), logger.ErrorField(err))
	}
	logger.Info("gallery image deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// OpenMedia streams a music track or a published gallery object. Unknown and unpublished keys are not found.
func (s *Service) OpenMedia(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	var err error
	if strings.HasPrefix(key, musicPrefix) {
		_, err = s.music.GetByKey(ctx, key)
	} else {
		_, err = s.gallery.GetPublishedByKey(ctx, key)
	}
	if err != nil {
		return nil, nil, err
	}
	return s.media.Get(ctx, key)
}

// sniff reads the content type from the first bytes of body.
// The returned reader still yields the whole body.
func sniff(body io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(body, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	return br, http.DetectContentType(head), nil
}

func objectKey(prefix, filename string) string {
	return prefix + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// removeOrphan drops an object whose record could not be saved.
func (s *Service) removeOrphan(ctx context.Context, key string) {
	if err := s.media.Remove(ctx, key); err != nil {
		logger.Error("failed to remove orphaned upload", logger.String("key", key), logger.ErrorField(err))
	}
}
