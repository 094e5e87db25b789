package content

import (
	"context"
	"fmt"
	"strings"

	"JNChoral/cache"
	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
	"JNChoral/storage"
)

const musicPrefix = "music/"

// isAudio accepts the sniffed types of mp3, wav, ogg and other audio formats.
func isAudio(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/") || contentType == "application/ogg"
}

// Music lists uploaded tracks, newest first.
func (s *Service) Music(ctx context.Context) ([]model.MusicItem, error) {
	return cached(ctx, s.cache, cache.KeyMusic, func() ([]model.MusicItem, error) {
		return s.music.List(ctx, s.limits.Gallery)
	})
}

// UploadMusic stores an audio file in object storage and records it.
func (s *Service) UploadMusic(ctx context.Context, caller *auth.Principal, up Upload) (*model.MusicItem, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if up.Body == nil || up.Size <= 0 {
		return nil, apperr.Invalid("file", "Select an audio file to upload")
	}
	if s.limits.MaxAudioBytes > 0 && up.Size > s.limits.MaxAudioBytes {
		return nil, apperr.Invalid("file", fmt.Sprintf("Audio must be at most %s", storage.FormatSize(s.limits.MaxAudioBytes)))
	}

	body, contentType, err := sniff(up.Body)
	if err != nil {
		return nil, err
	}
	if !isAudio(contentType) {
		return nil, apperr.Invalid("file", "Only audio uploads are allowed")
	}

	key := objectKey(musicPrefix, up.Filename)
	if err := s.media.Put(ctx, key, body, up.Size, contentType); err != nil {
		return nil, err
	}

	item := &model.MusicItem{
		Title:       trimmed(&up.Title),
		ObjectKey:   key,
		ContentType: contentType,
		Size:        up.Size,
	}
	if err := s.music.Create(ctx, item); err != nil {
		s.removeOrphan(ctx, key)
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.KeyMusic)
	logger.Info("music uploaded",
		logger.String("id", item.ID),
		logger.String("key", key),
		logger.Int64("size", up.Size),
		logger.String("actorId", caller.ID))
	return item, nil
}

// UpdateMusicTitle renames a track. A blank title clears it.
func (s *Service) UpdateMusicTitle(ctx context.Context, caller *auth.Principal, id, title string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.music.SetTitle(ctx, id, trimmed(&title)); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyMusic)
	return nil
}

// DeleteMusic removes the record and then the stored object.
func (s *Service) DeleteMusic(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	item, err := s.music.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.music.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyMusic)

	if err := s.media.Remove(ctx, item.ObjectKey); err != nil {
		logger.Error("failed to remove music object", logger.String("key", item.ObjectKey), logger.ErrorField(err))
	}
	logger.Info("music deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// VideoInput registers a video hosted elsewhere.
type VideoInput struct {
	Title     string `json:"title"`
	VideoURL  string `json:"videoUrl" validate:"url"`
	PublicID  string `json:"publicId" validate:"min=2"`
	PosterURL string `json:"posterUrl" validate:"omitempty,url"`
}

// Videos lists videos, newest first.
func (s *Service) Videos(ctx context.Context) ([]model.VideoItem, error) {
	return cached(ctx, s.cache, cache.KeyVideos, func() ([]model.VideoItem, error) {
		return s.videos.List(ctx, s.limits.Gallery)
	})
}

// CreateVideo records a video and publishes a release announcement with it.
func (s *Service) CreateVideo(ctx context.Context, caller *auth.Principal, in VideoInput) (*model.VideoItem, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	in.PublicID = strings.TrimSpace(in.PublicID)
	in.PosterURL = strings.TrimSpace(in.PosterURL)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	item := &model.VideoItem{
		Title:     trimmed(&in.Title),
		VideoURL:  in.VideoURL,
		PublicID:  in.PublicID,
		PosterURL: trimmed(&in.PosterURL),
	}
	name := "A new video"
	if item.Title != nil {
		name = *item.Title
	}
	post := &model.Announcement{
		Title:       "New Video Release",
		Body:        fmt.Sprintf("%s is now available. Watch it here: %s", name, item.VideoURL),
		IsPublished: true,
	}
	if err := s.videos.CreateWithAnnouncement(ctx, item, post); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.KeyVideos, cache.KeyPublishedNews)
	logger.Info("video created",
		logger.String("id", item.ID),
		logger.String("announcementId", post.ID),
		logger.String("actorId", caller.ID))
	return item, nil
}

// UpdateVideoTitle renames a video. A blank title clears it.
func (s *Service) UpdateVideoTitle(ctx context.Context, caller *auth.Principal, id, title string) error {
	return s.updateVideo(ctx, caller, id, "title", trimmed(&title))
}

// UpdateVideoPoster sets the poster image. A blank URL clears it.
func (s *Service) UpdateVideoPoster(ctx context.Context, caller *auth.Principal, id, posterURL string) error {
	return s.updateVideo(ctx, caller, id, "poster_url", trimmed(&posterURL))
}

func (s *Service) updateVideo(ctx context.Context, caller *auth.Principal, id, column string, value *string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if column == "poster_url" && value != nil {
		if err := validate.Var(*value, "url"); err != nil {
			return apperr.Invalid("posterUrl", fieldMessages["posterUrl"])
		}
	}
	if err := s.videos.Update(ctx, id, map[string]interface{}{column: value}); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyVideos)
	return nil
}

func (s *Service) DeleteVideo(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyVideos)
	logger.Info("video deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}
