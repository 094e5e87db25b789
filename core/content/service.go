// Package content manages the public site content: news, events, the photo gallery and choir media.
package content

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"JNChoral/cache"
	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
	"JNChoral/repository"

	"github.com/go-playground/validator/v10"
)

// Limits caps listing sizes.
type Limits struct {
	Content        int
	Gallery        int
	MaxUploadBytes int64
	MaxAudioBytes  int64
}

// Repositories are the stores behind the site content.
type Repositories struct {
	News    *repository.AnnouncementRepository
	Events  *repository.EventRepository
	Gallery *repository.GalleryRepository
	Music   *repository.MusicRepository
	Videos  *repository.VideoRepository
}

type Service struct {
	news    *repository.AnnouncementRepository
	events  *repository.EventRepository
	gallery *repository.GalleryRepository
	music   *repository.MusicRepository
	videos  *repository.VideoRepository
	media   MediaStore
	cache   *cache.ContentCache
	policy  auth.Policy
	limits  Limits
}

func NewService(repos Repositories, media MediaStore, contentCache *cache.ContentCache, policy auth.Policy, limits Limits) *Service {
	return &Service{
		news:    repos.News,
		events:  repos.Events,
		gallery: repos.Gallery,
		music:   repos.Music,
		videos:  repos.Videos,
		media:   media,
		cache:   contentCache,
		policy:  policy,
		limits:  limits,
	}
}

var fieldMessages = map[string]string{
	"title":     "Title must be at least 2 characters",
	"body":      "Body must be at least 5 characters",
	"startsAt":  "Start time is required",
	"endsAt":    "End time must be after the start time",
	"videoUrl":  "Video URL must be a valid URL",
	"publicId":  "Video id is required",
	"posterUrl": "Poster must be a valid URL",
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("", "Invalid input")
	}
	field := verrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = "Invalid input"
	}
	return apperr.Invalid(field, msg)
}

func (s *Service) authorize(caller *auth.Principal) error {
	return s.policy.Authorize(caller, auth.ActionManageContent)
}

// cached serves key from the content cache, filling it from load on a miss.
// Cache errors degrade to a direct load.
func cached[T any](ctx context.Context, c *cache.ContentCache, key string, load func() ([]T, error)) ([]T, error) {
	var items []T
	hit, err := c.GetJSON(ctx, key, &items)
	if err != nil {
		logger.Warn("content cache read failed", logger.String("key", key), logger.ErrorField(err))
	}
	if hit {
		return items, nil
	}

	items, err = load()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	if err := c.SetJSON(ctx, key, items); err != nil {
		logger.Warn("content cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
	return items, nil
}

// AnnouncementInput is the editable part of an announcement.
type AnnouncementInput struct {
	Title       string `json:"title" validate:"min=2"`
	Body        string `json:"body" validate:"min=5"`
	IsPublished bool   `json:"isPublished"`
}

func (in AnnouncementInput) normalize() AnnouncementInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	return in
}

// PublishedNews lists published announcements, newest first.
func (s *Service) PublishedNews(ctx context.Context) ([]model.Announcement, error) {
	return cached(ctx, s.cache, cache.KeyPublishedNews, func() ([]model.Announcement, error) {
		return s.news.GetPublished(ctx, s.limits.Content)
	})
}

// NewsItem returns a published announcement. Drafts are not found.
func (s *Service) NewsItem(ctx context.Context, id string) (*model.Announcement, error) {
	return s.news.GetAnnouncementByID(ctx, id, true)
}

func (s *Service) AllNews(ctx context.Context, caller *auth.Principal) ([]model.Announcement, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	return s.news.GetAll(ctx, s.limits.Content)
}

func (s *Service) CreateNews(ctx context.Context, caller *auth.Principal, in AnnouncementInput) (*model.Announcement, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	post := &model.Announcement{Title: in.Title, Body: in.Body, IsPublished: in.IsPublished}
	if err := s.news.CreateAnnouncement(ctx, post); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedNews)
	logger.Info("announcement created", logger.String("id", post.ID), logger.String("actorId", caller.ID))
	return post, nil
}

func (s *Service) UpdateNews(ctx context.Context, caller *auth.Principal, id string, in AnnouncementInput) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	in = in.normalize()
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	if err := s.news.UpdateAnnouncement(ctx, id, in.Title, in.Body); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedNews)
	return nil
}

func (s *Service) SetNewsPublished(ctx context.Context, caller *auth.Principal, id string, published bool) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.news.SetPublished(ctx, id, published); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedNews)
	logger.Info("announcement publish state changed",
		logger.String("id", id), logger.Bool("published", published), logger.String("actorId", caller.ID))
	return nil
}

func (s *Service) DeleteNews(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.news.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedNews)
	logger.Info("announcement deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// EventInput is the editable part of an event.
type EventInput struct {
	Title       string     `json:"title" validate:"min=2"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    time.Time  `json:"startsAt" validate:"required"`
	EndsAt      *time.Time `json:"endsAt"`
	IsPublished bool       `json:"isPublished"`
}

func (in EventInput) check() error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	if in.EndsAt != nil && !in.EndsAt.After(in.StartsAt) {
		return apperr.Invalid("endsAt", fieldMessages["endsAt"])
	}
	return nil
}

func (in EventInput) toModel() *model.Event {
	ev := &model.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: trimmed(in.Description),
		Location:    trimmed(in.Location),
		StartsAt:    in.StartsAt.UTC(),
		IsPublished: in.IsPublished,
	}
	if in.EndsAt != nil {
		end := in.EndsAt.UTC()
		ev.EndsAt = &end
	}
	return ev
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// PublishedEvents lists published events by start time.
func (s *Service) PublishedEvents(ctx context.Context) ([]model.Event, error) {
	return cached(ctx, s.cache, cache.KeyPublishedEvents, func() ([]model.Event, error) {
		return s.events.GetPublished(ctx, s.limits.Content)
	})
}

func (s *Service) AllEvents(ctx context.Context, caller *auth.Principal) ([]model.Event, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	return s.events.GetAll(ctx, s.limits.Content)
}

func (s *Service) CreateEvent(ctx context.Context, caller *auth.Principal, in EventInput) (*model.Event, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	ev := in.toModel()
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedEvents)
	logger.Info("event created", logger.String("id", ev.ID), logger.String("actorId", caller.ID))
	return ev, nil
}

func (s *Service) UpdateEvent(ctx context.Context, caller *auth.Principal, id string, in EventInput) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := in.check(); err != nil {
		return err
	}
	ev := in.toModel()
	ev.ID = id
	if err := s.events.Update(ctx, ev); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedEvents)
	return nil
}

func (s *Service) SetEventPublished(ctx context.Context, caller *auth.Principal, id string, published bool) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.events.SetPublished(ctx, id, published); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedEvents)
	return nil
}

func (s *Service) DeleteEvent(ctx context.Context, caller *auth.Principal, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedEvents)
	logger.Info("event deleted", logger.String("id", id), logger.String("actorId", caller.ID))
	return nil
}

// Stats counts content for the admin dashboard.
type Stats struct {
	Announcements *repository.ContentStats `json:"announcements"`
	Events        *repository.ContentStats `json:"events"`
}

func (s *Service) Stats(ctx context.Context, caller *auth.Principal) (*Stats, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	news, err := s.news.GetAnnouncementStats(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.events.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Announcements: news, Events: events}, nil
}
