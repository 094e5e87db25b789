package content

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"JNChoral/cache"
	"JNChoral/core/apperr"
	"JNChoral/core/auth"
	"JNChoral/db/dbtest"
	"JNChoral/model"
	"JNChoral/repository"
	"JNChoral/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = &auth.Principal{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}
	member = &auth.Principal{ID: "user-1", Email: "user@example.com", Role: model.RoleUser}
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, nil, apperr.ErrNotFound
	}
	info := &storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: m.types[key]}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (m *memoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type fixture struct {
	svc   *Service
	store *memoryStore
	redis *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := newMemoryStore()
	repos := Repositories{
		News:    repository.NewAnnouncementRepository(gdb),
		Events:  repository.NewEventRepository(gdb),
		Gallery: repository.NewGalleryRepository(gdb),
		Music:   repository.NewMusicRepository(gdb),
		Videos:  repository.NewVideoRepository(gdb),
	}
	limits := Limits{Content: 200, Gallery: 300, MaxUploadBytes: 1 << 20, MaxAudioBytes: 2 << 20}
	svc := NewService(repos, store, cache.NewContentCache(client, time.Minute), auth.NewRolePolicy(), limits)
	return &fixture{svc: svc, store: store, redis: mr}
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewsRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateNews(ctx, member, AnnouncementInput{Title: "Hello", Body: "World!"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = f.svc.CreateNews(ctx, nil, AnnouncementInput{Title: "Hello", Body: "World!"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = f.svc.AllNews(ctx, member)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestNewsValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateNews(ctx, admin, AnnouncementInput{Title: " A ", Body: "Long enough"})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "title", ve.Field)

	_, err = f.svc.CreateNews(ctx, admin, AnnouncementInput{Title: "Concert", Body: "hi"})
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "body", ve.Field)
}

func TestPublishedNewsCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	post, err := f.svc.CreateNews(ctx, admin, AnnouncementInput{Title: "Concert", Body: "Sunday at six"})
	require.NoError(t, err)

	news, err := f.svc.PublishedNews(ctx)
	require.NoError(t, err)
	assert.Empty(t, news, "drafts are hidden")
	assert.True(t, f.redis.Exists(cache.KeyPublishedNews))

	require.NoError(t, f.svc.SetNewsPublished(ctx, admin, post.ID, true))
	assert.False(t, f.redis.Exists(cache.KeyPublishedNews))

	news, err = f.svc.PublishedNews(ctx)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Concert", news[0].Title)

	require.NoError(t, f.svc.UpdateNews(ctx, admin, post.ID, AnnouncementInput{Title: "Carol night", Body: "Sunday at seven"}))
	news, err = f.svc.PublishedNews(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Carol night", news[0].Title)

	got, err := f.svc.NewsItem(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunday at seven", got.Body)

	require.NoError(t, f.svc.DeleteNews(ctx, admin, post.ID))
	news, err = f.svc.PublishedNews(ctx)
	require.NoError(t, err)
	assert.Empty(t, news)

	_, err = f.svc.NewsItem(ctx, post.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	before := start.Add(-time.Hour)

	_, err := f.svc.CreateEvent(ctx, admin, EventInput{Title: "Carols", StartsAt: start, EndsAt: &before})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "endsAt", ve.Field)

	_, err = f.svc.CreateEvent(ctx, admin, EventInput{Title: "Carols"})
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "startsAt", ve.Field)

	later, err := f.svc.CreateEvent(ctx, admin, EventInput{Title: "Carols", StartsAt: start.Add(time.Hour), IsPublished: true})
	require.NoError(t, err)
	_, err = f.svc.CreateEvent(ctx, admin, EventInput{Title: "Rehearsal", StartsAt: start, IsPublished: true})
	require.NoError(t, err)

	events, err := f.svc.PublishedEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Rehearsal", events[0].Title)

	require.NoError(t, f.svc.SetEventPublished(ctx, admin, later.ID, false))
	events, err = f.svc.PublishedEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	stats, err := f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Events.Total)
	assert.Equal(t, int64(1), stats.Events.Published)

	err = f.svc.DeleteEvent(ctx, member, later.ID)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestUploadImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 600)...)
	item, err := f.svc.UploadImage(ctx, admin, Upload{
		Title:    "Choir at Easter",
		Filename: "Easter.PNG",
		Size:     int64(len(body)),
		Body:     bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(item.ObjectKey, "gallery/"))
	assert.True(t, strings.HasSuffix(item.ObjectKey, ".png"))
	assert.Equal(t, "image/png", item.ContentType)
	assert.Equal(t, body, f.store.objects[item.ObjectKey], "peeked bytes are not lost")

	_, _, err = f.svc.OpenMedia(ctx, item.ObjectKey)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "drafts are not served")

	require.NoError(t, f.svc.SetGalleryPublished(ctx, admin, item.ID, true))
	rc, info, err := f.svc.OpenMedia(ctx, item.ObjectKey)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", info.ContentType)

	items, err := f.svc.PublishedGallery(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, f.svc.DeleteImage(ctx, admin, item.ID))
	assert.Empty(t, f.store.objects)
	items, err = f.svc.PublishedGallery(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUploadRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	text := []byte("just some text, not an image")
	_, err := f.svc.UploadImage(ctx, admin, Upload{Filename: "a.png", Size: int64(len(text)), Body: bytes.NewReader(text)})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Only image uploads are allowed", ve.Message)

	_, err = f.svc.UploadImage(ctx, admin, Upload{Filename: "big.png", Size: 2 << 20, Body: bytes.NewReader(pngHeader)})
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok)

	_, err = f.svc.UploadImage(ctx, member, Upload{Filename: "a.png", Size: 1, Body: bytes.NewReader(pngHeader)})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	assert.Empty(t, f.store.objects)
}
