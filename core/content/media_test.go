package content

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"JNChoral/cache"
	"JNChoral/core/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mp3Header starts with an ID3 tag, which sniffs as audio/mpeg.
var mp3Header = []byte("ID3\x04\x00\x00\x00\x00\x00\x00")

func TestUploadMusic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	body := append(append([]byte{}, mp3Header...), bytes.Repeat([]byte{0xff}, 700)...)
	item, err := f.svc.UploadMusic(ctx, admin, Upload{
		Title:    " Ave Maria ",
		Filename: "Ave.MP3",
		Size:     int64(len(body)),
		Body:     bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(item.ObjectKey, "music/"))
	assert.True(t, strings.HasSuffix(item.ObjectKey, ".mp3"))
	assert.Equal(t, "audio/mpeg", item.ContentType)
	require.NotNil(t, item.Title)
	assert.Equal(t, "Ave Maria", *item.Title)
	assert.Equal(t, body, f.store.objects[item.ObjectKey])

	tracks, err := f.svc.Music(ctx)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
	assert.True(t, f.redis.Exists(cache.KeyMusic))

	rc, info, err := f.svc.OpenMedia(ctx, item.ObjectKey)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "audio/mpeg", info.ContentType)

	require.NoError(t, f.svc.UpdateMusicTitle(ctx, admin, item.ID, "  "))
	assert.False(t, f.redis.Exists(cache.KeyMusic))
	tracks, err = f.svc.Music(ctx)
	require.NoError(t, err)
	assert.Nil(t, tracks[0].Title)

	require.NoError(t, f.svc.DeleteMusic(ctx, admin, item.ID))
	assert.Empty(t, f.store.objects)
	_, _, err = f.svc.OpenMedia(ctx, item.ObjectKey)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUploadMusicRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UploadMusic(ctx, admin, Upload{Filename: "a.mp3", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Only audio uploads are allowed", ve.Message)

	_, err = f.svc.UploadMusic(ctx, admin, Upload{Filename: "long.mp3", Size: 3 << 20, Body: bytes.NewReader(mp3Header)})
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Audio must be at most 2.00 MB", ve.Message)

	_, err = f.svc.UploadMusic(ctx, member, Upload{Filename: "a.mp3", Size: 1, Body: bytes.NewReader(mp3Header)})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	assert.Empty(t, f.store.objects)
}

func TestCreateVideoAnnounces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.PublishedNews(ctx)
	require.NoError(t, err)

	_, err = f.svc.CreateVideo(ctx, admin, VideoInput{VideoURL: "not a url", PublicID: "choir/easter"})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "videoUrl", ve.Field)

	video, err := f.svc.CreateVideo(ctx, admin, VideoInput{
		Title:    "Easter Vigil",
		VideoURL: "https://videos.example.com/easter.mp4",
		PublicID: "choir/easter",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, video.ID)

	news, err := f.svc.PublishedNews(ctx)
	require.NoError(t, err)
	require.Len(t, news, 1, "news cache was invalidated")
	assert.Equal(t, "New Video Release", news[0].Title)
	assert.Contains(t, news[0].Body, "Easter Vigil")
	assert.Contains(t, news[0].Body, "https://videos.example.com/easter.mp4")

	err = f.svc.UpdateVideoPoster(ctx, admin, video.ID, "poster")
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "posterUrl", ve.Field)

	require.NoError(t, f.svc.UpdateVideoPoster(ctx, admin, video.ID, "https://videos.example.com/easter.jpg"))
	require.NoError(t, f.svc.UpdateVideoTitle(ctx, admin, video.ID, "Easter Vigil 2026"))
	videos, err := f.svc.Videos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Easter Vigil 2026", *videos[0].Title)
	assert.Equal(t, "https://videos.example.com/easter.jpg", *videos[0].PosterURL)

	assert.True(t, errors.Is(f.svc.DeleteVideo(ctx, member, video.ID), apperr.ErrUnauthorized))
	require.NoError(t, f.svc.DeleteVideo(ctx, admin, video.ID))
	assert.True(t, errors.Is(f.svc.DeleteVideo(ctx, admin, video.ID), apperr.ErrNotFound))
}
