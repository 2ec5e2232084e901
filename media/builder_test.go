package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) (*Builder, *LocalStore) {
	t.Helper()
	store := newTestLocalStore(t)
	return NewBuilder(store, DefaultPolicy()), store
}

func TestBuildFullSet(t *testing.T) {
	ctx := context.Background()
	builder, store := newTestBuilder(t)

	data := encodeJPEG(t, 2000, 1000)
	set, err := builder.Build(ctx, data, "photo.jpg", MimeJPEG)
	require.NoError(t, err)

	// original: exact intrinsic dimensions, persisted verbatim
	assert.Equal(t, 2000, set.Original.Width)
	assert.Equal(t, 1000, set.Original.Height)
	assert.Equal(t, int64(len(data)), set.Original.Size)
	stored, err := store.Get(ctx, set.Original.Path)
	require.NoError(t, err)
	assert.Equal(t, data, stored, "original must not be re-encoded")

	require.NotNil(t, set.Large)
	assert.Equal(t, 1920, set.Large.Width)
	assert.Equal(t, 960, set.Large.Height)

	require.NotNil(t, set.Medium)
	assert.Equal(t, 1000, set.Medium.Width)
	assert.Equal(t, 500, set.Medium.Height)

	require.NotNil(t, set.Thumb)
	assert.Equal(t, 150, set.Thumb.Width)
	assert.Equal(t, 75, set.Thumb.Height)

	// deterministic tier-suffixed paths, reconstructible by name alone
	assert.Equal(t, "original/photo.jpg", set.Original.Path)
	assert.Equal(t, "large/photo-large.jpg", set.Large.Path)
	assert.Equal(t, "medium/photo-medium.jpg", set.Medium.Path)
	assert.Equal(t, "thumb/photo-thumb.jpg", set.Thumb.Path)
	for _, d := range []*Derivative{set.Large, set.Medium, set.Thumb} {
		exists, err := store.Exists(ctx, d.Path)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.True(t, strings.HasPrefix(d.URL, "/media/"))
	}
}

func TestBuildSmallSourceOmitsBoundingBoxTiers(t *testing.T) {
	ctx := context.Background()
	builder, store := newTestBuilder(t)

	set, err := builder.Build(ctx, encodePNG(t, 100, 100), "icon.png", MimePNG)
	require.NoError(t, err)

	assert.Equal(t, 100, set.Original.Width)
	assert.Equal(t, 100, set.Original.Height)

	// large and thumb would not shrink the image, so they are omitted;
	// medium always exists as the default preview size
	assert.Nil(t, set.Large)
	assert.Nil(t, set.Thumb)
	require.NotNil(t, set.Medium)
	assert.Equal(t, 100, set.Medium.Width)
	assert.Equal(t, 100, set.Medium.Height)

	exists, err := store.Exists(ctx, "large/icon-large.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuildRejectsUndecodableBytes(t *testing.T) {
	builder, _ := newTestBuilder(t)
	_, err := builder.Build(context.Background(), []byte("not an image"), "bad.jpg", MimeJPEG)
	assert.Error(t, err)
}

func TestBuildRejectsUnsupportedMime(t *testing.T) {
	builder, _ := newTestBuilder(t)
	_, err := builder.Build(context.Background(), encodeJPEG(t, 10, 10), "clip.gif", "image/gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// tierFailingStore fails every write except the original, to exercise the
// partial-build abort semantics.
type tierFailingStore struct {
	*LocalStore
}

func (s *tierFailingStore) Put(ctx context.Context, path string, data []byte, contentType string, upsert bool) (string, error) {
	if !strings.HasPrefix(path, string(TierOriginal)+"/") {
		return "", errors.New("backend write failed")
	}
	return s.LocalStore.Put(ctx, path, data, contentType, upsert)
}

func TestBuildTierFailureAbortsWholeSet(t *testing.T) {
	ctx := context.Background()
	local := newTestLocalStore(t)
	store := &tierFailingStore{LocalStore: local}
	builder := NewBuilder(store, DefaultPolicy())

	_, err := builder.Build(ctx, encodeJPEG(t, 2000, 1000), "photo.jpg", MimeJPEG)
	require.Error(t, err)

	// the original stays in storage as a valid standalone artifact; the
	// cleanup job reaps it if no record ever points at it
	exists, statErr := local.Exists(ctx, "original/photo.jpg")
	require.NoError(t, statErr)
	assert.True(t, exists)

	exists, statErr = local.Exists(ctx, "large/photo-large.jpg")
	require.NoError(t, statErr)
	assert.False(t, exists)
}
