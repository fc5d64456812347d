package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	ctx := context.Background()

	err := s.Save(ctx, "avatars/u1/a.jpg", strings.NewReader("fake image data"), "image/jpeg")
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "avatars/u1/a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	r, err := s.Get(ctx, "avatars/u1/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "fake image data", string(data))

	require.NoError(t, s.Delete(ctx, "avatars/u1/a.jpg"))
	exists, err = s.Exists(ctx, "avatars/u1/a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	_, err := s.Get(context.Background(), "nope.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_DeleteMissingIsNoop(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	assert.NoError(t, s.Delete(context.Background(), "nope.jpg"))
}

func TestLocalStorage_PathTraversalRejected(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	ctx := context.Background()

	// Clean прижимает путь к корню хранилища, наружу не выбраться
	err := s.Save(ctx, "../../etc/passwd", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "etc/passwd")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_GetURL(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	url, err := s.GetURL(context.Background(), "avatars/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/files/avatars/a.jpg", url)

	withBase, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "https://cdn.binkeyit.com/"})
	require.NoError(t, err)
	url, err = withBase.GetURL(context.Background(), "avatars/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.binkeyit.com/avatars/a.jpg", url)
}
