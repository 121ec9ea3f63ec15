package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGetRoundTrip(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	data := []byte("fake jpeg bytes")
	err := s.Put(ctx, "orgs/abc/photos/one.jpg", bytes.NewReader(data), PutOptions{
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	rc, info, err := s.Get(ctx, "orgs/abc/photos/one.jpg")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)
}

func TestLocalStorage_PutNoOverwrite(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.txt", strings.NewReader("first"), PutOptions{}))

	err := s.Put(ctx, "a/b.txt", strings.NewReader("second"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	err = s.Put(ctx, "a/b.txt", strings.NewReader("second"), PutOptions{Overwrite: true})
	assert.NoError(t, err)
}

func TestLocalStorage_PutMaxSize(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.bin", strings.NewReader("0123456789"), PutOptions{MaxSize: 5})
	assert.ErrorIs(t, err, ErrTooLarge)

	// The oversized file must not remain on disk.
	exists, err := s.Exists(ctx, "big.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.Put(ctx, "ok.bin", strings.NewReader("01234"), PutOptions{MaxSize: 5})
	assert.NoError(t, err)
}

func TestLocalStorage_PathTraversal(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	keys := []string{
		"",
		"..",
		"../etc/passwd",
		"a/../../etc/passwd",
		"a/b/../../../secret",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
			assert.ErrorIs(t, err, ErrInvalidKey)

			_, _, err = s.Get(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)

			err = s.Delete(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestLocalStorage_GetNotFound(t *testing.T) {
	s := newTestLocalStorage(t)

	_, _, err := s.Get(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_DeleteIdempotent(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "x.txt", strings.NewReader("x"), PutOptions{}))
	assert.NoError(t, s.Delete(ctx, "x.txt"))
	assert.NoError(t, s.Delete(ctx, "x.txt"))
}

func TestLocalStorage_URL(t *testing.T) {
	s := newTestLocalStorage(t)

	url, err := s.URL(context.Background(), "orgs/abc/photos/one.jpg", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/orgs/abc/photos/one.jpg", url)
}
