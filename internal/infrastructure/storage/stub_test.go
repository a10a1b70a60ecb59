package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage_URLs(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("upload URL", func(t *testing.T) {
		url, expiresAt, err := s.GenerateUploadURL(ctx, "purchase-orders/abc/quote.pdf", "application/pdf", 15*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/upload/purchase-orders/abc/quote.pdf")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("download URL", func(t *testing.T) {
		url, _, err := s.GenerateDownloadURL(ctx, "purchase-orders/abc/quote.pdf", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "/download/purchase-orders/abc/quote.pdf")
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(ctx, "", "application/pdf", time.Minute)
		require.Error(t, err)
		_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
		require.Error(t, err)
	})
}

func TestStubObjectStorage_DeleteAndExists(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	exists, err := s.ObjectExists(ctx, "some/key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteObject(ctx, "some/key"))

	exists, err = s.ObjectExists(ctx, "some/key")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, s.DeleteObject(ctx, ""))
	_, err = s.ObjectExists(ctx, "")
	assert.Error(t, err)
}
