package session_test

import (
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRedisStore(t *testing.T) {
	client := testutil.NewTestRedis(t)
	store := session.NewRedisStore(client, "test:")
	ctx := t.Context()

	userID := uuid.New()
	sess := &domain.Session{
		ID:        uuid.New(),
		Token:     "first-token",
		UserID:    &userID,
		Data:      datatypes.JSONMap{"k": "v"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.GetByToken(ctx, "first-token")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, userID, *got.UserID)
	v, _ := got.Get("k")
	assert.Equal(t, "v", v)

	t.Run("rotated token drops the old key", func(t *testing.T) {
		sess.Token = "second-token"
		require.NoError(t, store.Save(ctx, sess))

		_, err := store.GetByToken(ctx, "first-token")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		got, err := store.GetByToken(ctx, "second-token")
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
	})

	t.Run("keys carry the session ttl", func(t *testing.T) {
		ttl, err := client.TTL(ctx, "test:token:second-token").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sess.ID))
		_, err := store.GetByToken(ctx, "second-token")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.NoError(t, store.Delete(ctx, sess.ID), "deleting twice is fine")
	})
}
