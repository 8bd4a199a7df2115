package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/store"
	"github.com/MrSnakeDoc/ghclip/internal/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestKeysAreNamespaced(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendLink(ctx, storetest.Link(1)))
	require.NoError(t, s.SaveSettings(ctx, domain.DefaultSettings()))

	for _, key := range mr.Keys() {
		assert.Regexp(t, `^ghclip:`, key)
	}
	assert.True(t, mr.Exists(LinkKey("id-01")))
	assert.True(t, mr.Exists(KeyPendingLinks))
	assert.True(t, mr.Exists(KeyAllLinks))
}

func TestAuthStateExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAuthState(ctx, "nonce", 10*time.Minute))
	mr.FastForward(11 * time.Minute)

	ok, err := s.ConsumeAuthState(ctx, "nonce")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingSkipsVanishedRecords(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendLink(ctx, storetest.Link(1)))
	require.NoError(t, s.AppendLink(ctx, storetest.Link(2)))
	mr.Del(LinkKey("id-01"))

	pending, err := s.PendingLinks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "id-02", pending[0].ID)
}

func TestStoreErrorsWhenRedisIsDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, s.Ping(ctx))
	_, err := s.Credentials(ctx)
	assert.Error(t, err)
	assert.Error(t, s.AppendLink(ctx, storetest.Link(1)))
}
