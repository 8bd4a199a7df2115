package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/store"
	"github.com/MrSnakeDoc/ghclip/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return NewStore() })
}

func TestCredentialsAreCopied(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	creds := domain.NewManualCredentials("ghp_1")
	require.NoError(t, s.SaveCredentials(ctx, creds))
	creds.Manual.Token = "mutated"

	got, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_1", got.Manual.Token)
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AppendLink(ctx, storetest.Link(i))
		}(i)
	}
	wg.Wait()

	pending, err := s.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 50)

	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
