package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// AppendLink stores the record and appends its id to both the mirror and the
// pending queue.
func (s *Store) AppendLink(ctx context.Context, link domain.Bookmark) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LinkKey(link.ID), data, 0)
		pipe.RPush(ctx, KeyAllLinks, link.ID)
		pipe.RPush(ctx, KeyPendingLinks, link.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append link: %w", err)
	}
	return nil
}

// PendingLinks returns the pending queue in FIFO order.
func (s *Store) PendingLinks(ctx context.Context) ([]domain.Bookmark, error) {
	return s.linksFromList(ctx, KeyPendingLinks)
}

// AllLinks returns every stored link, oldest first.
func (s *Store) AllLinks(ctx context.Context) ([]domain.Bookmark, error) {
	return s.linksFromList(ctx, KeyAllLinks)
}

// DeleteLink removes a link record and both of its list entries.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	n, err := s.client.Exists(ctx, LinkKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check link: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("link %s: %w", id, store.ErrNotFound)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, LinkKey(id))
		pipe.LRem(ctx, KeyAllLinks, 0, id)
		pipe.LRem(ctx, KeyPendingLinks, 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

// RemovePending drops ids from the pending queue; records stay in the mirror.
func (s *Store) RemovePending(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.LRem(ctx, KeyPendingLinks, 1, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove pending links: %w", err)
	}
	return nil
}

// linksFromList resolves the ids stored in a list key. Ids whose record has
// vanished are skipped.
func (s *Store) linksFromList(ctx context.Context, listKey string) ([]domain.Bookmark, error) {
	ids, err := s.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get link ids: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = LinkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}

	links := make([]domain.Bookmark, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var link domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &link); err != nil {
			return nil, fmt.Errorf("failed to unmarshal link %s: %w", ids[i], err)
		}
		links = append(links, link)
	}
	return links, nil
}
