// ABOUTME: In-process post storage used for tests and dry runs.
// ABOUTME: Keeps posts in insertion order behind a mutex.
package storage

import (
	"context"
	"sync"

	"github.com/2389-research/postgate/internal/models"
)

// MemoryPostStore keeps posts in memory. Contents are lost on exit.
type MemoryPostStore struct {
	mu    sync.RWMutex
	posts []*models.Post
}

// NewMemoryPostStore creates an empty in-memory store.
func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{}
}

// CreatePost appends a copy of the post.
func (s *MemoryPostStore) CreatePost(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := *post
	s.mu.Lock()
	s.posts = append(s.posts, &p)
	s.mu.Unlock()
	return nil
}

// GetPost returns the first post stored under postID.
func (s *MemoryPostStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.PostID == postID {
			found := *p
			return &found, nil
		}
	}
	return nil, ErrPostNotFound
}

// ListPosts returns the most recently created posts first.
func (s *MemoryPostStore) ListPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Post, 0, limit)
	for i := len(s.posts) - 1; i >= 0 && len(out) < limit; i-- {
		p := *s.posts[i]
		out = append(out, &p)
	}
	return out, nil
}

// Count returns the number of stored posts.
func (s *MemoryPostStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Ping always succeeds.
func (s *MemoryPostStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close releases any resources held by the store.
func (s *MemoryPostStore) Close(ctx context.Context) error {
	return nil
}
