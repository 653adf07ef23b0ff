// ABOUTME: Interface definition for published post storage.
// ABOUTME: Defines the contract for creating and looking up posts by their short ID.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2389-research/postgate/internal/models"
)

// ErrPostNotFound is returned by GetPost when no post has the given ID.
var ErrPostNotFound = errors.New("post not found")

// PostStore defines operations for post persistence.
type PostStore interface {
	// CreatePost persists a new post. Posts are never updated afterwards.
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost returns the post with the given ID, or ErrPostNotFound.
	GetPost(ctx context.Context, postID string) (*models.Post, error)

	// ListPosts returns up to limit posts, newest first. limit <= 0 means 10.
	ListPosts(ctx context.Context, limit int) ([]*models.Post, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close(ctx context.Context) error
}

// MemoryURI selects the in-process store instead of MongoDB.
const MemoryURI = "memory://"

// Open returns the store for the given connection string.
func Open(ctx context.Context, uri, database string) (PostStore, error) {
	if strings.HasPrefix(uri, MemoryURI) {
		return NewMemoryPostStore(), nil
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return nil, fmt.Errorf("unsupported store uri %q", uri)
	}
	return NewMongoPostStore(ctx, uri, database)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}
