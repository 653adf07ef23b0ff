// ABOUTME: MongoDB-backed post storage.
// ABOUTME: Stores posts as {postId, fileId, caption} documents in the "posts" collection.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/2389-research/postgate/internal/models"
)

// PostsCollection is the collection holding published posts.
const PostsCollection = "posts"

// MongoPostStore stores posts in a MongoDB collection.
type MongoPostStore struct {
	client *mongo.Client
	posts  *mongo.Collection
}

// NewMongoPostStore connects to MongoDB and verifies the connection with a ping.
func NewMongoPostStore(ctx context.Context, uri, database string) (*MongoPostStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &MongoPostStore{
		client: client,
		posts:  client.Database(database).Collection(PostsCollection),
	}, nil
}

// CreatePost inserts a new post document.
func (s *MongoPostStore) CreatePost(ctx context.Context, post *models.Post) error {
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost returns the first document whose postId matches.
func (s *MongoPostStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.posts.FindOne(ctx, bson.D{{Key: "postId", Value: postID}}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return &post, nil
}

// ListPosts returns posts ordered by insertion, newest first.
func (s *MongoPostStore) ListPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cursor, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var posts []*models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}

// Ping checks the primary is reachable.
func (s *MongoPostStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoPostStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
