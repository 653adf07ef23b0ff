// ABOUTME: Core data models for published posts, channels, and draft media.
// ABOUTME: Provides constructor functions and the post identifier generator.
package models

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PostIDLength is the number of base-36 characters kept in a generated post ID.
const PostIDLength = 8

// Post is a published record pairing a deliverable file with a caption.
// A Post is created once and never updated.
type Post struct {
	PostID  string `bson:"postId" json:"postId"`
	FileID  string `bson:"fileId" json:"fileId"`
	Caption string `bson:"caption" json:"caption"`
}

// NewPost creates a post record.
func NewPost(postID, fileID, caption string) *Post {
	return &Post{
		PostID:  postID,
		FileID:  fileID,
		Caption: caption,
	}
}

// NewPostID returns a short random base-36 identifier.
// IDs are not checked for collisions against existing posts.
func NewPostID() string {
	id := uuid.New()
	// The low 8 bytes carry the RFC 4122 variant bits at the top, so the
	// formatted value always has more than PostIDLength digits.
	s := strconv.FormatUint(binary.BigEndian.Uint64(id[8:]), 36)
	return s[len(s)-PostIDLength:]
}

// Channel is a public channel users must join before downloading files.
type Channel struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
}

// Handle returns the username without a leading "@".
func (c Channel) Handle() string {
	return strings.TrimPrefix(c.Username, "@")
}

// ChatUsername returns the username in the "@name" form the Bot API expects.
func (c Channel) ChatUsername() string {
	return "@" + c.Handle()
}

// URL returns the public t.me link for the channel.
func (c Channel) URL() string {
	return "https://t.me/" + c.Handle()
}

// MediaKind tags the media attached to a draft.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaPhoto MediaKind = "photo"
)

// Media is the video or photo shown in the public channel post.
type Media struct {
	Kind   MediaKind
	FileID string
}
