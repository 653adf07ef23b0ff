// ABOUTME: Post authoring state machine driven by admin messages.
// ABOUTME: Collects media, caption, and file, then stores and publishes the post.
package authoring

import (
	"context"
	"fmt"

	"github.com/2389-research/postgate/internal/models"
	"github.com/2389-research/postgate/internal/storage"
)

// Prompts sent back to the admin after each accepted input.
const (
	PromptBegin       = "Send a video or photo to create a new post."
	PromptVideoSaved  = "Video saved. Please send the text for the post."
	PromptPhotoSaved  = "Photo saved. Please send the text for the post."
	PromptTextSaved   = "Text saved. Now send the file."
	PromptFileSaved   = "File saved. Send /sendpost to publish the post to the channel."
	PromptPublished   = "Post successfully sent to the channel."
	postIDCaptionLine = "Post ID: "
)

// ChannelPublisher sends a finished post's media to the public channel.
type ChannelPublisher interface {
	PublishMedia(ctx context.Context, channel models.Channel, media models.Media, caption string) error
}

// PhotoVariant is one resolution of an inbound photo.
type PhotoVariant struct {
	FileID string
	Width  int
	Height int
}

// IncompleteError reports which draft fields are missing at publish time.
type IncompleteError struct {
	Missing []Field
}

func (e *IncompleteError) Error() string {
	return "draft incomplete, missing: " + JoinFields(e.Missing)
}

// StoreError wraps a failure to persist the post. Nothing was sent to the channel.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("failed to save post: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// PublishError wraps a failure to send the post to the channel.
// The post record already exists and the draft is kept for a retry.
type PublishError struct {
	PostID string
	Err    error
}

func (e *PublishError) Error() string { return e.Err.Error() }
func (e *PublishError) Unwrap() error { return e.Err }

// Flow drives the authoring state machine for every admin.
type Flow struct {
	sessions  *Sessions
	store     storage.PostStore
	publisher ChannelPublisher
	channel   models.Channel
	newID     func() string
}

// FlowOption configures optional Flow dependencies.
type FlowOption func(*Flow)

// WithIDGenerator overrides the post ID generator.
func WithIDGenerator(fn func() string) FlowOption {
	return func(f *Flow) {
		f.newID = fn
	}
}

// NewFlow creates an authoring flow publishing to channel.
func NewFlow(store storage.PostStore, publisher ChannelPublisher, channel models.Channel, opts ...FlowOption) (*Flow, error) {
	if store == nil {
		return nil, fmt.Errorf("post store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("channel publisher is required")
	}
	if channel.Username == "" {
		return nil, fmt.Errorf("publish channel is required")
	}

	f := &Flow{
		sessions:  NewSessions(),
		store:     store,
		publisher: publisher,
		channel:   channel,
		newID:     models.NewPostID,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Begin opens a fresh draft for the admin and returns the first prompt.
func (f *Flow) Begin(adminID int64) string {
	f.sessions.Begin(adminID)
	return PromptBegin
}

// Session returns a snapshot of the admin's draft.
func (f *Flow) Session(adminID int64) Session {
	return f.sessions.Snapshot(adminID)
}

// Collecting reports whether the admin has an open draft.
func (f *Flow) Collecting(adminID int64) bool {
	return f.sessions.Snapshot(adminID).State == StateCollecting
}

// ReceiveVideo stores a video as the draft media.
// A non-empty caption replaces the draft caption.
func (f *Flow) ReceiveVideo(adminID int64, fileID, caption string) (string, bool) {
	ok := f.sessions.update(adminID, func(s *Session) {
		s.Media = &models.Media{Kind: models.MediaVideo, FileID: fileID}
		if caption != "" {
			s.Caption = caption
		}
	})
	if !ok {
		return "", false
	}
	return PromptVideoSaved, true
}

// ReceivePhoto stores the largest photo variant as the draft media.
func (f *Flow) ReceivePhoto(adminID int64, variants []PhotoVariant, caption string) (string, bool) {
	best, found := LargestPhoto(variants)
	if !found {
		return "", false
	}
	ok := f.sessions.update(adminID, func(s *Session) {
		s.Media = &models.Media{Kind: models.MediaPhoto, FileID: best.FileID}
		if caption != "" {
			s.Caption = caption
		}
	})
	if !ok {
		return "", false
	}
	return PromptPhotoSaved, true
}

// ReceiveText replaces the draft caption.
func (f *Flow) ReceiveText(adminID int64, text string) (string, bool) {
	ok := f.sessions.update(adminID, func(s *Session) {
		s.Caption = text
	})
	if !ok {
		return "", false
	}
	return PromptTextSaved, true
}

// ReceiveFile sets the file delivered to subscribers.
func (f *Flow) ReceiveFile(adminID int64, fileID string) (string, bool) {
	ok := f.sessions.update(adminID, func(s *Session) {
		s.AttachedFile = fileID
	})
	if !ok {
		return "", false
	}
	return PromptFileSaved, true
}

// Publish validates the draft, stores the post, and sends it to the channel.
// The draft is cleared only after the channel send succeeds.
func (f *Flow) Publish(ctx context.Context, adminID int64) (*models.Post, error) {
	draft := f.sessions.Snapshot(adminID)
	if missing := draft.Missing(); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	post := models.NewPost(f.newID(), draft.AttachedFile, draft.Caption)
	if err := f.store.CreatePost(ctx, post); err != nil {
		return nil, &StoreError{Err: err}
	}

	caption := RenderCaption(draft.Caption, post.PostID)
	if err := f.publisher.PublishMedia(ctx, f.channel, *draft.Media, caption); err != nil {
		return post, &PublishError{PostID: post.PostID, Err: err}
	}

	f.sessions.clear(adminID)
	return post, nil
}

// RenderCaption appends the post ID line used by the Get Code action.
func RenderCaption(caption, postID string) string {
	return caption + "\n\n" + postIDCaptionLine + postID
}

// LargestPhoto picks the variant with the most pixels.
func LargestPhoto(variants []PhotoVariant) (PhotoVariant, bool) {
	if len(variants) == 0 {
		return PhotoVariant{}, false
	}
	best := variants[0]
	for _, v := range variants[1:] {
		if v.Width*v.Height > best.Width*best.Height {
			best = v
		}
	}
	return best, true
}
