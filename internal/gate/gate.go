// ABOUTME: Subscription-gated file access for published posts.
// ABOUTME: Checks channel membership in order, then resolves the post from storage.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/2389-research/postgate/internal/models"
	"github.com/2389-research/postgate/internal/storage"
)

// MembershipOracle answers whether a user currently belongs to a channel.
type MembershipOracle interface {
	IsMember(ctx context.Context, channel models.Channel, userID int64) (bool, error)
}

// OutcomeKind classifies a gate decision.
type OutcomeKind int

const (
	// OutcomeSubscribe means the user must join a channel first.
	OutcomeSubscribe OutcomeKind = iota
	// OutcomeDeliver means the user may receive Post.FileID.
	OutcomeDeliver
	// OutcomeNotFound means the user is subscribed but no post has the ID.
	OutcomeNotFound
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSubscribe:
		return "subscribe"
	case OutcomeDeliver:
		return "deliver"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Outcome is the result of one RequestFile call.
type Outcome struct {
	Kind   OutcomeKind
	PostID string
	// Channel is the first channel the user is not a member of (OutcomeSubscribe).
	Channel *models.Channel
	// Post is set for OutcomeDeliver.
	Post *models.Post
}

// Gate decides whether a user may download a post's file.
type Gate struct {
	oracle   MembershipOracle
	store    storage.PostStore
	channels []models.Channel
	logger   logrus.FieldLogger
}

// New creates a gate over the given channels, checked in order.
func New(oracle MembershipOracle, store storage.PostStore, channels []models.Channel, logger logrus.FieldLogger) (*Gate, error) {
	if oracle == nil {
		return nil, fmt.Errorf("membership oracle is required")
	}
	if store == nil {
		return nil, fmt.Errorf("post store is required")
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gate{
		oracle:   oracle,
		store:    store,
		channels: channels,
		logger:   logger,
	}, nil
}

// RequestFile checks every channel and, if the user is in all of them, looks up postID.
// Oracle errors count as "not subscribed". Only store failures are returned as errors.
func (g *Gate) RequestFile(ctx context.Context, userID int64, postID string) (Outcome, error) {
	for i := range g.channels {
		ch := g.channels[i]
		member, err := g.oracle.IsMember(ctx, ch, userID)
		if err != nil {
			g.logger.WithError(err).WithFields(logrus.Fields{
				"channel": ch.Username,
				"user_id": userID,
			}).Warn("Membership check failed, treating as not subscribed")
			return Outcome{Kind: OutcomeSubscribe, PostID: postID, Channel: &ch}, nil
		}
		if !member {
			return Outcome{Kind: OutcomeSubscribe, PostID: postID, Channel: &ch}, nil
		}
	}

	post, err := g.store.GetPost(ctx, postID)
	if errors.Is(err, storage.ErrPostNotFound) {
		return Outcome{Kind: OutcomeNotFound, PostID: postID}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to look up post %s: %w", postID, err)
	}
	return Outcome{Kind: OutcomeDeliver, PostID: postID, Post: post}, nil
}
