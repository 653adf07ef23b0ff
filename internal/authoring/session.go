// ABOUTME: Draft session model for admin post authoring.
// ABOUTME: Tracks per-admin state, collected media, caption, and attached file.
package authoring

import (
	"strings"
	"sync"

	"github.com/2389-research/postgate/internal/models"
)

// State is the authoring state of one admin.
type State int

const (
	StateIdle State = iota
	StateCollecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	default:
		return "unknown"
	}
}

// Field names a draft input required before publishing.
type Field string

const (
	FieldMedia   Field = "media"
	FieldCaption Field = "text"
	FieldFile    Field = "file"
)

// Session is an in-progress post draft.
type Session struct {
	State        State
	Media        *models.Media
	Caption      string
	AttachedFile string
}

// Missing returns the fields still needed to publish, in media, text, file order.
func (s Session) Missing() []Field {
	var missing []Field
	if s.Media == nil || s.Media.FileID == "" {
		missing = append(missing, FieldMedia)
	}
	if s.Caption == "" {
		missing = append(missing, FieldCaption)
	}
	if s.AttachedFile == "" {
		missing = append(missing, FieldFile)
	}
	return missing
}

// JoinFields renders fields as a comma separated list.
func JoinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

// Sessions holds one draft per admin identity.
type Sessions struct {
	mu      sync.Mutex
	byAdmin map[int64]*Session
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{byAdmin: make(map[int64]*Session)}
}

// Begin opens a fresh draft for the admin, discarding any unsaved one.
func (s *Sessions) Begin(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAdmin[adminID] = &Session{State: StateCollecting}
}

// Snapshot returns a copy of the admin's session. Admins without a draft are Idle.
func (s *Sessions) Snapshot(adminID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byAdmin[adminID]
	if !ok {
		return Session{State: StateIdle}
	}
	out := *sess
	if sess.Media != nil {
		m := *sess.Media
		out.Media = &m
	}
	return out
}

// update applies fn to the admin's draft while it is collecting.
// Reports false when there is no open draft.
func (s *Sessions) update(adminID int64, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byAdmin[adminID]
	if !ok || sess.State != StateCollecting {
		return false
	}
	fn(sess)
	return true
}

// clear drops the admin's draft, returning them to Idle.
func (s *Sessions) clear(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byAdmin, adminID)
}
