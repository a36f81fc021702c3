// Package store keeps the per-conversation message logs and enforces the
// message lifecycle rules: the delivery status pipeline, edit/delete
// authorship checks, and reaction toggling. Logs are append-only; deleting a
// message only blanks it in place so ordering and IDs survive.
package store

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/chat-session/internal/models"
)

type Store struct {
	localUserID string
	logs        map[string][]*models.Message // conversationID -> arrival-ordered log
	order       []string                     // conversation IDs in first-write order
	byID        map[string]*models.Message
	now         func() time.Time
}

func New(localUserID string) *Store {
	return &Store{
		localUserID: localUserID,
		logs:        make(map[string][]*models.Message),
		byID:        make(map[string]*models.Message),
		now:         time.Now,
	}
}

// SetClock overrides the timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Append creates a message and appends it to the conversation's log.
// Messages from the local user start in StatusSending; everything else
// (peers, system placeholders) arrives effectively delivered and never
// passes through the early pipeline states.
func (s *Store) Append(conversationID, senderID, sender, content string, attachments []models.Attachment) (*models.Message, error) {
	if content == "" && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: no content and no attachments", models.ErrEmptyMessage)
	}
	status := models.StatusDelivered
	if senderID == s.localUserID {
		status = models.StatusSending
	}
	m := &models.Message{
		ID:             primitive.NewObjectID().Hex(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Sender:         sender,
		Content:        content,
		Attachments:    attachments,
		CreatedAt:      s.now().UTC(),
		Status:         status,
	}
	s.insert(m)
	return m, nil
}

// Insert adds an inbound message that already carries an ID. Re-delivery of
// an ID already in the log is a safe no-op; Insert reports whether the
// message was actually added.
func (s *Store) Insert(m *models.Message) bool {
	if m == nil || m.ID == "" {
		return false
	}
	if _, dup := s.byID[m.ID]; dup {
		return false
	}
	cp := *m
	// Adapters may reuse event payloads; the stored entity must not alias
	// the caller's slices or maps.
	if len(cp.Attachments) > 0 {
		cp.Attachments = append([]models.Attachment(nil), cp.Attachments...)
	}
	if len(cp.Reactions) > 0 {
		reactions := make(map[string][]string, len(cp.Reactions))
		for emoji, users := range cp.Reactions {
			reactions[emoji] = append([]string(nil), users...)
		}
		cp.Reactions = reactions
	}
	if cp.Status == "" || cp.Status.Before(models.StatusDelivered) {
		cp.Status = models.StatusDelivered
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now().UTC()
	}
	s.insert(&cp)
	return true
}

func (s *Store) insert(m *models.Message) {
	if _, seen := s.logs[m.ConversationID]; !seen {
		s.order = append(s.order, m.ConversationID)
	}
	s.logs[m.ConversationID] = append(s.logs[m.ConversationID], m)
	s.byID[m.ID] = m
}

// AdvanceStatus applies a monotonic status transition and reports whether
// anything changed. Unknown IDs, messages not authored by the local user,
// invalid states and regressions are all silent no-ops: the transport may
// deliver acknowledgements late, twice, or out of order.
func (s *Store) AdvanceStatus(messageID string, status models.Status) bool {
	m, ok := s.byID[messageID]
	if !ok || m.SenderID != s.localUserID || m.Deleted {
		return false
	}
	if !status.Valid() || !m.Status.Before(status) {
		return false
	}
	m.Status = status
	return true
}

// Edit replaces the content of a message authored by the local user and
// marks it edited. Empty or unchanged content is a silent no-op; Edit
// reports whether content actually changed. Deleted messages are gone from
// the caller's point of view.
func (s *Store) Edit(messageID, content string) (bool, error) {
	m, ok := s.byID[messageID]
	if !ok || m.Deleted {
		return false, fmt.Errorf("%w: %s", models.ErrNotFound, messageID)
	}
	if m.SenderID != s.localUserID {
		return false, fmt.Errorf("%w: message %s belongs to %s", models.ErrForbidden, messageID, m.SenderID)
	}
	if content == "" || content == m.Content {
		return false, nil
	}
	m.Content = content
	m.Edited = true
	return true, nil
}

// Delete soft-deletes a message authored by the local user: content,
// attachments and reactions are cleared on the stored entity, the row keeps
// its slot in the log. Deleting twice reports ErrNotFound.
func (s *Store) Delete(messageID string) error {
	m, ok := s.byID[messageID]
	if !ok || m.Deleted {
		return fmt.Errorf("%w: %s", models.ErrNotFound, messageID)
	}
	if m.SenderID != s.localUserID {
		return fmt.Errorf("%w: message %s belongs to %s", models.ErrForbidden, messageID, m.SenderID)
	}
	m.Deleted = true
	m.Content = ""
	m.Attachments = nil
	m.Reactions = nil
	return nil
}

// ToggleReaction flips userID's membership in the emoji's reaction set.
// Toggling twice restores the prior state; an emoji whose last reaction is
// removed disappears entirely.
func (s *Store) ToggleReaction(messageID, emoji, userID string) error {
	if emoji == "" || userID == "" {
		return fmt.Errorf("%w: emoji and user id required", models.ErrInvalidArgument)
	}
	m, ok := s.byID[messageID]
	if !ok || m.Deleted {
		return fmt.Errorf("%w: %s", models.ErrNotFound, messageID)
	}
	users := m.Reactions[emoji]
	for i, u := range users {
		if u == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(m.Reactions, emoji)
				if len(m.Reactions) == 0 {
					m.Reactions = nil
				}
			} else {
				m.Reactions[emoji] = users
			}
			return nil
		}
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	m.Reactions[emoji] = append(users, userID)
	return nil
}

// Get returns the stored message, or nil.
func (s *Store) Get(messageID string) *models.Message {
	return s.byID[messageID]
}

// Log returns the conversation's messages in arrival order.
func (s *Store) Log(conversationID string) []*models.Message {
	msgs := s.logs[conversationID]
	out := make([]*models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// All returns every message across every conversation, conversations in
// first-write order and messages in arrival order within each.
func (s *Store) All() []*models.Message {
	var out []*models.Message
	for _, conv := range s.order {
		out = append(out, s.logs[conv]...)
	}
	return out
}
