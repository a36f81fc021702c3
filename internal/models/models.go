package models

import (
	"sort"
	"time"
)

// SystemSenderID authors directory placeholder messages. Messages from this
// sender are never searchable and never raise notifications.
const SystemSenderID = "system"

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
}

type ConversationKind string

const (
	KindChannel ConversationKind = "channel"
	KindDirect  ConversationKind = "direct"
)

// Status is the delivery state of a message sent by the local user.
// Inbound messages arrive already delivered and skip the early states.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Valid reports whether s is one of the known delivery states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s is an earlier pipeline state than o. Transitions
// are monotonic: a message never moves to a state that is not After its
// current one.
func (s Status) Before(o Status) bool {
	return statusRank[s] < statusRank[o]
}

type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
	IsImage   bool   `json:"is_image"`
}

type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	Sender         string       `json:"sender"` // display name, denormalized at creation
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Status         Status       `json:"status"`
	Edited         bool         `json:"edited"`
	Deleted        bool         `json:"deleted"`
	// Reactions maps emoji to the user IDs that added it.
	Reactions map[string][]string `json:"reactions,omitempty"`
}

// IsSystem reports whether the message is an engine-authored placeholder.
func (m *Message) IsSystem() bool { return m.SenderID == SystemSenderID }

// ReactionView is the aggregated per-emoji view the presentation layer renders.
type ReactionView struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"` // true when userID passed to ReactionViews reacted
}

// ReactionViews aggregates the message's reactions, sorted by emoji for
// stable output.
func (m *Message) ReactionViews(userID string) []ReactionView {
	if len(m.Reactions) == 0 {
		return nil
	}
	out := make([]ReactionView, 0, len(m.Reactions))
	for emoji, users := range m.Reactions {
		v := ReactionView{Emoji: emoji, Count: len(users)}
		for _, u := range users {
			if u == userID {
				v.Reacted = true
				break
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Emoji < out[j].Emoji })
	return out
}

// TypingSignal is an ephemeral marker that a user is typing in a
// conversation. It is never persisted and disappears at ExpiresAt.
type TypingSignal struct {
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	ConversationID string    `json:"conversation_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// SearchResult is a derived row of the cross-conversation search projection.
type SearchResult struct {
	MessageID        string    `json:"message_id"`
	Content          string    `json:"content"`
	Sender           string    `json:"sender"`
	ConversationID   string    `json:"conversation_id"`
	ConversationName string    `json:"conversation_name"`
	CreatedAt        time.Time `json:"created_at"`
	IsDirect         bool      `json:"is_direct"`
}

// Notification describes a newly arrived message from another participant.
type Notification struct {
	Sender    string `json:"sender"`
	Preview   string `json:"preview"`
	MessageID string `json:"message_id"`
}
