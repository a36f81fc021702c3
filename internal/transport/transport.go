// Package transport defines the boundary between the session engine and
// whatever carries its traffic. The engine pushes outbound intents through
// Adapter.Send and receives inbound events through the subscribed handler;
// deferred work (status acknowledgements, typing expiry sweeps) runs on the
// adapter's scheduler so a test can drive time by hand.
package transport

import (
	"time"

	"github.com/fathima-sithara/chat-session/internal/models"
)

type OpType string

const (
	OpSendMessage OpType = "message:send"
	OpEditMessage OpType = "message:edit"
	OpDeleteMsg   OpType = "message:delete"
	OpReact       OpType = "message:react"
	OpTypingStart OpType = "typing:start"
	OpTypingStop  OpType = "typing:stop"
	OpJoinChannel OpType = "conversation:join"
	OpStartDirect OpType = "conversation:direct"
)

// Op is one outbound intent. Send is fire-and-forget: completion comes back
// asynchronously as events. ID is a wire-level dedup token, distinct from
// any message ID the op refers to.
type Op struct {
	ID             string       `json:"id"`
	Type           OpType       `json:"type"`
	ConversationID string       `json:"conversation_id,omitempty"`
	MessageID      string       `json:"message_id,omitempty"`
	UserID         string       `json:"user_id,omitempty"`
	Username       string       `json:"username,omitempty"`
	Content        string       `json:"content,omitempty"`
	Emoji          string       `json:"emoji,omitempty"`
}

type EventType string

const (
	EventMessageArrived  EventType = "message:arrived"
	EventStatusChanged   EventType = "status:changed"
	EventPresenceChanged EventType = "presence:changed"
	EventTypingChanged   EventType = "typing:changed"
)

// TypingChange carries a remote user's typing start/stop.
type TypingChange struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Stopped        bool   `json:"stopped"`
}

// Event is one inbound delivery. Exactly one payload field is set,
// according to Type. Events for unrelated conversations may interleave in
// any order and may arrive more than once; the engine applies them
// idempotently.
type Event struct {
	Type      EventType       `json:"type"`
	Message   *models.Message `json:"message,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Status    models.Status   `json:"status,omitempty"`
	User      *models.User    `json:"user,omitempty"`
	Typing    *TypingChange   `json:"typing,omitempty"`
}

// Handler receives inbound events. Called strictly after the operation that
// triggered the event has returned.
type Handler func(Event)

// CancelFunc cancels a scheduled callback; calling it after the callback
// ran is harmless.
type CancelFunc func()

// Scheduler is the adapter's clock: it runs fn once after d.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// Adapter is the abstract collaborator the engine talks to. The simulated
// adapter in this package answers Send with locally timed events; a
// production adapter would put ops on the wire and feed real
// acknowledgements to the handler instead.
type Adapter interface {
	Scheduler
	Send(op Op)
	Subscribe(h Handler)
}

// TimerScheduler schedules on the process clock.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
