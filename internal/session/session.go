// Package session is the engine itself: one Session holds all conversation
// state for one connected participant and exposes the operation surface the
// presentation layer drives. Operations mutate the directory, the message
// store and the presence tracker synchronously; everything asynchronous
// comes back through the transport adapter's event handler and is applied
// idempotently.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fathima-sithara/chat-session/internal/directory"
	"github.com/fathima-sithara/chat-session/internal/models"
	"github.com/fathima-sithara/chat-session/internal/presence"
	"github.com/fathima-sithara/chat-session/internal/search"
	"github.com/fathima-sithara/chat-session/internal/store"
	"github.com/fathima-sithara/chat-session/internal/transport"
)

const previewLimit = 80

// Config describes one session's fixed inputs.
type Config struct {
	LocalUser      models.User
	Channels       []directory.Channel
	DefaultChannel string
	Roster         []models.User

	// TypingTTL is how long a remote typing signal stays visible without a
	// refresh.
	TypingTTL time.Duration
	// SweepInterval drives the optional proactive eviction of expired typing
	// signals. Zero disables the sweep; expiry is enforced on read either way.
	SweepInterval time.Duration
}

// NotificationFunc observes newly arrived messages from other participants.
type NotificationFunc func(models.Notification)

// Session is safe for concurrent use: every operation and every inbound
// event runs to completion under one lock before the next is observed.
type Session struct {
	mu sync.Mutex

	local     models.User
	typingTTL time.Duration

	dir      *directory.Directory
	store    *store.Store
	presence *presence.Tracker
	index    *search.Index
	tr       transport.Adapter

	notify      []NotificationFunc
	now         func() time.Time
	sweepEvery  time.Duration
	cancelSweep transport.CancelFunc
	closed      bool
}

// New constructs a session for the local user and subscribes it to the
// adapter's event stream.
func New(cfg Config, tr transport.Adapter) (*Session, error) {
	if cfg.LocalUser.ID == "" {
		return nil, fmt.Errorf("%w: local user id required", models.ErrInvalidArgument)
	}
	if cfg.TypingTTL <= 0 {
		cfg.TypingTTL = 2 * time.Second
	}
	dir, err := directory.New(cfg.LocalUser.ID, cfg.Channels, cfg.DefaultChannel)
	if err != nil {
		return nil, err
	}

	st := store.New(cfg.LocalUser.ID)
	s := &Session{
		local:      cfg.LocalUser,
		typingTTL:  cfg.TypingTTL,
		dir:        dir,
		store:      st,
		presence:   presence.New(cfg.Roster),
		index:      search.New(st, dir),
		tr:         tr,
		now:        time.Now,
		sweepEvery: cfg.SweepInterval,
	}
	tr.Subscribe(s.HandleEvent)
	if s.sweepEvery > 0 {
		s.cancelSweep = tr.Schedule(s.sweepEvery, s.sweep)
	}
	log.Info().Str("user", cfg.LocalUser.ID).Str("channel", dir.ActiveID()).Msg("session started")
	return s, nil
}

// Close stops the sweep timer and detaches the session from new events.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelSweep != nil {
		s.cancelSweep()
	}
	log.Info().Str("user", s.local.ID).Msg("session closed")
}

// OnNotification registers an observer for inbound messages not authored by
// the local user. Observers run outside the session lock.
func (s *Session) OnNotification(fn NotificationFunc) {
	s.mu.Lock()
	s.notify = append(s.notify, fn)
	s.mu.Unlock()
}

// SetClock overrides the time source. Test hook.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.store.SetClock(now)
	s.mu.Unlock()
}

// SendMessage appends a message from the local user to the active
// conversation and hands it to the transport. The local user's own typing
// signal, if any, is cleared immediately.
func (s *Session) SendMessage(content string, attachments []models.Attachment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.dir.ActiveID()
	m, err := s.store.Append(conv, s.local.ID, s.local.Username, content, attachments)
	if err != nil {
		return "", err
	}
	s.presence.ClearTyping(conv, s.local.ID)

	s.tr.Send(transport.Op{
		ID:             uuid.NewString(),
		Type:           transport.OpSendMessage,
		ConversationID: conv,
		MessageID:      m.ID,
		UserID:         s.local.ID,
		Content:        content,
	})
	log.Debug().Str("message", m.ID).Str("conversation", conv).Msg("message sent")
	return m.ID, nil
}

// EditMessage rewrites a message the local user authored. Unchanged or
// empty content is ignored without touching the wire.
func (s *Session) EditMessage(messageID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.store.Edit(messageID, content)
	if err != nil || !changed {
		return err
	}
	s.tr.Send(transport.Op{
		ID:        uuid.NewString(),
		Type:      transport.OpEditMessage,
		MessageID: messageID,
		UserID:    s.local.ID,
		Content:   content,
	})
	return nil
}

// DeleteMessage soft-deletes a message the local user authored.
func (s *Session) DeleteMessage(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(messageID); err != nil {
		return err
	}
	s.tr.Send(transport.Op{
		ID:        uuid.NewString(),
		Type:      transport.OpDeleteMsg,
		MessageID: messageID,
		UserID:    s.local.ID,
	})
	return nil
}

// ToggleReaction flips the local user's reaction on a message.
func (s *Session) ToggleReaction(messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ToggleReaction(messageID, emoji, s.local.ID); err != nil {
		return err
	}
	s.tr.Send(transport.Op{
		ID:        uuid.NewString(),
		Type:      transport.OpReact,
		MessageID: messageID,
		UserID:    s.local.ID,
		Emoji:     emoji,
	})
	return nil
}

// JoinChannel switches the active conversation to a catalog channel.
func (s *Session) JoinChannel(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dir.JoinChannel(channelID); err != nil {
		return err
	}
	s.tr.Send(transport.Op{
		ID:             uuid.NewString(),
		Type:           transport.OpJoinChannel,
		ConversationID: channelID,
		UserID:         s.local.ID,
	})
	return nil
}

// StartDirectMessage opens (or re-activates) the direct conversation with
// the target user. The first open seeds the log with a system placeholder.
// Idempotent: repeat calls only switch the active conversation.
func (s *Session) StartDirectMessage(targetUserID, targetUsername string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, created, err := s.dir.StartDirect(targetUserID, targetUsername)
	if err != nil {
		return "", err
	}
	if created {
		greeting := fmt.Sprintf("start of your conversation with %s", targetUsername)
		if _, err := s.store.Append(conv, models.SystemSenderID, "System", greeting, nil); err != nil {
			return "", err
		}
		s.tr.Send(transport.Op{
			ID:             uuid.NewString(),
			Type:           transport.OpStartDirect,
			ConversationID: conv,
			UserID:         targetUserID,
			Username:       targetUsername,
		})
		log.Info().Str("conversation", conv).Str("peer", targetUserID).Msg("direct conversation opened")
	}
	return conv, nil
}

// StartTyping tells the transport the local user is typing in the active
// conversation. The adapter may throttle bursts.
func (s *Session) StartTyping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tr.Send(transport.Op{
		ID:             uuid.NewString(),
		Type:           transport.OpTypingStart,
		ConversationID: s.dir.ActiveID(),
		UserID:         s.local.ID,
		Username:       s.local.Username,
	})
}

// StopTyping tells the transport the local user stopped typing.
func (s *Session) StopTyping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tr.Send(transport.Op{
		ID:             uuid.NewString(),
		Type:           transport.OpTypingStop,
		ConversationID: s.dir.ActiveID(),
		UserID:         s.local.ID,
	})
}

// Search runs the cross-conversation search projection.
func (s *Session) Search(query string) []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Search(query)
}

// ActiveConversationID returns the current selection.
func (s *Session) ActiveConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.ActiveID()
}

// ActiveConversationName returns the display name of the current selection.
func (s *Session) ActiveConversationName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.DisplayName(s.dir.ActiveID())
}

// DisplayName resolves any conversation ID for rendering.
func (s *Session) DisplayName(conversationID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.DisplayName(conversationID)
}

// Messages returns the active conversation's log, arrival order.
func (s *Session) Messages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Log(s.dir.ActiveID())
}

// MessagesIn returns a specific conversation's log, arrival order.
func (s *Session) MessagesIn(conversationID string) []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Log(conversationID)
}

// Roster returns all known users.
func (s *Session) Roster() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Roster()
}

// OnlineUsers returns the online half of the roster.
func (s *Session) OnlineUsers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Online()
}

// OfflineUsers returns the offline half of the roster.
func (s *Session) OfflineUsers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Offline()
}

// Typers returns who is typing in the active conversation right now.
func (s *Session) Typers() []models.TypingSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.ActiveTypers(s.dir.ActiveID(), s.now())
}

// DirectPeers returns the direct-conversation list in the order it grew.
func (s *Session) DirectPeers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Peers()
}

// Channels returns the static channel catalog.
func (s *Session) Channels() []directory.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Channels()
}

// HandleEvent applies one inbound transport event. Every branch is
// idempotent: duplicate messages, repeated status changes and stale typing
// updates all land as no-ops.
func (s *Session) HandleEvent(ev transport.Event) {
	var pending []models.Notification

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch ev.Type {
	case transport.EventMessageArrived:
		if n, ok := s.applyArrival(ev.Message); ok {
			pending = append(pending, n)
		}
	case transport.EventStatusChanged:
		s.store.AdvanceStatus(ev.MessageID, ev.Status)
	case transport.EventPresenceChanged:
		if ev.User != nil {
			s.presence.SetOnline(ev.User.ID, ev.User.Username, ev.User.IsOnline)
		}
	case transport.EventTypingChanged:
		s.applyTyping(ev.Typing)
	}
	observers := s.notify
	s.mu.Unlock()

	for _, n := range pending {
		for _, fn := range observers {
			fn(n)
		}
	}
}

func (s *Session) applyArrival(m *models.Message) (models.Notification, bool) {
	if m == nil || !s.store.Insert(m) {
		return models.Notification{}, false
	}
	// A DM opened from the remote side still has to show up in the
	// directory list.
	if s.dir.IsDirect(m.ConversationID) && m.SenderID != s.local.ID && !m.IsSystem() {
		s.dir.RegisterPeer(models.User{ID: m.SenderID, Username: m.Sender, IsOnline: true})
	}
	// The sender evidently finished typing.
	s.presence.ClearTyping(m.ConversationID, m.SenderID)

	if m.SenderID == s.local.ID || m.IsSystem() || m.Deleted {
		return models.Notification{}, false
	}
	return models.Notification{
		Sender:    m.Sender,
		Preview:   preview(m),
		MessageID: m.ID,
	}, true
}

func (s *Session) applyTyping(t *transport.TypingChange) {
	if t == nil || t.UserID == s.local.ID {
		return
	}
	if t.Stopped {
		s.presence.ClearTyping(t.ConversationID, t.UserID)
		return
	}
	s.presence.SetTyping(t.ConversationID, t.UserID, t.Username, s.typingTTL, s.now())
}

func (s *Session) sweep() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if n := s.presence.Sweep(s.now()); n > 0 {
		log.Debug().Int("evicted", n).Msg("typing signals swept")
	}
	s.cancelSweep = s.tr.Schedule(s.sweepEvery, s.sweep)
	s.mu.Unlock()
}

func preview(m *models.Message) string {
	text := m.Content
	if text == "" && len(m.Attachments) > 0 {
		text = m.Attachments[0].Name
	}
	runes := []rune(text)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit-1]) + "…"
	}
	return text
}
