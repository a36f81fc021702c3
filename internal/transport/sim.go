package transport

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/fathima-sithara/chat-session/internal/identity"
	"github.com/fathima-sithara/chat-session/internal/models"
)

// canned peer replies, carried over from the mock transport this adapter
// replaces.
var replyLines = []string{
	"That's cool!",
	"Interesting 🤔",
	"Nice! 👍",
	"Tell me more!",
}

// SimConfig tunes the simulated round trips.
type SimConfig struct {
	LocalUserID string
	// Peers is the roster snapshot the simulator picks reply authors from;
	// the first online non-local user replies.
	Peers []models.User

	SentDelay      time.Duration
	DeliveredDelay time.Duration
	ReadDelayMin   time.Duration
	ReadDelayMax   time.Duration

	// Direct conversations get their own read/reply windows: a DM peer has
	// the conversation open and reacts faster than a channel audience.
	DirectReadDelayMin  time.Duration
	DirectReadDelayMax  time.Duration
	DirectReplyDelayMin time.Duration
	DirectReplyDelayMax time.Duration

	// ReplyEnabled turns the scripted peer reply on. Off, the pipeline only
	// advances statuses, which keeps tests deterministic.
	ReplyEnabled  bool
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration

	// TypingOpsPerSecond throttles outbound typing-start ops; a keystroke
	// burst collapses into at most one wire op per interval. Zero disables
	// the throttle.
	TypingOpsPerSecond float64
}

func (c *SimConfig) applyDefaults() {
	if c.SentDelay == 0 {
		c.SentDelay = 300 * time.Millisecond
	}
	if c.DeliveredDelay == 0 {
		c.DeliveredDelay = 800 * time.Millisecond
	}
	if c.ReadDelayMin == 0 {
		c.ReadDelayMin = 1500 * time.Millisecond
	}
	if c.ReadDelayMax < c.ReadDelayMin {
		c.ReadDelayMax = c.ReadDelayMin + 3*time.Second
	}
	if c.ReplyDelayMin == 0 {
		c.ReplyDelayMin = 1500 * time.Millisecond
	}
	if c.ReplyDelayMax < c.ReplyDelayMin {
		c.ReplyDelayMax = c.ReplyDelayMin + 2*time.Second
	}
	if c.DirectReadDelayMin == 0 {
		c.DirectReadDelayMin = time.Second
	}
	if c.DirectReadDelayMax < c.DirectReadDelayMin {
		c.DirectReadDelayMax = c.DirectReadDelayMin + 1500*time.Millisecond
	}
	if c.DirectReplyDelayMin == 0 {
		c.DirectReplyDelayMin = time.Second
	}
	if c.DirectReplyDelayMax < c.DirectReplyDelayMin {
		c.DirectReplyDelayMax = c.DirectReplyDelayMin + 1500*time.Millisecond
	}
}

// Sim is the local-timer stand-in for a real connection: every Send is
// answered by scheduled events that walk a sent message through the status
// pipeline and, optionally, produce a scripted peer reply. A production
// adapter keeps the same surface and replaces the timers with genuine
// network completions.
type Sim struct {
	cfg     SimConfig
	sched   Scheduler
	rng     *rand.Rand
	limiter *rate.Limiter

	mu            sync.Mutex
	handler       Handler
	pending       map[int]CancelFunc
	nextTimer     int
	typingDropped int
}

// NewSim builds a simulated adapter. Pass a fixed-seed rng for
// reproducible delays.
func NewSim(cfg SimConfig, sched Scheduler, rng *rand.Rand) *Sim {
	cfg.applyDefaults()
	s := &Sim{cfg: cfg, sched: sched, rng: rng, pending: make(map[int]CancelFunc)}
	if cfg.TypingOpsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.TypingOpsPerSecond), 1)
	}
	return s
}

// Subscribe registers the inbound event handler. One subscriber; the
// session owns this boundary.
func (s *Sim) Subscribe(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Schedule exposes the adapter clock for the engine's own deferred work.
func (s *Sim) Schedule(d time.Duration, fn func()) CancelFunc {
	return s.sched.Schedule(d, fn)
}

// Send accepts an outbound op. Message sends start the status pipeline;
// typing starts are throttled; everything else is acknowledged implicitly.
func (s *Sim) Send(op Op) {
	switch op.Type {
	case OpSendMessage:
		s.startPipeline(op)
	case OpTypingStart:
		if s.limiter != nil && !s.limiter.Allow() {
			s.mu.Lock()
			s.typingDropped++
			s.mu.Unlock()
			log.Debug().Str("conversation", op.ConversationID).Msg("typing op throttled")
			return
		}
		log.Debug().Str("conversation", op.ConversationID).Msg("typing start sent")
	default:
		log.Debug().Str("op", string(op.Type)).Str("conversation", op.ConversationID).Msg("op sent")
	}
}

// DroppedTypingOps reports how many typing-start ops the throttle dropped.
func (s *Sim) DroppedTypingOps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typingDropped
}

// Close cancels every pending timer.
func (s *Sim) Close() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, cancel := range pending {
		cancel()
	}
}

func (s *Sim) startPipeline(op Op) {
	id := op.MessageID
	readMin, readMax := s.cfg.ReadDelayMin, s.cfg.ReadDelayMax
	replyMin, replyMax := s.cfg.ReplyDelayMin, s.cfg.ReplyDelayMax
	if identity.IsDirect(op.ConversationID) {
		readMin, readMax = s.cfg.DirectReadDelayMin, s.cfg.DirectReadDelayMax
		replyMin, replyMax = s.cfg.DirectReplyDelayMin, s.cfg.DirectReplyDelayMax
	}

	s.after(s.cfg.SentDelay, func() {
		s.emit(Event{Type: EventStatusChanged, MessageID: id, Status: models.StatusSent})
	})
	s.after(s.cfg.DeliveredDelay, func() {
		s.emit(Event{Type: EventStatusChanged, MessageID: id, Status: models.StatusDelivered})
	})
	s.after(s.between(readMin, readMax), func() {
		s.emit(Event{Type: EventStatusChanged, MessageID: id, Status: models.StatusRead})
	})

	if !s.cfg.ReplyEnabled {
		return
	}
	author, ok := s.replyAuthor()
	if !ok {
		return
	}
	line := replyLines[s.rng.Intn(len(replyLines))]
	conv := op.ConversationID
	delay := s.between(replyMin, replyMax)

	// The peer "types" for the second before the reply lands.
	typingLead := time.Second
	if delay > typingLead {
		s.after(delay-typingLead, func() {
			s.emit(Event{Type: EventTypingChanged, Typing: &TypingChange{
				ConversationID: conv,
				UserID:         author.ID,
				Username:       author.Username,
			}})
		})
	}
	s.after(delay, func() {
		s.emit(Event{Type: EventTypingChanged, Typing: &TypingChange{
			ConversationID: conv,
			UserID:         author.ID,
			Username:       author.Username,
			Stopped:        true,
		}})
		s.emit(Event{Type: EventMessageArrived, Message: &models.Message{
			ID:             primitive.NewObjectID().Hex(),
			ConversationID: conv,
			SenderID:       author.ID,
			Sender:         author.Username,
			Content:        line,
			CreatedAt:      time.Now().UTC(),
			Status:         models.StatusDelivered,
		}})
	})
}

func (s *Sim) replyAuthor() (models.User, bool) {
	for _, u := range s.cfg.Peers {
		if u.ID != s.cfg.LocalUserID && u.IsOnline {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Sim) between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}

// after schedules fn and tracks the cancel so Close can tear everything
// down. Fired timers drop their own entry, keeping pending bounded over a
// long-lived session.
func (s *Sim) after(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextTimer
	s.nextTimer++
	cancel := s.sched.Schedule(d, func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		fn()
	})
	if s.pending != nil {
		s.pending[id] = cancel
	}
}

func (s *Sim) emit(ev Event) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(ev)
	}
}
