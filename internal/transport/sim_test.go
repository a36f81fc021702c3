package transport_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-session/internal/models"
	"github.com/fathima-sithara/chat-session/internal/transport"
)

// fakeScheduler runs scheduled callbacks when the test advances virtual time.
type fakeScheduler struct {
	now   time.Duration
	tasks []*fakeTask
}

type fakeTask struct {
	at       time.Duration
	fn       func()
	canceled bool
	done     bool
}

func (f *fakeScheduler) Schedule(d time.Duration, fn func()) transport.CancelFunc {
	tk := &fakeTask{at: f.now + d, fn: fn}
	f.tasks = append(f.tasks, tk)
	return func() { tk.canceled = true }
}

func (f *fakeScheduler) advance(d time.Duration) {
	target := f.now + d
	for {
		var next *fakeTask
		for _, tk := range f.tasks {
			if tk.canceled || tk.done || tk.at > target {
				continue
			}
			if next == nil || tk.at < next.at {
				next = tk
			}
		}
		if next == nil {
			break
		}
		f.now = next.at
		next.done = true
		next.fn()
	}
	f.now = target
}

var peers = []models.User{
	{ID: "1", Username: "Alex", IsOnline: true},
	{ID: "2", Username: "Jordan", IsOnline: true},
	{ID: "3", Username: "Sam", IsOnline: false},
}

func newSim(replies bool) (*transport.Sim, *fakeScheduler, *[]transport.Event) {
	sched := &fakeScheduler{}
	sim := transport.NewSim(transport.SimConfig{
		LocalUserID:    "1",
		Peers:          peers,
		SentDelay:      300 * time.Millisecond,
		DeliveredDelay: 800 * time.Millisecond,
		ReadDelayMin:   1500 * time.Millisecond,
		ReadDelayMax:   1600 * time.Millisecond,
		ReplyEnabled:   replies,
		ReplyDelayMin:  2000 * time.Millisecond,
		ReplyDelayMax:  2100 * time.Millisecond,
	}, sched, rand.New(rand.NewSource(7)))

	events := &[]transport.Event{}
	sim.Subscribe(func(ev transport.Event) { *events = append(*events, ev) })
	return sim, sched, events
}

func TestPipelineWalksStatuses(t *testing.T) {
	sim, sched, events := newSim(false)

	sim.Send(transport.Op{Type: transport.OpSendMessage, MessageID: "m1", ConversationID: "general"})
	assert.Empty(t, *events, "events land strictly after Send returns")

	sched.advance(400 * time.Millisecond)
	require.Len(t, *events, 1)
	assert.Equal(t, models.StatusSent, (*events)[0].Status)

	sched.advance(500 * time.Millisecond)
	require.Len(t, *events, 2)
	assert.Equal(t, models.StatusDelivered, (*events)[1].Status)

	sched.advance(time.Second)
	require.Len(t, *events, 3)
	last := (*events)[2]
	assert.Equal(t, transport.EventStatusChanged, last.Type)
	assert.Equal(t, "m1", last.MessageID)
	assert.Equal(t, models.StatusRead, last.Status)
}

func TestScriptedReply(t *testing.T) {
	sim, sched, events := newSim(true)

	sim.Send(transport.Op{Type: transport.OpSendMessage, MessageID: "m1", ConversationID: "general"})
	sched.advance(5 * time.Second)

	var typingStarts, typingStops int
	var reply *models.Message
	for _, ev := range *events {
		switch ev.Type {
		case transport.EventTypingChanged:
			if ev.Typing.Stopped {
				typingStops++
			} else {
				typingStarts++
			}
			assert.Equal(t, "2", ev.Typing.UserID)
		case transport.EventMessageArrived:
			reply = ev.Message
		}
	}

	require.NotNil(t, reply, "first online non-local peer replies")
	assert.Equal(t, "2", reply.SenderID)
	assert.Equal(t, "Jordan", reply.Sender)
	assert.Equal(t, "general", reply.ConversationID)
	assert.Equal(t, models.StatusDelivered, reply.Status)
	assert.NotEmpty(t, reply.Content)
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, 1, typingStarts, "peer types before the reply lands")
	assert.Equal(t, 1, typingStops)
}

func TestNoReplyWhenDisabled(t *testing.T) {
	sim, sched, events := newSim(false)
	sim.Send(transport.Op{Type: transport.OpSendMessage, MessageID: "m1", ConversationID: "general"})
	sched.advance(10 * time.Second)

	for _, ev := range *events {
		assert.Equal(t, transport.EventStatusChanged, ev.Type)
	}
	assert.Len(t, *events, 3)
}

func TestCloseCancelsPendingTimers(t *testing.T) {
	sim, sched, events := newSim(false)
	sim.Send(transport.Op{Type: transport.OpSendMessage, MessageID: "m1", ConversationID: "general"})
	sim.Close()
	sched.advance(10 * time.Second)
	assert.Empty(t, *events)
}

func TestTypingThrottleCollapsesBursts(t *testing.T) {
	sched := &fakeScheduler{}
	sim := transport.NewSim(transport.SimConfig{
		LocalUserID:        "1",
		Peers:              peers,
		TypingOpsPerSecond: 0.5,
	}, sched, rand.New(rand.NewSource(7)))

	// A keystroke burst: five typing ops back to back.
	for i := 0; i < 5; i++ {
		sim.Send(transport.Op{Type: transport.OpTypingStart, ConversationID: "general", UserID: "1"})
	}
	assert.Equal(t, 4, sim.DroppedTypingOps(), "one op per interval passes, the rest drop")
}

func TestTypingThrottleDisabledByDefault(t *testing.T) {
	sim, _, _ := newSim(false)
	for i := 0; i < 5; i++ {
		sim.Send(transport.Op{Type: transport.OpTypingStart, ConversationID: "general", UserID: "1"})
	}
	assert.Zero(t, sim.DroppedTypingOps(), "zero rate means no throttle")
}

func TestDirectConversationsUseTheirOwnDelays(t *testing.T) {
	sched := &fakeScheduler{}
	sim := transport.NewSim(transport.SimConfig{
		LocalUserID:        "1",
		Peers:              peers,
		SentDelay:          100 * time.Millisecond,
		DeliveredDelay:     200 * time.Millisecond,
		ReadDelayMin:       3000 * time.Millisecond,
		ReadDelayMax:       3100 * time.Millisecond,
		DirectReadDelayMin: 500 * time.Millisecond,
		DirectReadDelayMax: 600 * time.Millisecond,
	}, sched, rand.New(rand.NewSource(7)))

	var reads []string
	sim.Subscribe(func(ev transport.Event) {
		if ev.Type == transport.EventStatusChanged && ev.Status == models.StatusRead {
			reads = append(reads, ev.MessageID)
		}
	})

	sim.Send(transport.Op{Type: transport.OpSendMessage, MessageID: "ch", ConversationID: "general"})
	sim.Send(transport.Op{Type: transport.OpSendMessage, MessageID: "dm", ConversationID: "dm:1:2"})

	sched.advance(700 * time.Millisecond)
	require.Len(t, reads, 1, "the DM is read within its faster window")
	assert.Equal(t, "dm", reads[0])

	sched.advance(3 * time.Second)
	require.Len(t, reads, 2)
	assert.Equal(t, "ch", reads[1])
}

func TestNonMessageOpsEmitNothing(t *testing.T) {
	sim, sched, events := newSim(true)
	sim.Send(transport.Op{Type: transport.OpTypingStart, ConversationID: "general", UserID: "1"})
	sim.Send(transport.Op{Type: transport.OpJoinChannel, ConversationID: "random", UserID: "1"})
	sched.advance(10 * time.Second)
	assert.Empty(t, *events)
}
