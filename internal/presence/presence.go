// Package presence tracks the online roster and the ephemeral typing set.
//
// Typing signals self-expire: reads filter by expiry, so nothing has to run
// in the background. Sweep exists only to bound memory in long-lived
// sessions and may be called from a convenience timer.
package presence

import (
	"sort"
	"time"

	"github.com/fathima-sithara/chat-session/internal/models"
)

type Tracker struct {
	order  []string
	roster map[string]*models.User
	typing map[string]map[string]models.TypingSignal // conversationID -> userID -> signal
}

// New seeds the tracker from a roster snapshot.
func New(seed []models.User) *Tracker {
	t := &Tracker{
		roster: make(map[string]*models.User, len(seed)),
		typing: make(map[string]map[string]models.TypingSignal),
	}
	for _, u := range seed {
		cp := u
		if _, dup := t.roster[u.ID]; dup {
			continue
		}
		t.order = append(t.order, u.ID)
		t.roster[u.ID] = &cp
	}
	return t
}

// SetOnline applies an inbound presence change, registering the user on
// first sight. Only transport events call this; no local operation flips
// another user's presence.
func (t *Tracker) SetOnline(userID, username string, online bool) {
	if u, ok := t.roster[userID]; ok {
		u.IsOnline = online
		if username != "" {
			u.Username = username
		}
		return
	}
	t.order = append(t.order, userID)
	t.roster[userID] = &models.User{ID: userID, Username: username, IsOnline: online}
}

// Roster returns all known users in registration order.
func (t *Tracker) Roster() []models.User {
	out := make([]models.User, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.roster[id])
	}
	return out
}

// Online returns the users currently online, registration order.
func (t *Tracker) Online() []models.User { return t.filter(true) }

// Offline returns the users currently offline, registration order.
func (t *Tracker) Offline() []models.User { return t.filter(false) }

func (t *Tracker) filter(online bool) []models.User {
	var out []models.User
	for _, id := range t.order {
		if u := t.roster[id]; u.IsOnline == online {
			out = append(out, *u)
		}
	}
	return out
}

// Lookup returns the user and whether it is known.
func (t *Tracker) Lookup(userID string) (models.User, bool) {
	u, ok := t.roster[userID]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

// SetTyping inserts or refreshes the typing signal for (conversationID,
// userID). A later call replaces the earlier signal and resets its expiry;
// signals never stack.
func (t *Tracker) SetTyping(conversationID, userID, username string, ttl time.Duration, now time.Time) {
	sigs, ok := t.typing[conversationID]
	if !ok {
		sigs = make(map[string]models.TypingSignal)
		t.typing[conversationID] = sigs
	}
	sigs[userID] = models.TypingSignal{
		UserID:         userID,
		Username:       username,
		ConversationID: conversationID,
		ExpiresAt:      now.Add(ttl),
	}
}

// ClearTyping removes the signal immediately, ahead of its expiry. Called
// when a user sends a message or explicitly stops typing.
func (t *Tracker) ClearTyping(conversationID, userID string) {
	if sigs, ok := t.typing[conversationID]; ok {
		delete(sigs, userID)
		if len(sigs) == 0 {
			delete(t.typing, conversationID)
		}
	}
}

// ActiveTypers returns the conversation's non-expired signals, sorted by
// username for stable rendering.
func (t *Tracker) ActiveTypers(conversationID string, now time.Time) []models.TypingSignal {
	var out []models.TypingSignal
	for _, sig := range t.typing[conversationID] {
		if sig.ExpiresAt.After(now) {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Sweep evicts expired signals and reports how many it removed.
func (t *Tracker) Sweep(now time.Time) int {
	removed := 0
	for conv, sigs := range t.typing {
		for id, sig := range sigs {
			if !sig.ExpiresAt.After(now) {
				delete(sigs, id)
				removed++
			}
		}
		if len(sigs) == 0 {
			delete(t.typing, conv)
		}
	}
	return removed
}
