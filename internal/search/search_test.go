package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-session/internal/directory"
	"github.com/fathima-sithara/chat-session/internal/models"
	"github.com/fathima-sithara/chat-session/internal/store"
)

func newIndex(t *testing.T) (*Index, *store.Store, *directory.Directory) {
	t.Helper()
	d, err := directory.New("1", []directory.Channel{
		{ID: "general", Name: "General"},
		{ID: "tech", Name: "Tech Talk"},
	}, "general")
	require.NoError(t, err)
	s := store.New("1")
	return New(s, d), s, d
}

func TestSearchEmptyQuery(t *testing.T) {
	ix, s, _ := newIndex(t)
	_, err := s.Append("general", "1", "Alex", "hello", nil)
	require.NoError(t, err)

	assert.Empty(t, ix.Search(""))
	assert.Empty(t, ix.Search("   "))
}

func TestSearchMatchesContentAndSender(t *testing.T) {
	ix, s, _ := newIndex(t)
	_, err := s.Append("general", "2", "Jordan", "deployment is done", nil)
	require.NoError(t, err)
	_, err = s.Append("tech", "4", "Taylor", "lunch anyone?", nil)
	require.NoError(t, err)

	assert.Len(t, ix.Search("DEPLOY"), 1, "content match is case-insensitive")

	got := ix.Search("taylor")
	require.Len(t, got, 1, "sender display name matches too")
	assert.Equal(t, "lunch anyone?", got[0].Content)
	assert.Equal(t, "Tech Talk", got[0].ConversationName)
	assert.False(t, got[0].IsDirect)
}

func TestSearchAnnotatesDirectConversations(t *testing.T) {
	ix, s, d := newIndex(t)
	_, _, err := d.StartDirect("2", "Jordan")
	require.NoError(t, err)
	_, err = s.Append("dm:1:2", "2", "Jordan", "see you at standup", nil)
	require.NoError(t, err)

	got := ix.Search("standup")
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDirect)
	assert.Equal(t, "Jordan", got[0].ConversationName)
}

func TestSearchSkipsDeletedAndSystem(t *testing.T) {
	ix, s, _ := newIndex(t)
	m, err := s.Append("general", "1", "Alex", "oops wrong channel", nil)
	require.NoError(t, err)
	require.NoError(t, s.Delete(m.ID))
	_, err = s.Append("dm:1:2", models.SystemSenderID, "System", "start of your conversation with Jordan", nil)
	require.NoError(t, err)

	assert.Empty(t, ix.Search("oops"))
	assert.Empty(t, ix.Search("conversation"))
}

func TestSearchCapAndRecencyOrder(t *testing.T) {
	ix, s, _ := newIndex(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	i := 0
	s.SetClock(func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	})

	for n := 0; n < 30; n++ {
		_, err := s.Append("general", "1", "Alex", fmt.Sprintf("report %02d", n), nil)
		require.NoError(t, err)
	}

	got := ix.Search("report")
	require.Len(t, got, MaxResults)
	assert.Equal(t, "report 29", got[0].Content, "newest first")
	for n := 1; n < len(got); n++ {
		assert.False(t, got[n].CreatedAt.After(got[n-1].CreatedAt), "descending CreatedAt")
	}
}
