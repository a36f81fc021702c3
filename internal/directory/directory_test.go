package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-session/internal/models"
)

var catalog = []Channel{
	{ID: "general", Name: "General"},
	{ID: "random", Name: "Random"},
}

func newDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := New("1", catalog, "general")
	require.NoError(t, err)
	return d
}

func TestNewValidatesCatalog(t *testing.T) {
	_, err := New("1", nil, "general")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = New("1", catalog, "nope")
	assert.ErrorIs(t, err, models.ErrUnknownChannel)
}

func TestDefaultChannelActive(t *testing.T) {
	d := newDirectory(t)
	assert.Equal(t, "general", d.ActiveID())
}

func TestJoinChannel(t *testing.T) {
	d := newDirectory(t)
	require.NoError(t, d.JoinChannel("random"))
	assert.Equal(t, "random", d.ActiveID())

	err := d.JoinChannel("gaming")
	assert.ErrorIs(t, err, models.ErrUnknownChannel)
	assert.Equal(t, "random", d.ActiveID(), "failed join leaves selection alone")
}

func TestStartDirectIdempotent(t *testing.T) {
	d := newDirectory(t)

	id, created, err := d.StartDirect("2", "Jordan")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "dm:1:2", id)
	assert.Equal(t, id, d.ActiveID())

	require.NoError(t, d.JoinChannel("general"))

	again, created, err := d.StartDirect("2", "Jordan")
	require.NoError(t, err)
	assert.False(t, created, "second open only re-activates")
	assert.Equal(t, id, again)
	assert.Equal(t, id, d.ActiveID())

	peers := d.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, "2", peers[0].ID)
}

func TestStartDirectWithSelf(t *testing.T) {
	d := newDirectory(t)
	_, _, err := d.StartDirect("1", "Alex")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Empty(t, d.Peers())
}

func TestPeersGrowInOpenOrder(t *testing.T) {
	d := newDirectory(t)
	_, _, err := d.StartDirect("4", "Taylor")
	require.NoError(t, err)
	_, _, err = d.StartDirect("2", "Jordan")
	require.NoError(t, err)

	peers := d.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, "Taylor", peers[0].Username)
	assert.Equal(t, "Jordan", peers[1].Username)
}

func TestDisplayName(t *testing.T) {
	d := newDirectory(t)
	_, _, err := d.StartDirect("2", "Jordan")
	require.NoError(t, err)

	assert.Equal(t, "General", d.DisplayName("general"))
	assert.Equal(t, "Jordan", d.DisplayName("dm:1:2"))
	// Unregistered peer falls back to the embedded ID.
	assert.Equal(t, "9", d.DisplayName("dm:1:9"))
	// Unknown channel falls back to the raw ID.
	assert.Equal(t, "mystery", d.DisplayName("mystery"))
}
