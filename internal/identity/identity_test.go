package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-session/internal/models"
)

func TestCanonicalDirectIDCommutative(t *testing.T) {
	pairs := [][2]string{
		{"1", "2"},
		{"2", "10"},
		{"alice", "bob"},
		{"zed", "amy"},
	}
	for _, p := range pairs {
		ab, err := CanonicalDirectID(p[0], p[1])
		require.NoError(t, err)
		ba, err := CanonicalDirectID(p[1], p[0])
		require.NoError(t, err)
		assert.Equal(t, ab, ba, "pair %v", p)
	}
}

func TestCanonicalDirectIDOrdersLexicographically(t *testing.T) {
	id, err := CanonicalDirectID("2", "1")
	require.NoError(t, err)
	assert.Equal(t, "dm:1:2", id)

	// Lexicographic, not numeric.
	id, err = CanonicalDirectID("10", "2")
	require.NoError(t, err)
	assert.Equal(t, "dm:10:2", id)
}

func TestCanonicalDirectIDRejectsSelfAndEmpty(t *testing.T) {
	_, err := CanonicalDirectID("1", "1")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = CanonicalDirectID("", "2")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = CanonicalDirectID("1", "")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestIsDirect(t *testing.T) {
	assert.True(t, IsDirect("dm:1:2"))
	assert.False(t, IsDirect("general"))
	assert.False(t, IsDirect(""))
}

func TestOtherParticipant(t *testing.T) {
	other, err := OtherParticipant("dm:1:2", "1")
	require.NoError(t, err)
	assert.Equal(t, "2", other)

	other, err = OtherParticipant("dm:1:2", "2")
	require.NoError(t, err)
	assert.Equal(t, "1", other)
}

func TestOtherParticipantRejectsChannels(t *testing.T) {
	_, err := OtherParticipant("general", "1")
	assert.ErrorIs(t, err, models.ErrNotDirectConversation)
}

func TestOtherParticipantRejectsMalformed(t *testing.T) {
	for _, id := range []string{"dm:", "dm:1", "dm::2", "dm:1:"} {
		_, err := OtherParticipant(id, "1")
		assert.ErrorIs(t, err, models.ErrInvalidArgument, "id %q", id)
	}
}
