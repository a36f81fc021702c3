// Package identity derives canonical conversation identifiers.
//
// Channel IDs come straight from the static catalog. Direct conversations
// get one canonical ID per unordered pair of participants: the two user IDs
// sorted lexicographically, joined with ":" and prefixed with the reserved
// "dm:" tag. Channel IDs never carry that tag, so the two namespaces cannot
// collide.
package identity

import (
	"fmt"
	"strings"

	"github.com/fathima-sithara/chat-session/internal/models"
)

const (
	directPrefix = "dm:"
	idSeparator  = ":"
)

// CanonicalDirectID returns the canonical conversation ID for the pair
// (a, b). It is commutative: CanonicalDirectID(a, b) == CanonicalDirectID(b, a).
func CanonicalDirectID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", fmt.Errorf("%w: empty participant id", models.ErrInvalidArgument)
	}
	if a == b {
		return "", fmt.Errorf("%w: cannot start a direct conversation with yourself", models.ErrInvalidArgument)
	}
	if a > b {
		a, b = b, a
	}
	return directPrefix + a + idSeparator + b, nil
}

// IsDirect reports whether id addresses a direct conversation.
func IsDirect(id string) bool {
	return strings.HasPrefix(id, directPrefix)
}

// OtherParticipant parses a direct conversation ID and returns the embedded
// participant that is not localUserID.
func OtherParticipant(id, localUserID string) (string, error) {
	if !IsDirect(id) {
		return "", fmt.Errorf("%w: %q", models.ErrNotDirectConversation, id)
	}
	raw := strings.TrimPrefix(id, directPrefix)
	first, second, ok := strings.Cut(raw, idSeparator)
	if !ok || first == "" || second == "" {
		return "", fmt.Errorf("%w: malformed direct conversation id %q", models.ErrInvalidArgument, id)
	}
	if first == localUserID {
		return second, nil
	}
	return first, nil
}
