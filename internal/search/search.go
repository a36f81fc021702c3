// Package search is a derived, read-only projection over the message store:
// every conversation's log flattened, annotated with resolved display names,
// sorted newest first and filtered by substring. Nothing here owns state;
// the projection is recomputed on every read.
package search

import (
	"sort"
	"strings"

	"github.com/fathima-sithara/chat-session/internal/directory"
	"github.com/fathima-sithara/chat-session/internal/models"
	"github.com/fathima-sithara/chat-session/internal/store"
)

// MaxResults caps one query's result count.
const MaxResults = 20

type Index struct {
	store *store.Store
	dir   *directory.Directory
}

func New(s *store.Store, d *directory.Directory) *Index {
	return &Index{store: s, dir: d}
}

// Search matches query case-insensitively against message content or sender
// display name across all conversations. Empty or whitespace queries return
// nothing. Results are newest first, at most MaxResults. Deleted messages
// and system placeholders never match.
func (ix *Index) Search(query string) []models.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var hits []*models.Message
	for _, m := range ix.store.All() {
		if m.Deleted || m.IsSystem() {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), q) ||
			strings.Contains(strings.ToLower(m.Sender), q) {
			hits = append(hits, m)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].ID > hits[j].ID
		}
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}

	out := make([]models.SearchResult, 0, len(hits))
	for _, m := range hits {
		out = append(out, models.SearchResult{
			MessageID:        m.ID,
			Content:          m.Content,
			Sender:           m.Sender,
			ConversationID:   m.ConversationID,
			ConversationName: ix.dir.DisplayName(m.ConversationID),
			CreatedAt:        m.CreatedAt,
			IsDirect:         ix.dir.IsDirect(m.ConversationID),
		})
	}
	return out
}
