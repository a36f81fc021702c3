// Package directory tracks which conversations exist and which one is
// active: the static channel catalog plus the direct-conversation list that
// grows as the user opens DMs. Conversations are never destroyed within a
// session.
package directory

import (
	"fmt"

	"github.com/fathima-sithara/chat-session/internal/identity"
	"github.com/fathima-sithara/chat-session/internal/models"
)

// Channel is one entry of the static catalog.
type Channel struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Directory struct {
	localUserID  string
	catalog      []Channel
	channelNames map[string]string
	active       string
	peers        []models.User // DM peers in the order conversations were opened
	peerNames    map[string]string
}

// New builds a directory over the channel catalog with defaultChannel
// active. The catalog must not be empty and must contain defaultChannel.
func New(localUserID string, catalog []Channel, defaultChannel string) (*Directory, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: empty channel catalog", models.ErrInvalidArgument)
	}
	d := &Directory{
		localUserID:  localUserID,
		catalog:      catalog,
		channelNames: make(map[string]string, len(catalog)),
		peerNames:    make(map[string]string),
	}
	for _, ch := range catalog {
		d.channelNames[ch.ID] = ch.Name
	}
	if _, ok := d.channelNames[defaultChannel]; !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownChannel, defaultChannel)
	}
	d.active = defaultChannel
	return d, nil
}

// Channels returns the static catalog.
func (d *Directory) Channels() []Channel {
	out := make([]Channel, len(d.catalog))
	copy(out, d.catalog)
	return out
}

// JoinChannel makes channelID the active conversation.
func (d *Directory) JoinChannel(channelID string) error {
	if _, ok := d.channelNames[channelID]; !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownChannel, channelID)
	}
	d.active = channelID
	return nil
}

// StartDirect resolves the canonical conversation ID for the pair
// (local user, target), registers the peer on first contact and makes the
// conversation active. Calling it again for the same target only switches
// back to the conversation; created reports first contact.
func (d *Directory) StartDirect(targetUserID, targetUsername string) (conversationID string, created bool, err error) {
	id, err := identity.CanonicalDirectID(d.localUserID, targetUserID)
	if err != nil {
		return "", false, err
	}
	created = d.RegisterPeer(models.User{ID: targetUserID, Username: targetUsername})
	d.active = id
	return id, created, nil
}

// RegisterPeer adds a DM peer if unseen and reports whether it was new.
// Used by StartDirect and for inbound messages that open a conversation
// from the remote side.
func (d *Directory) RegisterPeer(peer models.User) bool {
	if _, known := d.peerNames[peer.ID]; known {
		return false
	}
	d.peerNames[peer.ID] = peer.Username
	d.peers = append(d.peers, peer)
	return true
}

// ActiveID returns the currently selected conversation.
func (d *Directory) ActiveID() string { return d.active }

// SetActive switches selection to an already-known conversation ID without
// validation; JoinChannel and StartDirect are the validated entry points.
func (d *Directory) SetActive(id string) { d.active = id }

// Peers returns the direct-conversation list in the order it grew.
func (d *Directory) Peers() []models.User {
	out := make([]models.User, len(d.peers))
	copy(out, d.peers)
	return out
}

// DisplayName resolves a conversation ID to what the presentation layer
// shows: the catalog name for channels, the other participant's username
// for direct conversations, the raw ID when neither resolves.
func (d *Directory) DisplayName(conversationID string) string {
	if identity.IsDirect(conversationID) {
		other, err := identity.OtherParticipant(conversationID, d.localUserID)
		if err == nil {
			if name, ok := d.peerNames[other]; ok && name != "" {
				return name
			}
			return other
		}
		return conversationID
	}
	if name, ok := d.channelNames[conversationID]; ok {
		return name
	}
	return conversationID
}

// IsDirect reports whether conversationID addresses a direct conversation.
func (d *Directory) IsDirect(conversationID string) bool {
	return identity.IsDirect(conversationID)
}
