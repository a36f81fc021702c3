package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fathima-sithara/chat-session/internal/directory"
	"github.com/fathima-sithara/chat-session/internal/models"
)

// Catalog carries the static channel list and the roster snapshot a session
// is seeded with.
type Catalog struct {
	Channels []directory.Channel `yaml:"channels"`
	Roster   []RosterEntry       `yaml:"roster"`
}

type RosterEntry struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Online   bool   `yaml:"online"`
}

// Users converts the roster snapshot to model users.
func (c *Catalog) Users() []models.User {
	out := make([]models.User, 0, len(c.Roster))
	for _, e := range c.Roster {
		out = append(out, models.User{ID: e.ID, Username: e.Username, IsOnline: e.Online})
	}
	return out
}

// LoadCatalog reads the channel/roster catalog from path. A missing file
// yields the built-in default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	cat := &Catalog{
		Channels: []directory.Channel{
			{ID: "general", Name: "General"},
			{ID: "random", Name: "Random"},
			{ID: "tech", Name: "Tech Talk"},
			{ID: "gaming", Name: "Gaming"},
		},
		Roster: []RosterEntry{
			{ID: "1", Username: "Alex", Online: true},
			{ID: "2", Username: "Jordan", Online: true},
			{ID: "3", Username: "Sam", Online: false},
			{ID: "4", Username: "Taylor", Online: true},
		},
	}
	if path == "" {
		return cat, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cat, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cat); err != nil {
		return nil, err
	}
	return cat, nil
}
