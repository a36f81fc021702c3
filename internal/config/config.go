package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type UserConfig struct {
	ID       string `mapstructure:"id"`
	Username string `mapstructure:"username"`
}

type ChatConfig struct {
	DefaultChannel       string `mapstructure:"default_channel"`
	CatalogPath          string `mapstructure:"catalog_path"`
	TypingTTLSeconds     int    `mapstructure:"typing_ttl_seconds"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds"`
}

type SimConfig struct {
	SentDelayMs           int     `mapstructure:"sent_delay_ms"`
	DeliveredDelayMs      int     `mapstructure:"delivered_delay_ms"`
	ReadDelayMinMs        int     `mapstructure:"read_delay_min_ms"`
	ReadDelayMaxMs        int     `mapstructure:"read_delay_max_ms"`
	DirectReadDelayMinMs  int     `mapstructure:"direct_read_delay_min_ms"`
	DirectReadDelayMaxMs  int     `mapstructure:"direct_read_delay_max_ms"`
	ReplyEnabled          bool    `mapstructure:"reply_enabled"`
	ReplyDelayMinMs       int     `mapstructure:"reply_delay_min_ms"`
	ReplyDelayMaxMs       int     `mapstructure:"reply_delay_max_ms"`
	DirectReplyDelayMinMs int     `mapstructure:"direct_reply_delay_min_ms"`
	DirectReplyDelayMaxMs int     `mapstructure:"direct_reply_delay_max_ms"`
	TypingOpsPerSecond    float64 `mapstructure:"typing_ops_per_second"`
}

type Config struct {
	App  AppConfig  `mapstructure:"app"`
	User UserConfig `mapstructure:"user"`
	Chat ChatConfig `mapstructure:"chat"`
	Sim  SimConfig  `mapstructure:"sim"`

	// derived
	TypingTTL           time.Duration
	SweepInterval       time.Duration
	SentDelay           time.Duration
	DeliveredDelay      time.Duration
	ReadDelayMin        time.Duration
	ReadDelayMax        time.Duration
	DirectReadDelayMin  time.Duration
	DirectReadDelayMax  time.Duration
	ReplyDelayMin       time.Duration
	ReplyDelayMax       time.Duration
	DirectReplyDelayMin time.Duration
	DirectReplyDelayMax time.Duration
}

// Load reads the config file at path, with environment variables taking
// precedence. A missing file falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.User.ID == "" {
		c.User.ID = "1"
	}
	if c.User.Username == "" {
		c.User.Username = "Alex"
	}
	if c.Chat.DefaultChannel == "" {
		c.Chat.DefaultChannel = "general"
	}
	if c.Chat.TypingTTLSeconds == 0 {
		c.Chat.TypingTTLSeconds = 2
	}
	if c.Chat.SweepIntervalSeconds == 0 {
		c.Chat.SweepIntervalSeconds = 30
	}
	if c.Sim.SentDelayMs == 0 {
		c.Sim.SentDelayMs = 300
	}
	if c.Sim.DeliveredDelayMs == 0 {
		c.Sim.DeliveredDelayMs = 800
	}
	if c.Sim.ReadDelayMinMs == 0 {
		c.Sim.ReadDelayMinMs = 1500
	}
	if c.Sim.ReadDelayMaxMs < c.Sim.ReadDelayMinMs {
		c.Sim.ReadDelayMaxMs = c.Sim.ReadDelayMinMs + 3000
	}
	if c.Sim.ReplyDelayMinMs == 0 {
		c.Sim.ReplyDelayMinMs = 1500
	}
	if c.Sim.ReplyDelayMaxMs < c.Sim.ReplyDelayMinMs {
		c.Sim.ReplyDelayMaxMs = c.Sim.ReplyDelayMinMs + 2000
	}
	if c.Sim.DirectReadDelayMinMs == 0 {
		c.Sim.DirectReadDelayMinMs = 1000
	}
	if c.Sim.DirectReadDelayMaxMs < c.Sim.DirectReadDelayMinMs {
		c.Sim.DirectReadDelayMaxMs = c.Sim.DirectReadDelayMinMs + 1500
	}
	if c.Sim.DirectReplyDelayMinMs == 0 {
		c.Sim.DirectReplyDelayMinMs = 1000
	}
	if c.Sim.DirectReplyDelayMaxMs < c.Sim.DirectReplyDelayMinMs {
		c.Sim.DirectReplyDelayMaxMs = c.Sim.DirectReplyDelayMinMs + 1500
	}
	if c.Sim.TypingOpsPerSecond == 0 {
		c.Sim.TypingOpsPerSecond = 0.5
	}

	c.TypingTTL = time.Duration(c.Chat.TypingTTLSeconds) * time.Second
	c.SweepInterval = time.Duration(c.Chat.SweepIntervalSeconds) * time.Second
	c.SentDelay = time.Duration(c.Sim.SentDelayMs) * time.Millisecond
	c.DeliveredDelay = time.Duration(c.Sim.DeliveredDelayMs) * time.Millisecond
	c.ReadDelayMin = time.Duration(c.Sim.ReadDelayMinMs) * time.Millisecond
	c.ReadDelayMax = time.Duration(c.Sim.ReadDelayMaxMs) * time.Millisecond
	c.DirectReadDelayMin = time.Duration(c.Sim.DirectReadDelayMinMs) * time.Millisecond
	c.DirectReadDelayMax = time.Duration(c.Sim.DirectReadDelayMaxMs) * time.Millisecond
	c.ReplyDelayMin = time.Duration(c.Sim.ReplyDelayMinMs) * time.Millisecond
	c.ReplyDelayMax = time.Duration(c.Sim.ReplyDelayMaxMs) * time.Millisecond
	c.DirectReplyDelayMin = time.Duration(c.Sim.DirectReplyDelayMinMs) * time.Millisecond
	c.DirectReplyDelayMax = time.Duration(c.Sim.DirectReplyDelayMaxMs) * time.Millisecond
	return &c, nil
}
