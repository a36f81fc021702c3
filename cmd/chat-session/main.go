package main

import (
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fathima-sithara/chat-session/internal/config"
	"github.com/fathima-sithara/chat-session/internal/models"
	"github.com/fathima-sithara/chat-session/internal/session"
	"github.com/fathima-sithara/chat-session/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cat, err := config.LoadCatalog(cfg.Chat.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load")
	}

	sim := transport.NewSim(transport.SimConfig{
		LocalUserID:         cfg.User.ID,
		Peers:               cat.Users(),
		SentDelay:           cfg.SentDelay,
		DeliveredDelay:      cfg.DeliveredDelay,
		ReadDelayMin:        cfg.ReadDelayMin,
		ReadDelayMax:        cfg.ReadDelayMax,
		DirectReadDelayMin:  cfg.DirectReadDelayMin,
		DirectReadDelayMax:  cfg.DirectReadDelayMax,
		ReplyEnabled:        cfg.Sim.ReplyEnabled,
		ReplyDelayMin:       cfg.ReplyDelayMin,
		ReplyDelayMax:       cfg.ReplyDelayMax,
		DirectReplyDelayMin: cfg.DirectReplyDelayMin,
		DirectReplyDelayMax: cfg.DirectReplyDelayMax,
		TypingOpsPerSecond:  cfg.Sim.TypingOpsPerSecond,
	}, transport.TimerScheduler{}, rand.New(rand.NewSource(time.Now().UnixNano())))
	defer sim.Close()

	sess, err := session.New(session.Config{
		LocalUser:      models.User{ID: cfg.User.ID, Username: cfg.User.Username, IsOnline: true},
		Channels:       cat.Channels,
		DefaultChannel: cfg.Chat.DefaultChannel,
		Roster:         cat.Users(),
		TypingTTL:      cfg.TypingTTL,
		SweepInterval:  cfg.SweepInterval,
	}, sim)
	if err != nil {
		log.Fatal().Err(err).Msg("session init")
	}
	defer sess.Close()

	sess.OnNotification(func(n models.Notification) {
		log.Info().Str("from", n.Sender).Str("preview", n.Preview).Msg("new message")
	})

	runScript(sess)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	select {
	case <-quit:
	case <-time.After(8 * time.Second):
	}
	dumpState(sess)
}

// runScript drives a short headless conversation so the status pipeline,
// the simulated replies and the search projection can be watched from the
// logs.
func runScript(sess *session.Session) {
	id, err := sess.SendMessage("hello everyone 👋", nil)
	if err != nil {
		log.Fatal().Err(err).Msg("send")
	}
	log.Info().Str("message", id).Str("conversation", sess.ActiveConversationID()).Msg("sent to channel")

	conv, err := sess.StartDirectMessage("2", "Jordan")
	if err != nil {
		log.Fatal().Err(err).Msg("start dm")
	}
	log.Info().Str("conversation", conv).Str("name", sess.ActiveConversationName()).Msg("dm opened")

	sess.StartTyping()
	if _, err := sess.SendMessage("hey Jordan, got a minute?", nil); err != nil {
		log.Fatal().Err(err).Msg("send dm")
	}
}

func dumpState(sess *session.Session) {
	for _, m := range sess.Messages() {
		log.Info().
			Str("sender", m.Sender).
			Str("status", string(m.Status)).
			Str("content", m.Content).
			Msg("log entry")
	}
	for _, r := range sess.Search("hello") {
		log.Info().Str("in", r.ConversationName).Str("content", r.Content).Msg("search hit")
	}
	log.Info().
		Int("online", len(sess.OnlineUsers())).
		Int("offline", len(sess.OfflineUsers())).
		Int("dms", len(sess.DirectPeers())).
		Msg("session state")
}
