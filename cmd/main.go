package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/config"
	"github.com/Gopher0727/ChatState/internal/ingest"
	"github.com/Gopher0727/ChatState/internal/mirror"
	"github.com/Gopher0727/ChatState/internal/state"
	"github.com/Gopher0727/ChatState/internal/utils"
	logger "github.com/Gopher0727/ChatState/middleware/log"
	"github.com/Gopher0727/ChatState/utils/snowflake"
)

func main() {
	path := os.Getenv("CHATSTATE_CONFIG")
	if path == "" {
		path = "./config.toml"
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Close()

	opts := []state.Option{
		state.WithLogger(zlog.Logger),
		state.WithMessageLimit(cfg.Cache.MessageLimit),
	}

	var mir *mirror.Mirror
	if cfg.Mirror.Enabled {
		mir, err = mirror.New(&cfg.Mirror, zlog.Logger)
		if err != nil {
			zlog.Fatal("failed to connect mirror", zap.Error(err))
		}
		mir.Start()
		defer mir.Close()
		opts = append(opts, state.WithObserver(mir))
	}

	reg := state.NewMemoryRegistry(opts...)
	dispatcher := ingest.NewDispatcher(reg, ingest.AllowAll(), zlog.Logger)

	gen, err := snowflake.NewGenerator(1)
	if err != nil {
		zlog.Fatal("failed to build ID generator", zap.Error(err))
	}

	// One worker per guild feed: events for different guilds apply in
	// parallel, each feed stays in arrival order.
	pool := utils.NewWorkerPool(2, 64, zlog.Logger)

	feed := buildDemoFeed(gen)
	pool.Submit(func() { runFeed(dispatcher, zlog, feed) })
	pool.Stop()

	zlog.Info("demo feed applied",
		zap.Int("cached_guilds", len(reg.Guilds())),
		zap.Int("cached_messages", reg.MessageCount()))
}

type event struct {
	kind    string
	payload state.Payload
}

func runFeed(d *ingest.Dispatcher, zlog *logger.Logger, events []event) {
	for _, ev := range events {
		delta, err := d.Apply(ev.kind, ev.payload)
		if err != nil {
			zlog.Warn("event rejected", zap.String("kind", ev.kind), zap.Error(err))
			continue
		}
		if delta == nil {
			zlog.Debug("event suppressed", zap.String("kind", ev.kind))
			continue
		}
		zlog.Info("cache delta", zap.String("event", delta.Event))
	}
}

// buildDemoFeed scripts a small but representative event sequence: a
// handshake, a guild with roles and members, message traffic with
// reactions, and a role deletion exercising the member cascade.
func buildDemoFeed(gen *snowflake.Generator) []event {
	mustID := func() string {
		id, err := gen.NextID()
		if err != nil {
			log.Fatalf("mint id: %v", err)
		}
		return id.String()
	}

	selfID := mustID()
	guildID := mustID()
	channelID := mustID()
	roleID := mustID()
	userID := mustID()
	messageID := mustID()

	return []event{
		{ingest.EventReady, state.Payload{
			"user": map[string]any{"id": selfID, "username": "statebot", "verified": true},
		}},
		{ingest.EventGuildCreate, state.Payload{
			"id":   guildID,
			"name": "demo guild",
			"roles": []any{
				map[string]any{"id": roleID, "name": "moderator", "position": 1},
			},
			"channels": []any{
				map[string]any{"id": channelID, "name": "general", "type": 0},
			},
			"members": []any{
				map[string]any{
					"user":  map[string]any{"id": userID, "username": "alice"},
					"roles": []any{roleID},
				},
			},
		}},
		{ingest.EventMessageCreate, state.Payload{
			"id":         messageID,
			"channel_id": channelID,
			"guild_id":   guildID,
			"content":    "hello",
			"author":     map[string]any{"id": userID, "username": "alice"},
		}},
		{ingest.EventMessageReactionAdd, state.Payload{
			"message_id": messageID,
			"channel_id": channelID,
			"user_id":    userID,
			"emoji":      map[string]any{"name": "👍"},
		}},
		{ingest.EventMessageReactionRemove, state.Payload{
			"message_id": messageID,
			"channel_id": channelID,
			"user_id":    userID,
			"emoji":      map[string]any{"name": "👍"},
		}},
		{ingest.EventGuildRoleDelete, state.Payload{
			"guild_id": guildID,
			"role_id":  roleID,
		}},
	}
}
