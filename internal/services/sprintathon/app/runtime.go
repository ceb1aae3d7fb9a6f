package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	platformgrpc "github.com/sprintathon/sprintathon/internal/platform/grpc"
	"github.com/sprintathon/sprintathon/internal/platform/timeouts"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/discord"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/render"
	sprintsqlite "github.com/sprintathon/sprintathon/internal/services/sprintathon/storage/sqlite"
)

// HealthService is the health status name that turns SERVING once orphaned
// sessions have been resumed.
const HealthService = "sprintathon.sessions"

// RuntimeConfig controls bot startup and dependencies.
type RuntimeConfig struct {
	Port       int
	DBPath     string
	Token      string
	Prefix     string
	Debug      bool
	DebugGuild string
	Version    string
}

const (
	defaultPort   = 8095
	defaultDBPath = "data/sprintathon.db"
	defaultPrefix = "!"
)

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	return cfg
}

// Timing returns the phase lengths for the configured mode.
func (cfg RuntimeConfig) Timing() Timing {
	if cfg.Debug {
		return DebugTiming()
	}
	return ProductionTiming()
}

// Run starts the store, health endpoint and Discord session, resumes
// orphaned sessions once the gateway is ready, and blocks until ctx ends. A
// failed recovery stops the runtime and is returned.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()
	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("discord token is required")
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sprintathon storage dir: %w", err)
		}
	}
	store, err := sprintsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sprintathon sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close sprintathon sqlite store: %v", closeErr)
		}
	}()

	healthServer, err := platformgrpc.ListenHealth(fmt.Sprintf(":%d", cfg.Port), HealthService)
	if err != nil {
		return fmt.Errorf("start health server: %w", err)
	}
	defer healthServer.Stop()

	transport, err := discord.New(cfg.Token, cfg.Prefix)
	if err != nil {
		return err
	}

	// A failed recovery cancels runCtx with its cause so the process exits
	// and the supervisor restarts it.
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	renderer := render.New(nil, cfg.Prefix)
	engine, err := NewEngine(Deps{
		Store:     store,
		Messenger: transport,
		Renderer:  renderer,
		Timing:    cfg.Timing(),
		Lifetime:  runCtx,
	})
	if err != nil {
		return fmt.Errorf("build session engine: %w", err)
	}
	dispatcher := NewDispatcher(engine, store, transport, renderer, Routing{Debug: cfg.Debug, DebugGuild: cfg.DebugGuild}, cfg.Version)

	transport.OnMessage(func(ctx context.Context, msg discord.Message) {
		if err := dispatcher.Handle(ctx, commandFromMessage(msg)); err != nil {
			log.Printf("command in channel %s: %v", msg.ChannelID, err)
		}
	})
	recovery := &readyRecovery{
		engine:  engine,
		serving: func() { healthServer.SetServing(HealthService, true) },
		fail:    cancel,
	}
	transport.OnReady(recovery.run)

	if err := transport.Open(runCtx); err != nil {
		return err
	}
	defer func() {
		if closeErr := transport.Close(); closeErr != nil {
			log.Printf("close discord session: %v", closeErr)
		}
	}()

	mode := "production"
	if cfg.Debug {
		mode = "debug"
	}
	log.Printf("sprintathon %s running in %s mode, health at %v", cfg.Version, mode, healthServer.Addr())
	<-runCtx.Done()

	waitForTasks(engine, timeouts.Shutdown)
	if ctx.Err() == nil {
		return context.Cause(runCtx)
	}
	return nil
}

// readyRecovery resumes orphaned sessions on the first gateway READY.
// Reconnects fire READY again and are ignored.
type readyRecovery struct {
	once    sync.Once
	engine  *Engine
	serving func()
	fail    func(error)
}

func (r *readyRecovery) run(ctx context.Context) {
	r.once.Do(func() {
		report, err := r.engine.Recover(ctx)
		if err != nil {
			log.Printf("recover sessions: %v", err)
			r.fail(fmt.Errorf("recover sessions: %w", err))
			return
		}
		log.Printf("resumed %d sprints and %d sprintathons", report.Sprints, report.Sprintathons)
		r.serving()
	})
}

func commandFromMessage(msg discord.Message) Command {
	return Command{
		Name:      msg.Name,
		Args:      msg.Args,
		GuildID:   msg.GuildID,
		GuildName: msg.GuildName,
		ChannelID: msg.ChannelID,
		Sender: Sender{
			ExternalUserID: msg.AuthorID,
			DisplayName:    msg.AuthorName,
		},
		Mentioned: msg.Mentioned,
	}
}

// waitForTasks waits for session tasks to observe cancellation, giving up
// after limit. Abandoned sessions stay active and are resumed next start.
func waitForTasks(engine *Engine, limit time.Duration) {
	done := make(chan struct{})
	go func() {
		engine.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(limit):
		log.Printf("session tasks still running after %v; leaving them for recovery", limit)
	}
}
