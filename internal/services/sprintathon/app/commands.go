package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/sprintathon/sprintathon/internal/platform/errors"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/render"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
)

// Command names understood by the dispatcher.
const (
	CommandStartSprintathon = "start_sprintathon"
	CommandStopSprintathon  = "stop_sprintathon"
	CommandStartSprint      = "start_sprint"
	CommandStopSprint       = "stop_sprint"
	CommandSprint           = "sprint"
	CommandLeaderboard      = "leaderboard"
	CommandAbout            = "about"
	CommandInfo             = "info"
	CommandVersion          = "version"
	CommandHelp             = "help"
)

// Command is one parsed chat command.
type Command struct {
	Name      string
	Args      []string
	GuildID   string
	GuildName string
	ChannelID string
	Sender    Sender
	// Mentioned is set when the command was addressed to the bot by mention
	// rather than by prefix.
	Mentioned bool
}

func (c Command) arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// Routing isolates a debug deployment from production by guild name.
type Routing struct {
	Debug      bool
	DebugGuild string
}

// ShouldHandle reports whether commands from guildName belong to this
// deployment: a debug bot answers only in the debug guild and a production
// bot answers everywhere else.
func (r Routing) ShouldHandle(guildName string) bool {
	inDebugGuild := guildName == r.DebugGuild
	return (r.Debug && inDebugGuild) || (!r.Debug && !inDebugGuild)
}

// Dispatcher turns chat commands into engine calls and replies.
type Dispatcher struct {
	engine    *Engine
	servers   storage.ServerStore
	messenger Messenger
	render    *render.Renderer
	routing   Routing
	version   string
}

// NewDispatcher builds a dispatcher over an engine.
func NewDispatcher(engine *Engine, servers storage.ServerStore, messenger Messenger, renderer *render.Renderer, routing Routing, version string) *Dispatcher {
	if renderer == nil {
		renderer = render.New(nil, "!")
	}
	return &Dispatcher{
		engine:    engine,
		servers:   servers,
		messenger: messenger,
		render:    renderer,
		routing:   routing,
		version:   version,
	}
}

// Handle executes one command. Rejected requests are answered with a notice
// and return nil; store failures are answered generically and returned.
func (d *Dispatcher) Handle(ctx context.Context, cmd Command) error {
	if !d.routing.ShouldHandle(cmd.GuildName) {
		return nil
	}
	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))

	err := d.dispatch(ctx, cmd)
	if err == nil {
		return nil
	}
	d.reply(ctx, cmd.ChannelID, d.render.Notice(err))
	if apperrors.CodeOf(err).UserFacing() {
		return nil
	}
	return fmt.Errorf("%s: %w", cmd.Name, err)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Name {
	case CommandHelp:
		if cmd.Mentioned {
			d.reply(ctx, cmd.ChannelID, d.render.Help())
		}
		return nil
	case CommandAbout, CommandInfo:
		d.reply(ctx, cmd.ChannelID, d.render.About(d.version))
		return nil
	case CommandVersion:
		d.reply(ctx, cmd.ChannelID, d.render.Version(d.version))
		return nil
	case CommandStartSprintathon, CommandStopSprintathon, CommandStartSprint, CommandStopSprint, CommandSprint, CommandLeaderboard:
	default:
		return nil
	}

	if strings.TrimSpace(cmd.GuildID) == "" {
		// Sessions are scoped to guild channels; direct messages have none.
		return nil
	}
	scope, err := d.scope(ctx, cmd)
	if err != nil {
		return err
	}
	switch cmd.Name {
	case CommandStartSprintathon:
		hours, err := domain.ParseDuration(cmd.arg(0), domain.DefaultSprintathonHours)
		if err != nil {
			return err
		}
		_, err = d.engine.StartSprintathon(ctx, scope, hours)
		return err
	case CommandStopSprintathon:
		return d.engine.StopSprintathon(ctx, scope)
	case CommandStartSprint:
		minutes, err := domain.ParseDuration(cmd.arg(0), domain.DefaultSprintMinutes)
		if err != nil {
			return err
		}
		_, err = d.engine.StartSprint(ctx, scope, minutes)
		return err
	case CommandStopSprint:
		return d.engine.StopSprint(ctx, scope)
	case CommandSprint:
		_, err := d.engine.CheckIn(ctx, scope, cmd.Sender, cmd.arg(0))
		return err
	default:
		text, err := d.engine.Leaderboard(ctx, scope)
		if err != nil {
			return err
		}
		d.reply(ctx, cmd.ChannelID, text)
		return nil
	}
}

// scope resolves the command's guild to a stored server.
func (d *Dispatcher) scope(ctx context.Context, cmd Command) (domain.Scope, error) {
	if strings.TrimSpace(cmd.ChannelID) == "" {
		return domain.Scope{}, errors.New("channel id is required")
	}
	server, err := d.servers.FindOrCreateServer(ctx, cmd.GuildName, cmd.GuildID)
	if err != nil {
		return domain.Scope{}, wrapStore("find server", err)
	}
	return domain.Scope{ServerID: server.ID, ChannelID: cmd.ChannelID}, nil
}

func (d *Dispatcher) reply(ctx context.Context, channelID, text string) {
	if err := d.messenger.SendMessage(ctx, channelID, text); err != nil {
		log.Printf("reply to channel %s: %v", channelID, err)
	}
}
