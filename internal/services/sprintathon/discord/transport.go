package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sprintathon/sprintathon/internal/platform/timeouts"
)

// Message is one command addressed to the bot from a guild channel.
type Message struct {
	Parsed
	GuildID    string
	GuildName  string
	ChannelID  string
	AuthorID   string
	AuthorName string
}

// Handler receives parsed commands. It runs on the gateway event goroutine.
type Handler func(ctx context.Context, msg Message)

// Transport is a Discord gateway session that forwards commands and sends
// channel messages.
type Transport struct {
	session *discordgo.Session
	prefix  string

	mu        sync.RWMutex
	lifetime  context.Context
	onMessage Handler
	onReady   func(ctx context.Context)
}

// New creates a transport for a bot token. The session is not connected
// until Open.
func New(token, prefix string) (*Transport, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	t := &Transport{session: session, prefix: prefix, lifetime: context.Background()}
	session.AddHandler(t.handleReady)
	session.AddHandler(t.handleMessageCreate)
	return t, nil
}

// OnMessage registers the command handler.
func (t *Transport) OnMessage(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMessage = h
}

// OnReady registers a callback for every gateway READY, including reconnects.
func (t *Transport) OnReady(fn func(ctx context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// Open connects to the gateway. ctx bounds the handlers invoked afterwards.
func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	t.lifetime = ctx
	t.mu.Unlock()
	if err := t.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (t *Transport) Close() error {
	return t.session.Close()
}

// SendMessage posts text to a channel.
func (t *Transport) SendMessage(ctx context.Context, channelID, text string) error {
	if _, err := t.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func (t *Transport) handlers() (context.Context, Handler, func(context.Context)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lifetime, t.onMessage, t.onReady
}

func (t *Transport) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	ctx, _, onReady := t.handlers()
	if r.User != nil {
		log.Printf("discord gateway ready as %s (%d guilds)", r.User.Username, len(r.Guilds))
	}
	if onReady != nil {
		onReady(ctx)
	}
}

func (t *Transport) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, onMessage, _ := t.handlers()
	if onMessage == nil || m.Author == nil || m.Author.Bot {
		return
	}
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	msg, ok := newMessage(m.Message, t.prefix, botID)
	if !ok {
		return
	}
	msg.GuildName = guildName(s, m.GuildID)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Command)
	defer cancel()
	onMessage(ctx, msg)
}

// newMessage converts a gateway message into a command, if it is one.
func newMessage(m *discordgo.Message, prefix, botUserID string) (Message, bool) {
	if m == nil || m.Author == nil {
		return Message{}, false
	}
	parsed, ok := ParseCommand(m.Content, prefix, botUserID)
	if !ok {
		return Message{}, false
	}
	return Message{
		Parsed:     parsed,
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
	}, true
}

// guildName resolves a guild's name from the state cache, falling back to
// the REST API.
func guildName(s *discordgo.Session, guildID string) string {
	if guildID == "" {
		return ""
	}
	if s.State != nil {
		if guild, err := s.State.Guild(guildID); err == nil {
			return guild.Name
		}
	}
	guild, err := s.Guild(guildID)
	if err != nil {
		log.Printf("lookup guild %s: %v", guildID, err)
		return ""
	}
	return guild.Name
}
