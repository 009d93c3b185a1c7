// Package discord connects the command surface to the Discord gateway.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/hermes-bot/hermes/internal/handler"
	"github.com/hermes-bot/hermes/internal/util"
)

// Discord rejects message bodies longer than this.
const maxMessageLength = 2000

const intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type CommandHandler interface {
	Handle(ctx context.Context, ev handler.CommandEvent) string
}

type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	session    *discordgo.Session
	commands   CommandHandler
	allowGuild bool
}

func NewBot(token string, commands CommandHandler, allowGuild bool) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = intents

	b := &Bot{
		session:    session,
		commands:   commands,
		allowGuild: allowGuild,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.onMessage(s, m)
	})
	return b, nil
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	mode := "DMs only"
	if b.allowGuild {
		mode = "DMs and guild channels"
	}
	log.Info().
		Str("user", r.User.String()).
		Int("guilds", len(r.Guilds)).
		Str("commands", mode).
		Msg("discord bot ready")
}

func (b *Bot) onMessage(s messageSender, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	// Overseerr calls are bounded per request by the client timeout only.
	reply := b.commands.Handle(context.Background(), handler.CommandEvent{
		ChatUserID:      m.Author.ID,
		IsDirectMessage: m.GuildID == "",
		Content:         m.Content,
	})
	if reply == "" {
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, util.Truncate(reply, maxMessageLength-3)); err != nil {
		log.Error().Err(err).
			Str("channelId", m.ChannelID).
			Str("chatUserId", m.Author.ID).
			Msg("failed to send reply")
	}
}
