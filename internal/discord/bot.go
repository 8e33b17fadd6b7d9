package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/moodbot/internal/chance"
	"github.com/keshon/moodbot/internal/config"
	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/response"
)

// handlerTimeout bounds the work done for one Discord event.
const handlerTimeout = 30 * time.Second

// Engine is the response engine as the transport uses it.
type Engine interface {
	GenerateResponse(ctx context.Context, chatID, input string) string
	Observe(ctx context.Context, msg response.Message) (karma.Result, error)
	UpdateMood(ctx context.Context, chatID string, delta int) (karma.Result, error)
	Forget(ctx context.Context, chatID string) error
}

// Moods exposes the administrative side of the karma engine.
type Moods interface {
	Profile(ctx context.Context, chatID string) (int, karma.Band)
	Set(ctx context.Context, chatID string, value int) error
}

// Bot is a Discord bot. Every text channel is its own chat.
type Bot struct {
	dg     *discordgo.Session
	cfg    *config.Config
	engine Engine
	moods  Moods
	rnd    chance.Source
	hashes *hashCache
	log    zerolog.Logger
}

// NewBot wires the transport to the engine.
func NewBot(cfg *config.Config, engine Engine, moods Moods, rnd chance.Source, log zerolog.Logger) *Bot {
	if rnd == nil {
		rnd = chance.New()
	}
	return &Bot{
		cfg:    cfg,
		engine: engine,
		moods:  moods,
		rnd:    rnd,
		hashes: newHashCache(cfg.StoragePath),
		log:    log,
	}
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onMessageReactionAdd)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if err := b.registerCommands(g.ID); err != nil {
			b.log.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
		}
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	if err := b.registerCommands(g.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || s.State.User == nil {
		return
	}
	botID := s.State.User.ID
	if m.Author.ID == botID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	text := stripMentions(m.Content, botID)
	res, err := b.engine.Observe(ctx, response.Message{
		ChatID:   m.ChannelID,
		AuthorID: m.Author.ID,
		Author:   m.Author.Username,
		Text:     text,
		FromBot:  m.Author.Bot,
	})
	if err != nil {
		b.log.Warn().Err(err).Str("chat", m.ChannelID).Msg("mood update failed")
	} else if res.Changed {
		b.log.Info().Str("chat", m.ChannelID).Str("band", res.Band.Name).Msg("chat mood moved")
	}

	if m.Author.Bot || !b.shouldReply(mentions(m.Mentions, botID) || repliesTo(m.Message, botID)) {
		return
	}
	_ = s.ChannelTyping(m.ChannelID)

	reply := b.engine.GenerateResponse(ctx, m.ChannelID, text)
	if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); err != nil {
		b.log.Error().Err(err).Str("chat", m.ChannelID).Msg("failed to send reply")
	}
}

// shouldReply answers every direct address and a share of everything else.
func (b *Bot) shouldReply(addressed bool) bool {
	return addressed || chance.Percent(b.rnd, b.cfg.ReplyChance)
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if s.State.User == nil || r.UserID == s.State.User.ID {
		return
	}
	delta := reactionDelta(r.Emoji.Name)
	if delta == 0 {
		return
	}

	msg, err := s.State.Message(r.ChannelID, r.MessageID)
	if err != nil {
		if msg, err = s.ChannelMessage(r.ChannelID, r.MessageID); err != nil {
			b.log.Debug().Err(err).Str("chat", r.ChannelID).Msg("reacted message unavailable")
			return
		}
	}
	if msg.Author == nil || msg.Author.ID != s.State.User.ID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if _, err := b.engine.UpdateMood(ctx, r.ChannelID, delta); err != nil {
		b.log.Warn().Err(err).Str("chat", r.ChannelID).Msg("mood update from reaction failed")
	}
}

// Reaction mood deltas on the bot's own messages.
const (
	ReactionPraise = 10
	ReactionScorn  = -10
)

func reactionDelta(emoji string) int {
	switch strings.TrimSuffix(emoji, "\uFE0F") {
	case "👍", "❤":
		return ReactionPraise
	case "👎", "💩":
		return ReactionScorn
	}
	return 0
}

func mentions(users []*discordgo.User, id string) bool {
	for _, u := range users {
		if u != nil && u.ID == id {
			return true
		}
	}
	return false
}

func repliesTo(m *discordgo.Message, id string) bool {
	return m != nil && m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil &&
		m.ReferencedMessage.Author.ID == id
}

// stripMentions removes the bot's own mention tokens from text.
func stripMentions(text, botID string) string {
	for _, tag := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		text = strings.ReplaceAll(text, tag, "")
	}
	return strings.Join(strings.Fields(text), " ")
}
