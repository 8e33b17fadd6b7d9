package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/moodbot/internal/karma"
)

type slashHandler func(b *Bot, s *discordgo.Session, i *discordgo.InteractionCreate) error

type slashCommand struct {
	def       *discordgo.ApplicationCommand
	developer bool
	run       slashHandler
}

var (
	moodMin = float64(karma.Min)

	slashCommands = []slashCommand{
		{
			def: &discordgo.ApplicationCommand{
				Name:        "karma",
				Description: "Show the mood of this channel",
			},
			run: runKarma,
		},
		{
			def: &discordgo.ApplicationCommand{
				Name:        "karma-set",
				Description: "Set the mood of this channel",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "value",
					Description: fmt.Sprintf("New mood, %d..%d", karma.Min, karma.Max),
					Required:    true,
					MinValue:    &moodMin,
					MaxValue:    float64(karma.Max),
				}},
			},
			developer: true,
			run:       runKarmaSet,
		},
		{
			def: &discordgo.ApplicationCommand{
				Name:        "karma-reset",
				Description: "Forget everything learned in this channel",
			},
			developer: true,
			run:       runKarmaReset,
		},
		{
			def: &discordgo.ApplicationCommand{
				Name:        "say",
				Description: "Make the bot answer",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "What to answer to",
				}},
			},
			run: runSay,
		},
	}
)

func lookupCommand(name string) (slashCommand, bool) {
	for _, c := range slashCommands {
		if c.def.Name == name {
			return c, true
		}
	}
	return slashCommand{}, false
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	cmd, ok := lookupCommand(name)
	if !ok {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	log := b.log.With().Str("command", name).Str("chat", i.ChannelID).Logger()
	if cmd.developer && !b.isDeveloper(i) {
		log.Info().Msg("developer command refused")
		_ = respondEphemeral(s, i, "This command is reserved for the bot developer.")
		return
	}
	if err := cmd.run(b, s, i); err != nil {
		log.Error().Err(err).Msg("error running slash command")
		_ = respondEphemeral(s, i, fmt.Sprintf("Error: %v", err))
	}
}

func describeMood(value int, band karma.Band) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       band.Name,
		Description: fmt.Sprintf("Mood **%d** (%s)", value, band.Tone),
		Fields: []*discordgo.MessageEmbedField{{
			Name:  "Traits",
			Value: strings.Join(band.Traits, ", "),
		}},
	}
}

func runKarma(b *Bot, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	value, band := b.moods.Profile(ctx, i.ChannelID)
	return respondEmbed(s, i, describeMood(value, band))
}

func runKarmaSet(b *Bot, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return errors.New("value is required")
	}
	value := int(opts[0].IntValue())

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.moods.Set(ctx, i.ChannelID, value); err != nil {
		if errors.Is(err, karma.ErrOutOfRange) {
			return respondEphemeral(s, i, fmt.Sprintf("Mood must be within %d..%d.", karma.Min, karma.Max))
		}
		return err
	}
	value, band := b.moods.Profile(ctx, i.ChannelID)
	return respondEmbed(s, i, describeMood(value, band))
}

func runKarmaReset(b *Bot, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.engine.Forget(ctx, i.ChannelID); err != nil {
		return err
	}
	return respondEphemeral(s, i, "Mood and learned words of this channel are gone.")
}

func runSay(b *Bot, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var input string
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "text" {
			input = o.StringValue()
		}
	}

	// polishing may take longer than the interaction deadline
	if err := respondDeferred(s, i); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	return editResponse(s, i, b.engine.GenerateResponse(ctx, i.ChannelID, input))
}

// registerCommands syncs the guild's slash commands with slashCommands:
// obsolete ones are deleted, changed ones are created again.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	hashes := b.hashes.load(guildID)

	for _, rc := range remote {
		if _, ok := lookupCommand(rc.Name); ok {
			continue
		}
		b.log.Info().Str("guild", guildID).Str("command", rc.Name).Msg("deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", rc.Name).Msg("failed to delete command")
			continue
		}
		delete(hashes, rc.Name)
	}

	for _, c := range slashCommands {
		h := hashCommand(c.def)
		if hashes[c.def.Name] == h {
			continue
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, c.def); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", c.def.Name).Msg("failed to register command")
			continue
		}
		hashes[c.def.Name] = h
		b.log.Info().Str("guild", guildID).Str("command", c.def.Name).Msg("registered command")
		time.Sleep(25 * time.Millisecond) // stay well under Discord's rate limit
	}

	return b.hashes.save(guildID, hashes)
}

// appID returns the bot's application ID, fetching it when State lacks it.
func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}
