package discord

import (
	"github.com/bwmarrin/discordgo"
)

// interactionUser returns the invoking user of a guild or DM interaction.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// isDeveloper reports whether the interaction was sent by the configured
// developer. An empty DEVELOPER_ID matches nobody.
func (b *Bot) isDeveloper(i *discordgo.InteractionCreate) bool {
	u := interactionUser(i)
	return u != nil && b.cfg.DeveloperID != "" && u.ID == b.cfg.DeveloperID
}
