package bot

import (
	"context"
	"errors"
	"fmt"

	"notashark/internal/common"
	"notashark/internal/settings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Discord operations the update cycle needs
type updateSession interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UpdateGameStatus(idle int, name string) error
}

// Push the latest server list into every channel configured for it,
// and show the amount of players in the bot status
func (bot *Bot) update(ctx context.Context, discord updateSession) {

	bot.housekeepingExecutor.Execute()

	snapshot, ok := bot.directory.Latest()
	if !ok {
		log.Debug().Msg("No server list yet, skipping update")
		return
	}

	embed := ServerListEmbed(snapshot)
	for _, entry := range bot.settings.Entries() {
		if ctx.Err() != nil {
			return
		}
		if entry.ServerlistChannelId == "" {
			continue
		}
		if err := bot.updateServerList(discord, entry, embed); err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("Could not update the server list of guild %s", entry.GuildId))
		}
	}

	if err := discord.UpdateGameStatus(0, Presence(bot.prefix, snapshot.Players)); err != nil {
		log.Warn().Err(err).Msg("Could not update the bot status")
	}
}

func (bot *Bot) updateServerList(discord updateSession, entry settings.Entry, embed *discordgo.MessageEmbed) error {

	channelId := string(entry.ServerlistChannelId)
	messageId := string(entry.ServerlistMessageId)

	// Find the message to edit, or post a new one
	if messageId != "" {
		if _, err := discord.ChannelMessage(channelId, messageId); err != nil {
			if !isNotFound(err) {
				return fmt.Errorf("could not fetch message %s in channel %s: %w", messageId, channelId, err)
			}
			log.Debug().Msg(fmt.Sprintf("Message %s does not exist anymore in channel %s", messageId, channelId))
			messageId = ""
		}
	}
	if messageId == "" {
		message, err := discord.ChannelMessageSend(channelId, PLACEHOLDER)
		if err != nil {
			return fmt.Errorf("could not post placeholder in channel %s: %w", channelId, err)
		}
		messageId = message.ID
		// The channel may have changed in the meantime
		if !bot.settings.SetMessageId(entry.GuildId, channelId, messageId) {
			log.Info().Msg(fmt.Sprintf("Channel of guild %s changed while posting, dropping message %s", entry.GuildId, messageId))
			return nil
		}
		log.Debug().Msg(fmt.Sprintf("Posted placeholder %s in %s/%s", messageId, entry.GuildId, channelId))
	}

	edit := discordgo.NewMessageEdit(channelId, messageId).SetContent("").SetEmbed(embed)
	if _, err := discord.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("could not edit message %s in channel %s: %w", messageId, channelId, err)
	}
	log.Debug().Msg(fmt.Sprintf("Updated server list on %s/%s", channelId, messageId))
	return nil
}

// Report if discord says the message or channel does not exist
func isNotFound(err error) bool {
	var restError *discordgo.RESTError
	if !errors.As(err, &restError) {
		return false
	}
	if restError.Response != nil && restError.Response.StatusCode == common.DATA_NOT_FOUND {
		return true
	}
	return restError.Message != nil && restError.Message.Code == discordgo.ErrCodeUnknownMessage
}
