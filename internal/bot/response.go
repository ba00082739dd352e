package bot

import (
	"bytes"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type ResponseString struct {
	string
}
type ResponseEmbed struct {
	discordgo.MessageEmbed
}

// Embed showing an image sent along with it
type ResponseEmbedFile struct {
	discordgo.MessageEmbed
	filename string
	data     []byte
}

type Response interface {
	Send(channelid string, discord *discordgo.Session)
}

func (response ResponseString) Send(channelid string, discord *discordgo.Session) {
	if _, err := discord.ChannelMessageSend(channelid, response.string); err != nil {
		log.Error().Err(err).Msg("Could not send message to channel " + channelid)
	}
}

func (response ResponseEmbed) Send(channelid string, discord *discordgo.Session) {
	if _, err := discord.ChannelMessageSendEmbed(channelid, &response.MessageEmbed); err != nil {
		log.Error().Err(err).Msg("Could not send embed to channel " + channelid)
	}
}

func (response ResponseEmbedFile) Send(channelid string, discord *discordgo.Session) {
	message := discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{&response.MessageEmbed},
		Files: []*discordgo.File{{
			Name:        response.filename,
			ContentType: "image/png",
			Reader:      bytes.NewReader(response.data),
		}},
	}
	if _, err := discord.ChannelMessageSendComplex(channelid, &message); err != nil {
		log.Error().Err(err).Msg("Could not send embed with file to channel " + channelid)
	}
}
