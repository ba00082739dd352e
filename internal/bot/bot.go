package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"notashark/internal/common"
	"notashark/internal/directory"
	"notashark/internal/geo"
	"notashark/internal/settings"
	"notashark/internal/stats"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const DEFAULT_NAME = "notashark"

// Channel mention, as in <#123>
var channelMention = regexp.MustCompile(`^<#([0-9]+)>$`)

type Bot struct {
	token                string
	prefix               string
	name                 string
	settings             *settings.Store
	directory            *directory.Cache
	stats                *stats.Service
	geo                  *geo.Resolver
	housekeepingExecutor common.TimedExecutor
	updateCycle          time.Duration
	// Context of the running session, used by lookups started from handlers
	ctx          context.Context
	startUpdates sync.Once
}

func NewBot(token string, prefix string, name string, housekeepingTimeout time.Duration, settings *settings.Store, directory *directory.Cache, stats *stats.Service, geo *geo.Resolver) *Bot {

	if prefix == "" {
		prefix = DEFAULT_PREFIX
	}
	if name == "" {
		name = DEFAULT_NAME
	}
	bot := &Bot{
		token:     token,
		prefix:    prefix,
		name:      name,
		settings:  settings,
		directory: directory,
		stats:     stats,
		geo:       geo,
		// The channels are updated as often as the server list changes
		updateCycle: directory.Interval(),
		ctx:         context.Background(),
	}
	bot.housekeepingExecutor = common.NewTimedExecutor(housekeepingTimeout, bot.housekeeping)
	return bot
}

// Connect to discord and serve until the context is done
func (bot *Bot) Run(ctx context.Context) error {

	if bot.token == "" {
		return errors.New("no discord token provided")
	}
	bot.ctx = ctx

	// Create session
	discord, err := discordgo.New("Bot " + bot.token)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	// Event handlers
	discord.AddHandler(bot.ready)
	discord.AddHandler(bot.guildCreate)
	discord.AddHandler(bot.Receive)

	// Open session
	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer discord.Close()

	log.Info().Msg("Bot running, waiting for shutdown")
	<-ctx.Done()
	log.Info().Msg("Shutting down the bot")
	return nil
}

func (bot *Bot) ready(discord *discordgo.Session, ready *discordgo.Ready) {
	log.Info().Msg(fmt.Sprintf("Running %s as %s", bot.name, ready.User.String()))

	// Ready is sent again on every reconnection
	bot.startUpdates.Do(func() {
		go common.Repeat(bot.ctx, bot.updateCycle, true, func(ctx context.Context) {
			bot.update(ctx, discord)
		})
	})
}

func (bot *Bot) guildCreate(discord *discordgo.Session, guild *discordgo.GuildCreate) {
	log.Info().Msg(fmt.Sprintf("Connected to guild %s", guild.ID))
	bot.settings.AddEntry(guild.ID)
}

func (bot *Bot) Receive(discord *discordgo.Session, message *discordgo.MessageCreate) {

	// Reject my own messages
	if message.Author == nil || message.Author.ID == discord.State.User.ID {
		return
	}

	// Parse the input provided and call the appropriate function
	parseResult := Parse(bot.prefix, message.Content)
	if parseResult.parseid == PARSEID_NO_BOT_PREFIX {
		return
	}

	// Ignore messages from private channels
	if message.GuildID == "" {
		log.Debug().Msg("Ignoring private message")
		bot.sendResponses(discord, message.ChannelID, PrivateMessagesIgnored())
		return
	}

	// Register the guild if it's the first time I see it
	bot.settings.AddEntry(message.GuildID)

	switch parseResult.parseid {
	case PARSEID_OK:
		log.Info().Msg(fmt.Sprintf("%s asked for %s on %s/%s", message.Author.ID, message.Content, message.GuildID, message.ChannelID))
		var responses []Response
		switch parseResult.command {
		case COMMAND_SERVER_LIST:
			responses = bot.serverList()
		case COMMAND_SERVER_INFO:
			switch address := parseResult.arguments.(type) {
			default:
				panic(fmt.Sprintf("unexpected type of server address %T", address))
			case ServerAddress:
				responses = bot.serverInfo(address)
			}
		case COMMAND_SET_AUTOUPDATE_CHANNEL:
			switch channel := parseResult.arguments.(type) {
			default:
				panic(fmt.Sprintf("unexpected type of channel %T", channel))
			case string:
				responses = bot.setAutoupdateChannel(discord, message, channel)
			}
		case COMMAND_KAGSTATS:
			switch player := parseResult.arguments.(type) {
			default:
				panic(fmt.Sprintf("unexpected type of player %T", player))
			case string:
				responses = bot.kagstats(player)
			}
		case COMMAND_LEADERBOARD:
			switch scope := parseResult.arguments.(type) {
			default:
				panic(fmt.Sprintf("unexpected type of scope %T", scope))
			case string:
				responses = bot.leaderboard(scope)
			}
		case COMMAND_HELP:
			responses = HelpMessage(bot.prefix, bot.name, bot.updateCycle)
		case COMMAND_ABOUT:
			responses = AboutMessage(bot.prefix, bot.name)
		default:
			panic(fmt.Sprintf("Command %d is not one of the possible ones", parseResult.command))
		}
		bot.sendResponses(discord, message.ChannelID, responses)
	default:

		// The command is invalid input, so it contains an error message
		errorMessage := parseResult.errorMessage
		log.Info().Msg(fmt.Sprintf("Wrong input: '%s'. Reason: %s", message.Content, errorMessage))
		bot.sendResponses(discord, message.ChannelID, InputNotValid(errorMessage))
	}
}

func (bot *Bot) sendResponses(discord *discordgo.Session, channelId string, responses []Response) {
	for _, response := range responses {
		response.Send(channelId, discord)
	}
}

func (bot *Bot) serverList() []Response {
	snapshot, ok := bot.directory.Latest()
	if !ok {
		return ServerListNotAvailable()
	}
	return ServerList(snapshot)
}

func (bot *Bot) serverInfo(address ServerAddress) []Response {
	server, err := bot.stats.GetServer(bot.ctx, address.Ip, address.Port)
	if err != nil {
		log.Info().Err(err).Msg(fmt.Sprintf("Could not get info of server %s:%d", address.Ip, address.Port))
		return ServerNotFound(address)
	}
	return ServerInfo(server)
}

func (bot *Bot) kagstats(player string) []Response {
	profile, err := bot.stats.GetPlayerProfile(bot.ctx, player)
	if err != nil {
		log.Info().Err(err).Msg(fmt.Sprintf("Could not get profile of player %s", player))
		return PlayerNotFound(player)
	}
	return PlayerProfile(profile)
}

func (bot *Bot) leaderboard(scope string) []Response {
	leaderboard, err := bot.stats.GetLeaderboard(bot.ctx, scope)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not get leaderboard %s", scope))
		if !errors.Is(err, stats.ErrInvalidScope) && !errors.Is(err, common.ErrRequestRejected) {
			common.Report(err)
		}
		return LeaderboardNotAvailable()
	}
	return Leaderboard(leaderboard)
}

func (bot *Bot) setAutoupdateChannel(discord *discordgo.Session, message *discordgo.MessageCreate, channel string) []Response {

	// Only administrators can change the settings of a guild
	permissions, err := discord.UserChannelPermissions(message.Author.ID, message.ChannelID)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not get permissions of %s", message.Author.ID))
		return SomethingWentWrong()
	}
	if permissions&discordgo.PermissionAdministrator == 0 {
		log.Info().Msg(fmt.Sprintf("%s tried to set the autoupdate channel of %s without permission", message.Author.ID, message.GuildID))
		return NotAnAdministrator()
	}

	// Try to find the id from the channel mention or name
	channelId, err := bot.getChannelId(discord, message.GuildID, channel)
	if err != nil {
		log.Info().Err(err).Msg(fmt.Sprintf("Could not find channel %s", channel))
		return ChannelDoesNotExist(channel)
	}

	bot.settings.SetAutoupdateChannel(message.GuildID, channelId)
	return ChannelChanged(channelId, bot.updateCycle)
}

func (bot *Bot) getChannelId(discord *discordgo.Session, guildid string, channel string) (string, error) {

	mentioned := ""
	if match := channelMention.FindStringSubmatch(channel); match != nil {
		mentioned = match[1]
	}

	channels, err := discord.GuildChannels(guildid)
	if err != nil {
		return "", fmt.Errorf("could not extract list of channels of guild id %s: %w", guildid, err)
	}
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if ch.ID == mentioned || ch.Name == channel {
			return ch.ID, nil
		}
	}
	return "", fmt.Errorf("no text channel %s found in guild %s", channel, guildid)
}

func (bot *Bot) housekeeping() {
	refreshed := "never"
	if snapshot, ok := bot.directory.Latest(); ok {
		refreshed = time.Since(snapshot.Updated).Round(time.Second).String() + " ago"
	}
	log.Info().Msg(fmt.Sprintf("Housekeeping: %d guilds, %d known server countries, server list refreshed %s", bot.settings.Len(), bot.geo.Len(), refreshed))
}
