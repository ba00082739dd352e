package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"notashark/internal/directory"
	"notashark/internal/kagapi"
	"notashark/internal/stats"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Same blue for every embed
const color int = 0x3498DB

// Discord limits for a single embed
const (
	MAX_FIELDS       = 25
	MAX_FIELD_NAME   = 256
	MAX_FIELD_VALUE  = 1024
	MAX_EMBED_LENGTH = 6000
)

// Posted first, edited into the server list right after
const PLACEHOLDER = "Gathering the data..."

// Shown for servers whose country is not known
const UNKNOWN_FLAG = ":flag_white:"
const UNKNOWN_COUNTRY = "Unknown"

const DEVELOPMENT_PAGE = "https://github.com/moonburnt/notashark"

func InputNotValid(errorMessage string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Input not valid: \n> %s", errorMessage)}}
}

func PrivateMessagesIgnored() []Response {
	return []Response{ResponseString{"For the time being, I am ignoring private messages"}}
}

func HelpMessage(prefix string, name string, autoupdate time.Duration) []Response {

	embed := discordgo.MessageEmbed{
		Title:       "Commands available",
		Description: fmt.Sprintf("Hello, I'm %s and I'm here to assist you with all King Arthur's Gold needs!", name),
		Color:       color,
	}
	add := func(command string, usage string) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("`%s%s`", prefix, command),
			Value:  usage,
			Inline: false,
		})
	}
	add("server list", "Display the active servers with their base info, and their total population")
	add("server info <ip:port>", "Display detailed info of a server, including description and in-game minimap")
	add("kagstats <player>", "Display gameplay statistics of the player with the provided kagstats id or username")
	add("leaderboard <type>", fmt.Sprintf("Display the top 3 players of a kagstats leaderboard. Types: %s", strings.Join(stats.ScopeNames(), ", ")))
	add("set autoupdate channel <#channel>", fmt.Sprintf("Keep the server list up to date in the provided channel, refreshed every %v. Administrators only", autoupdate))
	add("help", "Print the usage of the different commands")
	add("about", "General info about this bot")
	return []Response{ResponseEmbed{embed}}
}

func AboutMessage(prefix string, name string) []Response {

	embed := discordgo.MessageEmbed{Title: "About Bot", Color: color, Timestamp: timestamp(time.Now())}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Overview:",
		Value: fmt.Sprintf("**%s** - discord bot for King Arthur's Gold. "+
			"It works on multiple discord guilds at once, can be configured per guild via chat commands "+
			"and displays all major information related to the game.\n"+
			"This bot is completely free and opensource: if you want to run your own instance or contribute, "+
			"visit the development page below", name),
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "How to Use:",
		Value:  fmt.Sprintf("Just type **%shelp** in chat to get all available commands", prefix),
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Development Page:",
		Value:  fmt.Sprintf("<%s>", DEVELOPMENT_PAGE),
		Inline: false,
	})
	return []Response{ResponseEmbed{embed}}
}

func ServerListNotAvailable() []Response {
	return []Response{ResponseString{"The server list is not available yet, please try again in a few seconds"}}
}

func ServerList(snapshot directory.Snapshot) []Response {
	return []Response{ResponseEmbed{*ServerListEmbed(snapshot)}}
}

// Summary of every active server, as many as fit into a single embed.
// The rest are only counted
func ServerListEmbed(snapshot directory.Snapshot) *discordgo.MessageEmbed {

	embed := discordgo.MessageEmbed{Title: "KAG Server List", Color: color, Timestamp: timestamp(snapshot.Updated)}

	overview := fmt.Sprintf("**Current Amount of Players:** %d\n**Currently Active Servers:** %d\n", snapshot.Players, len(snapshot.Servers))
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Overview:", Value: overview, Inline: false})
	total := length(embed.Title) + length("Overview:") + length(overview)

	// Room is kept for the last field counting the servers left out
	const leftoverRoom = 64
	leftovers := 0
	for _, server := range snapshot.Servers {

		name := truncate(fmt.Sprintf("**%s %s**", flag(server.CountryCode), server.Name), MAX_FIELD_NAME)
		value := fmt.Sprintf("**Address:** %s\n**Game Mode:** %s\n**Players:** %s\n**Currently Playing:** %s",
			server.Link, server.GameMode, server.Capacity, server.Nicknames)

		fieldLength := length(name) + length(value)
		if len(embed.Fields) >= MAX_FIELDS-1 || length(value) > MAX_FIELD_VALUE || total+fieldLength+leftoverRoom > MAX_EMBED_LENGTH {
			leftovers++
			continue
		}
		total += fieldLength
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: false})
	}

	if leftovers > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("*And %d less populated servers*", leftovers),
			Value:  "\u200b",
			Inline: false,
		})
	}
	return &embed
}

func ServerInfo(server kagapi.ServerRecord) []Response {

	// A new name every time, otherwise discord may keep showing an old minimap
	filename := uuid.NewString() + "_minimap.png"

	description := truncate(server.Description, MAX_FIELD_NAME)
	if description == "" {
		description = "None"
	}
	embed := discordgo.MessageEmbed{
		Title:     "KAG Server Info",
		Color:     color,
		Timestamp: timestamp(time.Now()),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name:", Value: truncate(server.Name, MAX_FIELD_NAME), Inline: false},
			{Name: "Description:", Value: description, Inline: false},
			{Name: "Location:", Value: fmt.Sprintf("%s %s", flag(server.CountryCode), countryName(server.CountryName)), Inline: false},
			{Name: "Link:", Value: server.Link, Inline: false},
			{Name: "Game Mode:", Value: server.GameMode, Inline: false},
			{Name: "Players:", Value: server.Capacity, Inline: false},
			{Name: "Currently Playing:", Value: truncate(server.Nicknames, MAX_FIELD_VALUE), Inline: false},
		},
		Image: &discordgo.MessageEmbedImage{URL: "attachment://" + filename},
	}
	return []Response{ResponseEmbedFile{MessageEmbed: embed, filename: filename, data: server.Minimap}}
}

func ServerNotFound(address ServerAddress) []Response {
	return []Response{ResponseString{fmt.Sprintf("Could not find server `%s:%d`. Are you sure the address is correct?", address.Ip, address.Port)}}
}

func PlayerProfile(profile stats.PlayerProfile) []Response {

	weapons := ""
	for _, weapon := range profile.TopWeapons {
		weapons += fmt.Sprintf("**%s**: %d kills\n", weapon.Weapon, weapon.Kills)
	}
	if weapons == "" {
		weapons = "None"
	}
	classValue := func(class stats.ClassStats) string {
		return fmt.Sprintf("**KDR**: %s\n**Kills**: %d\n**Deaths**: %d", class.Kdr, class.Kills, class.Deaths)
	}

	embed := discordgo.MessageEmbed{
		Title:     "KAG Stats: Profile",
		Color:     color,
		Timestamp: timestamp(time.Now()),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Overview:",
				Value: fmt.Sprintf("**Name**: %s %s\n**Username**: %s\n**KAG Stats**: <https://kagstats.com/#/players/%s>",
					truncate(profile.ClanTag, MAX_FIELD_NAME), truncate(profile.Nickname, MAX_FIELD_NAME), truncate(profile.Account, MAX_FIELD_NAME), profile.Id),
				Inline: false,
			},
			{
				Name:   "Total Positive:",
				Value:  fmt.Sprintf("**KDR**: %s\n**Kills**: %d\n**Flags Captured**: %d", profile.Total.Kdr, profile.Total.Kills, profile.Captures),
				Inline: true,
			},
			{
				Name:   "Total Negative:",
				Value:  fmt.Sprintf("**Team Kills**: %d\n**Deaths**: %d\n**Suicides**: %d", profile.TeamKills, profile.Total.Deaths, profile.Suicides),
				Inline: true,
			},
			{Name: "Top Weapons:", Value: weapons, Inline: true},
			{Name: "Archer Stats:", Value: classValue(profile.Archer), Inline: true},
			{Name: "Builder Stats:", Value: classValue(profile.Builder), Inline: true},
			{Name: "Knight Stats:", Value: classValue(profile.Knight), Inline: true},
		},
	}
	if profile.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: profile.Avatar}
	}
	return []Response{ResponseEmbed{embed}}
}

func PlayerNotFound(player string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Could not find player `%s`. Are you sure this player exists and the name or kagstats id is spelled correctly?", player)}}
}

func Leaderboard(leaderboard stats.Leaderboard) []Response {

	url := leaderboard.Url
	if url != stats.HIDDEN_URL {
		url = "<" + url + ">"
	}
	embed := discordgo.MessageEmbed{
		Title:     "KAG Stats: Leaderboard",
		Color:     color,
		Timestamp: timestamp(time.Now()),
		Fields: []*discordgo.MessageEmbedField{{
			Name:   "Overview:",
			Value:  fmt.Sprintf("**Leaderboard:** %s\n**KAG Stats URL:** %s", leaderboard.Description, url),
			Inline: false,
		}},
	}
	positions := []string{"First", "Second", "Third"}
	for i, entry := range leaderboard.Entries {
		if i >= len(positions) {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: positions[i] + ":",
			Value: fmt.Sprintf("**Name:** %s %s\n**Username**: %s\n**KDR**: %s\n**Kills**: %d\n**Deaths**: %d",
				truncate(entry.ClanTag, MAX_FIELD_NAME), truncate(entry.Nickname, MAX_FIELD_NAME), truncate(entry.Account, MAX_FIELD_NAME),
				entry.Kdr, entry.Kills, entry.Deaths),
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

func LeaderboardNotAvailable() []Response {
	return []Response{ResponseString{"Unable to fetch the leaderboard right now, please try again later"}}
}

func NotAnAdministrator() []Response {
	return []Response{ResponseString{"Only administrators of this server can do that"}}
}

func ChannelDoesNotExist(channelName string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Channel `%s` does not exist in this server", channelName)}}
}

func ChannelChanged(channelId string, autoupdate time.Duration) []Response {
	return []Response{ResponseString{fmt.Sprintf("From now on, the server list will be kept up to date in <#%s>, every %v", channelId, autoupdate)}}
}

func SomethingWentWrong() []Response {
	return []Response{ResponseString{"Something went wrong..."}}
}

// Text of the bot status
func Presence(prefix string, players int) string {
	if players > 0 {
		return fmt.Sprintf("with %d peasants | %shelp", players, prefix)
	}
	return fmt.Sprintf("alone | %shelp", prefix)
}

func flag(code string) string {
	if code == "" {
		return UNKNOWN_FLAG
	}
	return fmt.Sprintf(":flag_%s:", code)
}

func countryName(name string) string {
	if name == "" {
		return UNKNOWN_COUNTRY
	}
	return name
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func length(text string) int {
	return utf8.RuneCountInString(text)
}

func truncate(text string, size int) string {
	if length(text) <= size {
		return text
	}
	runes := []rune(text)
	return string(runes[:size])
}
