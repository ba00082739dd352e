package bot

import (
	"fmt"
	"strings"

	"notashark/internal/stats"

	"github.com/rs/zerolog/log"
)

const DEFAULT_PREFIX string = "!"

const (
	COMMAND_SERVER_LIST            = iota
	COMMAND_SERVER_INFO            = iota
	COMMAND_SET_AUTOUPDATE_CHANNEL = iota
	COMMAND_KAGSTATS               = iota
	COMMAND_LEADERBOARD            = iota
	COMMAND_HELP                   = iota
	COMMAND_ABOUT                  = iota
)

const (
	PARSEID_OK                     = iota
	PARSEID_NO_BOT_PREFIX          = iota
	PARSEID_NO_COMMAND             = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_NO_INPUT               = iota
	PARSEID_NOT_AN_ADDRESS         = iota
	PARSEID_INVALID_SCOPE          = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_NO_COMMAND:             "No command provided",
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_NO_INPUT:               "Command `%s` requires an argument",
	PARSEID_NOT_AN_ADDRESS:         "Input `%s` is not a server address, it should look like `8.8.8.8:80`",
	PARSEID_INVALID_SCOPE:          "Leaderboard `%s` does not exist. Available ones: %s",
}

type ServerAddress struct {
	Ip   string
	Port int
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

func Parse(prefix string, message string) ParseResult {

	noInput := func(command int, commandString string) ParseResult {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
	notRecognised := func(commandString string) ParseResult {
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}

	// The message has to start with the bot prefix
	if !strings.HasPrefix(message, prefix) {
		return ParseResult{parseid: PARSEID_NO_BOT_PREFIX}
	}

	// Get the command if valid
	words := strings.Fields(message[len(prefix):])
	if len(words) == 0 {
		parseid := PARSEID_NO_COMMAND
		return ParseResult{parseid: parseid, errorMessage: errorMessages[parseid]}
	}
	commandString := words[0]
	words = words[1:]
	log.Debug().Msg(fmt.Sprintf("Parsing command %s with %d arguments", commandString, len(words)))

	// Match the command

	switch commandString {
	case "server":
		// !server list
		// !server info <ip:port>
		if len(words) == 0 {
			return noInput(COMMAND_SERVER_LIST, commandString)
		}
		switch words[0] {
		case "list":
			return ParseResult{command: COMMAND_SERVER_LIST, parseid: PARSEID_OK}
		case "info":
			command := COMMAND_SERVER_INFO
			if len(words) == 1 {
				return noInput(command, "server info")
			}
			return parseAddress(command, words[1])
		default:
			return notRecognised(commandString + " " + words[0])
		}
	case "set":
		// !set autoupdate channel <channel>
		if len(words) < 2 || words[0] != "autoupdate" || words[1] != "channel" {
			return notRecognised(strings.Join(append([]string{commandString}, words...), " "))
		}
		command := COMMAND_SET_AUTOUPDATE_CHANNEL
		if len(words) == 2 {
			return noInput(command, "set autoupdate channel")
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: strings.Join(words[2:], " ")}
	case "kagstats":
		// !kagstats <player>
		command := COMMAND_KAGSTATS
		if len(words) == 0 {
			return noInput(command, commandString)
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: words[0]}
	case "leaderboard":
		// !leaderboard <scope>
		command := COMMAND_LEADERBOARD
		if len(words) == 0 {
			return noInput(command, commandString)
		}
		scope, err := stats.ParseScope(words...)
		if err != nil {
			parseid := PARSEID_INVALID_SCOPE
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], strings.Join(words, " "), strings.Join(stats.ScopeNames(), ", "))}
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: scope.Name}
	case "help":
		// !help
		return ParseResult{command: COMMAND_HELP, parseid: PARSEID_OK}
	case "about":
		// !about
		return ParseResult{command: COMMAND_ABOUT, parseid: PARSEID_OK}
	default:
		return notRecognised(commandString)
	}

}

func parseAddress(command int, word string) ParseResult {

	ip, port, err := stats.ParseAddress(word)
	if err != nil {
		parseid := PARSEID_NOT_AN_ADDRESS
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], word)}
	}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: ServerAddress{Ip: ip, Port: port}}
}
