package kagapi

import (
	"context"
	"fmt"
	"strings"

	"notashark/internal/geo"
	"notashark/internal/sanitize"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const NO_DESCRIPTION = "This server has no description"
const NO_PLAYERS = "This server is currently empty"

type CountryResolver interface {
	Resolve(ctx context.Context, ip string) (geo.Country, error)
}

// Turn a server as received from upstream into something that can be shown
// in a message. Fails if the country of the server cannot be resolved
func Clean(ctx context.Context, raw RawServer, resolver CountryResolver) (ServerRecord, error) {

	country, err := resolver.Resolve(ctx, raw.IPv4Address)
	if err != nil {
		return ServerRecord{}, fmt.Errorf("could not resolve country of server %s:%d: %w", raw.IPv4Address, raw.Port, err)
	}

	gameMode := raw.GameMode
	if raw.UsingMods {
		gameMode += " (modded)"
	}

	players := len(raw.PlayerList)
	capacity := fmt.Sprintf("%d/%d", players, raw.MaxPlayers)
	if raw.SpectatorPlayers > 0 {
		capacity += fmt.Sprintf(" (%d spectating)", raw.SpectatorPlayers)
	}

	link := fmt.Sprintf("<kag://%s:%d>", raw.IPv4Address, raw.Port)
	if raw.Password {
		link += " (private)"
	}

	description := NO_DESCRIPTION
	if raw.Description != nil {
		if paragraph, _, _ := strings.Cut(*raw.Description, "\n\n"); strings.TrimSpace(paragraph) != "" {
			description = paragraph
		}
	}

	names := lo.Map(raw.PlayerList, func(name string, _ int) string {
		return sanitize.Sanitize(name)
	})
	nicknames := strings.Join(names, ", ")
	if nicknames == "" {
		nicknames = NO_PLAYERS
	}

	record := ServerRecord{
		Name:        sanitize.Sanitize(raw.Name),
		Address:     raw.IPv4Address,
		Port:        raw.Port,
		Link:        link,
		Private:     raw.Password,
		GameMode:    sanitize.Sanitize(gameMode),
		Modded:      raw.UsingMods,
		Players:     players,
		MaxPlayers:  raw.MaxPlayers,
		Spectators:  raw.SpectatorPlayers,
		Capacity:    capacity,
		Description: sanitize.Sanitize(description),
		PlayerNames: names,
		Nicknames:   nicknames,
		CountryCode: strings.ToLower(country.Code),
		CountryName: country.Name,
	}
	log.Debug().Msg(fmt.Sprintf("Cleaned up server %s:%d (%s)", record.Address, record.Port, record.CountryCode))
	return record, nil
}
