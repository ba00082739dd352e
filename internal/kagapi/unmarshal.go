package kagapi

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server as sent by the directory API. Every field is a pointer so
// that a missing one can be told apart from a zero value
type rawServer struct {
	IPv4Address      *string   `json:"IPv4Address"`
	Port             *int      `json:"port"`
	Name             *string   `json:"name"`
	Password         *bool     `json:"password"`
	GameMode         *string   `json:"gameMode"`
	UsingMods        *bool     `json:"usingMods"`
	Description      *string   `json:"description"`
	MaxPlayers       *int      `json:"maxPlayers"`
	PlayerList       *[]string `json:"playerList"`
	SpectatorPlayers *int      `json:"spectatorPlayers"`
}

// Player stats as sent by kagstats, same idea as rawServer
type rawPlayerStats struct {
	Player        *RawPlayer `json:"player"`
	Suicides      *int       `json:"suicides"`
	TeamKills     *int       `json:"teamKills"`
	ArcherKills   *int       `json:"archerKills"`
	ArcherDeaths  *int       `json:"archerDeaths"`
	BuilderKills  *int       `json:"builderKills"`
	BuilderDeaths *int       `json:"builderDeaths"`
	KnightKills   *int       `json:"knightKills"`
	KnightDeaths  *int       `json:"knightDeaths"`
	TotalKills    *int       `json:"totalKills"`
	TotalDeaths   *int       `json:"totalDeaths"`
}

type field struct {
	name    string
	present bool
}

func UnmarshalServers(data []byte) ([]RawServer, error) {

	var raw struct {
		ServerList *[]rawServer `json:"serverList"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.ServerList == nil {
		return nil, fmt.Errorf("%w: no server list found among received data", ErrMalformed)
	}

	servers := make([]RawServer, 0, len(*raw.ServerList))
	for i := range *raw.ServerList {
		server, err := toServer(&(*raw.ServerList)[i])
		if err != nil {
			return nil, fmt.Errorf("server %d: %w", i, err)
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func UnmarshalServerStatus(data []byte) (RawServer, error) {

	var raw struct {
		ServerStatus *rawServer `json:"serverStatus"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawServer{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.ServerStatus == nil {
		return RawServer{}, fmt.Errorf("%w: no server status found among received data", ErrMalformed)
	}
	return toServer(raw.ServerStatus)
}

func UnmarshalPlayerStats(data []byte) (RawPlayerStats, error) {

	var raw rawPlayerStats
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawPlayerStats{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return toPlayerStats(&raw)
}

func UnmarshalWeapons(data []byte) ([]RawWeapon, error) {

	var weapons []RawWeapon
	if err := json.Unmarshal(data, &weapons); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return weapons, nil
}

func UnmarshalCaptures(data []byte) (int, error) {

	var raw struct {
		Captures *int `json:"captures"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Captures == nil {
		return 0, fmt.Errorf("%w: no captures found among received data", ErrMalformed)
	}
	return *raw.Captures, nil
}

func UnmarshalLeaderboard(data []byte) ([]RawPlayerStats, error) {

	var raw []rawPlayerStats
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	entries := make([]RawPlayerStats, 0, len(raw))
	for i := range raw {
		entry, err := toPlayerStats(&raw[i])
		if err != nil {
			return nil, fmt.Errorf("leaderboard entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Names of the fields that were not received
func missing(fields ...field) error {
	names := lo.FilterMap(fields, func(f field, _ int) (string, bool) {
		return f.name, !f.present
	})
	if len(names) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformed, strings.Join(names, ", "))
	}
	return nil
}

func toServer(raw *rawServer) (RawServer, error) {

	err := missing(
		field{"IPv4Address", raw.IPv4Address != nil},
		field{"port", raw.Port != nil},
		field{"name", raw.Name != nil},
		field{"password", raw.Password != nil},
		field{"gameMode", raw.GameMode != nil},
		field{"usingMods", raw.UsingMods != nil},
		field{"maxPlayers", raw.MaxPlayers != nil},
		field{"playerList", raw.PlayerList != nil},
		field{"spectatorPlayers", raw.SpectatorPlayers != nil},
	)
	if err != nil {
		return RawServer{}, err
	}

	server := RawServer{
		IPv4Address:      *raw.IPv4Address,
		Port:             *raw.Port,
		Name:             *raw.Name,
		Password:         *raw.Password,
		GameMode:         *raw.GameMode,
		UsingMods:        *raw.UsingMods,
		Description:      raw.Description,
		MaxPlayers:       *raw.MaxPlayers,
		PlayerList:       *raw.PlayerList,
		SpectatorPlayers: *raw.SpectatorPlayers,
	}
	if server.IPv4Address == "" {
		return RawServer{}, fmt.Errorf("%w: server without address", ErrMalformed)
	}
	if server.Port <= 0 || server.Port > 65535 {
		return RawServer{}, fmt.Errorf("%w: server %s has invalid port %d", ErrMalformed, server.IPv4Address, server.Port)
	}
	if server.MaxPlayers < 0 || server.SpectatorPlayers < 0 {
		return RawServer{}, fmt.Errorf("%w: server %s has negative player counts", ErrMalformed, server.IPv4Address)
	}
	return server, nil
}

func toPlayerStats(raw *rawPlayerStats) (RawPlayerStats, error) {

	err := missing(
		field{"player", raw.Player != nil},
		field{"suicides", raw.Suicides != nil},
		field{"teamKills", raw.TeamKills != nil},
		field{"archerKills", raw.ArcherKills != nil},
		field{"archerDeaths", raw.ArcherDeaths != nil},
		field{"builderKills", raw.BuilderKills != nil},
		field{"builderDeaths", raw.BuilderDeaths != nil},
		field{"knightKills", raw.KnightKills != nil},
		field{"knightDeaths", raw.KnightDeaths != nil},
		field{"totalKills", raw.TotalKills != nil},
		field{"totalDeaths", raw.TotalDeaths != nil},
	)
	if err != nil {
		return RawPlayerStats{}, err
	}
	if raw.Player.Id == 0 {
		return RawPlayerStats{}, fmt.Errorf("%w: no player id found among received data", ErrMalformed)
	}

	return RawPlayerStats{
		Player:        *raw.Player,
		Suicides:      *raw.Suicides,
		TeamKills:     *raw.TeamKills,
		ArcherKills:   *raw.ArcherKills,
		ArcherDeaths:  *raw.ArcherDeaths,
		BuilderKills:  *raw.BuilderKills,
		BuilderDeaths: *raw.BuilderDeaths,
		KnightKills:   *raw.KnightKills,
		KnightDeaths:  *raw.KnightDeaths,
		TotalKills:    *raw.TotalKills,
		TotalDeaths:   *raw.TotalDeaths,
	}, nil
}
