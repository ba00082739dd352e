package kagapi

import (
	"errors"
)

var ErrMalformed = errors.New("malformed upstream data")

// Server as the directory API sends it
type RawServer struct {
	IPv4Address      string   `json:"IPv4Address"`
	Port             int      `json:"port"`
	Name             string   `json:"name"`
	Password         bool     `json:"password"`
	GameMode         string   `json:"gameMode"`
	UsingMods        bool     `json:"usingMods"`
	Description      *string  `json:"description"`
	MaxPlayers       int      `json:"maxPlayers"`
	PlayerList       []string `json:"playerList"`
	SpectatorPlayers int      `json:"spectatorPlayers"`
}

// Server ready to be shown in a message. Every text coming from the
// server itself is already sanitized
type ServerRecord struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Port        int      `json:"port"`
	Link        string   `json:"link"`
	Private     bool     `json:"private"`
	GameMode    string   `json:"gameMode"`
	Modded      bool     `json:"modded"`
	Players     int      `json:"players"`
	MaxPlayers  int      `json:"maxPlayers"`
	Spectators  int      `json:"spectators"`
	Capacity    string   `json:"capacity"`
	Description string   `json:"description"`
	PlayerNames []string `json:"playerNames"`
	Nicknames   string   `json:"nicknames"`
	CountryCode string   `json:"countryCode"`
	CountryName string   `json:"countryName"`
	Minimap     []byte   `json:"-"`
}

type RawPlayer struct {
	Id            int64  `json:"id"`
	Username      string `json:"username"`
	CharacterName string `json:"charactername"`
	ClanTag       string `json:"clantag"`
	Avatar        string `json:"avatar"`
}

// Basic stats of a player, also used for every leaderboard entry
type RawPlayerStats struct {
	Player        RawPlayer `json:"player"`
	Suicides      int       `json:"suicides"`
	TeamKills     int       `json:"teamKills"`
	ArcherKills   int       `json:"archerKills"`
	ArcherDeaths  int       `json:"archerDeaths"`
	BuilderKills  int       `json:"builderKills"`
	BuilderDeaths int       `json:"builderDeaths"`
	KnightKills   int       `json:"knightKills"`
	KnightDeaths  int       `json:"knightDeaths"`
	TotalKills    int       `json:"totalKills"`
	TotalDeaths   int       `json:"totalDeaths"`
}

type RawWeapon struct {
	Hitter int `json:"hitter"`
	Kills  int `json:"kills"`
}

type Class int

const (
	CLASS_TOTAL   Class = iota
	CLASS_ARCHER  Class = iota
	CLASS_BUILDER Class = iota
	CLASS_KNIGHT  Class = iota
)

// Kills and deaths of the player for the provided class
func (stats *RawPlayerStats) KillsDeaths(class Class) (int, int) {
	switch class {
	case CLASS_ARCHER:
		return stats.ArcherKills, stats.ArcherDeaths
	case CLASS_BUILDER:
		return stats.BuilderKills, stats.BuilderDeaths
	case CLASS_KNIGHT:
		return stats.KnightKills, stats.KnightDeaths
	default:
		return stats.TotalKills, stats.TotalDeaths
	}
}
