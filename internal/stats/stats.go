// Package stats answers on-demand questions about servers and players.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"notashark/internal/kagapi"
	"notashark/internal/sanitize"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Amount of weapons and leaderboard entries shown
const TOP = 3

type Upstream interface {
	GetServerStatus(ctx context.Context, ip string, port int) (kagapi.RawServer, error)
	GetMinimap(ctx context.Context, ip string, port int) ([]byte, error)
	GetPlayerByName(ctx context.Context, name string) (kagapi.RawPlayerStats, error)
	GetPlayerById(ctx context.Context, id string) (kagapi.RawPlayerStats, error)
	GetWeapons(ctx context.Context, id string) ([]kagapi.RawWeapon, error)
	GetCaptures(ctx context.Context, id string) (int, error)
	GetLeaderboard(ctx context.Context, route string) ([]kagapi.RawPlayerStats, error)
}

type ClassStats struct {
	Kills  int
	Deaths int
	Kdr    string
}

type WeaponKills struct {
	Weapon string
	Kills  int
}

type PlayerProfile struct {
	Id         string
	Account    string
	Nickname   string
	ClanTag    string
	Avatar     string
	Suicides   int
	TeamKills  int
	Archer     ClassStats
	Builder    ClassStats
	Knight     ClassStats
	Total      ClassStats
	Captures   int
	TopWeapons []WeaponKills
}

type LeaderboardEntry struct {
	Account  string
	Nickname string
	ClanTag  string
	ClassStats
}

type Leaderboard struct {
	Description string
	Url         string
	Entries     []LeaderboardEntry
}

type Service struct {
	upstream Upstream
	resolver kagapi.CountryResolver
}

func NewService(upstream Upstream, resolver kagapi.CountryResolver) *Service {
	return &Service{upstream: upstream, resolver: resolver}
}

// Detailed info of a single server, minimap included
func (service *Service) GetServer(ctx context.Context, ip string, port int) (kagapi.ServerRecord, error) {

	if err := ValidateAddress(ip, port); err != nil {
		return kagapi.ServerRecord{}, err
	}

	raw, err := service.upstream.GetServerStatus(ctx, ip, port)
	if err != nil {
		return kagapi.ServerRecord{}, err
	}
	record, err := kagapi.Clean(ctx, raw, service.resolver)
	if err != nil {
		return kagapi.ServerRecord{}, err
	}

	// The minimap is not part of the status
	if record.Minimap, err = service.upstream.GetMinimap(ctx, ip, port); err != nil {
		return kagapi.ServerRecord{}, err
	}

	log.Debug().Msg(fmt.Sprintf("Found server %s:%d with %d players", ip, port, record.Players))
	return record, nil
}

// Profile of the player with the provided name or kagstats id
func (service *Service) GetPlayerProfile(ctx context.Context, identifier string) (PlayerProfile, error) {

	if identifier == "" {
		return PlayerProfile{}, fmt.Errorf("no player provided")
	}

	raw, err := service.upstream.GetPlayerByName(ctx, identifier)
	if err != nil {
		log.Debug().Msg(fmt.Sprintf("Player %s not found by name, trying by id: %v", identifier, err))
		if raw, err = service.upstream.GetPlayerById(ctx, identifier); err != nil {
			return PlayerProfile{}, err
		}
	}
	id := strconv.FormatInt(raw.Player.Id, 10)

	weapons, err := service.upstream.GetWeapons(ctx, id)
	if err != nil {
		return PlayerProfile{}, err
	}
	captures, err := service.upstream.GetCaptures(ctx, id)
	if err != nil {
		return PlayerProfile{}, err
	}

	return PlayerProfile{
		Id:         id,
		Account:    sanitize.Sanitize(raw.Player.Username),
		Nickname:   sanitize.Sanitize(raw.Player.CharacterName),
		ClanTag:    sanitize.Sanitize(raw.Player.ClanTag),
		Avatar:     raw.Player.Avatar,
		Suicides:   raw.Suicides,
		TeamKills:  raw.TeamKills,
		Archer:     classStats(&raw, kagapi.CLASS_ARCHER),
		Builder:    classStats(&raw, kagapi.CLASS_BUILDER),
		Knight:     classStats(&raw, kagapi.CLASS_KNIGHT),
		Total:      classStats(&raw, kagapi.CLASS_TOTAL),
		Captures:   captures,
		TopWeapons: topWeapons(weapons),
	}, nil
}

// Top players of the leaderboard named by the provided words
func (service *Service) GetLeaderboard(ctx context.Context, words ...string) (Leaderboard, error) {

	scope, err := ParseScope(words...)
	if err != nil {
		return Leaderboard{}, err
	}

	raw, err := service.upstream.GetLeaderboard(ctx, scope.Route)
	if err != nil {
		return Leaderboard{}, err
	}

	// Already sorted by the upstream
	entries := lo.Map(lo.Subset(raw, 0, TOP), func(stats kagapi.RawPlayerStats, _ int) LeaderboardEntry {
		return LeaderboardEntry{
			Account:    sanitize.Sanitize(stats.Player.Username),
			Nickname:   sanitize.Sanitize(stats.Player.CharacterName),
			ClanTag:    sanitize.Sanitize(stats.Player.ClanTag),
			ClassStats: classStats(&stats, scope.Class),
		}
	})
	return Leaderboard{Description: scope.Description, Url: scope.Url, Entries: entries}, nil
}

func classStats(stats *kagapi.RawPlayerStats, class kagapi.Class) ClassStats {
	kills, deaths := stats.KillsDeaths(class)
	return ClassStats{Kills: kills, Deaths: deaths, Kdr: Kdr(kills, deaths)}
}

// Kills per death with two decimals. Without deaths, the kills themselves
func Kdr(kills int, deaths int) string {
	ratio := float64(kills)
	if deaths > 0 {
		ratio /= float64(deaths)
	}
	return strconv.FormatFloat(ratio, 'f', 2, 64)
}

func topWeapons(weapons []kagapi.RawWeapon) []WeaponKills {
	sorted := make([]kagapi.RawWeapon, len(weapons))
	copy(sorted, weapons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Kills > sorted[j].Kills
	})
	return lo.Map(lo.Subset(sorted, 0, TOP), func(weapon kagapi.RawWeapon, _ int) WeaponKills {
		return WeaponKills{Weapon: HitterName(weapon.Hitter), Kills: weapon.Kills}
	})
}
