package kagapi

import (
	"context"
	"fmt"
	"net/url"

	"notashark/internal/common"

	"github.com/rs/zerolog/log"
)

// Official KAG API
const DEFAULT_KAG_URL = "https://api.kag2d.com"

// KAG Stats API
const DEFAULT_KAGSTATS_URL = "https://kagstats.com"

// Routes inside the KAG API
const ROUTE_SERVERS = "/v1/game/thd/kag/servers?filters=%s"
const ROUTE_SERVER_STATUS = "/v1/game/thd/kag/server/%s/%d/status"
const ROUTE_SERVER_MINIMAP = "/v1/game/thd/kag/server/%s/%d/minimap"

// Only servers that are up right now and accept connections
const ACTIVE_SERVERS_FILTER = `[{"field":"current","op":"eq","value":"true"},{"field":"connectable","op":"eq","value":true}]`

// Routes inside the KAG Stats API
const ROUTE_PLAYER_BY_NAME = "/api/players/by-name/%s"
const ROUTE_PLAYER_BY_ID = "/api/players/%s"
const ROUTE_PLAYER_WEAPONS = "/api/players/%s/hitters"
const ROUTE_PLAYER_CAPTURES = "/api/players/%s/captures"
const ROUTE_LEADERBOARD_KDR = "/api/leaderboard/kdr"
const ROUTE_LEADERBOARD_KILLS = "/api/leaderboard/kills"
const ROUTE_LEADERBOARD_GLOBAL = "/api/leaderboard/%s"
const ROUTE_LEADERBOARD_MONTHLY = "/api/leaderboard/monthly/%s"

type KagApi struct {
	kagUrl     string
	statsUrl   string
	kagProxy   *common.Proxy
	statsProxy *common.Proxy
}

func NewKagApi(kagUrl string, kagRestrictions []common.Restriction, statsUrl string, statsRestrictions []common.Restriction) *KagApi {

	if kagUrl == "" {
		kagUrl = DEFAULT_KAG_URL
	}
	if statsUrl == "" {
		statsUrl = DEFAULT_KAGSTATS_URL
	}
	header := map[string]string{"Accept": "application/json"}
	return &KagApi{
		kagUrl:     kagUrl,
		statsUrl:   statsUrl,
		kagProxy:   common.NewProxy(header, kagRestrictions),
		statsProxy: common.NewProxy(header, statsRestrictions),
	}
}

// All the servers currently active.
// This is what keeps the server list alive, so the request is vital
func (kagapi *KagApi) GetServers(ctx context.Context) ([]RawServer, error) {

	data, err := kagapi.kagProxy.Request(ctx, kagapi.kagUrl+fmt.Sprintf(ROUTE_SERVERS, url.QueryEscape(ACTIVE_SERVERS_FILTER)), true)
	if err != nil {
		return nil, fmt.Errorf("could not fetch active servers: %w", err)
	}

	servers, err := UnmarshalServers(data)
	if err != nil {
		return nil, err
	}
	log.Debug().Msg(fmt.Sprintf("Received %d active servers", len(servers)))
	return servers, nil
}

func (kagapi *KagApi) GetServerStatus(ctx context.Context, ip string, port int) (RawServer, error) {

	data, err := kagapi.kagProxy.Request(ctx, kagapi.kagUrl+fmt.Sprintf(ROUTE_SERVER_STATUS, url.PathEscape(ip), port), false)
	if err != nil {
		return RawServer{}, fmt.Errorf("could not fetch status of server %s:%d: %w", ip, port, err)
	}
	return UnmarshalServerStatus(data)
}

// Minimap of the server as a png image
func (kagapi *KagApi) GetMinimap(ctx context.Context, ip string, port int) ([]byte, error) {

	data, err := kagapi.kagProxy.Request(ctx, kagapi.kagUrl+fmt.Sprintf(ROUTE_SERVER_MINIMAP, url.PathEscape(ip), port), false)
	if err != nil {
		return nil, fmt.Errorf("could not fetch minimap of server %s:%d: %w", ip, port, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty minimap for server %s:%d", ErrMalformed, ip, port)
	}
	return data, nil
}

func (kagapi *KagApi) GetPlayerByName(ctx context.Context, name string) (RawPlayerStats, error) {
	return kagapi.getPlayerStats(ctx, fmt.Sprintf(ROUTE_PLAYER_BY_NAME, url.PathEscape(name)))
}

func (kagapi *KagApi) GetPlayerById(ctx context.Context, id string) (RawPlayerStats, error) {
	return kagapi.getPlayerStats(ctx, fmt.Sprintf(ROUTE_PLAYER_BY_ID, url.PathEscape(id)))
}

func (kagapi *KagApi) GetWeapons(ctx context.Context, id string) ([]RawWeapon, error) {

	data, err := kagapi.statsProxy.Request(ctx, kagapi.statsUrl+fmt.Sprintf(ROUTE_PLAYER_WEAPONS, url.PathEscape(id)), false)
	if err != nil {
		return nil, fmt.Errorf("could not fetch weapons of player %s: %w", id, err)
	}
	return UnmarshalWeapons(data)
}

func (kagapi *KagApi) GetCaptures(ctx context.Context, id string) (int, error) {

	data, err := kagapi.statsProxy.Request(ctx, kagapi.statsUrl+fmt.Sprintf(ROUTE_PLAYER_CAPTURES, url.PathEscape(id)), false)
	if err != nil {
		return 0, fmt.Errorf("could not fetch captures of player %s: %w", id, err)
	}
	return UnmarshalCaptures(data)
}

// Leaderboard behind the provided route, as sorted by the upstream
func (kagapi *KagApi) GetLeaderboard(ctx context.Context, route string) ([]RawPlayerStats, error) {

	data, err := kagapi.statsProxy.Request(ctx, kagapi.statsUrl+route, false)
	if err != nil {
		return nil, fmt.Errorf("could not fetch leaderboard %s: %w", route, err)
	}
	return UnmarshalLeaderboard(data)
}

func (kagapi *KagApi) getPlayerStats(ctx context.Context, route string) (RawPlayerStats, error) {

	data, err := kagapi.statsProxy.Request(ctx, kagapi.statsUrl+route, false)
	if err != nil {
		return RawPlayerStats{}, fmt.Errorf("could not fetch player stats from %s: %w", route, err)
	}
	return UnmarshalPlayerStats(data)
}
