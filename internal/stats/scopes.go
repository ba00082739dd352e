package stats

import (
	"errors"
	"fmt"
	"strings"

	"notashark/internal/kagapi"
)

var ErrInvalidScope = errors.New("invalid leaderboard scope")

const LEADERBOARD_URL = "https://kagstats.com/#/leaderboards"

// Leaderboards without a page of their own
const HIDDEN_URL = "Hidden"

type Scope struct {
	Name        string
	Description string
	Url         string
	Route       string
	Class       kagapi.Class
}

var scopes = map[string]Scope{
	"kdr":             {"kdr", "All Time KDR", HIDDEN_URL, kagapi.ROUTE_LEADERBOARD_KDR, kagapi.CLASS_TOTAL},
	"kills":           {"kills", "All Time Kills", HIDDEN_URL, kagapi.ROUTE_LEADERBOARD_KILLS, kagapi.CLASS_TOTAL},
	"global_archer":   {"global_archer", "All Time Archer", LEADERBOARD_URL + "/Archer", fmt.Sprintf(kagapi.ROUTE_LEADERBOARD_GLOBAL, "archer"), kagapi.CLASS_ARCHER},
	"monthly_archer":  {"monthly_archer", "Monthly Archer", LEADERBOARD_URL + "/MonthlyArcher", fmt.Sprintf(kagapi.ROUTE_LEADERBOARD_MONTHLY, "archer"), kagapi.CLASS_ARCHER},
	"global_builder":  {"global_builder", "All Time Builder", LEADERBOARD_URL + "/Builder", fmt.Sprintf(kagapi.ROUTE_LEADERBOARD_GLOBAL, "builder"), kagapi.CLASS_BUILDER},
	"monthly_builder": {"monthly_builder", "Monthly Builder", LEADERBOARD_URL + "/MonthlyBuilder", fmt.Sprintf(kagapi.ROUTE_LEADERBOARD_MONTHLY, "builder"), kagapi.CLASS_BUILDER},
	"global_knight":   {"global_knight", "All Time Knight", LEADERBOARD_URL + "/Knight", fmt.Sprintf(kagapi.ROUTE_LEADERBOARD_GLOBAL, "knight"), kagapi.CLASS_KNIGHT},
	"monthly_knight":  {"monthly_knight", "Monthly Knight", LEADERBOARD_URL + "/MonthlyKnight", fmt.Sprintf(kagapi.ROUTE_LEADERBOARD_MONTHLY, "knight"), kagapi.CLASS_KNIGHT},
}

// Find the scope named by the provided words.
// Accepts "kdr", "kills", "global archer" or "global_archer", and so on
func ParseScope(words ...string) (Scope, error) {
	name := strings.ToLower(strings.Join(strings.Fields(strings.Join(words, " ")), "_"))
	scope, ok := scopes[name]
	if !ok {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, strings.Join(words, " "))
	}
	return scope, nil
}

// Names of every scope, the way users type them
func ScopeNames() []string {
	return []string{"kdr", "kills", "global archer", "global builder", "global knight", "monthly archer", "monthly builder", "monthly knight"}
}
