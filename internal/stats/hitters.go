package stats

// Names of the kagstats hitters, indexed by hitter id
var hitterNames = []string{
	"Nothing",
	"Crush",
	"Fall",
	"Water",
	"Water Stun",
	"Water Stun Force",
	"Drown",
	"Fire",
	"Burn",
	"Flying",
	"Stomp",
	"Suicide",
	"Bite",
	"Pickaxe",
	"Sword",
	"Shield",
	"Bomb",
	"Stab",
	"Arrow",
	"Bomb Arrow",
	"Ballista",
	"Stone From Catapult",
	"Boulder From Catapult",
	"Boulder",
	"Vehicle",
	"Explosion",
	"Keg",
	"Mine",
	"Mine",
	"Spikes",
	"Saw",
	"Drill",
	"Muscles",
	"Scrolls",
}

const UNKNOWN_HITTER = "Unknown"

func HitterName(hitter int) string {
	if hitter < 0 || hitter >= len(hitterNames) {
		return UNKNOWN_HITTER
	}
	return hitterNames[hitter]
}
