package config

import (
	"os"

	"github.com/restartfu/gophig"
)

const DEFAULT_PATH = "./config.toml"

// Config holds every setting of the bot. Command line flags take precedence
type Config struct {
	Bot struct {
		Token  string
		Prefix string
		Name   string
	}
	Log struct {
		Level    string // "debug", "info", "warn" or "error"
		File     string
		ShowLogs bool
	}
	Serverlist struct {
		UpdateSeconds     int
		KagUrl            string
		RequestsPerMinute int
	}
	Geo struct {
		Url               string
		RequestsPerMinute int
	}
	Stats struct {
		Url               string
		RequestsPerMinute int
	}
	Settings struct {
		File            string
		AutosaveSeconds int
	}
	Service struct {
		HttpAddress         string // empty disables the http api
		SentryDsn           string
		HousekeepingMinutes int
	}
}

// DefaultConfig returns a config with prefilled default values.
func DefaultConfig() Config {
	c := Config{}

	c.Bot.Prefix = "!"
	c.Bot.Name = "notashark"

	c.Log.Level = "info"
	c.Log.File = "notashark.log"

	c.Serverlist.UpdateSeconds = 30
	c.Serverlist.KagUrl = "https://api.kag2d.com"
	c.Serverlist.RequestsPerMinute = 0

	c.Geo.Url = "https://get.geojs.io"
	c.Geo.RequestsPerMinute = 60

	c.Stats.Url = "https://kagstats.com"
	c.Stats.RequestsPerMinute = 60

	c.Settings.File = "./settings.json"
	c.Settings.AutosaveSeconds = 300

	c.Service.HousekeepingMinutes = 60

	return c
}

// ReadConfig loads the configuration from the provided toml file.
// If the file doesn't exist, it is created with default values.
func ReadConfig(path string) (Config, error) {
	if path == "" {
		path = DEFAULT_PATH
	}
	g := gophig.NewGophig[Config](path, gophig.TOMLMarshaler{}, os.ModePerm)
	_, err := g.LoadConf()
	if os.IsNotExist(err) {
		err = g.SaveConf(DefaultConfig())
		if err != nil {
			return Config{}, err
		}
	}
	return g.LoadConf()
}
