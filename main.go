package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"notashark/internal/bot"
	"notashark/internal/common"
	"notashark/internal/config"
	"notashark/internal/directory"
	"notashark/internal/geo"
	"notashark/internal/httpapi"
	"notashark/internal/kagapi"
	"notashark/internal/settings"
	"notashark/internal/stats"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const TOKEN_ENV = "NOTASHARK_DISCORD_KEY"

// Only lets errors through to the console
type errorOnlyWriter struct {
	writer io.Writer
}

func (w errorOnlyWriter) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

func (w errorOnlyWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return w.writer.Write(p)
}

func main() {

	configPath := flag.String("config", config.DEFAULT_PATH, "Path to the configuration file")
	token := flag.String("token", "", "Discord bot token. Takes precedence over the environment and the config file")
	debug := flag.Bool("debug", false, "Log debug messages")
	showLogs := flag.Bool("show-logs", false, "Print every log message to the console, not only errors")
	updateTime := flag.Int("serverlist-update-time", 0, "Seconds between server list updates")
	autosaveTime := flag.Int("settings-autosave-time", 0, "Seconds between saves of the settings file")
	settingsFile := flag.String("settings-file", "", "Path to the settings file")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.ReadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	// Flags override the config file
	if *token == "" {
		*token = os.Getenv(TOKEN_ENV)
	}
	if *token != "" {
		cfg.Bot.Token = *token
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *showLogs {
		cfg.Log.ShowLogs = true
	}
	if *updateTime > 0 {
		cfg.Serverlist.UpdateSeconds = *updateTime
	}
	if *autosaveTime > 0 {
		cfg.Settings.AutosaveSeconds = *autosaveTime
	}
	if *settingsFile != "" {
		cfg.Settings.File = *settingsFile
	}

	logFile, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if cfg.Service.SentryDsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Service.SentryDsn}); err != nil {
			log.Error().Err(err).Msg("Could not initialise sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Discord payloads go through the same json codec as everything else
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	discordgo.Marshal = json.Marshal
	discordgo.Unmarshal = json.Unmarshal

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create the components
	resolver := geo.NewResolver(cfg.Geo.Url, common.PerMinute(cfg.Geo.RequestsPerMinute))
	api := kagapi.NewKagApi(
		cfg.Serverlist.KagUrl, common.PerMinute(cfg.Serverlist.RequestsPerMinute),
		cfg.Stats.Url, common.PerMinute(cfg.Stats.RequestsPerMinute))
	cache := directory.NewCache(api, resolver, time.Duration(cfg.Serverlist.UpdateSeconds)*time.Second)
	store := settings.NewStore(cfg.Settings.File, time.Duration(cfg.Settings.AutosaveSeconds)*time.Second)
	store.Load()
	service := stats.NewService(api, resolver)
	notashark := bot.NewBot(cfg.Bot.Token, cfg.Bot.Prefix, cfg.Bot.Name,
		time.Duration(cfg.Service.HousekeepingMinutes)*time.Minute, store, cache, service, resolver)

	log.Info().Msg(fmt.Sprintf("Starting %s: server list every %s, settings saved every %s to %s",
		cfg.Bot.Name, cache.Interval(), store.Interval(), cfg.Settings.File))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cache.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		store.Run(ctx)
	}()
	if cfg.Service.HttpAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpapi.Serve(ctx, cfg.Service.HttpAddress, cache); err != nil {
				log.Error().Err(err).Msg("Http api stopped")
				common.Report(err)
			}
		}()
	}

	if err := notashark.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Bot stopped")
		common.Report(err)
		stop()
	}

	// Wait for the last save of the settings
	wg.Wait()
	log.Info().Msg("Bye")
}

// Log to the file, and to the console depending on the config
func setupLogging(cfg config.Config) (*os.File, error) {

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	file, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file %s: %w", cfg.Log.File, err)
	}

	var console io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	if !cfg.Log.ShowLogs {
		console = errorOnlyWriter{console}
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(file, console)).With().Timestamp().Logger()
	return file, nil
}
