// Package settings keeps the configuration of every guild the bot has seen
// and persists it to a json file.
package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"notashark/internal/common"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DEFAULT_FILE = "./settings.json"
const DEFAULT_AUTOSAVE = 300 * time.Second
const MIN_AUTOSAVE = 300 * time.Second

type GuildSettings struct {
	// Channel where the server list is kept up to date
	ServerlistChannelId Snowflake `json:"serverlist_channel_id"`
	// Message with the server list inside that channel. Empty until posted
	ServerlistMessageId Snowflake `json:"serverlist_message_id"`
}

type Entry struct {
	GuildId string
	GuildSettings
}

type Store struct {
	path     string
	interval time.Duration
	// Discord handlers run on several goroutines, so every access
	// to the guilds, reads included, goes through the mutex
	mu     sync.Mutex
	guilds map[string]GuildSettings
	// Only one save writes the file at a time
	saveMu sync.Mutex
}

func NewStore(path string, interval time.Duration) *Store {
	if path == "" {
		path = DEFAULT_FILE
	}
	if interval <= 0 {
		interval = DEFAULT_AUTOSAVE
	}
	return &Store{path: path, interval: max(interval, MIN_AUTOSAVE), guilds: map[string]GuildSettings{}}
}

func (store *Store) Interval() time.Duration {
	return store.interval
}

// Read the settings file. If anything goes wrong the store is left empty
func (store *Store) Load() {

	guilds := map[string]GuildSettings{}
	data, err := os.ReadFile(store.path)
	if err == nil {
		err = json.Unmarshal(data, &guilds)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Msg(fmt.Sprintf("Settings file %s does not exist, starting without settings", store.path))
		} else {
			log.Warn().Err(err).Msg(fmt.Sprintf("Could not load settings from %s, starting without settings", store.path))
		}
		guilds = map[string]GuildSettings{}
	}
	if guilds == nil {
		guilds = map[string]GuildSettings{}
	}

	store.mu.Lock()
	store.guilds = guilds
	store.mu.Unlock()
	log.Info().Msg(fmt.Sprintf("Loaded settings of %d guilds", len(guilds)))
}

// Write every guild to the settings file, replacing its contents
func (store *Store) Save() error {

	store.mu.Lock()
	data, err := json.MarshalIndent(store.guilds, "", "  ")
	count := len(store.guilds)
	store.mu.Unlock()
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}

	store.saveMu.Lock()
	defer store.saveMu.Unlock()

	if dir := filepath.Dir(store.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create settings directory %s: %w", dir, err)
		}
	}
	tmp := store.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("could not write settings to %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, store.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("could not replace settings file %s: %w", store.path, err)
	}
	log.Debug().Msg(fmt.Sprintf("Saved settings of %d guilds to %s", count, store.path))
	return nil
}

// Register a guild with empty settings.
// Returns true only if the guild was not known before
func (store *Store) AddEntry(guildId string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.guilds[guildId]; ok {
		return false
	}
	store.guilds[guildId] = GuildSettings{}
	log.Info().Msg(fmt.Sprintf("Guild %s registered", guildId))
	return true
}

// Point the server list of the guild to a new channel.
// The old message, if any, is forgotten so that a new one gets posted
func (store *Store) SetAutoupdateChannel(guildId string, channelId string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.guilds[guildId] = GuildSettings{ServerlistChannelId: Snowflake(channelId)}
	log.Info().Msg(fmt.Sprintf("Guild %s now keeps the server list in channel %s", guildId, channelId))
}

// Remember the message holding the server list of the guild, only if the
// server list still lives in the provided channel. Returns if it was stored
func (store *Store) SetMessageId(guildId string, channelId string, messageId string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	settings, ok := store.guilds[guildId]
	if !ok || string(settings.ServerlistChannelId) != channelId {
		return false
	}
	settings.ServerlistMessageId = Snowflake(messageId)
	store.guilds[guildId] = settings
	return true
}

func (store *Store) Get(guildId string) (GuildSettings, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	settings, ok := store.guilds[guildId]
	return settings, ok
}

// Copy of every guild, sorted by guild id
func (store *Store) Entries() []Entry {
	store.mu.Lock()
	guilds := maps.Clone(store.guilds)
	store.mu.Unlock()

	ids := lo.Keys(guilds)
	slices.Sort(ids)
	return lo.Map(ids, func(id string, _ int) Entry {
		return Entry{GuildId: id, GuildSettings: guilds[id]}
	})
}

func (store *Store) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.guilds)
}

// Save every interval until the context is done, and once more after that
func (store *Store) Run(ctx context.Context) {
	log.Info().Msg(fmt.Sprintf("Saving settings every %v", store.interval))
	common.Repeat(ctx, store.interval, false, func(ctx context.Context) {
		store.save()
	})
	store.save()
}

func (store *Store) save() {
	if err := store.Save(); err != nil {
		log.Error().Err(err).Msg("Could not save settings")
		common.Report(err)
	}
}
