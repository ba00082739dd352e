package directory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"notashark/internal/common"
	"notashark/internal/kagapi"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const DEFAULT_INTERVAL = 30 * time.Second
const MIN_INTERVAL = 30 * time.Second

// Where the list of active servers comes from
type Source interface {
	GetServers(ctx context.Context) ([]kagapi.RawServer, error)
}

// Servers sorted by population, most populated first
type Snapshot struct {
	Servers []kagapi.ServerRecord `json:"servers"`
	Players int                   `json:"players"`
	Updated time.Time             `json:"updated"`
}

// Cache keeps the latest snapshot of the server directory
type Cache struct {
	source   Source
	resolver kagapi.CountryResolver
	interval time.Duration
	mu       sync.RWMutex
	latest   *Snapshot
}

func NewCache(source Source, resolver kagapi.CountryResolver, interval time.Duration) *Cache {
	if interval <= 0 {
		interval = DEFAULT_INTERVAL
	}
	return &Cache{
		source:   source,
		resolver: resolver,
		interval: max(interval, MIN_INTERVAL),
	}
}

func (cache *Cache) Interval() time.Duration {
	return cache.interval
}

// Fetch, clean and sort the active servers, and publish the result.
// On any failure the published snapshot stays as it was
func (cache *Cache) Refresh(ctx context.Context) (Snapshot, error) {

	raw, err := cache.source.GetServers(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	// Clean every server concurrently, keeping the upstream order
	type RecordResult struct {
		Index  int
		Record kagapi.ServerRecord
		Error  error
	}
	recordResults := make(chan RecordResult, len(raw))
	var wg sync.WaitGroup
	for i, server := range raw {

		wg.Add(1)
		go func(ch chan<- RecordResult) {

			defer wg.Done()

			record, err := kagapi.Clean(ctx, server, cache.resolver)
			ch <- RecordResult{Index: i, Record: record, Error: err}

		}(recordResults)

	}
	wg.Wait()
	close(recordResults)

	// A single failure fails the whole cycle
	records := make([]kagapi.ServerRecord, len(raw))
	for result := range recordResults {
		if result.Error != nil {
			return Snapshot{}, result.Error
		}
		records[result.Index] = result.Record
	}

	players := 0
	for _, record := range records {
		players += record.Players
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Players > records[j].Players
	})

	snapshot := Snapshot{Servers: records, Players: players, Updated: time.Now()}

	cache.mu.Lock()
	cache.latest = &snapshot
	cache.mu.Unlock()

	log.Debug().Msg(fmt.Sprintf("Published %d servers with %d players", len(records), players))
	return snapshot, nil
}

// Latest published snapshot, if any. Never waits for a refresh.
// The copy shares nothing with the published snapshot
func (cache *Cache) Latest() (Snapshot, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.latest == nil {
		return Snapshot{}, false
	}
	snapshot := *cache.latest
	snapshot.Servers = lo.Map(cache.latest.Servers, func(server kagapi.ServerRecord, _ int) kagapi.ServerRecord {
		server.PlayerNames = slices.Clone(server.PlayerNames)
		server.Minimap = slices.Clone(server.Minimap)
		return server
	})
	return snapshot, true
}

// Refresh every interval until the context is done
func (cache *Cache) Run(ctx context.Context) {
	log.Info().Msg(fmt.Sprintf("Refreshing the server list every %v", cache.interval))
	common.Repeat(ctx, cache.interval, true, func(ctx context.Context) {
		if _, err := cache.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("Could not refresh the server list")
			common.Report(err)
		}
	})
}
