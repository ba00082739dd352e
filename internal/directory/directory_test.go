package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"notashark/internal/geo"
	"notashark/internal/kagapi"
)

type fakeSource struct {
	mu      sync.Mutex
	servers []kagapi.RawServer
	err     error
}

func (source *fakeSource) GetServers(ctx context.Context) ([]kagapi.RawServer, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.servers, source.err
}

func (source *fakeSource) set(servers []kagapi.RawServer, err error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.servers = servers
	source.err = err
}

type fakeResolver struct {
	failing string
}

func (resolver *fakeResolver) Resolve(ctx context.Context, ip string) (geo.Country, error) {
	if ip == resolver.failing {
		return geo.Country{}, errors.New("lookup failed")
	}
	return geo.Country{Code: "DE", Name: "Germany"}, nil
}

// Servers named after their position, with the provided number of players
func servers(populations ...int) []kagapi.RawServer {
	raw := make([]kagapi.RawServer, len(populations))
	for i, population := range populations {
		players := make([]string, population)
		for j := range players {
			players[j] = fmt.Sprintf("player%d", j)
		}
		raw[i] = kagapi.RawServer{
			IPv4Address: fmt.Sprintf("10.0.0.%d", i+1),
			Port:        50301,
			Name:        fmt.Sprintf("server%d", i),
			MaxPlayers:  20,
			PlayerList:  players,
		}
	}
	return raw
}

func names(snapshot Snapshot) []string {
	result := []string{}
	for _, server := range snapshot.Servers {
		result = append(result, server.Name)
	}
	return result
}

func checkTotal(t *testing.T, snapshot Snapshot) {
	sum := 0
	for _, server := range snapshot.Servers {
		sum += server.Players
	}
	if sum != snapshot.Players {
		t.Fatalf("expected total %d got %d", sum, snapshot.Players)
	}
}

func TestRefresh_SortsByPlayers(t *testing.T) {
	cache := NewCache(&fakeSource{servers: servers(5, 0, 12)}, &fakeResolver{}, 0)

	snapshot, err := cache.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	checkTotal(t, snapshot)
	if snapshot.Players != 17 {
		t.Fatalf("expected 17 players got %d", snapshot.Players)
	}
	populations := []int{}
	for _, server := range snapshot.Servers {
		populations = append(populations, server.Players)
	}
	if fmt.Sprint(populations) != "[12 5 0]" {
		t.Fatalf("expected [12 5 0] got %v", populations)
	}
	if snapshot.Servers[0].CountryCode != "de" {
		t.Fatalf("expected country de got %s", snapshot.Servers[0].CountryCode)
	}
}

func TestRefresh_StableTies(t *testing.T) {
	cache := NewCache(&fakeSource{servers: servers(3, 7, 3, 0, 3)}, &fakeResolver{}, 0)

	snapshot, err := cache.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	checkTotal(t, snapshot)
	expected := "[server1 server0 server2 server4 server3]"
	if got := fmt.Sprint(names(snapshot)); got != expected {
		t.Fatalf("expected %s got %s", expected, got)
	}
}

func TestRefresh_Empty(t *testing.T) {
	cache := NewCache(&fakeSource{servers: []kagapi.RawServer{}}, &fakeResolver{}, 0)

	snapshot, err := cache.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if snapshot.Players != 0 || len(snapshot.Servers) != 0 {
		t.Fatalf("expected empty snapshot got %+v", snapshot)
	}
	if _, ok := cache.Latest(); !ok {
		t.Fatalf("expected an empty snapshot to be published")
	}
}

func TestRefresh_FailureKeepsPrevious(t *testing.T) {
	source := &fakeSource{servers: servers(1, 2)}
	resolver := &fakeResolver{}
	cache := NewCache(source, resolver, 0)

	if _, ok := cache.Latest(); ok {
		t.Fatalf("expected no snapshot before the first refresh")
	}
	if _, err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// Upstream failure
	source.set(nil, errors.New("unavailable"))
	if _, err := cache.Refresh(context.Background()); err == nil {
		t.Fatalf("expected an error")
	}
	latest, _ := cache.Latest()
	if latest.Players != 3 {
		t.Fatalf("expected previous snapshot with 3 players got %d", latest.Players)
	}

	// One server failing to resolve fails the whole cycle
	source.set(servers(4, 4, 4), nil)
	resolver.failing = "10.0.0.2"
	if _, err := cache.Refresh(context.Background()); err == nil {
		t.Fatalf("expected an error")
	}
	latest, _ = cache.Latest()
	if latest.Players != 3 || len(latest.Servers) != 2 {
		t.Fatalf("expected previous snapshot got %+v", latest)
	}
}

func TestLatest_ReturnsCopy(t *testing.T) {
	cache := NewCache(&fakeSource{servers: servers(1, 2)}, &fakeResolver{}, 0)
	if _, err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	first, _ := cache.Latest()
	first.Servers[0].Name = "changed"
	first.Servers[0].PlayerNames[0] = "changed"
	second, _ := cache.Latest()
	if second.Servers[0].Name == "changed" {
		t.Fatalf("expected readers not to share the published servers")
	}
	if second.Servers[0].PlayerNames[0] == "changed" {
		t.Fatalf("expected readers not to share the player names")
	}
}

// Servers coming from a fake directory API, decoded by the real client
func TestRefresh_MalformedKeepsPrevious(t *testing.T) {
	var mu sync.Mutex
	body := `{"serverList":[{"IPv4Address":"10.0.0.1","port":50301,"name":"A","password":false,"gameMode":"CTF",` +
		`"usingMods":false,"maxPlayers":16,"playerList":["x","y"],"spectatorPlayers":0}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Write([]byte(body))
	}))
	defer server.Close()

	cache := NewCache(kagapi.NewKagApi(server.URL, nil, server.URL, nil), &fakeResolver{}, 0)
	if _, err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// Second server lacks most of its fields
	mu.Lock()
	body = strings.Replace(body, "]}", `,{"IPv4Address":"1.2.3.4","port":50301}]}`, 1)
	mu.Unlock()
	if _, err := cache.Refresh(context.Background()); !errors.Is(err, kagapi.ErrMalformed) {
		t.Fatalf("expected %v got %v", kagapi.ErrMalformed, err)
	}
	latest, ok := cache.Latest()
	if !ok || latest.Players != 2 || len(latest.Servers) != 1 || latest.Servers[0].Name != "A" {
		t.Fatalf("expected previous snapshot got %+v", latest)
	}
}

func TestNewCache_Interval(t *testing.T) {
	cases := []struct {
		input    time.Duration
		expected time.Duration
	}{
		{0, DEFAULT_INTERVAL},
		{time.Second, MIN_INTERVAL},
		{time.Minute, time.Minute},
	}
	for _, c := range cases {
		if got := NewCache(nil, nil, c.input).Interval(); got != c.expected {
			t.Fatalf("interval %v: expected %v got %v", c.input, c.expected, got)
		}
	}
}

func TestRun_Populates(t *testing.T) {
	cache := NewCache(&fakeSource{servers: servers(2)}, &fakeResolver{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if snapshot, ok := cache.Latest(); ok {
			if snapshot.Players != 2 {
				t.Fatalf("expected 2 players got %d", snapshot.Players)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected the cache to be populated")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to stop with its context")
	}
}
