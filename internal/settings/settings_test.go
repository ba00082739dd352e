package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(filepath.Join(t.TempDir(), "settings.json"), 0)
}

func TestAddEntry(t *testing.T) {
	store := newTestStore(t)
	if !store.AddEntry("1") {
		t.Fatalf("expected first AddEntry to insert")
	}
	if store.AddEntry("1") {
		t.Fatalf("expected second AddEntry to do nothing")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 guild got %d", store.Len())
	}
}

func TestAddEntry_Concurrent(t *testing.T) {
	store := newTestStore(t)
	var inserted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.AddEntry("same") {
				inserted.Add(1)
			}
			store.AddEntry(fmt.Sprint(i))
		}()
	}
	wg.Wait()
	if inserted.Load() != 1 {
		t.Fatalf("expected exactly one insert got %d", inserted.Load())
	}
	if store.Len() != 51 {
		t.Fatalf("expected 51 guilds got %d", store.Len())
	}
}

func TestSetAutoupdateChannel(t *testing.T) {
	store := newTestStore(t)
	store.AddEntry("1")
	store.SetAutoupdateChannel("1", "100")
	if !store.SetMessageId("1", "100", "500") {
		t.Fatalf("expected message id to be stored")
	}

	store.SetAutoupdateChannel("1", "200")
	settings, _ := store.Get("1")
	if settings.ServerlistChannelId != "200" || settings.ServerlistMessageId != "" {
		t.Fatalf("expected channel 200 without message got %+v", settings)
	}

	// The message was posted in a channel that is no longer in use
	if store.SetMessageId("1", "100", "600") {
		t.Fatalf("expected message id of an old channel to be rejected")
	}
	if store.SetMessageId("unknown", "100", "600") {
		t.Fatalf("expected message id of an unknown guild to be rejected")
	}
}

func TestSaveLoad(t *testing.T) {
	store := newTestStore(t)
	store.AddEntry("1")
	store.AddEntry("2")
	store.SetAutoupdateChannel("2", "200")
	store.SetMessageId("2", "200", "300")
	if err := store.Save(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	loaded := NewStore(store.path, 0)
	loaded.Load()
	entries := loaded.Entries()
	expected := []Entry{
		{GuildId: "1"},
		{GuildId: "2", GuildSettings: GuildSettings{ServerlistChannelId: "200", ServerlistMessageId: "300"}},
	}
	if len(entries) != len(expected) {
		t.Fatalf("expected %v got %v", expected, entries)
	}
	for i := range expected {
		if entries[i] != expected[i] {
			t.Fatalf("expected %v got %v", expected, entries)
		}
	}
	if _, err := os.Stat(store.path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no temporary file left behind")
	}
}

func TestLoad_Preloaded(t *testing.T) {
	store := newTestStore(t)
	data := `{"42": {"serverlist_channel_id": "100", "serverlist_message_id": null}, "43": {"serverlist_channel_id": 123456789012345678, "serverlist_message_id": 876543210987654321}}`
	if err := os.WriteFile(store.path, []byte(data), 0o644); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	store.Load()

	if store.AddEntry("42") {
		t.Fatalf("expected guild 42 to be known")
	}
	settings, _ := store.Get("42")
	if settings.ServerlistChannelId != "100" || settings.ServerlistMessageId != "" {
		t.Fatalf("unexpected settings %+v", settings)
	}
	settings, _ = store.Get("43")
	if settings.ServerlistChannelId != "123456789012345678" || settings.ServerlistMessageId != "876543210987654321" {
		t.Fatalf("expected numeric ids to be kept exactly, got %+v", settings)
	}

	// Written back as strings
	if err := store.Save(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	saved, _ := os.ReadFile(store.path)
	var raw map[string]map[string]any
	if err := json.Unmarshal(saved, &raw); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if raw["43"]["serverlist_channel_id"] != "123456789012345678" {
		t.Fatalf("expected a string id got %v", raw["43"]["serverlist_channel_id"])
	}
	if raw["42"]["serverlist_message_id"] != nil {
		t.Fatalf("expected null message id got %v", raw["42"]["serverlist_message_id"])
	}
}

func TestLoad_Failures(t *testing.T) {
	store := newTestStore(t)

	// Missing file
	store.Load()
	if store.Len() != 0 {
		t.Fatalf("expected empty store got %d guilds", store.Len())
	}

	// Malformed file
	store.AddEntry("1")
	if err := os.WriteFile(store.path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	store.Load()
	if store.Len() != 0 {
		t.Fatalf("expected empty store got %d guilds", store.Len())
	}
}

func TestSave_Failure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be
	path := filepath.Join(dir, "settings.json")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	store := NewStore(path, 0)
	store.AddEntry("1")
	if err := store.Save(); err == nil {
		t.Fatalf("expected an error")
	}
	if store.Len() != 1 {
		t.Fatalf("expected memory to be untouched")
	}
}

func TestRun_SavesOnShutdown(t *testing.T) {
	store := newTestStore(t)
	store.AddEntry("1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to stop with its context")
	}

	loaded := NewStore(store.path, 0)
	loaded.Load()
	if _, ok := loaded.Get("1"); !ok {
		t.Fatalf("expected guild 1 to be saved on shutdown")
	}
}

func TestNewStore_Interval(t *testing.T) {
	if got := NewStore("", time.Second).Interval(); got != MIN_AUTOSAVE {
		t.Fatalf("expected %v got %v", MIN_AUTOSAVE, got)
	}
	if got := NewStore("", time.Hour).Interval(); got != time.Hour {
		t.Fatalf("expected %v got %v", time.Hour, got)
	}
}
