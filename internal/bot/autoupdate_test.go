package bot

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"notashark/internal/directory"
	"notashark/internal/geo"
	"notashark/internal/kagapi"
	"notashark/internal/settings"
	"notashark/internal/stats"

	"github.com/bwmarrin/discordgo"
)

type fakeSession struct {
	messages map[string]string // message id -> channel id
	sent     []string
	edited   []string
	status   string
	nextId   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{messages: map[string]string{}}
}

func (session *fakeSession) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if session.messages[messageID] != channelID {
		return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (session *fakeSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	session.nextId++
	id := fmt.Sprintf("m%d", session.nextId)
	session.messages[id] = channelID
	session.sent = append(session.sent, content)
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (session *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if session.messages[m.ID] != m.Channel {
		return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	}
	session.edited = append(session.edited, m.Channel+"/"+m.ID)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (session *fakeSession) UpdateGameStatus(idle int, name string) error {
	session.status = name
	return nil
}

type fakeSource struct{}

func (fakeSource) GetServers(ctx context.Context) ([]kagapi.RawServer, error) {
	return []kagapi.RawServer{
		{IPv4Address: "1.1.1.1", Port: 1, Name: "a", PlayerList: []string{"x", "y"}},
		{IPv4Address: "1.1.1.1", Port: 2, Name: "b", PlayerList: []string{"z"}},
	}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, ip string) (geo.Country, error) {
	return geo.Country{Code: "FR", Name: "France"}, nil
}

func newTestBot(t *testing.T, refresh bool) *Bot {
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), 0)
	cache := directory.NewCache(fakeSource{}, fakeResolver{}, 0)
	if refresh {
		if _, err := cache.Refresh(context.Background()); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	return NewBot("token", "", "", time.Hour, store, cache, stats.NewService(nil, fakeResolver{}), geo.NewResolver("", nil))
}

func TestUpdate_PostsAndEdits(t *testing.T) {
	bot := newTestBot(t, true)
	bot.settings.AddEntry("guild1")
	bot.settings.AddEntry("guild2")
	bot.settings.SetAutoupdateChannel("guild1", "100")
	session := newFakeSession()

	bot.update(context.Background(), session)
	if len(session.sent) != 1 || session.sent[0] != PLACEHOLDER {
		t.Fatalf("expected a single placeholder got %v", session.sent)
	}
	settings, _ := bot.settings.Get("guild1")
	if settings.ServerlistMessageId != "m1" {
		t.Fatalf("expected message id m1 got %s", settings.ServerlistMessageId)
	}
	if len(session.edited) != 1 || session.edited[0] != "100/m1" {
		t.Fatalf("unexpected edits %v", session.edited)
	}
	if session.status != "with 3 peasants | !help" {
		t.Fatalf("unexpected status %q", session.status)
	}

	// Second cycle edits the same message
	bot.update(context.Background(), session)
	if len(session.sent) != 1 || len(session.edited) != 2 || session.edited[1] != "100/m1" {
		t.Fatalf("expected the message to be reused, sent %v edited %v", session.sent, session.edited)
	}
}

func TestUpdate_MessageDeleted(t *testing.T) {
	bot := newTestBot(t, true)
	bot.settings.AddEntry("guild1")
	bot.settings.SetAutoupdateChannel("guild1", "100")
	bot.settings.SetMessageId("guild1", "100", "gone")
	session := newFakeSession()

	bot.update(context.Background(), session)
	settings, _ := bot.settings.Get("guild1")
	if settings.ServerlistMessageId != "m1" {
		t.Fatalf("expected a new message got %s", settings.ServerlistMessageId)
	}
}

func TestUpdate_NoSnapshot(t *testing.T) {
	bot := newTestBot(t, false)
	bot.settings.AddEntry("guild1")
	bot.settings.SetAutoupdateChannel("guild1", "100")
	session := newFakeSession()

	bot.update(context.Background(), session)
	if len(session.sent) != 0 || len(session.edited) != 0 || session.status != "" {
		t.Fatalf("expected nothing to happen before the first refresh")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("wrapped: %w", &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}})) {
		t.Fatalf("expected unknown message to be not found")
	}
	if isNotFound(&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}) {
		t.Fatalf("expected forbidden to be a different error")
	}
	if isNotFound(fmt.Errorf("timeout")) {
		t.Fatalf("expected a plain error to be a different error")
	}
}
