package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notashark/internal/directory"
	"notashark/internal/kagapi"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

type fakeSnapshots struct {
	snapshot *directory.Snapshot
}

func (snapshots fakeSnapshots) Latest() (directory.Snapshot, bool) {
	if snapshots.snapshot == nil {
		return directory.Snapshot{}, false
	}
	return *snapshots.snapshot, true
}

func request(router *gin.Engine, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := request(NewRouter(fakeSnapshots{}), "/api/health")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, recorder.Code)
	}
	if body := recorder.Body.String(); body != `{"status":"ok"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestServers_NotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := request(NewRouter(fakeSnapshots{}), "/api/servers")
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d got %d", http.StatusServiceUnavailable, recorder.Code)
	}
}

func TestServers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshot := directory.Snapshot{
		Servers: []kagapi.ServerRecord{{Name: "a", Players: 2, Minimap: []byte("png")}, {Name: "b", Players: 1}},
		Players: 3,
		Updated: time.Now(),
	}
	recorder := request(NewRouter(fakeSnapshots{&snapshot}), "/api/servers")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, recorder.Code)
	}

	var body struct {
		Servers []map[string]any `json:"servers"`
		Players int              `json:"players"`
	}
	if err := jsoniter.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if body.Players != 3 || len(body.Servers) != 2 || body.Servers[0]["name"] != "a" {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
	if _, ok := body.Servers[0]["Minimap"]; ok {
		t.Fatalf("expected the minimap to be left out")
	}
}

func TestUnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if recorder := request(NewRouter(fakeSnapshots{}), "/api/nothing"); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected %d got %d", http.StatusNotFound, recorder.Code)
	}
}
