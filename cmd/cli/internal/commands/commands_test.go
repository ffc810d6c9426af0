package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory OpenBusser API.
type fakeBackend struct {
	mu          sync.Mutex
	registered  int
	heartbeats  int
	available   []string
	assigned    map[string]string
	invites     []map[string]any
	failMatches bool
}

func newFakeBackend(t *testing.T, available ...string) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{available: available, assigned: map[string]string{}}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	return b, srv
}

type backendState struct {
	registered int
	heartbeats int
	assigned   map[string]string
	invites    []map[string]any
}

func (b *fakeBackend) state() backendState {
	b.mu.Lock()
	defer b.mu.Unlock()

	assigned := make(map[string]string, len(b.assigned))
	for k, v := range b.assigned {
		assigned[k] = v
	}

	return backendState{
		registered: b.registered,
		heartbeats: b.heartbeats,
		assigned:   assigned,
		invites:    append([]map[string]any(nil), b.invites...),
	}
}

func (b *fakeBackend) setFailMatches(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failMatches = fail
}

func (b *fakeBackend) handler() http.Handler {
	now := time.Now().UTC().Format(time.RFC3339)

	decode := func(r *http.Request) map[string]string {
		body := map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		return body
	}

	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/session/register", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.registered++
		write(w, map[string]string{"id": "session-0001-abcd", "token": "token-1"})
	})

	mux.HandleFunc("POST /api/session/match", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failMatches {
			http.Error(w, "boom", http.StatusServiceUnavailable)
			return
		}
		body := decode(r)
		bussers := []map[string]any{}
		for _, id := range b.available {
			bussers = append(bussers, map[string]any{"id": id, "lastHeartbeat": now, "sessionId": nil})
		}
		write(w, map[string]any{
			"availableBussers": bussers,
			"sessionId":        body["sessionId"],
			"fromIp":           "192.168.1.50",
			"lastChecked":      now,
		})
	})

	mux.HandleFunc("POST /api/session/assign", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		body := decode(r)
		b.assigned[body["busserId"]] = body["sessionId"]
		write(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("POST /api/session/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		body := decode(r)
		if body["id"] == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		b.heartbeats++
		write(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("GET /api/session/list", func(w http.ResponseWriter, r *http.Request) {
		write(w, []map[string]any{
			{"id": "session-0001-abcd", "lastIp": "192.168.1.50", "createdAt": now, "lastHeartbeat": now},
		})
	})

	mux.HandleFunc("GET /api/busser/list", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		bussers := []map[string]any{}
		for _, id := range b.available {
			bussers = append(bussers, map[string]any{"id": id, "lastIp": "192.168.1.60", "createdAt": now, "lastHeartbeat": now})
		}
		write(w, map[string]any{"bussers": bussers, "fromIp": "192.168.1.50"})
	})

	mux.HandleFunc("GET /api/invite/list", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		write(w, map[string]any{"invites": b.invites, "fromIp": "192.168.1.50"})
	})

	mux.HandleFunc("POST /api/invite/create", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		body := decode(r)
		b.invites = append(b.invites, map[string]any{
			"id": "invite-42", "busserId": body["busserId"], "sessionId": body["sessionId"],
			"createdAt": now, "accepted": false,
		})
		write(w, map[string]string{"id": "invite-42"})
	})

	return mux
}

func testGlobals(t *testing.T, serverURL string) (*Globals, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	return &Globals{
		Server:  serverURL,
		Timeout: 5 * time.Second,
		DataDir: t.TempDir(),
		Out:     &out,
	}, &out
}
