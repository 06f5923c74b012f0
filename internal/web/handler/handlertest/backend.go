package handlertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GoADConsole/GoADConsole/internal/bulk"
	"github.com/GoADConsole/GoADConsole/internal/directory"
	"github.com/GoADConsole/GoADConsole/internal/stats"
)

// Distinguished names served by Backend.
const (
	ITDN    = "OU=IT,DC=corp,DC=local"
	HRDN    = "OU=HR,DC=corp,DC=local"
	UserADN = "CN=UserA,OU=IT,DC=corp,DC=local"
	UserBDN = "CN=UserB,OU=IT,DC=corp,DC=local"
	SubOUDN = "OU=SubOU,OU=IT,DC=corp,DC=local"
)

// Backend is a fake AD management API.
type Backend struct {
	URL string

	mu      sync.Mutex
	status  int
	calls   map[string]int
	configs map[string]json.RawMessage
	last    *bulk.Payload
}

// NewBackend starts a fake AD management API.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		calls:   map[string]int{},
		configs: map[string]json.RawMessage{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activedirectory/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/activedirectory/root", func(w http.ResponseWriter, _ *http.Request) {
		write(w, []directory.Node{
			{Name: "IT", DistinguishedName: ITDN, HasChildren: true, ObjectClasses: []string{"top", "organizationalUnit"}},
			{Name: "HR", DistinguishedName: HRDN, HasChildren: false, ObjectClasses: []string{"top", "organizationalUnit"}},
		})
	})
	mux.HandleFunc("GET /api/activedirectory/children", func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.URL.Query().Get("distinguishedName"), ITDN) {
			write(w, []directory.Node{})
			return
		}

		write(w, []directory.Node{userA(), userB(), {
			Name: "SubOU", DistinguishedName: SubOUDN, HasChildren: true,
			ObjectClasses: []string{"top", "organizationalUnit"},
		}})
	})
	mux.HandleFunc("GET /api/activedirectory/search", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(strings.ToLower(r.URL.Query().Get("query")), "usera") {
			write(w, []directory.Node{userA()})
			return
		}

		write(w, []directory.Node{})
	})
	mux.HandleFunc("GET /api/activedirectory/user/{dn}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("dn") != UserADN {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		write(w, map[string]any{
			"name": "UserA", "distinguishedName": UserADN, "objectClasses": []string{"user"},
			"samAccountName": "usera", "department": "IT",
		})
	})
	mux.HandleFunc("POST /api/activedirectory/bulkAction", b.bulk)
	mux.HandleFunc("GET /api/System/dashboard-stats", func(w http.ResponseWriter, _ *http.Request) {
		lastSync := time.Now().Add(-time.Hour)
		write(w, stats.DashboardStats{TotalUsers: 120, ActiveUsers: 100, DisabledUsers: 15, LockedUsers: 5, LastSync: &lastSync})
	})
	mux.HandleFunc("GET /api/System/info", func(w http.ResponseWriter, _ *http.Request) {
		write(w, stats.SystemInfo{Version: "2.1.0", Environment: "Test", Domain: "corp.local"})
	})
	mux.HandleFunc("GET /api/Config/{section}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		raw, ok := b.configs[r.PathValue("section")]
		b.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})
	mux.HandleFunc("PUT /api/Config/{section}", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.configs[r.PathValue("section")] = raw
		b.mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(b.count(mux))
	t.Cleanup(srv.Close)

	b.URL = srv.URL

	return b
}

func userA() directory.Node {
	uac := 0x200

	return directory.Node{
		Name: "UserA", DistinguishedName: UserADN, ObjectClasses: []string{"top", "person", "user"},
		UserAccountControl: &uac,
	}
}

func userB() directory.Node {
	uac := 0x202

	return directory.Node{
		Name: "UserB", DistinguishedName: UserBDN, ObjectClasses: []string{"top", "person", "user"},
		UserAccountControl: &uac,
	}
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		status := b.status
		b.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) bulk(w http.ResponseWriter, r *http.Request) {
	var p bulk.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.last = &p
	b.mu.Unlock()

	resp := bulk.Response{Action: p.Action, TotalCount: len(p.Users)}

	for _, u := range p.Users {
		ok := !strings.Contains(u, "UserB")
		if ok {
			resp.SuccessCount++
		} else {
			resp.FailureCount++
		}

		resp.Results = append(resp.Results, bulk.Result{UserDistinguishedName: u, Success: ok})
	}

	write(w, resp)
}

// FailWith answers every following request with status. Zero restores normal operation.
func (b *Backend) FailWith(status int) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

// Calls returns how often path was requested.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[path]
}

// LastBulk returns the last bulk payload received.
func (b *Backend) LastBulk() *bulk.Payload {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.last
}

// Config returns the stored config section.
func (b *Backend) Config(section string) json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.configs[section]
}

func write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
