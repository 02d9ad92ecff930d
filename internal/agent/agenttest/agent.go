// Package agenttest provides an in-memory Clustta Agent for tests.
package agenttest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clustta/clustta-blender/internal/agent"
	"github.com/clustta/clustta-blender/internal/models"
	"github.com/google/uuid"
)

const maxRequestBody = 1 << 20

// Agent is a fake agent that keeps its session state in memory and counts
// every request by route pattern (e.g. "GET /assets").
type Agent struct {
	mu sync.Mutex

	Accounts    []models.Account
	Studios     []models.Studio
	Projects    []models.Project
	Assets      map[string][]models.Asset      // by project uri
	Checkpoints map[string][]models.Checkpoint // by asset id

	ActiveAccount string
	ActiveStudio  string
	ActiveProject string

	calls    map[string]int
	failures map[string]int
	lastBody map[string][]byte
	headers  map[string]http.Header
	queries  map[string]url.Values

	logger *slog.Logger
}

// New returns an Agent seeded with one account, studio and project.
func New() *Agent {
	return &Agent{
		Accounts: []models.Account{
			{ID: "acc-1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
		},
		Studios: []models.Studio{
			{Name: "Aurora", URL: "https://aurora.example.com"},
		},
		Projects: []models.Project{
			{URI: "clustta://aurora/short-film", Name: "Short Film", WorkingDirectory: "/work/short-film"},
		},
		Assets:      map[string][]models.Asset{},
		Checkpoints: map[string][]models.Checkpoint{},
		calls:       map[string]int{},
		failures:    map[string]int{},
		lastBody:    map[string][]byte{},
		headers:     map[string]http.Header{},
		queries:     map[string]url.Values{},
		logger:      slog.New(slog.DiscardHandler),
	}
}

// Start serves the agent on a loopback httptest server closed at test cleanup.
// It returns the server URL.
func (a *Agent) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// Calls returns how many requests matched pattern.
func (a *Agent) Calls(pattern string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[pattern]
}

// TotalCalls returns the number of requests across all routes.
func (a *Agent) TotalCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		n += c
	}
	return n
}

// Fail makes every following request matching pattern answer with status
// until Fail is called again with status 0.
func (a *Agent) Fail(pattern string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status == 0 {
		delete(a.failures, pattern)
		return
	}
	a.failures[pattern] = status
}

// LastBody returns the raw body of the last request matching pattern.
func (a *Agent) LastBody(pattern string) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastBody[pattern]
}

// LastHeader returns the headers of the last request matching pattern.
func (a *Agent) LastHeader(pattern string) http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.headers[pattern]
}

// LastQuery returns the query parameters of the last request matching pattern.
func (a *Agent) LastQuery(pattern string) url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queries[pattern]
}

// SetAssets replaces the assets of a project.
func (a *Agent) SetAssets(projectURI string, assets ...models.Asset) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Assets[projectURI] = assets
}

// SetCheckpoints replaces the checkpoints of an asset.
func (a *Agent) SetCheckpoints(assetID string, checkpoints ...models.Checkpoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Checkpoints[assetID] = checkpoints
}

// Handler returns the HTTP handler with all agent routes.
func (a *Agent) Handler() http.Handler {
	mux := http.NewServeMux()

	a.route(mux, "GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	a.route(mux, "GET /accounts", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, a.Accounts)
	})
	a.route(mux, "POST /accounts/switch", a.handleSwitchAccount)
	a.route(mux, "GET /accounts/active", func(w http.ResponseWriter, _ *http.Request) {
		for _, acc := range a.Accounts {
			if acc.ID == a.ActiveAccount {
				writeJSON(w, http.StatusOK, acc)
				return
			}
		}
		writeError(w, http.StatusNotFound, "not_found", "no active account")
	})

	a.route(mux, "GET /studios", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, a.Studios)
	})
	a.route(mux, "POST /studios/switch", a.handleSwitchStudio)
	a.route(mux, "GET /studios/active", func(w http.ResponseWriter, _ *http.Request) {
		for _, s := range a.Studios {
			if s.Name == a.ActiveStudio {
				writeJSON(w, http.StatusOK, s)
				return
			}
		}
		writeError(w, http.StatusNotFound, "not_found", "no active studio")
	})

	a.route(mux, "GET /projects", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, a.Projects)
	})
	a.route(mux, "POST /projects/switch", a.handleSwitchProject)
	a.route(mux, "GET /projects/active", func(w http.ResponseWriter, _ *http.Request) {
		for _, p := range a.Projects {
			if p.URI == a.ActiveProject {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeError(w, http.StatusNotFound, "not_found", "no active project")
	})

	a.route(mux, "GET /assets", a.handleGetAssets)
	a.route(mux, "GET /assets/{id}/checkpoints", func(w http.ResponseWriter, r *http.Request) {
		cps := a.Checkpoints[r.PathValue("id")]
		if cps == nil {
			cps = []models.Checkpoint{}
		}
		writeJSON(w, http.StatusOK, cps)
	})
	a.route(mux, "POST /projects/{pid}/assets/{aid}/checkpoints", a.handleCreateCheckpoint)

	return mux
}

// route registers fn under pattern with call counting, failure injection and
// request recording. fn runs with the agent lock held.
func (a *Agent) route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))

		a.mu.Lock()
		defer a.mu.Unlock()

		a.calls[pattern]++
		a.lastBody[pattern] = body
		a.headers[pattern] = r.Header.Clone()
		a.queries[pattern] = r.URL.Query()
		a.logger.Debug("request", "pattern", pattern, "request_id", r.Header.Get("X-Request-ID"))

		if status, ok := a.failures[pattern]; ok {
			writeError(w, status, "injected", fmt.Sprintf("injected failure for %s", pattern))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		fn(w, r)
	})
}

func (a *Agent) handleSwitchAccount(w http.ResponseWriter, r *http.Request) {
	var req agent.SwitchAccountRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	for _, acc := range a.Accounts {
		if acc.ID == req.ID {
			a.ActiveAccount = acc.ID
			a.ActiveStudio = ""
			a.ActiveProject = ""
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("account '%s' not found", req.ID))
}

func (a *Agent) handleSwitchStudio(w http.ResponseWriter, r *http.Request) {
	var req agent.SwitchStudioRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	for _, s := range a.Studios {
		if s.Name == req.Name {
			a.ActiveStudio = s.Name
			a.ActiveProject = ""
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("studio '%s' not found", req.Name))
}

func (a *Agent) handleSwitchProject(w http.ResponseWriter, r *http.Request) {
	var req agent.SwitchProjectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	for _, p := range a.Projects {
		if p.URI == req.URI {
			a.ActiveProject = p.URI
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("project '%s' not found", req.URI))
}

func (a *Agent) handleGetAssets(w http.ResponseWriter, r *http.Request) {
	if a.ActiveProject == "" {
		writeError(w, http.StatusConflict, "no_project", "no active project")
		return
	}
	ext := r.URL.Query().Get("ext")
	assignee := r.URL.Query().Get("assignee")

	out := []models.Asset{}
	for _, asset := range a.Assets[a.ActiveProject] {
		if ext != "" && !strings.HasSuffix(asset.FilePath, ext) {
			continue
		}
		if assignee != "" && assignee != a.ActiveAccount {
			continue
		}
		out = append(out, asset)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *Agent) handleCreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req agent.CreateCheckpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	aid := r.PathValue("aid")
	cp := models.Checkpoint{
		ID:        uuid.New().String(),
		Message:   req.Message,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		AuthorID:  a.ActiveAccount,
	}
	a.Checkpoints[aid] = append([]models.Checkpoint{cp}, a.Checkpoints[aid]...)
	writeJSON(w, http.StatusCreated, cp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, agent.ErrorResponse{Error: code, Message: message})
}

func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
