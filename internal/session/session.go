// Package session holds the browsing state of one user of the Clustta Agent:
// active account, studio and project, the loaded assets and checkpoints, and
// the staleness bookkeeping that decides when those lists must be re-fetched.
//
// A Session serializes its callers. Every method that talks to the agent holds
// the session lock for the whole exchange, so at most one logical caller runs
// at a time and a slow agent blocks later callers up to the client timeout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clustta/clustta-blender/internal/agent"
	"github.com/clustta/clustta-blender/internal/models"
)

var (
	ErrNotConnected = errors.New("not connected to the clustta agent")
	ErrNoProject    = errors.New("no project selected")
	ErrNoAsset      = errors.New("no asset selected")
	ErrEmptyMessage = errors.New("please enter a checkpoint message")
)

// State is a snapshot of everything a UI draws. Slices are copies.
type State struct {
	Connected bool

	Account models.Account
	Studio  models.Studio
	Project models.Project

	Assets      []models.Asset
	ActiveAsset int // -1 when nothing is selected

	Checkpoints      []models.Checkpoint
	ActiveCheckpoint int // -1 when nothing is selected

	AssetTypeOptions []models.FilterOption
	StatusOptions    []models.FilterOption
	AssetTypeFilter  string
	StatusFilter     string
}

// Session owns an agent client and the state derived from it.
type Session struct {
	mu     sync.Mutex
	client agent.AgentClient
	logger *slog.Logger
	query  agent.AssetQuery

	state State

	// Scope the current lists were fetched for; empty forces a fetch.
	assetsKey      string
	checkpointsKey string

	studios  []models.Studio
	projects []models.Project
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAssetQuery sets the query used for every asset fetch.
func WithAssetQuery(q agent.AssetQuery) Option {
	return func(s *Session) {
		s.query = q
	}
}

// New creates a disconnected session on top of client.
func New(client agent.AgentClient, opts ...Option) *Session {
	s := &Session{
		client: client,
		logger: slog.New(slog.DiscardHandler),
		query:  agent.AssetQuery{Extension: agent.DefaultAssetExtension},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clearProjectScopeLocked()
	return s
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Assets = append([]models.Asset(nil), s.state.Assets...)
	st.Checkpoints = append([]models.Checkpoint(nil), s.state.Checkpoints...)
	st.AssetTypeOptions = append([]models.FilterOption(nil), s.state.AssetTypeOptions...)
	st.StatusOptions = append([]models.FilterOption(nil), s.state.StatusOptions...)
	return st
}

// Connected reports whether the last Connect succeeded.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Connected
}

// HealthCheck reports whether the agent is reachable without touching session state.
func (s *Session) HealthCheck(ctx context.Context) (bool, error) {
	return s.client.HealthCheck(ctx)
}

// Connect checks the agent and, when it answers, loads the active account,
// studio and project. When the agent is unreachable the session is marked
// disconnected and no other request is made.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.client.HealthCheck(ctx)
	if err != nil || !ok {
		s.state.Connected = false
		if err == nil {
			err = ErrNotConnected
		}
		s.logger.Warn("agent unreachable", "error", err)
		return fmt.Errorf("connect: %w", err)
	}

	s.state.Connected = true
	s.logger.Info("connected to agent")
	s.syncActiveStateLocked(ctx)
	return nil
}

// SyncActiveState refreshes the active account, studio and project from the
// agent. Each is fetched independently; a failed fetch keeps the old value.
func (s *Session) SyncActiveState(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncActiveStateLocked(ctx)
}

func (s *Session) syncActiveStateLocked(ctx context.Context) {
	if account, err := s.client.GetActiveAccount(ctx); err == nil && account != nil {
		s.state.Account = *account
	} else if err != nil {
		s.logger.Debug("no active account", "error", err)
	}

	if studio, err := s.client.GetActiveStudio(ctx); err == nil && studio != nil {
		s.state.Studio = *studio
	} else if err != nil {
		s.logger.Debug("no active studio", "error", err)
	}

	project, err := s.client.GetActiveProject(ctx)
	if err != nil {
		s.logger.Debug("no active project", "error", err)
		return
	}
	if project == nil {
		return
	}
	if project.URI != s.state.Project.URI {
		s.clearProjectScopeLocked()
	}
	s.state.Project = *project
}

// ListAccounts lists the accounts known to the agent.
func (s *Session) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.client.ListAccounts(ctx)
}

// GetActiveAccount returns the agent's active account.
func (s *Session) GetActiveAccount(ctx context.Context) (*models.Account, error) {
	return s.client.GetActiveAccount(ctx)
}

// SwitchAccount activates another account. Everything below the account is
// cleared and re-read from the agent.
func (s *Session) SwitchAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.SwitchAccount(ctx, id); err != nil {
		return err
	}

	s.state.Account = models.Account{ID: id}
	s.state.Studio = models.Studio{}
	s.state.Project = models.Project{}
	s.clearProjectScopeLocked()
	s.syncActiveStateLocked(ctx)
	s.logger.Info("switched account", "account", id)
	return nil
}

// ListStudios lists studios of the active account.
func (s *Session) ListStudios(ctx context.Context) ([]models.Studio, error) {
	studios, err := s.client.ListStudios(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.studios = append([]models.Studio(nil), studios...)
	s.mu.Unlock()
	return studios, nil
}

// GetActiveStudio returns the agent's active studio.
func (s *Session) GetActiveStudio(ctx context.Context) (*models.Studio, error) {
	return s.client.GetActiveStudio(ctx)
}

// SwitchStudio activates a studio. The active project and everything loaded
// for it are cleared.
func (s *Session) SwitchStudio(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.SwitchStudio(ctx, name); err != nil {
		return err
	}

	studio := models.Studio{Name: name}
	for _, st := range s.studios {
		if st.Name == name {
			studio = st
			break
		}
	}
	s.state.Studio = studio
	s.state.Project = models.Project{}
	s.clearProjectScopeLocked()
	s.logger.Info("switched studio", "studio", name)
	return nil
}

// ListProjects lists projects of the active studio. The result is kept to
// resolve display names on SwitchProject.
func (s *Session) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.projects = append([]models.Project(nil), projects...)
	s.mu.Unlock()
	return projects, nil
}

// GetActiveProject returns the agent's active project.
func (s *Session) GetActiveProject(ctx context.Context) (*models.Project, error) {
	return s.client.GetActiveProject(ctx)
}

// SwitchProject activates the project with the given uri. Assets,
// checkpoints and every selection derived from the previous project are
// dropped, and the next EnsureAssetsLoaded fetches.
func (s *Session) SwitchProject(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.SwitchProject(ctx, uri); err != nil {
		return err
	}

	project := models.Project{URI: uri, Name: uri}
	for _, p := range s.projects {
		if p.URI == uri {
			project = p
			break
		}
	}
	s.state.Project = project
	s.clearProjectScopeLocked()
	s.logger.Info("switched project", "project", project.Name, "uri", uri)
	return nil
}

// clearProjectScopeLocked drops everything loaded for the active project.
func (s *Session) clearProjectScopeLocked() {
	s.assetsKey = ""
	s.checkpointsKey = ""
	s.state.Assets = nil
	s.state.ActiveAsset = -1
	s.state.Checkpoints = nil
	s.state.ActiveCheckpoint = -1
	s.state.AssetTypeFilter = models.FilterAll
	s.state.StatusFilter = models.FilterAll
	s.rebuildFilterOptionsLocked()
}
