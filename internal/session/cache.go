package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/clustta/clustta-blender/internal/models"
)

// EnsureAssetsLoaded fetches the asset list unless it is already loaded for
// projectID. A failed fetch leaves the list empty and the cache key unset, so
// the next call retries.
func (s *Session) EnsureAssetsLoaded(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectID == "" {
		return ErrNoProject
	}
	if s.assetsKey == projectID && len(s.state.Assets) > 0 {
		return nil
	}
	return s.loadAssetsLocked(ctx, projectID)
}

// RefreshAssets re-fetches the asset list for projectID regardless of the cache.
func (s *Session) RefreshAssets(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectID == "" {
		return ErrNoProject
	}
	s.assetsKey = ""
	return s.loadAssetsLocked(ctx, projectID)
}

// ResetAssetCache forces the next EnsureAssetsLoaded to fetch.
func (s *Session) ResetAssetCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assetsKey = ""
}

func (s *Session) loadAssetsLocked(ctx context.Context, projectID string) error {
	assets, err := s.client.GetAssets(ctx, s.query)

	s.state.ActiveAsset = -1
	s.state.Checkpoints = nil
	s.state.ActiveCheckpoint = -1
	s.checkpointsKey = ""

	if err != nil {
		s.state.Assets = nil
		s.assetsKey = ""
		s.rebuildFilterOptionsLocked()
		s.logger.Warn("failed to load assets", "project", projectID, "error", err)
		return fmt.Errorf("load assets: %w", err)
	}

	s.state.Assets = append([]models.Asset(nil), assets...)
	s.assetsKey = projectID
	s.rebuildFilterOptionsLocked()
	s.logger.Debug("loaded assets", "project", projectID, "count", len(assets))
	return nil
}

// EnsureCheckpointsLoaded fetches the checkpoint history unless it is already
// loaded for assetID. An asset without checkpoints counts as loaded.
func (s *Session) EnsureCheckpointsLoaded(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if assetID == "" {
		return ErrNoAsset
	}
	if s.checkpointsKey == assetID {
		return nil
	}
	return s.loadCheckpointsLocked(ctx, assetID)
}

// RefreshCheckpoints re-fetches the checkpoint history for assetID.
func (s *Session) RefreshCheckpoints(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if assetID == "" {
		return ErrNoAsset
	}
	s.checkpointsKey = ""
	return s.loadCheckpointsLocked(ctx, assetID)
}

// ResetCheckpointCache forces the next EnsureCheckpointsLoaded to fetch.
func (s *Session) ResetCheckpointCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpointsKey = ""
}

func (s *Session) loadCheckpointsLocked(ctx context.Context, assetID string) error {
	checkpoints, err := s.client.GetCheckpoints(ctx, assetID)

	s.state.ActiveCheckpoint = -1
	if err != nil {
		s.state.Checkpoints = nil
		s.checkpointsKey = ""
		s.logger.Warn("failed to load checkpoints", "asset", assetID, "error", err)
		return fmt.Errorf("load checkpoints: %w", err)
	}

	loaded := make([]models.Checkpoint, len(checkpoints))
	for i, cp := range checkpoints {
		cp.CreatedAtDisplay = FormatTimestamp(cp.CreatedAt)
		loaded[i] = cp
	}
	s.state.Checkpoints = loaded
	s.checkpointsKey = assetID
	s.logger.Debug("loaded checkpoints", "asset", assetID, "count", len(loaded))
	return nil
}

// SelectAsset makes the asset at index (into State.Assets) active and loads
// its checkpoints. Index -1 clears the selection.
func (s *Session) SelectAsset(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index == -1 {
		s.state.ActiveAsset = -1
		s.state.Checkpoints = nil
		s.state.ActiveCheckpoint = -1
		s.checkpointsKey = ""
		return nil
	}
	if index < 0 || index >= len(s.state.Assets) {
		return fmt.Errorf("asset index %d out of range (%d assets)", index, len(s.state.Assets))
	}

	s.state.ActiveAsset = index
	s.checkpointsKey = ""
	return s.loadCheckpointsLocked(ctx, s.state.Assets[index].ID)
}

// SelectAssetByID selects the loaded asset with the given id.
func (s *Session) SelectAssetByID(ctx context.Context, assetID string) error {
	s.mu.Lock()
	index := -1
	for i, a := range s.state.Assets {
		if a.ID == assetID {
			index = i
			break
		}
	}
	s.mu.Unlock()

	if index < 0 {
		return fmt.Errorf("asset '%s' is not in the loaded asset list", assetID)
	}
	return s.SelectAsset(ctx, index)
}

// SelectCheckpoint marks the checkpoint at index active; -1 clears it.
func (s *Session) SelectCheckpoint(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < -1 || index >= len(s.state.Checkpoints) {
		return fmt.Errorf("checkpoint index %d out of range (%d checkpoints)", index, len(s.state.Checkpoints))
	}
	s.state.ActiveCheckpoint = index
	return nil
}

// ActiveAsset returns the selected asset.
func (s *Session) ActiveAsset() (models.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeAssetLocked()
}

func (s *Session) activeAssetLocked() (models.Asset, bool) {
	i := s.state.ActiveAsset
	if i < 0 || i >= len(s.state.Assets) {
		return models.Asset{}, false
	}
	return s.state.Assets[i], true
}

// CreateCheckpoint checkpoints the selected asset of the active project. An
// empty filePath falls back to the asset's path inside the project's working
// directory.
func (s *Session) CreateCheckpoint(ctx context.Context, message, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if s.state.Project.URI == "" {
		return ErrNoProject
	}
	asset, ok := s.activeAssetLocked()
	if !ok {
		return ErrNoAsset
	}
	return s.createCheckpointLocked(ctx, s.state.Project.URI, asset, message, filePath)
}

// CreateCheckpointFor checkpoints an asset addressed by id. Validation happens
// before any request is made.
func (s *Session) CreateCheckpointFor(ctx context.Context, projectID, assetID, message, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if projectID == "" {
		return ErrNoProject
	}
	if assetID == "" {
		return ErrNoAsset
	}

	asset := models.Asset{ID: assetID}
	for _, a := range s.state.Assets {
		if a.ID == assetID {
			asset = a
			break
		}
	}
	return s.createCheckpointLocked(ctx, projectID, asset, message, filePath)
}

func (s *Session) createCheckpointLocked(ctx context.Context, projectID string, asset models.Asset, message, filePath string) error {
	if filePath == "" {
		filePath = s.assetPathLocked(asset)
	}

	if _, err := s.client.CreateCheckpoint(ctx, projectID, asset.ID, strings.TrimSpace(message), filePath); err != nil {
		return err
	}
	s.logger.Info("created checkpoint", "project", projectID, "asset", asset.ID)

	if s.checkpointsKey == asset.ID {
		s.checkpointsKey = ""
	}
	if active, ok := s.activeAssetLocked(); ok && active.ID == asset.ID {
		if err := s.loadCheckpointsLocked(ctx, asset.ID); err != nil {
			return fmt.Errorf("checkpoint created, %w", err)
		}
	}
	return nil
}

func (s *Session) assetPathLocked(asset models.Asset) string {
	if asset.FilePath == "" || filepath.IsAbs(asset.FilePath) || s.state.Project.WorkingDirectory == "" {
		return asset.FilePath
	}
	return filepath.Join(s.state.Project.WorkingDirectory, asset.FilePath)
}
