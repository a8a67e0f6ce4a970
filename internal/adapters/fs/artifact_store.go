package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// ArtifactStoreAdapter keeps the deployed artifacts of each network in
// .catapult/deployments/<network>.json
type ArtifactStoreAdapter struct {
	dir string
	mu  sync.Mutex
}

// NewArtifactStoreAdapter creates a new ArtifactStoreAdapter
func NewArtifactStoreAdapter(cfg *config.RuntimeConfig) *ArtifactStoreAdapter {
	return &ArtifactStoreAdapter{
		dir: filepath.Join(cfg.DataDir, "deployments"),
	}
}

// SaveArtifacts merges artifacts into the network file. An artifact replaces
// an earlier record of the same plan and step.
func (s *ArtifactStoreAdapter) SaveArtifacts(ctx context.Context, network string, artifacts []*models.DeployedArtifact) error {
	path, err := networkFile(s.dir, network)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(path)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, a := range existing {
		index[artifactKey(a)] = i
	}

	for _, a := range artifacts {
		key := artifactKey(a)
		if i, ok := index[key]; ok {
			existing[i] = a
			continue
		}
		index[key] = len(existing)
		existing = append(existing, a)
	}

	return writeJSON(path, existing)
}

// ListArtifacts returns the recorded artifacts in the order they were first saved
func (s *ArtifactStoreAdapter) ListArtifacts(ctx context.Context, network string) ([]*models.DeployedArtifact, error) {
	path, err := networkFile(s.dir, network)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(path)
}

func (s *ArtifactStoreAdapter) load(path string) ([]*models.DeployedArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.DeployedArtifact{}, nil
		}
		return nil, fmt.Errorf("failed to read artifacts file: %w", err)
	}

	var artifacts []*models.DeployedArtifact
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("failed to parse artifacts file %s: %w", path, err)
	}
	return artifacts, nil
}

func artifactKey(a *models.DeployedArtifact) string {
	return a.Plan + "/" + a.Step
}

// networkFile returns <dir>/<network>.json, rejecting names that would escape dir
func networkFile(dir, network string) (string, error) {
	if network == "" || network == "." || network == ".." || strings.ContainsAny(network, `/\`) {
		return "", fmt.Errorf("invalid network name '%s'", network)
	}
	return filepath.Join(dir, network+".json"), nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var _ usecase.ArtifactStore = (*ArtifactStoreAdapter)(nil)
