package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// ProjectFile is the name of the project configuration file
const ProjectFile = "catapult.toml"

const (
	defaultPlansDir     = "plans"
	defaultArtifactsDir = "build/contracts"
)

// loadEnvFiles loads .env and .env.local so ${VAR} references expand
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadProjectConfig loads and parses catapult.toml. Raw values are kept;
// env expansion happens when a network is resolved.
func loadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	loadEnvFiles(projectRoot)

	path := filepath.Join(projectRoot, ProjectFile)
	var cfg config.ProjectConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}

	if cfg.PlansDir == "" {
		cfg.PlansDir = defaultPlansDir
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = defaultArtifactsDir
	}
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]config.NetworkConfig)
	}

	return &cfg, nil
}

// resolvePath makes p absolute relative to the project root
func resolvePath(projectRoot, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectRoot, p)
}
