package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// Repository loads compiled contracts from the artifacts directory. Both the
// Truffle layout (build/contracts/X.json) and the Foundry layout
// (out/X.sol/X.json) are supported.
type Repository struct {
	artifactsDir string
	contracts    map[string]*models.Contract
	log          *slog.Logger
	mu           sync.RWMutex
}

// NewRepository creates a new contract repository
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		artifactsDir: cfg.ArtifactsDir,
		contracts:    make(map[string]*models.Contract),
		log:          log.With("component", "contracts"),
	}
}

// GetContract returns the compiled contract with the given name
func (r *Repository) GetContract(ctx context.Context, name string) (*models.Contract, error) {
	r.mu.RLock()
	contract, ok := r.contracts[name]
	r.mu.RUnlock()
	if ok {
		return contract, nil
	}

	path, err := r.findArtifact(name)
	if err != nil {
		return nil, err
	}

	contract, err = loadArtifact(name, path)
	if err != nil {
		return nil, err
	}
	r.log.Debug("loaded artifact", "contract", name, "path", path)

	r.mu.Lock()
	r.contracts[name] = contract
	r.mu.Unlock()

	return contract, nil
}

func (r *Repository) findArtifact(name string) (string, error) {
	candidates := []string{
		filepath.Join(r.artifactsDir, name+".json"),
		filepath.Join(r.artifactsDir, name+".sol", name+".json"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// Foundry names the directory after the source file, which may hold several contracts
	var found string
	err := filepath.WalkDir(r.artifactsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name+".json" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to search artifacts in %s: %w", r.artifactsDir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s (looked in %s)", domain.ErrContractNotFound, name, r.artifactsDir)
	}
	return found, nil
}

func loadArtifact(name, path string) (*models.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var artifact models.ArtifactFile
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	contract := &models.Contract{Name: name, ArtifactPath: path}

	if len(artifact.ABI) > 0 {
		parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI in %s: %w", path, err)
		}
		contract.ABI = &parsed
	}

	code, err := artifact.BytecodeHex()
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode in %s: %w", path, err)
	}
	if strings.Contains(code, "__") {
		return nil, fmt.Errorf("artifact %s has unlinked library placeholders", path)
	}
	contract.Bytecode = common.FromHex(code)

	return contract, nil
}

var _ usecase.ContractRepository = (*Repository)(nil)
