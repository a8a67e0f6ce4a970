package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// MigrationLedgerAdapter records completed plans per network in
// .catapult/migrations/<network>.json
type MigrationLedgerAdapter struct {
	dir string
	mu  sync.Mutex
}

// NewMigrationLedgerAdapter creates a new MigrationLedgerAdapter
func NewMigrationLedgerAdapter(cfg *config.RuntimeConfig) *MigrationLedgerAdapter {
	return &MigrationLedgerAdapter{
		dir: filepath.Join(cfg.DataDir, "migrations"),
	}
}

// Completed returns plan name -> completion time
func (l *MigrationLedgerAdapter) Completed(ctx context.Context, network string) (map[string]time.Time, error) {
	path, err := networkFile(l.dir, network)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(path)
}

// MarkCompleted records that plan finished on network at the given time
func (l *MigrationLedgerAdapter) MarkCompleted(ctx context.Context, network, plan string, at time.Time) error {
	path, err := networkFile(l.dir, network)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	completed, err := l.load(path)
	if err != nil {
		return err
	}
	completed[plan] = at.UTC()
	return writeJSON(path, completed)
}

// Reset forgets every completed plan of network
func (l *MigrationLedgerAdapter) Reset(ctx context.Context, network string) error {
	path, err := networkFile(l.dir, network)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}

func (l *MigrationLedgerAdapter) load(path string) (map[string]time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]time.Time), nil
		}
		return nil, fmt.Errorf("failed to read migrations file: %w", err)
	}

	completed := make(map[string]time.Time)
	if err := json.Unmarshal(data, &completed); err != nil {
		return nil, fmt.Errorf("failed to parse migrations file %s: %w", path, err)
	}
	// a literal null leaves the map nil
	if completed == nil {
		completed = make(map[string]time.Time)
	}
	return completed, nil
}

var _ usecase.MigrationLedger = (*MigrationLedgerAdapter)(nil)
