package plans

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
	"gopkg.in/yaml.v3"
)

var orderPrefix = regexp.MustCompile(`^(\d+)[_\-.]`)

// Repository reads deployment plans from YAML files in the plans directory.
// Files are ordered like migrations by their numeric prefix (2_registry.yaml,
// 10_tokens.yaml).
type Repository struct {
	plansDir    string
	projectRoot string
	log         *slog.Logger
}

// NewRepository creates a new plan repository
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		plansDir:    cfg.PlansDir,
		projectRoot: cfg.ProjectRoot,
		log:         log.With("component", "plans"),
	}
}

// ListPlans loads every plan file in order
func (r *Repository) ListPlans(ctx context.Context) ([]*models.DeploymentPlan, error) {
	entries, err := os.ReadDir(r.plansDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("plans directory %s does not exist", r.plansDir)
		}
		return nil, fmt.Errorf("failed to read plans directory: %w", err)
	}

	var plans []*models.DeploymentPlan
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isPlanFile(entry.Name()) {
			continue
		}

		path := filepath.Join(r.plansDir, entry.Name())
		plan, err := LoadPlan(path)
		if err != nil {
			return nil, err
		}

		if other, ok := seen[plan.Name]; ok {
			return nil, fmt.Errorf("%w: plan name '%s' used by both %s and %s",
				domain.ErrInvalidPlan, plan.Name, filepath.Base(other), entry.Name())
		}
		seen[plan.Name] = path
		plans = append(plans, plan)
	}

	sortPlans(plans)
	r.log.Debug("loaded plans", "count", len(plans), "dir", r.plansDir)
	return plans, nil
}

// GetPlan finds a plan by name, file name or path
func (r *Repository) GetPlan(ctx context.Context, ref string) (*models.DeploymentPlan, error) {
	if isPlanFile(ref) {
		for _, path := range r.pathCandidates(ref) {
			if _, err := os.Stat(path); err == nil {
				return LoadPlan(path)
			}
		}
	}

	plans, err := r.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	for _, plan := range plans {
		base := filepath.Base(plan.Path)
		if plan.Name == ref || base == ref || strings.TrimSuffix(base, filepath.Ext(base)) == ref {
			return plan, nil
		}
	}

	return nil, fmt.Errorf("plan '%s': %w", ref, domain.ErrNotFound)
}

func (r *Repository) pathCandidates(ref string) []string {
	if filepath.IsAbs(ref) {
		return []string{ref}
	}
	return []string{
		ref,
		filepath.Join(r.projectRoot, ref),
		filepath.Join(r.plansDir, ref),
	}
}

// LoadPlan parses a single plan file. The plan name defaults to the file
// name without its extension.
func LoadPlan(path string) (*models.DeploymentPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}

	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if plan.Name == "" {
		plan.Name = stem
	}
	plan.Path = path
	plan.Order = planOrder(stem)
	return plan, nil
}

// ParsePlan decodes plan YAML. Unknown fields are rejected so typos such as
// "depends-on" surface instead of being ignored.
func ParsePlan(data []byte) (*models.DeploymentPlan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var plan models.DeploymentPlan
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty plan file", domain.ErrInvalidPlan)
		}
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", domain.ErrInvalidPlan, err)
	}
	return &plan, nil
}

func isPlanFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// planOrder returns the numeric prefix of a file stem, or -1 when there is none
func planOrder(stem string) int {
	m := orderPrefix.FindStringSubmatch(stem)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}

// sortPlans orders numbered plans first by number, then unnumbered plans by name
func sortPlans(plans []*models.DeploymentPlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		switch {
		case a.Order >= 0 && b.Order >= 0 && a.Order != b.Order:
			return a.Order < b.Order
		case a.Order >= 0 && b.Order < 0:
			return true
		case a.Order < 0 && b.Order >= 0:
			return false
		default:
			return filepath.Base(a.Path) < filepath.Base(b.Path)
		}
	})
}

var _ usecase.PlanRepository = (*Repository)(nil)
