package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectPlan picks one plan with a fuzzy-searchable list
func (s *SelectorAdapter) SelectPlan(ctx context.Context, plans []*models.DeploymentPlan, prompt string) (*models.DeploymentPlan, error) {
	if s.config.NonInteractive {
		return nil, fmt.Errorf("%w: plan selection", domain.ErrInteractiveRequired)
	}

	if len(plans) == 0 {
		return nil, fmt.Errorf("no plans provided for selection")
	}

	if len(plans) == 1 {
		return plans[0], nil
	}

	options := formatPlanOptions(plans)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return plans[index], nil
}

// SelectPlans picks any number of plans with a checkbox list
func (s *SelectorAdapter) SelectPlans(ctx context.Context, plans []*models.DeploymentPlan, prompt string) ([]*models.DeploymentPlan, error) {
	if s.config.NonInteractive {
		return nil, fmt.Errorf("%w: plan selection", domain.ErrInteractiveRequired)
	}

	indices, err := multiSelect(formatPlanOptions(plans), prompt)
	if err != nil {
		return nil, err
	}

	selected := make([]*models.DeploymentPlan, len(indices))
	for i, idx := range indices {
		selected[i] = plans[idx]
	}
	return selected, nil
}

// formatPlanOptions creates display strings for plan selection
func formatPlanOptions(plans []*models.DeploymentPlan) []string {
	options := make([]string, len(plans))
	for i, plan := range plans {
		name := color.New(color.FgWhite, color.Bold).Sprint(plan.Name)
		steps := color.New(color.FgBlue).Sprintf("%d steps", len(plan.Steps))

		option := fmt.Sprintf("%s (%s)", name, steps)
		if !plan.Networks.IsEmpty() {
			option += " " + color.New(color.FgYellow).Sprintf("[%s]", plan.Networks)
		}
		if plan.Description != "" {
			option += " " + color.New(color.Faint).Sprint(plan.Description)
		}
		options[i] = option
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

var _ usecase.PlanSelector = (*SelectorAdapter)(nil)
