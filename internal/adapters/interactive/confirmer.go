package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// ConfirmerAdapter asks yes/no questions on the terminal
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg}
}

// Confirm returns true when the user answers yes
func (c *ConfirmerAdapter) Confirm(ctx context.Context, message string) (bool, error) {
	if c.config.NonInteractive {
		return false, fmt.Errorf("%w: %s (pass --yes to confirm)", domain.ErrInteractiveRequired, message)
	}

	prompt := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
	}

	if _, err := prompt.Run(); err != nil {
		// promptui reports "no" as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return true, nil
}

var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
