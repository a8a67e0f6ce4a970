package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

var (
	checkMark = color.New(color.FgGreen).Sprint("✓")
	crossMark = color.New(color.FgRed).Sprint("✗")
	skipMark  = color.New(color.FgWhite, color.Faint).Sprint("⊘")
	faint     = color.New(color.Faint)
	bold      = color.New(color.Bold)
)

// RunProgress prints plan and step progress as it happens
type RunProgress struct {
	out     io.Writer
	spinner *stepSpinner
	mu      sync.Mutex
}

// NewRunProgress creates a progress sink writing to stderr. The spinner is
// only shown on a terminal.
func NewRunProgress() *RunProgress {
	return NewRunProgressTo(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))
}

// NewRunProgressTo creates a progress sink writing to out
func NewRunProgressTo(out io.Writer, spinner bool) *RunProgress {
	return &RunProgress{
		out:     out,
		spinner: newStepSpinner(out, spinner),
	}
}

// OnProgress renders a single event
func (p *RunProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Stage {
	case usecase.StagePlanStarted:
		p.spinner.stop()
		header := fmt.Sprintf("▶ %s", event.Message)
		if plan, ok := event.Metadata.(*models.DeploymentPlan); ok && plan.Description != "" {
			header += faint.Sprintf(" - %s", plan.Description)
		}
		fmt.Fprintln(p.out, bold.Sprint(header))

	case usecase.StageStepStarting:
		label := fmt.Sprintf("[%d/%d] %s", event.Current, event.Total, event.Message)
		if step, ok := event.Metadata.(*models.DeploymentStep); ok {
			label += faint.Sprintf(" (%s)", step.Action)
		}
		p.spinner.start(label)

	case usecase.StageStepCompleted:
		p.spinner.stop()
		name := ""
		if outcome, ok := event.Metadata.(*models.StepOutcome); ok && outcome.Step != nil {
			name = outcome.Step.Name
		}
		fmt.Fprintf(p.out, "  %s [%d/%d] %s  %s\n", checkMark, event.Current, event.Total, name, event.Message)

	case usecase.StageStepFailed:
		p.spinner.stop()
		name := ""
		if info, ok := event.Metadata.(*usecase.StepFailedInfo); ok && info.Step != nil {
			name = info.Step.Name
		}
		fmt.Fprintf(p.out, "  %s [%d/%d] %s  %s\n", crossMark, event.Current, event.Total, name,
			color.RedString(event.Message))

	case usecase.StagePlanSkipped:
		p.spinner.stop()
		fmt.Fprintf(p.out, "%s %s\n", skipMark, faint.Sprintf("skipped %s", event.Message))

	case usecase.StageMigrationApplied:
		fmt.Fprintf(p.out, "%s %s\n", skipMark, faint.Sprintf("%s already applied", event.Message))

	case usecase.StagePlanCompleted:
		p.spinner.stop()
		fmt.Fprintf(p.out, "%s %s completed (%d steps)\n", checkMark, event.Message, event.Total)
	}
}

// Info prints an info message
func (p *RunProgress) Info(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	resume := p.spinner.pause()
	color.New(color.FgCyan).Fprintln(p.out, message)
	resume()
}

// Error prints an error message
func (p *RunProgress) Error(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	resume := p.spinner.pause()
	color.New(color.FgRed).Fprintln(p.out, message)
	resume()
}

var _ usecase.ProgressSink = (*RunProgress)(nil)
