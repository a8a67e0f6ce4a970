package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidPlan is returned when a deployment plan is structurally broken
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrNetworkMismatch marks a plan that was skipped because its network
	// filter excludes the target network. It is never returned as a failure.
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrNetworkNotConfigured is returned when a network is missing from catapult.toml
	ErrNetworkNotConfigured = errors.New("network not configured")

	// ErrContractNotFound is returned when a contract artifact can't be found
	ErrContractNotFound = errors.New("contract not found")

	// ErrReverted is returned when a mined transaction has a failed status
	ErrReverted = errors.New("transaction reverted")

	// ErrAborted is returned when the user declines a confirmation prompt
	ErrAborted = errors.New("aborted by user")

	// ErrInteractiveRequired is returned when a prompt is needed in non-interactive mode
	ErrInteractiveRequired = errors.New("interactive input required")
)

// ReferenceKind tells which namespace an unresolved reference pointed into
type ReferenceKind string

const (
	ReferenceConfig ReferenceKind = "config"
	ReferenceStep   ReferenceKind = "steps"
)

// UnresolvedDependencyError is returned when a step references a configuration
// key or a prior step output that does not exist at the time the step runs.
type UnresolvedDependencyError struct {
	Step      string
	Kind      ReferenceKind
	Reference string
	Reason    string
}

func (e *UnresolvedDependencyError) Error() string {
	kind := string(e.Kind)
	if kind == "" {
		kind = "reference"
	}
	msg := fmt.Sprintf("step '%s' references unresolved %s '%s'", e.Step, kind, e.Reference)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ChainCallError wraps a failed deployment, transaction or call
type ChainCallError struct {
	Op      string
	Target  string
	Timeout bool
	Err     error
}

// NewChainCallError classifies err as a timeout when it stems from a context deadline
func NewChainCallError(op, target string, err error) *ChainCallError {
	return &ChainCallError{
		Op:      op,
		Target:  target,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

func (e *ChainCallError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Target != "" {
		b.WriteString(" ")
		b.WriteString(e.Target)
	}
	if e.Timeout {
		b.WriteString(" timed out")
	} else {
		b.WriteString(" failed")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ChainCallError) Unwrap() error {
	return e.Err
}

// DeploymentError names the step that aborted a run
type DeploymentError struct {
	Step  string
	Cause error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("step '%s' failed: %v", e.Step, e.Cause)
}

func (e *DeploymentError) Unwrap() error {
	return e.Cause
}

// FailedStep returns the name of the step that aborted the run, if err carries one
func FailedStep(err error) (string, bool) {
	var depErr *DeploymentError
	if errors.As(err, &depErr) {
		return depErr.Step, true
	}
	return "", false
}
