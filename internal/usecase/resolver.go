package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// referencePattern matches ${config.KEY}, ${steps.NAME} and ${steps.NAME.FIELD}
var referencePattern = regexp.MustCompile(`^\$\{([A-Za-z]+)\.([A-Za-z0-9_\-]+)(?:\.([A-Za-z]+))?\}$`)

// Step output fields that can be referenced
const (
	fieldAddress = "address"
	fieldResult  = "result"
	fieldTx      = "tx"
)

// resolutionScope tracks what a step may reference: the configuration
// literals and the outcomes of steps that already ran
type resolutionScope struct {
	config    models.Configuration
	positions map[string]int
	outcomes  map[string]*models.StepOutcome
}

func newResolutionScope(plan *models.DeploymentPlan, cfg models.Configuration) *resolutionScope {
	positions := make(map[string]int, len(plan.Steps))
	for i, step := range plan.Steps {
		positions[step.Name] = i
	}
	return &resolutionScope{
		config:    cfg,
		positions: positions,
		outcomes:  make(map[string]*models.StepOutcome, len(plan.Steps)),
	}
}

func (s *resolutionScope) record(outcome *models.StepOutcome) {
	s.outcomes[outcome.Step.Name] = outcome
}

// checkDependencies ensures every depends_on entry has already run
func (s *resolutionScope) checkDependencies(step *models.DeploymentStep) error {
	for _, dep := range step.DependsOn {
		if _, ok := s.outcomes[dep]; ok {
			continue
		}
		return &domain.UnresolvedDependencyError{
			Step:      step.Name,
			Kind:      domain.ReferenceStep,
			Reference: dep,
			Reason:    s.missingStepReason(dep),
		}
	}
	return nil
}

// resolveParams returns a copy of the step params with every reference replaced
func (s *resolutionScope) resolveParams(step *models.DeploymentStep) (models.Params, error) {
	resolved := make(models.Params, len(step.Params))
	for key, value := range step.Params {
		v, err := s.resolveValue(step.Name, value)
		if err != nil {
			return nil, err
		}
		resolved[key] = v
	}
	return resolved, nil
}

func (s *resolutionScope) resolveValue(stepName string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		return s.resolveString(stepName, v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := s.resolveValue(stepName, item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := s.resolveValue(stepName, item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return value, nil
	}
}

func (s *resolutionScope) resolveString(stepName, raw string) (any, error) {
	if !strings.Contains(raw, "${") {
		return raw, nil
	}

	m := referencePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, &domain.UnresolvedDependencyError{
			Step:      stepName,
			Reference: raw,
			Reason:    "malformed reference",
		}
	}
	namespace, name, field := m[1], m[2], m[3]

	switch domain.ReferenceKind(namespace) {
	case domain.ReferenceConfig:
		if field != "" {
			return nil, &domain.UnresolvedDependencyError{
				Step:      stepName,
				Kind:      domain.ReferenceConfig,
				Reference: name + "." + field,
				Reason:    "configuration values have no fields",
			}
		}
		v, ok := s.config.Lookup(name)
		if !ok {
			return nil, &domain.UnresolvedDependencyError{
				Step:      stepName,
				Kind:      domain.ReferenceConfig,
				Reference: name,
				Reason:    "key is not defined in the configuration",
			}
		}
		return v, nil

	case domain.ReferenceStep:
		return s.resolveStepOutput(stepName, name, field)

	default:
		return nil, &domain.UnresolvedDependencyError{
			Step:      stepName,
			Reference: raw,
			Reason:    fmt.Sprintf("unknown reference namespace '%s'", namespace),
		}
	}
}

func (s *resolutionScope) resolveStepOutput(stepName, target, field string) (any, error) {
	unresolved := func(reason string) error {
		ref := target
		if field != "" {
			ref += "." + field
		}
		return &domain.UnresolvedDependencyError{
			Step:      stepName,
			Kind:      domain.ReferenceStep,
			Reference: ref,
			Reason:    reason,
		}
	}

	outcome, ok := s.outcomes[target]
	if !ok {
		return nil, unresolved(s.missingStepReason(target))
	}

	switch field {
	case "", fieldAddress:
		addr, ok := outcome.Address()
		if !ok {
			return nil, unresolved(fmt.Sprintf("step is a %s and produced no address", outcome.Step.Action))
		}
		return addr, nil
	case fieldResult:
		if !outcome.HasResult {
			return nil, unresolved("step produced no result")
		}
		return outcome.Result, nil
	case fieldTx:
		if outcome.Receipt == nil {
			return nil, unresolved("step sent no transaction")
		}
		return outcome.Receipt.TxHash, nil
	default:
		return nil, unresolved(fmt.Sprintf("unknown step field '%s'", field))
	}
}

func (s *resolutionScope) missingStepReason(name string) string {
	if _, inPlan := s.positions[name]; inPlan {
		return "step has not run yet"
	}
	return "no such step in plan"
}
