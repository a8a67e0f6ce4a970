package models

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// stepNamePattern limits step names to what ${steps.NAME} can reference
var stepNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ActionType identifies what a deployment step does on-chain
type ActionType string

const (
	// ActionDeploy creates a contract and records a DeployedArtifact
	ActionDeploy ActionType = "deploy"
	// ActionUpgrade points an upgradeable proxy at a new implementation
	ActionUpgrade ActionType = "upgrade"
	// ActionCall invokes a method on a deployed or proxied contract
	ActionCall ActionType = "call"
	// ActionRegister sets an address or uint property on a settings registry
	ActionRegister ActionType = "register"
)

// Actions lists every supported action in display order
var Actions = []ActionType{ActionDeploy, ActionUpgrade, ActionCall, ActionRegister}

// Well-known param keys
const (
	ParamContract       = "contract"
	ParamArgs           = "args"
	ParamProxy          = "proxy"
	ParamImplementation = "implementation"
	ParamMethod         = "method"
	ParamTarget         = "target"
	ParamReturns        = "returns"
	ParamView           = "view"
	ParamRegistry       = "registry"
	ParamKey            = "key"
	ParamValue          = "value"
	ParamKind           = "kind"
)

// Register kinds
const (
	RegisterKindAddress = "address"
	RegisterKindUint    = "uint"
)

// DefaultUpgradeMethod is the OwnedUpgradeabilityProxy upgrade entry point
const DefaultUpgradeMethod = "upgradeTo(address)"

var requiredParams = map[ActionType][]string{
	ActionDeploy:   {ParamContract},
	ActionUpgrade:  {ParamProxy, ParamImplementation},
	ActionCall:     {ParamTarget, ParamMethod},
	ActionRegister: {ParamRegistry, ParamKey, ParamValue},
}

// Params holds the named arguments of a step. Values are YAML scalars, lists
// or reference strings such as ${config.registry_address}.
type Params map[string]any

// GetString returns the string form of a scalar param
func (p Params) GetString(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetList returns a list param; a scalar is treated as a one-element list
func (p Params) GetList(key string) []any {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// GetBool returns a boolean param, accepting "true"/"false" strings
func (p Params) GetBool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// Has reports whether the param is present and non-empty
func (p Params) Has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// DeploymentStep is a single ordered unit of work in a plan
type DeploymentStep struct {
	Name      string     `yaml:"name" json:"name"`
	Action    ActionType `yaml:"action" json:"action"`
	DependsOn []string   `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
	Params    Params     `yaml:"params,omitempty" json:"params,omitempty"`
}

// Validate checks the step in isolation
func (s *DeploymentStep) Validate() error {
	if s.Name == "" {
		return errors.New("step name is required")
	}
	if !stepNamePattern.MatchString(s.Name) {
		return fmt.Errorf("step name '%s' may only contain letters, digits, '_' and '-'", s.Name)
	}

	required, ok := requiredParams[s.Action]
	if !ok {
		return fmt.Errorf("step '%s' has unknown action '%s'", s.Name, s.Action)
	}

	for _, key := range required {
		if !s.Params.Has(key) {
			return fmt.Errorf("step '%s' (%s) requires param '%s'", s.Name, s.Action, key)
		}
	}

	if s.Action == ActionRegister {
		switch s.Params.GetString(ParamKind) {
		case "", RegisterKindAddress, RegisterKindUint:
		default:
			return fmt.Errorf("step '%s' has unknown register kind '%s'", s.Name, s.Params.GetString(ParamKind))
		}
	}

	if slices.Contains(s.DependsOn, s.Name) {
		return fmt.Errorf("step '%s' cannot depend on itself", s.Name)
	}

	return nil
}

// NetworkFilter gates a plan to a set of networks. An empty filter matches all.
type NetworkFilter struct {
	Only   []string `yaml:"only,omitempty" json:"only,omitempty"`
	Except []string `yaml:"except,omitempty" json:"except,omitempty"`
}

// Matches reports whether the plan should run on network
func (f NetworkFilter) Matches(network string) bool {
	if len(f.Only) > 0 && !slices.Contains(f.Only, network) {
		return false
	}
	return !slices.Contains(f.Except, network)
}

// IsEmpty reports whether the filter matches every network
func (f NetworkFilter) IsEmpty() bool {
	return len(f.Only) == 0 && len(f.Except) == 0
}

func (f NetworkFilter) String() string {
	var parts []string
	if len(f.Only) > 0 {
		parts = append(parts, "only "+strings.Join(f.Only, ", "))
	}
	if len(f.Except) > 0 {
		parts = append(parts, "except "+strings.Join(f.Except, ", "))
	}
	if len(parts) == 0 {
		return "all networks"
	}
	return strings.Join(parts, "; ")
}

// DeploymentPlan is an ordered list of steps gated by a network filter
type DeploymentPlan struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Networks    NetworkFilter     `yaml:"networks,omitempty" json:"networks,omitempty"`
	Config      Configuration     `yaml:"config,omitempty" json:"config,omitempty"`
	Steps       []*DeploymentStep `yaml:"steps" json:"steps"`

	// Set by the loader
	Path  string `yaml:"-" json:"path,omitempty"`
	Order int    `yaml:"-" json:"order,omitempty"`
}

// Validate checks the plan structure. Reference resolution is deferred to run time.
func (p *DeploymentPlan) Validate() error {
	if p.Name == "" {
		return errors.New("plan name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan '%s' has no steps", p.Name)
	}

	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		if step == nil {
			return fmt.Errorf("plan '%s' has an empty step at position %d", p.Name, i+1)
		}
		if err := step.Validate(); err != nil {
			return err
		}
		if seen[step.Name] {
			return fmt.Errorf("plan '%s' has duplicate step name '%s'", p.Name, step.Name)
		}
		seen[step.Name] = true
	}

	return nil
}

// Step returns the step with the given name
func (p *DeploymentPlan) Step(name string) (*DeploymentStep, int, bool) {
	for i, step := range p.Steps {
		if step.Name == name {
			return step, i, true
		}
	}
	return nil, -1, false
}

// CountActions returns how many steps of each action the plan holds
func (p *DeploymentPlan) CountActions() map[ActionType]int {
	counts := make(map[ActionType]int)
	for _, step := range p.Steps {
		counts[step.Action]++
	}
	return counts
}
