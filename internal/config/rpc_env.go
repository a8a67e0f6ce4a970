package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates a conventional env var name for a network's RPC URL.
// Examples: kovan -> KOVAN_RPC_URL, celo-sepolia -> CELO_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// expandValue expands ${VAR} references and reports the variable name when
// the value is a pure reference to an unset variable
func expandValue(raw string) (string, string) {
	if name, ok := DetectEnvVar(raw); ok {
		if _, set := os.LookupEnv(name); !set {
			return "", name
		}
	}
	return os.ExpandEnv(raw), ""
}

// expandConfig expands env references in string config values
func expandConfig(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = os.ExpandEnv(s)
			continue
		}
		out[k] = v
	}
	return out
}
