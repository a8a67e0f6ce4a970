package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEnvVar(t *testing.T) {
	tests := []struct {
		name       string
		rawValue   string
		wantEnvVar string
		wantIsVar  bool
	}{
		{
			name:       "simple env var",
			rawValue:   "${KOVAN_RPC_URL}",
			wantEnvVar: "KOVAN_RPC_URL",
			wantIsVar:  true,
		},
		{
			name:       "env var with path suffix",
			rawValue:   "${MY_VAR}/path",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "hardcoded URL",
			rawValue:   "http://localhost:8545",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "empty string",
			rawValue:   "",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "env var starting with underscore",
			rawValue:   "${_MY_VAR}",
			wantEnvVar: "_MY_VAR",
			wantIsVar:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envVar, isVar := DetectEnvVar(tt.rawValue)
			assert.Equal(t, tt.wantEnvVar, envVar)
			assert.Equal(t, tt.wantIsVar, isVar)
		})
	}
}

func TestGenerateEnvVarName(t *testing.T) {
	assert.Equal(t, "KOVAN_RPC_URL", GenerateEnvVarName("kovan"))
	assert.Equal(t, "CELO_SEPOLIA_RPC_URL", GenerateEnvVarName("celo-sepolia"))
	assert.Equal(t, "ARB_ONE_RPC_URL", GenerateEnvVarName("arb.one"))
}

func TestExpandValue(t *testing.T) {
	t.Setenv("CATAPULT_TEST_SET", "value")

	v, missing := expandValue("${CATAPULT_TEST_SET}")
	assert.Equal(t, "value", v)
	assert.Empty(t, missing)

	v, missing = expandValue("${CATAPULT_TEST_DEFINITELY_UNSET}")
	assert.Empty(t, v)
	assert.Equal(t, "CATAPULT_TEST_DEFINITELY_UNSET", missing)

	v, missing = expandValue("http://localhost:8545")
	assert.Equal(t, "http://localhost:8545", v)
	assert.Empty(t, missing)
}
