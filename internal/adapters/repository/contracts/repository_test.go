package contracts_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

const truffleArtifact = `{
  "contractName": "SettingsRegistry",
  "abi": [
    {"type": "function", "name": "setAddressProperty", "inputs": [{"name": "_propId", "type": "bytes32"}, {"name": "_value", "type": "address"}], "outputs": [], "stateMutability": "nonpayable"}
  ],
  "bytecode": "0x608060405234801561001057600080fd5b50"
}`

const foundryArtifact = `{
  "abi": [
    {"type": "constructor", "inputs": [{"name": "_registry", "type": "address"}], "stateMutability": "nonpayable"}
  ],
  "bytecode": {"object": "0x6080604052", "linkReferences": {}}
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newRepository(dir string) *contracts.Repository {
	return contracts.NewRepository(&config.RuntimeConfig{ArtifactsDir: dir}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRepositoryGetContract(t *testing.T) {
	ctx := context.Background()

	t.Run("truffle layout", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "SettingsRegistry.json"), truffleArtifact)

		contract, err := newRepository(dir).GetContract(ctx, "SettingsRegistry")
		require.NoError(t, err)
		assert.Equal(t, "SettingsRegistry", contract.Name)
		assert.Equal(t, byte(0x60), contract.Bytecode[0])
		require.NotNil(t, contract.ABI)
		assert.Contains(t, contract.ABI.Methods, "setAddressProperty")
		assert.False(t, contract.HasConstructorInputs())
	})

	t.Run("foundry layout", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Proxy.sol", "Proxy.json"), foundryArtifact)

		contract, err := newRepository(dir).GetContract(ctx, "Proxy")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, contract.Bytecode)
		assert.True(t, contract.HasConstructorInputs())
	})

	t.Run("foundry source file with several contracts", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Tokens.sol", "StandardERC223.json"), foundryArtifact)
		writeFile(t, filepath.Join(dir, "build-info", "StandardERC223.json"), `{}`)

		contract, err := newRepository(dir).GetContract(ctx, "StandardERC223")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "Tokens.sol", "StandardERC223.json"), contract.ArtifactPath)
	})

	t.Run("cached after first load", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "SettingsRegistry.json")
		writeFile(t, path, truffleArtifact)
		repo := newRepository(dir)

		first, err := repo.GetContract(ctx, "SettingsRegistry")
		require.NoError(t, err)
		require.NoError(t, os.Remove(path))

		second, err := repo.GetContract(ctx, "SettingsRegistry")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("missing contract", func(t *testing.T) {
		_, err := newRepository(t.TempDir()).GetContract(ctx, "Nope")
		assert.ErrorIs(t, err, domain.ErrContractNotFound)

		_, err = newRepository(filepath.Join(t.TempDir(), "absent")).GetContract(ctx, "Nope")
		assert.ErrorIs(t, err, domain.ErrContractNotFound)
	})

	t.Run("unlinked libraries", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Linked.json"), `{"abi": [], "bytecode": "0x6080__$abc$__"}`)

		_, err := newRepository(dir).GetContract(ctx, "Linked")
		assert.Error(t, err)
	})

	t.Run("broken json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Broken.json"), `{"abi": [`)

		_, err := newRepository(dir).GetContract(ctx, "Broken")
		assert.Error(t, err)
	})
}
