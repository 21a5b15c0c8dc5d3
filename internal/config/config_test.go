package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcore/swapcore/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_ParsesYAMLAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
chains:
  bitcoin:
    rpc_url: "http://localhost:8332"
    network: "testnet"
log_level: "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8332", cfg.Chains[domain.ChainBitcoin].RPCURL)
	// Timelock/Watchdog defaults must survive a partial YAML override.
	assert.Equal(t, 1800.0, cfg.Timelock.Source.Min)
	assert.Equal(t, 900.0, cfg.Timelock.Dest.Min)
	assert.Equal(t, 4, cfg.Watchdog.MaxConcurrent)
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level: "info"`), 0o600))

	t.Setenv("SWAPCORE_LOG_LEVEL", "warn")
	t.Setenv("SWAPCORE_ETHEREUM_RPC_URL", "http://override:8545")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://override:8545", cfg.Chains[domain.ChainEthereum].RPCURL)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestValidate_RejectsBadTimelock(t *testing.T) {
	cfg := Default()
	cfg.Timelock.Source.Sigma = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroBuffer(t *testing.T) {
	cfg := Default()
	cfg.Timelock.Buffer = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroWatchdogConcurrency(t *testing.T) {
	cfg := Default()
	cfg.Watchdog.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())
}

func TestChainConfig_ToAdapterConfig(t *testing.T) {
	cc := ChainConfig{RPCURL: "http://x", APIKey: "k", NetworkTag: "mainnet"}
	ac := cc.ToAdapterConfig()
	assert.Equal(t, "http://x", ac.RPCURL)
	assert.Equal(t, "k", ac.APIKey)
	assert.Equal(t, "mainnet", ac.NetworkTag)
}
