package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/pkg/utils"
)

const testConfigYAML = `
logger:
  output: stdout
  level: info

stream:
  endpoint: wss://rpc.example.com
  mint: "TokenMint1111111111111111111111111111111111"
  commitment: processed
  max_attempts: 5

metrics:
  sol_price_usd: 150
  total_supply: 1000000000

strategy:
  preset: default
  overrides:
    profit_target: 0.1
    fixed_token_amount: 2000

ledger:
  dir: ./trades

publisher:
  console: true
  feishu:
    webhook_url: ""
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))
	return path
}

func TestLoadScanRoundTrip(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(writeConfig(t)))

	cfg := m.GetAppConfig()
	assert.Equal(t, "wss://rpc.example.com", cfg.Stream.Endpoint)
	assert.Equal(t, "TokenMint1111111111111111111111111111111111", cfg.Stream.Mint)
	assert.Equal(t, "processed", cfg.Stream.Commitment)
	assert.Equal(t, 5, cfg.Stream.MaxAttempts)
	assert.Equal(t, 150.0, cfg.Metrics.SolPriceUSD)
	assert.Equal(t, int64(1_000_000_000), cfg.Metrics.TotalSupply)
	assert.Equal(t, "./trades", cfg.Ledger.Dir)
	assert.True(t, cfg.Publisher.Console)

	// preset加overrides合成
	strategyCfg, err := m.GetStrategyConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.1, strategyCfg.ProfitTarget)
	assert.Equal(t, 2000.0, strategyCfg.FixedTokenAmount)
	assert.Equal(t, 0.02, strategyCfg.StopLoss)
}

func TestEndpointEnvOverride(t *testing.T) {
	utils.SetEnvPrefix("TOKEN_PILOT_")
	t.Setenv("TOKEN_PILOT_ENDPOINT", "wss://override.example.com")

	m := NewManager()
	require.NoError(t, m.Load(writeConfig(t)))

	assert.Equal(t, "wss://override.example.com", m.GetAppConfig().Stream.Endpoint)
}

func TestValidateRejectsMissingMint(t *testing.T) {
	cfg := &AppConfig{}
	cfg.Stream.Endpoint = "wss://rpc.example.com"
	assert.Error(t, cfg.validate())

	cfg.Stream.Mint = "TokenMint1111111111111111111111111111111111"
	assert.NoError(t, cfg.validate())
}
