package clientconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYaml = `
network: sepolia
networks:
  sepolia:
    rpc_url: "https://sepolia.example.org"
    chain_id: 11155111
    line_factory: "0x9000000000000000000000000000000000000009"
    arbiter: "0x6000000000000000000000000000000000000006"
    oracle: "0xb00000000000000000000000000000000000000b"
    swap_target: "0xc00000000000000000000000000000000000000c"
api:
  port: 9100
  connect_retries: 3
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadResolvesActiveNetwork(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYaml))
	require.NoError(t, err)

	network, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.example.org", network.RpcUrl)
	assert.Equal(t, int64(11155111), network.ChainId)
	assert.Equal(t, 9100, cfg.Api.Port)
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("CREDITLINE_SIGNER_PRIVATE_KEY", "deadbeef")

	cfg, err := Load(writeConfig(t, testConfigYaml))
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", cfg.Signer.PrivateKey)
}

func TestLoadRejectsUnknownNetwork(t *testing.T) {
	_, err := Load(writeConfig(t, `
network: mainnet
networks:
  sepolia:
    rpc_url: "https://sepolia.example.org"
`))
	require.Error(t, err)
}

func TestLoadRejectsMissingNetworkSelection(t *testing.T) {
	_, err := Load(writeConfig(t, `
networks:
  sepolia:
    rpc_url: "https://sepolia.example.org"
`))
	require.Error(t, err)
}

func TestConfirmTimeoutDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYaml))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Api.ConfirmTimeout())
}
