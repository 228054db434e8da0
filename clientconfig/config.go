package clientconfig

import "time"

type Config struct {
	// Network selects the active entry in Networks.
	Network  string                   `koanf:"network"`
	Networks map[string]NetworkConfig `koanf:"networks"`
	Signer   SignerConfig             `koanf:"signer"`
	Api      ApiConfig                `koanf:"api"`
}

// NetworkConfig pins the protocol's fixed addresses for one network. The
// arbiter/oracle/swap-target triple is environment-provided and composed
// into common-path deployments.
type NetworkConfig struct {
	RpcUrl      string `koanf:"rpc_url"`
	ChainId     int64  `koanf:"chain_id"`
	LineFactory string `koanf:"line_factory"`
	Arbiter     string `koanf:"arbiter"`
	Oracle      string `koanf:"oracle"`
	SwapTarget  string `koanf:"swap_target"`
}

type SignerConfig struct {
	// PrivateKey is a hex-encoded secp256k1 key. Normally injected via
	// the CREDITLINE_SIGNER_PRIVATE_KEY environment override rather than
	// written into the file.
	PrivateKey string `koanf:"private_key"`
}

type ApiConfig struct {
	Port                  int `koanf:"port"`
	ConfirmTimeoutSeconds int `koanf:"confirm_timeout_seconds"`
	ConnectRetries        int `koanf:"connect_retries"`
}

func (a ApiConfig) ConfirmTimeout() time.Duration {
	if a.ConfirmTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(a.ConfirmTimeoutSeconds) * time.Second
}
