// Package clientconfig loads the client configuration from a yaml file
// with environment-variable overrides. The per-network protocol addresses
// live here as an explicit table, never as free-standing lookups.
package clientconfig

import (
	"strings"

	"creditline-client/logging"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "CREDITLINE_"

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "loading config file %s", configPath)
	}

	// CREDITLINE_SIGNER_PRIVATE_KEY -> signer.private_key, etc.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, "loading env overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if _, err := cfg.ActiveNetwork(); err != nil {
		return nil, err
	}

	logging.Info("Loaded configuration", logging.Config, "path", configPath, "network", cfg.Network)
	return &cfg, nil
}

// ActiveNetwork resolves the network the client is pointed at.
func (c *Config) ActiveNetwork() (NetworkConfig, error) {
	if c.Network == "" {
		return NetworkConfig{}, errors.New("config: network is required")
	}
	network, ok := c.Networks[c.Network]
	if !ok {
		return NetworkConfig{}, errors.Errorf("config: network %q has no entry in networks", c.Network)
	}
	if network.RpcUrl == "" {
		return NetworkConfig{}, errors.Errorf("config: network %q has no rpc_url", c.Network)
	}
	return network, nil
}
