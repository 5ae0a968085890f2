package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix prefixes every environment variable read by the server.
const EnvPrefix = "WORDBOOK"

// parseEnv overlays WORDBOOK_* variables. Unset variables leave fields alone.
func parseEnv(config *Config) error {
	return envconfig.Process(EnvPrefix, config)
}
