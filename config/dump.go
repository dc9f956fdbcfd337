package config

import (
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// YAML renders the effective configuration with the auth secret masked.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	if out.Auth.Secret != "" {
		out.Auth.Secret = redacted
	}
	return yaml.Marshal(&out)
}
