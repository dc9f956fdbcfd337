// Package config loads the fanoutd configuration.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, .env
// files and FANOUT_-prefixed environment variables (FANOUT_POOL_WORKERS sets
// pool.workers). The loaded Config converts into the option structs of the
// pool, resilience, observe, cache and auth packages.
package config
