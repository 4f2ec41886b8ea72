// Package config loads flowkit configuration from a YAML file, a .env file
// and the process environment using Viper.
//
// Environment variables map onto nested keys by splitting on underscores,
// so CACHE_MAX_BYTES sets cache.max_bytes and ENGINE_MAX_PARALLEL sets
// engine.max_parallel.
//
//	var cfg config.Config
//	if err := config.Load("flowkit", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
