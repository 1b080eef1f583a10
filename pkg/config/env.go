// Package config reads process-level overrides from the environment.
package config

import (
	"github.com/joeydtaylor/steeze-connect/pkg/manifest"
	"github.com/kelseyhightower/envconfig"
)

// Env holds CSP_* variables. Empty values leave the manifest untouched.
type Env struct {
	Manifest      string `envconfig:"MANIFEST" default:"manifest.toml"`
	ListenAddress string `envconfig:"LISTEN_ADDRESS"`
	LogDir        string `envconfig:"LOG_DIR"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("CSP", &e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Load reads the manifest named by the environment and applies overrides.
func Load() (manifest.Config, error) {
	e, err := LoadEnv()
	if err != nil {
		return manifest.Config{}, err
	}
	cfg, err := manifest.Load(e.Manifest)
	if err != nil {
		return manifest.Config{}, err
	}
	e.Apply(&cfg)
	return cfg, cfg.Validate()
}

func (e Env) Apply(cfg *manifest.Config) {
	if e.ListenAddress != "" {
		cfg.Server.Listen = e.ListenAddress
	}
	if e.LogDir != "" {
		cfg.Log.Dir = e.LogDir
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
}
