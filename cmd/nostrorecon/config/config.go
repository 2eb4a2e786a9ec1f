// Package config assembles component configurations from viper settings and
// CLI flags.
package config

import (
	"nostro-reconciliation-service/internal/engine"
	"nostro-reconciliation-service/internal/parsers"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/spf13/viper"
)

// CreateLogger builds the process logger from viper settings
func CreateLogger() (logger.Logger, error) {
	cfg := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}
	if format := viper.GetString("log-format"); format != "" {
		cfg.Format = logger.Format(format)
	}
	return logger.NewLogger(cfg)
}

// CreateRules returns the matching rule list: rules from the config file
// when present, the standard nostro rule set otherwise. Validation happens
// inside the engine, before any matching begins.
func CreateRules() ([]engine.Rule, error) {
	if !viper.IsSet("rules") {
		return engine.DefaultRules(), nil
	}

	var rules []engine.Rule
	if err := viper.UnmarshalKey("rules", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateFeedConfigs returns the parser configs for both feeds
func CreateFeedConfigs() (*parsers.FeedConfig, *parsers.FeedConfig) {
	gl := parsers.GLFeedConfig()
	swift := parsers.SwiftFeedConfig()

	if col := viper.GetString("gl.amount-column"); col != "" {
		gl.AmountColumn = col
	}
	if col := viper.GetString("gl.date-column"); col != "" {
		gl.DateColumn = col
	}
	if col := viper.GetString("swift.amount-column"); col != "" {
		swift.AmountColumn = col
	}
	if col := viper.GetString("swift.date-column"); col != "" {
		swift.DateColumn = col
	}

	return gl, swift
}
