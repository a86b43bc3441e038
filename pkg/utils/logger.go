// Package utils provides shared utilities for text, vectors, and logging.
package utils

import "go.uber.org/zap"

// NewLogger builds the service logger. Debug mode uses a console encoder at
// debug level; production mode emits sampled JSON at info level.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("loreseek"), nil
}
