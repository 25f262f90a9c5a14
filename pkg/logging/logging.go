// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON logger writing to stderr. Stdout belongs to the plugin
// protocol and the CLI output, so nothing is logged there.
// verbose or RESTFUL_LOG_LEVEL=debug enables debug output.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	level := zapcore.InfoLevel
	if env := strings.TrimSpace(os.Getenv("RESTFUL_LOG_LEVEL")); env != "" {
		if err := level.UnmarshalText([]byte(env)); err != nil {
			return nil, fmt.Errorf("invalid RESTFUL_LOG_LEVEL %q: %w", env, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
