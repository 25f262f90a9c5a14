// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/platform-engineering-labs/formae/pkg/plugin/sdk"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/logging"
)

func main() {
	logger, err := logging.New(false)
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	sdk.RunWithManifest(&Plugin{Logger: logger}, sdk.RunConfig{})
}
