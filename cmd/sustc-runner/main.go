// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// Command sustc-runner loads the SUSTC services and drives them from an
// interactive shell, single commands or the benchmark profile.
//
// Usage:
//
//	go run ./cmd/sustc-runner [flags]
//	./run/sustc-runner --profile benchmark
//
// See --help for options.
package main

import (
	"os"

	"github.com/sustc/sustc/internal/logging"
	"github.com/sustc/sustc/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("sustc-runner: %v", err)
		os.Exit(1)
	}
}
