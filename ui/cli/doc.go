// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the sustc-runner command line using Cobra. It wires
// configuration, the store and the services, and provides commands and an
// interactive shell that delegate to `internal/core`. CLI code should remain
// thin and keep business rules in the services.
package cli // import "github.com/sustc/sustc/ui/cli"
