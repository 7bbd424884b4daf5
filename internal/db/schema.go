// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed schema/*.sql
var embeddedSchema embed.FS

// Schema phases, applied by ImportData in this order around the COPY step.
const (
	phaseDrop        = "00_drop"
	phaseTypes       = "01_types"
	phaseTables      = "02_tables"
	phaseConstraints = "03_constraints"
	phaseTriggers    = "04_triggers"
	phaseFunctions   = "05_functions"
)

// schemaPhases lists the embedded phase names in file order.
func schemaPhases() ([]string, error) {
	entries, err := fs.ReadDir(embeddedSchema, "schema")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".sql"))
	}
	sort.Strings(names)
	return names, nil
}

// schemaSQL returns the statements of one phase.
func schemaSQL(phase string) (string, error) {
	p := path.Join("schema", phase+".sql")
	data, err := embeddedSchema.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to read schema phase %s: %w", p, err)
	}
	return string(data), nil
}
