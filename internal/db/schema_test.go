// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"strings"
	"testing"
)

func TestSchemaPhasesAreOrderedAndReadable(t *testing.T) {
	phases, err := schemaPhases()
	if err != nil {
		t.Fatalf("schemaPhases: %v", err)
	}
	want := []string{phaseDrop, phaseTypes, phaseTables, phaseConstraints, phaseTriggers, phaseFunctions}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase %d = %s, want %s", i, phases[i], want[i])
		}
		sql, err := schemaSQL(phases[i])
		if err != nil || strings.TrimSpace(sql) == "" {
			t.Fatalf("phase %s unreadable: %v", phases[i], err)
		}
	}
}

func TestSchemaMentionsEveryTable(t *testing.T) {
	tables, err := schemaSQL(phaseTables)
	if err != nil {
		t.Fatalf("schemaSQL: %v", err)
	}
	for _, name := range allTables {
		if !strings.Contains(tables, "CREATE TABLE "+name+" ") {
			t.Errorf("table %s missing from %s", name, phaseTables)
		}
	}
	if !strings.Contains(tables, "video_av_seq") {
		t.Errorf("AV sequence missing")
	}
	fns, _ := schemaSQL(phaseFunctions)
	if !strings.Contains(fns, "get_hotspot") {
		t.Errorf("hotspot function missing")
	}
}

func TestSchemaPasswordColumnFitsEncodedLength(t *testing.T) {
	tables, _ := schemaSQL(phaseTables)
	if !strings.Contains(tables, "password CHAR(96)") {
		t.Fatalf("password column must hold a 96 character argon2id string")
	}
}
