// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package buildvars

import "testing"

func TestVersionString(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "", ""
	if got := String(); got != "dev" {
		t.Fatalf("String() = %q, want dev", got)
	}
	Version, Commit = "1.2.0", "abc123"
	if got := String(); got != "1.2.0 (abc123)" {
		t.Fatalf("String() = %q", got)
	}
	if got := VersionOrDefault("x"); got != "1.2.0" {
		t.Fatalf("VersionOrDefault = %q", got)
	}
}
