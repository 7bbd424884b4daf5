// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFlattenYAML(t *testing.T) {
	keys := make(map[string]struct{})
	flattenYAML("", map[string]any{
		"top":   map[string]any{"sub": "value"},
		"count": map[string]any{"one": "one item", "other": "%d items"},
		"flat":  "v",
	}, keys)
	for _, want := range []string{"top.sub", "count", "flat"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("missing key %q in %v", want, keys)
		}
	}
	if _, ok := keys["count.other"]; ok {
		t.Error("plural forms must not become separate keys")
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cmd", "a.go"), `package cmd
func f() {
	_ = i18n.T("shell.prompt")
	_ = i18n.T("shell.unknown", "x")
	_ = i18n.T("only.in.code")
}`)
	writeFile(t, filepath.Join(root, "cmd", "a_test.go"), `package cmd
var _ = i18n.T("from.test")`)
	writeFile(t, filepath.Join(root, "tools", "x", "main.go"), `package main
var _ = i18n.T("from.tools")`)
	writeFile(t, filepath.Join(root, localesDir, primaryLocale), `shell.prompt: "> "
shell.unknown: "unknown %s"
unused.key: "never used"
`)
	writeFile(t, filepath.Join(root, localesDir, "active.zh.yaml"), `shell.prompt: "> "
`)

	res, err := lint(root)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(res.Used) != 3 {
		t.Errorf("used keys = %v", res.Used)
	}
	if loc := res.Used["shell.prompt"]; len(loc) != 1 || loc[0].Line != 3 {
		t.Errorf("shell.prompt locations = %+v", loc)
	}
	if !slices.Equal(res.Undefined, []string{"only.in.code"}) {
		t.Errorf("undefined = %v", res.Undefined)
	}
	if !slices.Equal(res.Orphaned, []string{"unused.key"}) {
		t.Errorf("orphaned = %v", res.Orphaned)
	}
	if got := res.Missing["active.zh.yaml"]; !slices.Equal(got, []string{"shell.unknown", "unused.key"}) {
		t.Errorf("missing in zh = %v", got)
	}
	if !res.Failed() {
		t.Error("lint should fail")
	}
}

func TestLintProjectCatalogs(t *testing.T) {
	res, err := lint(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if res.Failed() {
		t.Errorf("catalogs inconsistent: undefined %v, missing %v", res.Undefined, res.Missing)
	}
}
