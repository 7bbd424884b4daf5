// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the runner's message catalogs. It scans the Go sources
// for i18n.T("key") calls and compares the keys against the YAML locale
// files: keys used but not defined in the primary locale, keys missing from a
// secondary locale and keys no code uses.
//
// Usage:
//
//	go run ./tools/i18n-linter [project-root]
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "active.en.yaml"
)

var keyCall = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Location is where a key is used.
type Location struct {
	Filepath string
	Line     int
}

// Result is the outcome of one lint run.
type Result struct {
	Used      map[string][]Location
	Undefined []string
	Orphaned  []string
	// Missing lists, per secondary locale file, the primary keys it lacks.
	Missing map[string][]string
}

// Failed reports whether the catalogs need fixing. Orphaned keys only warn.
func (r *Result) Failed() bool {
	if len(r.Undefined) > 0 {
		return true
	}
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	res, err := lint(root)
	if err != nil {
		fmt.Println(errStyle.Render("error: " + err.Error()))
		os.Exit(1)
	}
	report(res)
	if res.Failed() {
		os.Exit(1)
	}
}

func report(res *Result) {
	fmt.Printf("%d translation keys used in source code\n", len(res.Used))
	for _, key := range res.Undefined {
		loc := res.Used[key][0]
		fmt.Println(errStyle.Render(fmt.Sprintf("  undefined: %s (%s:%d)", key, loc.Filepath, loc.Line)))
	}
	files := make([]string, 0, len(res.Missing))
	for file := range res.Missing {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		for _, key := range res.Missing[file] {
			fmt.Println(errStyle.Render(fmt.Sprintf("  missing in %s: %s", file, key)))
		}
	}
	for _, key := range res.Orphaned {
		fmt.Println(warnStyle.Render("  orphaned: " + key))
	}
	if !res.Failed() && len(res.Orphaned) == 0 {
		fmt.Println(okStyle.Render("all translation files are consistent"))
	}
}

// lint checks the project below root.
func lint(root string) (*Result, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}
	dir := filepath.Join(root, localesDir)
	primary, err := loadKeysFromLocale(filepath.Join(dir, primaryLocale))
	if err != nil {
		return nil, fmt.Errorf("load primary locale: %w", err)
	}
	res := &Result{Used: used, Missing: make(map[string][]string)}
	for key := range used {
		if _, ok := primary[key]; !ok {
			res.Undefined = append(res.Undefined, key)
		}
	}
	for key := range primary {
		if _, ok := used[key]; !ok {
			res.Orphaned = append(res.Orphaned, key)
		}
	}
	sort.Strings(res.Undefined)
	sort.Strings(res.Orphaned)

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		name := filepath.Base(file)
		if name == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		var missing []string
		for key := range primary {
			if _, ok := keys[key]; !ok {
				missing = append(missing, key)
			}
		}
		sort.Strings(missing)
		res.Missing[name] = missing
	}
	return res, nil
}

// findUsedKeys scans all non-test .go files outside tools/ for i18n.T calls.
func findUsedKeys(root string) (map[string][]Location, error) {
	keys := make(map[string][]Location)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "tools", "_examples", "vendor":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, m := range keyCall.FindAllStringSubmatch(line, -1) {
				keys[m[1]] = append(keys[m[1]], Location{Filepath: path, Line: i + 1})
			}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML file and returns a flat set of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML turns nested maps into dot-separated keys. Messages with
// plural forms (a map holding "other") count as one key.
func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	if _, plural := m["other"]; plural && prefix != "" {
		keys[prefix] = struct{}{}
		return
	}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flattenYAML(key, v, keys)
	}
}
