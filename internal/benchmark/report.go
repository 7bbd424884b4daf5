// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
)

// Step is the outcome of the import or of one case file.
type Step struct {
	Name    string        `yaml:"name"`
	Passed  int           `yaml:"passed"`
	Total   int           `yaml:"total"`
	Elapsed time.Duration `yaml:"elapsed"`
	Detail  string        `yaml:"detail,omitempty"`
	Error   string        `yaml:"error,omitempty"`
}

// OK reports whether every case of the step passed.
func (s Step) OK() bool { return s.Error == "" && s.Passed == s.Total }

// Report collects the steps of one run.
type Report struct {
	Started time.Time     `yaml:"started"`
	Elapsed time.Duration `yaml:"elapsed"`
	Steps   []Step        `yaml:"steps"`
}

// Passed sums the passed cases of all steps.
func (r *Report) Passed() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Passed
	}
	return n
}

// Total sums the cases of all steps.
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Total
	}
	return n
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("60")).
			Bold(true)
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1)
)

// Render draws the report as a table.
func (r *Report) Render() string {
	nameWidth := len("step")
	for _, s := range r.Steps {
		nameWidth = max(nameWidth, len(s.Name))
	}
	row := func(name, score, elapsed string) string {
		return fmt.Sprintf("%-*s  %12s  %10s", nameWidth, name, score, elapsed)
	}

	lines := []string{headerStyle.Render(row("step", "passed", "time"))}
	for _, s := range r.Steps {
		line := row(s.Name, fmt.Sprintf("%d/%d", s.Passed, s.Total), s.Elapsed.Round(time.Millisecond).String())
		style := passStyle
		if !s.OK() {
			style = failStyle
		}
		lines = append(lines, style.Render(line))
		if s.Error != "" {
			lines = append(lines, failStyle.Render("  "+s.Error))
		}
	}
	lines = append(lines, row("total", fmt.Sprintf("%d/%d", r.Passed(), r.Total()), r.Elapsed.Round(time.Millisecond).String()))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// WriteFile stores the report as YAML at path.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create report directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
