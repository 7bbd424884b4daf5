// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/sustc/sustc/internal/core"
	"github.com/sustc/sustc/internal/csvload"
	"github.com/sustc/sustc/internal/logging"
)

// BenchDir is the directory below the data directory holding case files.
const BenchDir = "bench"

// floatTolerance is the absolute difference accepted between two numbers.
const floatTolerance = 1e-6

// Options configures a Runner.
type Options struct {
	// DataDir holds users.csv, videos.csv, danmu.csv and the bench directory.
	DataDir string
	// Truncate empties the database before the import.
	Truncate bool
	// Out receives progress bars. Nil hides them.
	Out io.Writer
}

// Runner replays case files against a set of services.
type Runner struct {
	svc  *core.Services
	opts Options
}

// NewRunner returns a Runner driving svc.
func NewRunner(svc *core.Services, opts Options) *Runner {
	return &Runner{svc: svc, opts: opts}
}

// Run truncates (when configured), imports the data set and replays every
// case file. A failed import ends the run; later steps record their own
// errors and the run goes on.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{Started: start}
	defer func() { rep.Elapsed = time.Since(start) }()

	if r.opts.Truncate {
		if err := r.svc.Database.Truncate(ctx); err != nil {
			return rep, fmt.Errorf("truncate: %w", err)
		}
	}

	imp := r.importStep(ctx)
	rep.Steps = append(rep.Steps, imp)
	if imp.Error != "" {
		return rep, fmt.Errorf("import: %s", imp.Error)
	}

	files, err := caseFiles(filepath.Join(r.opts.DataDir, BenchDir))
	if err != nil {
		return rep, err
	}
	if len(files) == 0 {
		logging.Warnf("benchmark: no case files below %s", filepath.Join(r.opts.DataDir, BenchDir))
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Steps = append(rep.Steps, r.runFile(ctx, path))
	}
	return rep, nil
}

func (r *Runner) importStep(ctx context.Context) (st Step) {
	st = Step{Name: "import", Total: 1}
	start := time.Now()
	defer func() { st.Elapsed = time.Since(start) }()

	data, err := csvload.LoadDir(r.opts.DataDir)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Detail = fmt.Sprintf("%d users, %d videos, %d danmu", len(data.Users), len(data.Videos), len(data.Danmus))
	if err := r.svc.Database.ImportData(ctx, data.Danmus, data.Users, data.Videos); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Passed = 1
	logging.Infof("benchmark: imported %s in %s", st.Detail, time.Since(start))
	return st
}

// caseFiles lists the case files of dir in name order. A missing directory
// yields no files.
func caseFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), CaseSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func (r *Runner) bar(n int, desc string) *progressbar.ProgressBar {
	if r.opts.Out == nil {
		return progressbar.NewOptions(n, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(r.opts.Out),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *Runner) runFile(ctx context.Context, path string) Step {
	name := strings.TrimSuffix(filepath.Base(path), CaseSuffix)
	start := time.Now()
	cases, err := ReadCaseFile(path)
	if err != nil {
		return Step{Name: name, Error: err.Error(), Elapsed: time.Since(start)}
	}
	st := Step{Name: name, Total: len(cases)}
	bar := r.bar(len(cases), name)
	for i := range cases {
		if r.Check(ctx, &cases[i]) {
			st.Passed++
		} else {
			logging.Debugf("benchmark: %s #%d (%s) failed", name, i, cases[i].Op)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	st.Elapsed = time.Since(start)
	logging.Infof("benchmark: %s: %d/%d passed in %s", name, st.Passed, st.Total, st.Elapsed)
	return st
}

// Check executes c and reports whether the normalized answer equals c.Want.
func (r *Runner) Check(ctx context.Context, c *Case) bool {
	got, ok := r.Exec(ctx, c)
	if !ok {
		return false
	}
	same, err := equal(got, c.Want)
	if err != nil {
		logging.Debugf("benchmark: compare %s: %v", c.Op, err)
		return false
	}
	if !same {
		logging.Debugf("benchmark: %s: got %v, want %v", c.Op, got, c.Want)
	}
	return same
}

// Exec runs c and returns its normalized answer. A rejected call yields the
// failure value of the operation (-1, false or nil). ok is false for an
// unknown operation.
func (r *Runner) Exec(ctx context.Context, c *Case) (any, bool) {
	op, ok := operations[c.Op]
	if !ok {
		logging.Warnf("benchmark: unknown operation %q", c.Op)
		return nil, false
	}
	res, err := op.call(ctx, r.svc, c)
	if err != nil {
		logging.Debugf("benchmark: %s: %v", c.Op, err)
		return op.fail, true
	}
	return nonNilSlice(res), true
}

// nonNilSlice turns a nil slice into an empty one so that an empty answer
// differs from the nil failure value.
func nonNilSlice(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return reflect.MakeSlice(rv.Type(), 0, 0).Interface()
	}
	return v
}

// canonical maps v onto the generic JSON value space (float64, string, bool,
// []any, map[string]any and nil) so that answers and decoded expectations
// compare regardless of their concrete Go types.
func canonical(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func equal(got, want any) (bool, error) {
	g, err := canonical(got)
	if err != nil {
		return false, fmt.Errorf("answer: %w", err)
	}
	w, err := canonical(want)
	if err != nil {
		return false, fmt.Errorf("expectation: %w", err)
	}
	return sameValue(g, w), nil
}

func sameValue(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && math.Abs(av-bv) <= floatTolerance
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !sameValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !sameValue(x, y) {
				return false
			}
		}
		return true
	}
	return a == b
}
