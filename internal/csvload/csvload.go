// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package csvload reads the course data set (users.csv, videos.csv and
// danmu.csv) into import records. Columns are located by header name; case,
// spaces, underscores and dashes in headers are ignored. List cells hold JSON
// arrays, timestamps use "2006-01-02 15:04:05" in local time and an empty cell
// means "not set".
package csvload // import "github.com/sustc/sustc/internal/csvload"

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sustc/sustc/internal/logging"
	"github.com/sustc/sustc/internal/model"
)

// File names read by LoadDir.
const (
	UsersFile  = "users.csv"
	VideosFile = "videos.csv"
	DanmuFile  = "danmu.csv"
)

// TimeLayout is the timestamp format of the data set.
const TimeLayout = "2006-01-02 15:04:05"

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// Data holds everything LoadDir read.
type Data struct {
	Danmus []model.DanmuRecord
	Users  []model.UserRecord
	Videos []model.VideoRecord
}

func normalize(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(h)))
}

// table reads rows and resolves cells by normalized header.
type table struct {
	r    *csv.Reader
	cols map[string]int
	line int
	rec  []string
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{r: cr, cols: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		t.cols[normalize(h)] = i
	}
	for _, c := range required {
		if _, ok := t.index(c); !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, c)
		}
	}
	return t, nil
}

// index resolves a column by any of its names.
func (t *table) index(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := t.cols[normalize(n)]; ok {
			return i, true
		}
	}
	return 0, false
}

func (t *table) next() (bool, error) {
	rec, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	t.line++
	if err != nil {
		return false, err
	}
	t.rec = rec
	return true, nil
}

func (t *table) str(names ...string) string {
	i, ok := t.index(names...)
	if !ok || i >= len(t.rec) {
		return ""
	}
	return t.rec[i]
}

func (t *table) errf(col string, err error) error {
	return fmt.Errorf("line %d, column %s: %w", t.line, col, err)
}

func (t *table) int64(name string, aliases ...string) (int64, error) {
	return t.intN(64, name, aliases...)
}

// intN parses a column that must fit in a signed integer of the given size.
func (t *table) intN(bits int, name string, aliases ...string) (int64, error) {
	s := strings.TrimSpace(t.str(append([]string{name}, aliases...)...))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, t.errf(name, err)
	}
	return n, nil
}

func (t *table) float32(name string, aliases ...string) (float32, error) {
	s := strings.TrimSpace(t.str(append([]string{name}, aliases...)...))
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, t.errf(name, err)
	}
	return float32(f), nil
}

func (t *table) time(name string, aliases ...string) (*time.Time, error) {
	s := strings.TrimSpace(t.str(append([]string{name}, aliases...)...))
	if s == "" {
		return nil, nil
	}
	ts, err := ParseTime(s)
	if err != nil {
		return nil, t.errf(name, err)
	}
	return &ts, nil
}

func (t *table) mids(name string, aliases ...string) ([]int64, error) {
	s := strings.TrimSpace(t.str(append([]string{name}, aliases...)...))
	if s == "" {
		return nil, nil
	}
	var out []int64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, t.errf(name, err)
	}
	return out, nil
}

// ParseTime parses a data set timestamp in the local zone. RFC 3339 values
// are accepted as well.
func ParseTime(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}

// LoadUsers reads users.csv.
func LoadUsers(r io.Reader) ([]model.UserRecord, error) {
	t, err := newTable(r, "mid", "name")
	if err != nil {
		return nil, err
	}
	var out []model.UserRecord
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		u := model.UserRecord{
			Name:     t.str("name"),
			Birthday: strings.TrimSpace(t.str("birthday")),
			Sign:     t.str("sign"),
			Password: t.str("password"),
			QQ:       strings.TrimSpace(t.str("qq")),
			Wechat:   strings.TrimSpace(t.str("wechat")),
		}
		if u.Mid, err = t.int64("mid"); err != nil {
			return nil, err
		}
		level, err := t.intN(16, "level")
		if err != nil {
			return nil, err
		}
		coin, err := t.intN(32, "coin")
		if err != nil {
			return nil, err
		}
		u.Level, u.Coin = int16(level), int32(coin)
		if u.Sex, err = model.ParseGender(t.str("sex")); err != nil {
			return nil, t.errf("sex", err)
		}
		if u.Identity, err = model.ParseIdentity(t.str("identity")); err != nil {
			return nil, t.errf("identity", err)
		}
		if u.Following, err = t.mids("following"); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
}

// LoadVideos reads videos.csv. The view column holds [[mid, seconds], ...].
func LoadVideos(r io.Reader) ([]model.VideoRecord, error) {
	t, err := newTable(r, "bv", "title")
	if err != nil {
		return nil, err
	}
	var out []model.VideoRecord
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		v := model.VideoRecord{
			BV:          strings.TrimSpace(t.str("bv")),
			Title:       t.str("title"),
			OwnerName:   t.str("owner name"),
			Description: t.str("description"),
		}
		if v.OwnerMid, err = t.int64("owner mid", "owner"); err != nil {
			return nil, err
		}
		commit, err := t.time("commit time")
		if err != nil {
			return nil, err
		}
		if commit != nil {
			v.CommitTime = *commit
		}
		if v.ReviewTime, err = t.time("review time"); err != nil {
			return nil, err
		}
		if v.PublicTime, err = t.time("public time"); err != nil {
			return nil, err
		}
		if v.Duration, err = t.float32("duration"); err != nil {
			return nil, err
		}
		if v.Reviewer, err = t.int64("reviewer"); err != nil {
			return nil, err
		}
		if v.Like, err = t.mids("like"); err != nil {
			return nil, err
		}
		if v.Coin, err = t.mids("coin"); err != nil {
			return nil, err
		}
		if v.Favorite, err = t.mids("favorite", "fav"); err != nil {
			return nil, err
		}
		if err := parseViews(t, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func parseViews(t *table, v *model.VideoRecord) error {
	s := strings.TrimSpace(t.str("view", "views", "viewers"))
	if s == "" {
		return nil
	}
	var pairs [][2]float64
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return t.errf("view", err)
	}
	v.ViewerMids = make([]int64, len(pairs))
	v.ViewTime = make([]float32, len(pairs))
	for i, p := range pairs {
		v.ViewerMids[i] = int64(p[0])
		v.ViewTime[i] = float32(p[1])
	}
	return nil
}

// LoadDanmus reads danmu.csv.
func LoadDanmus(r io.Reader) ([]model.DanmuRecord, error) {
	t, err := newTable(r, "bv", "mid", "content")
	if err != nil {
		return nil, err
	}
	var out []model.DanmuRecord
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		d := model.DanmuRecord{
			BV:      strings.TrimSpace(t.str("bv")),
			Content: t.str("content"),
		}
		if d.Mid, err = t.int64("mid"); err != nil {
			return nil, err
		}
		if d.Time, err = t.float32("time", "dis time"); err != nil {
			return nil, err
		}
		post, err := t.time("post time")
		if err != nil {
			return nil, err
		}
		if post != nil {
			d.PostTime = *post
		}
		if d.LikedBy, err = t.mids("liked by", "likes"); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}

func loadFile[T any](dir, name string, load func(io.Reader) ([]T, error), dst *[]T) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	start := time.Now()
	recs, err := load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logging.Debugf("csvload: %s: %d records in %s", name, len(recs), time.Since(start))
	*dst = recs
	return nil
}

// LoadDir reads the three data files of dir concurrently.
func LoadDir(dir string) (*Data, error) {
	var d Data
	var g errgroup.Group
	g.Go(func() error { return loadFile(dir, UsersFile, LoadUsers, &d.Users) })
	g.Go(func() error { return loadFile(dir, VideosFile, LoadVideos, &d.Videos) })
	g.Go(func() error { return loadFile(dir, DanmuFile, LoadDanmus, &d.Danmus) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
