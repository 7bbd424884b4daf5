// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/sustc/sustc/internal/bv"
	"github.com/sustc/sustc/internal/logging"
	"github.com/sustc/sustc/internal/model"
	"github.com/sustc/sustc/internal/security"
)

// firstAV is the AV number below which the video sequence never starts.
const firstAV = 10001

type midPair struct {
	mid int64
	bv  string
}

type videoStat struct {
	like, coin, fav, view, danmu int32
	viewRate                     float64
}

func (v videoStat) score() float64 {
	if v.view == 0 {
		return 0
	}
	n := float64(v.view)
	return min(1, float64(v.like)/n) +
		min(1, float64(v.coin)/n) +
		min(1, float64(v.fav)/n) +
		float64(v.danmu)/n +
		v.viewRate/n
}

type importUser struct {
	rec      model.UserRecord
	sign     string
	month    *int16
	day      *int16
	sex      model.Gender
	identity model.Identity
	password string
}

type importView struct {
	mid  int64
	bv   string
	time float32
}

type importDanmu struct {
	id  int64
	rec *model.DanmuRecord
}

// importPlan is the validated, de-duplicated form of the raw records. Rows
// that reference unknown users or videos are dropped so the constraints added
// after COPY hold.
type importPlan struct {
	users      []importUser
	follows    [][2]int64
	videos     []*model.VideoRecord
	stats      map[string]*videoStat
	likes      []midPair
	coins      []midPair
	favs       []midPair
	views      []importView
	danmus     []importDanmu
	danmuLikes [][2]int64
	maxAV      int64
	skipped    int
}

func invalidf(format string, v ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, v...))
}

// prepareImport validates the column limits and builds the rows to COPY.
func prepareImport(danmus []model.DanmuRecord, users []model.UserRecord, videos []model.VideoRecord) (*importPlan, error) {
	p := &importPlan{stats: make(map[string]*videoStat, len(videos)), maxAV: firstAV}

	userSet := make(map[int64]struct{}, len(users))
	for i := range users {
		u := users[i]
		if utf8.RuneCountInString(u.QQ) > model.MaxQQLength {
			return nil, invalidf("user %d: qq %q is too long", u.Mid, u.QQ)
		}
		if utf8.RuneCountInString(u.Wechat) > model.MaxWechatLength {
			return nil, invalidf("user %d: wechat %q is too long", u.Mid, u.Wechat)
		}
		if utf8.RuneCountInString(u.Name) > model.MaxNameLength {
			return nil, invalidf("user %d: name %q is too long", u.Mid, u.Name)
		}
		sign := u.Sign
		if utf8.RuneCountInString(sign) > model.MaxSignLength {
			stripped := strings.ReplaceAll(sign, "\n", "")
			if utf8.RuneCountInString(stripped) > model.MaxSignLength {
				return nil, invalidf("user %d: sign is too long", u.Mid)
			}
			logging.Warnf("user %d: sign exceeds %d characters only because of newlines; stripping them", u.Mid, model.MaxSignLength)
			sign = stripped
		}
		iu := importUser{rec: u, sign: sign, sex: u.Sex, identity: u.Identity}
		if iu.sex == "" {
			iu.sex = model.GenderUnknown
		}
		if iu.identity == "" {
			iu.identity = model.IdentityUser
		}
		if u.Birthday != "" {
			m, d, err := model.ParseBirthday(u.Birthday)
			if err != nil {
				return nil, invalidf("user %d: %v", u.Mid, err)
			}
			mm, dd := int16(m), int16(d)
			iu.month, iu.day = &mm, &dd
		}
		if _, dup := userSet[u.Mid]; dup {
			return nil, invalidf("user %d appears twice", u.Mid)
		}
		userSet[u.Mid] = struct{}{}
		p.users = append(p.users, iu)
	}

	followSet := make(map[[2]int64]struct{})
	for _, u := range users {
		for _, f := range u.Following {
			pair := [2]int64{u.Mid, f}
			if _, ok := userSet[f]; !ok || f == u.Mid {
				p.skipped++
				continue
			}
			if _, dup := followSet[pair]; dup {
				continue
			}
			followSet[pair] = struct{}{}
			p.follows = append(p.follows, pair)
		}
	}

	videoSet := make(map[string]struct{}, len(videos))
	for i := range videos {
		v := &videos[i]
		if utf8.RuneCountInString(v.Title) > model.MaxTitleLength {
			return nil, invalidf("video %s: title is too long", v.BV)
		}
		if utf8.RuneCountInString(v.Description) > model.MaxDescriptionLength {
			return nil, invalidf("video %s: description is too long", v.BV)
		}
		if len(v.BV) > model.MaxBVLength {
			return nil, invalidf("video %s: bv is too long", v.BV)
		}
		if _, ok := userSet[v.OwnerMid]; !ok {
			p.skipped++
			continue
		}
		if _, dup := videoSet[v.BV]; dup {
			return nil, invalidf("video %s appears twice", v.BV)
		}
		videoSet[v.BV] = struct{}{}
		if _, ok := userSet[v.Reviewer]; v.Reviewer > 0 && !ok {
			rec := *v
			rec.Reviewer = 0
			v = &rec
		}
		p.videos = append(p.videos, v)
		if bv.Valid(v.BV) {
			p.maxAV = max(p.maxAV, bv.Decode(v.BV))
		}
		st := &videoStat{}
		p.stats[v.BV] = st

		st.like = p.addPairs(&p.likes, userSet, v.BV, v.Like)
		st.coin = p.addPairs(&p.coins, userSet, v.BV, v.Coin)
		st.fav = p.addPairs(&p.favs, userSet, v.BV, v.Favorite)

		seen := make(map[int64]struct{}, len(v.ViewerMids))
		for j, mid := range v.ViewerMids {
			if _, ok := userSet[mid]; !ok {
				p.skipped++
				continue
			}
			if _, dup := seen[mid]; dup {
				continue
			}
			seen[mid] = struct{}{}
			var t float32
			if j < len(v.ViewTime) {
				t = v.ViewTime[j]
			}
			p.views = append(p.views, importView{mid: mid, bv: v.BV, time: t})
			st.view++
			if v.Duration > 0 {
				st.viewRate += float64(t) / float64(v.Duration)
			}
		}
	}

	likeSet := make(map[[2]int64]struct{})
	var nextID int64
	for i := range danmus {
		d := &danmus[i]
		if utf8.RuneCountInString(d.Content) > model.MaxContentLength {
			return nil, invalidf("danmu on %s: content is too long", d.BV)
		}
		st, ok := p.stats[d.BV]
		if _, userOK := userSet[d.Mid]; !ok || !userOK {
			p.skipped++
			continue
		}
		nextID++
		st.danmu++
		p.danmus = append(p.danmus, importDanmu{id: nextID, rec: d})
		for _, mid := range d.LikedBy {
			pair := [2]int64{mid, nextID}
			if _, ok := userSet[mid]; !ok {
				p.skipped++
				continue
			}
			if _, dup := likeSet[pair]; dup {
				continue
			}
			likeSet[pair] = struct{}{}
			p.danmuLikes = append(p.danmuLikes, pair)
		}
	}
	return p, nil
}

func (p *importPlan) addPairs(dst *[]midPair, users map[int64]struct{}, id string, mids []int64) int32 {
	var n int32
	seen := make(map[int64]struct{}, len(mids))
	for _, mid := range mids {
		if _, ok := users[mid]; !ok {
			p.skipped++
			continue
		}
		if _, dup := seen[mid]; dup {
			continue
		}
		seen[mid] = struct{}{}
		*dst = append(*dst, midPair{mid: mid, bv: id})
		n++
	}
	return n
}

// hashPasswords encodes every user password, fanning out over workers.
func (p *importPlan) hashPasswords(ctx context.Context, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	chunk := (len(p.users) + workers - 1) / max(workers, 1)
	if chunk == 0 {
		return nil
	}
	for start := 0; start < len(p.users); start += chunk {
		end := min(start+chunk, len(p.users))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				enc, err := security.Encode(p.users[i].rec.Password)
				if err != nil {
					return fmt.Errorf("hash password of user %d: %w", p.users[i].rec.Mid, err)
				}
				p.users[i].password = enc
			}
			return nil
		})
	}
	return g.Wait()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullMid(mid int64) any {
	if mid <= 0 {
		return nil
	}
	return mid
}

// copyChunks streams n rows into table in batches of batch rows.
func copyChunks(ctx context.Context, tx pgx.Tx, table string, cols []string, n, batch int, row func(i int) []any) (int64, error) {
	var total int64
	for start := 0; start < n; start += batch {
		end := min(start+batch, n)
		src := pgx.CopyFromSlice(end-start, func(i int) ([]any, error) {
			return row(start + i), nil
		})
		c, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, src)
		if err != nil {
			return total, fmt.Errorf("copy into %s: %w", table, err)
		}
		total += c
	}
	return total, nil
}

// ImportData replaces the database content with the given records. The whole
// load runs in one transaction: schema, COPY, constraints, triggers and
// functions. Records exceeding a column limit fail with ErrInvalidRecord.
func (s *PostgresStore) ImportData(ctx context.Context, danmus []model.DanmuRecord, users []model.UserRecord, videos []model.VideoRecord) error {
	start := time.Now()
	logging.Infof("import: %d danmu, %d users, %d videos", len(danmus), len(users), len(videos))

	plan, err := prepareImport(danmus, users, videos)
	if err != nil {
		return err
	}
	if plan.skipped > 0 {
		logging.Warnf("import: skipped %d references to unknown users or videos", plan.skipped)
	}

	hashStart := time.Now()
	if err := plan.hashPasswords(ctx, s.opts.workers()); err != nil {
		return err
	}
	logging.Infof("import: encoded %d passwords in %s", len(plan.users), time.Since(hashStart))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, phase := range []string{phaseDrop, phaseTypes, phaseTables} {
		if err := execPhase(ctx, tx, phase); err != nil {
			return err
		}
	}
	for _, typ := range []string{"gender", "identity"} {
		t, err := tx.Conn().LoadType(ctx, typ)
		if err != nil {
			return fmt.Errorf("load type %s: %w", typ, err)
		}
		tx.Conn().TypeMap().RegisterType(t)
	}
	if _, err := tx.Exec(ctx, "SET LOCAL work_mem = '128MB'; SET LOCAL maintenance_work_mem = '1GB'"); err != nil {
		return fmt.Errorf("tune import session: %w", err)
	}

	if err := s.copyPlan(ctx, tx, plan); err != nil {
		return err
	}

	for _, phase := range []string{phaseConstraints, phaseTriggers, phaseFunctions} {
		if err := execPhase(ctx, tx, phase); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, "SELECT setval('video_av_seq', $1)", plan.maxAV); err != nil {
		return fmt.Errorf("set av sequence: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	if _, err := s.pool.Exec(ctx, "ANALYZE"); err != nil {
		logging.Warnf("import: analyze failed (ignored): %v", err)
	}
	logging.Infof("import: finished in %s", time.Since(start))
	return nil
}

func execPhase(ctx context.Context, tx pgx.Tx, phase string) error {
	q, err := schemaSQL(phase)
	if err != nil {
		return err
	}
	phaseStart := time.Now()
	if _, err := tx.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to apply schema phase %s: %w", phase, err)
	}
	storeEvent("schema phase applied", "phase", phase, "elapsed", time.Since(phaseStart))
	return nil
}

func (s *PostgresStore) copyPlan(ctx context.Context, tx pgx.Tx, p *importPlan) error {
	batch := s.opts.batchSize()
	steps := []struct {
		table string
		cols  []string
		n     int
		row   func(i int) []any
	}{
		{"user_auth", []string{"mid", "password", "qq", "wechat"}, len(p.users), func(i int) []any {
			u := &p.users[i]
			return []any{u.rec.Mid, u.password, nullString(u.rec.QQ), nullString(u.rec.Wechat)}
		}},
		{"user_profile", []string{"mid", "name", "sex", "birthday_month", "birthday_day", "level", "coin", "sign", "identity"}, len(p.users), func(i int) []any {
			u := &p.users[i]
			return []any{u.rec.Mid, u.rec.Name, string(u.sex), u.month, u.day, u.rec.Level, u.rec.Coin, nullString(u.sign), string(u.identity)}
		}},
		{"user_follow", []string{"follower", "followee"}, len(p.follows), func(i int) []any {
			return []any{p.follows[i][0], p.follows[i][1]}
		}},
		{"video", []string{"bv", "title", "owner", "commit_time", "review_time", "public_time", "duration", "description", "reviewer"}, len(p.videos), func(i int) []any {
			v := p.videos[i]
			return []any{v.BV, v.Title, v.OwnerMid, v.CommitTime, v.ReviewTime, v.PublicTime, v.Duration, v.Description, nullMid(v.Reviewer)}
		}},
		{"video_stat", []string{"bv", "like_count", "coin_count", "fav_count", "view_count", "view_rate", "danmu_count", "score"}, len(p.videos), func(i int) []any {
			id := p.videos[i].BV
			st := p.stats[id]
			return []any{id, st.like, st.coin, st.fav, st.view, st.viewRate, st.danmu, st.score()}
		}},
		{"video_like", []string{"mid", "bv"}, len(p.likes), func(i int) []any { return []any{p.likes[i].mid, p.likes[i].bv} }},
		{"video_coin", []string{"mid", "bv"}, len(p.coins), func(i int) []any { return []any{p.coins[i].mid, p.coins[i].bv} }},
		{"video_fav", []string{"mid", "bv"}, len(p.favs), func(i int) []any { return []any{p.favs[i].mid, p.favs[i].bv} }},
		{"video_view", []string{"mid", "bv", "view_time"}, len(p.views), func(i int) []any {
			return []any{p.views[i].mid, p.views[i].bv, p.views[i].time}
		}},
		{"danmu", []string{"id", "bv", "mid", "dis_time", "content", "post_time"}, len(p.danmus), func(i int) []any {
			d := p.danmus[i]
			return []any{d.id, d.rec.BV, d.rec.Mid, d.rec.Time, d.rec.Content, d.rec.PostTime}
		}},
		{"danmu_like", []string{"mid", "id"}, len(p.danmuLikes), func(i int) []any {
			return []any{p.danmuLikes[i][0], p.danmuLikes[i][1]}
		}},
	}
	for _, st := range steps {
		stepStart := time.Now()
		n, err := copyChunks(ctx, tx, st.table, st.cols, st.n, batch, st.row)
		if err != nil {
			return err
		}
		logging.Infof("import: %s %d rows in %s", st.table, n, time.Since(stepStart))
	}
	return nil
}
