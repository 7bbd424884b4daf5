// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sustc/sustc/internal/bv"
	"github.com/sustc/sustc/internal/logging"
	"github.com/sustc/sustc/internal/model"
)

type memUser struct {
	auth  AuthRow
	name  string
	sex   model.Gender
	month int
	day   int
	level int16
	coin  int32
	sign  string
}

type memDanmu struct {
	id      int64
	bv      string
	mid     int64
	at      float32
	content string
	post    time.Time
}

// MemStore is an in-memory Store. It follows the PostgreSQL semantics,
// including cascading deletes, and is used by tests and the "memory"
// backend. RunInTx serializes transactions but does not roll back.
type MemStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	opts Options

	users   map[int64]*memUser
	follows map[int64]map[int64]struct{}
	videos  map[string]*model.Video
	engaged [3]map[string]map[int64]struct{}
	views   map[string]map[int64]float32
	danmus  map[int64]*memDanmu
	liked   map[int64]map[int64]struct{} // danmu id -> mids

	nextMid   int64
	nextAV    int64
	nextDanmu int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore(opts Options) *MemStore {
	s := &MemStore{opts: opts}
	s.reset()
	return s
}

func (s *MemStore) reset() {
	s.users = make(map[int64]*memUser)
	s.follows = make(map[int64]map[int64]struct{})
	s.videos = make(map[string]*model.Video)
	for i := range s.engaged {
		s.engaged[i] = make(map[string]map[int64]struct{})
	}
	s.views = make(map[string]map[int64]float32)
	s.danmus = make(map[int64]*memDanmu)
	s.liked = make(map[int64]map[int64]struct{})
	s.nextMid, s.nextAV, s.nextDanmu = 0, firstAV-1, 0
}

type memTx struct{ *MemStore }

func (t memTx) RunInTx(ctx context.Context, fn func(tx Store) error) error { return fn(t) }
func (t memTx) Close() error { return nil }

// RunInTx implements Store.
func (s *MemStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(memTx{s})
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }

// Sum implements Store.
func (s *MemStore) Sum(ctx context.Context, a, b int) (int, error) { return a + b, nil }

// Truncate implements Store.
func (s *MemStore) Truncate(ctx context.Context) error {
	if !s.opts.AllowTruncate {
		logging.Infof("truncate skipped: truncation is not allowed by configuration")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// ImportData implements Store with the same validation as the PostgreSQL
// backend.
func (s *MemStore) ImportData(ctx context.Context, danmus []model.DanmuRecord, users []model.UserRecord, videos []model.VideoRecord) error {
	plan, err := prepareImport(danmus, users, videos)
	if err != nil {
		return err
	}
	if err := plan.hashPasswords(ctx, s.opts.workers()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	for _, u := range plan.users {
		mu := &memUser{
			auth: AuthRow{Mid: u.rec.Mid, Password: u.password, QQ: u.rec.QQ, Wechat: u.rec.Wechat, Identity: u.identity},
			name: u.rec.Name, sex: u.sex, level: u.rec.Level, coin: u.rec.Coin, sign: u.sign,
		}
		if u.month != nil {
			mu.month, mu.day = int(*u.month), int(*u.day)
		}
		s.users[u.rec.Mid] = mu
		s.nextMid = max(s.nextMid, u.rec.Mid)
	}
	for _, f := range plan.follows {
		addTo(s.follows, f[0], f[1])
	}
	for _, v := range plan.videos {
		s.videos[v.BV] = &model.Video{
			BV: v.BV, Title: v.Title, Owner: v.OwnerMid, CommitTime: v.CommitTime,
			ReviewTime: v.ReviewTime, PublicTime: v.PublicTime, Duration: v.Duration,
			Description: v.Description, Reviewer: v.Reviewer,
		}
	}
	for kind, pairs := range [][]midPair{plan.likes, plan.coins, plan.favs} {
		for _, p := range pairs {
			addTo(s.engaged[kind], p.bv, p.mid)
		}
	}
	for _, v := range plan.views {
		if s.views[v.bv] == nil {
			s.views[v.bv] = make(map[int64]float32)
		}
		s.views[v.bv][v.mid] = v.time
	}
	for _, d := range plan.danmus {
		s.danmus[d.id] = &memDanmu{id: d.id, bv: d.rec.BV, mid: d.rec.Mid, at: d.rec.Time, content: d.rec.Content, post: d.rec.PostTime}
		s.nextDanmu = d.id
	}
	for _, l := range plan.danmuLikes {
		addTo(s.liked, l[1], l[0])
	}
	s.nextAV = plan.maxAV
	return nil
}

func addTo[K comparable, V comparable](m map[K]map[V]struct{}, k K, v V) {
	if m[k] == nil {
		m[k] = make(map[V]struct{})
	}
	m[k][v] = struct{}{}
}

func has[K comparable, V comparable](m map[K]map[V]struct{}, k K, v V) bool {
	_, ok := m[k][v]
	return ok
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s *MemStore) auth(pred func(u *memUser) bool) (*AuthRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if pred(u) {
			a := u.auth
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

// AuthByMid implements Store.
func (s *MemStore) AuthByMid(ctx context.Context, mid int64) (*AuthRow, error) {
	return s.auth(func(u *memUser) bool { return u.auth.Mid == mid })
}

// AuthByQQ implements Store.
func (s *MemStore) AuthByQQ(ctx context.Context, qq string) (*AuthRow, error) {
	return s.auth(func(u *memUser) bool { return qq != "" && u.auth.QQ == qq })
}

// AuthByWechat implements Store.
func (s *MemStore) AuthByWechat(ctx context.Context, wechat string) (*AuthRow, error) {
	return s.auth(func(u *memUser) bool { return wechat != "" && u.auth.Wechat == wechat })
}

// UserExists implements Store.
func (s *MemStore) UserExists(ctx context.Context, mid int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[mid]
	return ok, nil
}

// QQOrWechatTaken implements Store.
func (s *MemStore) QQOrWechatTaken(ctx context.Context, qq, wechat string) (bool, error) {
	a, _ := s.auth(func(u *memUser) bool {
		return (qq != "" && u.auth.QQ == qq) || (wechat != "" && u.auth.Wechat == wechat)
	})
	return a != nil, nil
}

// NameTaken implements Store.
func (s *MemStore) NameTaken(ctx context.Context, name string) (bool, error) {
	a, _ := s.auth(func(u *memUser) bool { return u.name == name })
	return a != nil, nil
}

// InsertUser implements Store.
func (s *MemStore) InsertUser(ctx context.Context, nu NewUser) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.name == nu.Name ||
			(nu.QQ != "" && u.auth.QQ == nu.QQ) ||
			(nu.Wechat != "" && u.auth.Wechat == nu.Wechat) {
			return 0, ErrDuplicate
		}
	}
	s.nextMid++
	mid := s.nextMid
	s.users[mid] = &memUser{
		auth:  AuthRow{Mid: mid, Password: nu.Password, QQ: nu.QQ, Wechat: nu.Wechat, Identity: model.IdentityUser},
		name:  nu.Name,
		sex:   nu.Sex,
		month: nu.BirthdayMonth,
		day:   nu.BirthdayDay,
		level: 1,
		sign:  nu.Sign,
	}
	return mid, nil
}

// SetIdentity changes the identity of a user. The PostgreSQL backend has no
// counterpart; superusers come from imported data there.
func (s *MemStore) SetIdentity(mid int64, id model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[mid]; ok {
		u.auth.Identity = id
	}
}

// DeleteUser implements Store.
func (s *MemStore) DeleteUser(ctx context.Context, mid int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[mid]; !ok {
		return false, nil
	}
	delete(s.users, mid)
	delete(s.follows, mid)
	for _, set := range s.follows {
		delete(set, mid)
	}
	for id, v := range s.videos {
		if v.Owner == mid {
			s.deleteVideoLocked(id)
		} else if v.Reviewer == mid {
			v.Reviewer = 0
		}
	}
	for _, m := range s.engaged {
		for _, set := range m {
			delete(set, mid)
		}
	}
	for _, set := range s.views {
		delete(set, mid)
	}
	for id, d := range s.danmus {
		if d.mid == mid {
			delete(s.danmus, id)
			delete(s.liked, id)
		}
	}
	for _, set := range s.liked {
		delete(set, mid)
	}
	return true, nil
}

// IsFollowing implements Store.
func (s *MemStore) IsFollowing(ctx context.Context, follower, followee int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return has(s.follows, follower, followee), nil
}

// Follow implements Store.
func (s *MemStore) Follow(ctx context.Context, follower, followee int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[follower] == nil || s.users[followee] == nil {
		return ErrForeignKey
	}
	addTo(s.follows, follower, followee)
	return nil
}

// Unfollow implements Store.
func (s *MemStore) Unfollow(ctx context.Context, follower, followee int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows[follower], followee)
	return nil
}

// Coin implements Store.
func (s *MemStore) Coin(ctx context.Context, mid int64) (int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[mid]
	if !ok {
		return 0, ErrNotFound
	}
	return u.coin, nil
}

// AddCoin implements Store.
func (s *MemStore) AddCoin(ctx context.Context, mid int64, delta int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[mid]
	if !ok {
		return ErrNotFound
	}
	u.coin += delta
	return nil
}

// Followings implements Store.
func (s *MemStore) Followings(ctx context.Context, mid int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.follows[mid]), nil
}

// Followers implements Store.
func (s *MemStore) Followers(ctx context.Context, mid int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0)
	for follower, set := range s.follows {
		if _, ok := set[mid]; ok {
			out = append(out, follower)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemStore) videosOf(pred func(id string) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0)
	for id := range s.videos {
		if pred(id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Watched implements Store.
func (s *MemStore) Watched(ctx context.Context, mid int64) ([]string, error) {
	return s.videosOf(func(id string) bool { _, ok := s.views[id][mid]; return ok }), nil
}

// Liked implements Store.
func (s *MemStore) Liked(ctx context.Context, mid int64) ([]string, error) {
	return s.videosOf(func(id string) bool { return has(s.engaged[EngageLike], id, mid) }), nil
}

// Collected implements Store.
func (s *MemStore) Collected(ctx context.Context, mid int64) ([]string, error) {
	return s.videosOf(func(id string) bool { return has(s.engaged[EngageFavorite], id, mid) }), nil
}

// Posted implements Store.
func (s *MemStore) Posted(ctx context.Context, mid int64) ([]string, error) {
	return s.videosOf(func(id string) bool { return s.videos[id].Owner == mid }), nil
}

// Video implements Store.
func (s *MemStore) Video(ctx context.Context, id string) (*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *v
	return &c, nil
}

// OwnerHasTitle implements Store.
func (s *MemStore) OwnerHasTitle(ctx context.Context, owner int64, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.videos {
		if v.Owner == owner && v.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// InsertVideo implements Store.
func (s *MemStore) InsertVideo(ctx context.Context, owner int64, req *model.PostVideoReq, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[owner] == nil {
		return "", ErrForeignKey
	}
	for {
		s.nextAV++
		id := bv.Encode(s.nextAV)
		if _, taken := s.videos[id]; taken {
			continue
		}
		pub := req.PublicTime
		s.videos[id] = &model.Video{
			BV: id, Title: req.Title, Owner: owner, CommitTime: now, PublicTime: &pub,
			Duration: req.Duration, Description: req.Description,
		}
		return id, nil
	}
}

func (s *MemStore) deleteVideoLocked(id string) {
	delete(s.videos, id)
	for _, m := range s.engaged {
		delete(m, id)
	}
	delete(s.views, id)
	for did, d := range s.danmus {
		if d.bv == id {
			delete(s.danmus, did)
			delete(s.liked, did)
		}
	}
}

// DeleteVideo implements Store.
func (s *MemStore) DeleteVideo(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return false, nil
	}
	s.deleteVideoLocked(id)
	return true, nil
}

// UpdateVideo implements Store.
func (s *MemStore) UpdateVideo(ctx context.Context, id string, req *model.PostVideoReq) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return false, nil
	}
	pub := req.PublicTime
	v.Title, v.Description, v.PublicTime = req.Title, req.Description, &pub
	v.Reviewer, v.ReviewTime = 0, nil
	return true, nil
}

// ReviewVideo implements Store.
func (s *MemStore) ReviewVideo(ctx context.Context, id string, reviewer int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok || v.Reviewer > 0 {
		return false, nil
	}
	t := now
	v.Reviewer, v.ReviewTime = reviewer, &t
	return true, nil
}

// HasWatched implements Store.
func (s *MemStore) HasWatched(ctx context.Context, mid int64, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.views[id][mid]
	return ok, nil
}

// Watch records a view. The PostgreSQL backend only receives views through
// ImportData.
func (s *MemStore) Watch(mid int64, id string, seconds float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.views[id] == nil {
		s.views[id] = make(map[int64]float32)
	}
	s.views[id][mid] = seconds
}

// HasEngaged implements Store.
func (s *MemStore) HasEngaged(ctx context.Context, kind EngageKind, mid int64, id string) (bool, error) {
	if _, err := engageTable(kind); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return has(s.engaged[kind], id, mid), nil
}

// Engage implements Store.
func (s *MemStore) Engage(ctx context.Context, kind EngageKind, mid int64, id string) error {
	if _, err := engageTable(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[mid] == nil || s.videos[id] == nil {
		return ErrForeignKey
	}
	addTo(s.engaged[kind], id, mid)
	return nil
}

// Disengage implements Store.
func (s *MemStore) Disengage(ctx context.Context, kind EngageKind, mid int64, id string) error {
	if _, err := engageTable(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engaged[kind][id], mid)
	return nil
}

// AverageViewTime implements Store.
func (s *MemStore) AverageViewTime(ctx context.Context, id string) (float64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	for _, t := range s.views[id] {
		sum += float64(t)
	}
	n := int64(len(s.views[id]))
	if n == 0 {
		return 0, 0, nil
	}
	return sum / float64(n), n, nil
}

// Hotspots implements Store.
func (s *MemStore) Hotspots(ctx context.Context, id string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int]int)
	best := 0
	for _, d := range s.danmus {
		if d.bv != id {
			continue
		}
		c := int(math.Floor(float64(d.at) / model.HotspotChunk))
		counts[c]++
		best = max(best, counts[c])
	}
	out := make([]int, 0)
	for c, n := range counts {
		if n == best {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemStore) viewCount(id string) int { return len(s.views[id]) }

// SearchVideos implements Store.
func (s *MemStore) SearchVideos(ctx context.Context, q SearchQuery) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type hit struct {
		bv        string
		relevance int
		views     int
	}
	var hits []hit
	for id, v := range s.videos {
		visible := q.Superuser || v.Owner == q.Caller || (v.Reviewed() && v.Published(q.Now))
		if !visible {
			continue
		}
		owner := ""
		if u := s.users[v.Owner]; u != nil {
			owner = strings.ToLower(u.name)
		}
		title, desc := strings.ToLower(v.Title), strings.ToLower(v.Description)
		rel := 0
		for _, k := range q.Keywords {
			rel += strings.Count(title, k) + strings.Count(desc, k) + strings.Count(owner, k)
		}
		if rel > 0 {
			hits = append(hits, hit{bv: id, relevance: rel, views: s.viewCount(id)})
		}
	}
	slices.SortFunc(hits, func(a, b hit) int {
		return cmp.Or(cmp.Compare(b.relevance, a.relevance), cmp.Compare(b.views, a.views), cmp.Compare(a.bv, b.bv))
	})
	out := make([]string, 0, len(hits))
	for _, h := range page(hits, q.Limit, q.Offset) {
		out = append(out, h.bv)
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) || limit <= 0 {
		return nil
	}
	return items[max(offset, 0):min(offset+limit, len(items))]
}

// InsertDanmu implements Store.
func (s *MemStore) InsertDanmu(ctx context.Context, id string, mid int64, content string, at float32, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[mid] == nil || s.videos[id] == nil {
		return 0, ErrForeignKey
	}
	s.nextDanmu++
	s.danmus[s.nextDanmu] = &memDanmu{id: s.nextDanmu, bv: id, mid: mid, at: at, content: content, post: now}
	return s.nextDanmu, nil
}

// DanmuIDs implements Store.
func (s *MemStore) DanmuIDs(ctx context.Context, id string, start, end float32, filter bool) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var picked []*memDanmu
	first := make(map[string]*memDanmu)
	for _, d := range s.danmus {
		if d.bv != id || d.at < start || d.at > end {
			continue
		}
		if !filter {
			picked = append(picked, d)
			continue
		}
		if cur, ok := first[d.content]; !ok || d.post.Before(cur.post) || (d.post.Equal(cur.post) && d.id < cur.id) {
			first[d.content] = d
		}
	}
	for _, d := range first {
		picked = append(picked, d)
	}
	slices.SortFunc(picked, func(a, b *memDanmu) int {
		return cmp.Or(cmp.Compare(a.at, b.at), cmp.Compare(a.id, b.id))
	})
	out := make([]int64, 0, len(picked))
	for _, d := range picked {
		out = append(out, d.id)
	}
	return out, nil
}

// DanmuVideo implements Store.
func (s *MemStore) DanmuVideo(ctx context.Context, danmuID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.danmus[danmuID]
	if !ok {
		return "", ErrNotFound
	}
	return d.bv, nil
}

// IsDanmuLiked implements Store.
func (s *MemStore) IsDanmuLiked(ctx context.Context, mid, danmuID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return has(s.liked, danmuID, mid), nil
}

// LikeDanmu implements Store.
func (s *MemStore) LikeDanmu(ctx context.Context, mid, danmuID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[mid] == nil || s.danmus[danmuID] == nil {
		return ErrForeignKey
	}
	addTo(s.liked, danmuID, mid)
	return nil
}

// UnlikeDanmu implements Store.
func (s *MemStore) UnlikeDanmu(ctx context.Context, mid, danmuID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.liked[danmuID], mid)
	return nil
}

// TopCoViewed implements Store.
func (s *MemStore) TopCoViewed(ctx context.Context, id string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	viewers := s.views[id]
	counts := make(map[string]int)
	for other, set := range s.views {
		if other == id {
			continue
		}
		for mid := range set {
			if _, ok := viewers[mid]; ok {
				counts[other]++
			}
		}
	}
	ids := sortedKeys(counts)
	slices.SortStableFunc(ids, func(a, b string) int { return cmp.Compare(counts[b], counts[a]) })
	return append(make([]string, 0), page(ids, limit, 0)...), nil
}

func (s *MemStore) score(id string) (float64, int) {
	views := len(s.views[id])
	if views == 0 {
		return 0, 0
	}
	st := videoStat{
		like: int32(len(s.engaged[EngageLike][id])),
		coin: int32(len(s.engaged[EngageCoin][id])),
		fav:  int32(len(s.engaged[EngageFavorite][id])),
		view: int32(views),
	}
	for _, d := range s.danmus {
		if d.bv == id {
			st.danmu++
		}
	}
	if v := s.videos[id]; v != nil && v.Duration > 0 {
		for _, t := range s.views[id] {
			st.viewRate += float64(t) / float64(v.Duration)
		}
	}
	return st.score(), views
}

// TopScored implements Store.
func (s *MemStore) TopScored(ctx context.Context, limit, offset int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		bv    string
		score float64
		views int
	}
	all := make([]scored, 0, len(s.videos))
	for id := range s.videos {
		sc, views := s.score(id)
		all = append(all, scored{id, sc, views})
	}
	slices.SortFunc(all, func(a, b scored) int {
		return cmp.Or(cmp.Compare(b.score, a.score), cmp.Compare(b.views, a.views), cmp.Compare(a.bv, b.bv))
	})
	out := make([]string, 0)
	for _, v := range page(all, limit, offset) {
		out = append(out, v.bv)
	}
	return out, nil
}

// friendCounts counts, per visible unwatched video, how many friends of mid
// watched it. Callers hold the read lock.
func (s *MemStore) friendCounts(mid int64, now time.Time) map[string]int {
	counts := make(map[string]int)
	for f := range s.follows[mid] {
		if !has(s.follows, f, mid) {
			continue
		}
		for id, set := range s.views {
			if _, ok := set[f]; !ok {
				continue
			}
			if _, mine := set[mid]; mine {
				continue
			}
			v := s.videos[id]
			if v == nil || !v.Reviewed() || !v.Published(now) {
				continue
			}
			counts[id]++
		}
	}
	return counts
}

// HasFriendInterests implements Store.
func (s *MemStore) HasFriendInterests(ctx context.Context, mid int64, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.friendCounts(mid, now)) > 0, nil
}

// FriendInterests implements Store.
func (s *MemStore) FriendInterests(ctx context.Context, mid int64, now time.Time, limit, offset int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := s.friendCounts(mid, now)
	ids := sortedKeys(counts)
	level := func(id string) int16 {
		if u := s.users[s.videos[id].Owner]; u != nil {
			return u.level
		}
		return 0
	}
	public := func(id string) int64 {
		if p := s.videos[id].PublicTime; p != nil {
			return p.UnixNano()
		}
		return math.MinInt64
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Or(cmp.Compare(counts[b], counts[a]), cmp.Compare(level(b), level(a)), cmp.Compare(public(b), public(a)))
	})
	return append(make([]string, 0), page(ids, limit, offset)...), nil
}

// RecommendFriends implements Store.
func (s *MemStore) RecommendFriends(ctx context.Context, mid int64, limit, offset int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mine := s.follows[mid]
	common := make(map[int64]int)
	for other, set := range s.follows {
		if other == mid || s.users[other] == nil {
			continue
		}
		if _, already := mine[other]; already {
			continue
		}
		for f := range set {
			if _, ok := mine[f]; ok {
				common[other]++
			}
		}
	}
	ids := sortedKeys(common)
	slices.SortStableFunc(ids, func(a, b int64) int {
		return cmp.Or(cmp.Compare(common[b], common[a]), cmp.Compare(s.users[b].level, s.users[a].level))
	})
	return append(make([]int64, 0), page(ids, limit, offset)...), nil
}
