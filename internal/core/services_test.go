// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type fixture struct {
	ctx   context.Context
	store *db.MemStore
	svc   *Services
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := db.NewMemStore(db.Options{Workers: 1})
	return &fixture{
		ctx:   context.Background(),
		store: store,
		svc:   New(store, Options{Now: clock.Now}),
		clock: clock,
	}
}

// register creates a user and returns credentials with mid and password.
func (f *fixture) register(t *testing.T, name string, superuser bool) *model.AuthInfo {
	t.Helper()
	req := &model.RegisterUserReq{Password: "pw-" + name, Name: name, Sex: model.GenderUnknown, Birthday: "5月6日", QQ: "qq" + name}
	mid, err := f.svc.User.Register(f.ctx, req)
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	if superuser {
		f.store.SetIdentity(mid, model.IdentitySuperuser)
	}
	return &model.AuthInfo{Mid: mid, Password: req.Password}
}

// publishReviewed posts a video as owner, reviews it as reviewer and moves
// the clock past its public time.
func (f *fixture) publishReviewed(t *testing.T, owner, reviewer *model.AuthInfo, title string) string {
	t.Helper()
	id, err := f.svc.Video.PostVideo(f.ctx, owner, &model.PostVideoReq{Title: title, Description: "about " + title, Duration: 100, PublicTime: f.clock.t.Add(time.Minute)})
	if err != nil {
		t.Fatalf("PostVideo: %v", err)
	}
	if ok, err := f.svc.Video.ReviewVideo(f.ctx, reviewer, id); err != nil || !ok {
		t.Fatalf("ReviewVideo = %v, %v", ok, err)
	}
	f.clock.t = f.clock.t.Add(time.Hour)
	return id
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	tests := []struct {
		name string
		auth *model.AuthInfo
		want int64
		err  error
	}{
		{"password", alice, alice.Mid, nil},
		{"password and qq", &model.AuthInfo{Mid: alice.Mid, Password: alice.Password, QQ: "qqalice"}, alice.Mid, nil},
		{"wrong password", &model.AuthInfo{Mid: alice.Mid, Password: "nope"}, 0, ErrUnauthorized},
		{"foreign qq", &model.AuthInfo{Mid: alice.Mid, Password: alice.Password, QQ: "qqbob"}, 0, ErrUnauthorized},
		{"qq only", &model.AuthInfo{QQ: "qqbob"}, bob.Mid, nil},
		{"qq with wrong mid", &model.AuthInfo{Mid: alice.Mid, QQ: "qqbob"}, 0, ErrUnauthorized},
		{"unknown qq", &model.AuthInfo{QQ: "missing"}, 0, ErrUnauthorized},
		{"nothing", &model.AuthInfo{Mid: alice.Mid}, 0, ErrUnauthorized},
		{"nil", nil, 0, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.User.Authenticate(f.ctx, tt.auth)
			if !errors.Is(err, tt.err) || (tt.err == nil && err != nil) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Fatalf("mid = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", false)
	base := model.RegisterUserReq{Password: "p", Name: "n", Sex: model.GenderMale, Birthday: "2月29日"}
	tests := []struct {
		name   string
		mutate func(r *model.RegisterUserReq)
		err    error
	}{
		{"ok", func(r *model.RegisterUserReq) {}, nil},
		{"no password", func(r *model.RegisterUserReq) { r.Password = "" }, ErrInvalidArgument},
		{"no sex", func(r *model.RegisterUserReq) { r.Sex = "" }, ErrInvalidArgument},
		{"bad birthday", func(r *model.RegisterUserReq) { r.Birthday = "2月30日" }, ErrInvalidArgument},
		{"long qq", func(r *model.RegisterUserReq) { r.QQ = "1234567890123" }, ErrInvalidArgument},
		{"taken name", func(r *model.RegisterUserReq) { r.Name = "alice" }, ErrConflict},
		{"taken qq", func(r *model.RegisterUserReq) { r.QQ = "qqalice" }, ErrConflict},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.Name = req.Name + string(rune('a'+i))
			tt.mutate(&req)
			mid, err := f.svc.User.Register(f.ctx, &req)
			if tt.err == nil {
				if err != nil || mid <= 0 {
					t.Fatalf("Register = %d, %v", mid, err)
				}
				return
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	root := f.register(t, "root", true)
	admin := f.register(t, "admin", true)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	if _, err := f.svc.User.DeleteAccount(f.ctx, alice, bob.Mid); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user deleting another user: %v", err)
	}
	if _, err := f.svc.User.DeleteAccount(f.ctx, root, admin.Mid); !errors.Is(err, ErrForbidden) {
		t.Fatalf("superuser deleting superuser: %v", err)
	}
	if ok, err := f.svc.User.DeleteAccount(f.ctx, root, bob.Mid); err != nil || !ok {
		t.Fatalf("superuser deleting user = %v, %v", ok, err)
	}
	if ok, err := f.svc.User.DeleteAccount(f.ctx, alice, alice.Mid); err != nil || !ok {
		t.Fatalf("self delete = %v, %v", ok, err)
	}
	if _, err := f.svc.User.DeleteAccount(f.ctx, root, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing target: %v", err)
	}
	if ok, err := f.svc.User.DeleteAccount(f.ctx, admin, admin.Mid); err != nil || !ok {
		t.Fatalf("superuser self delete = %v, %v", ok, err)
	}
}

func TestFollowAndUserInfo(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	if on, err := f.svc.User.Follow(f.ctx, alice, bob.Mid); err != nil || !on {
		t.Fatalf("first follow = %v, %v", on, err)
	}
	info, err := f.svc.User.GetUserInfo(f.ctx, bob.Mid)
	if err != nil {
		t.Fatalf("GetUserInfo: %v", err)
	}
	if !slices.Equal(info.Follower, []int64{alice.Mid}) || len(info.Following) != 0 || info.Posted == nil {
		t.Fatalf("unexpected info %+v", info)
	}
	if on, err := f.svc.User.Follow(f.ctx, alice, bob.Mid); err != nil || on {
		t.Fatalf("second follow = %v, %v", on, err)
	}
	if _, err := f.svc.User.Follow(f.ctx, alice, alice.Mid); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("self follow: %v", err)
	}
	if _, err := f.svc.User.Follow(f.ctx, alice, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing followee: %v", err)
	}
	if _, err := f.svc.User.GetUserInfo(f.ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user info: %v", err)
	}
}

func TestVideoLifecycle(t *testing.T) {
	f := newFixture(t)
	root := f.register(t, "root", true)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	req := &model.PostVideoReq{Title: "Intro", Duration: 60, PublicTime: f.clock.t.Add(time.Hour)}
	id, err := f.svc.Video.PostVideo(f.ctx, alice, req)
	if err != nil {
		t.Fatalf("PostVideo: %v", err)
	}
	if _, err := f.svc.Video.PostVideo(f.ctx, alice, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate title: %v", err)
	}
	if _, err := f.svc.Video.PostVideo(f.ctx, alice, &model.PostVideoReq{Title: "short", Duration: 5, PublicTime: f.clock.t.Add(time.Hour)}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("short video: %v", err)
	}

	changed := *req
	changed.Duration = 61
	if _, err := f.svc.Video.UpdateVideoInfo(f.ctx, alice, id, &changed); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("duration change: %v", err)
	}
	if _, err := f.svc.Video.UpdateVideoInfo(f.ctx, alice, id, req); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("no-op update: %v", err)
	}
	changed = *req
	changed.Title = "Intro v2"
	if _, err := f.svc.Video.UpdateVideoInfo(f.ctx, bob, id, &changed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update: %v", err)
	}
	if ok, err := f.svc.Video.UpdateVideoInfo(f.ctx, alice, id, &changed); err != nil || !ok {
		t.Fatalf("update = %v, %v", ok, err)
	}

	if _, err := f.svc.Video.ReviewVideo(f.ctx, bob, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user review: %v", err)
	}
	if ok, err := f.svc.Video.ReviewVideo(f.ctx, root, id); err != nil || !ok {
		t.Fatalf("review = %v, %v", ok, err)
	}
	if _, err := f.svc.Video.ReviewVideo(f.ctx, root, id); !errors.Is(err, ErrConflict) {
		t.Fatalf("second review: %v", err)
	}

	// Not public yet: users cannot engage, superusers can.
	if _, err := f.svc.Video.LikeVideo(f.ctx, bob, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("like before public: %v", err)
	}
	if on, err := f.svc.Video.LikeVideo(f.ctx, root, id); err != nil || !on {
		t.Fatalf("superuser like = %v, %v", on, err)
	}

	f.clock.t = f.clock.t.Add(2 * time.Hour)
	if _, err := f.svc.Video.LikeVideo(f.ctx, alice, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("own like: %v", err)
	}
	if on, _ := f.svc.Video.CollectVideo(f.ctx, bob, id); !on {
		t.Fatalf("collect must turn on")
	}
	if on, _ := f.svc.Video.CollectVideo(f.ctx, bob, id); on {
		t.Fatalf("collect must toggle off")
	}

	if _, err := f.svc.Video.CoinVideo(f.ctx, bob, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("coin without coins: %v", err)
	}
	if err := f.store.AddCoin(f.ctx, bob.Mid, 2); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	if ok, err := f.svc.Video.CoinVideo(f.ctx, bob, id); err != nil || !ok {
		t.Fatalf("coin = %v, %v", ok, err)
	}
	if _, err := f.svc.Video.CoinVideo(f.ctx, bob, id); !errors.Is(err, ErrConflict) {
		t.Fatalf("second coin: %v", err)
	}
	if info, _ := f.svc.User.GetUserInfo(f.ctx, bob.Mid); info.Coin != 1 {
		t.Fatalf("coin balance = %d", info.Coin)
	}

	if _, err := f.svc.Video.DeleteVideo(f.ctx, bob, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete: %v", err)
	}
	if ok, err := f.svc.Video.DeleteVideo(f.ctx, root, id); err != nil || !ok {
		t.Fatalf("superuser delete = %v, %v", ok, err)
	}
	if hs, err := f.svc.Video.GetHotspot(f.ctx, id); err != nil || hs == nil || len(hs) != 0 {
		t.Fatalf("hotspot of deleted video = %#v, %v", hs, err)
	}
}

func TestGetHotspotWithoutDanmu(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", false)
	pending, err := f.svc.Video.PostVideo(f.ctx, alice, &model.PostVideoReq{Title: "pending", Duration: 30, PublicTime: f.clock.t.Add(time.Minute)})
	if err != nil {
		t.Fatalf("PostVideo: %v", err)
	}

	tests := []struct {
		name string
		bv   string
	}{
		{"empty bv", ""},
		{"unknown bv", "BV1missing00"},
		{"unreviewed video", pending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs, err := f.svc.Video.GetHotspot(f.ctx, tt.bv)
			if err != nil {
				t.Fatalf("GetHotspot: %v", err)
			}
			if hs == nil || len(hs) != 0 {
				t.Fatalf("hotspot = %#v, want an empty list", hs)
			}
		})
	}
}

func TestFollowToggle(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	// Each call flips the follow and reports the state it leaves behind.
	steps := []struct {
		name      string
		want      bool
		followers []int64
	}{
		{"follow", true, []int64{alice.Mid}},
		{"unfollow", false, []int64{}},
		{"follow again", true, []int64{alice.Mid}},
	}
	for _, st := range steps {
		on, err := f.svc.User.Follow(f.ctx, alice, bob.Mid)
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if on != st.want {
			t.Fatalf("%s = %v, want %v", st.name, on, st.want)
		}
		info, err := f.svc.User.GetUserInfo(f.ctx, bob.Mid)
		if err != nil {
			t.Fatalf("GetUserInfo: %v", err)
		}
		if !slices.Equal(info.Follower, st.followers) {
			t.Fatalf("%s: followers = %v, want %v", st.name, info.Follower, st.followers)
		}
	}
}

func TestSearchAndViewRate(t *testing.T) {
	f := newFixture(t)
	root := f.register(t, "root", true)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	hidden, err := f.svc.Video.PostVideo(f.ctx, alice, &model.PostVideoReq{Title: "hidden go", Duration: 50, PublicTime: f.clock.t.Add(time.Minute)})
	if err != nil {
		t.Fatalf("PostVideo: %v", err)
	}
	shown := f.publishReviewed(t, alice, root, "Go Go")

	got, err := f.svc.Video.SearchVideo(f.ctx, bob, "  GO ", 10, 1)
	if err != nil || !slices.Equal(got, []string{shown}) {
		t.Fatalf("bob search = %v, %v", got, err)
	}
	got, _ = f.svc.Video.SearchVideo(f.ctx, alice, "go", 10, 1)
	if !slices.Equal(got, []string{shown, hidden}) {
		t.Fatalf("owner search = %v", got)
	}
	if _, err := f.svc.Video.SearchVideo(f.ctx, bob, "   ", 10, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty keywords: %v", err)
	}
	if _, err := f.svc.Video.SearchVideo(f.ctx, bob, "go", 0, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad page: %v", err)
	}

	if _, err := f.svc.Video.GetAverageViewRate(f.ctx, shown); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no views: %v", err)
	}
	f.store.Watch(bob.Mid, shown, 50)
	f.store.Watch(root.Mid, shown, 100)
	rate, err := f.svc.Video.GetAverageViewRate(f.ctx, shown)
	if err != nil || rate != 0.75 {
		t.Fatalf("rate = %v, %v", rate, err)
	}
}

func TestDanmu(t *testing.T) {
	f := newFixture(t)
	root := f.register(t, "root", true)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)
	id := f.publishReviewed(t, alice, root, "clip")

	if _, err := f.svc.Danmu.SendDanmu(f.ctx, bob, id, "hi", 3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("danmu without watching: %v", err)
	}
	f.store.Watch(bob.Mid, id, 10)
	first, err := f.svc.Danmu.SendDanmu(f.ctx, bob, id, "hi", 3)
	if err != nil {
		t.Fatalf("SendDanmu: %v", err)
	}
	f.clock.t = f.clock.t.Add(time.Second)
	second, _ := f.svc.Danmu.SendDanmu(f.ctx, bob, id, "hi", 1)
	third, _ := f.svc.Danmu.SendDanmu(f.ctx, bob, id, "wow", 15)
	if _, err := f.svc.Danmu.SendDanmu(f.ctx, bob, id, "late", 101); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("time past duration: %v", err)
	}
	if _, err := f.svc.Danmu.SendDanmu(f.ctx, bob, id, "", 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty content: %v", err)
	}

	all, _ := f.svc.Danmu.DisplayDanmu(f.ctx, id, 0, 100, false)
	if !slices.Equal(all, []int64{second, first, third}) {
		t.Fatalf("DisplayDanmu = %v", all)
	}
	filtered, _ := f.svc.Danmu.DisplayDanmu(f.ctx, id, 0, 100, true)
	if !slices.Equal(filtered, []int64{first, third}) {
		t.Fatalf("filtered DisplayDanmu = %v", filtered)
	}
	if _, err := f.svc.Danmu.DisplayDanmu(f.ctx, id, 5, 2, false); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("reversed range: %v", err)
	}
	hs, _ := f.svc.Video.GetHotspot(f.ctx, id)
	if !slices.Equal(hs, []int{0}) {
		t.Fatalf("hotspot = %v", hs)
	}

	if _, err := f.svc.Danmu.LikeDanmu(f.ctx, root, first); !errors.Is(err, ErrForbidden) {
		t.Fatalf("like without watching: %v", err)
	}
	if on, err := f.svc.Danmu.LikeDanmu(f.ctx, bob, first); err != nil || !on {
		t.Fatalf("like = %v, %v", on, err)
	}
	if on, _ := f.svc.Danmu.LikeDanmu(f.ctx, bob, first); on {
		t.Fatalf("like must toggle off")
	}
	if _, err := f.svc.Danmu.LikeDanmu(f.ctx, bob, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing danmu: %v", err)
	}
}

func TestRecommender(t *testing.T) {
	f := newFixture(t)
	root := f.register(t, "root", true)
	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)
	carol := f.register(t, "carol", false)

	v1 := f.publishReviewed(t, bob, root, "one")
	v2 := f.publishReviewed(t, alice, root, "two")
	v3 := f.publishReviewed(t, alice, root, "three")

	f.store.Watch(bob.Mid, v2, 10)
	f.store.Watch(bob.Mid, v3, 10)
	f.store.Watch(carol.Mid, v2, 10)
	f.store.Watch(carol.Mid, v3, 10)
	f.store.Watch(carol.Mid, v1, 10)

	next, err := f.svc.Recommender.RecommendNextVideo(f.ctx, v2)
	if err != nil || !slices.Equal(next, []string{v3, v1}) {
		t.Fatalf("RecommendNextVideo = %v, %v", next, err)
	}
	if _, err := f.svc.Recommender.RecommendNextVideo(f.ctx, "BV1missing00"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing video: %v", err)
	}

	general, _ := f.svc.Recommender.GeneralRecommendations(f.ctx, 2, 1)
	if len(general) != 2 {
		t.Fatalf("GeneralRecommendations = %v", general)
	}

	// alice has no friends yet: falls back to general recommendations.
	fallback, _ := f.svc.Recommender.RecommendVideosForUser(f.ctx, alice, 2, 1)
	if !slices.Equal(fallback, general) {
		t.Fatalf("fallback = %v, want %v", fallback, general)
	}

	for _, pair := range [][2]*model.AuthInfo{{alice, carol}, {carol, alice}, {alice, bob}} {
		if _, err := f.svc.User.Follow(f.ctx, pair[0], pair[1].Mid); err != nil {
			t.Fatalf("Follow: %v", err)
		}
	}
	forAlice, _ := f.svc.Recommender.RecommendVideosForUser(f.ctx, alice, 10, 1)
	if !slices.Equal(forAlice, []string{v3, v2, v1}) {
		t.Fatalf("RecommendVideosForUser = %v", forAlice)
	}

	if _, err := f.svc.User.Follow(f.ctx, bob, carol.Mid); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	friends, _ := f.svc.Recommender.RecommendFriends(f.ctx, bob, 10, 1)
	if !slices.Equal(friends, []int64{alice.Mid}) {
		t.Fatalf("RecommendFriends = %v", friends)
	}
}

func TestDatabaseService(t *testing.T) {
	f := newFixture(t)
	if got := f.svc.Database.GetGroupMembers(); !slices.Equal(got, DefaultGroupMembers) {
		t.Fatalf("GetGroupMembers = %v", got)
	}
	if n, err := f.svc.Database.Sum(f.ctx, 2, 3); err != nil || n != 5 {
		t.Fatalf("Sum = %d, %v", n, err)
	}
	err := f.svc.Database.ImportData(f.ctx, nil, []model.UserRecord{{Mid: 1, Name: "x", Birthday: "bad"}}, nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("invalid import: %v", err)
	}
}
