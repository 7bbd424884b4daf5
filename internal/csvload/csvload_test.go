// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package csvload

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sustc/sustc/internal/model"
)

const usersCSV = "\ufeffMid,Name,Sex,Birthday,Level,Sign,Following,Identity,Coin,Password,QQ,WeChat\n" +
	`1,alice,女,3月14日,5,"hi, there","[2,3]",user,10,pw1,10001,` + "\n" +
	`2,bob,男,,1,,[],SUPERUSER,0,pw2,,wx_bob` + "\n" +
	`3,carol,,,,,,,,pw3,,` + "\n"

const videosCSV = "BV,Title,Owner Mid,Owner Name,Commit Time,Review Time,Public Time,Duration,Description,Reviewer,Like,Coin,Favorite,View\n" +
	`BV1xx411c7mD,hello,1,alice,2023-01-02 03:04:05,2023-01-03 00:00:00,2023-01-04 00:00:00,120.5,first,2,"[2,3]",[2],[],"[[2, 60.5], [3, 12]]"` + "\n" +
	`BV1yy411c7mE,draft,2,bob,2023-02-01 00:00:00,,,30,,,,,,` + "\n"

const danmuCSV = "bv,mid,time,content,post_time,liked_by\n" +
	`BV1xx411c7mD,2,1.5,nice,2023-01-05 10:00:00,"[1,3]"` + "\n" +
	`BV1xx411c7mD,3,10,"quoted, content",2023-01-05 10:01:00,` + "\n"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Owner Mid":      "ownermid",
		"owner_mid":      "ownermid",
		" owner-mid ":    "ownermid",
		"\ufeffmid":      "mid",
		"POST\tTIME":     "posttime",
		"liked by":       "likedby",
		"already normal": "alreadynormal",
	}
	for in, want := range tests {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadUsers(t *testing.T) {
	users, err := LoadUsers(strings.NewReader(usersCSV))
	if err != nil {
		t.Fatalf("LoadUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3", len(users))
	}
	alice := users[0]
	want := model.UserRecord{
		Mid:       1,
		Name:      "alice",
		Sex:       model.GenderFemale,
		Birthday:  "3月14日",
		Level:     5,
		Coin:      10,
		Sign:      "hi, there",
		Identity:  model.IdentityUser,
		Password:  "pw1",
		QQ:        "10001",
		Following: []int64{2, 3},
	}
	if !reflect.DeepEqual(alice, want) {
		t.Errorf("alice = %+v, want %+v", alice, want)
	}
	if users[1].Identity != model.IdentitySuperuser || users[1].Wechat != "wx_bob" {
		t.Errorf("bob = %+v", users[1])
	}
	if len(users[1].Following) != 0 {
		t.Errorf("bob follows %v, want none", users[1].Following)
	}
	carol := users[2]
	if carol.Sex != model.GenderUnknown || carol.Level != 0 || carol.Following != nil {
		t.Errorf("carol defaults = %+v", carol)
	}
}

func TestLoadVideos(t *testing.T) {
	videos, err := LoadVideos(strings.NewReader(videosCSV))
	if err != nil {
		t.Fatalf("LoadVideos: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	v := videos[0]
	commit := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)
	if !v.CommitTime.Equal(commit) {
		t.Errorf("commit time = %v, want %v", v.CommitTime, commit)
	}
	if v.ReviewTime == nil || v.PublicTime == nil || v.Reviewer != 2 {
		t.Errorf("review fields = %v %v %d", v.ReviewTime, v.PublicTime, v.Reviewer)
	}
	if v.OwnerMid != 1 || v.Duration != 120.5 || v.Description != "first" {
		t.Errorf("video = %+v", v)
	}
	if !reflect.DeepEqual(v.Like, []int64{2, 3}) || !reflect.DeepEqual(v.Coin, []int64{2}) {
		t.Errorf("like %v coin %v", v.Like, v.Coin)
	}
	if !reflect.DeepEqual(v.ViewerMids, []int64{2, 3}) || !reflect.DeepEqual(v.ViewTime, []float32{60.5, 12}) {
		t.Errorf("views %v %v", v.ViewerMids, v.ViewTime)
	}

	draft := videos[1]
	if draft.ReviewTime != nil || draft.PublicTime != nil || draft.Reviewer != 0 {
		t.Errorf("draft should be unreviewed: %+v", draft)
	}
	if draft.ViewerMids != nil || draft.Like != nil {
		t.Errorf("draft lists should be empty: %+v", draft)
	}
}

func TestLoadDanmus(t *testing.T) {
	danmus, err := LoadDanmus(strings.NewReader(danmuCSV))
	if err != nil {
		t.Fatalf("LoadDanmus: %v", err)
	}
	if len(danmus) != 2 {
		t.Fatalf("got %d danmu, want 2", len(danmus))
	}
	if danmus[0].Time != 1.5 || !reflect.DeepEqual(danmus[0].LikedBy, []int64{1, 3}) {
		t.Errorf("first danmu = %+v", danmus[0])
	}
	if danmus[1].Content != "quoted, content" || danmus[1].LikedBy != nil {
		t.Errorf("second danmu = %+v", danmus[1])
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		load    func(string) error
		input   string
		missing bool
		msg     string
	}{
		{
			name:    "missing column",
			load:    func(s string) error { _, err := LoadUsers(strings.NewReader(s)); return err },
			input:   "name,sex\nalice,F\n",
			missing: true,
		},
		{
			name:  "bad mid",
			load:  func(s string) error { _, err := LoadUsers(strings.NewReader(s)); return err },
			input: "mid,name\n1,alice\nx,bob\n",
			msg:   "line 3, column mid",
		},
		{
			name:  "bad list",
			load:  func(s string) error { _, err := LoadVideos(strings.NewReader(s)); return err },
			input: "bv,title,like\nBV1,t,[1,\n",
			msg:   "column like",
		},
		{
			name:  "bad time",
			load:  func(s string) error { _, err := LoadDanmus(strings.NewReader(s)); return err },
			input: "bv,mid,content,post time\nBV1,1,hi,yesterday\n",
			msg:   "column post time",
		},
		{
			name:  "level out of range",
			load:  func(s string) error { _, err := LoadUsers(strings.NewReader(s)); return err },
			input: "mid,name,level\n1,alice,40000\n",
			msg:   "column level",
		},
		{
			name:  "coin out of range",
			load:  func(s string) error { _, err := LoadUsers(strings.NewReader(s)); return err },
			input: "mid,name,coin\n1,alice,3000000000\n",
			msg:   "column coin",
		},
		{
			name:  "bad gender",
			load:  func(s string) error { _, err := LoadUsers(strings.NewReader(s)); return err },
			input: "mid,name,sex\n1,alice,robot\n",
			msg:   "column sex",
		},
		{
			name:  "empty input",
			load:  func(s string) error { _, err := LoadDanmus(strings.NewReader(s)); return err },
			input: "",
			msg:   "read header",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.load(tc.input)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.missing && !errors.Is(err, ErrMissingColumn) {
				t.Errorf("err = %v, want ErrMissingColumn", err)
			}
			if tc.msg != "" && !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("err = %v, want it to mention %q", err, tc.msg)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2023-06-01 12:30:00")
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if want := time.Date(2023, 6, 1, 12, 30, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	got, err = ParseTime("2023-06-01T12:30:00Z")
	if err != nil {
		t.Fatalf("ParseTime RFC3339: %v", err)
	}
	if want := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := ParseTime("06/01/2023"); err == nil {
		t.Error("expected an error for an unknown layout")
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		UsersFile:  usersCSV,
		VideosFile: videosCSV,
		DanmuFile:  danmuCSV,
	})
	d, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(d.Users) != 3 || len(d.Videos) != 2 || len(d.Danmus) != 2 {
		t.Errorf("loaded %d users, %d videos, %d danmu", len(d.Users), len(d.Videos), len(d.Danmus))
	}
}

func TestLoadDirErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		UsersFile:  usersCSV,
		VideosFile: videosCSV,
	})
	if _, err := LoadDir(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing danmu file: err = %v, want ErrNotExist", err)
	}

	dir = writeFiles(t, map[string]string{
		UsersFile:  "mid,name\nnope,alice\n",
		VideosFile: videosCSV,
		DanmuFile:  danmuCSV,
	})
	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), UsersFile) {
		t.Errorf("bad users file: err = %v, want it to name %s", err, UsersFile)
	}
}
