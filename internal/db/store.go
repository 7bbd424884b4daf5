// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/sustc/sustc/internal/model"
)

// EngageKind selects one of the per-video engagement tables.
type EngageKind int

const (
	EngageLike EngageKind = iota
	EngageCoin
	EngageFavorite
)

func (k EngageKind) String() string {
	switch k {
	case EngageLike:
		return "like"
	case EngageCoin:
		return "coin"
	case EngageFavorite:
		return "favorite"
	}
	return "unknown"
}

// AuthRow is the stored credential set of a user together with its identity.
type AuthRow struct {
	Mid      int64
	Password string
	QQ       string
	Wechat   string
	Identity model.Identity
}

// NewUser is a validated registration ready to be stored.
type NewUser struct {
	Password      string // already encoded
	QQ            string
	Wechat        string
	Name          string
	Sex           model.Gender
	BirthdayMonth int
	BirthdayDay   int
	Sign          string
}

// SearchQuery describes one page of a keyword search.
type SearchQuery struct {
	Keywords  []string // lower case, non-empty
	Caller    int64
	Superuser bool
	Now       time.Time
	Limit     int
	Offset    int
}

// Page converts 1-based page arguments into limit and offset.
func Page(pageSize, pageNum int) (limit, offset int) {
	return pageSize, pageSize * (pageNum - 1)
}

// DatabaseStore holds the bulk operations.
type DatabaseStore interface {
	ImportData(ctx context.Context, danmus []model.DanmuRecord, users []model.UserRecord, videos []model.VideoRecord) error
	Truncate(ctx context.Context) error
	Sum(ctx context.Context, a, b int) (int, error)
}

// UserStore holds account, follow and per-user list queries.
type UserStore interface {
	AuthByMid(ctx context.Context, mid int64) (*AuthRow, error)
	AuthByQQ(ctx context.Context, qq string) (*AuthRow, error)
	AuthByWechat(ctx context.Context, wechat string) (*AuthRow, error)
	UserExists(ctx context.Context, mid int64) (bool, error)
	QQOrWechatTaken(ctx context.Context, qq, wechat string) (bool, error)
	NameTaken(ctx context.Context, name string) (bool, error)
	InsertUser(ctx context.Context, u NewUser) (int64, error)
	DeleteUser(ctx context.Context, mid int64) (bool, error)

	IsFollowing(ctx context.Context, follower, followee int64) (bool, error)
	Follow(ctx context.Context, follower, followee int64) error
	Unfollow(ctx context.Context, follower, followee int64) error

	Coin(ctx context.Context, mid int64) (int32, error)
	AddCoin(ctx context.Context, mid int64, delta int32) error

	Followings(ctx context.Context, mid int64) ([]int64, error)
	Followers(ctx context.Context, mid int64) ([]int64, error)
	Watched(ctx context.Context, mid int64) ([]string, error)
	Liked(ctx context.Context, mid int64) ([]string, error)
	Collected(ctx context.Context, mid int64) ([]string, error)
	Posted(ctx context.Context, mid int64) ([]string, error)
}

// VideoStore holds video, engagement and search queries.
type VideoStore interface {
	Video(ctx context.Context, bv string) (*model.Video, error)
	OwnerHasTitle(ctx context.Context, owner int64, title string) (bool, error)
	InsertVideo(ctx context.Context, owner int64, req *model.PostVideoReq, now time.Time) (string, error)
	DeleteVideo(ctx context.Context, bv string) (bool, error)
	UpdateVideo(ctx context.Context, bv string, req *model.PostVideoReq) (bool, error)
	ReviewVideo(ctx context.Context, bv string, reviewer int64, now time.Time) (bool, error)

	HasWatched(ctx context.Context, mid int64, bv string) (bool, error)
	HasEngaged(ctx context.Context, kind EngageKind, mid int64, bv string) (bool, error)
	Engage(ctx context.Context, kind EngageKind, mid int64, bv string) error
	Disengage(ctx context.Context, kind EngageKind, mid int64, bv string) error

	AverageViewTime(ctx context.Context, bv string) (avg float64, views int64, err error)
	Hotspots(ctx context.Context, bv string) ([]int, error)
	SearchVideos(ctx context.Context, q SearchQuery) ([]string, error)
}

// DanmuStore holds bullet comment queries.
type DanmuStore interface {
	InsertDanmu(ctx context.Context, bv string, mid int64, content string, at float32, now time.Time) (int64, error)
	DanmuIDs(ctx context.Context, bv string, start, end float32, filter bool) ([]int64, error)
	DanmuVideo(ctx context.Context, id int64) (string, error)
	IsDanmuLiked(ctx context.Context, mid, id int64) (bool, error)
	LikeDanmu(ctx context.Context, mid, id int64) error
	UnlikeDanmu(ctx context.Context, mid, id int64) error
}

// RecommendStore holds the recommendation queries.
type RecommendStore interface {
	TopCoViewed(ctx context.Context, bv string, limit int) ([]string, error)
	TopScored(ctx context.Context, limit, offset int) ([]string, error)
	HasFriendInterests(ctx context.Context, mid int64, now time.Time) (bool, error)
	FriendInterests(ctx context.Context, mid int64, now time.Time, limit, offset int) ([]string, error)
	RecommendFriends(ctx context.Context, mid int64, limit, offset int) ([]int64, error)
}

// Store defines the interface for all database operations of the platform.
// This allows for multiple database backends to be implemented.
type Store interface {
	DatabaseStore
	UserStore
	VideoStore
	DanmuStore
	RecommendStore

	// RunInTx runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
