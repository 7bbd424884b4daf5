// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/sustc/sustc/internal/model"
)

type authRow struct {
	Mid      int64  `bun:"mid"`
	Password string `bun:"password"`
	QQ       string `bun:"qq"`
	Wechat   string `bun:"wechat"`
	Identity string `bun:"identity"`
}

const authSelect = `SELECT a.mid, a.password, COALESCE(a.qq, '') AS qq, COALESCE(a.wechat, '') AS wechat,
       p.identity::TEXT AS identity
FROM user_auth a JOIN user_profile p ON p.mid = a.mid
WHERE `

func (s *PostgresStore) authBy(ctx context.Context, where string, arg any) (*AuthRow, error) {
	var r authRow
	if err := QueryRawInto(ctx, s.bun, &r, authSelect+where, arg); err != nil {
		return nil, MapDBError(err)
	}
	return &AuthRow{
		Mid:      r.Mid,
		Password: r.Password,
		QQ:       r.QQ,
		Wechat:   r.Wechat,
		Identity: model.Identity(r.Identity),
	}, nil
}

// AuthByMid implements Store.
func (s *PostgresStore) AuthByMid(ctx context.Context, mid int64) (*AuthRow, error) {
	return s.authBy(ctx, "a.mid = ?", mid)
}

// AuthByQQ implements Store.
func (s *PostgresStore) AuthByQQ(ctx context.Context, qq string) (*AuthRow, error) {
	return s.authBy(ctx, "a.qq = ?", qq)
}

// AuthByWechat implements Store.
func (s *PostgresStore) AuthByWechat(ctx context.Context, wechat string) (*AuthRow, error) {
	return s.authBy(ctx, "a.wechat = ?", wechat)
}

// UserExists implements Store.
func (s *PostgresStore) UserExists(ctx context.Context, mid int64) (bool, error) {
	return queryExists(ctx, s.bun, "SELECT EXISTS(SELECT 1 FROM user_auth WHERE mid = ?)", mid)
}

// QQOrWechatTaken implements Store. Empty values never match.
func (s *PostgresStore) QQOrWechatTaken(ctx context.Context, qq, wechat string) (bool, error) {
	return queryExists(ctx, s.bun,
		"SELECT EXISTS(SELECT 1 FROM user_auth WHERE (? <> '' AND qq = ?) OR (? <> '' AND wechat = ?))",
		qq, qq, wechat, wechat)
}

// NameTaken implements Store.
func (s *PostgresStore) NameTaken(ctx context.Context, name string) (bool, error) {
	return queryExists(ctx, s.bun, "SELECT EXISTS(SELECT 1 FROM user_profile WHERE name = ?)", name)
}

// InsertUser implements Store. Both rows are written in one transaction.
func (s *PostgresStore) InsertUser(ctx context.Context, u NewUser) (int64, error) {
	var mid int64
	err := s.RunInTx(ctx, func(tx Store) error {
		q := tx.(*PostgresStore).bun
		if err := QueryRawInto(ctx, q, &mid,
			"INSERT INTO user_auth (password, qq, wechat) VALUES (?, ?, ?) RETURNING mid",
			u.Password, nullString(u.QQ), nullString(u.Wechat)); err != nil {
			return MapDBError(err)
		}
		var month, day any
		if u.BirthdayMonth > 0 {
			month, day = u.BirthdayMonth, u.BirthdayDay
		}
		_, err := ExecRaw(ctx, q,
			`INSERT INTO user_profile (mid, name, sex, birthday_month, birthday_day, level, coin, sign, identity)
VALUES (?, ?, ?::Gender, ?, ?, 1, 0, ?, 'USER')`,
			mid, u.Name, string(u.Sex), month, day, nullString(u.Sign))
		return MapDBError(err)
	})
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	storeEvent("user registered", "mid", mid)
	return mid, nil
}

// DeleteUser implements Store. Profile, follows, videos and engagements go
// with the user through ON DELETE CASCADE.
func (s *PostgresStore) DeleteUser(ctx context.Context, mid int64) (bool, error) {
	return execAffected(ctx, s.bun, "DELETE FROM user_auth WHERE mid = ?", mid)
}

// IsFollowing implements Store.
func (s *PostgresStore) IsFollowing(ctx context.Context, follower, followee int64) (bool, error) {
	return queryExists(ctx, s.bun,
		"SELECT EXISTS(SELECT 1 FROM user_follow WHERE follower = ? AND followee = ?)", follower, followee)
}

// Follow implements Store.
func (s *PostgresStore) Follow(ctx context.Context, follower, followee int64) error {
	_, err := ExecRaw(ctx, s.bun,
		"INSERT INTO user_follow (follower, followee) VALUES (?, ?) ON CONFLICT DO NOTHING", follower, followee)
	return MapDBError(err)
}

// Unfollow implements Store.
func (s *PostgresStore) Unfollow(ctx context.Context, follower, followee int64) error {
	_, err := ExecRaw(ctx, s.bun, "DELETE FROM user_follow WHERE follower = ? AND followee = ?", follower, followee)
	return MapDBError(err)
}

// Coin implements Store.
func (s *PostgresStore) Coin(ctx context.Context, mid int64) (int32, error) {
	var coin int32
	if err := QueryRawInto(ctx, s.bun, &coin, "SELECT coin FROM user_profile WHERE mid = ?", mid); err != nil {
		return 0, MapDBError(err)
	}
	return coin, nil
}

// AddCoin implements Store.
func (s *PostgresStore) AddCoin(ctx context.Context, mid int64, delta int32) error {
	ok, err := execAffected(ctx, s.bun, "UPDATE user_profile SET coin = coin + ? WHERE mid = ?", delta, mid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Followings implements Store.
func (s *PostgresStore) Followings(ctx context.Context, mid int64) ([]int64, error) {
	return queryList[int64](ctx, s.bun, "SELECT followee FROM user_follow WHERE follower = ? ORDER BY followee", mid)
}

// Followers implements Store.
func (s *PostgresStore) Followers(ctx context.Context, mid int64) ([]int64, error) {
	return queryList[int64](ctx, s.bun, "SELECT follower FROM user_follow WHERE followee = ? ORDER BY follower", mid)
}

// Watched implements Store.
func (s *PostgresStore) Watched(ctx context.Context, mid int64) ([]string, error) {
	return queryList[string](ctx, s.bun, "SELECT bv FROM video_view WHERE mid = ? ORDER BY bv", mid)
}

// Liked implements Store.
func (s *PostgresStore) Liked(ctx context.Context, mid int64) ([]string, error) {
	return queryList[string](ctx, s.bun, "SELECT bv FROM video_like WHERE mid = ? ORDER BY bv", mid)
}

// Collected implements Store.
func (s *PostgresStore) Collected(ctx context.Context, mid int64) ([]string, error) {
	return queryList[string](ctx, s.bun, "SELECT bv FROM video_fav WHERE mid = ? ORDER BY bv", mid)
}

// Posted implements Store.
func (s *PostgresStore) Posted(ctx context.Context, mid int64) ([]string, error) {
	return queryList[string](ctx, s.bun, "SELECT bv FROM video WHERE owner = ? ORDER BY bv", mid)
}
