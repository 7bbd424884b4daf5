// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"
)

// TopCoViewed implements Store. Ties are broken by bv.
func (s *PostgresStore) TopCoViewed(ctx context.Context, id string, limit int) ([]string, error) {
	return queryList[string](ctx, s.bun, `SELECT o.bv
FROM video_view me
JOIN video_view o ON o.mid = me.mid AND o.bv <> me.bv
WHERE me.bv = ?
GROUP BY o.bv
ORDER BY COUNT(*) DESC, o.bv
LIMIT ?`, id, limit)
}

// TopScored implements Store.
func (s *PostgresStore) TopScored(ctx context.Context, limit, offset int) ([]string, error) {
	return queryList[string](ctx, s.bun,
		"SELECT bv FROM video_stat ORDER BY score DESC, view_count DESC, bv LIMIT ? OFFSET ?", limit, offset)
}

// friendViews joins the views of every mutual follow of the caller onto the
// visible videos the caller has not watched. Arguments: caller, caller, now.
const friendViews = `WITH friends AS (
    SELECT f.followee AS mid
    FROM user_follow f
    JOIN user_follow b ON b.follower = f.followee AND b.followee = f.follower
    WHERE f.follower = ?
)
SELECT v.bv, p.level, v.public_time
FROM friends fr
JOIN video_view vv ON vv.mid = fr.mid
JOIN video v ON v.bv = vv.bv
JOIN user_profile p ON p.mid = v.owner
WHERE NOT EXISTS (SELECT 1 FROM video_view w WHERE w.mid = ? AND w.bv = v.bv)
  AND v.reviewer IS NOT NULL
  AND (v.public_time IS NULL OR v.public_time < ?)`

// HasFriendInterests implements Store.
func (s *PostgresStore) HasFriendInterests(ctx context.Context, mid int64, now time.Time) (bool, error) {
	return queryExists(ctx, s.bun, "SELECT EXISTS("+friendViews+")", mid, mid, now)
}

// FriendInterests implements Store.
func (s *PostgresStore) FriendInterests(ctx context.Context, mid int64, now time.Time, limit, offset int) ([]string, error) {
	return queryList[string](ctx, s.bun, `SELECT bv FROM (`+friendViews+`) fv
GROUP BY bv, level, public_time
ORDER BY COUNT(*) DESC, level DESC, public_time DESC NULLS LAST, bv
LIMIT ? OFFSET ?`, mid, mid, now, limit, offset)
}

// RecommendFriends implements Store.
func (s *PostgresStore) RecommendFriends(ctx context.Context, mid int64, limit, offset int) ([]int64, error) {
	return queryList[int64](ctx, s.bun, `SELECT u.mid
FROM user_follow mine
JOIN user_follow theirs ON theirs.followee = mine.followee AND theirs.follower <> mine.follower
JOIN user_profile u ON u.mid = theirs.follower
WHERE mine.follower = ?
  AND NOT EXISTS (SELECT 1 FROM user_follow x WHERE x.follower = ? AND x.followee = theirs.follower)
GROUP BY u.mid, u.level
ORDER BY COUNT(*) DESC, u.level DESC, u.mid
LIMIT ? OFFSET ?`, mid, mid, limit, offset)
}
