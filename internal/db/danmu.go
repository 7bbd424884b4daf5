// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"
)

// InsertDanmu implements Store.
func (s *PostgresStore) InsertDanmu(ctx context.Context, id string, mid int64, content string, at float32, now time.Time) (int64, error) {
	var danmuID int64
	err := QueryRawInto(ctx, s.bun, &danmuID,
		"INSERT INTO danmu (bv, mid, dis_time, content, post_time) VALUES (?, ?, ?, ?, ?) RETURNING id",
		id, mid, at, content, now)
	if err != nil {
		return 0, MapDBError(err)
	}
	return danmuID, nil
}

// DanmuIDs implements Store. With filter set only the earliest posted danmu
// of every distinct content is kept.
func (s *PostgresStore) DanmuIDs(ctx context.Context, id string, start, end float32, filter bool) ([]int64, error) {
	if filter {
		return queryList[int64](ctx, s.bun, `SELECT id FROM (
    SELECT DISTINCT ON (content) id, dis_time
    FROM danmu
    WHERE bv = ? AND dis_time BETWEEN ? AND ?
    ORDER BY content, post_time, id
) d
ORDER BY dis_time, id`, id, start, end)
	}
	return queryList[int64](ctx, s.bun,
		"SELECT id FROM danmu WHERE bv = ? AND dis_time BETWEEN ? AND ? ORDER BY dis_time, id", id, start, end)
}

// DanmuVideo implements Store.
func (s *PostgresStore) DanmuVideo(ctx context.Context, danmuID int64) (string, error) {
	var id string
	if err := QueryRawInto(ctx, s.bun, &id, "SELECT bv FROM danmu WHERE id = ?", danmuID); err != nil {
		return "", MapDBError(err)
	}
	return id, nil
}

// IsDanmuLiked implements Store.
func (s *PostgresStore) IsDanmuLiked(ctx context.Context, mid, danmuID int64) (bool, error) {
	return queryExists(ctx, s.bun, "SELECT EXISTS(SELECT 1 FROM danmu_like WHERE mid = ? AND id = ?)", mid, danmuID)
}

// LikeDanmu implements Store.
func (s *PostgresStore) LikeDanmu(ctx context.Context, mid, danmuID int64) error {
	_, err := ExecRaw(ctx, s.bun, "INSERT INTO danmu_like (mid, id) VALUES (?, ?) ON CONFLICT DO NOTHING", mid, danmuID)
	return MapDBError(err)
}

// UnlikeDanmu implements Store.
func (s *PostgresStore) UnlikeDanmu(ctx context.Context, mid, danmuID int64) error {
	_, err := ExecRaw(ctx, s.bun, "DELETE FROM danmu_like WHERE mid = ? AND id = ?", mid, danmuID)
	return MapDBError(err)
}
