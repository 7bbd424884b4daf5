// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/sustc/sustc/internal/bv"
	"github.com/sustc/sustc/internal/model"
)

// maxAllocAttempts bounds the retries when an allocated BV collides with an
// imported one.
const maxAllocAttempts = 16

type videoRow struct {
	BV          string     `bun:"bv"`
	Title       string     `bun:"title"`
	Owner       int64      `bun:"owner"`
	CommitTime  time.Time  `bun:"commit_time"`
	ReviewTime  *time.Time `bun:"review_time"`
	PublicTime  *time.Time `bun:"public_time"`
	Duration    float32    `bun:"duration"`
	Description string     `bun:"description"`
	Reviewer    int64      `bun:"reviewer"`
}

func engageTable(kind EngageKind) (string, error) {
	switch kind {
	case EngageLike:
		return "video_like", nil
	case EngageCoin:
		return "video_coin", nil
	case EngageFavorite:
		return "video_fav", nil
	}
	return "", fmt.Errorf("unknown engagement kind %d", kind)
}

// Video implements Store.
func (s *PostgresStore) Video(ctx context.Context, id string) (*model.Video, error) {
	var r videoRow
	err := QueryRawInto(ctx, s.bun, &r, `SELECT bv, title, owner, commit_time, review_time, public_time, duration,
       COALESCE(description, '') AS description, COALESCE(reviewer, 0) AS reviewer
FROM video WHERE bv = ?`, id)
	if err != nil {
		return nil, MapDBError(err)
	}
	return &model.Video{
		BV:          r.BV,
		Title:       r.Title,
		Owner:       r.Owner,
		CommitTime:  r.CommitTime,
		ReviewTime:  r.ReviewTime,
		PublicTime:  r.PublicTime,
		Duration:    r.Duration,
		Description: r.Description,
		Reviewer:    r.Reviewer,
	}, nil
}

// OwnerHasTitle implements Store.
func (s *PostgresStore) OwnerHasTitle(ctx context.Context, owner int64, title string) (bool, error) {
	return queryExists(ctx, s.bun, "SELECT EXISTS(SELECT 1 FROM video WHERE owner = ? AND title = ?)", owner, title)
}

// InsertVideo implements Store. The BV is derived from the next value of
// video_av_seq; values already taken by imported videos are skipped.
func (s *PostgresStore) InsertVideo(ctx context.Context, owner int64, req *model.PostVideoReq, now time.Time) (string, error) {
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		var av int64
		if err := QueryRawInto(ctx, s.bun, &av, "SELECT nextval('video_av_seq')"); err != nil {
			return "", fmt.Errorf("allocate av: %w", MapDBError(err))
		}
		id := bv.Encode(av)
		ok, err := execAffected(ctx, s.bun,
			`INSERT INTO video (bv, title, owner, commit_time, public_time, duration, description)
VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (bv) DO NOTHING`,
			id, req.Title, owner, now, req.PublicTime, req.Duration, req.Description)
		if err != nil {
			return "", fmt.Errorf("insert video: %w", err)
		}
		if ok {
			storeEvent("video inserted", "bv", id, "av", av, "owner", owner)
			return id, nil
		}
		storeEvent("av taken, retrying", "av", av)
	}
	return "", fmt.Errorf("insert video: %w", ErrDuplicate)
}

// DeleteVideo implements Store.
func (s *PostgresStore) DeleteVideo(ctx context.Context, id string) (bool, error) {
	return execAffected(ctx, s.bun, "DELETE FROM video WHERE bv = ?", id)
}

// UpdateVideo implements Store. The review is cleared so the new info has to
// be approved again.
func (s *PostgresStore) UpdateVideo(ctx context.Context, id string, req *model.PostVideoReq) (bool, error) {
	return execAffected(ctx, s.bun,
		`UPDATE video SET title = ?, description = ?, public_time = ?, reviewer = NULL, review_time = NULL
WHERE bv = ?`,
		req.Title, req.Description, req.PublicTime, id)
}

// ReviewVideo implements Store. It only succeeds on unreviewed videos.
func (s *PostgresStore) ReviewVideo(ctx context.Context, id string, reviewer int64, now time.Time) (bool, error) {
	return execAffected(ctx, s.bun,
		"UPDATE video SET reviewer = ?, review_time = ? WHERE bv = ? AND reviewer IS NULL",
		reviewer, now, id)
}

// HasWatched implements Store.
func (s *PostgresStore) HasWatched(ctx context.Context, mid int64, id string) (bool, error) {
	return queryExists(ctx, s.bun, "SELECT EXISTS(SELECT 1 FROM video_view WHERE mid = ? AND bv = ?)", mid, id)
}

// HasEngaged implements Store.
func (s *PostgresStore) HasEngaged(ctx context.Context, kind EngageKind, mid int64, id string) (bool, error) {
	table, err := engageTable(kind)
	if err != nil {
		return false, err
	}
	return queryExists(ctx, s.bun, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE mid = ? AND bv = ?)", mid, id)
}

// Engage implements Store.
func (s *PostgresStore) Engage(ctx context.Context, kind EngageKind, mid int64, id string) error {
	table, err := engageTable(kind)
	if err != nil {
		return err
	}
	_, err = ExecRaw(ctx, s.bun, "INSERT INTO "+table+" (mid, bv) VALUES (?, ?) ON CONFLICT DO NOTHING", mid, id)
	return MapDBError(err)
}

// Disengage implements Store.
func (s *PostgresStore) Disengage(ctx context.Context, kind EngageKind, mid int64, id string) error {
	table, err := engageTable(kind)
	if err != nil {
		return err
	}
	_, err = ExecRaw(ctx, s.bun, "DELETE FROM "+table+" WHERE mid = ? AND bv = ?", mid, id)
	return MapDBError(err)
}

// AverageViewTime implements Store.
func (s *PostgresStore) AverageViewTime(ctx context.Context, id string) (float64, int64, error) {
	var avg float64
	var n int64
	err := s.bun.NewRaw("SELECT COALESCE(AVG(view_time), 0)::DOUBLE PRECISION, COUNT(*) FROM video_view WHERE bv = ?", id).
		Scan(ctx, &avg, &n)
	if err != nil {
		return 0, 0, MapDBError(err)
	}
	return avg, n, nil
}

// Hotspots implements Store through the get_hotspot function.
func (s *PostgresStore) Hotspots(ctx context.Context, id string) ([]int, error) {
	return queryList[int](ctx, s.bun, "SELECT hotspot FROM get_hotspot(?)", id)
}

// searchSQL counts the non-overlapping occurrences of every keyword in the
// title, description and owner name of each visible video.
const searchSQL = `WITH kw AS (
    SELECT k FROM unnest(?::TEXT[]) AS k
), rel AS (
    SELECT v.bv,
           SUM((LENGTH(LOWER(v.title)) - LENGTH(REPLACE(LOWER(v.title), kw.k, ''))) / LENGTH(kw.k)
             + (LENGTH(LOWER(COALESCE(v.description, ''))) - LENGTH(REPLACE(LOWER(COALESCE(v.description, '')), kw.k, ''))) / LENGTH(kw.k)
             + (LENGTH(LOWER(p.name)) - LENGTH(REPLACE(LOWER(p.name), kw.k, ''))) / LENGTH(kw.k)) AS relevance
    FROM video v
    JOIN user_profile p ON p.mid = v.owner
    CROSS JOIN kw
    WHERE ? OR v.owner = ?
       OR (v.reviewer IS NOT NULL AND (v.public_time IS NULL OR v.public_time < ?))
    GROUP BY v.bv
)
SELECT r.bv
FROM rel r JOIN video_stat st ON st.bv = r.bv
WHERE r.relevance > 0
ORDER BY r.relevance DESC, st.view_count DESC, r.bv
LIMIT ? OFFSET ?`

// SearchVideos implements Store.
func (s *PostgresStore) SearchVideos(ctx context.Context, q SearchQuery) ([]string, error) {
	return queryList[string](ctx, s.bun, searchSQL,
		pgdialect.Array(q.Keywords), q.Superuser, q.Caller, q.Now, q.Limit, q.Offset)
}
