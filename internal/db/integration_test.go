// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sustc/sustc/internal/bv"
	"github.com/sustc/sustc/internal/model"
)

// openIntegration connects to the database named by SUSTC_TEST_DSN and loads
// the sample data. The test is skipped when the variable is unset.
func openIntegration(t *testing.T) (*PostgresStore, []model.VideoRecord) {
	t.Helper()
	dsn := os.Getenv("SUSTC_TEST_DSN")
	if dsn == "" {
		t.Skip("SUSTC_TEST_DSN not set; skipping PostgreSQL integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := Open(ctx, Options{DSN: dsn, ConnectRetries: 10, AllowTruncate: true, Workers: 2, BatchSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	danmus, users, videos := sampleData()
	require.NoError(t, s.ImportData(ctx, danmus, users, videos))
	return s, videos
}

func TestIntegration_ImportAndQuery(t *testing.T) {
	s, videos := openIntegration(t)
	ctx := context.Background()

	n, err := s.Sum(ctx, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	a, err := s.AuthByQQ(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Mid)
	assert.Equal(t, model.IdentitySuperuser, a.Identity)

	f, err := s.Followings(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, f)

	avg, views, err := s.AverageViewTime(ctx, videos[0].BV)
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)
	assert.InDelta(t, 75, avg, 1e-6)

	hs, err := s.Hotspots(ctx, videos[0].BV)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, hs)

	ids, err := s.DanmuIDs(ctx, videos[0].BV, 0, 100, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	top, err := s.TopScored(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{videos[0].BV}, top)

	next, err := s.TopCoViewed(ctx, videos[0].BV, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{videos[1].BV}, next)

	_, err = s.Video(ctx, "BV1orphan000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIntegration_WritePath(t *testing.T) {
	s, videos := openIntegration(t)
	ctx := context.Background()
	now := time.Now()

	mid, err := s.InsertUser(ctx, NewUser{Password: "x", Name: "dave", Sex: model.GenderMale, BirthdayMonth: 3, BirthdayDay: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(4), mid)

	_, err = s.InsertUser(ctx, NewUser{Password: "x", Name: "dave", Sex: model.GenderMale})
	assert.ErrorIs(t, err, ErrDuplicate)

	id, err := s.InsertVideo(ctx, mid, &model.PostVideoReq{Title: "fresh", Duration: 30, PublicTime: now}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(20002), bv.Decode(id))

	require.NoError(t, s.Engage(ctx, EngageCoin, 2, id))
	ok, err := s.HasEngaged(ctx, EngageCoin, 2, id)
	require.NoError(t, err)
	assert.True(t, ok)

	danmuID, err := s.InsertDanmu(ctx, videos[0].BV, 2, "late", 9, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), danmuID)

	reviewed, err := s.ReviewVideo(ctx, id, 1, now)
	require.NoError(t, err)
	assert.True(t, reviewed)

	deleted, err := s.DeleteUser(ctx, mid)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = s.Video(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Truncate(ctx))
	exists, err := s.UserExists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIntegration_ImportUnknownReviewer(t *testing.T) {
	dsn := os.Getenv("SUSTC_TEST_DSN")
	if dsn == "" {
		t.Skip("SUSTC_TEST_DSN not set; skipping PostgreSQL integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := Open(ctx, Options{DSN: dsn, ConnectRetries: 10, AllowTruncate: true, Workers: 2, BatchSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	danmus, users, videos := withReviewers(999)
	require.NoError(t, s.ImportData(ctx, danmus, users, videos))

	v, err := s.Video(ctx, bv.Encode(30000))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Reviewer)
	assert.False(t, v.Reviewed())
}
