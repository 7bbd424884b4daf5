// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/model"
)

// RecommenderService ranks videos and users.
type RecommenderService struct {
	*base
}

// RecommendNextVideo returns up to five other videos sharing the most
// viewers with the given public video.
func (s *RecommenderService) RecommendNextVideo(ctx context.Context, id string) ([]string, error) {
	if _, err := s.publicVideo(ctx, s.store, id); err != nil {
		return nil, err
	}
	return s.store.TopCoViewed(ctx, id, model.NextVideoCount)
}

// GeneralRecommendations pages through all videos by score.
func (s *RecommenderService) GeneralRecommendations(ctx context.Context, pageSize, pageNum int) ([]string, error) {
	if err := checkPage(pageSize, pageNum); err != nil {
		return nil, err
	}
	limit, offset := db.Page(pageSize, pageNum)
	return s.store.TopScored(ctx, limit, offset)
}

// RecommendVideosForUser pages through the visible videos the caller's
// friends watched and the caller did not. Without such videos it falls back
// to GeneralRecommendations.
func (s *RecommenderService) RecommendVideosForUser(ctx context.Context, auth *model.AuthInfo, pageSize, pageNum int) ([]string, error) {
	caller, err := s.authenticate(ctx, s.store, auth)
	if err != nil {
		return nil, err
	}
	if err := checkPage(pageSize, pageNum); err != nil {
		return nil, err
	}
	now := s.now()
	ok, err := s.store.HasFriendInterests(ctx, caller.Mid, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.GeneralRecommendations(ctx, pageSize, pageNum)
	}
	limit, offset := db.Page(pageSize, pageNum)
	return s.store.FriendInterests(ctx, caller.Mid, now, limit, offset)
}

// RecommendFriends pages through users the caller does not follow, ranked
// by the number of followings they share with the caller.
func (s *RecommenderService) RecommendFriends(ctx context.Context, auth *model.AuthInfo, pageSize, pageNum int) ([]int64, error) {
	caller, err := s.authenticate(ctx, s.store, auth)
	if err != nil {
		return nil, err
	}
	if err := checkPage(pageSize, pageNum); err != nil {
		return nil, err
	}
	limit, offset := db.Page(pageSize, pageNum)
	return s.store.RecommendFriends(ctx, caller.Mid, limit, offset)
}
