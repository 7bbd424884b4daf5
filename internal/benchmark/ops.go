// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package benchmark

import (
	"context"

	"github.com/sustc/sustc/internal/core"
)

// operation calls one service method. fail is the answer recorded for a
// rejected call.
type operation struct {
	fail any
	call func(ctx context.Context, s *core.Services, c *Case) (any, error)
}

// Failure values.
var (
	failID   any = int64(-1)
	failRate any = float64(-1)
	failBool any = false
)

var operations = map[string]operation{
	OpSum: {failID, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Database.Sum(ctx, c.Args.A, c.Args.B)
	}},
	OpGroupMembers: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Database.GetGroupMembers(), nil
	}},

	OpRegister: {failID, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.User.Register(ctx, c.Args.Register)
	}},
	OpDeleteAccount: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.User.DeleteAccount(ctx, c.Auth, c.Args.Mid)
	}},
	OpFollow: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.User.Follow(ctx, c.Auth, c.Args.Mid)
	}},
	OpUserInfo: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.User.GetUserInfo(ctx, c.Args.Mid)
	}},

	OpPostVideo: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.PostVideo(ctx, c.Auth, c.Args.Video)
	}},
	OpDeleteVideo: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.DeleteVideo(ctx, c.Auth, c.Args.BV)
	}},
	OpUpdateVideo: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.UpdateVideoInfo(ctx, c.Auth, c.Args.BV, c.Args.Video)
	}},
	OpSearchVideo: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.SearchVideo(ctx, c.Auth, c.Args.Keywords, c.Args.PageSize, c.Args.PageNum)
	}},
	OpViewRate: {failRate, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.GetAverageViewRate(ctx, c.Args.BV)
	}},
	OpHotspot: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.GetHotspot(ctx, c.Args.BV)
	}},
	OpReviewVideo: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.ReviewVideo(ctx, c.Auth, c.Args.BV)
	}},
	OpCoinVideo: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.CoinVideo(ctx, c.Auth, c.Args.BV)
	}},
	OpLikeVideo: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.LikeVideo(ctx, c.Auth, c.Args.BV)
	}},
	OpCollectVideo: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Video.CollectVideo(ctx, c.Auth, c.Args.BV)
	}},

	OpSendDanmu: {failID, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Danmu.SendDanmu(ctx, c.Auth, c.Args.BV, c.Args.Content, c.Args.Time)
	}},
	OpDisplayDanmu: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Danmu.DisplayDanmu(ctx, c.Args.BV, c.Args.Start, c.Args.End, c.Args.Filter)
	}},
	OpLikeDanmu: {failBool, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Danmu.LikeDanmu(ctx, c.Auth, c.Args.DanmuID)
	}},

	OpNextVideo: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Recommender.RecommendNextVideo(ctx, c.Args.BV)
	}},
	OpGeneral: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Recommender.GeneralRecommendations(ctx, c.Args.PageSize, c.Args.PageNum)
	}},
	OpForUser: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Recommender.RecommendVideosForUser(ctx, c.Auth, c.Args.PageSize, c.Args.PageNum)
	}},
	OpRecommendUsers: {nil, func(ctx context.Context, s *core.Services, c *Case) (any, error) {
		return s.Recommender.RecommendFriends(ctx, c.Auth, c.Args.PageSize, c.Args.PageNum)
	}},
}
