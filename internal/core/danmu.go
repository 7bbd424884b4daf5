// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/model"
)

// DanmuService handles bullet comments.
type DanmuService struct {
	*base
}

// SendDanmu posts content at second at of a public video the caller has
// watched and returns the new danmu id.
func (s *DanmuService) SendDanmu(ctx context.Context, auth *model.AuthInfo, id, content string, at float32) (int64, error) {
	var danmuID int64
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if content == "" || utf8.RuneCountInString(content) > model.MaxContentLength {
			return invalidf("content must have 1 to %d characters", model.MaxContentLength)
		}
		v, err := s.publicVideo(ctx, tx, id)
		if err != nil {
			return err
		}
		if at < 0 || at > v.Duration {
			return invalidf("time %.2f is outside of %s", at, id)
		}
		watched, err := tx.HasWatched(ctx, caller.Mid, id)
		if err != nil {
			return err
		}
		if !watched {
			return fmt.Errorf("%w: user %d has not watched %s", ErrForbidden, caller.Mid, id)
		}
		danmuID, err = tx.InsertDanmu(ctx, id, caller.Mid, content, at, s.now())
		return mapStoreError(err)
	})
	if err != nil {
		return 0, err
	}
	return danmuID, nil
}

// DisplayDanmu lists the danmu shown between start and end of a public
// video, ordered by display time. With filter set only the earliest posted
// danmu of every content is kept.
func (s *DanmuService) DisplayDanmu(ctx context.Context, id string, start, end float32, filter bool) ([]int64, error) {
	v, err := s.publicVideo(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if start < 0 || start > end || end > v.Duration {
		return nil, invalidf("range %.2f-%.2f is outside of %s", start, end, id)
	}
	return s.store.DanmuIDs(ctx, id, start, end, filter)
}

// LikeDanmu toggles the caller's like on a danmu of a video the caller has
// watched and returns whether the like is set now.
func (s *DanmuService) LikeDanmu(ctx context.Context, auth *model.AuthInfo, danmuID int64) (bool, error) {
	var liked bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		id, err := tx.DanmuVideo(ctx, danmuID)
		if err != nil {
			return mapStoreError(err)
		}
		watched, err := tx.HasWatched(ctx, caller.Mid, id)
		if err != nil {
			return err
		}
		if !watched {
			return fmt.Errorf("%w: user %d has not watched %s", ErrForbidden, caller.Mid, id)
		}
		already, err := tx.IsDanmuLiked(ctx, caller.Mid, danmuID)
		if err != nil {
			return err
		}
		if already {
			return mapStoreError(tx.UnlikeDanmu(ctx, caller.Mid, danmuID))
		}
		liked = true
		return mapStoreError(tx.LikeDanmu(ctx, caller.Mid, danmuID))
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}
