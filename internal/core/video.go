// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/logging"
	"github.com/sustc/sustc/internal/model"
)

// VideoService handles videos, their review and engagement.
type VideoService struct {
	*base
}

func (s *VideoService) validateReq(req *model.PostVideoReq) error {
	if req.IsInvalid(s.now()) {
		return invalidf("video request needs a title, at least %d seconds and a future public time", model.MinVideoDuration)
	}
	if utf8.RuneCountInString(req.Title) > model.MaxTitleLength {
		return invalidf("title is longer than %d characters", model.MaxTitleLength)
	}
	if utf8.RuneCountInString(req.Description) > model.MaxDescriptionLength {
		return invalidf("description is longer than %d characters", model.MaxDescriptionLength)
	}
	return nil
}

func (s *VideoService) video(ctx context.Context, store db.Store, id string) (*model.Video, error) {
	if id == "" {
		return nil, invalidf("bv is empty")
	}
	v, err := store.Video(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return v, nil
}

// PostVideo stores a new unreviewed video owned by the caller and returns
// its BV.
func (s *VideoService) PostVideo(ctx context.Context, auth *model.AuthInfo, req *model.PostVideoReq) (string, error) {
	var id string
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if err := s.validateReq(req); err != nil {
			return err
		}
		dup, err := tx.OwnerHasTitle(ctx, caller.Mid, req.Title)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: user %d already posted %q", ErrConflict, caller.Mid, req.Title)
		}
		id, err = tx.InsertVideo(ctx, caller.Mid, req, s.now())
		return mapStoreError(err)
	})
	if err != nil {
		return "", err
	}
	logging.Debugf("posted video %s", id)
	return id, nil
}

// DeleteVideo removes a video. Only its owner or a SUPERUSER may do so.
func (s *VideoService) DeleteVideo(ctx context.Context, auth *model.AuthInfo, id string) (bool, error) {
	var deleted bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		v, err := s.video(ctx, tx, id)
		if err != nil {
			return err
		}
		if v.Owner != caller.Mid && caller.Identity != model.IdentitySuperuser {
			return fmt.Errorf("%w: user %d does not own %s", ErrForbidden, caller.Mid, id)
		}
		deleted, err = tx.DeleteVideo(ctx, id)
		return mapStoreError(err)
	})
	return deleted, err
}

// UpdateVideoInfo replaces the title, description and public time of the
// caller's video. The duration must stay the same and something else must
// change. The video has to be reviewed again afterwards.
func (s *VideoService) UpdateVideoInfo(ctx context.Context, auth *model.AuthInfo, id string, req *model.PostVideoReq) (bool, error) {
	var updated bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if err := s.validateReq(req); err != nil {
			return err
		}
		v, err := s.video(ctx, tx, id)
		if err != nil {
			return err
		}
		if v.Owner != caller.Mid {
			return fmt.Errorf("%w: user %d does not own %s", ErrForbidden, caller.Mid, id)
		}
		if math.Abs(float64(v.Duration-req.Duration)) > model.Epsilon {
			return invalidf("duration of %s cannot change", id)
		}
		if v.Req().Same(req) {
			return invalidf("nothing to update on %s", id)
		}
		updated, err = tx.UpdateVideo(ctx, id, req)
		return mapStoreError(err)
	})
	return updated, err
}

// SearchVideo returns one page of the videos visible to the caller that
// mention any of the whitespace separated keywords, most relevant first.
func (s *VideoService) SearchVideo(ctx context.Context, auth *model.AuthInfo, keywords string, pageSize, pageNum int) ([]string, error) {
	caller, err := s.authenticate(ctx, s.store, auth)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(keywords))
	if len(words) == 0 {
		return nil, invalidf("no keywords")
	}
	if err := checkPage(pageSize, pageNum); err != nil {
		return nil, err
	}
	limit, offset := db.Page(pageSize, pageNum)
	return s.store.SearchVideos(ctx, db.SearchQuery{
		Keywords:  words,
		Caller:    caller.Mid,
		Superuser: caller.Identity == model.IdentitySuperuser,
		Now:       s.now(),
		Limit:     limit,
		Offset:    offset,
	})
}

// GetAverageViewRate returns the mean watched fraction of a public video.
func (s *VideoService) GetAverageViewRate(ctx context.Context, id string) (float64, error) {
	v, err := s.publicVideo(ctx, s.store, id)
	if err != nil {
		return 0, err
	}
	avg, views, err := s.store.AverageViewTime(ctx, id)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if views == 0 || v.Duration <= 0 {
		return 0, fmt.Errorf("%w: %s has no views", ErrNotFound, id)
	}
	return avg / float64(v.Duration), nil
}

// GetHotspot returns the indices of the 10 second chunks with the most
// danmu. The result is empty when the video has none, including when the bv
// is empty or unknown.
func (s *VideoService) GetHotspot(ctx context.Context, id string) ([]int, error) {
	if id == "" {
		return []int{}, nil
	}
	hs, err := s.store.Hotspots(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if hs == nil {
		hs = []int{}
	}
	return hs, nil
}

// ReviewVideo marks a video as reviewed by the calling SUPERUSER.
func (s *VideoService) ReviewVideo(ctx context.Context, auth *model.AuthInfo, id string) (bool, error) {
	var reviewed bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if caller.Identity != model.IdentitySuperuser {
			return fmt.Errorf("%w: only superusers review videos", ErrForbidden)
		}
		v, err := s.video(ctx, tx, id)
		if err != nil {
			return err
		}
		if v.Owner == caller.Mid {
			return fmt.Errorf("%w: superusers cannot review their own videos", ErrForbidden)
		}
		if v.Reviewed() {
			return fmt.Errorf("%w: %s is already reviewed", ErrConflict, id)
		}
		reviewed, err = tx.ReviewVideo(ctx, id, caller.Mid, s.now())
		return mapStoreError(err)
	})
	return reviewed, err
}

// engageable checks that the caller may interact with the video: it exists,
// is not the caller's own, and for a USER it is reviewed and public.
func (s *VideoService) engageable(ctx context.Context, tx db.Store, caller *db.AuthRow, id string) error {
	v, err := s.video(ctx, tx, id)
	if err != nil {
		return err
	}
	if v.Owner == caller.Mid {
		return fmt.Errorf("%w: users cannot engage their own videos", ErrForbidden)
	}
	if caller.Identity == model.IdentitySuperuser {
		return nil
	}
	if !v.Reviewed() || !v.Published(s.now()) {
		return fmt.Errorf("%w: %s is not visible", ErrNotFound, id)
	}
	return nil
}

// CoinVideo spends one of the caller's coins on the video. Each user can
// coin a video only once.
func (s *VideoService) CoinVideo(ctx context.Context, auth *model.AuthInfo, id string) (bool, error) {
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if err := s.engageable(ctx, tx, caller, id); err != nil {
			return err
		}
		done, err := tx.HasEngaged(ctx, db.EngageCoin, caller.Mid, id)
		if err != nil {
			return err
		}
		if done {
			return fmt.Errorf("%w: user %d already coined %s", ErrConflict, caller.Mid, id)
		}
		coin, err := tx.Coin(ctx, caller.Mid)
		if err != nil {
			return mapStoreError(err)
		}
		if coin < 1 {
			return fmt.Errorf("%w: user %d has no coins", ErrForbidden, caller.Mid)
		}
		if err := tx.Engage(ctx, db.EngageCoin, caller.Mid, id); err != nil {
			return mapStoreError(err)
		}
		return mapStoreError(tx.AddCoin(ctx, caller.Mid, -1))
	})
	return err == nil, err
}

func (s *VideoService) toggle(ctx context.Context, kind db.EngageKind, auth *model.AuthInfo, id string) (bool, error) {
	var on bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if err := s.engageable(ctx, tx, caller, id); err != nil {
			return err
		}
		done, err := tx.HasEngaged(ctx, kind, caller.Mid, id)
		if err != nil {
			return err
		}
		if done {
			return mapStoreError(tx.Disengage(ctx, kind, caller.Mid, id))
		}
		on = true
		return mapStoreError(tx.Engage(ctx, kind, caller.Mid, id))
	})
	if err != nil {
		return false, err
	}
	return on, nil
}

// LikeVideo toggles the caller's like and returns whether it is set now.
func (s *VideoService) LikeVideo(ctx context.Context, auth *model.AuthInfo, id string) (bool, error) {
	return s.toggle(ctx, db.EngageLike, auth, id)
}

// CollectVideo toggles the caller's favorite and returns whether it is set
// now.
func (s *VideoService) CollectVideo(ctx context.Context, auth *model.AuthInfo, id string) (bool, error) {
	return s.toggle(ctx, db.EngageFavorite, auth, id)
}
