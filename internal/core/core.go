// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package core implements the platform services on top of a db.Store.
// Every operation validates its arguments and the caller's credentials and
// reports rejections as errors wrapping one of the package sentinels, so UI
// layers can map them to their own conventions.
package core // import "github.com/sustc/sustc/internal/core"

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/model"
	"github.com/sustc/sustc/internal/security"
)

var (
	// ErrInvalidArgument is returned for malformed or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized is returned when the credentials do not identify a user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a referenced user, video or danmu is missing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the operation clashes with existing data.
	ErrConflict = errors.New("conflict")
)

// DefaultGroupMembers are the student ids reported by GetGroupMembers.
var DefaultGroupMembers = []int{12212224}

// Options configures the services.
type Options struct {
	GroupMembers []int
	// Now is the clock used for visibility checks and timestamps.
	Now func() time.Time
}

// Services bundles every service sharing one store.
type Services struct {
	Database    *DatabaseService
	User        *UserService
	Video       *VideoService
	Danmu       *DanmuService
	Recommender *RecommenderService
}

// base carries what every service needs.
type base struct {
	store db.Store
	now   func() time.Time
}

// New wires the services to store.
func New(store db.Store, opts Options) *Services {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	members := opts.GroupMembers
	if len(members) == 0 {
		members = DefaultGroupMembers
	}
	b := &base{store: store, now: now}
	return &Services{
		Database:    &DatabaseService{base: b, members: members},
		User:        &UserService{base: b},
		Video:       &VideoService{base: b},
		Danmu:       &DanmuService{base: b},
		Recommender: &RecommenderService{base: b},
	}
}

func invalidf(format string, v ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, v...))
}

// mapStoreError translates store sentinels into service sentinels.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrForeignKey):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, db.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, db.ErrInvalidRecord):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}

// authenticate resolves the caller. With a password the mid must exist and
// match; any QQ or WeChat given alongside must belong to the same user.
// Without a password QQ and/or WeChat must resolve to one user, which must
// equal auth.Mid when that is set.
func (b *base) authenticate(ctx context.Context, store db.Store, auth *model.AuthInfo) (*db.AuthRow, error) {
	if auth == nil {
		return nil, fmt.Errorf("%w: missing credentials", ErrUnauthorized)
	}
	lookup := func(row *db.AuthRow, err error) (*db.AuthRow, error) {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return row, err
	}

	if auth.Password != "" {
		if auth.Mid <= 0 {
			return nil, fmt.Errorf("%w: mid is required with a password", ErrUnauthorized)
		}
		row, err := lookup(store.AuthByMid(ctx, auth.Mid))
		if err != nil {
			return nil, err
		}
		if !security.Matches(auth.Password, row.Password) {
			return nil, fmt.Errorf("%w: wrong password", ErrUnauthorized)
		}
		if (auth.QQ != "" && auth.QQ != row.QQ) || (auth.Wechat != "" && auth.Wechat != row.Wechat) {
			return nil, fmt.Errorf("%w: qq or wechat does not belong to user %d", ErrUnauthorized, row.Mid)
		}
		return row, nil
	}

	var row *db.AuthRow
	if auth.QQ != "" {
		r, err := lookup(store.AuthByQQ(ctx, auth.QQ))
		if err != nil {
			return nil, err
		}
		row = r
	}
	if auth.Wechat != "" {
		r, err := lookup(store.AuthByWechat(ctx, auth.Wechat))
		if err != nil {
			return nil, err
		}
		if row != nil && row.Mid != r.Mid {
			return nil, fmt.Errorf("%w: qq and wechat belong to different users", ErrUnauthorized)
		}
		row = r
	}
	if row == nil {
		return nil, fmt.Errorf("%w: no credentials given", ErrUnauthorized)
	}
	if auth.Mid != 0 && auth.Mid != row.Mid {
		return nil, fmt.Errorf("%w: mid does not match", ErrUnauthorized)
	}
	return row, nil
}

// publicVideo loads a video whose public time has passed, reviewed or not.
func (b *base) publicVideo(ctx context.Context, store db.Store, id string) (*model.Video, error) {
	if id == "" {
		return nil, invalidf("bv is empty")
	}
	v, err := store.Video(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !v.Published(b.now()) {
		return nil, fmt.Errorf("%w: video %s is not public yet", ErrNotFound, id)
	}
	return v, nil
}

func checkPage(pageSize, pageNum int) error {
	if pageSize <= 0 || pageNum <= 0 {
		return invalidf("page size %d and page number %d must be positive", pageSize, pageNum)
	}
	return nil
}
