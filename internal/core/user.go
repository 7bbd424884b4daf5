// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/logging"
	"github.com/sustc/sustc/internal/model"
	"github.com/sustc/sustc/internal/security"
)

// UserService handles accounts and follows.
type UserService struct {
	*base
}

// Authenticate returns the mid identified by auth.
func (s *UserService) Authenticate(ctx context.Context, auth *model.AuthInfo) (int64, error) {
	row, err := s.authenticate(ctx, s.store, auth)
	if err != nil {
		return 0, err
	}
	return row.Mid, nil
}

func validateRegister(req *model.RegisterUserReq) (db.NewUser, error) {
	if req == nil {
		return db.NewUser{}, invalidf("missing request")
	}
	if req.Password == "" || req.Name == "" || req.Sex == "" || req.Birthday == "" {
		return db.NewUser{}, invalidf("password, name, sex and birthday are required")
	}
	sex, err := model.ParseGender(string(req.Sex))
	if err != nil {
		return db.NewUser{}, invalidf("%v", err)
	}
	month, day, err := model.ParseBirthday(req.Birthday)
	if err != nil {
		return db.NewUser{}, invalidf("%v", err)
	}
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"password", req.Password, model.MaxPasswordLength},
		{"name", req.Name, model.MaxNameLength},
		{"qq", req.QQ, model.MaxQQLength},
		{"wechat", req.Wechat, model.MaxWechatLength},
		{"sign", req.Sign, model.MaxSignLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return db.NewUser{}, invalidf("%s is longer than %d characters", l.field, l.max)
		}
	}
	return db.NewUser{
		QQ:            req.QQ,
		Wechat:        req.Wechat,
		Name:          req.Name,
		Sex:           sex,
		BirthdayMonth: month,
		BirthdayDay:   day,
		Sign:          req.Sign,
	}, nil
}

// Register creates a USER with level 1 and no coins and returns its mid.
func (s *UserService) Register(ctx context.Context, req *model.RegisterUserReq) (int64, error) {
	nu, err := validateRegister(req)
	if err != nil {
		return 0, err
	}
	if nu.Password, err = security.Encode(req.Password); err != nil {
		return 0, err
	}
	var mid int64
	err = s.store.RunInTx(ctx, func(tx db.Store) error {
		taken, err := tx.QQOrWechatTaken(ctx, nu.QQ, nu.Wechat)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: qq or wechat already registered", ErrConflict)
		}
		if taken, err = tx.NameTaken(ctx, nu.Name); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: name %q already taken", ErrConflict, nu.Name)
		}
		mid, err = tx.InsertUser(ctx, nu)
		return mapStoreError(err)
	})
	if err != nil {
		return 0, err
	}
	logging.Debugf("registered user %d (%s)", mid, nu.Name)
	return mid, nil
}

// DeleteAccount removes mid. A USER may only delete itself; a SUPERUSER may
// delete itself and any USER but no other SUPERUSER.
func (s *UserService) DeleteAccount(ctx context.Context, auth *model.AuthInfo, mid int64) (bool, error) {
	var deleted bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		target, err := tx.AuthByMid(ctx, mid)
		if err != nil {
			return mapStoreError(err)
		}
		if caller.Mid != mid {
			if caller.Identity != model.IdentitySuperuser {
				return fmt.Errorf("%w: user %d may not delete user %d", ErrForbidden, caller.Mid, mid)
			}
			if target.Identity == model.IdentitySuperuser {
				return fmt.Errorf("%w: superuser %d may not be deleted by another superuser", ErrForbidden, mid)
			}
		}
		deleted, err = tx.DeleteUser(ctx, mid)
		return mapStoreError(err)
	})
	return deleted, err
}

// Follow toggles the follow from the caller to followee and returns whether
// the caller follows followee afterwards.
func (s *UserService) Follow(ctx context.Context, auth *model.AuthInfo, followee int64) (bool, error) {
	var following bool
	err := s.store.RunInTx(ctx, func(tx db.Store) error {
		caller, err := s.authenticate(ctx, tx, auth)
		if err != nil {
			return err
		}
		if caller.Mid == followee {
			return invalidf("users cannot follow themselves")
		}
		exists, err := tx.UserExists(ctx, followee)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: user %d", ErrNotFound, followee)
		}
		already, err := tx.IsFollowing(ctx, caller.Mid, followee)
		if err != nil {
			return err
		}
		if already {
			following = false
			return mapStoreError(tx.Unfollow(ctx, caller.Mid, followee))
		}
		following = true
		return mapStoreError(tx.Follow(ctx, caller.Mid, followee))
	})
	return following, err
}

// GetUserInfo gathers the coin balance and the six per-user lists of mid.
func (s *UserService) GetUserInfo(ctx context.Context, mid int64) (*model.UserInfoResp, error) {
	coin, err := s.store.Coin(ctx, mid)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, mid)
	}
	if err != nil {
		return nil, err
	}
	resp := &model.UserInfoResp{Mid: mid, Coin: coin}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resp.Following, err = s.store.Followings(gctx, mid)
		return err
	})
	g.Go(func() (err error) {
		resp.Follower, err = s.store.Followers(gctx, mid)
		return err
	})
	g.Go(func() (err error) {
		resp.Watched, err = s.store.Watched(gctx, mid)
		return err
	})
	g.Go(func() (err error) {
		resp.Liked, err = s.store.Liked(gctx, mid)
		return err
	})
	g.Go(func() (err error) {
		resp.Collected, err = s.store.Collected(gctx, mid)
		return err
	})
	g.Go(func() (err error) {
		resp.Posted, err = s.store.Posted(gctx, mid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("user info of %d: %w", mid, err)
	}
	return resp, nil
}
