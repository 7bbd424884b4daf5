// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared by the SUSTC store,
// services, CSV loader and benchmark runner.
package model // import "github.com/sustc/sustc/internal/model"

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Gender of a user as stored in the Gender enum.
type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderUnknown Gender = "UNKNOWN"
)

// ParseGender accepts the enum names (any case) as well as the labels used by
// the course data set.
func ParseGender(s string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MALE", "M", "男":
		return GenderMale, nil
	case "FEMALE", "F", "女":
		return GenderFemale, nil
	case "UNKNOWN", "", "保密":
		return GenderUnknown, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Identity is the privilege level of a user.
type Identity string

const (
	IdentityUser      Identity = "USER"
	IdentitySuperuser Identity = "SUPERUSER"
)

// ParseIdentity is case-insensitive; an empty value means USER.
func ParseIdentity(s string) (Identity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER", "":
		return IdentityUser, nil
	case "SUPERUSER":
		return IdentitySuperuser, nil
	}
	return "", fmt.Errorf("unknown identity %q", s)
}

// AuthInfo carries the credentials of a request. Login by mid needs the
// password; login by QQ or WeChat (OIDC) does not.
type AuthInfo struct {
	Mid      int64  `json:"mid"`
	Password string `json:"password,omitempty"`
	QQ       string `json:"qq,omitempty"`
	Wechat   string `json:"wechat,omitempty"`
}

// Replace overwrites the fields of a with the non-empty fields of data.
func (a *AuthInfo) Replace(data *AuthInfo) {
	if data == nil {
		return
	}
	if data.Mid > 0 {
		a.Mid = data.Mid
	}
	if data.Password != "" {
		a.Password = data.Password
	}
	if data.QQ != "" {
		a.QQ = data.QQ
	}
	if data.Wechat != "" {
		a.Wechat = data.Wechat
	}
}

// UserRecord is one row of the user import data.
type UserRecord struct {
	Mid       int64    `json:"mid"`
	Name      string   `json:"name"`
	Sex       Gender   `json:"sex"`
	Birthday  string   `json:"birthday"`
	Level     int16    `json:"level"`
	Coin      int32    `json:"coin"`
	Sign      string   `json:"sign"`
	Identity  Identity `json:"identity"`
	Password  string   `json:"password"`
	QQ        string   `json:"qq"`
	Wechat    string   `json:"wechat"`
	Following []int64  `json:"following"`
}

// VideoRecord is one row of the video import data. ViewerMids and ViewTime
// are parallel slices.
type VideoRecord struct {
	BV          string     `json:"bv"`
	Title       string     `json:"title"`
	OwnerMid    int64      `json:"ownerMid"`
	OwnerName   string     `json:"ownerName"`
	CommitTime  time.Time  `json:"commitTime"`
	ReviewTime  *time.Time `json:"reviewTime"`
	PublicTime  *time.Time `json:"publicTime"`
	Duration    float32    `json:"duration"`
	Description string     `json:"description"`
	Reviewer    int64      `json:"reviewer"`
	Like        []int64    `json:"like"`
	Coin        []int64    `json:"coin"`
	Favorite    []int64    `json:"favorite"`
	ViewerMids  []int64    `json:"viewerMids"`
	ViewTime    []float32  `json:"viewTime"`
}

// DanmuRecord is one row of the danmu import data.
type DanmuRecord struct {
	BV       string    `json:"bv"`
	Mid      int64     `json:"mid"`
	Time     float32   `json:"time"`
	Content  string    `json:"content"`
	PostTime time.Time `json:"postTime"`
	LikedBy  []int64   `json:"likedBy"`
}

// RegisterUserReq is the payload of a user registration.
type RegisterUserReq struct {
	Password string `json:"password"`
	QQ       string `json:"qq,omitempty"`
	Wechat   string `json:"wechat,omitempty"`
	Name     string `json:"name"`
	Sex      Gender `json:"sex"`
	Birthday string `json:"birthday"`
	Sign     string `json:"sign,omitempty"`
}

// PostVideoReq is the payload used to post or update a video. PublicTime is
// when the video becomes visible to others; it is required.
type PostVideoReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float32   `json:"duration"`
	PublicTime  time.Time `json:"publicTime"`
}

// IsInvalid reports whether the request lacks a title, is shorter than
// MinVideoDuration or is scheduled before now.
func (r *PostVideoReq) IsInvalid(now time.Time) bool {
	return r == nil ||
		r.Title == "" ||
		r.Duration < MinVideoDuration ||
		r.PublicTime.IsZero() ||
		r.PublicTime.Before(now)
}

// Same reports whether two requests describe identical video info.
func (r *PostVideoReq) Same(o *PostVideoReq) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Title == o.Title &&
		r.Description == o.Description &&
		math.Abs(float64(r.Duration-o.Duration)) < Epsilon &&
		r.PublicTime.Equal(o.PublicTime)
}

// Video is the stored state of a video as seen by the services.
type Video struct {
	BV          string
	Title       string
	Owner       int64
	CommitTime  time.Time
	ReviewTime  *time.Time
	PublicTime  *time.Time
	Duration    float32
	Description string
	Reviewer    int64
}

// Reviewed reports whether a superuser has approved the video.
func (v *Video) Reviewed() bool { return v.Reviewer > 0 }

// Published reports whether the public time has passed at now. A video
// without public time is public immediately.
func (v *Video) Published(now time.Time) bool {
	return v.PublicTime == nil || v.PublicTime.Before(now)
}

// Req returns the editable part of the video.
func (v *Video) Req() *PostVideoReq {
	r := &PostVideoReq{Title: v.Title, Description: v.Description, Duration: v.Duration}
	if v.PublicTime != nil {
		r.PublicTime = *v.PublicTime
	}
	return r
}

// UserInfoResp aggregates everything the platform knows about a user.
type UserInfoResp struct {
	Mid       int64    `json:"mid"`
	Coin      int32    `json:"coin"`
	Following []int64  `json:"following"`
	Follower  []int64  `json:"follower"`
	Watched   []string `json:"watched"`
	Liked     []string `json:"liked"`
	Collected []string `json:"collected"`
	Posted    []string `json:"posted"`
}
