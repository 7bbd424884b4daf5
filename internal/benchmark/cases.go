// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package benchmark replays recorded service calls against a fresh import of
// the data set and compares every answer with the recorded one.
//
// Case files are msgpack lists of Case compressed with zstd and named
// "<step>.msgpack.zst". They live in the "bench" directory next to the CSV
// files and run in name order.
package benchmark // import "github.com/sustc/sustc/internal/benchmark"

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/sustc/sustc/internal/model"
)

// CaseSuffix is the file name suffix of a case file.
const CaseSuffix = ".msgpack.zst"

// Operation names used in Case.Op.
const (
	OpSum            = "database.sum"
	OpGroupMembers   = "database.members"
	OpRegister       = "user.register"
	OpDeleteAccount  = "user.delete"
	OpFollow         = "user.follow"
	OpUserInfo       = "user.info"
	OpPostVideo      = "video.post"
	OpDeleteVideo    = "video.delete"
	OpUpdateVideo    = "video.update"
	OpSearchVideo    = "video.search"
	OpViewRate       = "video.view_rate"
	OpHotspot        = "video.hotspot"
	OpReviewVideo    = "video.review"
	OpCoinVideo      = "video.coin"
	OpLikeVideo      = "video.like"
	OpCollectVideo   = "video.collect"
	OpSendDanmu      = "danmu.send"
	OpDisplayDanmu   = "danmu.display"
	OpLikeDanmu      = "danmu.like"
	OpNextVideo      = "recommend.next"
	OpGeneral        = "recommend.general"
	OpForUser        = "recommend.user"
	OpRecommendUsers = "recommend.friends"
)

// Args holds the arguments of every operation; each one reads only the
// fields it needs.
type Args struct {
	Mid      int64                  `json:"mid,omitempty"`
	BV       string                 `json:"bv,omitempty"`
	Keywords string                 `json:"keywords,omitempty"`
	PageSize int                    `json:"pageSize,omitempty"`
	PageNum  int                    `json:"pageNum,omitempty"`
	Start    float32                `json:"start,omitempty"`
	End      float32                `json:"end,omitempty"`
	Time     float32                `json:"time,omitempty"`
	Filter   bool                   `json:"filter,omitempty"`
	Content  string                 `json:"content,omitempty"`
	DanmuID  int64                  `json:"danmuId,omitempty"`
	A        int                    `json:"a,omitempty"`
	B        int                    `json:"b,omitempty"`
	Register *model.RegisterUserReq `json:"register,omitempty"`
	Video    *model.PostVideoReq    `json:"video,omitempty"`
}

// Case is one recorded call and its expected, normalized answer.
type Case struct {
	Op   string          `json:"op"`
	Auth *model.AuthInfo `json:"auth,omitempty"`
	Args Args            `json:"args"`
	Want any             `json:"want"`
}

// WriteCases encodes cases as zstd compressed msgpack.
func WriteCases(w io.Writer, cases []Case) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(cases); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode cases: %w", err)
	}
	return zw.Close()
}

// ReadCases decodes a case file written by WriteCases.
func ReadCases(r io.Reader) ([]Case, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")
	var cases []Case
	if err := dec.Decode(&cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	return cases, nil
}

// ReadCaseFile opens and decodes one case file.
func ReadCaseFile(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	cases, err := ReadCases(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Pack converts a JSON array of cases into the case file format and returns
// the number of cases written.
func Pack(in io.Reader, out io.Writer) (int, error) {
	var cases []Case
	if err := json.NewDecoder(in).Decode(&cases); err != nil {
		return 0, fmt.Errorf("decode json cases: %w", err)
	}
	for i, c := range cases {
		if c.Op == "" {
			return 0, fmt.Errorf("case %d: op is empty", i)
		}
	}
	if err := WriteCases(out, cases); err != nil {
		return 0, err
	}
	return len(cases), nil
}
