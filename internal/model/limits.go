// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// Column limits of the relational schema. Lengths are in characters.
const (
	MaxPasswordLength    = 63
	MaxQQLength          = 12
	MaxWechatLength      = 25
	MaxNameLength        = 25
	MaxSignLength        = 100
	MaxBVLength          = 12
	MaxTitleLength       = 70
	MaxDescriptionLength = 1600
	MaxContentLength     = 300
)

// Batch sizes used by bulk loading.
const (
	NormalBatchSize = 1000
	BigBatchSize    = 10000
	CopyBatchSize   = 50000
)

const (
	// MinVideoDuration is the shortest accepted video, in seconds.
	MinVideoDuration = 10
	// HotspotChunk is the width of a hotspot bucket, in seconds.
	HotspotChunk = 10
	// NextVideoCount is how many videos RecommendNextVideo returns.
	NextVideoCount = 5
	// Epsilon is the tolerance used when comparing durations.
	Epsilon = 1e-6
)
