// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"slices"

	"github.com/sustc/sustc/internal/model"
)

// DatabaseService exposes the bulk operations of the store.
type DatabaseService struct {
	*base
	members []int
}

// GetGroupMembers returns the student ids of the group.
func (s *DatabaseService) GetGroupMembers() []int { return slices.Clone(s.members) }

// ImportData replaces the database content with the given records.
func (s *DatabaseService) ImportData(ctx context.Context, danmus []model.DanmuRecord, users []model.UserRecord, videos []model.VideoRecord) error {
	return mapStoreError(s.store.ImportData(ctx, danmus, users, videos))
}

// Truncate empties every table when the store allows it.
func (s *DatabaseService) Truncate(ctx context.Context) error {
	return s.store.Truncate(ctx)
}

// Sum adds a and b in the database.
func (s *DatabaseService) Sum(ctx context.Context, a, b int) (int, error) {
	return s.store.Sum(ctx, a, b)
}
