// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/sustc/sustc/internal/logging"
)

var debugEnabled bool

// SetDebug turns on store event logging (pool setup, schema phases, inserts
// and truncation). Events are logged at debug level, so the process log level
// must allow them too.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// storeEvent logs one store event with key/value fields. The child logger is
// built per call so level and output changes on logging.L apply.
func storeEvent(event string, keyvals ...any) {
	if !debugEnabled {
		return
	}
	logging.With("component", "store").Debug(event, keyvals...)
}
