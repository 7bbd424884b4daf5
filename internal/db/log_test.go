// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"

	"github.com/sustc/sustc/internal/logging"
)

func TestStoreEvent(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.L
	logging.L = clog.New(&buf)
	logging.L.SetLevel(clog.DebugLevel)
	defer func() {
		logging.L = prev
		SetDebug(false)
	}()

	SetDebug(false)
	storeEvent("user registered", "mid", 7)
	if buf.Len() != 0 {
		t.Fatalf("events logged while disabled: %s", buf.String())
	}

	SetDebug(true)
	storeEvent("video inserted", "bv", "BV1xx411c7mD", "owner", 7)
	out := buf.String()
	for _, want := range []string{"video inserted", "component=store", "bv=BV1xx411c7mD", "owner=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q; got: %s", want, out)
		}
	}
}
