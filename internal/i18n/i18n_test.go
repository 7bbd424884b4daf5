// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	for _, k := range []string{"en", "zh"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present, got %v", k, av)
		}
	}
	if av["zh"] != "中文" {
		t.Fatalf("unexpected display name for zh: %q", av["zh"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")
	if got := T("truncate.done"); got != "database truncated" {
		t.Fatalf("expected 'database truncated', got %q", got)
	}
	if got := T("sum.result", 1, 2, 3); got != "1 + 2 = 3" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	SetLang("zh")
	if GetLang() != "zh" {
		t.Fatalf("expected lang 'zh', got %q", GetLang())
	}
	if got := T("truncate.done"); got != "数据库已清空" {
		t.Fatalf("expected Chinese translation, got %q", got)
	}
	Init("en")
}

func TestT_Fallbacks(t *testing.T) {
	Init("fr")
	if got := T("truncate.done"); got != "database truncated" {
		t.Fatalf("unknown language should fall back to English, got %q", got)
	}
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("unknown ids are returned as is, got %q", got)
	}
	Init("en")
}
