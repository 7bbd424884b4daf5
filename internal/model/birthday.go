// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"regexp"
	"strconv"
)

var birthdayPattern = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日$`)

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ParseBirthday splits a birthday written as "M月D日" into month and day.
// February 29 is accepted.
func ParseBirthday(s string) (month, day int, err error) {
	m := birthdayPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("birthday %q is not in M月D日 form", s)
	}
	month, _ = strconv.Atoi(m[1])
	day, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > daysInMonth[month] {
		return 0, 0, fmt.Errorf("birthday %q is not a calendar day", s)
	}
	return month, day, nil
}

// FormatBirthday is the inverse of ParseBirthday.
func FormatBirthday(month, day int) string {
	return fmt.Sprintf("%d月%d日", month, day)
}
