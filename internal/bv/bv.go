// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package bv converts between numeric AV ids and the 12 character BV ids used
// as video primary keys.
package bv // import "github.com/sustc/sustc/internal/bv"

import "strings"

const (
	table    = "fZodR9XQDSUm21yCkr6zBqiveYah8bt4xsWpHnJE7jL5VG3guMTKNPAwcF"
	template = "BV1  4 1 7  "
	xorKey   = 177451812
	addKey   = 8728348608
	// Length of every BV id.
	Length = 12
)

var positions = [6]int{11, 10, 3, 8, 4, 6}

var reverse = func() map[byte]int64 {
	m := make(map[byte]int64, len(table))
	for i := 0; i < len(table); i++ {
		m[table[i]] = int64(i)
	}
	return m
}()

// Encode returns the BV id of av.
func Encode(av int64) string {
	x := (av ^ xorKey) + addKey
	out := []byte(template)
	var pow int64 = 1
	for _, p := range positions {
		out[p] = table[(x/pow)%58]
		pow *= 58
	}
	return string(out)
}

// Decode returns the AV number encoded in id. The result is meaningless when
// Valid(id) is false.
func Decode(id string) int64 {
	if len(id) != Length {
		return 0
	}
	var r, pow int64 = 0, 1
	for _, p := range positions {
		r += reverse[id[p]] * pow
		pow *= 58
	}
	return (r - addKey) ^ xorKey
}

// Valid reports whether id has the BV shape: 12 characters, a "BV" prefix and
// only characters of the codec alphabet after it.
func Valid(id string) bool {
	if len(id) != Length || !strings.HasPrefix(id, "BV") {
		return false
	}
	for i := 2; i < Length; i++ {
		if strings.IndexByte(table, id[i]) < 0 {
			return false
		}
	}
	return true
}
