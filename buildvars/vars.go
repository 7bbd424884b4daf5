// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars // import "github.com/sustc/sustc/buildvars"

// Version is set at link time via `-ldflags -X github.com/sustc/sustc/buildvars.Version=...`.
// It will be empty for local or development builds.
var Version string

// Commit is the VCS revision, set the same way as Version.
var Commit string

// VersionOrDefault returns `Version` if set, otherwise returns the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}

// String formats the version and, when known, the commit.
func String() string {
	v := VersionOrDefault("dev")
	if Commit != "" {
		return v + " (" + Commit + ")"
	}
	return v
}
