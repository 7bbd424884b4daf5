// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package security hashes and verifies user passwords with Argon2id and holds
// secrets that must not leak into logs.
package security // import "github.com/sustc/sustc/internal/security"

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Parameters of newly encoded passwords.
const (
	SaltLength  = 16
	HashLength  = 32
	Parallelism = 2
	MemoryKiB   = 8192
	Iterations  = 3
	// EncodedLength is the size of Encode's output and of the password column.
	EncodedLength = 96
)

var (
	// ErrInvalidHash is returned when an encoded password cannot be parsed.
	ErrInvalidHash = errors.New("security: encoded password is not in argon2id format")
	// ErrIncompatibleVersion is returned for hashes of another argon2 version.
	ErrIncompatibleVersion = errors.New("security: incompatible argon2 version")
)

var b64 = base64.RawStdEncoding

// Encode hashes password with a fresh random salt and returns the PHC string
// $argon2id$v=19$m=8192,t=3,p=2$<salt>$<hash>.
func Encode(password string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return encodeWithSalt(password, salt), nil
}

// MustEncode is Encode for callers that cannot recover from a broken entropy
// source.
func MustEncode(password string) string {
	s, err := Encode(password)
	if err != nil {
		panic(err)
	}
	return s
}

func encodeWithSalt(password string, salt []byte) string {
	hash := argon2.IDKey([]byte(password), salt, Iterations, MemoryKiB, Parallelism, HashLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, MemoryKiB, Iterations, Parallelism, b64.EncodeToString(salt), b64.EncodeToString(hash))
}

// Matches reports whether password hashes to encoded. Parameters are read
// from encoded. Malformed input never matches.
func Matches(password, encoded string) bool {
	ok, err := Compare(password, encoded)
	return err == nil && ok
}

// Compare is Matches with the parse error exposed.
func Compare(password, encoded string) (bool, error) {
	p, salt, hash, err := decode(strings.TrimSpace(encoded))
	if err != nil {
		return false, err
	}
	other := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, other) == 1, nil
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decode(encoded string) (params, []byte, []byte, error) {
	var p params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if p.time == 0 || p.threads == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	return p, salt, hash, nil
}
