// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package security

const redacted = "[SECRET]"

// Secret holds sensitive bytes such as a password typed into the shell. It
// prints as [SECRET] through fmt and encoding/json.
type Secret []byte

// FromString copies s into a new Secret.
func FromString(s string) Secret { return Secret([]byte(s)) }

// Bytes exposes the underlying buffer.
func (s Secret) Bytes() []byte { return s }

// Reveal returns the secret as a string for the one call that needs it.
func (s Secret) Reveal() string { return string(s) }

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return redacted }

func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// Zero overwrites the buffer in place.
func (s *Secret) Zero() {
	for i := range *s {
		(*s)[i] = 0
	}
}
