package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// UuidEncodedLen is the length of the base-36 serialization of a 128-bit
// identity. 36^25 > 2^128, so 25 characters always suffice.
const UuidEncodedLen = 25

// Base-36 alphabet: 0-9 then a-z. Encodings are lowercase; decoding accepts
// either case.
const uuidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Uuid is the stable 128-bit identity of an IP.
type Uuid struct {
	bytes [16]byte
}

// NewUuid generates a fresh random identity.
func NewUuid() Uuid {
	raw := uuid.New()
	var u Uuid
	copy(u.bytes[:], raw[:])
	return u
}

// UuidFromBytes builds an identity from raw bytes. Fixtures use this to
// mint deterministic identities.
func UuidFromBytes(b [16]byte) Uuid {
	return Uuid{bytes: b}
}

// ParseUuid decodes a 25-character base-36 serialization.
func ParseUuid(s string) (Uuid, error) {
	if len(s) != UuidEncodedLen {
		return Uuid{}, fmt.Errorf("uuid must be %d base-36 characters, got %d", UuidEncodedLen, len(s))
	}
	value := new(big.Int)
	for _, r := range strings.ToLower(s) {
		digit := strings.IndexRune(uuidAlphabet, r)
		if digit < 0 {
			return Uuid{}, fmt.Errorf("uuid contains illegal character %q", r)
		}
		value.Mul(value, big.NewInt(36))
		value.Add(value, big.NewInt(int64(digit)))
	}
	if value.BitLen() > 128 {
		return Uuid{}, fmt.Errorf("uuid %q exceeds 128 bits", s)
	}
	var u Uuid
	value.FillBytes(u.bytes[:])
	return u, nil
}

// MustParseUuid panics on an invalid serialization.
func MustParseUuid(s string) Uuid {
	u, err := ParseUuid(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the 25-character base-36 form, zero-padded on the left.
func (u Uuid) String() string {
	encoded := new(big.Int).SetBytes(u.bytes[:]).Text(36)
	if pad := UuidEncodedLen - len(encoded); pad > 0 {
		encoded = strings.Repeat("0", pad) + encoded
	}
	return encoded
}

// Prefix returns the first n characters of the base-36 form, used in cache
// slot directory names.
func (u Uuid) Prefix(n int) string {
	s := u.String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Equal reports whether two identities are the same 128-bit value.
func (u Uuid) Equal(o Uuid) bool { return u.bytes == o.bytes }

// IsZero reports whether the identity is all-zero (unset).
func (u Uuid) IsZero() bool { return u.bytes == [16]byte{} }

// MarshalText implements encoding.TextMarshaler.
func (u Uuid) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Uuid) UnmarshalText(text []byte) error {
	parsed, err := ParseUuid(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
