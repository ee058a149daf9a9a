// Package checksum computes the content digest of an IP's source tree.
//
// Two hashes are kept side by side: a sha256 digest, which is the recorded
// identity of a cache slot (.orbit-sum, lockfile checksums, DST suffixes),
// and an xxhash64 fingerprint used as a cheap pre-check before paying for
// the full digest on large catalogs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// SumFileName is the immutable digest record inside a cache slot.
	SumFileName = ".orbit-sum"
	// DynFileName marks a DST-derived slot; its contents ARE part of the
	// slot digest.
	DynFileName = ".orbit-dyn"
	// LockFileName is the generated lockfile, excluded from digests.
	LockFileName = "Orbit.lock"
)

// DigestLen is the hex-encoded length of a digest.
const DigestLen = sha256.Size * 2

// Digest is a sha256 digest over an IP's normalized contents.
type Digest [sha256.Size]byte

// ParseDigest decodes a 64-character hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != DigestLen {
		return d, fmt.Errorf("checksum must be %d hex characters, got %d", DigestLen, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid checksum %q: %w", s, err)
	}
	copy(d[:], raw)
	return d, nil
}

// String returns the lowercase hex form.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// HexPrefix returns the first n hex characters, used for DST suffixes and
// derived slot names.
func (d Digest) HexPrefix(n int) string {
	s := d.String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool { return d == Digest{} }

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ExcludeFunc filters files out of a digest by slash-form relative path.
type ExcludeFunc func(rel string) bool

// DefaultExclude skips the generated lockfile, the digest record itself,
// and the .git directory, none of which are part of an IP's identity.
func DefaultExclude(rel string) bool {
	if rel == LockFileName || rel == SumFileName {
		return true
	}
	base := filepath.Base(rel)
	return base == ".git" || strings.HasPrefix(rel, ".git/")
}

// DigestDir hashes every file under root, ordered by slash-form relative
// path, feeding (path, bytes) pairs into sha256. exclude may be nil to use
// DefaultExclude.
func DigestDir(root string, exclude ExcludeFunc) (Digest, error) {
	var d Digest
	h := sha256.New()
	if err := streamDir(root, exclude, h); err != nil {
		return d, err
	}
	h.Sum(d[:0])
	return d, nil
}

// FingerprintDir computes the xxhash64 fingerprint over the same normalized
// stream as DigestDir. Equal digests imply equal fingerprints, so an
// unchanged fingerprint lets callers skip the sha256 walk.
func FingerprintDir(root string, exclude ExcludeFunc) (uint64, error) {
	h := xxhash.New()
	if err := streamDir(root, exclude, h); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func streamDir(root string, exclude ExcludeFunc, w io.Writer) error {
	if exclude == nil {
		exclude = DefaultExclude
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if entry.IsDir() {
			if rel != "." && exclude(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if exclude(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)

	for _, rel := range files {
		if _, err := io.WriteString(w, rel); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("hashing %s: %w", rel, err)
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

// ReadSumFile loads the recorded digest of a cache slot. A missing file is
// reported with os.ErrNotExist wrapped so callers can treat the slot as
// incomplete.
func ReadSumFile(slotDir string) (Digest, error) {
	raw, err := os.ReadFile(filepath.Join(slotDir, SumFileName))
	if err != nil {
		return Digest{}, err
	}
	return ParseDigest(strings.TrimSpace(string(raw)))
}

// WriteSumFile records the slot digest. The file is the last thing written
// into a slot, so its presence marks the slot complete.
func WriteSumFile(slotDir string, d Digest) error {
	return os.WriteFile(filepath.Join(slotDir, SumFileName), []byte(d.String()+"\n"), 0644)
}
