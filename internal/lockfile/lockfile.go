// Package lockfile models Orbit.lock, the reproducible record of one
// dependency resolution.
package lockfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/ujichase/orbit/internal/checksum"
	"github.com/ujichase/orbit/internal/types"
)

// FileName is the lockfile at an IP's root.
const FileName = "Orbit.lock"

// Entry pins one IP of the transitive closure.
type Entry struct {
	Name         types.Name      `toml:"name"`
	Uuid         types.Uuid      `toml:"uuid"`
	Version      types.Version   `toml:"version"`
	Checksum     checksum.Digest `toml:"checksum"`
	Source       string          `toml:"source,omitempty"`
	Dependencies []string        `toml:"dependencies,omitempty"`
}

// Lock is the full lockfile: one [[ip]] entry per resolved IP.
type Lock struct {
	Ip []Entry `toml:"ip"`
}

// Canonicalize sorts entries by (name, version) ascending and each entry's
// dependency list lexicographically, so equal resolutions produce
// byte-identical lockfiles.
func (l *Lock) Canonicalize() {
	for i := range l.Ip {
		sort.Strings(l.Ip[i].Dependencies)
	}
	sort.Slice(l.Ip, func(i, j int) bool {
		a, b := l.Ip[i], l.Ip[j]
		if ak, bk := a.Name.Key(), b.Name.Key(); ak != bk {
			return ak < bk
		}
		return a.Version.Cmp(b.Version) < 0
	})
}

// Find returns the entry matching a spec, preferring the highest version
// when the spec is partial.
func (l *Lock) Find(spec types.Spec) *Entry {
	var best *Entry
	for i := range l.Ip {
		e := &l.Ip[i]
		if !spec.Matches(e.Name, e.Version) {
			continue
		}
		if best == nil || e.Version.Cmp(best.Version) > 0 {
			best = e
		}
	}
	return best
}

// FindExact returns the entry for (uuid, version), or nil.
func (l *Lock) FindExact(uuid types.Uuid, version types.Version) *Entry {
	for i := range l.Ip {
		e := &l.Ip[i]
		if e.Uuid.Equal(uuid) && e.Version.Cmp(version) == 0 {
			return e
		}
	}
	return nil
}

// Encode renders the canonical TOML bytes.
func (l *Lock) Encode() ([]byte, error) {
	l.Canonicalize()
	var buf bytes.Buffer
	buf.WriteString("# This file is automatically generated by orbit.\n")
	buf.WriteString("# It is not intended for manual editing.\n")
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("encoding lockfile: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the lockfile in dir, rewritten in full. The write is skipped
// when the on-disk bytes already match, keeping `lock; lock` a no-op on the
// file's timestamps as well as its contents.
func (l *Lock) Write(dir string) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, FileName)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads dir/Orbit.lock. A missing file yields an empty lock and
// exists=false.
func Read(dir string) (lock *Lock, exists bool, err error) {
	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return &Lock{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var l Lock
	if err := toml.Unmarshal(raw, &l); err != nil {
		return nil, true, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return &l, true, nil
}

// Equal reports whether two locks canonicalize to the same bytes.
func (l *Lock) Equal(o *Lock) bool {
	a, errA := l.Encode()
	b, errB := o.Encode()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}
