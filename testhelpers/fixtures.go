// Package testhelpers builds throwaway IP workspaces and catalogs for
// integration-style tests.
package testhelpers

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ujichase/orbit/internal/catalog"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

// IpFixture describes one IP to materialize on disk.
type IpFixture struct {
	Name    string
	Version string
	Library string
	// Deps and DevDeps map dependency name to version constraint.
	Deps    map[string]string
	DevDeps map[string]string
	// Files maps relative path to source contents.
	Files map[string]string
	// SourceUrl is recorded as the ip's fetchable source.
	SourceUrl string
}

// UuidFor mints a deterministic identity from an IP name so fixtures are
// reproducible across runs.
func UuidFor(name string) types.Uuid {
	sum := sha256.Sum256([]byte("orbit-fixture:" + strings.ToLower(name)))
	var b [16]byte
	copy(b[:], sum[:16])
	return types.UuidFromBytes(b)
}

// Manifest renders the fixture's Orbit.toml model.
func (f IpFixture) Manifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	name, err := types.ParseName(f.Name)
	if err != nil {
		t.Fatalf("fixture name %q: %v", f.Name, err)
	}
	version := types.MustParseVersion(f.Version)
	m := &manifest.Manifest{
		Ip: manifest.IpTable{
			Name:    name,
			Uuid:    UuidFor(f.Name),
			Version: version,
			Library: f.Library,
		},
	}
	if f.SourceUrl != "" {
		m.Ip.Source = &manifest.Source{Url: f.SourceUrl}
	}
	if len(f.Deps) > 0 {
		m.Dependencies = map[string]string{}
		for dep, constraint := range f.Deps {
			m.Dependencies[dep] = constraint
		}
	}
	if len(f.DevDeps) > 0 {
		m.DevDependencies = map[string]string{}
		for dep, constraint := range f.DevDeps {
			m.DevDependencies[dep] = constraint
		}
	}
	return m
}

// Write materializes the fixture under dir.
func (f IpFixture) Write(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := f.Manifest(t).Write(filepath.Join(dir, manifest.FileName)); err != nil {
		t.Fatal(err)
	}
	paths := make([]string, 0, len(f.Files))
	for rel := range f.Files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	for _, rel := range paths {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f.Files[rel]), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// NewCatalog opens a catalog in a temp dir.
func NewCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

// Install writes the fixture to a staging dir, snapshots it, and installs
// it into the cache. The staging dir is returned for source-url reuse.
func Install(t *testing.T, cat *catalog.Catalog, f IpFixture) string {
	t.Helper()
	staging := filepath.Join(t.TempDir(), f.Name)
	f.Write(t, staging)
	if _, err := cat.Snapshot(staging); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Install(staging); err != nil {
		t.Fatal(err)
	}
	return staging
}

// Workspace writes the fixture as a local (uninstalled) workspace and
// returns its path.
func Workspace(t *testing.T, f IpFixture) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), f.Name)
	f.Write(t, dir)
	return dir
}
