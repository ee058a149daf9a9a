// Package manifest models Orbit.toml, the authored description of an IP.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/types"
)

// FileName is the manifest file at an IP's root.
const FileName = "Orbit.toml"

// DefaultLibrary is the HDL library units belong to when the manifest
// declares none.
const DefaultLibrary = "work"

// Manifest is the parsed Orbit.toml.
type Manifest struct {
	Ip              IpTable           `toml:"ip"`
	Dependencies    map[string]string `toml:"dependencies,omitempty"`
	DevDependencies map[string]string `toml:"dev-dependencies,omitempty"`
	// Target, protocol, and channel declarations are opaque to the core;
	// they are preserved for the collaborators that consume them.
	Targets   []map[string]interface{} `toml:"targets,omitempty"`
	Protocols []map[string]interface{} `toml:"protocols,omitempty"`
	Channels  []map[string]interface{} `toml:"channels,omitempty"`
}

// IpTable is the required [ip] table.
type IpTable struct {
	Name        types.Name    `toml:"name"`
	Uuid        types.Uuid    `toml:"uuid"`
	Version     types.Version `toml:"version"`
	Library     string        `toml:"library,omitempty"`
	Description string        `toml:"description,omitempty"`
	Keywords    []string      `toml:"keywords,omitempty"`
	Authors     []string      `toml:"authors,omitempty"`
	Readme      string        `toml:"readme,omitempty"`
	Source      *Source       `toml:"source,omitempty"`
	// Public lists glob patterns of files whose design units are visible
	// to dependents. An absent list makes every unit public.
	Public []string `toml:"public,omitempty"`
	// Private hides matching files' units even from direct dependents.
	Private []string `toml:"private,omitempty"`
}

// Source locates the IP for fetching.
type Source struct {
	Url      string `toml:"url"`
	Protocol string `toml:"protocol,omitempty"`
	Tag      string `toml:"tag,omitempty"`
}

// Dependency is one resolved (name, constraint) pair from the manifest.
type Dependency struct {
	Name       types.Name
	Constraint types.PartialVersion
	// Dev marks entries from [dev-dependencies].
	Dev bool
}

// Visibility of a design unit, derived from the manifest's public/private
// file globs.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	default:
		return "private"
	}
}

// Parse decodes and validates manifest bytes.
func Parse(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, oerrors.NewManifestError("", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Read loads and validates the manifest at path.
func Read(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, oerrors.NewManifestError(path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, oerrors.NewManifestError(path, err)
	}
	if err := m.Validate(); err != nil {
		var me *oerrors.ManifestError
		if errors.As(err, &me) {
			me.Path = path
			return nil, me
		}
		return nil, oerrors.NewManifestError(path, err)
	}
	return &m, nil
}

// ReadFromDir loads the manifest from dir/Orbit.toml.
func ReadFromDir(dir string) (*Manifest, error) {
	return Read(filepath.Join(dir, FileName))
}

// Write serializes the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate enforces the required fields and well-formed dependency tables.
func (m *Manifest) Validate() error {
	if m.Ip.Name.IsZero() {
		return oerrors.NewManifestError("", fmt.Errorf("missing required field")).WithField("ip.name")
	}
	if m.Ip.Uuid.IsZero() {
		return oerrors.NewManifestError("", fmt.Errorf("missing required field")).WithField("ip.uuid")
	}
	if m.Ip.Version == (types.Version{}) {
		return oerrors.NewManifestError("", fmt.Errorf("missing required field")).WithField("ip.version")
	}
	if _, err := m.dependencyList(m.Dependencies, false); err != nil {
		return err
	}
	if _, err := m.dependencyList(m.DevDependencies, true); err != nil {
		return err
	}
	if m.Ip.Library != "" {
		if _, err := types.ParseName(m.Ip.Library); err != nil {
			return oerrors.NewManifestError("", err).WithField("ip.library")
		}
	}
	return nil
}

// Library returns the declared HDL library, defaulting to "work".
func (m *Manifest) Library() string {
	if m.Ip.Library == "" {
		return DefaultLibrary
	}
	return m.Ip.Library
}

// DependencyList returns the direct dependencies sorted by name,
// including dev-dependencies when withDev is set.
func (m *Manifest) DependencyList(withDev bool) ([]Dependency, error) {
	deps, err := m.dependencyList(m.Dependencies, false)
	if err != nil {
		return nil, err
	}
	if withDev {
		dev, err := m.dependencyList(m.DevDependencies, true)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dev...)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name.Key() < deps[j].Name.Key() })
	return deps, nil
}

func (m *Manifest) dependencyList(table map[string]string, dev bool) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(table))
	for rawName, rawConstraint := range table {
		name, err := types.ParseName(rawName)
		if err != nil {
			return nil, oerrors.NewManifestError("", err).WithField("dependencies." + rawName)
		}
		constraint, err := types.ParsePartialVersion(rawConstraint)
		if err != nil {
			return nil, oerrors.NewManifestError("", err).WithField("dependencies." + rawName)
		}
		deps = append(deps, Dependency{Name: name, Constraint: constraint, Dev: dev})
	}
	return deps, nil
}

// VisibilityOf classifies a source file (slash-form path relative to the IP
// root) against the manifest's public/private globs.
func (m *Manifest) VisibilityOf(rel string) Visibility {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	for _, pattern := range m.Ip.Private {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return Private
		}
	}
	if len(m.Ip.Public) == 0 {
		return Public
	}
	for _, pattern := range m.Ip.Public {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return Public
		}
	}
	return Protected
}

// New builds a minimal manifest for `orbit new`/`orbit init`.
func New(name types.Name, library string) *Manifest {
	m := &Manifest{
		Ip: IpTable{
			Name:    name,
			Uuid:    types.NewUuid(),
			Version: types.Version{Major: 0, Minor: 1, Patch: 0},
			Library: library,
		},
	}
	return m
}
