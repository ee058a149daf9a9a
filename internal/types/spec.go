package types

import (
	"fmt"
	"strings"
)

// Spec is a user-facing IP reference: "name" or "name:version" where the
// version may be partial.
type Spec struct {
	Name    Name
	Version *PartialVersion
}

// ParseSpec parses an IP spec of the form name[:version].
func ParseSpec(s string) (Spec, error) {
	namePart, versionPart, hasVersion := strings.Cut(s, ":")
	name, err := ParseName(namePart)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid ip spec %q: %w", s, err)
	}
	spec := Spec{Name: name}
	if hasVersion {
		pv, err := ParsePartialVersion(versionPart)
		if err != nil {
			return Spec{}, fmt.Errorf("invalid ip spec %q: %w", s, err)
		}
		spec.Version = &pv
	}
	return spec, nil
}

// MustParseSpec panics on an invalid spec.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

func (s Spec) String() string {
	if s.Version == nil {
		return s.Name.String()
	}
	return s.Name.String() + ":" + s.Version.String()
}

// Matches reports whether the spec accepts the given name and version.
func (s Spec) Matches(name Name, version Version) bool {
	if !s.Name.Equal(name) {
		return false
	}
	if s.Version == nil {
		return true
	}
	return s.Version.Matches(version)
}
