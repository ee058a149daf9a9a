package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an ordered (major, minor, patch) triple.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// ParseVersion parses a fully specified "major.minor.patch" version.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q must have exactly three components", s)
	}
	nums, err := parseVersionParts(parts)
	if err != nil {
		return Version{}, err
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseVersion panics on an invalid version. Intended for tests and
// compiled-in constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Cmp returns -1, 0, or +1 ordering versions lexicographically over the
// triple.
func (v Version) Cmp(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpUint(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpUint(v.Minor, o.Minor)
	default:
		return cmpUint(v.Patch, o.Patch)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// PartialVersion is a version constraint: "major", "major.minor", or a full
// triple. It matches any full version sharing the specified prefix.
type PartialVersion struct {
	Major uint64
	Minor *uint64
	Patch *uint64
}

// ParsePartialVersion parses a 1-, 2-, or 3-component version constraint.
func ParsePartialVersion(s string) (PartialVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 1 || len(parts) > 3 {
		return PartialVersion{}, fmt.Errorf("version %q must have one to three components", s)
	}
	nums, err := parseVersionParts(parts)
	if err != nil {
		return PartialVersion{}, err
	}
	pv := PartialVersion{Major: nums[0]}
	if len(nums) > 1 {
		pv.Minor = &nums[1]
	}
	if len(nums) > 2 {
		pv.Patch = &nums[2]
	}
	return pv, nil
}

// MustParsePartialVersion panics on an invalid constraint.
func MustParsePartialVersion(s string) PartialVersion {
	pv, err := ParsePartialVersion(s)
	if err != nil {
		panic(err)
	}
	return pv
}

func (p PartialVersion) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(p.Major, 10))
	if p.Minor != nil {
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(*p.Minor, 10))
	}
	if p.Patch != nil {
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(*p.Patch, 10))
	}
	return sb.String()
}

// Matches reports whether v shares this constraint's declared prefix.
func (p PartialVersion) Matches(v Version) bool {
	if p.Major != v.Major {
		return false
	}
	if p.Minor != nil && *p.Minor != v.Minor {
		return false
	}
	if p.Patch != nil && *p.Patch != v.Patch {
		return false
	}
	return true
}

// IsFull reports whether all three components are specified.
func (p PartialVersion) IsFull() bool { return p.Minor != nil && p.Patch != nil }

// MarshalText implements encoding.TextMarshaler.
func (p PartialVersion) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PartialVersion) UnmarshalText(text []byte) error {
	parsed, err := ParsePartialVersion(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func parseVersionParts(parts []string) ([]uint64, error) {
	nums := make([]uint64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q", part)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
