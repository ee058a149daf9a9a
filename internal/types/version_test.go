package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, v)
	assert.Equal(t, "1.2.3", v.String())

	for _, bad := range []string{"", "1", "1.2", "1.2.3.4", "a.b.c", "1.-2.3"} {
		_, err := ParseVersion(bad)
		assert.Error(t, err, "ParseVersion(%q)", bad)
	}
}

func TestVersionOrdering(t *testing.T) {
	ordered := []string{"0.0.1", "0.1.0", "0.1.9", "1.0.0", "1.0.1", "2.0.0", "10.0.0"}
	for i := 1; i < len(ordered); i++ {
		lo := MustParseVersion(ordered[i-1])
		hi := MustParseVersion(ordered[i])
		assert.Equal(t, -1, lo.Cmp(hi), "%s < %s", lo, hi)
		assert.Equal(t, 1, hi.Cmp(lo))
	}
	v := MustParseVersion("1.2.3")
	assert.Equal(t, 0, v.Cmp(MustParseVersion("1.2.3")))
}

func TestPartialVersionMatching(t *testing.T) {
	cases := []struct {
		constraint string
		version    string
		matches    bool
	}{
		{"2", "2.0.0", true},
		{"2", "2.1.3", true},
		{"2", "3.0.0", false},
		{"2.1", "2.1.3", true},
		{"2.1", "2.2.0", false},
		{"2.1.3", "2.1.3", true},
		{"2.1.3", "2.1.4", false},
	}
	for _, tc := range cases {
		pv := MustParsePartialVersion(tc.constraint)
		got := pv.Matches(MustParseVersion(tc.version))
		assert.Equal(t, tc.matches, got, "%s vs %s", tc.constraint, tc.version)
	}
}

func TestPartialVersionString(t *testing.T) {
	assert.Equal(t, "2", MustParsePartialVersion("2").String())
	assert.Equal(t, "2.1", MustParsePartialVersion("2.1").String())
	assert.Equal(t, "2.1.3", MustParsePartialVersion("2.1.3").String())
	assert.True(t, MustParsePartialVersion("2.1.3").IsFull())
	assert.False(t, MustParsePartialVersion("2.1").IsFull())
}
