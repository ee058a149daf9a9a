package types

import (
	"strings"
	"testing"
)

func TestParseName(t *testing.T) {
	valid := []string{"a", "gates", "My-Ip", "lab_2", "A1234567890123456789012345678"[:28]}
	for _, s := range valid {
		n, err := ParseName(s)
		if err != nil {
			t.Errorf("ParseName(%q) failed: %v", s, err)
			continue
		}
		if n.String() != s {
			t.Errorf("ParseName(%q) lost casing: got %q", s, n.String())
		}
	}

	invalid := []string{
		"",
		"1abc",
		"-abc",
		"_abc",
		"has space",
		"dots.bad",
		strings.Repeat("a", 29),
		"naïve",
	}
	for _, s := range invalid {
		if _, err := ParseName(s); err == nil {
			t.Errorf("ParseName(%q) should have failed", s)
		}
	}
}

func TestNameEquality(t *testing.T) {
	a := MustParseName("Gates")
	b := MustParseName("gates")
	if !a.Equal(b) {
		t.Error("names should compare case-insensitively")
	}
	if a.Key() != "gates" {
		t.Errorf("Key() = %q, want %q", a.Key(), "gates")
	}
	if a.String() != "Gates" {
		t.Errorf("String() = %q, want preserved casing", a.String())
	}
}
