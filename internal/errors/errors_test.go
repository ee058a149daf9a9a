package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestManifestError(t *testing.T) {
	underlying := errors.New("missing required field")
	err := NewManifestError("/ip/Orbit.toml", underlying).WithField("ip.uuid")

	if err.Kind != KindManifestInvalid {
		t.Errorf("Expected Kind to be KindManifestInvalid, got %v", err.Kind)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expected := `invalid manifest /ip/Orbit.toml: field "ip.uuid": missing required field`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !err.UserFacing() {
		t.Errorf("Expected manifest errors to be user errors")
	}
}

func TestChecksumErrorClassification(t *testing.T) {
	err := NewChecksumError("slot-1.0.0", "aaaa", "bbbb").WithRepairable(true)
	if err.UserFacing() {
		t.Errorf("Checksum mismatches are system state, not user errors")
	}
	if !err.Repairable {
		t.Errorf("Expected Repairable to be set")
	}
	if IsUserError(err) {
		t.Errorf("IsUserError should be false for checksum errors")
	}
}

func TestIsUserErrorUnwraps(t *testing.T) {
	inner := NewLockError("manifest changed")
	wrapped := fmt.Errorf("resolving workspace: %w", inner)
	if !IsUserError(wrapped) {
		t.Errorf("Expected wrapped lock error to classify as user error")
	}
	if IsUserError(errors.New("disk on fire")) {
		t.Errorf("Plain errors are not user errors")
	}
}

func TestAmbiguousRootListsCandidates(t *testing.T) {
	err := NewAmbiguousRootError([]string{"top_a", "top_b"})
	for _, candidate := range []string{"top_a", "top_b"} {
		if !contains(err.Error(), candidate) {
			t.Errorf("Expected message to list %q, got %q", candidate, err.Error())
		}
	}
}

func TestMissingSourceSuggestions(t *testing.T) {
	err := NewMissingSourceError("gatse:1", false).WithSuggestions([]string{"gates"})
	if !contains(err.Error(), "gates") {
		t.Errorf("Expected suggestions in message, got %q", err.Error())
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
