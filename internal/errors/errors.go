package errors

import (
	"fmt"

	"github.com/ujichase/orbit/internal/types"
)

// Error kinds surfaced by orbit operations
type ErrorKind string

const (
	// Manifest / lockfile errors
	KindManifestInvalid ErrorKind = "manifest_invalid"
	KindLockOutOfDate   ErrorKind = "lock_out_of_date"

	// Catalog errors
	KindChecksumMismatch ErrorKind = "checksum_mismatch"
	KindMissingSource    ErrorKind = "missing_source"
	KindIpNotFound       ErrorKind = "ip_not_found"

	// HDL errors
	KindNameConflict  ErrorKind = "name_conflict_in_direct_dep"
	KindLexFailure    ErrorKind = "lex_failure"
	KindAmbiguousRoot ErrorKind = "ambiguous_root"
	KindBlackBox      ErrorKind = "black_box_reference"

	// Internal errors
	KindInternal ErrorKind = "internal"
)

// UserError marks errors caused by the user's inputs rather than the
// system; the CLI maps these to exit code 101.
type UserError interface {
	error
	UserFacing() bool
}

// ManifestError represents a malformed or incomplete manifest
type ManifestError struct {
	Kind       ErrorKind
	Path       string
	Field      string
	Underlying error
}

// NewManifestError creates a manifest validation error
func NewManifestError(path string, err error) *ManifestError {
	return &ManifestError{Kind: KindManifestInvalid, Path: path, Underlying: err}
}

// WithField attaches the offending manifest field
func (e *ManifestError) WithField(field string) *ManifestError {
	e.Field = field
	return e
}

// Error implements the error interface
func (e *ManifestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid manifest %s: field %q: %v", e.Path, e.Field, e.Underlying)
	}
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ManifestError) Unwrap() error { return e.Underlying }

// UserFacing marks manifest errors as user errors
func (e *ManifestError) UserFacing() bool { return true }

// NameConflictError reports a primary-unit identifier shared between the
// local IP and a direct dependency, which DST is forbidden to repair.
type NameConflictError struct {
	Kind       ErrorKind
	Identifier string
	Library    string
	LocalIp    string
	DirectDep  string
}

// NewNameConflictError creates a direct-dependency collision error
func NewNameConflictError(library, identifier, localIp, directDep string) *NameConflictError {
	return &NameConflictError{
		Kind:       KindNameConflict,
		Library:    library,
		Identifier: identifier,
		LocalIp:    localIp,
		DirectDep:  directDep,
	}
}

// Error implements the error interface
func (e *NameConflictError) Error() string {
	return fmt.Sprintf("design unit %s.%s is declared by both %s and its direct dependency %s; rename one of them",
		e.Library, e.Identifier, e.LocalIp, e.DirectDep)
}

// UserFacing marks name conflicts as user errors
func (e *NameConflictError) UserFacing() bool { return true }

// ChecksumError reports disagreement between computed and recorded digests
type ChecksumError struct {
	Kind     ErrorKind
	Slot     string
	Expected string
	Computed string
	// Repairable is set when a reinstall from archive may fix the slot
	Repairable bool
}

// NewChecksumError creates a checksum mismatch error
func NewChecksumError(slot, expected, computed string) *ChecksumError {
	return &ChecksumError{Kind: KindChecksumMismatch, Slot: slot, Expected: expected, Computed: computed}
}

// WithRepairable marks the mismatch as recoverable by reinstall
func (e *ChecksumError) WithRepairable(r bool) *ChecksumError {
	e.Repairable = r
	return e
}

// Error implements the error interface
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, computed %s", e.Slot, e.Expected, e.Computed)
}

// UserFacing implements UserError; checksum mismatches are system state
func (e *ChecksumError) UserFacing() bool { return false }

// LockError reports a lockfile that is absent or inconsistent with the
// manifest
type LockError struct {
	Kind   ErrorKind
	Reason string
}

// NewLockError creates a lock-out-of-date error
func NewLockError(reason string) *LockError {
	return &LockError{Kind: KindLockOutOfDate, Reason: reason}
}

// Error implements the error interface
func (e *LockError) Error() string {
	return fmt.Sprintf("lockfile is out of date: %s (run `orbit lock` to refresh)", e.Reason)
}

// UserFacing marks lock staleness as a user error
func (e *LockError) UserFacing() bool { return true }

// MissingSourceError reports a dependency that is neither installed nor
// fetchable
type MissingSourceError struct {
	Kind    ErrorKind
	Spec    string
	Offline bool
	// Suggestions carries near-miss catalog names for the diagnostic
	Suggestions []string
}

// NewMissingSourceError creates a missing source error
func NewMissingSourceError(spec string, offline bool) *MissingSourceError {
	return &MissingSourceError{Kind: KindMissingSource, Spec: spec, Offline: offline}
}

// WithSuggestions attaches did-you-mean candidates
func (e *MissingSourceError) WithSuggestions(names []string) *MissingSourceError {
	e.Suggestions = names
	return e
}

// Error implements the error interface
func (e *MissingSourceError) Error() string {
	msg := fmt.Sprintf("ip %s is not in the catalog and has no source url", e.Spec)
	if e.Offline {
		msg = fmt.Sprintf("ip %s is not in the catalog (offline mode)", e.Spec)
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %v?", e.Suggestions)
	}
	return msg
}

// UserFacing marks missing sources as user errors
func (e *MissingSourceError) UserFacing() bool { return true }

// LexError represents a tokenization failure in one HDL source file
type LexError struct {
	Kind       ErrorKind
	File       string
	Line       int
	Column     int
	Underlying error
}

// NewLexError creates a lex failure diagnostic
func NewLexError(file string, line, column int, err error) *LexError {
	return &LexError{Kind: KindLexFailure, File: file, Line: line, Column: column, Underlying: err}
}

// Error implements the error interface
func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s:%d:%d: %v", e.File, e.Line, e.Column, e.Underlying)
}

// Unwrap returns the underlying error
func (e *LexError) Unwrap() error { return e.Underlying }

// UserFacing marks lex failures as user errors
func (e *LexError) UserFacing() bool { return true }

// AmbiguousRootError lists candidate roots when one must be chosen
type AmbiguousRootError struct {
	Kind       ErrorKind
	Candidates []string
}

// NewAmbiguousRootError creates an ambiguous-root error from the candidate
// unit names
func NewAmbiguousRootError(candidates []string) *AmbiguousRootError {
	return &AmbiguousRootError{Kind: KindAmbiguousRoot, Candidates: candidates}
}

// Error implements the error interface
func (e *AmbiguousRootError) Error() string {
	return fmt.Sprintf("multiple root units found, select one with --top: %v", e.Candidates)
}

// UserFacing marks root ambiguity as a user error
func (e *AmbiguousRootError) UserFacing() bool { return true }

// IpNotFoundError reports a spec with no catalog match
type IpNotFoundError struct {
	Kind        ErrorKind
	Spec        types.Spec
	Suggestions []string
}

// NewIpNotFoundError creates an ip-not-found error
func NewIpNotFoundError(spec types.Spec) *IpNotFoundError {
	return &IpNotFoundError{Kind: KindIpNotFound, Spec: spec}
}

// WithSuggestions attaches did-you-mean candidates
func (e *IpNotFoundError) WithSuggestions(names []string) *IpNotFoundError {
	e.Suggestions = names
	return e
}

// Error implements the error interface
func (e *IpNotFoundError) Error() string {
	msg := fmt.Sprintf("ip %s not found in catalog", e.Spec)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %v?", e.Suggestions)
	}
	return msg
}

// UserFacing marks unknown IPs as user errors
func (e *IpNotFoundError) UserFacing() bool { return true }

// IsUserError reports whether err (or anything it wraps) is a user-caused
// error for exit-code selection
func IsUserError(err error) bool {
	for err != nil {
		if ue, ok := err.(UserError); ok {
			return ue.UserFacing()
		}
		err = unwrapOne(err)
	}
	return false
}

func unwrapOne(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
