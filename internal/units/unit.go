// Package units walks HDL token streams and emits design units together
// with the external identifiers each one references. No semantic
// elaboration happens here; the output is the raw material for the
// cross-IP graph.
package units

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ujichase/orbit/internal/lexer"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

// Kind classifies primary design units (plus architectures, which belong
// to an entity).
type Kind uint8

const (
	KindEntity Kind = iota
	KindArchitecture
	KindPackage
	KindPackageBody
	KindConfiguration
	KindContext
	KindModule
	KindProgram
	KindInterface
	KindChecker
	KindPrimitive
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindArchitecture:
		return "architecture"
	case KindPackage:
		return "package"
	case KindPackageBody:
		return "package-body"
	case KindConfiguration:
		return "configuration"
	case KindContext:
		return "context"
	case KindModule:
		return "module"
	case KindProgram:
		return "program"
	case KindInterface:
		return "interface"
	case KindChecker:
		return "checker"
	default:
		return "primitive"
	}
}

// IsPrimary reports whether units of this kind occupy the library
// namespace. Architectures and package bodies belong to their primary
// unit.
func (k Kind) IsPrimary() bool {
	return k != KindArchitecture && k != KindPackageBody
}

// Ref is one external unit reference: an identifier, optionally qualified
// by a library name. An empty library means "resolve by name anywhere in
// scope".
type Ref struct {
	Library string
	Name    types.Identifier
}

// Key returns the map key for deduplication.
func (r Ref) Key() string {
	return strings.ToLower(r.Library) + "." + r.Name.Key()
}

func (r Ref) String() string {
	if r.Library == "" {
		return r.Name.String()
	}
	return r.Library + "." + r.Name.String()
}

// Signal is one port, generic, or parameter of a unit's interface.
type Signal struct {
	Identifier string `json:"identifier"`
	Mode       string `json:"mode"`
	Type       string `json:"type,omitempty"`
	Default    string `json:"default,omitempty"`
}

// Unit is one design unit found in a source file.
type Unit struct {
	Library    string
	Identifier types.Identifier
	Kind       Kind
	Lang       types.Lang
	// File is the path relative to the IP root, slash-form.
	File string
	// Span covers the whole unit in the file; NameSpan the declaring
	// identifier token.
	Span     lexer.Span
	NameSpan lexer.Span

	Visibility manifest.Visibility

	// EntityName links an architecture (or configuration) to its entity.
	EntityName types.Identifier

	Generics      []Signal
	Ports         []Signal
	Architectures []string

	refs     []Ref
	refsSeen map[string]struct{}

	// IncludeFiles are `include targets; file references, not unit
	// references.
	IncludeFiles []string
}

// AddRef records an external reference, deduplicated by (library, name).
func (u *Unit) AddRef(r Ref) {
	if r.Name.IsZero() {
		return
	}
	if u.refsSeen == nil {
		u.refsSeen = make(map[string]struct{})
	}
	key := r.Key()
	if _, ok := u.refsSeen[key]; ok {
		return
	}
	u.refsSeen[key] = struct{}{}
	u.refs = append(u.refs, r)
}

// Refs returns the reference bag in first-seen order.
func (u *Unit) Refs() []Ref { return u.refs }

func (u *Unit) String() string {
	return fmt.Sprintf("%s %s", u.Kind, u.Identifier)
}

// Table aggregates the units of one IP.
type Table struct {
	Units []*Unit
	// Diagnostics holds per-file lex/extract failures; the files' units
	// were dropped but the rest of the table is valid.
	Diagnostics []error
}

// Primaries returns the primary units, sorted by (library, identifier) for
// deterministic traversal.
func (t *Table) Primaries() []*Unit {
	var out []*Unit
	for _, u := range t.Units {
		if u.Kind.IsPrimary() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := strings.ToLower(out[i].Library), strings.ToLower(out[j].Library); a != b {
			return a < b
		}
		return out[i].Identifier.Key() < out[j].Identifier.Key()
	})
	return out
}

// Find returns the first unit with the given identifier key, or nil.
func (t *Table) Find(name types.Identifier) *Unit {
	for _, u := range t.Units {
		if u.Identifier.Equal(name) && u.Kind.IsPrimary() {
			return u
		}
	}
	return nil
}

// CheckUnique verifies the invariant that (library, identifier) is unique
// among primary units within one IP.
func (t *Table) CheckUnique() error {
	seen := make(map[string]*Unit)
	for _, u := range t.Units {
		if !u.Kind.IsPrimary() {
			continue
		}
		key := strings.ToLower(u.Library) + "." + u.Identifier.Key()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("design unit %s.%s declared twice: %s and %s",
				u.Library, u.Identifier, prev.File, u.File)
		}
		seen[key] = u
	}
	return nil
}

// LinkArchitectures fills each entity's architecture list from the
// architectures in the table.
func (t *Table) LinkArchitectures() {
	byEntity := make(map[string][]string)
	for _, u := range t.Units {
		if u.Kind == KindArchitecture && !u.EntityName.IsZero() {
			byEntity[u.EntityName.Key()] = append(byEntity[u.EntityName.Key()], u.Identifier.String())
		}
	}
	for _, u := range t.Units {
		if u.Kind == KindEntity {
			archs := byEntity[u.Identifier.Key()]
			sort.Strings(archs)
			u.Architectures = archs
		}
	}
}
