// Package plan computes the compile order of the files reachable from a
// chosen root and emits the blueprint consumed by external EDA tools.
package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/graph"
	"github.com/ujichase/orbit/internal/ipgraph"
	"github.com/ujichase/orbit/internal/types"
)

// BlueprintFileName is the planner's output file.
const BlueprintFileName = "blueprint.tsv"

// FileRecord is one blueprint line.
type FileRecord struct {
	Lang    types.Lang
	Library string
	// Path is absolute.
	Path string
}

// Plan is the computed compile order for one root selection.
type Plan struct {
	// Roots are the selected root units' identifiers.
	Roots []string
	Files []FileRecord
	// Warnings carries non-fatal findings (unresolved includes, black
	// boxes).
	Warnings []string
}

// Compute builds the plan. When top is empty every root (unit without
// in-edges) of the local IP is planned; otherwise the reachable set is
// restricted to the named unit.
func Compute(hg *ipgraph.Graph, local *ipgraph.Ip, top string) (*Plan, error) {
	roots, err := selectRoots(hg, local, top)
	if err != nil {
		return nil, err
	}

	reach := hg.G.Reachable(roots)
	order, err := hg.G.TopoSortFunc(reach, func(a, b graph.NodeId) bool {
		na, nb := hg.G.Node(a), hg.G.Node(b)
		if x, y := na.Ip.Name.Key(), nb.Ip.Name.Key(); x != y {
			return x < y
		}
		if na.Primary.File != nb.Primary.File {
			return na.Primary.File < nb.Primary.File
		}
		return na.Primary.Identifier.Key() < nb.Primary.Identifier.Key()
	})
	if err != nil {
		return nil, err
	}

	p := &Plan{}
	for _, id := range roots {
		p.Roots = append(p.Roots, hg.G.Node(id).Primary.Identifier.String())
	}
	sort.Strings(p.Roots)

	seen := make(map[string]bool)
	for _, id := range order {
		n := hg.G.Node(id)
		for _, rel := range n.Files() {
			abs := filepath.Join(n.Ip.Root, filepath.FromSlash(rel))
			if abs, err = filepath.Abs(abs); err != nil {
				return nil, err
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			p.Files = append(p.Files, FileRecord{
				Lang:    types.DetectLang(rel),
				Library: n.Primary.Library,
				Path:    abs,
			})
		}
	}

	p.Warnings = append(p.Warnings, blackBoxWarnings(hg, reach)...)
	p.Warnings = append(p.Warnings, includeWarnings(hg, reach)...)
	return p, nil
}

// selectRoots picks the root node set: the named unit, or every local
// unit without in-edges.
func selectRoots(hg *ipgraph.Graph, local *ipgraph.Ip, top string) ([]graph.NodeId, error) {
	if top != "" {
		id := hg.FindUnit(local, types.VhdlIdentifier(top))
		if id == graph.InvalidNode {
			return nil, fmt.Errorf("no unit named %q in %s", top, local.Name)
		}
		return []graph.NodeId{id}, nil
	}
	var roots []graph.NodeId
	for _, id := range hg.NodesOf(local) {
		if len(hg.G.Predecessors(id)) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%s has no design units to plan", local.Name)
	}
	return roots, nil
}

// RequireSingleRoot narrows a root selection for commands that need
// exactly one top unit.
func RequireSingleRoot(hg *ipgraph.Graph, local *ipgraph.Ip, top string) (string, error) {
	if top != "" {
		return top, nil
	}
	var candidates []string
	for _, id := range hg.NodesOf(local) {
		if len(hg.G.Predecessors(id)) == 0 {
			candidates = append(candidates, hg.G.Node(id).Primary.Identifier.String())
		}
	}
	sort.Strings(candidates)
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%s has no design units to plan", local.Name)
	case 1:
		return candidates[0], nil
	default:
		return "", oerrors.NewAmbiguousRootError(candidates)
	}
}

func blackBoxWarnings(hg *ipgraph.Graph, reach []graph.NodeId) []string {
	inReach := make(map[graph.NodeId]bool, len(reach))
	for _, id := range reach {
		inReach[id] = true
	}
	var warnings []string
	for _, bb := range hg.BlackBoxes {
		if !inReach[bb.From] {
			continue
		}
		n := hg.G.Node(bb.From)
		warnings = append(warnings, fmt.Sprintf("unit %s references %s, which is not in scope (treated as a black box)",
			n.Primary.Identifier, bb.Ref))
	}
	sort.Strings(warnings)
	return warnings
}

// includeWarnings checks that every `include target resolves inside its
// IP's file set. Includes are file references, not graph edges.
func includeWarnings(hg *ipgraph.Graph, reach []graph.NodeId) []string {
	var warnings []string
	seen := make(map[string]bool)
	for _, id := range reach {
		n := hg.G.Node(id)
		all := append([]string{}, n.Primary.IncludeFiles...)
		for _, sec := range n.Secondaries {
			all = append(all, sec.IncludeFiles...)
		}
		for _, inc := range all {
			key := n.Ip.Root + "\x00" + inc
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates := []string{
				filepath.Join(n.Ip.Root, filepath.FromSlash(inc)),
				filepath.Join(n.Ip.Root, filepath.Dir(filepath.FromSlash(n.Primary.File)), filepath.FromSlash(inc)),
			}
			found := false
			for _, candidate := range candidates {
				if _, err := os.Stat(candidate); err == nil {
					found = true
					break
				}
			}
			if !found {
				warnings = append(warnings, fmt.Sprintf("include file %q referenced by %s was not found in %s",
					inc, n.Primary.Identifier, n.Ip.Name))
			}
		}
	}
	sort.Strings(warnings)
	return warnings
}

// WriteBlueprint renders the tab-separated compile order: one
// `LANG\tlibrary\tpath` record per file, LF line endings.
func WriteBlueprint(w io.Writer, files []FileRecord) error {
	for _, f := range files {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", f.Lang, f.Library, f.Path); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the blueprint under dir and returns its path.
func (p *Plan) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, BlueprintFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteBlueprint(f, p.Files); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
