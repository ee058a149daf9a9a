// Package dst implements Dynamic Symbol Transformation: collision-driven
// deterministic renaming of primary-unit identifiers in IPs that are not
// direct dependencies of the local IP, with every in-scope reference
// rewritten to match.
//
// Rewrites are textual, keyed off the byte spans the lexers preserve, and
// rewritten slots are persisted as fresh derived cache slots so repeated
// resolutions reuse them.
package dst

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ujichase/orbit/internal/catalog"
	"github.com/ujichase/orbit/internal/checksum"
	"github.com/ujichase/orbit/internal/debug"
	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/fetch"
	"github.com/ujichase/orbit/internal/graph"
	"github.com/ujichase/orbit/internal/ipgraph"
	"github.com/ujichase/orbit/internal/lexer"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

// identifierSuffixLen is how many hex characters of the victim slot's
// original checksum seed a renamed identifier.
const identifierSuffixLen = 10

// Rename reports one applied transformation.
type Rename struct {
	Ip      string
	Version string
	Old     string
	New     string
}

// Result is the post-DST resolution: possibly-rewritten IPs and the graph
// rebuilt over them.
type Result struct {
	Local   *ipgraph.Ip
	Ips     []*ipgraph.Ip
	Graph   *ipgraph.Graph
	Renames []Rename
}

// Apply eliminates the graph's collisions. When there are none the inputs
// pass through untouched.
func Apply(cat *catalog.Catalog, local *ipgraph.Ip, ips []*ipgraph.Ip, hg *ipgraph.Graph) (*Result, error) {
	collisions := hg.Collisions(local)
	if len(collisions) == 0 {
		return &Result{Local: local, Ips: ips, Graph: hg}, nil
	}

	direct := make(map[*ipgraph.Ip]bool, len(local.Direct))
	for _, dep := range local.Direct {
		direct[dep] = true
	}

	used := usedIdentifierKeys(hg)
	plans := make(map[*ipgraph.Ip]map[string]renameEntry)
	var renames []Rename

	for _, col := range collisions {
		victims, neighbors, err := splitCollision(hg, local, direct, col)
		if err != nil {
			return nil, err
		}
		for _, victim := range victims {
			suffixSource := victim.Checksum.HexPrefix(checksum.DigestLen)
			newRaw := ""
			for n := identifierSuffixLen; n <= len(suffixSource); n++ {
				candidate := renameIdentifier(col.Identifier, suffixSource[:n])
				if !used[identifierKey(col.Identifier, candidate)] {
					newRaw = candidate
					break
				}
			}
			if newRaw == "" {
				return nil, fmt.Errorf("cannot derive a unique name for %s in %s", col.Identifier, victim.Name)
			}
			used[identifierKey(col.Identifier, newRaw)] = true
			addPlan(plans, victim, col.Identifier, newRaw)
			for _, neighbor := range neighbors[victim] {
				addPlan(plans, neighbor, col.Identifier, newRaw)
			}
			renames = append(renames, Rename{
				Ip:      victim.Name.String(),
				Version: victim.Version.String(),
				Old:     col.Identifier.String(),
				New:     newRaw,
			})
		}
	}

	replaced, err := rewriteSlots(cat, plans)
	if err != nil {
		return nil, err
	}
	newLocal, newIps, err := reload(local, ips, replaced)
	if err != nil {
		return nil, err
	}
	newGraph, err := ipgraph.Build(newIps)
	if err != nil {
		return nil, err
	}
	sort.Slice(renames, func(i, j int) bool {
		if renames[i].Ip != renames[j].Ip {
			return renames[i].Ip < renames[j].Ip
		}
		return renames[i].Old < renames[j].Old
	})
	return &Result{Local: newLocal, Ips: newIps, Graph: newGraph, Renames: renames}, nil
}

type renameEntry struct {
	old types.Identifier
	new string
}

func addPlan(plans map[*ipgraph.Ip]map[string]renameEntry, ip *ipgraph.Ip, old types.Identifier, newRaw string) {
	m, ok := plans[ip]
	if !ok {
		m = make(map[string]renameEntry)
		plans[ip] = m
	}
	m[old.Key()] = renameEntry{old: old, new: newRaw}
}

// splitCollision partitions a collision's slots into victims (rewritable)
// and, per victim, the neighbor slots whose references must follow. A
// collision held entirely by the local IP and direct dependencies cannot
// be repaired.
func splitCollision(hg *ipgraph.Graph, local *ipgraph.Ip, direct map[*ipgraph.Ip]bool, col ipgraph.Collision) ([]*ipgraph.Ip, map[*ipgraph.Ip][]*ipgraph.Ip, error) {
	var victims []*ipgraph.Ip
	neighbors := make(map[*ipgraph.Ip][]*ipgraph.Ip)
	seen := make(map[*ipgraph.Ip]bool)
	protectedCount := 0
	var protectedNames []string

	for _, id := range col.Nodes {
		ip := hg.G.Node(id).Ip
		if seen[ip] {
			continue
		}
		seen[ip] = true
		if ip == local || direct[ip] {
			protectedCount++
			protectedNames = append(protectedNames, ip.Name.String())
			continue
		}
		victims = append(victims, ip)
		neighbors[ip] = referencingIps(hg, id, ip)
	}
	if protectedCount > 1 {
		sort.Strings(protectedNames)
		return nil, nil, oerrors.NewNameConflictError(col.Library, col.Identifier.String(),
			protectedNames[0], protectedNames[1])
	}
	sort.Slice(victims, func(i, j int) bool {
		if a, b := victims[i].Name.Key(), victims[j].Name.Key(); a != b {
			return a < b
		}
		return victims[i].Version.Cmp(victims[j].Version) < 0
	})
	return victims, neighbors, nil
}

// referencingIps lists the distinct IPs with an edge into the victim's
// colliding node.
func referencingIps(hg *ipgraph.Graph, id graph.NodeId, victim *ipgraph.Ip) []*ipgraph.Ip {
	seen := make(map[*ipgraph.Ip]bool)
	var out []*ipgraph.Ip
	for _, pred := range hg.G.Predecessors(id) {
		ip := hg.G.Node(pred).Ip
		if ip == victim || seen[ip] {
			continue
		}
		seen[ip] = true
		out = append(out, ip)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Key() < out[j].Name.Key() })
	return out
}

// usedIdentifierKeys collects every primary identifier key in the graph
// so fresh names can be checked for uniqueness.
func usedIdentifierKeys(hg *ipgraph.Graph) map[string]bool {
	used := make(map[string]bool, hg.G.Len())
	for id := 0; id < hg.G.Len(); id++ {
		n := hg.G.Node(graph.NodeId(id))
		used[n.Primary.Identifier.Key()] = true
	}
	return used
}

// renameIdentifier appends the suffix in the form matching how the
// identifier was written: inside the backslashes for VHDL extended names,
// after the text otherwise.
func renameIdentifier(old types.Identifier, suffix string) string {
	raw := old.String()
	if old.Form() == types.FormVhdlExtended {
		bare := strings.TrimSuffix(strings.TrimPrefix(raw, `\`), `\`)
		return `\` + bare + "_" + suffix + `\`
	}
	return raw + "_" + suffix
}

// identifierKey yields the uniqueness key a candidate rendering would
// occupy, reusing the old identifier's equality form.
func identifierKey(old types.Identifier, raw string) string {
	if old.Form() == types.FormVhdlBasic {
		return strings.ToLower(raw)
	}
	return raw
}

// rewriteSlots produces one derived cache slot per planned IP and returns
// the replacement records.
func rewriteSlots(cat *catalog.Catalog, plans map[*ipgraph.Ip]map[string]renameEntry) (map[*ipgraph.Ip]*catalog.Record, error) {
	ordered := make([]*ipgraph.Ip, 0, len(plans))
	for ip := range plans {
		ordered = append(ordered, ip)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if a, b := ordered[i].Name.Key(), ordered[j].Name.Key(); a != b {
			return a < b
		}
		return ordered[i].Version.Cmp(ordered[j].Version) < 0
	})

	replaced := make(map[*ipgraph.Ip]*catalog.Record, len(plans))
	for _, ip := range ordered {
		record, err := rewriteSlot(cat, ip, plans[ip])
		if err != nil {
			return nil, err
		}
		debug.Printf("dst: derived slot %s for %s\n", filepath.Base(record.SlotDir), ip.Name)
		replaced[ip] = record
	}
	return replaced, nil
}

func rewriteSlot(cat *catalog.Catalog, ip *ipgraph.Ip, plan map[string]renameEntry) (*catalog.Record, error) {
	tmpDir, err := os.MkdirTemp("", "orbit-dst-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)
	if err := fetch.CopyTree(ip.Root, tmpDir); err != nil {
		return nil, err
	}
	os.Remove(filepath.Join(tmpDir, checksum.SumFileName))

	files, err := units.HdlFiles(tmpDir)
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(rel))
		if err := rewriteFile(path, rel, plan); err != nil {
			return nil, err
		}
	}
	if err := writeDynMarker(tmpDir, plan); err != nil {
		return nil, err
	}

	digest, err := checksum.DigestDir(tmpDir, nil)
	if err != nil {
		return nil, err
	}
	return cat.InstallDerived(tmpDir, digest.HexPrefix(catalog.DstSuffixLen))
}

// rewriteFile replaces every identifier token matching a planned rename,
// editing spans back-to-front so earlier offsets stay valid.
func rewriteFile(path, rel string, plan map[string]renameEntry) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lang := types.DetectLang(rel)
	toks, err := lexer.ScanAll(rel, src, lang)
	if err != nil {
		// A file the extractor already dropped stays untouched.
		debug.Printf("dst: leaving %s unrewritten: %v\n", rel, err)
		return nil
	}

	type edit struct {
		span lexer.Span
		text string
	}
	var edits []edit
	for _, tok := range toks {
		if tok.Kind != lexer.TokenIdentifier {
			continue
		}
		id := classify(tok.Text, lang)
		for _, entry := range plan {
			if entry.old.Equal(id) {
				edits = append(edits, edit{span: tok.Span, text: entry.new})
				break
			}
		}
	}
	if len(edits) == 0 {
		return nil
	}
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		src = append(src[:e.span.Start], append([]byte(e.text), src[e.span.End:]...)...)
	}
	return os.WriteFile(path, src, 0644)
}

func classify(raw string, lang types.Lang) types.Identifier {
	if lang == types.LangVhdl {
		return types.VhdlIdentifier(raw)
	}
	return types.VerilogIdentifier(raw)
}

// writeDynMarker records the applied renames inside the derived slot. The
// marker participates in the slot's digest.
func writeDynMarker(dir string, plan map[string]renameEntry) error {
	lines := make([]string, 0, len(plan))
	for _, entry := range plan {
		lines = append(lines, entry.old.String()+"\t"+entry.new)
	}
	sort.Strings(lines)
	content := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(filepath.Join(dir, checksum.DynFileName), []byte(content), 0644)
}

// reload swaps rewritten IPs for their derived slots, re-extracting unit
// tables and remapping direct-dependency pointers.
func reload(local *ipgraph.Ip, ips []*ipgraph.Ip, replaced map[*ipgraph.Ip]*catalog.Record) (*ipgraph.Ip, []*ipgraph.Ip, error) {
	mapping := make(map[*ipgraph.Ip]*ipgraph.Ip, len(ips))
	newIps := make([]*ipgraph.Ip, 0, len(ips))
	for _, ip := range ips {
		record, ok := replaced[ip]
		if !ok {
			mapping[ip] = ip
			newIps = append(newIps, ip)
			continue
		}
		m, err := manifest.ReadFromDir(record.SlotDir)
		if err != nil {
			return nil, nil, err
		}
		table, err := units.ExtractDir(record.SlotDir, m)
		if err != nil {
			return nil, nil, err
		}
		fresh := &ipgraph.Ip{
			Name:     ip.Name,
			Version:  ip.Version,
			Uuid:     ip.Uuid,
			Manifest: m,
			Table:    table,
			Root:     record.SlotDir,
			Checksum: record.Checksum,
			Local:    ip.Local,
		}
		mapping[ip] = fresh
		newIps = append(newIps, fresh)
	}
	for i, old := range ips {
		fresh := newIps[i]
		oldDirect := old.Direct
		fresh.Direct = make([]*ipgraph.Ip, 0, len(oldDirect))
		for _, dep := range oldDirect {
			fresh.Direct = append(fresh.Direct, mapping[dep])
		}
	}
	return mapping[local], newIps, nil
}
