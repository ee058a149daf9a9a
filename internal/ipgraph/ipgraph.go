// Package ipgraph aggregates per-IP unit tables into one directed graph
// whose nodes are design units across all resolved IPs. It applies the
// scoping rules for cross-IP references and detects identifier collisions
// for the DST engine.
package ipgraph

import (
	"sort"
	"strings"

	"github.com/ujichase/orbit/internal/checksum"
	"github.com/ujichase/orbit/internal/graph"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

// Ip is one resolved IP participating in the graph: the local IP or a
// cache slot.
type Ip struct {
	Name     types.Name
	Version  types.Version
	Uuid     types.Uuid
	Manifest *manifest.Manifest
	Table    *units.Table
	// Root is the absolute directory of the IP's source tree.
	Root string
	// Checksum is the slot digest; zero for the local IP.
	Checksum checksum.Digest
	Local    bool
	// Direct lists the IPs this one depends on directly, sorted by name.
	Direct []*Ip
}

// Library returns the IP's declared HDL library.
func (ip *Ip) Library() string { return ip.Manifest.Library() }

// Node is one primary design unit with its secondary units (architectures,
// package bodies) folded in. Folding the architecture into its entity
// breaks the cyclic entity/architecture link.
type Node struct {
	Ip          *Ip
	Primary     *units.Unit
	Secondaries []*units.Unit
}

// Key is the namespace key (library, identifier) of the node.
func (n *Node) Key() string {
	return strings.ToLower(n.Primary.Library) + "." + n.Primary.Identifier.Key()
}

// Files returns the node's source files in compile order: the primary
// unit's file first, then each secondary's, deduplicated.
func (n *Node) Files() []string {
	seen := map[string]bool{n.Primary.File: true}
	files := []string{n.Primary.File}
	for _, sec := range n.Secondaries {
		if !seen[sec.File] {
			seen[sec.File] = true
			files = append(files, sec.File)
		}
	}
	return files
}

// refs returns the merged reference bag of the primary and its
// secondaries.
func (n *Node) refs() []units.Ref {
	seen := make(map[string]struct{})
	var out []units.Ref
	add := func(rs []units.Ref) {
		for _, r := range rs {
			if _, ok := seen[r.Key()]; ok {
				continue
			}
			seen[r.Key()] = struct{}{}
			out = append(out, r)
		}
	}
	add(n.Primary.Refs())
	for _, sec := range n.Secondaries {
		add(sec.Refs())
	}
	return out
}

// BlackBox records an unresolved external reference. The planner treats
// it as a leaf; the tree view renders it as "?".
type BlackBox struct {
	From graph.NodeId
	Ref  units.Ref
}

// Graph is the multi-IP HDL dependency graph.
type Graph struct {
	G          *graph.Graph[*Node]
	BlackBoxes []BlackBox

	byIp map[*Ip][]graph.NodeId
	// byName indexes nodes by identifier key alone, for unqualified
	// lookups.
	byName map[string][]graph.NodeId
}

// Build assembles the graph over the given IPs. The slice order fixes
// node numbering, so callers pass a deterministic order (the resolver's
// canonical traversal, local IP first).
func Build(ips []*Ip) (*Graph, error) {
	hg := &Graph{
		G:      graph.New[*Node](),
		byIp:   make(map[*Ip][]graph.NodeId),
		byName: make(map[string][]graph.NodeId),
	}

	for _, ip := range ips {
		hg.addIp(ip)
	}
	for _, ip := range ips {
		for _, id := range hg.byIp[ip] {
			hg.connect(id)
		}
	}
	return hg, nil
}

// addIp creates one node per primary unit, attaching secondaries.
func (hg *Graph) addIp(ip *Ip) {
	primaries := ip.Table.Primaries()
	nodeOf := make(map[string]*Node, len(primaries))
	for _, p := range primaries {
		n := &Node{Ip: ip, Primary: p}
		nodeOf[p.Identifier.Key()] = n
		id := hg.G.AddNode(n)
		hg.byIp[ip] = append(hg.byIp[ip], id)
		hg.byName[p.Identifier.Key()] = append(hg.byName[p.Identifier.Key()], id)
	}
	for _, u := range ip.Table.Units {
		if u.Kind.IsPrimary() || u.EntityName.IsZero() {
			continue
		}
		if owner, ok := nodeOf[u.EntityName.Key()]; ok {
			owner.Secondaries = append(owner.Secondaries, u)
		}
	}
}

// connect resolves one node's references into edges.
func (hg *Graph) connect(id graph.NodeId) {
	n := hg.G.Node(id)
	for _, ref := range n.refs() {
		target := hg.resolve(n.Ip, ref)
		if target == graph.InvalidNode {
			hg.BlackBoxes = append(hg.BlackBoxes, BlackBox{From: id, Ref: ref})
			continue
		}
		hg.G.AddEdge(id, target)
	}
}

// resolve applies the scoping rule for an external reference from IP a:
// an explicit library names either a's own library or a direct
// dependency's; an unqualified name searches a then its direct
// dependencies.
func (hg *Graph) resolve(a *Ip, ref units.Ref) graph.NodeId {
	if ref.Library != "" {
		if strings.EqualFold(ref.Library, a.Library()) || strings.EqualFold(ref.Library, manifest.DefaultLibrary) {
			return hg.findIn(a, ref.Name, false)
		}
		for _, dep := range a.Direct {
			if strings.EqualFold(ref.Library, dep.Library()) {
				if id := hg.findIn(dep, ref.Name, true); id != graph.InvalidNode {
					return id
				}
			}
		}
		return graph.InvalidNode
	}
	if id := hg.findIn(a, ref.Name, false); id != graph.InvalidNode {
		return id
	}
	for _, dep := range a.Direct {
		if id := hg.findIn(dep, ref.Name, true); id != graph.InvalidNode {
			return id
		}
	}
	return graph.InvalidNode
}

// findIn looks a name up within one IP. When crossing an IP boundary,
// private units are invisible.
func (hg *Graph) findIn(ip *Ip, name types.Identifier, crossing bool) graph.NodeId {
	for _, id := range hg.byIp[ip] {
		n := hg.G.Node(id)
		if !n.Primary.Identifier.Equal(name) {
			continue
		}
		if crossing && n.Primary.Visibility == manifest.Private {
			continue
		}
		return id
	}
	return graph.InvalidNode
}

// NodesOf returns an IP's node ids in declaration order.
func (hg *Graph) NodesOf(ip *Ip) []graph.NodeId { return hg.byIp[ip] }

// FindUnit returns the node of (ip, identifier), or InvalidNode.
func (hg *Graph) FindUnit(ip *Ip, name types.Identifier) graph.NodeId {
	return hg.findIn(ip, name, false)
}

// Collision is one namespace clash: two or more IP slots publishing a
// primary unit under the same (library, identifier).
type Collision struct {
	Library    string
	Identifier types.Identifier
	Nodes      []graph.NodeId
}

// Collisions groups the units reachable from the local IP by namespace
// key and returns every key published by more than one slot, sorted by
// key for deterministic DST processing.
func (hg *Graph) Collisions(local *Ip) []Collision {
	reach := hg.G.Reachable(hg.byIp[local])
	byKey := make(map[string][]graph.NodeId)
	for _, id := range reach {
		n := hg.G.Node(id)
		byKey[n.Key()] = append(byKey[n.Key()], id)
	}

	var collisions []Collision
	for _, ids := range byKey {
		ips := make(map[*Ip]bool)
		for _, id := range ids {
			ips[hg.G.Node(id).Ip] = true
		}
		if len(ips) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		first := hg.G.Node(ids[0])
		collisions = append(collisions, Collision{
			Library:    first.Primary.Library,
			Identifier: first.Primary.Identifier,
			Nodes:      ids,
		})
	}
	sort.Slice(collisions, func(i, j int) bool {
		if a, b := strings.ToLower(collisions[i].Library), strings.ToLower(collisions[j].Library); a != b {
			return a < b
		}
		return collisions[i].Identifier.Key() < collisions[j].Identifier.Key()
	})
	return collisions
}
