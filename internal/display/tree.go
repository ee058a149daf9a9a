// Package display renders orbit's user-facing output: dependency trees,
// catalog tables, and the unit JSON served by `get`.
package display

import (
	"fmt"
	"strings"

	"github.com/ujichase/orbit/internal/graph"
	"github.com/ujichase/orbit/internal/ipgraph"
)

// TreeOptions controls tree rendering.
type TreeOptions struct {
	// ShowIps labels each unit with its owning IP.
	ShowIps bool
	// MaxDepth limits rendering depth; 0 means unlimited.
	MaxDepth int
}

// UnitTree renders the design-unit hierarchy under root. Unresolved
// references appear as "?" leaves.
func UnitTree(hg *ipgraph.Graph, root graph.NodeId, options TreeOptions) string {
	var sb strings.Builder
	sb.WriteString(nodeLabel(hg, root, options))
	sb.WriteByte('\n')
	renderUnitChildren(&sb, hg, root, "", options, 1, map[graph.NodeId]bool{root: true})
	return sb.String()
}

func nodeLabel(hg *ipgraph.Graph, id graph.NodeId, options TreeOptions) string {
	n := hg.G.Node(id)
	if options.ShowIps {
		return fmt.Sprintf("%s  [%s %s]", n.Primary.Identifier, n.Ip.Name, n.Ip.Version)
	}
	return n.Primary.Identifier.String()
}

func renderUnitChildren(sb *strings.Builder, hg *ipgraph.Graph, id graph.NodeId, prefix string, options TreeOptions, depth int, path map[graph.NodeId]bool) {
	if options.MaxDepth > 0 && depth > options.MaxDepth {
		return
	}
	children := hg.G.Successors(id)
	boxes := blackBoxesOf(hg, id)
	total := len(children) + len(boxes)
	for i, child := range children {
		last := i == total-1
		sb.WriteString(prefix)
		sb.WriteString(branch(last))
		sb.WriteString(nodeLabel(hg, child, options))
		if path[child] {
			sb.WriteString("  (cycle)")
			sb.WriteByte('\n')
			continue
		}
		sb.WriteByte('\n')
		path[child] = true
		renderUnitChildren(sb, hg, child, prefix+indent(last), options, depth+1, path)
		delete(path, child)
	}
	for i, ref := range boxes {
		last := len(children)+i == total-1
		sb.WriteString(prefix)
		sb.WriteString(branch(last))
		sb.WriteString("? " + ref)
		sb.WriteByte('\n')
	}
}

func blackBoxesOf(hg *ipgraph.Graph, id graph.NodeId) []string {
	var refs []string
	for _, bb := range hg.BlackBoxes {
		if bb.From == id {
			refs = append(refs, bb.Ref.String())
		}
	}
	return refs
}

func branch(last bool) string {
	if last {
		return "└─ "
	}
	return "├─ "
}

func indent(last bool) string {
	if last {
		return "   "
	}
	return "│  "
}

// IpTree renders the IP-level dependency tree of a resolution.
func IpTree(local *ipgraph.Ip) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", local.Name, local.Version))
	renderIpChildren(&sb, local, "", map[*ipgraph.Ip]bool{local: true})
	return sb.String()
}

func renderIpChildren(sb *strings.Builder, ip *ipgraph.Ip, prefix string, path map[*ipgraph.Ip]bool) {
	for i, dep := range ip.Direct {
		last := i == len(ip.Direct)-1
		sb.WriteString(prefix)
		sb.WriteString(branch(last))
		sb.WriteString(fmt.Sprintf("%s %s", dep.Name, dep.Version))
		if path[dep] {
			sb.WriteString("  (cycle)\n")
			continue
		}
		sb.WriteByte('\n')
		path[dep] = true
		renderIpChildren(sb, dep, prefix+indent(last), path)
		delete(path, dep)
	}
}
