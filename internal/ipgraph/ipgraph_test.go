package ipgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujichase/orbit/internal/graph"
	"github.com/ujichase/orbit/internal/ipgraph"
	"github.com/ujichase/orbit/internal/resolver"
	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/testhelpers"
)

func buildGraph(t *testing.T, fixtures []testhelpers.IpFixture, local testhelpers.IpFixture) (*ipgraph.Graph, *ipgraph.Ip) {
	t.Helper()
	cat := testhelpers.NewCatalog(t)
	for _, f := range fixtures {
		testhelpers.Install(t, cat, f)
	}
	dir := testhelpers.Workspace(t, local)
	r, err := resolver.New(cat, resolver.Options{})
	require.NoError(t, err)
	res, err := r.Resolve(dir)
	require.NoError(t, err)
	hg, err := ipgraph.Build(res.Ips)
	require.NoError(t, err)
	return hg, res.Local
}

func TestLibraryQualifiedResolution(t *testing.T) {
	hg, local := buildGraph(t,
		[]testhelpers.IpFixture{{
			Name:    "gates",
			Version: "1.0.0",
			Library: "gatelib",
			Files:   map[string]string{"nand.vhd": "entity nand_g is\nend entity;"},
		}},
		testhelpers.IpFixture{
			Name:    "final",
			Version: "0.1.0",
			Deps:    map[string]string{"gates": "1"},
			Files: map[string]string{
				"top.vhd": "entity top is\nend entity;\n" +
					"architecture rtl of top is\nbegin\n  u0 : entity gatelib.nand_g port map (a);\nend architecture;\n",
			},
		})

	top := hg.FindUnit(local, types.VhdlIdentifier("top"))
	require.NotEqual(t, graph.InvalidNode, top)
	succ := hg.G.Successors(top)
	require.Len(t, succ, 1)
	target := hg.G.Node(succ[0])
	assert.Equal(t, "nand_g", target.Primary.Identifier.String())
	assert.Equal(t, "gates", target.Ip.Name.String())
	assert.Empty(t, hg.BlackBoxes)
}

func TestIndirectDependencyIsNotInScope(t *testing.T) {
	// final -> mid -> deep; final must not resolve deep's units directly
	hg, local := buildGraph(t,
		[]testhelpers.IpFixture{
			{
				Name:    "deep",
				Version: "1.0.0",
				Files:   map[string]string{"inner.vhd": "entity inner is\nend entity;"},
			},
			{
				Name:    "mid",
				Version: "1.0.0",
				Deps:    map[string]string{"deep": "1"},
				Files:   map[string]string{"mid.vhd": "entity middle is\nend entity;"},
			},
		},
		testhelpers.IpFixture{
			Name:    "final",
			Version: "0.1.0",
			Deps:    map[string]string{"mid": "1"},
			Files: map[string]string{
				"top.vhd": "entity top is\nend entity;\n" +
					"architecture rtl of top is\nbegin\n  u0 : inner port map (a);\nend architecture;\n",
			},
		})

	top := hg.FindUnit(local, types.VhdlIdentifier("top"))
	assert.Empty(t, hg.G.Successors(top), "indirect units are invisible")
	require.Len(t, hg.BlackBoxes, 1)
	assert.Equal(t, "inner", hg.BlackBoxes[0].Ref.Name.String())
}

func TestPrivateUnitsAreInvisibleAcrossIps(t *testing.T) {
	gates := testhelpers.IpFixture{
		Name:    "gates",
		Version: "1.0.0",
		Files: map[string]string{
			"pub.vhd":        "entity visible is\nend entity;",
			"sim/hidden.vhd": "entity hidden is\nend entity;",
		},
	}
	// mark sim/ as private through the manifest
	cat := testhelpers.NewCatalog(t)
	staging := testhelpers.Workspace(t, gates)
	m := gates.Manifest(t)
	m.Ip.Private = []string{"sim/**"}
	require.NoError(t, m.Write(staging+"/Orbit.toml"))
	_, err := cat.Snapshot(staging)
	require.NoError(t, err)
	_, err = cat.Install(staging)
	require.NoError(t, err)

	dir := testhelpers.Workspace(t, testhelpers.IpFixture{
		Name:    "final",
		Version: "0.1.0",
		Deps:    map[string]string{"gates": "1"},
		Files: map[string]string{
			"top.vhd": "entity top is\nend entity;\n" +
				"architecture rtl of top is\nbegin\n  u0 : visible port map (a);\n  u1 : hidden port map (b);\nend architecture;\n",
		},
	})
	r, err := resolver.New(cat, resolver.Options{})
	require.NoError(t, err)
	res, err := r.Resolve(dir)
	require.NoError(t, err)
	hg, err := ipgraph.Build(res.Ips)
	require.NoError(t, err)

	top := hg.FindUnit(res.Local, types.VhdlIdentifier("top"))
	require.Len(t, hg.G.Successors(top), 1, "only the public unit resolves")
	require.Len(t, hg.BlackBoxes, 1)
	assert.Equal(t, "hidden", hg.BlackBoxes[0].Ref.Name.String())
}

func TestCollisionDetection(t *testing.T) {
	hg, local := buildGraph(t,
		[]testhelpers.IpFixture{
			{
				Name:    "lab1",
				Version: "1.0.0",
				Files:   map[string]string{"nand.vhd": "entity nand_g is\nend entity;"},
			},
			{
				Name:    "lab2",
				Version: "1.0.0",
				Deps:    map[string]string{"lab1": "1"},
				Files: map[string]string{
					"xor2.vhd": "entity xor2 is\nend entity;\n" +
						"architecture rtl of xor2 is\nbegin\n  u0 : nand_g port map (a);\nend architecture;\n",
				},
			},
			{
				Name:    "lab3",
				Version: "1.0.0",
				Files:   map[string]string{"nand.vhd": "entity nand_g is\nend entity;"},
			},
		},
		testhelpers.IpFixture{
			Name:    "final",
			Version: "0.1.0",
			Deps:    map[string]string{"lab2": "1", "lab3": "1"},
			Files: map[string]string{
				"top.vhd": "entity top is\nend entity;\n" +
					"architecture rtl of top is\nbegin\n  g0 : xor2 port map (a);\n  g1 : nand_g port map (b);\nend architecture;\n",
			},
		})

	collisions := hg.Collisions(local)
	require.Len(t, collisions, 1)
	assert.Equal(t, "nand_g", collisions[0].Identifier.String())
	require.Len(t, collisions[0].Nodes, 2)

	names := map[string]bool{}
	for _, id := range collisions[0].Nodes {
		names[hg.G.Node(id).Ip.Name.String()] = true
	}
	assert.True(t, names["lab1"])
	assert.True(t, names["lab3"])
}

func TestArchitectureFoldsIntoEntity(t *testing.T) {
	hg, local := buildGraph(t, nil, testhelpers.IpFixture{
		Name:    "solo",
		Version: "0.1.0",
		Files: map[string]string{
			"ent.vhd":  "entity core is\nend entity;",
			"arch.vhd": "architecture rtl of core is\nbegin\nend architecture;",
		},
	})
	core := hg.FindUnit(local, types.VhdlIdentifier("core"))
	require.NotEqual(t, graph.InvalidNode, core)
	node := hg.G.Node(core)
	require.Len(t, node.Secondaries, 1)
	assert.Equal(t, []string{"ent.vhd", "arch.vhd"}, node.Files())
}
