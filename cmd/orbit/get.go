package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ujichase/orbit/internal/display"
	"github.com/ujichase/orbit/internal/dst"
	"github.com/ujichase/orbit/internal/graph"
	"github.com/ujichase/orbit/internal/ipgraph"
	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a design unit's interface",
		ArgsUsage: "<unit>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the interface as JSON",
			},
			&cli.BoolFlag{
				Name:  "instance",
				Usage: "Render an instantiation template",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Instance label for --instance",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: the unit name")
			}
			_, _, res, err := resolveWorkspace(c, true)
			if err != nil {
				return err
			}
			target := types.VhdlIdentifier(c.Args().First())
			u := findUnit(res.Ips, target)
			if u == nil {
				return fmt.Errorf("no unit named %q in the workspace or its dependencies", c.Args().First())
			}
			switch {
			case c.Bool("json"):
				payload, err := display.UnitToJson(u)
				if err != nil {
					return err
				}
				fmt.Println(payload)
			case c.Bool("instance"):
				fmt.Print(display.Instance(u, c.String("name")))
			default:
				payload, err := display.UnitToJson(u)
				if err != nil {
					return err
				}
				fmt.Println(payload)
			}
			return nil
		},
	}
}

// findUnit searches the local IP first, then dependencies in resolution
// order.
func findUnit(ips []*ipgraph.Ip, name types.Identifier) *units.Unit {
	for _, ip := range ips {
		if u := ip.Table.Find(name); u != nil {
			return u
		}
	}
	return nil
}

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "View the dependency hierarchy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "Design unit to start from",
			},
			&cli.BoolFlag{
				Name:  "ip",
				Usage: "Render the ip-level tree instead of design units",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Limit the rendered depth",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, _, res, err := resolveWorkspace(c, true)
			if err != nil {
				return err
			}
			if c.Bool("ip") {
				fmt.Print(display.IpTree(res.Local))
				return nil
			}
			hg, err := ipgraph.Build(res.Ips)
			if err != nil {
				return err
			}
			applied, err := dst.Apply(ctx.cat, res.Local, res.Ips, hg)
			if err != nil {
				return err
			}
			options := display.TreeOptions{ShowIps: true, MaxDepth: c.Int("depth")}
			roots, err := treeRoots(applied, c.String("root"))
			if err != nil {
				return err
			}
			for _, id := range roots {
				fmt.Print(display.UnitTree(applied.Graph, id, options))
			}
			return nil
		},
	}
}

func treeRoots(applied *dst.Result, root string) ([]graph.NodeId, error) {
	if root != "" {
		id := applied.Graph.FindUnit(applied.Local, types.VhdlIdentifier(root))
		if id == graph.InvalidNode {
			return nil, fmt.Errorf("no unit named %q in %s", root, applied.Local.Name)
		}
		return []graph.NodeId{id}, nil
	}
	var roots []graph.NodeId
	for _, id := range applied.Graph.NodesOf(applied.Local) {
		if len(applied.Graph.G.Predecessors(id)) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		roots = applied.Graph.NodesOf(applied.Local)
	}
	return roots, nil
}
