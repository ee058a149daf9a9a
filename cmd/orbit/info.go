package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ujichase/orbit/internal/display"
	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show details about an ip",
		ArgsUsage: "[<name[:version]>]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "units",
				Usage: "List the ip's design units",
			},
		},
		Action: func(c *cli.Context) error {
			m, root, err := targetIp(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("name:     %s\n", m.Ip.Name)
			fmt.Printf("version:  %s\n", m.Ip.Version)
			fmt.Printf("uuid:     %s\n", m.Ip.Uuid)
			fmt.Printf("library:  %s\n", m.Library())
			if m.Ip.Description != "" {
				fmt.Printf("about:    %s\n", m.Ip.Description)
			}
			deps, err := m.DependencyList(true)
			if err != nil {
				return err
			}
			if len(deps) > 0 {
				fmt.Println("dependencies:")
				for _, dep := range deps {
					marker := ""
					if dep.Dev {
						marker = " (dev)"
					}
					fmt.Printf("  %s %s%s\n", dep.Name, dep.Constraint, marker)
				}
			}
			if c.Bool("units") {
				table, err := units.ExtractDir(root, m)
				if err != nil {
					return err
				}
				display.UnitTable(os.Stdout, table.Primaries())
			}
			return nil
		},
	}
}

// targetIp resolves an optional spec argument to a manifest and source
// root: the enclosing workspace when empty, else a catalog lookup.
func targetIp(rawSpec string) (*manifest.Manifest, string, error) {
	if rawSpec == "" {
		dir, err := workspaceDir()
		if err != nil {
			return nil, "", err
		}
		m, err := manifest.ReadFromDir(dir)
		return m, dir, err
	}
	spec, err := types.ParseSpec(rawSpec)
	if err != nil {
		return nil, "", err
	}
	ctx, err := loadContext()
	if err != nil {
		return nil, "", err
	}
	inv, err := ctx.cat.Scan()
	if err != nil {
		return nil, "", err
	}
	record := inv.Lookup(spec)
	if record == nil {
		return nil, "", oerrors.NewIpNotFoundError(spec).WithSuggestions(inv.Suggest(spec.Name.String()))
	}
	root := record.SlotDir
	if root == "" {
		root = filepath.Dir(record.ManifestPath)
	}
	return record.Manifest, root, nil
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Print the source of a design unit",
		ArgsUsage: "<unit>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ip",
				Usage: "Look the unit up in the given ip instead of the workspace",
			},
			&cli.BoolFlag{
				Name:  "location",
				Usage: "Print only file:line of the unit",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: the unit name")
			}
			m, root, err := targetIp(c.String("ip"))
			if err != nil {
				return err
			}
			table, err := units.ExtractDir(root, m)
			if err != nil {
				return err
			}
			u := table.Find(types.VhdlIdentifier(c.Args().First()))
			if u == nil {
				return fmt.Errorf("no unit named %q in %s", c.Args().First(), m.Ip.Name)
			}
			src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(u.File)))
			if err != nil {
				return err
			}
			if c.Bool("location") {
				line := 1 + strings.Count(string(src[:u.Span.Start]), "\n")
				fmt.Printf("%s:%d\n", u.File, line)
				return nil
			}
			end := u.Span.End
			if end <= u.Span.Start || end > len(src) {
				end = len(src)
			}
			fmt.Println(strings.TrimRight(string(src[u.Span.Start:end]), "\n"))
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "List catalog ips",
		ArgsUsage: "[<text>]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "install",
				Usage: "Only show installed ips",
			},
			&cli.BoolFlag{
				Name:  "download",
				Usage: "Only show downloaded ips",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, err := loadContext()
			if err != nil {
				return err
			}
			inv, err := ctx.cat.Scan()
			if err != nil {
				return err
			}
			text := strings.ToLower(c.Args().First())
			records := inv.All()
			filtered := records[:0]
			for _, r := range records {
				if text != "" && !strings.Contains(strings.ToLower(r.Name.String()), text) {
					continue
				}
				if c.Bool("install") && r.SlotDir == "" {
					continue
				}
				if c.Bool("download") && r.ArchivePath == "" && r.SlotDir == "" {
					continue
				}
				filtered = append(filtered, r)
			}
			if len(filtered) == 0 {
				if suggestions := inv.Suggest(c.Args().First()); len(suggestions) > 0 {
					fmt.Printf("no matches; did you mean %s?\n", strings.Join(suggestions, ", "))
					return nil
				}
				fmt.Println("no matches")
				return nil
			}
			display.SearchTable(os.Stdout, filtered)
			return nil
		},
	}
}
