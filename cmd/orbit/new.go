package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a new ip in a fresh directory",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "library",
				Usage: "HDL library for the ip's design units",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Directory to create (defaults to the ip name)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: the ip name")
			}
			name, err := types.ParseName(c.Args().First())
			if err != nil {
				return err
			}
			dir := c.String("path")
			if dir == "" {
				dir = name.String()
			}
			if _, err := os.Stat(dir); err == nil {
				return fmt.Errorf("directory %s already exists (use `orbit init` to adopt it)", dir)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			m := manifest.New(name, c.String("library"))
			if err := m.Write(filepath.Join(dir, manifest.FileName)); err != nil {
				return err
			}
			fmt.Printf("created ip %s at %s\n", name, dir)
			return nil
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Initialize an existing directory as an ip",
		ArgsUsage: "[<name>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "library",
				Usage: "HDL library for the ip's design units",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing manifest",
			},
		},
		Action: func(c *cli.Context) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			manifestPath := filepath.Join(dir, manifest.FileName)
			if _, err := os.Stat(manifestPath); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", manifest.FileName)
			}
			rawName := c.Args().First()
			if rawName == "" {
				rawName = filepath.Base(dir)
			}
			name, err := types.ParseName(rawName)
			if err != nil {
				return err
			}
			m := manifest.New(name, c.String("library"))
			if err := m.Write(manifestPath); err != nil {
				return err
			}
			fmt.Printf("initialized ip %s\n", name)
			return nil
		},
	}
}
