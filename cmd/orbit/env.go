package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
)

func envCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Print orbit's effective environment",
		Action: func(c *cli.Context) error {
			ctx, err := loadContext()
			if err != nil {
				return err
			}
			lines := []string{
				"ORBIT_HOME=" + ctx.home,
				"ORBIT_TARGET_DIR=" + ctx.cfg.General.TargetDir,
			}
			for _, entry := range os.Environ() {
				if strings.HasPrefix(entry, "ORBIT_") &&
					!strings.HasPrefix(entry, "ORBIT_HOME=") &&
					!strings.HasPrefix(entry, "ORBIT_TARGET_DIR=") {
					lines = append(lines, entry)
				}
			}
			sort.Strings(lines)
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "Read or modify the user configuration",
		ArgsUsage: "[<key> | <key>=<value>]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "list",
				Usage: "Print every configuration key",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, err := loadContext()
			if err != nil {
				return err
			}
			if c.Bool("list") {
				for _, line := range ctx.cfg.List() {
					fmt.Println(line)
				}
				return nil
			}
			if c.NArg() != 1 {
				return fmt.Errorf("expected <key> or <key>=<value> (or --list)")
			}
			arg := c.Args().First()
			if key, value, ok := strings.Cut(arg, "="); ok {
				if err := ctx.cfg.Set(key, value); err != nil {
					return err
				}
				return ctx.cfg.Save(ctx.home)
			}
			value, err := ctx.cfg.Get(arg)
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
}
