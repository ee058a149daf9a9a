package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ujichase/orbit/internal/catalog"
	"github.com/ujichase/orbit/internal/config"
	"github.com/ujichase/orbit/internal/debug"
	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/resolver"
	"github.com/ujichase/orbit/internal/version"
)

// Exit codes: 0 success, 101 user error, 1 system error.
const (
	exitOk        = 0
	exitSystemErr = 1
	exitUserErr   = 101
)

func main() {
	app := &cli.App{
		Name:                   "orbit",
		Usage:                  "A package manager and build tool for HDLs",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Bypass lockfile and checksum guards",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Resolve from cache and archive only, never fetch",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Colorize output: auto, always, never",
				Value: "auto",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				os.Setenv("ORBIT_DEBUG", "1")
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			newCommand(),
			initCommand(),
			infoCommand(),
			readCommand(),
			getCommand(),
			treeCommand(),
			lockCommand(),
			testCommand(),
			buildCommand(),
			publishCommand(),
			searchCommand(),
			installCommand(),
			removeCommand(),
			envCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if oerrors.IsUserError(err) {
			os.Exit(exitUserErr)
		}
		os.Exit(exitSystemErr)
	}
}

// appContext carries the loaded configuration and catalog for one command
// invocation.
type appContext struct {
	home string
	cfg  *config.Config
	cat  *catalog.Catalog
}

// loadContext resolves $ORBIT_HOME, loads config.toml, and opens the
// catalog.
func loadContext() (*appContext, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(home)
	if err != nil {
		return nil, err
	}
	return &appContext{home: home, cfg: cfg, cat: cat}, nil
}

// workspaceDir locates the enclosing IP: the current directory or the
// nearest ancestor holding an Orbit.toml.
func workspaceDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, manifest.FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in the current directory or any parent", manifest.FileName)
		}
		dir = parent
	}
}

// resolveWorkspace runs a full resolution of the enclosing IP.
func resolveWorkspace(c *cli.Context, withDev bool) (*appContext, string, *resolver.Resolution, error) {
	ctx, err := loadContext()
	if err != nil {
		return nil, "", nil, err
	}
	dir, err := workspaceDir()
	if err != nil {
		return nil, "", nil, err
	}
	r, err := resolver.New(ctx.cat, resolver.Options{
		WithDev: withDev,
		Force:   c.Bool("force"),
		Offline: c.Bool("offline"),
	})
	if err != nil {
		return nil, "", nil, err
	}
	res, err := r.Resolve(dir)
	if err != nil {
		return nil, "", nil, err
	}
	return ctx, dir, res, nil
}
