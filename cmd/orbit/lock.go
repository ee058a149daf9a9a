package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ujichase/orbit/internal/display"
	"github.com/ujichase/orbit/internal/dst"
	"github.com/ujichase/orbit/internal/ipgraph"
	"github.com/ujichase/orbit/internal/lockfile"
	"github.com/ujichase/orbit/internal/plan"
	"github.com/ujichase/orbit/internal/resolver"
	"github.com/ujichase/orbit/internal/types"
)

func lockCommand() *cli.Command {
	return &cli.Command{
		Name:  "lock",
		Usage: "Resolve dependencies and refresh the lockfile",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include dev-dependencies in the resolution",
			},
		},
		Action: func(c *cli.Context) error {
			_, dir, res, err := resolveWorkspace(c, c.Bool("all"))
			if err != nil {
				return err
			}
			if err := res.Lock.Write(dir); err != nil {
				return err
			}
			fmt.Printf("locked %d dependencies\n", len(res.Lock.Ip))
			return nil
		},
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Plan a design and run a target",
		Flags: planFlags(),
		Action: func(c *cli.Context) error {
			return runPlanned(c, false)
		},
	}
}

func testCommand() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "Plan a testbench and run a target",
		Flags: append(planFlags(),
			&cli.StringFlag{
				Name:  "dut",
				Usage: "Design under test for the testbench",
			},
		),
		Action: func(c *cli.Context) error {
			return runPlanned(c, true)
		},
	}
}

func planFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "top",
			Usage: "Root design unit",
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "Target to execute after planning",
		},
		&cli.StringFlag{
			Name:  "target-dir",
			Usage: "Output directory (overrides config)",
		},
	}
}

// runPlanned is the shared build/test pipeline: resolve, verify the
// lockfile, apply DST, plan, emit the blueprint, export the environment,
// and hand off to the target.
func runPlanned(c *cli.Context, isTest bool) error {
	ctx, dir, res, err := resolveWorkspace(c, isTest)
	if err != nil {
		return err
	}
	existing, exists, err := lockfile.Read(dir)
	if err != nil {
		return err
	}
	if err := resolver.VerifyLock(existing, exists, res, c.Bool("force")); err != nil {
		return err
	}

	hg, err := ipgraph.Build(res.Ips)
	if err != nil {
		return err
	}
	applied, err := dst.Apply(ctx.cat, res.Local, res.Ips, hg)
	if err != nil {
		return err
	}
	top, err := plan.RequireSingleRoot(applied.Graph, applied.Local, c.String("top"))
	if err != nil {
		return err
	}
	p, err := plan.Compute(applied.Graph, applied.Local, top)
	if err != nil {
		return err
	}
	for _, warning := range p.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	targetDir := c.String("target-dir")
	if targetDir == "" {
		targetDir = filepath.Join(dir, ctx.cfg.General.TargetDir)
	}
	blueprintPath, err := p.Save(targetDir)
	if err != nil {
		return err
	}

	env := plan.BuildEnvironment(applied.Local, ctx.home, targetDir, c.String("target"), blueprintPath)
	if err := attachUnitJson(env, applied, top, "TOP"); err != nil {
		return err
	}
	if isTest {
		if err := attachUnitJson(env, applied, top, "TB"); err != nil {
			return err
		}
		if dut := c.String("dut"); dut != "" {
			if err := attachUnitJson(env, applied, dut, "DUT"); err != nil {
				return err
			}
		}
	}
	if err := env.Apply(); err != nil {
		return err
	}

	fmt.Printf("blueprint written to %s\n", blueprintPath)
	if target := c.String("target"); target != "" {
		return runTarget(ctx, target, targetDir)
	}
	return nil
}

func attachUnitJson(env plan.Environment, applied *dst.Result, unitName, role string) error {
	u := findUnit(applied.Ips, types.VhdlIdentifier(unitName))
	if u == nil {
		return fmt.Errorf("no unit named %q in the workspace or its dependencies", unitName)
	}
	payload, err := display.UnitToJson(u)
	if err != nil {
		return err
	}
	env.WithUnit(role, payload)
	return nil
}

// runTarget launches the named target process from the configuration.
// Target semantics live entirely in the external tool; orbit only spawns
// it with the exported environment.
func runTarget(ctx *appContext, name, workDir string) error {
	for _, target := range ctx.cfg.Targets {
		if target["name"] != name {
			continue
		}
		command, _ := target["command"].(string)
		if command == "" {
			return fmt.Errorf("target %q declares no command", name)
		}
		var args []string
		if rawArgs, ok := target["args"].([]interface{}); ok {
			for _, a := range rawArgs {
				if s, ok := a.(string); ok {
					args = append(args, s)
				}
			}
		}
		cmd := exec.Command(command, args...)
		cmd.Dir = workDir
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = os.Environ()
		return cmd.Run()
	}
	return fmt.Errorf("no target named %q in the configuration", name)
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Install the ip and place its manifest into a channel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "channel",
				Usage: "Channel receiving the manifest",
				Value: "default",
			},
			&cli.BoolFlag{
				Name:  "no-install",
				Usage: "Only place the manifest; skip snapshot and install",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, dir, res, err := resolveWorkspace(c, false)
			if err != nil {
				return err
			}
			existing, exists, err := lockfile.Read(dir)
			if err != nil {
				return err
			}
			if err := resolver.VerifyLock(existing, exists, res, c.Bool("force")); err != nil {
				return err
			}
			if diags := res.Local.Table.Diagnostics; len(diags) > 0 {
				return fmt.Errorf("cannot publish with %d unreadable source files (first: %v)", len(diags), diags[0])
			}
			if !c.Bool("no-install") {
				if _, err := ctx.cat.Snapshot(dir); err != nil {
					return err
				}
				if _, err := ctx.cat.Install(dir); err != nil {
					return err
				}
			}
			if err := ctx.cat.PublishToChannel(c.String("channel"), res.Local.Manifest); err != nil {
				return err
			}
			fmt.Printf("published %s %s to channel %s\n", res.Local.Name, res.Local.Version, c.String("channel"))
			return nil
		},
	}
}
