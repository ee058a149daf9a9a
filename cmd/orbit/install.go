package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ujichase/orbit/internal/catalog"
	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/fetch"
	"github.com/ujichase/orbit/internal/types"
)

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install an ip into the cache",
		ArgsUsage: "[<name[:version]>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Install from a local source directory",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, err := loadContext()
			if err != nil {
				return err
			}
			if path := c.String("path"); path != "" {
				if _, err := ctx.cat.Snapshot(path); err != nil {
					return err
				}
				record, err := ctx.cat.Install(path)
				if err != nil {
					return err
				}
				fmt.Printf("installed %s %s\n", record.Name, record.Version)
				return nil
			}
			if c.NArg() != 1 {
				return fmt.Errorf("expected an ip spec or --path")
			}
			spec, err := types.ParseSpec(c.Args().First())
			if err != nil {
				return err
			}
			record, err := installSpec(ctx, spec, c.Bool("offline"))
			if err != nil {
				return err
			}
			fmt.Printf("installed %s %s\n", record.Name, record.Version)
			return nil
		},
	}
}

// installSpec promotes the best matching catalog record into the cache
// tier.
func installSpec(ctx *appContext, spec types.Spec, offline bool) (*catalog.Record, error) {
	inv, err := ctx.cat.Scan()
	if err != nil {
		return nil, err
	}
	record := inv.Lookup(spec)
	if record == nil {
		return nil, oerrors.NewIpNotFoundError(spec).WithSuggestions(inv.Suggest(spec.Name.String()))
	}
	switch record.Tier {
	case catalog.TierCache:
		return record, nil
	case catalog.TierArchive:
		return ctx.cat.RestoreFromArchive(record.Uuid, record.Version)
	default:
		if offline {
			return nil, oerrors.NewMissingSourceError(spec.String(), true)
		}
		src := record.Manifest.Ip.Source
		if src == nil || src.Url == "" {
			return nil, oerrors.NewMissingSourceError(spec.String(), false)
		}
		fetcher := fetch.FileFetcher{}
		if !fetcher.Supports(src.Url) {
			return nil, oerrors.NewMissingSourceError(spec.String(), false)
		}
		tmpDir, err := os.MkdirTemp("", "orbit-fetch-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmpDir)
		if err := fetcher.Fetch(src.Url, tmpDir); err != nil {
			return nil, err
		}
		if _, err := ctx.cat.Snapshot(tmpDir); err != nil {
			return nil, err
		}
		return ctx.cat.Install(tmpDir)
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Delete an ip from the cache and archive",
		ArgsUsage: "<name[:version]>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: the ip spec")
			}
			spec, err := types.ParseSpec(c.Args().First())
			if err != nil {
				return err
			}
			ctx, err := loadContext()
			if err != nil {
				return err
			}
			inv, err := ctx.cat.Scan()
			if err != nil {
				return err
			}
			removed := 0
			for _, record := range inv.All() {
				if !spec.Matches(record.Name, record.Version) {
					continue
				}
				if record.SlotDir == "" && record.ArchivePath == "" {
					continue
				}
				if err := ctx.cat.Remove(record.Uuid, record.Version); err != nil {
					return err
				}
				removed++
			}
			if removed == 0 {
				return oerrors.NewIpNotFoundError(spec).WithSuggestions(inv.Suggest(spec.Name.String()))
			}
			fmt.Printf("removed %d version(s) of %s\n", removed, spec.Name)
			return nil
		},
	}
}
