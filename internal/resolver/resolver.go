// Package resolver selects concrete versions from the catalog to satisfy
// a manifest, installing missing IPs through the fetch collaborators, and
// emits the deterministic lockfile.
package resolver

import (
	"fmt"
	"os"
	"sort"

	"github.com/ujichase/orbit/internal/catalog"
	"github.com/ujichase/orbit/internal/checksum"
	"github.com/ujichase/orbit/internal/debug"
	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/fetch"
	"github.com/ujichase/orbit/internal/ipgraph"
	"github.com/ujichase/orbit/internal/lockfile"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

// Options tune one resolution run.
type Options struct {
	// WithDev includes the local IP's dev-dependencies.
	WithDev bool
	// Force tolerates lock/slot checksum disagreements.
	Force bool
	// Offline forbids fetching; only cache and archive tiers may satisfy
	// constraints.
	Offline bool
}

// Resolver walks version constraints against a catalog.
type Resolver struct {
	cat      *catalog.Catalog
	inv      *catalog.Inventory
	fetchers []fetch.Fetcher
	opts     Options
}

// Resolution is the outcome: the local IP, every resolved dependency with
// its unit table loaded, and the canonical lockfile.
type Resolution struct {
	Local *ipgraph.Ip
	// Ips lists the local IP first, then dependencies sorted by
	// (name, version).
	Ips  []*ipgraph.Ip
	Lock *lockfile.Lock
}

// New scans the catalog and prepares a resolver.
func New(cat *catalog.Catalog, opts Options) (*Resolver, error) {
	inv, err := cat.Scan()
	if err != nil {
		return nil, err
	}
	return &Resolver{
		cat:      cat,
		inv:      inv,
		fetchers: []fetch.Fetcher{fetch.FileFetcher{}},
		opts:     opts,
	}, nil
}

// Inventory exposes the scan backing this resolver.
func (r *Resolver) Inventory() *catalog.Inventory { return r.inv }

// Resolve computes the transitive closure of the IP rooted at localDir.
func (r *Resolver) Resolve(localDir string) (*Resolution, error) {
	m, err := manifest.ReadFromDir(localDir)
	if err != nil {
		return nil, err
	}
	table, err := units.ExtractDir(localDir, m)
	if err != nil {
		return nil, err
	}
	if err := table.CheckUnique(); err != nil {
		return nil, oerrors.NewManifestError(localDir, err)
	}

	local := &ipgraph.Ip{
		Name:     m.Ip.Name,
		Version:  m.Ip.Version,
		Uuid:     m.Ip.Uuid,
		Manifest: m,
		Table:    table,
		Root:     localDir,
		Local:    true,
	}

	state := &walkState{resolved: make(map[resolvedKey]*ipgraph.Ip)}
	if err := r.walk(local, m, r.opts.WithDev, state); err != nil {
		return nil, err
	}
	if err := checkDirectConflicts(local); err != nil {
		return nil, err
	}

	res := &Resolution{Local: local}
	res.Ips = append(res.Ips, local)
	deps := make([]*ipgraph.Ip, 0, len(state.resolved))
	for _, ip := range state.resolved {
		deps = append(deps, ip)
	}
	sort.Slice(deps, func(i, j int) bool {
		if a, b := deps[i].Name.Key(), deps[j].Name.Key(); a != b {
			return a < b
		}
		return deps[i].Version.Cmp(deps[j].Version) < 0
	})
	res.Ips = append(res.Ips, deps...)
	res.Lock = buildLock(deps)
	return res, nil
}

type resolvedKey struct {
	uuid    types.Uuid
	version types.Version
}

type walkState struct {
	resolved map[resolvedKey]*ipgraph.Ip
}

// walk resolves one IP's dependency constraints depth-first in name
// order, reusing already-resolved (uuid, version) selections.
func (r *Resolver) walk(ip *ipgraph.Ip, m *manifest.Manifest, withDev bool, state *walkState) error {
	deps, err := m.DependencyList(withDev)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		record := r.inv.LookupConstraint(dep.Name, dep.Constraint)
		if record == nil {
			spec := types.Spec{Name: dep.Name, Version: &dep.Constraint}
			return oerrors.NewMissingSourceError(spec.String(), r.opts.Offline).
				WithSuggestions(r.inv.Suggest(dep.Name.String()))
		}
		key := resolvedKey{uuid: record.Uuid, version: record.Version}
		selected, ok := state.resolved[key]
		if !ok {
			selected, err = r.materialize(record)
			if err != nil {
				return err
			}
			state.resolved[key] = selected
			if err := r.walk(selected, selected.Manifest, false, state); err != nil {
				return err
			}
		}
		ip.Direct = append(ip.Direct, selected)
	}
	sort.Slice(ip.Direct, func(i, j int) bool { return ip.Direct[i].Name.Key() < ip.Direct[j].Name.Key() })
	return nil
}

// materialize guarantees a record is a verified cache slot and loads its
// unit table.
func (r *Resolver) materialize(record *catalog.Record) (*ipgraph.Ip, error) {
	record, err := r.ensureInstalled(record)
	if err != nil {
		return nil, err
	}
	ok, err := r.cat.VerifySlot(record)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Corrupt slot: reinstall from the archive snapshot, or refetch.
		debug.Printf("resolver: slot %s corrupt, reinstalling\n", record.SlotDir)
		repaired, err := r.reinstall(record)
		if err != nil {
			return nil, err
		}
		ok, err = r.cat.VerifySlot(repaired)
		if err != nil {
			return nil, err
		}
		if !ok && !r.opts.Force {
			computed, _ := checksum.DigestDir(repaired.SlotDir, nil)
			return nil, oerrors.NewChecksumError(repaired.SlotDir, repaired.Checksum.String(), computed.String())
		}
		record = repaired
	}

	table, err := units.ExtractDir(record.SlotDir, record.Manifest)
	if err != nil {
		return nil, err
	}
	return &ipgraph.Ip{
		Name:     record.Name,
		Version:  record.Version,
		Uuid:     record.Uuid,
		Manifest: record.Manifest,
		Table:    table,
		Root:     record.SlotDir,
		Checksum: record.Checksum,
	}, nil
}

// ensureInstalled promotes an archive or channel record into the cache
// tier.
func (r *Resolver) ensureInstalled(record *catalog.Record) (*catalog.Record, error) {
	switch record.Tier {
	case catalog.TierCache:
		return record, nil
	case catalog.TierArchive:
		return r.cat.RestoreFromArchive(record.Uuid, record.Version)
	default:
		if r.opts.Offline {
			spec := record.Name.String() + ":" + record.Version.String()
			return nil, oerrors.NewMissingSourceError(spec, true)
		}
		return r.download(record)
	}
}

// download fetches a channel record's source, snapshots it, and installs
// it.
func (r *Resolver) download(record *catalog.Record) (*catalog.Record, error) {
	src := record.Manifest.Ip.Source
	spec := record.Name.String() + ":" + record.Version.String()
	if src == nil || src.Url == "" {
		return nil, oerrors.NewMissingSourceError(spec, false)
	}
	fetcher := r.fetcherFor(src.Url)
	if fetcher == nil {
		return nil, oerrors.NewMissingSourceError(spec, false)
	}
	tmpDir, err := os.MkdirTemp("", "orbit-fetch-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)
	if err := fetcher.Fetch(src.Url, tmpDir); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", spec, err)
	}
	if _, err := r.cat.Snapshot(tmpDir); err != nil {
		return nil, err
	}
	return r.cat.Install(tmpDir)
}

func (r *Resolver) fetcherFor(url string) fetch.Fetcher {
	for _, f := range r.fetchers {
		if f.Supports(url) {
			return f
		}
	}
	return nil
}

// reinstall repairs a corrupt slot from the archive when a snapshot
// exists, falling back to a fresh download.
func (r *Resolver) reinstall(record *catalog.Record) (*catalog.Record, error) {
	if repaired, err := r.cat.RestoreFromArchive(record.Uuid, record.Version); err == nil {
		return repaired, nil
	}
	if r.opts.Offline {
		return nil, oerrors.NewChecksumError(record.SlotDir, record.Checksum.String(), "unavailable").WithRepairable(false)
	}
	return r.download(record)
}

// checkDirectConflicts enforces that no direct dependency shares a
// primary-unit identifier with the local IP.
func checkDirectConflicts(local *ipgraph.Ip) error {
	for _, mine := range local.Table.Primaries() {
		for _, dep := range local.Direct {
			for _, theirs := range dep.Table.Primaries() {
				if mine.Identifier.Equal(theirs.Identifier) {
					return oerrors.NewNameConflictError(
						mine.Library, mine.Identifier.String(),
						local.Name.String(), dep.Name.String())
				}
			}
		}
	}
	return nil
}

// buildLock renders the resolved set as canonical lock entries.
func buildLock(deps []*ipgraph.Ip) *lockfile.Lock {
	lock := &lockfile.Lock{}
	for _, ip := range deps {
		entry := lockfile.Entry{
			Name:     ip.Name,
			Uuid:     ip.Uuid,
			Version:  ip.Version,
			Checksum: ip.Checksum,
		}
		if src := ip.Manifest.Ip.Source; src != nil {
			entry.Source = src.Url
		}
		for _, sub := range ip.Direct {
			entry.Dependencies = append(entry.Dependencies, sub.Name.String()+":"+sub.Version.String())
		}
		lock.Ip = append(lock.Ip, entry)
	}
	lock.Canonicalize()
	return lock
}

// VerifyLock checks an existing lockfile against a fresh resolution. Every
// freshly resolved IP must be pinned with a matching checksum; entries the
// resolution no longer needs (dev-dependencies of a previous `lock --all`)
// are tolerated. A checksum disagreement on a pinned entry is fatal unless
// force.
func VerifyLock(existing *lockfile.Lock, exists bool, fresh *Resolution, force bool) error {
	if !exists {
		return oerrors.NewLockError("no " + lockfile.FileName + " present")
	}
	for _, entry := range fresh.Lock.Ip {
		prev := existing.FindExact(entry.Uuid, entry.Version)
		if prev == nil {
			return oerrors.NewLockError("manifest dependencies changed since last lock")
		}
		if prev.Checksum != entry.Checksum && !force {
			return oerrors.NewChecksumError(
				entry.Name.String()+":"+entry.Version.String(),
				prev.Checksum.String(), entry.Checksum.String())
		}
	}
	return nil
}
