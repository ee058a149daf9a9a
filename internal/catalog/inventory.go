package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hbollon/go-edlib"

	"github.com/ujichase/orbit/internal/checksum"
	"github.com/ujichase/orbit/internal/debug"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

// Tier identifies where a record was found. Lower values win when the same
// (uuid, version) exists in several tiers.
type Tier uint8

const (
	TierCache Tier = iota
	TierArchive
	TierChannel
)

func (t Tier) String() string {
	switch t {
	case TierCache:
		return "installed"
	case TierArchive:
		return "downloaded"
	default:
		return "available"
	}
}

// Record is one (uuid, version) of one IP as known to the catalog.
type Record struct {
	Name    types.Name
	Uuid    types.Uuid
	Version types.Version
	// Tier is the best tier holding this record.
	Tier Tier

	// SlotDir and Checksum are set for cache records.
	SlotDir   string
	Checksum  checksum.Digest
	DstSuffix string

	// ArchivePath is set when a snapshot exists.
	ArchivePath string
	// Channel is set for index records.
	Channel      string
	ManifestPath string

	Manifest *manifest.Manifest
}

// IsDerived reports whether the record is a DST-derived slot.
func (r *Record) IsDerived() bool { return r.DstSuffix != "" }

type recordKey struct {
	uuid    types.Uuid
	version types.Version
}

// Inventory is a point-in-time scan of all three tiers with the priority
// rule already applied.
type Inventory struct {
	records map[recordKey]*Record
	derived map[recordKey][]*Record
	byName  map[string][]*Record
}

// Scan walks the cache, archive, and channel tiers and merges them.
func (c *Catalog) Scan() (*Inventory, error) {
	inv := &Inventory{
		records: make(map[recordKey]*Record),
		derived: make(map[recordKey][]*Record),
		byName:  make(map[string][]*Record),
	}
	if err := c.scanCache(inv); err != nil {
		return nil, err
	}
	if err := c.scanArchive(inv); err != nil {
		return nil, err
	}
	if err := c.scanChannels(inv); err != nil {
		return nil, err
	}
	for _, r := range inv.records {
		inv.byName[r.Name.Key()] = append(inv.byName[r.Name.Key()], r)
	}
	for _, list := range inv.byName {
		sort.Slice(list, func(i, j int) bool { return list[i].Version.Cmp(list[j].Version) > 0 })
	}
	return inv, nil
}

func (c *Catalog) scanCache(inv *Inventory) error {
	entries, err := os.ReadDir(c.CacheDir())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		slotDir := filepath.Join(c.CacheDir(), entry.Name())
		digest, err := checksum.ReadSumFile(slotDir)
		if err != nil {
			// No .orbit-sum: an incomplete slot from an interrupted
			// install. Readers ignore it.
			debug.Printf("scan: ignoring incomplete slot %s\n", entry.Name())
			continue
		}
		m, err := manifest.ReadFromDir(slotDir)
		if err != nil {
			debug.Printf("scan: ignoring slot %s: %v\n", entry.Name(), err)
			continue
		}
		base := SlotName(m.Ip.Uuid, m.Ip.Version, "")
		suffix := strings.TrimPrefix(strings.TrimPrefix(entry.Name(), base), "-")
		r := &Record{
			Name:      m.Ip.Name,
			Uuid:      m.Ip.Uuid,
			Version:   m.Ip.Version,
			Tier:      TierCache,
			SlotDir:   slotDir,
			Checksum:  digest,
			DstSuffix: suffix,
			Manifest:  m,
		}
		key := recordKey{uuid: r.Uuid, version: r.Version}
		if r.IsDerived() {
			inv.derived[key] = append(inv.derived[key], r)
			continue
		}
		inv.records[key] = r
	}
	return nil
}

func (c *Catalog) scanArchive(inv *Inventory) error {
	entries, err := os.ReadDir(c.ArchiveDir())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, c.archiver.Ext()) {
			continue
		}
		archivePath := filepath.Join(c.ArchiveDir(), name)
		raw, err := c.archiver.ReadFile(archivePath, manifest.FileName)
		if err != nil {
			debug.Printf("scan: ignoring archive %s: %v\n", name, err)
			continue
		}
		m, err := manifest.Parse(raw)
		if err != nil {
			debug.Printf("scan: ignoring archive %s: %v\n", name, err)
			continue
		}
		key := recordKey{uuid: m.Ip.Uuid, version: m.Ip.Version}
		if existing, ok := inv.records[key]; ok {
			// Cache outranks archive; just note the snapshot.
			existing.ArchivePath = archivePath
			continue
		}
		inv.records[key] = &Record{
			Name:        m.Ip.Name,
			Uuid:        m.Ip.Uuid,
			Version:     m.Ip.Version,
			Tier:        TierArchive,
			ArchivePath: archivePath,
			Manifest:    m,
		}
	}
	return nil
}

func (c *Catalog) scanChannels(inv *Inventory) error {
	fsys := os.DirFS(c.ChannelsDir())
	matches, err := doublestar.Glob(fsys, "*/*/*/"+manifest.FileName)
	if err != nil {
		return err
	}
	for _, rel := range matches {
		manifestPath := filepath.Join(c.ChannelsDir(), filepath.FromSlash(rel))
		m, err := manifest.Read(manifestPath)
		if err != nil {
			debug.Printf("scan: ignoring channel manifest %s: %v\n", rel, err)
			continue
		}
		channel := strings.SplitN(rel, "/", 2)[0]
		key := recordKey{uuid: m.Ip.Uuid, version: m.Ip.Version}
		if existing, ok := inv.records[key]; ok {
			if existing.Channel == "" {
				existing.Channel = channel
			}
			continue
		}
		inv.records[key] = &Record{
			Name:         m.Ip.Name,
			Uuid:         m.Ip.Uuid,
			Version:      m.Ip.Version,
			Tier:         TierChannel,
			Channel:      channel,
			ManifestPath: manifestPath,
			Manifest:     m,
		}
	}
	return nil
}

// Lookup returns the highest-version record matching the spec, or nil.
func (inv *Inventory) Lookup(spec types.Spec) *Record {
	var best *Record
	for _, r := range inv.byName[spec.Name.Key()] {
		if !spec.Matches(r.Name, r.Version) {
			continue
		}
		if best == nil || r.Version.Cmp(best.Version) > 0 {
			best = r
		}
	}
	return best
}

// LookupConstraint returns the highest version of (name, constraint), or
// nil.
func (inv *Inventory) LookupConstraint(name types.Name, constraint types.PartialVersion) *Record {
	return inv.Lookup(types.Spec{Name: name, Version: &constraint})
}

// FindExact returns the record for (uuid, version), or nil.
func (inv *Inventory) FindExact(uuid types.Uuid, version types.Version) *Record {
	return inv.records[recordKey{uuid: uuid, version: version}]
}

// FindDerived returns the derived slot with the given DST suffix, or nil.
func (inv *Inventory) FindDerived(uuid types.Uuid, version types.Version, suffix string) *Record {
	for _, r := range inv.derived[recordKey{uuid: uuid, version: version}] {
		if r.DstSuffix == suffix {
			return r
		}
	}
	return nil
}

// All returns every non-derived record, sorted by (name, version
// descending) for stable listings.
func (inv *Inventory) All() []*Record {
	out := make([]*Record, 0, len(inv.records))
	for _, r := range inv.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].Name.Key(), out[j].Name.Key(); a != b {
			return a < b
		}
		return out[i].Version.Cmp(out[j].Version) > 0
	})
	return out
}

// Names returns every known IP name (display form of the newest record),
// sorted.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.byName))
	for _, list := range inv.byName {
		names = append(names, list[0].Name.String())
	}
	sort.Strings(names)
	return names
}

// Suggest returns up to three catalog names similar to the given one,
// for "did you mean" diagnostics.
func (inv *Inventory) Suggest(input string) []string {
	type scored struct {
		name  string
		score float32
	}
	var candidates []scored
	for _, name := range inv.Names() {
		score, err := edlib.StringsSimilarity(strings.ToLower(input), strings.ToLower(name), edlib.JaroWinkler)
		if err != nil || score < 0.75 {
			continue
		}
		candidates = append(candidates, scored{name: name, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

// VerifySlot recomputes a cache slot's digest and compares it to
// .orbit-sum. It returns true when the slot is intact.
func (c *Catalog) VerifySlot(r *Record) (bool, error) {
	if r.SlotDir == "" {
		return false, nil
	}
	recorded, err := checksum.ReadSumFile(r.SlotDir)
	if err != nil {
		return false, nil // incomplete slot counts as corrupt
	}
	computed, err := checksum.DigestDir(r.SlotDir, nil)
	if err != nil {
		return false, err
	}
	return computed == recorded, nil
}
