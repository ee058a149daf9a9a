// Package catalog is the on-disk store of IPs under $ORBIT_HOME: a cache of
// installed immutable slots, an archive of source snapshots, and a channel
// index of available manifests. When the same (uuid, version) appears in
// more than one tier, cache wins over archive wins over index.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ujichase/orbit/internal/checksum"
	"github.com/ujichase/orbit/internal/debug"
	"github.com/ujichase/orbit/internal/fetch"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

const (
	cacheDirName    = "cache"
	archiveDirName  = "archive"
	channelsDirName = "channels"

	// UuidPrefixLen is how many base-36 characters of the uuid appear in
	// slot and archive names.
	UuidPrefixLen = 10
	// DstSuffixLen is how many hex characters of a derived slot's checksum
	// appear in its directory name.
	DstSuffixLen = 10
)

// Catalog is a handle on the $ORBIT_HOME store.
type Catalog struct {
	root     string
	archiver fetch.Archiver
}

// Open prepares the catalog directories under root.
func Open(root string) (*Catalog, error) {
	c := &Catalog{root: root, archiver: fetch.ZipArchiver{}}
	for _, dir := range []string{c.CacheDir(), c.ArchiveDir(), c.ChannelsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("preparing catalog: %w", err)
		}
	}
	return c, nil
}

// Root returns the catalog root ($ORBIT_HOME).
func (c *Catalog) Root() string { return c.root }

// CacheDir returns the cache tier directory.
func (c *Catalog) CacheDir() string { return filepath.Join(c.root, cacheDirName) }

// ArchiveDir returns the archive tier directory.
func (c *Catalog) ArchiveDir() string { return filepath.Join(c.root, archiveDirName) }

// ChannelsDir returns the channel index directory.
func (c *Catalog) ChannelsDir() string { return filepath.Join(c.root, channelsDirName) }

// SlotName is the cache directory name for (uuid, version), with an
// optional DST suffix for derived slots.
func SlotName(uuid types.Uuid, version types.Version, dstSuffix string) string {
	name := uuid.Prefix(UuidPrefixLen) + "-" + version.String()
	if dstSuffix != "" {
		name += "-" + dstSuffix
	}
	return name
}

// SlotDir returns the absolute path a slot would occupy.
func (c *Catalog) SlotDir(uuid types.Uuid, version types.Version, dstSuffix string) string {
	return filepath.Join(c.CacheDir(), SlotName(uuid, version, dstSuffix))
}

// ArchiveFile returns the snapshot path for (uuid, version).
func (c *Catalog) ArchiveFile(uuid types.Uuid, version types.Version) string {
	return filepath.Join(c.ArchiveDir(), uuid.Prefix(UuidPrefixLen)+"-"+version.String()+c.archiver.Ext())
}

// Install copies srcDir into a cache slot for its manifest's (uuid,
// version), computes the content digest, and records it in .orbit-sum.
// Install is idempotent: an existing slot with the same digest is left
// untouched. The write goes to a temp directory and is renamed into place
// so a concurrent reader never sees a half-written slot.
func (c *Catalog) Install(srcDir string) (*Record, error) {
	return c.install(srcDir, "")
}

// InstallDerived installs a DST-rewritten tree as a derived slot. The
// suffix also appears in the slot's directory name.
func (c *Catalog) InstallDerived(srcDir string, dstSuffix string) (*Record, error) {
	return c.install(srcDir, dstSuffix)
}

func (c *Catalog) install(srcDir string, dstSuffix string) (*Record, error) {
	m, err := manifest.ReadFromDir(srcDir)
	if err != nil {
		return nil, err
	}
	digest, err := checksum.DigestDir(srcDir, nil)
	if err != nil {
		return nil, err
	}

	slotDir := c.SlotDir(m.Ip.Uuid, m.Ip.Version, dstSuffix)
	if existing, err := checksum.ReadSumFile(slotDir); err == nil {
		// The recorded sum alone cannot be trusted: a corrupt slot still
		// carries its original .orbit-sum. The xxhash fingerprint settles
		// whether the bytes really match without a second sha256 walk.
		if existing == digest && c.slotMatches(slotDir, srcDir) {
			debug.Printf("install: slot %s already present\n", filepath.Base(slotDir))
			return c.recordForSlot(slotDir, m, digest, dstSuffix), nil
		}
		// A differing slot under the same name is stale or corrupt;
		// replace it wholesale.
		if err := os.RemoveAll(slotDir); err != nil {
			return nil, err
		}
	}

	tmpDir, err := os.MkdirTemp(c.CacheDir(), ".install-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)
	if err := fetch.CopyTree(srcDir, tmpDir); err != nil {
		return nil, fmt.Errorf("staging %s: %w", srcDir, err)
	}
	// The lockfile is not part of a slot's identity; drop it from the
	// installed copy so the digest check stays stable.
	os.Remove(filepath.Join(tmpDir, checksum.LockFileName))
	if err := checksum.WriteSumFile(tmpDir, digest); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpDir, slotDir); err != nil {
		return nil, fmt.Errorf("committing slot %s: %w", filepath.Base(slotDir), err)
	}
	debug.Printf("install: committed slot %s\n", filepath.Base(slotDir))
	return c.recordForSlot(slotDir, m, digest, dstSuffix), nil
}

// Snapshot packs srcDir into the archive tier. The archive is append-only
// per (uuid, version): an existing snapshot is kept.
func (c *Catalog) Snapshot(srcDir string) (string, error) {
	m, err := manifest.ReadFromDir(srcDir)
	if err != nil {
		return "", err
	}
	dest := c.ArchiveFile(m.Ip.Uuid, m.Ip.Version)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	tmp := dest + ".part"
	if err := c.archiver.Pack(srcDir, tmp); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// RestoreFromArchive rebuilds a cache slot from its snapshot without
// re-fetching.
func (c *Catalog) RestoreFromArchive(uuid types.Uuid, version types.Version) (*Record, error) {
	archiveFile := c.ArchiveFile(uuid, version)
	if _, err := os.Stat(archiveFile); err != nil {
		return nil, fmt.Errorf("no archive snapshot for %s-%s: %w", uuid.Prefix(UuidPrefixLen), version, err)
	}
	tmpDir, err := os.MkdirTemp(c.CacheDir(), ".restore-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)
	if err := c.archiver.Unpack(archiveFile, tmpDir); err != nil {
		return nil, err
	}
	return c.Install(tmpDir)
}

// Remove deletes every cache slot (including derived slots) and the
// archive snapshot for (uuid, version). Channel index entries are not
// touched.
func (c *Catalog) Remove(uuid types.Uuid, version types.Version) error {
	prefix := SlotName(uuid, version, "")
	entries, err := os.ReadDir(c.CacheDir())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == prefix || strings.HasPrefix(name, prefix+"-") {
			if err := os.RemoveAll(filepath.Join(c.CacheDir(), name)); err != nil {
				return err
			}
		}
	}
	if err := os.Remove(c.ArchiveFile(uuid, version)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PublishToChannel places an IP's manifest into a channel's index at
// channels/<channel>/<name>/<version>/Orbit.toml.
func (c *Catalog) PublishToChannel(channel string, m *manifest.Manifest) error {
	dir := filepath.Join(c.ChannelsDir(), channel, m.Ip.Name.Key(), m.Ip.Version.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return m.Write(filepath.Join(dir, manifest.FileName))
}

// slotMatches compares slot and source contents by fingerprint.
func (c *Catalog) slotMatches(slotDir, srcDir string) bool {
	slotFp, err := checksum.FingerprintDir(slotDir, nil)
	if err != nil {
		return false
	}
	srcFp, err := checksum.FingerprintDir(srcDir, nil)
	if err != nil {
		return false
	}
	return slotFp == srcFp
}

func (c *Catalog) recordForSlot(slotDir string, m *manifest.Manifest, digest checksum.Digest, dstSuffix string) *Record {
	return &Record{
		Name:      m.Ip.Name,
		Uuid:      m.Ip.Uuid,
		Version:   m.Ip.Version,
		Tier:      TierCache,
		SlotDir:   slotDir,
		Checksum:  digest,
		DstSuffix: dstSuffix,
		Manifest:  m,
	}
}
