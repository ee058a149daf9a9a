package fetch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestZipPackUnpackRoundTrip(t *testing.T) {
	src := writeTree(t, map[string]string{
		"Orbit.toml": "[ip]\nname = \"x\"\n",
		"rtl/a.vhd":  "entity a is end;",
		"sim/tb.vhd": "entity tb is end;",
	})
	archive := filepath.Join(t.TempDir(), "x.zip")
	var z ZipArchiver
	require.NoError(t, z.Pack(src, archive))

	dest := t.TempDir()
	require.NoError(t, z.Unpack(archive, dest))

	for _, rel := range []string{"Orbit.toml", "rtl/a.vhd", "sim/tb.vhd"} {
		want, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(rel)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, want, got, rel)
	}
}

func TestZipPackIsDeterministic(t *testing.T) {
	files := map[string]string{"b.vhd": "bbb", "a.vhd": "aaa"}
	var z ZipArchiver

	archive1 := filepath.Join(t.TempDir(), "one.zip")
	require.NoError(t, z.Pack(writeTree(t, files), archive1))
	archive2 := filepath.Join(t.TempDir(), "two.zip")
	require.NoError(t, z.Pack(writeTree(t, files), archive2))

	raw1, err := os.ReadFile(archive1)
	require.NoError(t, err)
	raw2, err := os.ReadFile(archive2)
	require.NoError(t, err)
	assert.Equal(t, raw1, raw2)
}

func TestZipReadFile(t *testing.T) {
	src := writeTree(t, map[string]string{"Orbit.toml": "[ip]\n"})
	archive := filepath.Join(t.TempDir(), "x.zip")
	var z ZipArchiver
	require.NoError(t, z.Pack(src, archive))

	raw, err := z.ReadFile(archive, "Orbit.toml")
	require.NoError(t, err)
	assert.Equal(t, "[ip]\n", string(raw))

	_, err = z.ReadFile(archive, "nope.txt")
	assert.Error(t, err)
}

func TestFileFetcher(t *testing.T) {
	src := writeTree(t, map[string]string{"a.vhd": "entity a is end;"})
	var f FileFetcher
	assert.True(t, f.Supports("file:///tmp/x"))
	assert.True(t, f.Supports("/tmp/x"))
	assert.False(t, f.Supports("https://example.com/x.git"))

	dest := t.TempDir()
	require.NoError(t, f.Fetch("file://"+src, dest))
	assert.FileExists(t, filepath.Join(dest, "a.vhd"))
}
