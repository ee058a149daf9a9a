package units

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeIp(t *testing.T, files map[string]string) (string, *manifest.Manifest) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	name, _ := types.ParseName("testip")
	m := &manifest.Manifest{Ip: manifest.IpTable{
		Name:    name,
		Uuid:    types.NewUuid(),
		Version: types.MustParseVersion("1.0.0"),
	}}
	return dir, m
}

func TestExtractDirAggregates(t *testing.T) {
	dir, m := writeIp(t, map[string]string{
		"rtl/fa.vhd":    "entity fa is\nend entity;",
		"rtl/adder.vhd": "entity adder is\nend entity;\narchitecture rtl of adder is\nbegin\n  u0 : fa port map (a);\nend architecture;",
		"sim/tb.v":      "module tb;\n  adder u0 (a, b);\nendmodule\n",
		"notes.txt":     "not hdl",
	})
	table, err := ExtractDir(dir, m)
	require.NoError(t, err)
	assert.Empty(t, table.Diagnostics)

	primaries := table.Primaries()
	require.Len(t, primaries, 3)
	for _, u := range primaries {
		assert.Equal(t, manifest.DefaultLibrary, u.Library)
		assert.Equal(t, manifest.Public, u.Visibility)
	}

	adder := table.Find(types.VhdlIdentifier("adder"))
	require.NotNil(t, adder)
	assert.Equal(t, []string{"rtl"}, adder.Architectures)
}

func TestExtractDirDropsBadFilesOnly(t *testing.T) {
	dir, m := writeIp(t, map[string]string{
		"good.vhd": "entity good is\nend entity;",
		"bad.vhd":  "entity bad is\n  constant s : string := \"oops;\nend entity;",
	})
	table, err := ExtractDir(dir, m)
	require.NoError(t, err)
	assert.Len(t, table.Diagnostics, 1)
	require.Len(t, table.Units, 1)
	assert.Equal(t, "good", table.Units[0].Identifier.String())
}

func TestExtractDirVisibility(t *testing.T) {
	dir, m := writeIp(t, map[string]string{
		"rtl/core.vhd":   "entity core is\nend entity;",
		"sim/helper.vhd": "entity helper is\nend entity;",
	})
	m.Ip.Public = []string{"rtl/**"}
	m.Ip.Private = []string{"sim/**"}
	table, err := ExtractDir(dir, m)
	require.NoError(t, err)

	core := table.Find(types.VhdlIdentifier("core"))
	helper := table.Find(types.VhdlIdentifier("helper"))
	require.NotNil(t, core)
	require.NotNil(t, helper)
	assert.Equal(t, manifest.Public, core.Visibility)
	assert.Equal(t, manifest.Private, helper.Visibility)
}

func TestCheckUniqueRejectsDuplicates(t *testing.T) {
	dir, m := writeIp(t, map[string]string{
		"a.vhd": "entity dup is\nend entity;",
		"b.vhd": "entity DUP is\nend entity;",
	})
	table, err := ExtractDir(dir, m)
	require.NoError(t, err)
	assert.Error(t, table.CheckUnique())
}
