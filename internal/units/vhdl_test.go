package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujichase/orbit/internal/types"
)

const adderVhdl = `library ieee;
use ieee.std_logic_1164.all;

entity adder is
  generic (
    WIDTH : integer := 8
  );
  port (
    a, b : in  std_logic;
    cin  : in  std_logic;
    sum  : out std_logic;
    cout : out std_logic
  );
end entity;

architecture rtl of adder is
  component fa is
    port (a, b, cin : in std_logic; s, c : out std_logic);
  end component;
begin
  u0 : fa port map (a, b, cin, sum, cout);
  u1 : entity work.carry_unit port map (a, b, cout);
end architecture rtl;
`

func TestVhdlEntityExtraction(t *testing.T) {
	found, err := Extract("adder.vhd", []byte(adderVhdl), types.LangVhdl)
	require.NoError(t, err)
	require.Len(t, found, 2)

	entity := found[0]
	assert.Equal(t, KindEntity, entity.Kind)
	assert.Equal(t, "adder", entity.Identifier.String())
	assert.Equal(t, types.LangVhdl, entity.Lang)

	require.Len(t, entity.Generics, 1)
	assert.Equal(t, "WIDTH", entity.Generics[0].Identifier)
	assert.Equal(t, "integer", entity.Generics[0].Type)
	assert.Equal(t, "8", entity.Generics[0].Default)

	require.Len(t, entity.Ports, 5)
	assert.Equal(t, "a", entity.Ports[0].Identifier)
	assert.Equal(t, "in", entity.Ports[0].Mode)
	assert.Equal(t, "b", entity.Ports[1].Identifier)
	assert.Equal(t, "out", entity.Ports[3].Mode)

	// the context clause attaches to the entity
	refs := entity.Refs()
	require.Len(t, refs, 1)
	assert.Equal(t, "ieee", refs[0].Library)
	assert.Equal(t, "std_logic_1164", refs[0].Name.String())
}

func TestVhdlArchitectureReferences(t *testing.T) {
	found, err := Extract("adder.vhd", []byte(adderVhdl), types.LangVhdl)
	require.NoError(t, err)
	arch := found[1]
	assert.Equal(t, KindArchitecture, arch.Kind)
	assert.Equal(t, "rtl", arch.Identifier.String())
	assert.Equal(t, "adder", arch.EntityName.String())

	keys := make(map[string]bool)
	for _, ref := range arch.Refs() {
		keys[ref.String()] = true
	}
	assert.True(t, keys["fa"], "component instantiation")
	assert.True(t, keys["work.carry_unit"], "direct entity instantiation")
}

func TestVhdlPackageAndBody(t *testing.T) {
	src := `package gates_pkg is
  constant N : integer := 4;
end package;

package body gates_pkg is
end package body;
`
	found, err := Extract("pkg.vhd", []byte(src), types.LangVhdl)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, KindPackage, found[0].Kind)
	assert.Equal(t, KindPackageBody, found[1].Kind)
	assert.True(t, found[0].Kind.IsPrimary())
	assert.False(t, found[1].Kind.IsPrimary())
}

func TestVhdlConfigurationReferencesEntity(t *testing.T) {
	src := `configuration cfg of adder is
  for rtl
  end for;
end configuration;
`
	found, err := Extract("cfg.vhd", []byte(src), types.LangVhdl)
	require.NoError(t, err)
	require.Len(t, found, 1)
	cfg := found[0]
	assert.Equal(t, KindConfiguration, cfg.Kind)
	require.Len(t, cfg.Refs(), 1)
	assert.Equal(t, "adder", cfg.Refs()[0].Name.String())
}

func TestVhdlContextDeclarationAndReference(t *testing.T) {
	src := `context my_ctx is
  library ieee;
  use ieee.std_logic_1164.all;
end context;

context work.my_ctx;

entity consumer is
end entity;
`
	found, err := Extract("ctx.vhd", []byte(src), types.LangVhdl)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, KindContext, found[0].Kind)
	assert.Equal(t, "my_ctx", found[0].Identifier.String())

	consumer := found[1]
	require.Len(t, consumer.Refs(), 1)
	assert.Equal(t, "work.my_ctx", consumer.Refs()[0].String())
}

func TestVhdlExtendedIdentifierUnit(t *testing.T) {
	src := `entity \weird name\ is
end entity;
`
	found, err := Extract("weird.vhd", []byte(src), types.LangVhdl)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, `\weird name\`, found[0].Identifier.String())
	assert.Equal(t, types.FormVhdlExtended, found[0].Identifier.Form())
}

func TestVhdlLexFailureDropsFile(t *testing.T) {
	src := `entity broken is
  port (s : string := "unterminated);
end entity;`
	_, err := Extract("broken.vhd", []byte(src), types.LangVhdl)
	assert.Error(t, err)
}

func TestVhdlSpanCoversUnit(t *testing.T) {
	found, err := Extract("adder.vhd", []byte(adderVhdl), types.LangVhdl)
	require.NoError(t, err)
	entity := found[0]
	text := adderVhdl[entity.Span.Start:entity.Span.End]
	assert.Contains(t, text, "entity adder")
	assert.Contains(t, text, "end entity;")
	assert.NotContains(t, text, "architecture")
}
