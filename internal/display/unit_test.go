package display

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

func orGateModule(t *testing.T) *units.Unit {
	t.Helper()
	src := `module or_gate (
  input  wire a,
  input  wire b,
  output wire x
);
  assign x = a | b;
endmodule
`
	found, err := units.Extract("or_gate.v", []byte(src), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0]
}

func TestVerilogInstanceRoundTrip(t *testing.T) {
	u := orGateModule(t)
	rendered := Instance(u, "u0")
	assert.Equal(t, "or_gate u0 (\n  .a(a),\n  .b(b),\n  .x(x)\n);\n", rendered)

	// the rendered instantiation parses back to a reference of or_gate
	host := "module top;\n" + rendered + "endmodule\n"
	found, err := units.Extract("top.v", []byte(host), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	refs := found[0].Refs()
	require.Len(t, refs, 1)
	assert.Equal(t, "or_gate", refs[0].Name.String())
}

func TestUnitJsonShape(t *testing.T) {
	u := orGateModule(t)
	payload, err := UnitToJson(u)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, "or_gate", decoded["identifier"])
	assert.Equal(t, "verilog", decoded["language"])

	ports, ok := decoded["ports"].([]interface{})
	require.True(t, ok)
	require.Len(t, ports, 3)
	first := ports[0].(map[string]interface{})
	assert.Equal(t, "a", first["identifier"])
	assert.Equal(t, "input", first["mode"])

	generics, ok := decoded["generics"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, generics, "generics serialize as an empty array, not null")
}

func TestVhdlInstance(t *testing.T) {
	src := `entity adder is
  generic (WIDTH : integer := 8);
  port (a, b : in bit; s : out bit);
end entity;
`
	found, err := units.Extract("adder.vhd", []byte(src), types.LangVhdl)
	require.NoError(t, err)
	u := found[0]

	rendered := Instance(u, "u1")
	assert.Contains(t, rendered, "u1 : entity work.adder")
	assert.Contains(t, rendered, "generic map (")
	assert.Contains(t, rendered, "WIDTH => WIDTH")
	assert.Contains(t, rendered, "port map (")
	assert.Contains(t, rendered, "a => a")
	assert.Contains(t, rendered, "s => s")
}

func TestVhdlUnitJsonListsArchitectures(t *testing.T) {
	src := `entity fa is
end entity;
architecture rtl of fa is
begin
end architecture;
architecture gate_level of fa is
begin
end architecture;
`
	found, err := units.Extract("fa.vhd", []byte(src), types.LangVhdl)
	require.NoError(t, err)
	table := &units.Table{Units: found}
	table.LinkArchitectures()

	payload, err := UnitToJson(found[0])
	require.NoError(t, err)
	var decoded UnitJson
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, []string{"gate_level", "rtl"}, decoded.Architectures)
	assert.Equal(t, "vhdl", decoded.Language)
}
