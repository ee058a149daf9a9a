package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujichase/orbit/internal/types"
)

const topVerilog = "`include \"defs.vh\"\n" + `module top #(
  parameter WIDTH = 8
) (
  input  wire a,
  input  wire b,
  output wire x
);
  wire t;
  or_gate u0 (.a(a), .b(b), .x(t));
  and_gate #(.W(WIDTH)) u1 (.a(t), .b(b), .x(x));
  nand g0 (t, a, b);
endmodule
`

func TestVerilogModuleExtraction(t *testing.T) {
	found, err := Extract("top.v", []byte(topVerilog), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found, 1)

	top := found[0]
	assert.Equal(t, KindModule, top.Kind)
	assert.Equal(t, "top", top.Identifier.String())
	assert.Equal(t, types.LangVerilog, top.Lang)

	require.Len(t, top.Generics, 1)
	assert.Equal(t, "WIDTH", top.Generics[0].Identifier)
	assert.Equal(t, "parameter", top.Generics[0].Mode)
	assert.Equal(t, "8", top.Generics[0].Default)

	require.Len(t, top.Ports, 3)
	assert.Equal(t, "a", top.Ports[0].Identifier)
	assert.Equal(t, "input", top.Ports[0].Mode)
	assert.Equal(t, "x", top.Ports[2].Identifier)
	assert.Equal(t, "output", top.Ports[2].Mode)
}

func TestVerilogInstantiationReferences(t *testing.T) {
	found, err := Extract("top.v", []byte(topVerilog), types.LangVerilog)
	require.NoError(t, err)
	top := found[0]

	names := make(map[string]bool)
	for _, ref := range top.Refs() {
		names[ref.Name.String()] = true
	}
	assert.True(t, names["or_gate"], "plain instantiation")
	assert.True(t, names["and_gate"], "parameterized instantiation")
	assert.False(t, names["nand"], "gate primitives are not references")
	assert.False(t, names["wire"], "declarations are not references")
	assert.False(t, names["t"])
}

func TestVerilogIncludeIsFileReference(t *testing.T) {
	found, err := Extract("top.v", []byte(topVerilog), types.LangVerilog)
	require.NoError(t, err)
	top := found[0]
	assert.Equal(t, []string{"defs.vh"}, top.IncludeFiles)
	for _, ref := range top.Refs() {
		assert.NotEqual(t, "defs", ref.Name.String(), "includes must not become unit references")
	}
}

func TestVerilogDefineBodyIsOpaque(t *testing.T) {
	src := "`define MAKE_GATE or_gate u9 (a, b, x);\nmodule m;\nendmodule\n"
	found, err := Extract("m.v", []byte(src), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Empty(t, found[0].Refs(), "macro bodies never contribute references")
}

func TestSystemVerilogUnits(t *testing.T) {
	src := `package alu_pkg;
  typedef logic [7:0] word_t;
endpackage

interface alu_if;
  logic ready;
endinterface

program alu_prog;
endprogram

checker alu_chk;
endchecker

module alu;
  import alu_pkg::*;
endmodule
`
	found, err := Extract("alu.sv", []byte(src), types.LangSystemVerilog)
	require.NoError(t, err)
	require.Len(t, found, 5)
	kinds := map[string]Kind{}
	for _, u := range found {
		kinds[u.Identifier.String()] = u.Kind
	}
	assert.Equal(t, KindPackage, kinds["alu_pkg"])
	assert.Equal(t, KindInterface, kinds["alu_if"])
	assert.Equal(t, KindProgram, kinds["alu_prog"])
	assert.Equal(t, KindChecker, kinds["alu_chk"])
	assert.Equal(t, KindModule, kinds["alu"])

	alu := found[4]
	require.Len(t, alu.Refs(), 1)
	assert.Equal(t, "alu_pkg", alu.Refs()[0].Name.String())
	assert.Equal(t, types.LangSystemVerilog, alu.Lang)
}

func TestVerilogBindStatement(t *testing.T) {
	src := `module tb;
  bind cpu cpu_sva u_sva (.clk(clk));
endmodule
`
	found, err := Extract("tb.sv", []byte(src), types.LangSystemVerilog)
	require.NoError(t, err)
	tb := found[0]
	names := make(map[string]bool)
	for _, ref := range tb.Refs() {
		names[ref.Name.String()] = true
	}
	assert.True(t, names["cpu"], "bind target")
	assert.True(t, names["cpu_sva"], "bound module")
	assert.False(t, names["u_sva"], "instance names are not references")
}

func TestVerilogPrimitive(t *testing.T) {
	src := `primitive mux (out, sel, a, b);
  output out;
  input sel, a, b;
  table
    0 1 ? : 1 ;
    1 ? 1 : 1 ;
  endtable
endprimitive
`
	found, err := Extract("mux.v", []byte(src), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, KindPrimitive, found[0].Kind)
	assert.Equal(t, "mux", found[0].Identifier.String())
}

func TestVerilogEscapedIdentifierUnit(t *testing.T) {
	src := "module \\top$x (a);\n  input a;\nendmodule\n"
	found, err := Extract("esc.v", []byte(src), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, `\top$x`, found[0].Identifier.String())
	assert.Equal(t, types.FormVerilogEscaped, found[0].Identifier.Form())
}

func TestVerilogInstanceArrays(t *testing.T) {
	src := `module bank;
  dff bits [3:0] (q, d, clk);
endmodule
`
	found, err := Extract("bank.v", []byte(src), types.LangVerilog)
	require.NoError(t, err)
	require.Len(t, found[0].Refs(), 1)
	assert.Equal(t, "dff", found[0].Refs()[0].Name.String())
}
