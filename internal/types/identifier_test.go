package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVhdlBasicIdentifierEquality(t *testing.T) {
	a := VhdlIdentifier("Counter")
	b := VhdlIdentifier("COUNTER")
	assert.True(t, a.Equal(b), "vhdl basic identifiers are case-insensitive")
	assert.Equal(t, "counter", a.Key())
	assert.Equal(t, "Counter", a.String(), "casing is preserved for display")
}

func TestVhdlExtendedIdentifier(t *testing.T) {
	a := VhdlIdentifier(`\foo bar\`)
	assert.Equal(t, FormVhdlExtended, a.Form())
	assert.Equal(t, `\foo bar\`, a.Key(), "extended identifiers keep their delimiters")

	b := VhdlIdentifier(`\FOO bar\`)
	assert.False(t, a.Equal(b), "extended identifiers are case-sensitive")

	plain := VhdlIdentifier("foo bar") // not constructible from a lexer, but must not match
	assert.False(t, a.Equal(plain), "extended and basic forms never collide")
}

func TestVerilogIdentifierEquality(t *testing.T) {
	a := VerilogIdentifier("or_gate")
	b := VerilogIdentifier("OR_GATE")
	assert.False(t, a.Equal(b), "verilog identifiers are case-sensitive")
	assert.True(t, a.Equal(VerilogIdentifier("or_gate")))

	escaped := VerilogIdentifier(`\or_gate`)
	assert.Equal(t, FormVerilogEscaped, escaped.Form())
	assert.False(t, escaped.Equal(a))
}

func TestCrossLanguageLookup(t *testing.T) {
	// a VHDL architecture may instantiate a verilog module by name; the
	// case-insensitive side drives the comparison
	vhdlRef := VhdlIdentifier("Nand_G")
	verilogDecl := VerilogIdentifier("nand_g")
	assert.True(t, vhdlRef.Equal(verilogDecl))
}

func TestSpecParsing(t *testing.T) {
	s, err := ParseSpec("gates:2.1")
	assert.NoError(t, err)
	assert.Equal(t, "gates", s.Name.String())
	assert.Equal(t, "2.1", s.Version.String())
	assert.True(t, s.Matches(MustParseName("Gates"), MustParseVersion("2.1.3")))
	assert.False(t, s.Matches(MustParseName("gates"), MustParseVersion("2.2.0")))

	bare, err := ParseSpec("gates")
	assert.NoError(t, err)
	assert.Nil(t, bare.Version)
	assert.True(t, bare.Matches(MustParseName("gates"), MustParseVersion("9.9.9")))

	_, err = ParseSpec("bad name:1")
	assert.Error(t, err)
	_, err = ParseSpec("gates:x")
	assert.Error(t, err)
}
