package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujichase/orbit/internal/types"
)

func scanVerilog(t *testing.T, src string, lang types.Lang) []Token {
	t.Helper()
	lx := NewVerilogLexer("test.v", []byte(src), lang)
	var toks []Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		if tok.IsEOF() {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestVerilogBasicTokens(t *testing.T) {
	toks := scanVerilog(t, "module top;\nendmodule", types.LangVerilog)
	assert.Equal(t, []string{"module", "top", ";", "endmodule"}, textsOf(toks))
	assert.Equal(t, []TokenKind{TokenKeyword, TokenIdentifier, TokenDelimiter, TokenKeyword}, kindsOf(toks))
}

func TestVerilogKeywordsAreCaseSensitive(t *testing.T) {
	toks := scanVerilog(t, "module MODULE Module", types.LangVerilog)
	assert.Equal(t, TokenKeyword, toks[0].Kind)
	assert.Equal(t, TokenIdentifier, toks[1].Kind)
	assert.Equal(t, TokenIdentifier, toks[2].Kind)
}

func TestSystemVerilogKeywordSet(t *testing.T) {
	// `interface` is reserved only with the SV set active
	sv := scanVerilog(t, "interface bus;", types.LangSystemVerilog)
	assert.Equal(t, TokenKeyword, sv[0].Kind)

	v := scanVerilog(t, "interface bus;", types.LangVerilog)
	assert.Equal(t, TokenIdentifier, v[0].Kind)
}

func TestVerilogComments(t *testing.T) {
	toks := scanVerilog(t, "a // no b\nc /* no d */ e", types.LangVerilog)
	assert.Equal(t, []string{"a", "c", "e"}, textsOf(toks))
}

func TestVerilogEscapedIdentifier(t *testing.T) {
	toks := scanVerilog(t, `\bus+1 q;`, types.LangVerilog)
	assert.Equal(t, `\bus+1`, toks[0].Text)
	assert.Equal(t, TokenIdentifier, toks[0].Kind)
	assert.Equal(t, "q", toks[1].Text)
}

func TestVerilogDirectives(t *testing.T) {
	src := "`include \"defs.vh\"\n`define WIDTH 8 + top\nmodule m; endmodule"
	toks := scanVerilog(t, src, types.LangVerilog)
	assert.Equal(t, TokenDirective, toks[0].Kind)
	assert.Equal(t, "`include", toks[0].Text)
	assert.Equal(t, `"defs.vh"`, toks[1].Text)

	// the `define body is folded into the directive token, so `top` never
	// appears as an identifier
	assert.Equal(t, TokenDirective, toks[2].Kind)
	assert.Contains(t, toks[2].Text, "WIDTH 8 + top")
	assert.Equal(t, "module", toks[3].Text)
}

func TestVerilogNumbers(t *testing.T) {
	toks := scanVerilog(t, "a = 4'b10_10; b = 'hDEAD; c = 12; d = 3.5e2;", types.LangVerilog)
	var literals []string
	for _, tok := range toks {
		if tok.Kind == TokenLiteral {
			literals = append(literals, tok.Text)
		}
	}
	assert.Equal(t, []string{"4'b10_10", "'hDEAD", "12", "3.5e2"}, literals)
}

func TestVerilogAttributesSkipped(t *testing.T) {
	toks := scanVerilog(t, "(* keep = 1 *) wire w;", types.LangVerilog)
	assert.Equal(t, []string{"wire", "w", ";"}, textsOf(toks))
}

func TestVerilogSpansMatchSource(t *testing.T) {
	src := "module or_gate (input a, output x); endmodule"
	toks := scanVerilog(t, src, types.LangVerilog)
	for _, tok := range toks {
		assert.Equal(t, tok.Text, src[tok.Span.Start:tok.Span.End], "span of %q", tok.Text)
	}
}

func TestVerilogUnterminatedBlockComment(t *testing.T) {
	lx := NewVerilogLexer("bad.v", []byte("/* never closes"), types.LangVerilog)
	_, err := lx.Next()
	assert.Error(t, err)
}
