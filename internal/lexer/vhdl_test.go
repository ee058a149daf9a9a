package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanVhdl(t *testing.T, src string) []Token {
	t.Helper()
	lx := NewVhdlLexer("test.vhd", []byte(src))
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

func kindsOf(toks []Token) []TokenKind {
	kinds := make([]TokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func textsOf(toks []Token) []string {
	texts := make([]string, len(toks))
	for i, tok := range toks {
		texts[i] = tok.Text
	}
	return texts
}

func TestVhdlBasicTokens(t *testing.T) {
	toks := scanVhdl(t, "entity Adder is\nend entity;")
	assert.Equal(t, []string{"entity", "Adder", "is", "end", "entity", ";"}, textsOf(toks))
	assert.Equal(t, []TokenKind{
		TokenKeyword, TokenIdentifier, TokenKeyword,
		TokenKeyword, TokenKeyword, TokenDelimiter,
	}, kindsOf(toks))
}

func TestVhdlKeywordsAreCaseInsensitive(t *testing.T) {
	toks := scanVhdl(t, "ENTITY Entity eNtItY")
	for _, tok := range toks {
		assert.Equal(t, TokenKeyword, tok.Kind, "token %q", tok.Text)
	}
}

func TestVhdlCommentsAreSkipped(t *testing.T) {
	toks := scanVhdl(t, "a -- line comment ; entity\nb /* block ; */ c")
	assert.Equal(t, []string{"a", "b", "c"}, textsOf(toks))
}

func TestVhdlExtendedIdentifier(t *testing.T) {
	toks := scanVhdl(t, `signal \foo bar\ : bit;`)
	require.Len(t, toks, 5)
	assert.Equal(t, `\foo bar\`, toks[1].Text)
	assert.Equal(t, TokenIdentifier, toks[1].Kind)

	lx := NewVhdlLexer("bad.vhd", []byte("\\unterminated\n"))
	_, err := lx.Next()
	assert.Error(t, err)
}

func TestVhdlLiterals(t *testing.T) {
	toks := scanVhdl(t, `x := 16#FF#; y := "10""1"; z := '1'; w := 1_000.5e3;`)
	var literals []string
	for _, tok := range toks {
		if tok.Kind == TokenLiteral {
			literals = append(literals, tok.Text)
		}
	}
	assert.Equal(t, []string{"16#FF#", `"10""1"`, "'1'", "1_000.5e3"}, literals)
}

func TestVhdlTickIsAttributeDelimiter(t *testing.T) {
	toks := scanVhdl(t, "clk'event")
	assert.Equal(t, []string{"clk", "'", "event"}, textsOf(toks))
}

func TestVhdlCompoundDelimiters(t *testing.T) {
	toks := scanVhdl(t, "a <= b; c := d; e => f; g /= h;")
	var delims []string
	for _, tok := range toks {
		if tok.Kind == TokenDelimiter && tok.Text != ";" {
			delims = append(delims, tok.Text)
		}
	}
	assert.Equal(t, []string{"<=", ":=", "=>", "/="}, delims)
}

func TestVhdlSpansMatchSource(t *testing.T) {
	src := "entity Adder is end;"
	toks := scanVhdl(t, src)
	for _, tok := range toks {
		assert.Equal(t, tok.Text, src[tok.Span.Start:tok.Span.End], "span of %q", tok.Text)
	}
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 1, toks[0].Pos.Column)
	assert.Equal(t, 8, toks[1].Pos.Column)
}

func TestVhdlUnterminatedString(t *testing.T) {
	lx := NewVhdlLexer("bad.vhd", []byte(`x := "oops`))
	var err error
	for err == nil {
		var tok Token
		tok, err = lx.Next()
		if err == nil && tok.IsEOF() {
			t.Fatal("expected a lex error before EOF")
		}
	}
}
