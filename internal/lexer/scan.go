package lexer

import "github.com/ujichase/orbit/internal/types"

// Stream is the common shape of both scanners.
type Stream interface {
	Next() (Token, error)
}

// NewStream picks the scanner for a file's language.
func NewStream(file string, src []byte, lang types.Lang) Stream {
	if lang == types.LangVhdl {
		return NewVhdlLexer(file, src)
	}
	return NewVerilogLexer(file, src, lang)
}

// ScanAll drains a file's token stream. Used by passes that need random
// access to spans, like the DST rewriter.
func ScanAll(file string, src []byte, lang types.Lang) ([]Token, error) {
	lx := NewStream(file, src, lang)
	var toks []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		if tok.IsEOF() {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}
