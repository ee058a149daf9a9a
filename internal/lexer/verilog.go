package lexer

import (
	"fmt"

	oerrors "github.com/ujichase/orbit/internal/errors"
	"github.com/ujichase/orbit/internal/types"
)

// VerilogLexer scans Verilog or SystemVerilog source. The SystemVerilog
// keyword set is active for .sv/.svh files; both dialects share the same
// literal and directive grammar here.
type VerilogLexer struct {
	file string
	sv   bool
	t    tracker
	done bool
}

// NewVerilogLexer builds a scanner over src, choosing the keyword set from
// lang.
func NewVerilogLexer(file string, src []byte, lang types.Lang) *VerilogLexer {
	return &VerilogLexer{file: file, sv: lang == types.LangSystemVerilog, t: newTracker(src)}
}

// Next returns the next significant token. Compiler directives are emitted
// as TokenDirective; `define bodies are consumed opaquely so macro text
// never surfaces as identifiers.
func (l *VerilogLexer) Next() (Token, error) {
	if l.done {
		return l.eofToken(), nil
	}
	if err := l.skipTrivia(); err != nil {
		l.done = true
		return Token{}, err
	}
	if l.t.eof() {
		l.done = true
		return l.eofToken(), nil
	}

	pos := l.t.pos()
	b := l.t.peek()
	switch {
	case isAlphaByte(b) || b == '_':
		return l.scanWord(pos), nil
	case b == '\\':
		return l.scanEscapedIdentifier(pos)
	case b == '`':
		return l.scanDirective(pos)
	case b == '$':
		return l.scanSystemName(pos), nil
	case (b >= '0' && b <= '9') || b == '\'':
		return l.scanNumber(pos), nil
	case b == '"':
		return l.scanString(pos)
	default:
		return l.scanDelimiter(pos), nil
	}
}

func (l *VerilogLexer) eofToken() Token {
	return Token{Kind: TokenEOF, Pos: l.t.pos(), Span: Span{Start: l.t.offset, End: l.t.offset}}
}

func (l *VerilogLexer) errorf(pos Position, format string, args ...interface{}) error {
	return oerrors.NewLexError(l.file, pos.Line, pos.Column, fmt.Errorf(format, args...))
}

func (l *VerilogLexer) skipTrivia() error {
	for !l.t.eof() {
		b := l.t.peek()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f':
			l.t.advance()
		case b == '/' && l.t.peekAt(1) == '/':
			for !l.t.eof() && l.t.peek() != '\n' {
				l.t.advance()
			}
		case b == '/' && l.t.peekAt(1) == '*':
			pos := l.t.pos()
			l.t.advance()
			l.t.advance()
			for {
				if l.t.eof() {
					return l.errorf(pos, "unterminated block comment")
				}
				if l.t.peek() == '*' && l.t.peekAt(1) == '/' {
					l.t.advance()
					l.t.advance()
					break
				}
				l.t.advance()
			}
		case b == '(' && l.t.peekAt(1) == '*' && l.t.peekAt(2) != ')':
			// attribute instance (* ... *)
			pos := l.t.pos()
			l.t.advance()
			l.t.advance()
			for {
				if l.t.eof() {
					return l.errorf(pos, "unterminated attribute instance")
				}
				if l.t.peek() == '*' && l.t.peekAt(1) == ')' {
					l.t.advance()
					l.t.advance()
					break
				}
				l.t.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *VerilogLexer) scanWord(pos Position) Token {
	start := l.t.offset
	for !l.t.eof() {
		b := l.t.peek()
		if !isAlphaByte(b) && !isDigitByte(b) && b != '_' && b != '$' {
			break
		}
		l.t.advance()
	}
	span := Span{Start: start, End: l.t.offset}
	text := l.t.text(span)
	kind := TokenIdentifier
	if _, ok := verilogKeywords[text]; ok {
		kind = TokenKeyword
	} else if l.sv {
		if _, ok := systemVerilogKeywords[text]; ok {
			kind = TokenKeyword
		}
	}
	return Token{Kind: kind, Text: text, Pos: pos, Span: span}
}

// scanEscapedIdentifier scans \name, terminated by whitespace. The token
// text keeps the backslash but not the terminating whitespace; the
// whitespace survives in the source for span-based rewriting.
func (l *VerilogLexer) scanEscapedIdentifier(pos Position) (Token, error) {
	start := l.t.offset
	l.t.advance() // backslash
	for !l.t.eof() {
		b := l.t.peek()
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			break
		}
		l.t.advance()
	}
	span := Span{Start: start, End: l.t.offset}
	if span.Len() == 1 {
		l.done = true
		return Token{}, l.errorf(pos, "empty escaped identifier")
	}
	return Token{Kind: TokenIdentifier, Text: l.t.text(span), Pos: pos, Span: span}, nil
}

// scanDirective scans `name. For `define the whole macro body (with line
// continuations) is consumed into the token so its text is never mistaken
// for unit references.
func (l *VerilogLexer) scanDirective(pos Position) (Token, error) {
	start := l.t.offset
	l.t.advance() // backtick
	for !l.t.eof() {
		b := l.t.peek()
		if !isAlphaByte(b) && !isDigitByte(b) && b != '_' {
			break
		}
		l.t.advance()
	}
	name := l.t.text(Span{Start: start, End: l.t.offset})
	if name == "`" {
		l.done = true
		return Token{}, l.errorf(pos, "dangling backtick")
	}
	if name == "`define" {
		for !l.t.eof() {
			b := l.t.peek()
			if b == '\n' {
				break
			}
			if b == '\\' && l.t.peekAt(1) == '\n' {
				l.t.advance()
				l.t.advance()
				continue
			}
			l.t.advance()
		}
	}
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenDirective, Text: l.t.text(span), Pos: pos, Span: span}, nil
}

// scanSystemName scans $display-style system identifiers.
func (l *VerilogLexer) scanSystemName(pos Position) Token {
	start := l.t.offset
	l.t.advance() // dollar
	for !l.t.eof() {
		b := l.t.peek()
		if !isAlphaByte(b) && !isDigitByte(b) && b != '_' && b != '$' {
			break
		}
		l.t.advance()
	}
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenLiteral, Text: l.t.text(span), Pos: pos, Span: span}
}

// scanNumber scans sized and unsized literals: 123, 1_000, 4'b1010,
// 'hDEAD_beef, 3.14, 1e6. Content is opaque.
func (l *VerilogLexer) scanNumber(pos Position) Token {
	start := l.t.offset
	if l.t.peek() == '\'' {
		l.scanBaseFormat()
	} else {
		for !l.t.eof() {
			b := l.t.peek()
			if isDigitByte(b) || b == '_' {
				l.t.advance()
				continue
			}
			if b == '.' && isDigitByte(l.t.peekAt(1)) {
				l.t.advance()
				continue
			}
			if b == 'e' || b == 'E' {
				l.t.advance()
				if l.t.peek() == '+' || l.t.peek() == '-' {
					l.t.advance()
				}
				continue
			}
			break
		}
		if l.t.peek() == '\'' && l.t.peekAt(1) != '\'' {
			l.scanBaseFormat()
		}
	}
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenLiteral, Text: l.t.text(span), Pos: pos, Span: span}
}

// scanBaseFormat consumes 'b1010 / 'hFF / 'sd5 style tails.
func (l *VerilogLexer) scanBaseFormat() {
	l.t.advance() // tick
	if b := l.t.peek(); b == 's' || b == 'S' {
		l.t.advance()
	}
	if b := l.t.peek(); isAlphaByte(b) {
		l.t.advance() // base character
	}
	for !l.t.eof() {
		b := l.t.peek()
		if isDigitByte(b) || isAlphaByte(b) || b == '_' || b == '?' {
			l.t.advance()
			continue
		}
		break
	}
}

func (l *VerilogLexer) scanString(pos Position) (Token, error) {
	start := l.t.offset
	l.t.advance() // opening quote
	for {
		if l.t.eof() {
			l.done = true
			return Token{}, l.errorf(pos, "unterminated string literal")
		}
		b := l.t.advance()
		if b == '\\' && !l.t.eof() {
			l.t.advance()
			continue
		}
		if b == '"' {
			break
		}
	}
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenLiteral, Text: l.t.text(span), Pos: pos, Span: span}, nil
}

// verilogCompound lists multi-character operators, longest first.
var verilogCompound = []string{
	"<<<=", ">>>=", "===", "!==", "==?", "!=?", "<<<", ">>>", "<->",
	"**", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "->", "=>", "*>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "++", "--", "::", ".*", "'{",
}

func (l *VerilogLexer) scanDelimiter(pos Position) Token {
	start := l.t.offset
	rest := l.t.src[l.t.offset:]
	for _, op := range verilogCompound {
		if len(rest) >= len(op) && string(rest[:len(op)]) == op {
			for range op {
				l.t.advance()
			}
			span := Span{Start: start, End: l.t.offset}
			return Token{Kind: TokenDelimiter, Text: op, Pos: pos, Span: span}
		}
	}
	l.t.advance()
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenDelimiter, Text: l.t.text(span), Pos: pos, Span: span}
}
