package lexer

import (
	"fmt"
	"strings"

	oerrors "github.com/ujichase/orbit/internal/errors"
)

// VhdlLexer scans VHDL source. Comments and whitespace are consumed
// silently; everything else is emitted with its original byte span.
type VhdlLexer struct {
	file string
	t    tracker
	done bool
}

// NewVhdlLexer builds a scanner over src. file is used in diagnostics only.
func NewVhdlLexer(file string, src []byte) *VhdlLexer {
	return &VhdlLexer{file: file, t: newTracker(src)}
}

// Next returns the next significant token. After an error or EOF the
// stream is exhausted.
func (l *VhdlLexer) Next() (Token, error) {
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
	case isAlphaByte(b):
		return l.scanWord(pos), nil
	case b == '\\':
		return l.scanExtendedIdentifier(pos)
	case b >= '0' && b <= '9':
		return l.scanNumber(pos), nil
	case b == '"':
		return l.scanString(pos)
	case b == '\'':
		return l.scanTick(pos), nil
	default:
		return l.scanDelimiter(pos), nil
	}
}

func (l *VhdlLexer) eofToken() Token {
	return Token{Kind: TokenEOF, Pos: l.t.pos(), Span: Span{Start: l.t.offset, End: l.t.offset}}
}

func (l *VhdlLexer) errorf(pos Position, format string, args ...interface{}) error {
	return oerrors.NewLexError(l.file, pos.Line, pos.Column, fmt.Errorf(format, args...))
}

func (l *VhdlLexer) skipTrivia() error {
	for !l.t.eof() {
		b := l.t.peek()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == 0xa0:
			l.t.advance()
		case b == '-' && l.t.peekAt(1) == '-':
			for !l.t.eof() && l.t.peek() != '\n' {
				l.t.advance()
			}
		case b == '/' && l.t.peekAt(1) == '*':
			// VHDL-2008 delimited comment
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
		default:
			return nil
		}
	}
	return nil
}

// scanWord scans a basic identifier or keyword, letters, digits, and
// underscores.
func (l *VhdlLexer) scanWord(pos Position) Token {
	start := l.t.offset
	for !l.t.eof() {
		b := l.t.peek()
		if !isAlphaByte(b) && !isDigitByte(b) && b != '_' {
			break
		}
		l.t.advance()
	}
	span := Span{Start: start, End: l.t.offset}
	text := l.t.text(span)
	kind := TokenIdentifier
	if _, ok := vhdlKeywords[strings.ToLower(text)]; ok {
		kind = TokenKeyword
	}
	return Token{Kind: kind, Text: text, Pos: pos, Span: span}
}

// scanExtendedIdentifier scans \...\ retaining the backslashes and any
// interior spacing. A doubled backslash inside stands for a literal one.
func (l *VhdlLexer) scanExtendedIdentifier(pos Position) (Token, error) {
	start := l.t.offset
	l.t.advance() // leading backslash
	for {
		if l.t.eof() || l.t.peek() == '\n' {
			l.done = true
			return Token{}, l.errorf(pos, "unterminated extended identifier")
		}
		if l.t.peek() == '\\' {
			l.t.advance()
			if l.t.peek() == '\\' {
				l.t.advance() // escaped backslash, keep scanning
				continue
			}
			break
		}
		l.t.advance()
	}
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenIdentifier, Text: l.t.text(span), Pos: pos, Span: span}, nil
}

// scanNumber scans abstract and based literals (123, 1_000, 1.5e3,
// 16#ff#). Content is opaque; only the extent matters.
func (l *VhdlLexer) scanNumber(pos Position) Token {
	start := l.t.offset
	based := false
	for !l.t.eof() {
		b := l.t.peek()
		switch {
		case isDigitByte(b) || b == '_' || b == '.':
			l.t.advance()
		case b == '#':
			// toggling in and out of the based-literal body
			based = !based
			l.t.advance()
		case based && (isAlphaByte(b)):
			l.t.advance()
		case (b == 'e' || b == 'E') && !based:
			l.t.advance()
			if l.t.peek() == '+' || l.t.peek() == '-' {
				l.t.advance()
			}
		default:
			goto out
		}
	}
out:
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenLiteral, Text: l.t.text(span), Pos: pos, Span: span}
}

// scanString scans a string literal, with "" as the embedded quote.
func (l *VhdlLexer) scanString(pos Position) (Token, error) {
	start := l.t.offset
	l.t.advance() // opening quote
	for {
		if l.t.eof() {
			l.done = true
			return Token{}, l.errorf(pos, "unterminated string literal")
		}
		b := l.t.advance()
		if b == '"' {
			if l.t.peek() == '"' {
				l.t.advance()
				continue
			}
			break
		}
	}
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenLiteral, Text: l.t.text(span), Pos: pos, Span: span}, nil
}

// scanTick distinguishes a character literal 'x' from the attribute/qualfied
// tick, which is a bare delimiter.
func (l *VhdlLexer) scanTick(pos Position) Token {
	if l.t.peekAt(2) == '\'' && l.t.peekAt(1) != 0 {
		start := l.t.offset
		l.t.advance()
		l.t.advance()
		l.t.advance()
		span := Span{Start: start, End: l.t.offset}
		return Token{Kind: TokenLiteral, Text: l.t.text(span), Pos: pos, Span: span}
	}
	start := l.t.offset
	l.t.advance()
	span := Span{Start: start, End: l.t.offset}
	return Token{Kind: TokenDelimiter, Text: "'", Pos: pos, Span: span}
}

// vhdlCompound lists multi-character delimiters, longest first.
var vhdlCompound = []string{
	"?/=", "?<=", "?>=", "**", ":=", "/=", ">=", "<=", "<>", "=>", "<<", ">>", "??", "?=", "?<", "?>",
}

func (l *VhdlLexer) scanDelimiter(pos Position) Token {
	start := l.t.offset
	rest := l.t.src[l.t.offset:]
	for _, op := range vhdlCompound {
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

func isAlphaByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }
