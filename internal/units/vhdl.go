package units

import (
	"strings"

	"github.com/ujichase/orbit/internal/lexer"
	"github.com/ujichase/orbit/internal/types"
)

// extractVhdl walks a VHDL token stream and emits its design units.
//
// Unit bodies are not parsed structurally: a unit extends to its own
// `end [keyword] [identifier];`, or, when that is missing, until the next
// top-level unit declaration (or EOF). Keywords that could be mistaken for
// a declaration (`end entity;`, `label : entity work.x`) are consumed by
// the patterns below before the top-level check sees them.
func extractVhdl(file string, src []byte) ([]*Unit, error) {
	lx := lexer.NewVhdlLexer(file, src)
	var toks []lexer.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		if tok.IsEOF() {
			break
		}
		toks = append(toks, tok)
	}

	e := &vhdlExtractor{file: file, toks: toks}
	e.run()
	return e.units, nil
}

type vhdlExtractor struct {
	file  string
	toks  []lexer.Token
	i     int
	units []*Unit
	// pending holds context-clause references (library/use/context lines)
	// that attach to the next unit declared.
	pending []Ref
}

func (e *vhdlExtractor) eof() bool { return e.i >= len(e.toks) }

func (e *vhdlExtractor) peek() lexer.Token {
	if e.eof() {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return e.toks[e.i]
}

func (e *vhdlExtractor) peekAt(n int) lexer.Token {
	if e.i+n >= len(e.toks) {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return e.toks[e.i+n]
}

func (e *vhdlExtractor) next() lexer.Token {
	tok := e.peek()
	e.i++
	return tok
}

// skipToSemicolon consumes through the next ';' balancing parentheses.
func (e *vhdlExtractor) skipToSemicolon() {
	depth := 0
	for !e.eof() {
		tok := e.next()
		switch {
		case tok.IsDelimiter("("):
			depth++
		case tok.IsDelimiter(")"):
			depth--
		case tok.IsDelimiter(";") && depth <= 0:
			return
		}
	}
}

func (e *vhdlExtractor) run() {
	for !e.eof() {
		tok := e.peek()
		if tok.Kind != lexer.TokenKeyword {
			e.i++
			continue
		}
		switch strings.ToLower(tok.Text) {
		case "library":
			e.skipToSemicolon()
		case "use":
			e.i++
			if ref, ok := e.parseUseClause(); ok {
				e.pending = append(e.pending, ref)
			}
		case "context":
			e.parseContext()
		case "entity":
			e.parseEntity()
		case "architecture":
			e.parseArchitecture()
		case "package":
			e.parsePackage()
		case "configuration":
			e.parseConfiguration()
		default:
			e.i++
		}
	}
}

// parseUseClause handles `use lib.pkg[.all];` after the `use` keyword was
// consumed. The reference is (lib, pkg).
func (e *vhdlExtractor) parseUseClause() (Ref, bool) {
	lib := e.peek()
	if lib.Kind != lexer.TokenIdentifier {
		e.skipToSemicolon()
		return Ref{}, false
	}
	e.i++
	if !e.peek().IsDelimiter(".") {
		e.skipToSemicolon()
		return Ref{}, false
	}
	e.i++
	pkg := e.peek()
	if pkg.Kind != lexer.TokenIdentifier {
		e.skipToSemicolon()
		return Ref{}, false
	}
	e.i++
	e.skipToSemicolon()
	return Ref{Library: lib.Text, Name: types.VhdlIdentifier(pkg.Text)}, true
}

// parseContext handles both context declarations (`context ident is`) and
// context references (`context lib.ident;`).
func (e *vhdlExtractor) parseContext() {
	start := e.next() // context keyword
	first := e.peek()
	if first.Kind != lexer.TokenIdentifier {
		e.skipToSemicolon()
		return
	}
	if e.peekAt(1).IsDelimiter(".") {
		// reference form
		e.i += 2
		name := e.peek()
		if name.Kind == lexer.TokenIdentifier {
			e.i++
			e.pending = append(e.pending, Ref{Library: first.Text, Name: types.VhdlIdentifier(name.Text)})
		}
		e.skipToSemicolon()
		return
	}
	e.i++
	u := e.newUnit(KindContext, first, start.Span.Start)
	e.scanBody(u)
}

func (e *vhdlExtractor) parseEntity() {
	start := e.next() // entity keyword
	name := e.peek()
	if name.Kind != lexer.TokenIdentifier {
		return
	}
	e.i++
	u := e.newUnit(KindEntity, name, start.Span.Start)
	if e.peek().IsKeyword("is") {
		e.i++
	}
	e.parseEntityHeader(u)
	e.scanBody(u)
}

func (e *vhdlExtractor) parseArchitecture() {
	start := e.next() // architecture keyword
	name := e.peek()
	if name.Kind != lexer.TokenIdentifier {
		return
	}
	e.i++
	u := e.newUnit(KindArchitecture, name, start.Span.Start)
	if e.peek().IsKeyword("of") {
		e.i++
		if ent := e.peek(); ent.Kind == lexer.TokenIdentifier {
			e.i++
			u.EntityName = types.VhdlIdentifier(ent.Text)
		}
	}
	e.scanBody(u)
}

func (e *vhdlExtractor) parsePackage() {
	start := e.next() // package keyword
	kind := KindPackage
	if e.peek().IsKeyword("body") {
		e.i++
		kind = KindPackageBody
	}
	name := e.peek()
	if name.Kind != lexer.TokenIdentifier {
		return
	}
	e.i++
	u := e.newUnit(kind, name, start.Span.Start)
	if kind == KindPackageBody {
		// the body belongs to its package
		u.EntityName = types.VhdlIdentifier(name.Text)
	}
	e.scanBody(u)
}

func (e *vhdlExtractor) parseConfiguration() {
	start := e.next() // configuration keyword
	name := e.peek()
	if name.Kind != lexer.TokenIdentifier {
		return
	}
	e.i++
	u := e.newUnit(KindConfiguration, name, start.Span.Start)
	if e.peek().IsKeyword("of") {
		e.i++
		if ent := e.peek(); ent.Kind == lexer.TokenIdentifier {
			e.i++
			u.EntityName = types.VhdlIdentifier(ent.Text)
			u.AddRef(Ref{Name: u.EntityName})
		}
	}
	e.scanBody(u)
}

func (e *vhdlExtractor) newUnit(kind Kind, name lexer.Token, start int) *Unit {
	u := &Unit{
		Identifier: types.VhdlIdentifier(name.Text),
		Kind:       kind,
		Lang:       types.LangVhdl,
		File:       e.file,
		Span:       lexer.Span{Start: start},
		NameSpan:   name.Span,
	}
	for _, ref := range e.pending {
		u.AddRef(ref)
	}
	e.pending = nil
	e.units = append(e.units, u)
	return u
}

// scanBody walks a unit's region collecting references until the unit's
// own `end [keyword] [identifier];`. Inner ends (processes, generates,
// loops) carry a non-matching keyword and are consumed as body text. The
// unit's end span is patched when the region closes.
func (e *vhdlExtractor) scanBody(u *Unit) {
	for !e.eof() {
		tok := e.peek()
		switch {
		case tok.IsKeyword("end"):
			if e.closesUnit(u) {
				e.i++
				end := tok.Span.End
				for !e.eof() {
					closing := e.next()
					end = closing.Span.End
					if closing.IsDelimiter(";") {
						break
					}
				}
				u.Span.End = end
				return
			}
			e.skipToSemicolon()
		case tok.IsKeyword("use"):
			e.i++
			if ref, ok := e.parseUseClause(); ok {
				u.AddRef(ref)
			}
		case tok.IsDelimiter(":"):
			e.i++
			e.parseInstantiation(u)
		case tok.Kind == lexer.TokenKeyword && isVhdlUnitStart(tok.Text):
			// missing `end`; recover at the next declaration
			u.Span.End = tok.Span.Start
			return
		default:
			e.i++
		}
	}
	if n := len(e.toks); n > 0 {
		u.Span.End = e.toks[n-1].Span.End
	}
}

// closesUnit inspects the token after `end`: the unit's kind keyword, the
// unit's own identifier, or a bare semicolon all close the unit.
func (e *vhdlExtractor) closesUnit(u *Unit) bool {
	after := e.peekAt(1)
	switch {
	case after.IsDelimiter(";"):
		return true
	case after.Kind == lexer.TokenKeyword:
		return strings.EqualFold(after.Text, vhdlKindKeyword(u.Kind))
	case after.Kind == lexer.TokenIdentifier:
		return u.Identifier.Equal(types.VhdlIdentifier(after.Text))
	default:
		return false
	}
}

func vhdlKindKeyword(kind Kind) string {
	switch kind {
	case KindEntity:
		return "entity"
	case KindArchitecture:
		return "architecture"
	case KindPackage, KindPackageBody:
		return "package"
	case KindConfiguration:
		return "configuration"
	case KindContext:
		return "context"
	default:
		return ""
	}
}

// isVhdlUnitStart lists the keywords that begin a new top-level design
// unit when seen in statement position.
func isVhdlUnitStart(text string) bool {
	switch strings.ToLower(text) {
	case "entity", "architecture", "package", "configuration", "context":
		return true
	default:
		return false
	}
}

// parseInstantiation handles the shapes following a label's colon:
//
//	label : entity <lib>.<name> [(arch)]
//	label : component <name>
//	label : configuration <lib>.<name>
//	label : <name> port map (...)        -- plain component form
//
// Everything else after a colon (signal declarations, process labels) is
// left alone.
func (e *vhdlExtractor) parseInstantiation(u *Unit) {
	tok := e.peek()
	switch {
	case tok.IsKeyword("entity"), tok.IsKeyword("configuration"):
		e.i++
		e.parseQualifiedRef(u)
	case tok.IsKeyword("component"):
		e.i++
		if name := e.peek(); name.Kind == lexer.TokenIdentifier {
			e.i++
			u.AddRef(Ref{Name: types.VhdlIdentifier(name.Text)})
		}
	case tok.Kind == lexer.TokenIdentifier:
		// plain form requires a following port/generic map to avoid
		// misreading declarations
		if e.peekAt(1).IsKeyword("port") || e.peekAt(1).IsKeyword("generic") {
			e.i++
			u.AddRef(Ref{Name: types.VhdlIdentifier(tok.Text)})
		}
	}
}

// parseQualifiedRef reads `<lib>.<name>` or bare `<name>` after an
// entity/configuration instantiation keyword.
func (e *vhdlExtractor) parseQualifiedRef(u *Unit) {
	first := e.peek()
	if first.Kind != lexer.TokenIdentifier {
		return
	}
	e.i++
	if e.peek().IsDelimiter(".") {
		e.i++
		name := e.peek()
		if name.Kind == lexer.TokenIdentifier {
			e.i++
			u.AddRef(Ref{Library: first.Text, Name: types.VhdlIdentifier(name.Text)})
		}
		return
	}
	u.AddRef(Ref{Name: types.VhdlIdentifier(first.Text)})
}

// parseEntityHeader scans optional generic and port clauses of an entity
// declaration.
func (e *vhdlExtractor) parseEntityHeader(u *Unit) {
	for !e.eof() {
		tok := e.peek()
		switch {
		case tok.IsKeyword("generic"):
			e.i++
			u.Generics = e.parseInterfaceList()
		case tok.IsKeyword("port"):
			e.i++
			u.Ports = e.parseInterfaceList()
		default:
			return
		}
		if e.peek().IsDelimiter(";") {
			e.i++
		}
	}
}

// parseInterfaceList reads `( name, name : [mode] type [:= default]; ... )`.
func (e *vhdlExtractor) parseInterfaceList() []Signal {
	if !e.peek().IsDelimiter("(") {
		return nil
	}
	e.i++
	var signals []Signal
	var entry []lexer.Token
	depth := 1
	flush := func() {
		signals = append(signals, parseVhdlInterfaceEntry(entry)...)
		entry = entry[:0]
	}
	for !e.eof() {
		tok := e.next()
		switch {
		case tok.IsDelimiter("("):
			depth++
			entry = append(entry, tok)
		case tok.IsDelimiter(")"):
			depth--
			if depth == 0 {
				flush()
				return signals
			}
			entry = append(entry, tok)
		case tok.IsDelimiter(";") && depth == 1:
			flush()
		default:
			entry = append(entry, tok)
		}
	}
	return signals
}

// parseVhdlInterfaceEntry splits one `a, b : in std_logic := '0'` entry
// into per-name signals.
func parseVhdlInterfaceEntry(entry []lexer.Token) []Signal {
	colon := -1
	for i, tok := range entry {
		if tok.IsDelimiter(":") {
			colon = i
			break
		}
	}
	if colon < 0 {
		return nil
	}
	var names []string
	for _, tok := range entry[:colon] {
		if tok.Kind == lexer.TokenIdentifier {
			names = append(names, tok.Text)
		}
	}
	rest := entry[colon+1:]
	mode := ""
	if len(rest) > 0 && rest[0].Kind == lexer.TokenKeyword {
		switch strings.ToLower(rest[0].Text) {
		case "in", "out", "inout", "buffer", "linkage":
			mode = strings.ToLower(rest[0].Text)
			rest = rest[1:]
		}
	}
	if mode == "" {
		mode = "in"
	}
	typeText, defaultText := splitDefault(rest)
	signals := make([]Signal, 0, len(names))
	for _, name := range names {
		signals = append(signals, Signal{Identifier: name, Mode: mode, Type: typeText, Default: defaultText})
	}
	return signals
}

// splitDefault separates the type tokens from a `:=` (or `=` for Verilog)
// default expression.
func splitDefault(toks []lexer.Token) (typeText, defaultText string) {
	split := len(toks)
	for i, tok := range toks {
		if tok.IsDelimiter(":=") || tok.IsDelimiter("=") {
			split = i
			break
		}
	}
	return joinTokens(toks[:split]), joinTokens(toks[min(split+1, len(toks)):])
}

func joinTokens(toks []lexer.Token) string {
	parts := make([]string, 0, len(toks))
	for _, tok := range toks {
		parts = append(parts, tok.Text)
	}
	text := strings.Join(parts, " ")
	// tighten common punctuation so types read naturally
	for _, pair := range [][2]string{{" ( ", "("}, {"( ", "("}, {" )", ")"}, {" . ", "."}, {" - ", "-"}, {" ' ", "'"}} {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}
	return text
}
