package units

import (
	"strings"

	"github.com/ujichase/orbit/internal/lexer"
	"github.com/ujichase/orbit/internal/types"
)

// verilogUnitKinds maps an opening keyword to its kind and closing
// keyword.
var verilogUnitKinds = map[string]struct {
	kind  Kind
	close string
}{
	"module":      {KindModule, "endmodule"},
	"macromodule": {KindModule, "endmodule"},
	"program":     {KindProgram, "endprogram"},
	"interface":   {KindInterface, "endinterface"},
	"checker":     {KindChecker, "endchecker"},
	"package":     {KindPackage, "endpackage"},
	"primitive":   {KindPrimitive, "endprimitive"},
}

// extractVerilog walks a Verilog/SystemVerilog token stream and emits its
// design units.
func extractVerilog(file string, src []byte, lang types.Lang) ([]*Unit, error) {
	lx := lexer.NewVerilogLexer(file, src, lang)
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

	e := &verilogExtractor{file: file, lang: lang, toks: toks}
	e.run()
	return e.units, nil
}

type verilogExtractor struct {
	file     string
	lang     types.Lang
	toks     []lexer.Token
	i        int
	units    []*Unit
	includes []string
}

func (e *verilogExtractor) eof() bool { return e.i >= len(e.toks) }

func (e *verilogExtractor) peek() lexer.Token {
	if e.eof() {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return e.toks[e.i]
}

func (e *verilogExtractor) peekAt(n int) lexer.Token {
	if e.i+n >= len(e.toks) {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return e.toks[e.i+n]
}

func (e *verilogExtractor) next() lexer.Token {
	tok := e.peek()
	e.i++
	return tok
}

func (e *verilogExtractor) run() {
	for !e.eof() {
		tok := e.peek()
		switch {
		case tok.Kind == lexer.TokenDirective:
			e.handleDirective(nil)
		case tok.Kind == lexer.TokenKeyword:
			if open, ok := verilogUnitKinds[tok.Text]; ok {
				e.parseUnit(open.kind, tok, open.close)
				continue
			}
			e.i++
		default:
			e.i++
		}
	}
	// file-level includes attach to every unit in the file
	if len(e.includes) > 0 {
		for _, u := range e.units {
			u.IncludeFiles = append(u.IncludeFiles, e.includes...)
		}
	}
}

// handleDirective processes one compiler directive token; `include targets
// are recorded as file references on u (or held at file level when u is
// nil).
func (e *verilogExtractor) handleDirective(u *Unit) {
	tok := e.next()
	if tok.Text != "`include" {
		return
	}
	target := e.peek()
	if target.Kind == lexer.TokenLiteral && strings.HasPrefix(target.Text, `"`) {
		e.i++
		name := strings.Trim(target.Text, `"`)
		if u != nil {
			u.IncludeFiles = append(u.IncludeFiles, name)
		} else {
			e.includes = append(e.includes, name)
		}
	}
}

func (e *verilogExtractor) parseUnit(kind Kind, open lexer.Token, closeWord string) {
	e.i++ // opening keyword
	// lifetime qualifiers like `module automatic foo`
	for e.peek().Kind == lexer.TokenKeyword && (e.peek().Text == "static" || e.peek().Text == "automatic") {
		e.i++
	}
	name := e.peek()
	if name.Kind != lexer.TokenIdentifier {
		return
	}
	e.i++
	u := &Unit{
		Identifier: types.VerilogIdentifier(name.Text),
		Kind:       kind,
		Lang:       e.langOf(),
		File:       e.file,
		Span:       lexer.Span{Start: open.Span.Start},
		NameSpan:   name.Span,
	}
	e.units = append(e.units, u)

	e.parseHeader(u)
	e.scanBody(u, open.Text, closeWord)
}

func (e *verilogExtractor) langOf() types.Lang {
	if e.lang == types.LangSystemVerilog {
		return types.LangSystemVerilog
	}
	return types.LangVerilog
}

// parseHeader consumes everything up to the ';' ending the module header,
// extracting the parameter and port lists.
func (e *verilogExtractor) parseHeader(u *Unit) {
	for !e.eof() {
		tok := e.peek()
		switch {
		case tok.IsDelimiter("#") && e.peekAt(1).IsDelimiter("("):
			e.i += 2
			u.Generics = e.parseParameterList()
		case tok.IsDelimiter("("):
			e.i++
			u.Ports = e.parsePortList()
		case tok.IsKeyword("import"):
			e.parseImport(u)
		case tok.IsDelimiter(";"):
			e.i++
			return
		default:
			e.i++
		}
	}
}

// parseImport handles `import pkg::*;` / `import pkg::name;`.
func (e *verilogExtractor) parseImport(u *Unit) {
	e.i++ // import keyword
	pkg := e.peek()
	if pkg.Kind == lexer.TokenIdentifier && e.peekAt(1).IsDelimiter("::") {
		u.AddRef(Ref{Name: types.VerilogIdentifier(pkg.Text)})
	}
	e.skipToSemicolon()
}

func (e *verilogExtractor) skipToSemicolon() {
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

// scanBody collects references inside a unit until its closing keyword,
// tolerating nested units of the same kind.
func (e *verilogExtractor) scanBody(u *Unit, openWord, closeWord string) {
	depth := 1
	atStmtStart := true
	for !e.eof() {
		tok := e.peek()
		switch {
		case tok.Kind == lexer.TokenDirective:
			e.handleDirective(u)
			continue
		case tok.IsKeyword(openWord):
			depth++
			e.i++
		case tok.Kind == lexer.TokenKeyword && tok.Text == closeWord:
			depth--
			e.i++
			if depth == 0 {
				u.Span.End = tok.Span.End
				// optional end label `endmodule : foo`
				if e.peek().IsDelimiter(":") && e.peekAt(1).Kind == lexer.TokenIdentifier {
					u.Span.End = e.peekAt(1).Span.End
					e.i += 2
				}
				return
			}
		case tok.IsKeyword("import"):
			e.parseImport(u)
		case tok.IsKeyword("bind"):
			e.parseBind(u)
		case atStmtStart && tok.Kind == lexer.TokenIdentifier:
			if !e.parseInstantiation(u) {
				e.i++
			}
		default:
			e.i++
		}
		atStmtStart = e.i > 0 && isStmtBoundary(e.toks[e.i-1])
	}
	// unterminated unit: close at EOF
	if n := len(e.toks); n > 0 {
		u.Span.End = e.toks[n-1].Span.End
	}
}

func isStmtBoundary(tok lexer.Token) bool {
	if tok.Kind == lexer.TokenKeyword {
		return tok.Text == "begin" || tok.Text == "end" || tok.Text == "generate" || tok.Text == "else"
	}
	return tok.IsDelimiter(";")
}

// parseBind handles the trivial bind form:
//
//	bind <target> <module> <instance> ( ... ) ;
//
// Both the target and the bound module become references; any other shape
// after `bind` records the target only.
func (e *verilogExtractor) parseBind(u *Unit) {
	e.i++ // bind keyword
	target := e.peek()
	if target.Kind != lexer.TokenIdentifier {
		e.skipToSemicolon()
		return
	}
	e.i++
	u.AddRef(Ref{Name: types.VerilogIdentifier(target.Text)})
	what := e.peek()
	if what.Kind == lexer.TokenIdentifier && !lexer.IsGatePrimitive(what.Text) {
		u.AddRef(Ref{Name: types.VerilogIdentifier(what.Text)})
	}
	e.skipToSemicolon()
}

// parseInstantiation matches `<type> [#(...)] <instance> [range] ( ... )`
// at statement position. Returns false (cursor unmoved) when the shape
// does not match.
func (e *verilogExtractor) parseInstantiation(u *Unit) bool {
	save := e.i
	typeTok := e.next()
	if lexer.IsGatePrimitive(typeTok.Text) {
		e.i = save
		return false
	}
	// optional parameter override #( ... )
	if e.peek().IsDelimiter("#") && e.peekAt(1).IsDelimiter("(") {
		e.i += 2
		if !e.skipBalancedParens() {
			e.i = save
			return false
		}
	}
	inst := e.peek()
	if inst.Kind != lexer.TokenIdentifier {
		e.i = save
		return false
	}
	e.i++
	// optional instance array range [n:m]
	if e.peek().IsDelimiter("[") {
		for !e.eof() && !e.peek().IsDelimiter("]") {
			e.i++
		}
		if !e.eof() {
			e.i++
		}
	}
	if !e.peek().IsDelimiter("(") {
		e.i = save
		return false
	}
	e.i++
	if !e.skipBalancedParens() {
		e.i = save
		return false
	}
	end := e.peek()
	if !end.IsDelimiter(";") && !end.IsDelimiter(",") {
		e.i = save
		return false
	}
	u.AddRef(Ref{Name: types.VerilogIdentifier(typeTok.Text)})
	return true
}

// skipBalancedParens consumes up to and including the ')' matching an
// already-consumed '('.
func (e *verilogExtractor) skipBalancedParens() bool {
	depth := 1
	for !e.eof() {
		tok := e.next()
		switch {
		case tok.IsDelimiter("("):
			depth++
		case tok.IsDelimiter(")"):
			depth--
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// parseParameterList reads `#( parameter W = 8, ... )` after `#(` was
// consumed.
func (e *verilogExtractor) parseParameterList() []Signal {
	entries := e.splitGroup()
	var signals []Signal
	for _, entry := range entries {
		sig, ok := parseVerilogParameter(entry)
		if ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

// parsePortList reads an ANSI or non-ANSI port list after '(' was
// consumed.
func (e *verilogExtractor) parsePortList() []Signal {
	entries := e.splitGroup()
	var signals []Signal
	mode := ""
	for _, entry := range entries {
		sig, ok := parseVerilogPort(entry, &mode)
		if ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

// splitGroup collects the token runs between top-level commas up to the
// matching ')'.
func (e *verilogExtractor) splitGroup() [][]lexer.Token {
	var entries [][]lexer.Token
	var entry []lexer.Token
	depth := 1
	flush := func() {
		if len(entry) > 0 {
			entries = append(entries, entry)
			entry = nil
		}
	}
	for !e.eof() {
		tok := e.next()
		switch {
		case tok.IsDelimiter("(") || tok.IsDelimiter("["):
			depth++
			entry = append(entry, tok)
		case tok.IsDelimiter(")") || tok.IsDelimiter("]"):
			depth--
			if depth == 0 {
				flush()
				return entries
			}
			entry = append(entry, tok)
		case tok.IsDelimiter(",") && depth == 1:
			flush()
		default:
			entry = append(entry, tok)
		}
	}
	flush()
	return entries
}

// parseVerilogParameter reads `parameter [type] NAME = default`.
func parseVerilogParameter(entry []lexer.Token) (Signal, bool) {
	eq := len(entry)
	for i, tok := range entry {
		if tok.IsDelimiter("=") {
			eq = i
			break
		}
	}
	head := entry[:eq]
	name := ""
	var typeToks []lexer.Token
	for i := len(head) - 1; i >= 0; i-- {
		if head[i].Kind == lexer.TokenIdentifier && name == "" {
			name = head[i].Text
			typeToks = head[:i]
			break
		}
	}
	if name == "" {
		return Signal{}, false
	}
	typeText := joinTokens(filterParamKeywords(typeToks))
	defaultText := ""
	if eq < len(entry) {
		defaultText = joinTokens(entry[eq+1:])
	}
	return Signal{Identifier: name, Mode: "parameter", Type: typeText, Default: defaultText}, true
}

func filterParamKeywords(toks []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for _, tok := range toks {
		if tok.IsKeyword("parameter") || tok.IsKeyword("localparam") {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// parseVerilogPort reads one ANSI port entry. mode carries the previous
// entry's direction forward for `input a, b` runs split by the caller.
func parseVerilogPort(entry []lexer.Token, mode *string) (Signal, bool) {
	var typeToks []lexer.Token
	name := ""
	defaultText := ""
	rest := entry
	if len(rest) > 0 && rest[0].Kind == lexer.TokenKeyword {
		switch rest[0].Text {
		case "input", "output", "inout", "ref":
			*mode = rest[0].Text
			rest = rest[1:]
		}
	}
	eq := len(rest)
	for i, tok := range rest {
		if tok.IsDelimiter("=") {
			eq = i
			break
		}
	}
	if eq < len(rest) {
		defaultText = joinTokens(rest[eq+1:])
	}
	head := rest[:eq]
	for i := len(head) - 1; i >= 0; i-- {
		if head[i].Kind == lexer.TokenIdentifier {
			name = head[i].Text
			typeToks = head[:i]
			break
		}
	}
	if name == "" {
		return Signal{}, false
	}
	return Signal{Identifier: name, Mode: *mode, Type: joinTokens(typeToks), Default: defaultText}, true
}
