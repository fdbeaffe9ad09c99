package parser

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	gfn "github.com/panyam/goutils/fn"

	"github.com/hyiltiz/nushell/decl"
	"github.com/hyiltiz/nushell/engine"
)

// Parser consumes the declaration subset: module, use, def, alias, extern,
// export-env, let/mut and environment assignments. Everything it learns goes
// into the working set; command bodies are captured raw and left for later
// stages. Errors are recorded on the working set and never abort the parse.
type Parser struct {
	ws       *engine.WorkingSet
	resolver FileResolver
	lex      *Lexer
	fileID   decl.FileID
	src      []byte

	// locals is non-nil exactly while parsing a module file; use and
	// module statements bind there instead of the working set's frames.
	locals *moduleScope
	// inflight holds the module sources currently being parsed, shared
	// across sub-parsers, so import cycles are reported instead of
	// recursing forever.
	inflight map[string]bool

	peeked     *Token
	lastEnd    int
	pendingDoc string
}

// Parse registers src as a file under name and parses it. It always returns
// a block; on bad input the block is partial and the working set carries the
// diagnostics.
func Parse(ws *engine.WorkingSet, resolver FileResolver, name string, src []byte) *decl.Block {
	fid := ws.AddFile(name, src)
	p := &Parser{ws: ws, resolver: resolver, lex: NewLexer(src), fileID: fid, src: src,
		inflight: map[string]bool{}}
	return p.parseBlock(nil)
}

// --- Token plumbing ---

func (p *Parser) peek() Token {
	if p.peeked == nil {
		t := p.lex.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) advance() Token {
	tok := p.peek()
	p.peeked = nil
	p.lastEnd = tok.End
	return tok
}

// clearPeek forgets the lookahead token so the lexer can rescan raw text
// from its start offset.
func (p *Parser) clearPeek() {
	p.peeked = nil
}

func (p *Parser) expect(types ...int) (Token, bool) {
	tok := p.peek()
	for _, t := range types {
		if tok.Type == t {
			return tok, true
		}
	}
	names := gfn.Map(types, func(t int) string { return TokenString(t) })
	p.errorfAt(tok, "expected %s, found %s", strings.Join(names, " or "), TokenString(tok.Type))
	return tok, false
}

func (p *Parser) advanceIf(types ...int) (Token, bool) {
	tok, ok := p.expect(types...)
	if ok {
		p.advance()
	}
	return tok, ok
}

func (p *Parser) errorfAt(tok Token, format string, args ...any) {
	p.ws.AddParseError(&decl.ParseError{
		Msg:  fmt.Sprintf(format, args...),
		Span: decl.NewSpan(p.fileID, tok.Start, tok.End),
	})
}

func (p *Parser) errorWithHelp(tok Token, help, format string, args ...any) {
	p.ws.AddParseError(&decl.ParseError{
		Msg:  fmt.Sprintf(format, args...),
		Help: help,
		Span: decl.NewSpan(p.fileID, tok.Start, tok.End),
	})
}

// syncLine skips to the next newline so one bad statement does not poison
// the rest of the file.
func (p *Parser) syncLine() {
	for {
		tok := p.peek()
		if tok.Type == NEWLINE || tok.Type == EOF {
			return
		}
		p.advance()
	}
}

// --- Statements ---

// parseBlock parses statements until EOF. When m is non-nil the source is a
// module file: definitions become exports of m instead of scope bindings,
// imports bind for that file alone, and let/mut are rejected.
func (p *Parser) parseBlock(m *decl.Module) *decl.Block {
	b := decl.NewBlock(decl.NewSpan(p.fileID, 0, len(p.src)))
	for {
		tok := p.peek()
		switch tok.Type {
		case EOF:
			return b
		case NEWLINE:
			p.advance()
		case ENVVAR:
			p.pendingDoc = p.lex.TakeDoc()
			if m != nil {
				p.errorfAt(tok, "assignments in a module belong inside export-env")
				p.syncLine()
				continue
			}
			p.parseEnvAssign(b)
		case WORD:
			p.pendingDoc = p.lex.TakeDoc()
			switch tok.Text {
			case "module":
				p.parseModule(b, m, tok)
			case "use":
				p.parseUse(b, tok)
			case "export":
				p.parseExport(b, m, tok)
			case "export-env":
				p.parseExportEnv(b, m, tok)
			case "def":
				p.parseDef(b, m, false, tok)
			case "alias":
				p.parseAlias(b, m, false, tok)
			case "extern":
				p.parseExtern(b, m, false, tok)
			case "let", "mut":
				if m != nil {
					p.errorfAt(tok, "%s is not allowed in a module", tok.Text)
					p.syncLine()
					continue
				}
				p.parseLet(b, tok)
			default:
				p.errorfAt(tok, "unknown keyword %q", tok.Text)
				p.syncLine()
			}
		default:
			p.errorfAt(tok, "unexpected %s", TokenString(tok.Type))
			p.advance()
			p.syncLine()
		}
	}
}

func (p *Parser) parseExport(b *decl.Block, m *decl.Module, startTok Token) {
	p.advance() // export
	tok := p.peek()
	if tok.Type != WORD {
		p.errorfAt(tok, "expected def, alias or extern after export")
		p.syncLine()
		return
	}
	switch tok.Text {
	case "def":
		p.parseDef(b, m, true, startTok)
	case "alias":
		p.parseAlias(b, m, true, startTok)
	case "extern":
		p.parseExtern(b, m, true, startTok)
	default:
		p.errorfAt(tok, "cannot export %q", tok.Text)
		p.syncLine()
	}
}

func (p *Parser) parseDef(b *decl.Block, m *decl.Module, exported bool, startTok Token) {
	p.advance() // def
	nameTok, ok := p.advanceIf(WORD, STRING)
	if !ok {
		p.syncLine()
		return
	}
	sig, ok := p.parseSignature(nameTok.Text)
	if !ok {
		p.syncLine()
		return
	}
	braceTok, ok := p.expect(LBRACE)
	if !ok {
		p.syncLine()
		return
	}
	p.clearPeek()
	body, end, closed := p.lex.CaptureBraceBlockAt(braceTok.Start)
	if !closed {
		p.errorfAt(braceTok, "unclosed body for %q", nameTok.Text)
		return
	}
	blk := decl.NewBlock(decl.NewSpan(p.fileID, braceTok.Start, end))
	raw := &decl.RawBody{Text: body}
	raw.StartPos, raw.StopPos = braceTok.Start, end
	blk.Add(raw)
	bid := p.ws.AddBlock(blk)
	d := &decl.Decl{
		Name: nameTok.Text,
		Kind: decl.KindCommand,
		Sig:  sig,
		Span: decl.NewSpan(p.fileID, startTok.Start, end),
		Body: &bid,
	}
	p.registerDecl(d, m, exported, startTok)
}

func (p *Parser) parseAlias(b *decl.Block, m *decl.Module, exported bool, startTok Token) {
	p.advance() // alias
	nameTok, ok := p.advanceIf(WORD, STRING)
	if !ok {
		p.syncLine()
		return
	}
	eqTok, ok := p.advanceIf(EQUALS)
	if !ok {
		p.syncLine()
		return
	}
	p.clearPeek()
	expansion, end := p.lex.RestOfLineFrom(eqTok.End)
	if expansion == "" {
		p.errorfAt(eqTok, "alias %q has no expansion", nameTok.Text)
		return
	}
	d := &decl.Decl{
		Name:      nameTok.Text,
		Kind:      decl.KindAlias,
		Sig:       p.sigWithDoc(nameTok.Text),
		Span:      decl.NewSpan(p.fileID, startTok.Start, end),
		Expansion: expansion,
	}
	p.registerDecl(d, m, exported, startTok)
}

func (p *Parser) parseExtern(b *decl.Block, m *decl.Module, exported bool, startTok Token) {
	p.advance() // extern
	nameTok, ok := p.advanceIf(WORD, STRING)
	if !ok {
		p.syncLine()
		return
	}
	sig, ok := p.parseSignature(nameTok.Text)
	if !ok {
		p.syncLine()
		return
	}
	d := &decl.Decl{
		Name: nameTok.Text,
		Kind: decl.KindExtern,
		Sig:  sig,
		Span: decl.NewSpan(p.fileID, startTok.Start, p.lastEnd),
	}
	p.registerDecl(d, m, exported, startTok)
}

// registerDecl places a parsed declaration: into the module's decl table and
// export list when parsing a module file, into the current scope frame
// otherwise.
func (p *Parser) registerDecl(d *decl.Decl, m *decl.Module, exported bool, at Token) {
	if m != nil {
		id := p.ws.AddExport(d)
		if exported {
			m.AddExport(d.Name, id)
			if d.Name == "main" {
				m.Main = &id
			}
		}
		return
	}
	if exported {
		p.errorfAt(at, "export used outside of a module")
	}
	p.ws.AddDecl(d)
}

func (p *Parser) parseExportEnv(b *decl.Block, m *decl.Module, startTok Token) {
	p.advance() // export-env
	braceTok, ok := p.advanceIf(LBRACE)
	if !ok {
		p.syncLine()
		return
	}
	blk := decl.NewBlock(decl.NewSpan(p.fileID, braceTok.Start, braceTok.End))
	for {
		tok := p.peek()
		switch tok.Type {
		case RBRACE:
			p.advance()
			blk.Span = decl.NewSpan(p.fileID, braceTok.Start, tok.End)
			if m == nil {
				p.errorfAt(startTok, "export-env used outside of a module")
				return
			}
			bid := p.ws.AddBlock(blk)
			m.EnvBlock = &bid
			return
		case NEWLINE:
			p.advance()
		case ENVVAR:
			p.parseEnvAssign(blk)
		case EOF:
			p.errorfAt(braceTok, "unclosed export-env block")
			return
		default:
			p.errorfAt(tok, "unexpected %s in export-env", TokenString(tok.Type))
			p.advance()
		}
	}
}

func (p *Parser) parseEnvAssign(b *decl.Block) {
	tok, ok := p.advanceIf(ENVVAR)
	if !ok {
		p.syncLine()
		return
	}
	if _, ok := p.advanceIf(EQUALS); !ok {
		p.syncLine()
		return
	}
	val, end, ok := p.parseLiteral()
	if !ok {
		p.syncLine()
		return
	}
	ea := &decl.EnvAssign{Name: tok.Text, Value: val}
	ea.StartPos, ea.StopPos = tok.Start, end
	b.Add(ea)
}

func (p *Parser) parseLet(b *decl.Block, startTok Token) {
	kw := p.advance() // let or mut
	nameTok, ok := p.advanceIf(WORD)
	if !ok {
		p.syncLine()
		return
	}
	if _, ok := p.advanceIf(EQUALS); !ok {
		p.syncLine()
		return
	}
	val, end, ok := p.parseLiteral()
	if !ok {
		p.syncLine()
		return
	}
	span := decl.NewSpan(p.fileID, startTok.Start, end)
	vid := p.ws.AddVariable(decl.NewVariable(nameTok.Text, span, kw.Text == "mut"))
	la := &decl.LetAssign{Var: vid, Name: nameTok.Text, Value: val}
	la.StartPos, la.StopPos = startTok.Start, end
	b.Add(la)
}

func (p *Parser) parseLiteral() (decl.Value, int, bool) {
	tok := p.peek()
	switch tok.Type {
	case STRING:
		p.advance()
		return decl.StringValue(tok.Text), tok.End, true
	case INT:
		p.advance()
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.errorfAt(tok, "integer out of range: %s", tok.Text)
			return decl.Nil(), tok.End, false
		}
		return decl.IntValue(n), tok.End, true
	case WORD:
		p.advance()
		switch tok.Text {
		case "true":
			return decl.BoolValue(true), tok.End, true
		case "false":
			return decl.BoolValue(false), tok.End, true
		case "null", "nothing":
			return decl.Nil(), tok.End, true
		}
		return decl.StringValue(tok.Text), tok.End, true
	}
	p.errorfAt(tok, "expected a literal value, found %s", TokenString(tok.Type))
	return decl.Nil(), tok.End, false
}

// --- Signatures ---

func (p *Parser) sigWithDoc(name string) *decl.Signature {
	sig := decl.NewSignature(name)
	if p.pendingDoc != "" {
		first, rest, _ := strings.Cut(p.pendingDoc, "\n")
		sig.Usage = first
		sig.ExtraUsage = rest
	}
	return sig
}

func (p *Parser) parseSignature(name string) (*decl.Signature, bool) {
	sig := p.sigWithDoc(name)
	if _, ok := p.advanceIf(LBRACKET); !ok {
		return nil, false
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case RBRACKET:
			p.advance()
			return sig, true
		case NEWLINE, COMMA:
			p.advance()
		case WORD, STRING:
			p.advance()
			p.parseParam(sig, tok)
		case EOF:
			p.errorfAt(tok, "unclosed signature for %q", name)
			return nil, false
		default:
			p.errorfAt(tok, "unexpected %s in signature", TokenString(tok.Type))
			p.advance()
		}
	}
}

func (p *Parser) parseParam(sig *decl.Signature, tok Token) {
	text := tok.Text
	switch {
	case strings.HasPrefix(text, "--"):
		f := decl.Flag{Long: strings.TrimPrefix(text, "--")}
		if p.peek().Type == LPAREN {
			p.advance()
			if short, ok := p.advanceIf(WORD); ok {
				s := strings.TrimPrefix(short.Text, "-")
				if s != "" {
					f.Short = rune(s[0])
				}
			}
			p.advanceIf(RPAREN)
		}
		if p.peek().Type == COLON {
			p.advance()
			if shape, ok := p.advanceIf(WORD); ok {
				f.Shape = shape.Text
			}
		}
		sig.Flags = append(sig.Flags, f)
	case strings.HasPrefix(text, "..."):
		rest := decl.PositionalArg{Name: strings.TrimPrefix(text, "..."), Shape: "any"}
		if p.peek().Type == COLON {
			p.advance()
			if shape, ok := p.advanceIf(WORD); ok {
				rest.Shape = shape.Text
			}
		}
		sig.Rest = &rest
	default:
		arg := decl.PositionalArg{Name: text, Shape: "any"}
		if strings.HasSuffix(text, "?") {
			arg.Name = strings.TrimSuffix(text, "?")
			arg.Optional = true
		}
		if p.peek().Type == COLON {
			p.advance()
			if shape, ok := p.advanceIf(WORD); ok {
				arg.Shape = shape.Text
			}
		}
		sig.Positional = append(sig.Positional, arg)
	}
}

// --- Modules ---

func (p *Parser) parseModule(b *decl.Block, m *decl.Module, startTok Token) {
	p.advance() // module
	pathTok, ok := p.advanceIf(WORD, STRING)
	if !ok {
		p.syncLine()
		return
	}
	mid, name, ok := p.loadModule(pathTok, m == nil)
	if !ok {
		p.syncLine()
		return
	}
	if m != nil {
		m.AddSubmodule(name, mid)
		p.locals.modules[name] = mid
	}
	md := &decl.ModuleDef{Module: mid, Name: name}
	md.StartPos, md.StopPos = startTok.Start, pathTok.End
	b.Add(md)
}

// loadModule resolves a module path argument: a virtual path first, the file
// resolver second. When visible is set the module's name is bound in the
// current frame; submodules stay reachable only through their parent.
func (p *Parser) loadModule(pathTok Token, visible bool) (decl.ModuleID, string, bool) {
	arg := pathTok.Text
	full := p.virtualFullPath(arg)
	if vid, ok := p.ws.FindVirtualPath(full); ok {
		vname, vp, _ := p.ws.GetVirtualPath(vid)
		if vp.IsDir() {
			return p.loadModuleDir(vname, vp, pathTok, visible)
		}
		f, ok := p.ws.GetFile(vp.File)
		if !ok {
			p.errorfAt(pathTok, "virtual module %q has no backing file", vname)
			return 0, "", false
		}
		name := moduleStem(path.Base(vname))
		if !p.enterFile(vname, pathTok) {
			return 0, "", false
		}
		mod := p.parseModuleFileAt(name, vp.File, f.Content, path.Dir(vname))
		p.leaveFile(vname)
		return p.finishModule(mod, visible), name, true
	}

	if p.resolver == nil || strings.HasPrefix(full, engine.VirtualRootToken) {
		p.errorfAt(pathTok, "module not found: %s", arg)
		return 0, "", false
	}
	content, canonical, err := p.resolver.Resolve(p.ws.CurrentlyParsedDir, arg)
	if err != nil {
		p.errorWithHelp(pathTok, err.Error(), "module not found: %s", arg)
		return 0, "", false
	}
	if !p.enterFile(canonical, pathTok) {
		return 0, "", false
	}
	fid := p.ws.AddFile(canonical, content)
	name := moduleStem(path.Base(arg))
	mod := p.parseModuleFileAt(name, fid, content, filepath.Dir(canonical))
	p.leaveFile(canonical)
	return p.finishModule(mod, visible), name, true
}

// loadModuleDir assembles a module from a virtual directory: mod.nu supplies
// the module's own exports, every other child becomes a submodule named
// after its file stem.
func (p *Parser) loadModuleDir(full string, vp decl.VirtualPath, at Token, visible bool) (decl.ModuleID, string, bool) {
	name := path.Base(full)
	if !p.enterFile(full, at) {
		return 0, "", false
	}
	mod := decl.NewModule(name, decl.NewSpan(p.fileID, at.Start, at.End))
	prev := p.ws.CurrentlyParsedDir
	p.ws.CurrentlyParsedDir = full
	for _, entry := range p.ws.VirtualDirEntries(vp) {
		if entry.Path.IsDir() {
			sid, subName, ok := p.loadModuleDir(entry.Name, entry.Path, at, false)
			if ok {
				mod.AddSubmodule(subName, sid)
			}
			continue
		}
		f, ok := p.ws.GetFile(entry.Path.File)
		if !ok {
			continue
		}
		if !p.enterFile(entry.Name, at) {
			continue
		}
		base := path.Base(entry.Name)
		if base == "mod.nu" {
			p.parseModuleContentInto(mod, entry.Path.File, f.Content, full)
		} else {
			subName := moduleStem(base)
			sub := p.parseModuleFileAt(subName, entry.Path.File, f.Content, full)
			mod.AddSubmodule(subName, p.ws.AppendModule(sub))
		}
		p.leaveFile(entry.Name)
	}
	p.ws.CurrentlyParsedDir = prev
	p.leaveFile(full)
	return p.finishModule(mod, visible), name, true
}

func (p *Parser) parseModuleFileAt(name string, fid decl.FileID, content []byte, dir string) *decl.Module {
	mod := decl.NewModule(name, decl.NewSpan(fid, 0, len(content)))
	p.parseModuleContentInto(mod, fid, content, dir)
	return mod
}

// parseModuleContentInto parses a module file's statements into mod with a
// fresh sub-parser. The parse directory is redirected to the module file's
// directory for the duration and restored afterwards, whatever the outcome.
func (p *Parser) parseModuleContentInto(mod *decl.Module, fid decl.FileID, content []byte, dir string) {
	if mod.Usage == "" {
		mod.Usage = leadingDoc(content)
	}
	prev := p.ws.CurrentlyParsedDir
	p.ws.CurrentlyParsedDir = dir
	sub := &Parser{ws: p.ws, resolver: p.resolver, lex: NewLexer(content), fileID: fid, src: content,
		locals: newModuleScope(), inflight: p.inflight}
	sub.parseBlock(mod)
	p.ws.CurrentlyParsedDir = prev
}

// enterFile marks a module source as being parsed. A use or module chain
// that reaches a source already on the chain would recurse forever, so it
// is reported at the import site instead.
func (p *Parser) enterFile(key string, at Token) bool {
	if p.inflight[key] {
		p.errorfAt(at, "import cycle: %s is already being parsed", key)
		return false
	}
	p.inflight[key] = true
	return true
}

func (p *Parser) leaveFile(key string) {
	delete(p.inflight, key)
}

func (p *Parser) finishModule(mod *decl.Module, visible bool) decl.ModuleID {
	if visible {
		return p.ws.AddModule(mod)
	}
	return p.ws.AppendModule(mod)
}

// --- Imports ---

// moduleScope holds the names a module file binds for itself with use and
// module statements. They resolve the rest of that file and vanish with its
// sub-parser; only exports and submodules survive on the module record.
// Command bodies are captured raw and never resolved, so of the two maps
// only modules is consulted, by later use statements in the same file.
type moduleScope struct {
	decls   map[engine.NameKind]decl.DeclID
	modules map[string]decl.ModuleID
}

func newModuleScope() *moduleScope {
	return &moduleScope{
		decls:   map[engine.NameKind]decl.DeclID{},
		modules: map[string]decl.ModuleID{},
	}
}

// findModule resolves a module name: names the current module file bound
// for itself first, then the scope stack.
func (p *Parser) findModule(name string) (decl.ModuleID, bool) {
	if p.locals != nil {
		if id, ok := p.locals.modules[name]; ok {
			return id, true
		}
	}
	return p.ws.FindModule(name)
}

// bindUsedDecl brings an imported declaration name into scope: the module
// file's locals when one is being parsed, the current frame otherwise.
func (p *Parser) bindUsedDecl(name string, id decl.DeclID) {
	kind := p.declKind(id)
	if p.locals != nil {
		p.locals.decls[engine.NameKind{Name: name, Kind: kind}] = id
		return
	}
	p.ws.UseDecl(name, kind, id)
}

func (p *Parser) bindUsedModule(name string, id decl.ModuleID) {
	if p.locals != nil {
		p.locals.modules[name] = id
		return
	}
	p.ws.UseModule(name, id)
}

func (p *Parser) parseUse(b *decl.Block, startTok Token) {
	p.advance() // use
	var words []Token
	for {
		tok := p.peek()
		if tok.Type != WORD && tok.Type != STRING {
			break
		}
		p.advance()
		words = append(words, tok)
	}
	if len(words) == 0 {
		p.errorfAt(startTok, "use needs a module path")
		p.syncLine()
		return
	}

	glob := false
	haveList := false
	var nameToks []Token
	switch p.peek().Type {
	case STAR:
		p.advance()
		glob = true
	case LBRACKET:
		p.advance()
		haveList = true
	listLoop:
		for {
			tok := p.peek()
			switch tok.Type {
			case RBRACKET:
				p.advance()
				break listLoop
			case NEWLINE, COMMA:
				p.advance()
			case WORD, STRING:
				p.advance()
				nameToks = append(nameToks, tok)
			case EOF:
				p.errorfAt(tok, "unclosed import list")
				return
			default:
				p.errorfAt(tok, "unexpected %s in import list", TokenString(tok.Type))
				p.advance()
			}
		}
	}

	head := words[0]
	mid, ok := p.findModule(head.Text)
	if !ok {
		mid, _, ok = p.loadModule(head, p.locals == nil)
		if !ok {
			p.syncLine()
			return
		}
	}

	// walk the remaining path words through submodules; the last word may
	// name a single export instead
	exportName := ""
	for i := 1; i < len(words); i++ {
		w := words[i]
		mod, ok := p.ws.GetModule(mid)
		if !ok {
			break
		}
		if sid, ok := mod.Submodule(w.Text); ok {
			mid = sid
			continue
		}
		if i == len(words)-1 && !glob && !haveList {
			if _, ok := mod.Export(w.Text); ok {
				exportName = w.Text
				continue
			}
		}
		p.errorfAt(w, "module %q has no submodule %q", mod.Name, w.Text)
		p.syncLine()
		return
	}

	target, ok := p.ws.GetModule(mid)
	if !ok {
		p.errorfAt(head, "module %q is not loaded", head.Text)
		p.syncLine()
		return
	}

	var imported []string
	switch {
	case exportName != "":
		id, _ := target.Export(exportName)
		p.bindUsedDecl(exportName, id)
		imported = []string{exportName}
	case glob:
		for _, e := range target.Exports {
			p.bindUsedDecl(e.Name, e.Decl)
			imported = append(imported, e.Name)
		}
		for _, s := range target.Submodules {
			p.bindUsedModule(s.Name, s.Module)
			imported = append(imported, s.Name)
		}
	case haveList:
		for _, tok := range nameToks {
			if id, ok := target.Export(tok.Text); ok {
				p.bindUsedDecl(tok.Text, id)
				imported = append(imported, tok.Text)
				continue
			}
			if sid, ok := target.Submodule(tok.Text); ok {
				p.bindUsedModule(tok.Text, sid)
				imported = append(imported, tok.Text)
				continue
			}
			p.errorfAt(tok, "module %q has no export %q", target.Name, tok.Text)
		}
	default:
		// a bare use binds the module and its exports under the module name
		p.bindUsedModule(target.Name, mid)
		if target.Main != nil {
			p.bindUsedDecl(target.Name, *target.Main)
		}
		for _, e := range target.Exports {
			if target.Main != nil && e.Decl == *target.Main {
				continue
			}
			p.bindUsedDecl(target.Name+" "+e.Name, e.Decl)
		}
	}

	ud := &decl.UseDecl{Module: mid, Names: imported}
	ud.StartPos, ud.StopPos = startTok.Start, p.lastEnd
	b.Add(ud)
}

func (p *Parser) declKind(id decl.DeclID) decl.Kind {
	if d, ok := p.ws.GetDecl(id); ok {
		return d.Kind
	}
	return decl.KindCommand
}

// --- Path helpers ---

// virtualFullPath joins a module path argument with the directory being
// parsed, except when the argument is already anchored at the virtual root.
func (p *Parser) virtualFullPath(arg string) string {
	clean := path.Clean(arg)
	if strings.HasPrefix(clean, engine.VirtualRootToken) {
		return clean
	}
	if dir := p.ws.CurrentlyParsedDir; dir != "" {
		return path.Join(dir, clean)
	}
	return clean
}

func moduleStem(base string) string {
	return strings.TrimSuffix(base, ".nu")
}

// leadingDoc extracts the first comment line at the top of a module file,
// used as the module's usage string.
func leadingDoc(src []byte) string {
	for _, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
	}
	return ""
}
