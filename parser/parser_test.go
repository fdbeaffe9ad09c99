package parser

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyiltiz/nushell/decl"
	"github.com/hyiltiz/nushell/engine"
)

func newTestSet(t *testing.T) *engine.WorkingSet {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return engine.NewWorkingSet(engine.NewEngineState(opts))
}

type resolveCall struct {
	fromDir string
	arg     string
}

type fakeModule struct {
	content   string
	canonical string
}

// mapResolver serves module sources from a map and records every lookup.
type mapResolver struct {
	modules map[string]fakeModule
	calls   []resolveCall
}

func (r *mapResolver) Resolve(fromDir, arg string) ([]byte, string, error) {
	r.calls = append(r.calls, resolveCall{fromDir: fromDir, arg: arg})
	m, ok := r.modules[arg]
	if !ok {
		return nil, "", fmt.Errorf("no module file for %q", arg)
	}
	return []byte(m.content), m.canonical, nil
}

func TestParseDefRegistersCommand(t *testing.T) {
	ws := newTestSet(t)
	src := "# Greets someone.\n# Politely.\ndef greet [name: string] { echo hi }\n"
	Parse(ws, nil, "script.nu", []byte(src))

	require.False(t, ws.HasParseErrors())
	id, ok := ws.FindDecl("greet", decl.KindCommand)
	require.True(t, ok)
	d, ok := ws.GetDecl(id)
	require.True(t, ok)
	assert.Equal(t, "Greets someone.", d.Sig.Usage)
	assert.Equal(t, "Politely.", d.Sig.ExtraUsage)
	require.Len(t, d.Sig.Positional, 1)
	assert.Equal(t, "name", d.Sig.Positional[0].Name)
	assert.Equal(t, "string", d.Sig.Positional[0].Shape)

	require.NotNil(t, d.Body)
	blk, ok := ws.GetBlock(*d.Body)
	require.True(t, ok)
	require.Len(t, blk.Elements, 1)
	raw, ok := blk.Elements[0].(*decl.RawBody)
	require.True(t, ok)
	assert.Equal(t, "echo hi", raw.Text)
}

func TestParseSignatureShapes(t *testing.T) {
	ws := newTestSet(t)
	src := "def fetch [\n\turl: string\n\tdest?: path\n\t--retries (-r): int\n\t--verbose\n\t...headers: string\n] { go }\n"
	Parse(ws, nil, "script.nu", []byte(src))

	require.False(t, ws.HasParseErrors())
	id, ok := ws.FindDecl("fetch", decl.KindCommand)
	require.True(t, ok)
	d, _ := ws.GetDecl(id)
	sig := d.Sig

	require.Len(t, sig.Positional, 2)
	assert.Equal(t, "url", sig.Positional[0].Name)
	assert.False(t, sig.Positional[0].Optional)
	assert.Equal(t, "dest", sig.Positional[1].Name)
	assert.True(t, sig.Positional[1].Optional)
	assert.Equal(t, "path", sig.Positional[1].Shape)

	require.Len(t, sig.Flags, 2)
	assert.Equal(t, "retries", sig.Flags[0].Long)
	assert.Equal(t, 'r', sig.Flags[0].Short)
	assert.Equal(t, "int", sig.Flags[0].Shape)
	assert.Equal(t, "verbose", sig.Flags[1].Long)
	assert.Equal(t, "", sig.Flags[1].Shape)

	require.NotNil(t, sig.Rest)
	assert.Equal(t, "headers", sig.Rest.Name)
	assert.Equal(t, "fetch --retries(-r): int --verbose <url> (dest) ...headers", sig.String())
}

func TestParseAliasAndExtern(t *testing.T) {
	ws := newTestSet(t)
	src := "# Long listing.\nalias ll = ls -la\nextern \"git push\" [remote: string]\n"
	Parse(ws, nil, "script.nu", []byte(src))

	require.False(t, ws.HasParseErrors())
	id, ok := ws.FindDecl("ll", decl.KindAlias)
	require.True(t, ok)
	d, _ := ws.GetDecl(id)
	assert.Equal(t, "ls -la", d.Expansion)
	assert.Equal(t, "Long listing.", d.Sig.Usage)

	_, ok = ws.FindDecl("git push", decl.KindExtern)
	assert.True(t, ok)
	_, ok = ws.FindDecl("git push", decl.KindCommand)
	assert.False(t, ok, "externs and commands live under distinct keys")
}

func TestParseLetMutAndEnvAssign(t *testing.T) {
	ws := newTestSet(t)
	src := "let answer = 42\nmut count = 0\n$env.GREETING = \"hello\"\n$env.LIMIT = 10\n"
	blk := Parse(ws, nil, "script.nu", []byte(src))

	require.False(t, ws.HasParseErrors())
	require.Len(t, blk.Elements, 4)

	la, ok := blk.Elements[0].(*decl.LetAssign)
	require.True(t, ok)
	assert.Equal(t, "answer", la.Name)
	assert.Equal(t, int64(42), la.Value.Int)
	vid, ok := ws.FindVar("answer")
	require.True(t, ok)
	v, _ := ws.GetVar(vid)
	assert.False(t, v.Mutable)

	mu := blk.Elements[1].(*decl.LetAssign)
	mv, _ := ws.GetVar(mu.Var)
	assert.True(t, mv.Mutable)

	ea, ok := blk.Elements[2].(*decl.EnvAssign)
	require.True(t, ok)
	assert.Equal(t, "GREETING", ea.Name)
	assert.Equal(t, "hello", ea.Value.Str)
	assert.Equal(t, decl.KindInt, blk.Elements[3].(*decl.EnvAssign).Value.Kind)
}

func TestParseErrorRecoveryKeepsGoing(t *testing.T) {
	ws := newTestSet(t)
	src := ") what is this\ndef ok [] { fine }\n"
	Parse(ws, nil, "script.nu", []byte(src))

	require.True(t, ws.HasParseErrors())
	_, ok := ws.FindDecl("ok", decl.KindCommand)
	assert.True(t, ok, "a bad line must not poison the rest of the file")
}

func TestExportOutsideModuleIsReported(t *testing.T) {
	ws := newTestSet(t)
	Parse(ws, nil, "script.nu", []byte("export def x [] {}\n"))

	require.True(t, ws.HasParseErrors())
	assert.Contains(t, ws.ParseErrors()[0].Msg, "outside of a module")
	// the definition itself still lands, parsing is best effort
	_, ok := ws.FindDecl("x", decl.KindCommand)
	assert.True(t, ok)
}

func TestExportEnvOutsideModuleIsReported(t *testing.T) {
	ws := newTestSet(t)
	Parse(ws, nil, "script.nu", []byte("export-env { $env.X = 1 }\n"))

	require.True(t, ws.HasParseErrors())
	assert.Contains(t, ws.ParseErrors()[0].Msg, "outside of a module")
}

func TestParseModuleFileThroughResolver(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{modules: map[string]fakeModule{
		"spam.nu": {
			content:   "# Spam helpers.\nexport def hello [] { hi }\nexport alias shout = hello --loud\ndef hidden [] { shh }\n",
			canonical: "/proj/spam.nu",
		},
	}}
	Parse(ws, res, "script.nu", []byte("module spam.nu\nuse spam hello\n"))

	require.False(t, ws.HasParseErrors())
	mid, ok := ws.FindModule("spam")
	require.True(t, ok)
	mod, _ := ws.GetModule(mid)
	assert.Equal(t, "Spam helpers.", mod.Usage)
	assert.Equal(t, []string{"hello", "shout"}, mod.ExportNames())

	// only the named export is in scope
	_, ok = ws.FindDecl("hello", decl.KindCommand)
	assert.True(t, ok)
	_, ok = ws.FindDecl("shout", decl.KindAlias)
	assert.False(t, ok)
	_, ok = ws.FindDecl("hidden", decl.KindCommand)
	assert.False(t, ok, "private definitions stay out of scope")
}

func TestBareUseBindsPrefixedNames(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{modules: map[string]fakeModule{
		"m.nu": {
			content:   "export def main [] { run }\nexport def alpha [] {}\n",
			canonical: "/proj/m.nu",
		},
	}}
	Parse(ws, res, "script.nu", []byte("use m.nu\n"))

	require.False(t, ws.HasParseErrors())
	_, ok := ws.FindModule("m")
	assert.True(t, ok)
	// main answers to the module's own name, exports to prefixed names
	_, ok = ws.FindDecl("m", decl.KindCommand)
	assert.True(t, ok)
	_, ok = ws.FindDecl("m alpha", decl.KindCommand)
	assert.True(t, ok)
	_, ok = ws.FindDecl("alpha", decl.KindCommand)
	assert.False(t, ok)
}

func TestUseGlobAndBracketList(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{modules: map[string]fakeModule{
		"tools.nu": {
			content:   "export def alpha [] {}\nexport def beta [] {}\n",
			canonical: "/proj/tools.nu",
		},
		"more.nu": {
			content:   "export def gamma [] {}\nexport def delta [] {}\n",
			canonical: "/proj/more.nu",
		},
	}}
	src := "module tools.nu\nuse tools *\nmodule more.nu\nuse more [\n\tgamma\n\tdelta\n]\n"
	Parse(ws, res, "script.nu", []byte(src))

	require.False(t, ws.HasParseErrors())
	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		_, ok := ws.FindDecl(name, decl.KindCommand)
		assert.True(t, ok, name)
	}
}

func TestModuleParseRestoresDirectory(t *testing.T) {
	ws := newTestSet(t)
	ws.CurrentlyParsedDir = "/proj"
	res := &mapResolver{modules: map[string]fakeModule{
		"sub.nu":   {content: "module inner.nu\n", canonical: "/proj/lib/sub.nu"},
		"inner.nu": {content: "# inner\n", canonical: "/proj/lib/inner.nu"},
	}}
	Parse(ws, res, "script.nu", []byte("module sub.nu\n"))

	require.False(t, ws.HasParseErrors())
	assert.Equal(t, "/proj", ws.CurrentlyParsedDir, "parse directory must be restored")
	require.Len(t, res.calls, 2)
	assert.Equal(t, resolveCall{fromDir: "/proj", arg: "sub.nu"}, res.calls[0])
	assert.Equal(t, resolveCall{fromDir: "/proj/lib", arg: "inner.nu"}, res.calls[1],
		"nested modules resolve against their parent module's directory")

	mid, ok := ws.FindModule("sub")
	require.True(t, ok)
	mod, _ := ws.GetModule(mid)
	_, ok = mod.Submodule("inner")
	assert.True(t, ok)
}

func TestModuleNotFoundRestoresDirectory(t *testing.T) {
	ws := newTestSet(t)
	ws.CurrentlyParsedDir = "/proj"
	Parse(ws, &mapResolver{}, "script.nu", []byte("module missing.nu\n"))

	require.True(t, ws.HasParseErrors())
	assert.Contains(t, ws.ParseErrors()[0].Msg, "module not found")
	assert.Equal(t, "/proj", ws.CurrentlyParsedDir)
}

func TestModuleInternalUseStaysLocal(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{modules: map[string]fakeModule{
		"helper.nu": {
			content:   "export def helped [] { ok }\n",
			canonical: "/proj/helper.nu",
		},
		"outer.nu": {
			content:   "module helper.nu\nuse helper helped\nexport def visible [] { go }\n",
			canonical: "/proj/outer.nu",
		},
	}}
	Parse(ws, res, "script.nu", []byte("use outer.nu visible\n"))

	require.False(t, ws.HasParseErrors())
	_, ok := ws.FindDecl("visible", decl.KindCommand)
	assert.True(t, ok)

	// names outer.nu bound for itself serve that file only
	_, ok = ws.FindDecl("helped", decl.KindCommand)
	assert.False(t, ok, "a use inside a module file must not bind in the outer scope")
	_, ok = ws.FindModule("helper")
	assert.False(t, ok, "module names declared in a module file stay local too")

	// the use found helper under its file-local name instead of loading
	// the file a second time
	loads := 0
	for _, c := range res.calls {
		if c.arg == "helper.nu" {
			loads++
		}
	}
	assert.Equal(t, 1, loads)
}

func TestModuleFileRejectsLetAndMut(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{modules: map[string]fakeModule{
		"state.nu": {
			content:   "let hidden = 42\nmut counter = 0\nexport def read [] { peek }\n",
			canonical: "/proj/state.nu",
		},
	}}
	Parse(ws, res, "script.nu", []byte("module state.nu\n"))

	require.Len(t, ws.ParseErrors(), 2)
	assert.Contains(t, ws.ParseErrors()[0].Msg, "let is not allowed in a module")
	assert.Contains(t, ws.ParseErrors()[1].Msg, "mut is not allowed in a module")
	_, ok := ws.FindVar("hidden")
	assert.False(t, ok, "a rejected let must not bind anywhere")
	_, ok = ws.FindVar("counter")
	assert.False(t, ok)

	// the rest of the file still parses
	mid, ok := ws.FindModule("state")
	require.True(t, ok)
	mod, _ := ws.GetModule(mid)
	assert.Equal(t, []string{"read"}, mod.ExportNames())
}

func TestModuleImportCycleIsReported(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{modules: map[string]fakeModule{
		"a.nu": {content: "module b.nu\nexport def a1 [] {}\n", canonical: "/proj/a.nu"},
		"b.nu": {content: "module a.nu\nexport def b1 [] {}\n", canonical: "/proj/b.nu"},
	}}
	Parse(ws, res, "script.nu", []byte("module a.nu\n"))

	require.True(t, ws.HasParseErrors())
	assert.Contains(t, ws.ParseErrors()[0].Msg, "import cycle")

	// the chain stops at the loop; everything before it still lands
	mid, ok := ws.FindModule("a")
	require.True(t, ok)
	mod, _ := ws.GetModule(mid)
	assert.Equal(t, []string{"a1"}, mod.ExportNames())
	bid, ok := mod.Submodule("b")
	require.True(t, ok)
	bmod, _ := ws.GetModule(bid)
	assert.Equal(t, []string{"b1"}, bmod.ExportNames())
}

func TestVirtualDirectoryModule(t *testing.T) {
	ws := newTestSet(t)
	root := engine.VirtualRootToken + "/std"

	logSrc := "# Logging helpers.\nexport def \"log info\" [msg: string] { emit }\n"
	modSrc := "# Standard library.\nexport def pwd [] { where }\n"
	dirsSrc := "# Directory stack.\nexport def enter [path: string] { push }\nexport def shells [] { show }\nexport-env {\n\t$env.DIRS_POSITION = 0\n}\n"

	var children []decl.VirtualPathID
	for _, f := range []struct{ name, src string }{
		{"log", logSrc},
		{"mod.nu", modSrc},
		{"dirs", dirsSrc},
	} {
		full := root + "/" + f.name
		fid := ws.AddFile(full, []byte(f.src))
		children = append(children, ws.AddVirtualPath(full, decl.NewVirtualFile(fid)))
	}
	ws.AddVirtualPath(root, decl.NewVirtualDir(children))

	prevDir := ws.CurrentlyParsedDir
	ws.CurrentlyParsedDir = engine.VirtualRootToken
	src := fmt.Sprintf("module %s\nuse std dirs [ enter shells ]\nuse std pwd\n", root)
	blk := Parse(ws, nil, "loading stdlib", []byte(src))
	ws.CurrentlyParsedDir = prevDir

	require.Empty(t, ws.ParseErrors())

	mid, ok := ws.FindModule("std")
	require.True(t, ok)
	std, _ := ws.GetModule(mid)
	assert.Equal(t, "Standard library.", std.Usage)
	_, ok = std.Export("pwd")
	assert.True(t, ok, "mod.nu exports belong to the directory module itself")
	_, ok = std.Submodule("log")
	assert.True(t, ok)
	dirsID, ok := std.Submodule("dirs")
	require.True(t, ok)

	dirs, _ := ws.GetModule(dirsID)
	assert.Equal(t, []string{"enter", "shells"}, dirs.ExportNames())
	require.NotNil(t, dirs.EnvBlock)
	envBlk, _ := ws.GetBlock(*dirs.EnvBlock)
	require.Len(t, envBlk.Elements, 1)
	assert.Equal(t, "DIRS_POSITION", envBlk.Elements[0].(*decl.EnvAssign).Name)

	logID, _ := std.Submodule("log")
	logMod, _ := ws.GetModule(logID)
	_, ok = logMod.Export("log info")
	assert.True(t, ok)

	// imports are in scope, unexported and unimported names are not
	for _, name := range []string{"enter", "shells", "pwd"} {
		_, ok := ws.FindDecl(name, decl.KindCommand)
		assert.True(t, ok, name)
	}
	_, ok = ws.FindDecl("log info", decl.KindCommand)
	assert.False(t, ok, "submodule exports need their own use")

	require.Len(t, blk.Elements, 3)
	md := blk.Elements[0].(*decl.ModuleDef)
	assert.Equal(t, "std", md.Name)
	assert.Equal(t, mid, md.Module)
	useDirs := blk.Elements[1].(*decl.UseDecl)
	assert.Equal(t, dirsID, useDirs.Module)
	assert.Equal(t, []string{"enter", "shells"}, useDirs.Names)
	usePwd := blk.Elements[2].(*decl.UseDecl)
	assert.Equal(t, mid, usePwd.Module)
	assert.Equal(t, []string{"pwd"}, usePwd.Names)
}

func TestVirtualModulePathsNeverTouchTheResolver(t *testing.T) {
	ws := newTestSet(t)
	res := &mapResolver{}
	src := fmt.Sprintf("module %s/ghost\n", engine.VirtualRootToken)
	Parse(ws, res, "script.nu", []byte(src))

	require.True(t, ws.HasParseErrors())
	assert.Empty(t, res.calls, "virtual-root paths resolve in memory or not at all")
}
