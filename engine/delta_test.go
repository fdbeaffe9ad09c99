package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyiltiz/nushell/decl"
)

// snapshot captures the observable shape of a session so tests can prove a
// failed merge left it untouched.
type stateSnapshot struct {
	files, vpaths, vars, decls, blocks, modules int
	overlays                                    []string
}

func snapshotState(es *EngineState) stateSnapshot {
	return stateSnapshot{
		files:    es.NumFiles(),
		vpaths:   es.NumVirtualPaths(),
		vars:     es.NumVars(),
		decls:    es.NumDecls(),
		blocks:   es.NumBlocks(),
		modules:  es.NumModules(),
		overlays: es.ActiveOverlayNames(),
	}
}

func requireRejectedAndUntouched(t *testing.T, es *EngineState, before stateSnapshot, err error) {
	t.Helper()
	require.Error(t, err)
	var ierr *IntegrityError
	assert.ErrorAs(t, err, &ierr)
	assert.Equal(t, before, snapshotState(es))
}

func TestMergeDeltaRejectsDanglingBlock(t *testing.T) {
	es := newTestState(t)
	before := snapshotState(es)

	ws := NewWorkingSet(es)
	bad := newTestCommand("broken")
	missing := BlockID(99)
	bad.Body = &missing
	ws.AddDecl(bad)
	delta, err := ws.Render()
	require.NoError(t, err)

	requireRejectedAndUntouched(t, es, before, es.MergeDelta(delta, nil))
}

func TestMergeDeltaRejectsDanglingExport(t *testing.T) {
	es := newTestState(t)
	before := snapshotState(es)

	ws := NewWorkingSet(es)
	m := decl.NewModule("broken", decl.UnknownSpan())
	m.AddExport("ghost", DeclID(42))
	ws.AddModule(m)
	delta, err := ws.Render()
	require.NoError(t, err)

	requireRejectedAndUntouched(t, es, before, es.MergeDelta(delta, nil))
}

func TestMergeDeltaRejectsDanglingVirtualPath(t *testing.T) {
	es := newTestState(t)
	before := snapshotState(es)

	ws := NewWorkingSet(es)
	ws.AddVirtualPath("v/ghost", decl.NewVirtualFile(FileID(7)))
	delta, err := ws.Render()
	require.NoError(t, err)
	requireRejectedAndUntouched(t, es, before, es.MergeDelta(delta, nil))

	ws = NewWorkingSet(es)
	ws.AddVirtualPath("v/dir", decl.NewVirtualDir([]VirtualPathID{12}))
	delta, err = ws.Render()
	require.NoError(t, err)
	requireRejectedAndUntouched(t, es, before, es.MergeDelta(delta, nil))
}

func TestMergeDeltaRejectsDanglingSpan(t *testing.T) {
	es := newTestState(t)
	before := snapshotState(es)

	ws := NewWorkingSet(es)
	d := newTestCommand("spanned")
	d.Span = decl.NewSpan(FileID(33), 0, 4)
	ws.AddDecl(d)
	delta, err := ws.Render()
	require.NoError(t, err)

	requireRejectedAndUntouched(t, es, before, es.MergeDelta(delta, nil))
}

func TestMergeDeltaRejectsDanglingBlockElements(t *testing.T) {
	es := newTestState(t)
	before := snapshotState(es)

	ws := NewWorkingSet(es)
	b := decl.NewBlock(decl.UnknownSpan())
	b.Add(&decl.UseDecl{Module: ModuleID(5)})
	ws.AddBlock(b)
	delta, err := ws.Render()
	require.NoError(t, err)

	requireRejectedAndUntouched(t, es, before, es.MergeDelta(delta, nil))
}

func TestMergeDeltaRejectsUnknownActivation(t *testing.T) {
	es := newTestState(t)
	before := snapshotState(es)

	ws := NewWorkingSet(es)
	ws.AddDecl(newTestCommand("fine"))
	delta, err := ws.Render()
	require.NoError(t, err)

	err = es.MergeDelta(delta, &OverlayActivation{Name: "nowhere"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, snapshotState(es))
}

func TestMergeDeltaWithoutActivationLeavesOverlayInactive(t *testing.T) {
	es := newTestState(t)

	ws := NewWorkingSet(es)
	ws.DefineOverlay("dormant", nil)
	id := ws.AddDecl(newTestCommand("hidden"))
	delta, err := ws.Render()
	require.NoError(t, err)
	require.NoError(t, es.MergeDelta(delta, nil))

	// the overlay exists but is not on the active stack
	_, ok := es.FindOverlay("dormant")
	assert.True(t, ok)
	assert.Equal(t, []string{DefaultOverlayName}, es.ActiveOverlayNames())

	// so its declaration only answers to qualified lookup
	_, ok = es.FindDecl("hidden", decl.KindCommand)
	assert.False(t, ok)
	got, ok := es.FindDeclQualified("dormant", "hidden", decl.KindCommand)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestMergeDeltaExtendsExistingOverlay(t *testing.T) {
	es := newTestState(t)

	ws := NewWorkingSet(es)
	first := ws.AddDecl(newTestCommand("one"))
	delta, err := ws.Render()
	require.NoError(t, err)
	require.NoError(t, es.MergeDelta(delta, nil))

	ws = NewWorkingSet(es)
	second := ws.AddDecl(newTestCommand("two"))
	delta, err = ws.Render()
	require.NoError(t, err)
	require.NoError(t, es.MergeDelta(delta, nil))

	// both merges landed in the same default overlay, in order
	entries := es.CurrentOverlay().DeclEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0].ID)
	assert.Equal(t, second, entries[1].ID)
}

func TestMergeDeltaValidReferencesAcrossStagedTables(t *testing.T) {
	es := newTestState(t)

	// a delta whose decl points at a block staged in the same delta
	ws := NewWorkingSet(es)
	b := decl.NewBlock(decl.UnknownSpan())
	bid := ws.AddBlock(b)
	d := newTestCommand("with-body")
	d.Body = &bid
	ws.AddDecl(d)
	delta, err := ws.Render()
	require.NoError(t, err)
	require.NoError(t, es.MergeDelta(delta, nil))

	got, ok := es.GetDecl(0)
	require.True(t, ok)
	require.NotNil(t, got.Body)
	_, ok = es.GetBlock(*got.Body)
	assert.True(t, ok)
}
