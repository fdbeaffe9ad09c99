package decl

// Identifiers issued by the engine's tables. Every table is append-only, so
// an ID, once handed out, names the same entry for the life of the session.
// IDs are plain table indices; a working set continues the committed
// numbering, which is what keeps its IDs valid after the merge.
type (
	FileID        int
	VirtualPathID int
	VarID         int
	DeclID        int
	BlockID       int
	ModuleID      int
	OverlayID     int
)
