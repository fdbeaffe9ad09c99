package decl

import "fmt"

// VirtualPathKind says whether a virtual path node is a file leaf or a
// directory.
type VirtualPathKind int

const (
	VirtualFile VirtualPathKind = iota
	VirtualDir
)

// VirtualPath is one node of the in-memory file tree. A file node points at
// a registered file's contents; a directory node lists the IDs of its
// children. Nodes are registered under full slash-separated names, so
// resolving a path is a name lookup and walking a directory is a child
// listing.
type VirtualPath struct {
	Kind     VirtualPathKind
	File     FileID          // valid when Kind == VirtualFile
	Children []VirtualPathID // valid when Kind == VirtualDir
}

func NewVirtualFile(id FileID) VirtualPath {
	return VirtualPath{Kind: VirtualFile, File: id}
}

func NewVirtualDir(children []VirtualPathID) VirtualPath {
	return VirtualPath{Kind: VirtualDir, Children: children}
}

func (v VirtualPath) IsDir() bool { return v.Kind == VirtualDir }

func (v VirtualPath) String() string {
	if v.IsDir() {
		return fmt.Sprintf("dir(%d children)", len(v.Children))
	}
	return fmt.Sprintf("file(#%d)", int(v.File))
}
