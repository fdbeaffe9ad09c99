package engine

import "github.com/hyiltiz/nushell/decl"

type FileID = decl.FileID
type VirtualPathID = decl.VirtualPathID
type VarID = decl.VarID
type DeclID = decl.DeclID
type BlockID = decl.BlockID
type ModuleID = decl.ModuleID
type OverlayID = decl.OverlayID

type Span = decl.Span
type Value = decl.Value
type NameKind = decl.NameKind
type VirtualPath = decl.VirtualPath
type ParseError = decl.ParseError
