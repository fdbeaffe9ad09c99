package decl

// File is one registered source file. Name is whatever the contributor chose
// to call it, usually a real or virtual path. Registration never dedupes:
// the same name may be added again with different contents and both entries
// keep their IDs.
type File struct {
	Name    string
	Content []byte
}
