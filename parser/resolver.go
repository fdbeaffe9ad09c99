package parser

// FileResolver loads module sources that are not registered as virtual
// paths. Resolve receives the directory of the file being parsed and the
// path argument as written, and returns the content along with the canonical
// name to register the file under.
type FileResolver interface {
	Resolve(fromDir, arg string) (content []byte, canonical string, err error)
}
