package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyiltiz/nushell/engine"
	"github.com/hyiltiz/nushell/parser"
)

// OSResolver implements parser.FileResolver against the real filesystem. A
// module path argument may name a file directly, a file missing its .nu
// extension, or a directory holding a mod.nu.
type OSResolver struct{}

func NewOSResolver() *OSResolver { return &OSResolver{} }

var _ parser.FileResolver = (*OSResolver)(nil)

func (r *OSResolver) Resolve(fromDir, arg string) ([]byte, string, error) {
	// virtual-root paths either resolved in memory already or do not exist;
	// they must never fall through to the disk
	if strings.HasPrefix(arg, engine.VirtualRootToken) {
		return nil, "", fmt.Errorf("virtual path %q is not mounted", arg)
	}

	base := arg
	if !filepath.IsAbs(base) {
		base = filepath.Join(fromDir, arg)
	}
	for _, cand := range []string{base, base + ".nu", filepath.Join(base, "mod.nu")} {
		info, err := os.Stat(cand)
		if err != nil || info.IsDir() {
			continue
		}
		canonical, err := filepath.Abs(cand)
		if err != nil {
			return nil, "", fmt.Errorf("could not resolve %q: %w", cand, err)
		}
		content, err := os.ReadFile(canonical)
		if err != nil {
			return nil, "", fmt.Errorf("could not read module %q: %w", canonical, err)
		}
		return content, canonical, nil
	}
	return nil, "", fmt.Errorf("no module file for %q under %q", arg, fromDir)
}
