package commands

import (
	"os"
	"path/filepath"
	"strconv"
)

// DefaultStrictParse reads NU_STRICT_PARSE. Anything strconv.ParseBool
// accepts works; unset or garbage means best-effort parsing.
func DefaultStrictParse() bool {
	v, err := strconv.ParseBool(os.Getenv("NU_STRICT_PARSE"))
	if err != nil {
		return false
	}
	return v
}

// DefaultHistoryFile reads NU_HISTORY_FILE, falling back to .nush_history in
// the user's home directory. Empty means no history is kept.
func DefaultHistoryFile() string {
	if v, ok := os.LookupEnv("NU_HISTORY_FILE"); ok {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nush_history")
}
