package engine

import "log/slog"

// Options tune session-wide behavior. Start from DefaultOptions and adjust;
// the zero value leaves the session without a logger.
type Options struct {
	// Logger receives debug traces of merges and overlay changes.
	Logger *slog.Logger

	// StrictParse refuses to commit units whose parse produced diagnostics.
	// The default is best-effort: diagnostics are reported and whatever
	// parsed cleanly is committed, which is what an interactive session
	// wants at startup.
	StrictParse bool

	// MaxParseErrors caps how many diagnostics a working set records before
	// it starts dropping them. Zero means no cap.
	MaxParseErrors int
}

func DefaultOptions() *Options {
	return &Options{
		Logger: slog.Default(),
	}
}

func (o *Options) clone() *Options {
	c := *o
	return &c
}
