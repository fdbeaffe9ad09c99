package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hyiltiz/nushell/cmd/nush/commands"
)

func main() {
	// A .env file is optional; it lets a checkout pin NU_* settings without
	// exporting them in the parent shell.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			slog.Warn("could not load .env file", "error", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: DefaultLogLevel(),
	}))
	slog.SetDefault(logger)

	commands.Execute()
}

// DefaultLogLevel reads NU_LOG_LEVEL, falling back to warn so normal runs
// stay quiet. Set NU_LOG_LEVEL=debug to watch merges and overlay changes.
func DefaultLogLevel() slog.Level {
	switch strings.ToLower(os.Getenv("NU_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
