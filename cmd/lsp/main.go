package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/ps"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	historyDir := flag.String("history", "", "Commit saved documents to a git repository in this directory")
	userName := flag.String("name", "pgparse", "User name for history commits")
	userEmail := flag.String("email", "lsp@pgparse.local", "User email for history commits")
	logLevel := flag.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pgparse-lsp v%s\n", Version)
		return
	}

	// stdout carries the protocol
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "pgparse-lsp",
		Level:  hclog.LevelFromString(*logLevel),
		Output: os.Stderr,
	})

	opts := []Option{WithLogger(logger)}
	if *historyDir != "" {
		persistence, err := ps.NewFilePersistence(*historyDir, nil)
		if err != nil {
			logger.Error("failed to open history repository", "dir", *historyDir, "error", err)
			os.Exit(1)
		}
		opts = append(opts, WithHistory(&persistence, core.Identity{Name: *userName, Email: *userEmail}))
		logger.Info("recording saved documents", "dir", *historyDir)
	}

	if err := NewServer(opts...).Serve(context.Background(), stdrwc{}); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
