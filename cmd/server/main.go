package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	postgresql "github.com/jcgsville/postgresql-parsing"
	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/ps"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	port := flag.Int("port", 5433, "TCP port to listen on")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	jwtSecret := flag.String("jwt-secret", "", "Shared secret for JWT authentication (enables auth)")
	baseDir := flag.String("baseDir", "", "Base directory for saved queries (memory if empty)")
	gitUrl := flag.String("gitUrl", "", "Git URL for remote sync")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file")
	tlsKey := flag.String("tls-key", "", "TLS private key file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("PostgreSQL Parse Server v%s\n", Version)
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "log-level":
			cfg.Log.Level = *logLevel
		case "jwt-secret":
			cfg.Auth.Enabled = true
			cfg.Auth.JWTSecret = *jwtSecret
		case "baseDir":
			cfg.Store.BaseDir = *baseDir
		case "gitUrl":
			cfg.Store.GitURL = *gitUrl
		case "tls-cert":
			cfg.Server.TLSCert = *tlsCert
		case "tls-key":
			cfg.Server.TLSKey = *tlsKey
		}
	})

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "pgparse-server",
		Level:  hclog.LevelFromString(cfg.Log.Level),
		Output: os.Stderr,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	instance, err := openInstance(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to initialize persistence", "error", err)
		os.Exit(1)
	}

	identity := core.Identity{
		Name:  "Parse Server",
		Email: "server@pgparse.local",
	}

	var server *Server
	if authConfig := cfg.AuthConfig(); authConfig != nil {
		server = NewServerWithAuth(instance, authConfig)
		logger.Info("JWT authentication enabled")
	} else {
		server = NewServer(instance, identity)
	}
	server.SetLogger(logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if cfg.Server.TLSCert != "" {
		err = server.StartTLS(addr, cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   PostgreSQL Parse Server v%-10s ║\n", Version)
	fmt.Println("║   SELECT subset, one query per line   ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d\n", cfg.Server.Port)
	fmt.Println("Send SQL or JSON requests (one per line), 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	server.Stop()
	logger.Info("server stopped")
}

func openInstance(store StoreFileConfig, logger hclog.Logger) (*postgresql.Instance, error) {
	if store.BaseDir == "" {
		logger.Info("using memory persistence")
		persistence, err := ps.NewMemoryPersistence()
		if err != nil {
			return nil, err
		}
		return postgresql.Open(&persistence), nil
	}

	logger.Info("using file persistence", "dir", store.BaseDir)
	var gitUrlPtr *string
	if store.GitURL != "" {
		gitUrlPtr = &store.GitURL
	}
	persistence, err := ps.NewFilePersistence(store.BaseDir, gitUrlPtr)
	if err != nil {
		return nil, err
	}
	return postgresql.Open(&persistence), nil
}
