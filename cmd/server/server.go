package main

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	postgresql "github.com/jcgsville/postgresql-parsing"
	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/sql"
)

// maxLineSize bounds one request line.
const maxLineSize = 4 << 20

// Server is a TCP server that parses one request per line.
type Server struct {
	listener   net.Listener
	instance   *postgresql.Instance
	identity   core.Identity
	authConfig *AuthConfig
	logger     hclog.Logger
	tlsEnabled bool
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewServer creates a server without authentication. Saved queries are
// authored by identity.
func NewServer(instance *postgresql.Instance, identity core.Identity) *Server {
	return &Server{
		instance: instance,
		identity: identity,
		logger:   hclog.NewNullLogger(),
		done:     make(chan struct{}),
	}
}

// NewServerWithAuth creates a server that requires a JWT per connection.
func NewServerWithAuth(instance *postgresql.Instance, authConfig *AuthConfig) *Server {
	server := NewServer(instance, core.Identity{})
	server.authConfig = authConfig
	return server
}

func (s *Server) SetLogger(logger hclog.Logger) {
	s.logger = logger
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	s.logger.Info("server listening", "addr", listener.Addr().String())

	go s.acceptLoop()
	return nil
}

// StartTLS begins listening for TLS connections.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.listener = listener
	s.tlsEnabled = true

	s.logger.Info("server listening", "addr", listener.Addr().String(), "tls", true)

	go s.acceptLoop()
	return nil
}

func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Error("accept failed", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	state := &ConnectionState{session: uuid.NewString()}
	logger := s.logger.With("session", state.session, "remote", conn.RemoteAddr().String())
	logger.Info("client connected")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-s.done:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			logger.Info("client disconnected")
			return
		}

		var response Response
		if isAuthCommand(line) {
			response = s.handleAuth(line, state)
		} else if denied := s.authorize(state); denied != nil {
			response = *denied
		} else {
			response = s.handleRequest(line, state, logger)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			logger.Error("failed to encode response", "error", err)
			continue
		}

		if _, err := conn.Write(data); err != nil {
			logger.Error("write failed", "error", err)
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		logger.Error("read failed", "error", err)
	}
}

func (s *Server) handleRequest(line string, state *ConnectionState, logger hclog.Logger) Response {
	req, err := DecodeRequest(line)
	if err != nil {
		return errorResponse("parse", fmt.Errorf("invalid request: %w", err))
	}

	startTime := time.Now()
	tree, diagnostics := postgresql.ParseWithDiagnostics(req.Query)
	if diagnostics == nil {
		diagnostics = []sql.Diagnostic{}
	}

	pr := ParseResponse{
		Tree:        tree,
		Diagnostics: diagnostics,
		NonEmpty:    len(tree.Commands) > 0,
	}
	if req.Tokens {
		pr.Tokens = postgresql.Tokenize(req.Query)
	}

	if req.Save != "" {
		txn, err := s.save(req, state)
		if err != nil {
			logger.Error("failed to save query", "path", req.Save, "error", err)
			return errorResponse("parse", err)
		}
		pr.Transaction = txn
	}

	pr.TimeMs = float64(time.Since(startTime).Microseconds()) / 1000
	logger.Debug("parsed request",
		"commands", len(tree.Commands),
		"diagnostics", len(diagnostics),
		"time_ms", pr.TimeMs)

	data, _ := json.Marshal(pr)
	return Response{
		Success: true,
		Type:    "parse",
		Result:  data,
	}
}

// save commits the query text as a document authored by the session's
// identity, or the server identity without authentication.
func (s *Server) save(req Request, state *ConnectionState) (string, error) {
	if s.instance == nil || !s.instance.Persistence.IsInitialized() {
		return "", errors.New("no document store configured")
	}

	identity := s.identity
	if id := state.Identity(); id != nil {
		identity = *id
	}

	txn, err := s.instance.Persistence.WriteDocument(core.Document{Path: req.Save, Text: req.Query}, identity, "Save "+req.Save)
	if err != nil {
		return "", err
	}
	return txn.Id, nil
}
