package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/hashicorp/go-hclog"
	postgresql "github.com/jcgsville/postgresql-parsing"
	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/ps"
	"github.com/jcgsville/postgresql-parsing/sql"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

const diagnosticSource = "postgresql-parsing"

// ErrExitWithoutShutdown is returned by Serve when the client sent exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

// Server answers language server requests for SQL documents.
type Server struct {
	logger hclog.Logger

	store    *ps.Persistence
	identity core.Identity

	mu             sync.Mutex
	documents      map[lsp.DocumentURI]string
	rootURI        lsp.DocumentURI
	utf16Positions bool
	initialized    bool
	shutdown       bool
	exitErr        error
}

type Option func(*Server)

func WithLogger(logger hclog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHistory commits every saved document to store as identity.
func WithHistory(store *ps.Persistence, identity core.Identity) Option {
	return func(s *Server) {
		s.store = store
		s.identity = identity
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:         hclog.NewNullLogger(),
		documents:      make(map[lsp.DocumentURI]string),
		utf16Positions: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs the protocol over rwc until the client exits or the
// connection closes.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle),
		jsonrpc2.SetLogger(s.logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})))

	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
		<-conn.DisconnectNotify()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Trace("received message", "method", req.Method, "notification", req.Notif)

	if req.Method == "exit" {
		if !s.shutdown {
			s.exitErr = ErrExitWithoutShutdown
		}
		conn.Close()
		return nil, nil
	}

	if !s.initialized && req.Method != "initialize" {
		return nil, &jsonrpc2.Error{Code: codeServerNotInitialized, Message: "server not initialized"}
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		return nil, nil
	case "shutdown":
		s.shutdown = true
		return nil, nil
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.update(ctx, conn, params.TextDocument.URI, params.TextDocument.Text)
		return nil, nil
	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) > 0 {
			// Full sync: the last change holds the whole document.
			s.update(ctx, conn, params.TextDocument.URI, params.ContentChanges[len(params.ContentChanges)-1].Text)
		}
		return nil, nil
	case "textDocument/didSave":
		var params didSaveParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.handleSave(ctx, conn, params)
		return nil, nil
	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		delete(s.documents, params.TextDocument.URI)
		s.publish(ctx, conn, params.TextDocument.URI, []lsp.Diagnostic{})
		return nil, nil
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
}

func (s *Server) handleInitialize(req *jsonrpc2.Request) (any, error) {
	var params lsp.InitializeParams
	var options initializeOptions
	if req.Params != nil {
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if err := decodeParams(req, &options); err != nil {
			return nil, err
		}
	}

	encoding := "utf-16"
	for _, offered := range options.Capabilities.General.PositionEncodings {
		if offered == "utf-32" {
			encoding = offered
			break
		}
	}
	s.utf16Positions = encoding == "utf-16"
	s.rootURI = params.RootURI
	s.initialized = true

	s.logger.Info("initialized", "root", params.RootURI, "encoding", encoding)
	return initializeResult{
		Capabilities: serverCapabilities{
			ServerCapabilities: lsp.ServerCapabilities{
				TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
					Options: &lsp.TextDocumentSyncOptions{
						OpenClose: true,
						Change:    lsp.TDSKFull,
						Save:      &lsp.SaveOptions{IncludeText: true},
					},
				},
			},
			PositionEncoding: encoding,
		},
		ServerInfo: serverInfo{Name: "pgparse-lsp", Version: Version},
	}, nil
}

func (s *Server) update(ctx context.Context, conn *jsonrpc2.Conn, uri lsp.DocumentURI, text string) {
	s.documents[uri] = text
	_, diagnostics := postgresql.ParseWithDiagnostics(text)
	s.publish(ctx, conn, uri, s.convert(text, diagnostics))
}

func (s *Server) handleSave(ctx context.Context, conn *jsonrpc2.Conn, params didSaveParams) {
	uri := params.TextDocument.URI
	text, ok := s.documents[uri]
	if params.Text != nil {
		text, ok = *params.Text, true
	}
	if !ok {
		s.logger.Warn("save for unknown document", "uri", uri)
		return
	}
	s.update(ctx, conn, uri, text)

	if s.store == nil {
		return
	}

	docPath := s.documentPath(uri)
	txn, err := s.store.WriteDocument(core.Document{Path: docPath, Text: text}, s.identity, "Save "+docPath)
	if err != nil {
		s.logger.Error("failed to record document", "path", docPath, "error", err)
		return
	}
	s.logger.Debug("recorded document", "path", docPath, "transaction", txn.Id)
}

// documentPath maps a document URI into the history store, relative to the
// workspace root when the document lies inside it.
func (s *Server) documentPath(uri lsp.DocumentURI) string {
	docPath := uriPath(string(uri))
	if root := uriPath(string(s.rootURI)); root != "" && root != "/" {
		if rel, ok := strings.CutPrefix(docPath, strings.TrimSuffix(root, "/")+"/"); ok {
			return rel
		}
	}
	return path.Base(docPath)
}

func uriPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Path == "" {
		return uri
	}
	return parsed.Path
}

// convert maps parser diagnostics to protocol diagnostics. Parser columns
// count characters; UTF-16 clients get code units instead.
func (s *Server) convert(text string, diagnostics []sql.Diagnostic) []lsp.Diagnostic {
	var lines []string
	if s.utf16Positions {
		lines = strings.Split(text, "\n")
	}

	position := func(p sql.TokenPosition) lsp.Position {
		if !s.utf16Positions || p.Line >= len(lines) {
			return lsp.Position{Line: p.Line, Character: p.Column}
		}
		return lsp.Position{Line: p.Line, Character: utf16Column(lines[p.Line], p.Column)}
	}

	result := make([]lsp.Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		result[i] = lsp.Diagnostic{
			Range:    lsp.Range{Start: position(d.Start), End: position(d.End)},
			Severity: lsp.Error,
			Code:     d.Kind.String(),
			Source:   diagnosticSource,
			Message:  d.Message,
		}
	}
	return result
}

// utf16Column converts a character column on line to UTF-16 code units.
func utf16Column(line string, column int) int {
	units := 0
	for _, r := range line {
		if column == 0 {
			break
		}
		units += utf16.RuneLen(r)
		column--
	}
	return units + column
}

func (s *Server) publish(ctx context.Context, conn *jsonrpc2.Conn, uri lsp.DocumentURI, diagnostics []lsp.Diagnostic) {
	params := lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics}
	if err := conn.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
		s.logger.Error("failed to publish diagnostics", "uri", uri, "error", err)
	}
}
