package check

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/ps"
	"github.com/jcgsville/postgresql-parsing/sql"
)

type Engine struct {
	logger    hclog.Logger
	reference Reference
}

type Option func(*Engine)

func WithLogger(logger hclog.Logger) Option {
	return func(engine *Engine) {
		engine.logger = logger
	}
}

// WithReference adds a second-opinion parser to every check.
func WithReference(reference Reference) Option {
	return func(engine *Engine) {
		engine.reference = reference
	}
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Check parses doc. A failing reference parser is logged and leaves
// Result.Reference nil.
func (engine *Engine) Check(ctx context.Context, doc core.Document) Result {
	startTime := time.Now()

	tokens := sql.Tokenize(doc.Text)
	parser := sql.NewTokenParser(tokens)
	tree := parser.Parse()

	result := Result{
		Document:    doc,
		Tree:        tree,
		Diagnostics: parser.Diagnostics(),
		TokenCount:  len(tokens),
	}

	if engine.reference != nil {
		verdict, err := engine.reference.Verdict(ctx, doc.Text)
		if err != nil {
			engine.logger.Warn("reference parser failed", "path", doc.Path, "error", err)
		} else {
			result.Reference = &verdict
		}
	}

	result.ExecutionTimeSec = time.Since(startTime).Seconds()
	engine.logger.Debug("checked document",
		"path", doc.Path,
		"commands", len(tree.Commands),
		"diagnostics", len(result.Diagnostics),
		"duration", result.ExecutionTime())
	return result
}

// CheckPath loads a local or remote script and checks it.
func (engine *Engine) CheckPath(ctx context.Context, path string, cfg *S3Config) (Result, error) {
	doc, err := LoadDocument(ctx, path, cfg)
	if err != nil {
		engine.logger.Error("failed to load document", "path", path, "error", err)
		return Result{}, err
	}
	return engine.Check(ctx, doc), nil
}

// CheckPersistence checks every .sql document at the store's HEAD.
func (engine *Engine) CheckPersistence(ctx context.Context, persistence *ps.Persistence) ([]Result, error) {
	docs, err := persistence.ListDocuments()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, engine.Check(ctx, doc))
	}

	engine.logger.Info("checked repository", "documents", len(results), "head", persistence.LatestTransaction().Id)
	return results, nil
}

// Close releases the reference parser, if any.
func (engine *Engine) Close() error {
	if engine.reference != nil {
		return engine.reference.Close()
	}
	return nil
}
