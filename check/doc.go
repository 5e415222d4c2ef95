// Package check runs the parser over whole SQL documents.
//
// An Engine checks documents from memory, from local or remote paths
// (file://, http(s)://, s3://) and from a git-backed document store, and
// returns a Result per document with the tree, the diagnostics and timing.
//
// # Engine Usage
//
//	engine := check.NewEngine(check.WithLogger(logger))
//	result, err := engine.CheckPath(ctx, "s3://bucket/reports.sql", &check.S3Config{Region: "eu-west-1"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Display(os.Stdout)
//
// # Reference Parser
//
// WithReference attaches a second parser whose verdict is reported next
// to the diagnostics. NewDuckDBReference uses an in-memory DuckDB.
package check
