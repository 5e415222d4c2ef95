package check

import (
	"fmt"
	"io"

	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/sql"
)

// Result is the outcome of checking one document.
type Result struct {
	Document         core.Document           `json:"document"`
	Tree             *sql.AbstractSyntaxTree `json:"tree"`
	Diagnostics      []sql.Diagnostic        `json:"diagnostics"`
	TokenCount       int                     `json:"token_count"`
	Reference        *ReferenceVerdict       `json:"reference,omitempty"`
	ExecutionTimeSec float64                 `json:"execution_time_sec"`
}

// Valid reports whether every statement of the document parsed.
func (result Result) Valid() bool {
	return len(result.Diagnostics) == 0
}

func (result Result) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	}
	mins := int(secs / 60)
	remainSecs := int(secs) % 60
	if remainSecs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, remainSecs)
}

// Display writes the diagnostics table followed by a summary line.
func (result Result) Display(w io.Writer) {
	name := result.Document.Path
	if name == "" {
		name = "<input>"
	}

	if len(result.Diagnostics) > 0 {
		table := NewTable(w)
		table.Header([]string{"Position", "Kind", "Message"})
		for _, d := range result.Diagnostics {
			table.Row([]string{d.Start.String(), d.Kind.String(), d.Message})
		}
		table.Render()
	}

	commands := 0
	if result.Tree != nil {
		commands = len(result.Tree.Commands)
	}

	status := "ok"
	if !result.Valid() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s: %s, %d command(s), %d diagnostic(s), %d token(s) (%s)\n",
		name, status, commands, len(result.Diagnostics), result.TokenCount, result.ExecutionTime())

	if result.Reference != nil {
		verdict := "accepted"
		if !result.Reference.Accepted {
			verdict = "rejected: " + result.Reference.Message
		}
		fmt.Fprintf(w, "%s: %s %s\n", name, result.Reference.Parser, verdict)
	}
}
