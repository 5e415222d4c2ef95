package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	postgresql "github.com/jcgsville/postgresql-parsing"
	"github.com/spf13/cobra"
)

const maxHistory = 1000

// CLI holds the interactive prompt state
type CLI struct {
	out         io.Writer
	history     []string
	historyFile string
	showTokens  bool
}

func runRepl(cmd *cobra.Command) error {
	cli := &CLI{
		out:         cmd.OutOrStdout(),
		history:     make([]string, 0),
		historyFile: getHistoryPath(),
	}
	cli.loadHistory()
	cli.printBanner()
	cli.run(cmd.InOrStdin())
	cli.saveHistory()
	return nil
}

func (cli *CLI) printBanner() {
	fmt.Fprintln(cli.out)
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("pgparse v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Fprintf(cli.out, "%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(cli.out, "%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Fprintf(cli.out, "%s%s║   PostgreSQL SELECT subset parser     ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(cli.out, "%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, "Type .help for commands, .quit to exit")
	fmt.Fprintln(cli.out)
}

// run reads statements until EOF or .quit. Input accumulates until a
// line ends with a semicolon.
func (cli *CLI) run(in io.Reader) {
	reader := bufio.NewReader(in)
	var multiLineBuffer strings.Builder

	for {
		fmt.Fprint(cli.out, cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		if strings.TrimSpace(input) == "" {
			continue
		}

		// Special commands only outside a multi-line statement
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ".") {
			if quit := cli.handleCommand(input); quit {
				return
			}
			continue
		}

		if multiLineBuffer.Len() > 0 {
			multiLineBuffer.WriteString("\n")
		}
		multiLineBuffer.WriteString(input)

		text := multiLineBuffer.String()
		if !strings.HasSuffix(strings.TrimSpace(text), ";") {
			continue
		}
		multiLineBuffer.Reset()

		cli.addToHistory(strings.Join(strings.Fields(text), " "))
		cli.evaluate(text)
	}
}

// evaluate prints every command that parsed followed by the diagnostics.
func (cli *CLI) evaluate(text string) {
	if cli.showTokens {
		printTokens(cli.out, text)
	}

	tree, diagnostics := postgresql.ParseWithDiagnostics(text)
	for _, command := range tree.Commands {
		fmt.Fprintf(cli.out, "%s✓ %s%s\n", SuccessColor, command, ResetColor)
	}
	for _, diagnostic := range diagnostics {
		fmt.Fprintf(cli.out, "%s✗ %s%s\n", ErrorColor, diagnostic, ResetColor)
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%spgparse>%s ", PromptColor, ResetColor)
}

// handleCommand runs a dot command and reports whether to quit.
func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case ".quit", ".exit", ".q":
		fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
		return true

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tokens":
		if len(parts) == 2 && (parts[1] == "on" || parts[1] == "off") {
			cli.showTokens = parts[1] == "on"
			fmt.Fprintf(cli.out, "%s✓ Token table %s%s\n", SuccessColor, parts[1], ResetColor)
		} else {
			fmt.Fprintf(cli.out, "%s✗ Usage: .tokens on|off%s\n", ErrorColor, ResetColor)
		}

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Fprintf(cli.out, "pgparse version %s\n", Version)

	default:
		fmt.Fprintf(cli.out, "%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return false
}

func (cli *CLI) printHelp() {
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  .help, .h        Show this help message")
	fmt.Fprintln(cli.out, "  .quit, .exit     Exit the prompt")
	fmt.Fprintln(cli.out, "  .tokens on|off   Print the token table of each statement")
	fmt.Fprintln(cli.out, "  .history         Show statement history")
	fmt.Fprintln(cli.out, "  .clear           Clear the screen")
	fmt.Fprintln(cli.out, "  .version         Show version info")
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sGrammar:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  ;")
	fmt.Fprintln(cli.out, "  SELECT <expr>[, <expr>...] FROM [<schema>.]<table>;")
	fmt.Fprintln(cli.out, "  <expr> is *, <table>.*, <schema>.<table>.*, or a [qualified] column")
	fmt.Fprintln(cli.out)
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last statement
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	if len(cli.history) > maxHistory {
		cli.history = cli.history[len(cli.history)-maxHistory:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No statement history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".postgresql_parsing_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > maxHistory {
		start = len(cli.history) - maxHistory
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}
