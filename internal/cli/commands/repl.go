package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/fedsql/internal/cli/output"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/parser"
	"github.com/leapstack-labs/fedsql/pkg/resolver"
)

const (
	replPrompt     = "fedsql> "
	replContPrompt = "   ...> "
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Resolve statements interactively",
		Long: `Start an interactive shell that resolves each statement against the
catalog. Temp tables created in the shell stay visible until .reset.

Statements end with a semicolon and may span lines.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt := GetRuntime(ctx)

	cat, desc, err := rt.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	sh := newShell(rt.NewResolver(cat), cat, rt.Renderer)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(rt.Config.StatePath), "repl_history"),
		AutoComplete:    newGroupCompleter(cat),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	rt.Renderer.Println("fedsql shell (catalog: %s)", desc)
	rt.Renderer.Println("Type .help for commands, .quit to exit")
	rt.Renderer.Println("")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			sh.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if sh.Feed(ctx, line) {
			return nil
		}
		rl.SetPrompt(sh.Prompt())
	}
}

// shell holds the state of one interactive session.
type shell struct {
	r        *resolver.Resolver
	cat      *catalog.Memory
	out      *output.Renderer
	session  *resolver.Session
	bindings bool
	buf      strings.Builder
}

func newShell(r *resolver.Resolver, cat *catalog.Memory, out *output.Renderer) *shell {
	return &shell{r: r, cat: cat, out: out, session: resolver.NewSession()}
}

// Prompt returns the prompt for the next line.
func (s *shell) Prompt() string {
	if s.buf.Len() > 0 {
		return replContPrompt
	}
	return replPrompt
}

// Feed consumes one input line. It reports whether the shell should exit.
func (s *shell) Feed(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}
	text := s.buf.String()
	s.buf.Reset()
	s.run(ctx, text)
	return false
}

func (s *shell) run(ctx context.Context, text string) {
	stmts, err := parser.ParseScript(text)
	if err != nil {
		renderResultText(s.out, statementResult{Source: "input", Index: 1, Error: describeError(err)})
		return
	}
	env := &resolver.Environment{Session: s.session}
	errs, err := s.r.ResolveAll(ctx, stmts, env, 1)
	if err != nil {
		s.out.Error("error: %v", err)
		return
	}
	for i, stmt := range stmts {
		renderResultText(s.out, reportStatement("input", i+1, stmt, errs[i], resolveOptions{Bindings: s.bindings}))
	}
}

func (s *shell) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		s.out.Println("%s", replHelp)
	case ".groups":
		rows := [][]any{}
		for _, g := range s.cat.Groups() {
			rows = append(rows, []any{g.FullName(), g.Kind.String(), len(g.Columns)})
		}
		s.out.Table([]string{"group", "kind", "columns"}, rows)
	case ".temps":
		temps := s.session.TempTables()
		if len(temps) == 0 {
			s.out.Muted("no temp tables")
			break
		}
		rows := make([][]any, 0, len(temps))
		for _, t := range temps {
			cols := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				cols[i] = c.Name + " " + c.Type.String()
			}
			rows = append(rows, []any{t.Name, strings.Join(cols, ", ")})
		}
		s.out.Table([]string{"temp table", "columns"}, rows)
	case ".bindings":
		s.bindings = !s.bindings
		s.out.Muted("bindings %s", onOff(s.bindings))
	case ".reset":
		s.session = resolver.NewSession()
		s.out.Muted("session reset")
	default:
		s.out.Error("Unknown command: %s (type .help for commands)", parts[0])
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

const replHelp = `Commands:
  .help       Show this help message
  .groups     List catalog groups
  .temps      List temp tables created in this session
  .bindings   Toggle printing of column bindings
  .reset      Drop all temp tables
  .quit       Exit the shell

Statements end with a semicolon (;) and may span lines.`

// newGroupCompleter completes group names and dot-commands.
func newGroupCompleter(cat *catalog.Memory) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, g := range cat.Groups() {
		items = append(items, readline.PcItem(g.FullName()))
	}
	for _, c := range []string{".help", ".groups", ".temps", ".bindings", ".reset", ".quit"} {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}
