package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/fedsql/internal/cli/output"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/parser"
	"github.com/leapstack-labs/fedsql/pkg/resolver"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// statementResult is the report for one statement.
type statementResult struct {
	Source   string             `json:"source"`
	Index    int                `json:"index"`
	SQL      string             `json:"sql,omitempty"`
	Columns  []columnResult     `json:"columns,omitempty"`
	Bindings []resolver.Binding `json:"bindings,omitempty"`
	Error    *errorResult       `json:"error,omitempty"`
}

type columnResult struct {
	Name string         `json:"name"`
	Type types.DataType `json:"type"`
}

type errorResult struct {
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func describeError(err error) *errorResult {
	var re *resolver.ResolutionError
	if errors.As(err, &re) {
		return &errorResult{
			Reason:   re.Reason.String(),
			Category: re.Category().String(),
			Message:  re.Message,
			Line:     re.Pos.Line,
			Column:   re.Pos.Column,
		}
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &errorResult{Reason: "parse", Message: pe.Message, Line: pe.Pos.Line, Column: pe.Pos.Column}
	}
	return &errorResult{Message: err.Error()}
}

// resolveOptions controls what a statement report includes.
type resolveOptions struct {
	Bindings bool
}

// resolveScript parses text and resolves its statements in order within
// one session, so temp tables created early are visible later. A parse
// failure is reported as a single failed result.
func resolveScript(ctx context.Context, r *resolver.Resolver, source, text string, opts resolveOptions) ([]statementResult, error) {
	stmts, err := parser.ParseScript(text)
	if err != nil {
		return []statementResult{{Source: source, Index: 1, Error: describeError(err)}}, nil
	}

	env := &resolver.Environment{Session: resolver.NewSession()}
	errs, err := r.ResolveAll(ctx, stmts, env, 1)
	if err != nil {
		return nil, err
	}

	results := make([]statementResult, len(stmts))
	for i, stmt := range stmts {
		results[i] = reportStatement(source, i+1, stmt, errs[i], opts)
	}
	return results, nil
}

func reportStatement(source string, index int, stmt core.Stmt, err error, opts resolveOptions) statementResult {
	res := statementResult{Source: source, Index: index, SQL: format.String(stmt)}
	if err != nil {
		res.Error = describeError(err)
		return res
	}
	if q, ok := stmt.(core.QueryCommand); ok {
		for _, col := range q.Projected() {
			res.Columns = append(res.Columns, columnResult{Name: col.Name, Type: col.Type})
		}
	}
	if opts.Bindings {
		res.Bindings = resolver.Bindings(stmt)
	}
	return res
}

// resolveProcedure resolves the body of a virtual procedure.
func resolveProcedure(r *resolver.Resolver, name string, opts resolveOptions) statementResult {
	block, err := r.ResolveProcedure(catalog.SplitPath(name))
	if block == nil {
		return statementResult{Source: name, Index: 1, Error: describeError(err)}
	}
	return reportStatement(name, 1, block, err, opts)
}

// countFailed returns how many results carry an error.
func countFailed(results []statementResult) int {
	n := 0
	for _, res := range results {
		if res.Error != nil {
			n++
		}
	}
	return n
}

// renderResults writes results in the renderer's mode. It returns an error
// when any statement failed.
func renderResults(r *output.Renderer, results []statementResult) error {
	failed := countFailed(results)
	if r.Mode() == output.ModeJSON {
		if err := r.JSON(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			renderResultText(r, res)
		}
		summary := fmt.Sprintf("%d statement(s), %d failed", len(results), failed)
		if failed == 0 {
			r.Success("%s", summary)
		} else {
			r.Muted("%s", summary)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statement(s) failed to resolve", failed, len(results))
	}
	return nil
}

func renderResultText(r *output.Renderer, res statementResult) {
	r.Header("%s #%d", res.Source, res.Index)
	if res.SQL != "" {
		r.Println("%s", res.SQL)
	}
	if res.Error != nil {
		where := ""
		if res.Error.Line > 0 {
			where = fmt.Sprintf(" (line %d, column %d)", res.Error.Line, res.Error.Column)
		}
		tag := res.Error.Reason
		if res.Error.Category != "" {
			tag = res.Error.Category + "/" + tag
		}
		if tag != "" {
			tag = "[" + tag + "] "
		}
		r.Error("error: %s%s%s", tag, res.Error.Message, where)
		return
	}
	if len(res.Columns) > 0 {
		rows := make([][]any, len(res.Columns))
		for i, c := range res.Columns {
			rows[i] = []any{i + 1, c.Name, c.Type.String()}
		}
		r.Table([]string{"#", "column", "type"}, rows)
	}
	if len(res.Bindings) > 0 {
		rows := make([][]any, len(res.Bindings))
		for i, b := range res.Bindings {
			group := b.Group
			if b.Definition != "" && !strings.EqualFold(b.Definition, b.Group) {
				group += " (" + b.Definition + ")"
			}
			correlated := ""
			if b.Correlated {
				correlated = "yes"
			}
			rows[i] = []any{b.Reference, group, b.Element, b.Type.String(), correlated, fmt.Sprintf("%d:%d", b.Pos.Line, b.Pos.Column)}
		}
		r.Table([]string{"reference", "group", "element", "type", "correlated", "pos"}, rows)
	}
	r.Println("")
}
