package parser

import (
	"fmt"

	"github.com/leapstack-labs/fedsql/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrUnknownType        = "unknown data type %q"
	ErrExpectedStatement  = "expected a statement, got %s"
	ErrExpectedExpression = "expected an expression, got %s"
	ErrExpectedQuery      = "expected a query, got %s"
	ErrMissingAlias       = "a subquery in FROM must have an alias"
	ErrTrailingInput      = "unexpected %s after end of statement"
	ErrMixedArguments     = "cannot mix named and positional procedure arguments"
)
