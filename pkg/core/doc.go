// Package core defines the statement tree shared by the parser, the
// resolver and the renderer.
//
// This package contains:
//   - Node interfaces (Node, Expr, Stmt, TableRef, QueryCommand)
//   - Query, command and procedure-language statements
//   - Resolution symbols (GroupSymbol, ElementSymbol) written into the tree
//
// The parser produces unresolved trees. The resolver mutates them in place:
// it binds symbols, assigns expression types and wraps arguments in
// implicit CastExpr nodes.
//
// pkg/core imports ONLY pkg/token, pkg/types, pkg/catalog and stdlib.
package core
