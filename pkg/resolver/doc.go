// Package resolver binds parsed statements against a catalog.
//
// Resolution walks a statement once, in place:
//   - group references get a GroupSymbol, searched in the catalog, the
//     session's temp tables and the environment's pseudo-groups
//   - column and variable references get an ElementSymbol, searched
//     through a chain of lexical scopes from the innermost outward
//   - expressions get static types, function calls a catalog signature,
//     and arguments whose type differs from the chosen signature are
//     wrapped in implicit conversions
//   - set operations reconcile the projections of their branches
//
// Failures are reported as *ResolutionError with a stable Reason.
// Resolving a statement twice leaves its bindings unchanged.
package resolver
