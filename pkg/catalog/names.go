package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of an identifier. Two identifiers name
// the same object when their folded forms are equal.
func Fold(name string) string {
	return cases.Fold().String(name)
}

// EqualName reports whether two identifiers are the same name.
func EqualName(a, b string) bool {
	return Fold(a) == Fold(b)
}

// HasSuffix reports whether the qualified name full ends with the segments
// of partial. An empty partial never matches.
func HasSuffix(full, partial []string) bool {
	if len(partial) == 0 || len(partial) > len(full) {
		return false
	}
	offset := len(full) - len(partial)
	for i, seg := range partial {
		if Fold(full[offset+i]) != Fold(seg) {
			return false
		}
	}
	return true
}

// JoinPath renders a path as a dotted name.
func JoinPath(path []string) string {
	return strings.Join(path, ".")
}

// SplitPath splits a dotted name into segments.
func SplitPath(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}

// MatchSuffix returns the candidates whose name ends with path. name extracts
// the qualified name of a candidate.
func MatchSuffix[T any](candidates []T, path []string, name func(T) []string) []T {
	var out []T
	for _, c := range candidates {
		if HasSuffix(name(c), path) {
			out = append(out, c)
		}
	}
	return out
}
