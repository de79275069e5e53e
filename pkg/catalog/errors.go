package catalog

import (
	"fmt"
	"strings"
)

// NotFoundError reports that no catalog object matches a name.
type NotFoundError struct {
	Kind string // "group" or "procedure"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

// AmbiguousError reports that a partial name matches several catalog
// objects.
type AmbiguousError struct {
	Kind    string
	Name    string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s %s is ambiguous, matches: %s", e.Kind, e.Name, strings.Join(e.Matches, ", "))
}
