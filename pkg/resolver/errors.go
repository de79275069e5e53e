package resolver

import (
	"fmt"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

// Category groups failure reasons the way callers report them.
type Category int

// Error categories.
const (
	CategoryLookup Category = iota
	CategoryType
	CategoryScoping
	CategoryShape
)

func (c Category) String() string {
	switch c {
	case CategoryLookup:
		return "lookup"
	case CategoryType:
		return "type"
	case CategoryScoping:
		return "scoping"
	default:
		return "shape"
	}
}

// Reason identifies a resolution failure. Reasons are stable across
// releases; messages are not.
type Reason int

// Failure reasons.
const (
	// Lookup
	ReasonGroupNotFound Reason = iota
	ReasonGroupAmbiguous
	ReasonElementNotFound
	ReasonElementAmbiguous
	ReasonFunctionNotFound
	ReasonFunctionAmbiguous
	ReasonProcedureNotFound
	ReasonProcedureAmbiguous
	ReasonOrderByNotFound

	// Type
	ReasonNoConversion
	ReasonNotRepresentable
	ReasonConstantRequired
	ReasonArity
	ReasonSetArity
	ReasonSetType
	ReasonCriteria

	// Scoping
	ReasonDuplicateGroup
	ReasonUnknownGroupContext
	ReasonVariableRedeclared
	ReasonNotAssignable
	ReasonCursorReused
	ReasonLoopControl
	ReasonTempExists
	ReasonViewDepth
	ReasonNotUpdatable

	// Shape
	ReasonDuplicateColumn
	ReasonProcedureShape
	ReasonParameter
	ReasonScalarSubquery
	ReasonInvalidDefinition
)

var reasonNames = [...]string{
	ReasonGroupNotFound:       "group_not_found",
	ReasonGroupAmbiguous:      "group_ambiguous",
	ReasonElementNotFound:     "element_not_found",
	ReasonElementAmbiguous:    "element_ambiguous",
	ReasonFunctionNotFound:    "function_not_found",
	ReasonFunctionAmbiguous:   "function_ambiguous",
	ReasonProcedureNotFound:   "procedure_not_found",
	ReasonProcedureAmbiguous:  "procedure_ambiguous",
	ReasonOrderByNotFound:     "order_by_not_found",
	ReasonNoConversion:        "no_conversion",
	ReasonNotRepresentable:    "not_representable",
	ReasonConstantRequired:    "constant_required",
	ReasonArity:               "arity",
	ReasonSetArity:            "set_arity",
	ReasonSetType:             "set_type",
	ReasonCriteria:            "criteria",
	ReasonDuplicateGroup:      "duplicate_group",
	ReasonUnknownGroupContext: "unknown_group_context",
	ReasonVariableRedeclared:  "variable_redeclared",
	ReasonNotAssignable:       "not_assignable",
	ReasonCursorReused:        "cursor_reused",
	ReasonLoopControl:         "loop_control",
	ReasonTempExists:          "temp_exists",
	ReasonViewDepth:           "view_depth",
	ReasonNotUpdatable:        "not_updatable",
	ReasonDuplicateColumn:     "duplicate_column",
	ReasonProcedureShape:      "procedure_shape",
	ReasonParameter:           "parameter",
	ReasonScalarSubquery:      "scalar_subquery",
	ReasonInvalidDefinition:   "invalid_definition",
}

func (r Reason) String() string {
	if r >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Category returns the category a reason belongs to.
func (r Reason) Category() Category {
	switch {
	case r <= ReasonOrderByNotFound:
		return CategoryLookup
	case r <= ReasonCriteria:
		return CategoryType
	case r <= ReasonNotUpdatable:
		return CategoryScoping
	default:
		return CategoryShape
	}
}

// ResolutionError is the single error kind reported for a statement that
// cannot be resolved. Catalog failures other than not-found and ambiguous
// lookups are returned unchanged instead.
type ResolutionError struct {
	Reason  Reason
	Message string
	Pos     token.Position
}

func (e *ResolutionError) Error() string {
	return "resolution error: " + e.Message
}

// Category returns the failure category.
func (e *ResolutionError) Category() Category {
	return e.Reason.Category()
}

// Error messages.
const (
	ErrGroupNotFound        = "Group does not exist: %s"
	ErrGroupAmbiguous       = "Group %s is ambiguous, qualify further: %s"
	ErrDuplicateGroup       = "Group %s is specified more than once in the same scope"
	ErrElementNotFound      = "Element %q is not defined by any relevant group"
	ErrElementAmbiguous     = "Element %q is ambiguous, it exists in more than one group: %s"
	ErrUnknownGroupContext  = "Unknown group context %s for element %s"
	ErrStarGroup            = "Group %s in %s.* does not own any columns in this scope"
	ErrFunctionNotFound     = "The function %s(%s) is unknown, or no signature accepts the argument types"
	ErrFunctionAmbiguous    = "The function %s is ambiguous, candidates: %s"
	ErrConstantRequired     = "Argument %d of %s must be a constant"
	ErrProcedureNotFound    = "Procedure does not exist: %s"
	ErrProcedureAmbiguous   = "Procedure %s is ambiguous, qualify further: %s"
	ErrOrderByNotFound      = "ORDER BY item %s is not found in SELECT clause"
	ErrOrderByPosition      = "ORDER BY position %d is out of range, the query projects %d columns"
	ErrOrderByUnrelated     = "ORDER BY item %s must appear in the SELECT clause when DISTINCT is used"
	ErrOrderByAmbiguous     = "ORDER BY item %s matches more than one projected column"
	ErrNoConversion         = "Cannot convert %s of type %s to %s"
	ErrNoCommonType         = "Types %s and %s of %s have no common type"
	ErrExplicitConversion   = "Cannot convert %s from %s to %s"
	ErrNotRepresentable     = "Constant %s cannot be represented as %s"
	ErrAssignType           = "Cannot set symbol %s with expected type %s to expression %s"
	ErrInsertArity          = "INSERT into %s names %d columns but supplies %d values"
	ErrSetArity             = "Queries combined with %s must have the same number of output elements: branch %d projects %d, expected %d"
	ErrSetType              = "Queries combined with %s have no common type for column %d: branch %d projects %s, expected %s"
	ErrSetOrderConversion   = "Column %d of an ordered %s branch cannot be converted from %s to %s"
	ErrCriteria             = "Expression %s must be boolean, found %s"
	ErrVariableRedeclared   = "Variable %s was previously declared"
	ErrNotAssignable        = "Cannot assign to %s, it is not a declared variable"
	ErrReadOnly             = "Cannot assign to %s, group %s is read-only"
	ErrCursorReused         = "Nested loop cannot use same cursor name as parent: %s"
	ErrLoopControl          = "%s is only allowed inside a loop"
	ErrTempExists           = "Temporary table %s already exists"
	ErrViewDepth            = "View %s exceeds the maximum nesting depth of %d"
	ErrViewCycle            = "View %s is defined in terms of itself"
	ErrNotUpdatable         = "Element %s is not updatable"
	ErrNotSelectable        = "Element %s is not selectable"
	ErrDuplicateColumn      = "Cannot create group %s with multiple columns named %s"
	ErrProcedureShape       = "Procedure %s cannot be used as a table, its parameter and result names are not unique: %s"
	ErrMissingParameter     = "Required parameter %s of procedure %s was not supplied"
	ErrUnknownParameter     = "Procedure %s has no input parameter named %s"
	ErrDuplicateArgument    = "Parameter %s of procedure %s is supplied more than once"
	ErrTooManyArguments     = "Procedure %s takes %d input parameters but %d arguments were supplied"
	ErrMixedArguments       = "Procedure %s cannot take both named and positional arguments"
	ErrScalarSubquery       = "A scalar subquery must project exactly one column, found %d"
	ErrInvalidDefinition    = "Definition of %s is invalid: %v"
	ErrRowShape             = "Group %s has %d columns but %d are supplied"
	ErrUnsupportedStatement = "Statement %T cannot be resolved"
)

func newError(node core.Node, reason Reason, format string, args ...any) *ResolutionError {
	e := &ResolutionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
	if node != nil {
		e.Pos = node.Pos()
	}
	return e
}
