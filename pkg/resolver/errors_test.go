package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReason_NamesAndCategories(t *testing.T) {
	tests := []struct {
		reason   Reason
		name     string
		category Category
	}{
		{ReasonGroupNotFound, "group_not_found", CategoryLookup},
		{ReasonOrderByNotFound, "order_by_not_found", CategoryLookup},
		{ReasonNoConversion, "no_conversion", CategoryType},
		{ReasonCriteria, "criteria", CategoryType},
		{ReasonDuplicateGroup, "duplicate_group", CategoryScoping},
		{ReasonNotUpdatable, "not_updatable", CategoryScoping},
		{ReasonDuplicateColumn, "duplicate_column", CategoryShape},
		{ReasonInvalidDefinition, "invalid_definition", CategoryShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.reason.String())
			assert.Equal(t, tt.category, tt.reason.Category())
		})
	}
	assert.Equal(t, "reason(99)", Reason(99).String())
}

func TestResolutionError_Message(t *testing.T) {
	err := &ResolutionError{Reason: ReasonParameter, Message: "Required parameter in1 of procedure pm1.sq3 was not supplied"}
	assert.Equal(t, "resolution error: Required parameter in1 of procedure pm1.sq3 was not supplied", err.Error())
	assert.Equal(t, CategoryShape, err.Category())
	assert.Equal(t, "shape", err.Category().String())
}
