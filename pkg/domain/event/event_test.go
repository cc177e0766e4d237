package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopmesh/events/pkg/domain/event"
)

func TestType_IsValid(t *testing.T) {
	for _, known := range event.AllTypes() {
		assert.True(t, known.IsValid(), "catalog type %q must be valid", known)
	}

	assert.False(t, event.Type("").IsValid())
	assert.False(t, event.Type("order_exploded").IsValid())
	assert.False(t, event.Type("ORDER_CREATED").IsValid())
}

func TestAllTypes_NoDuplicates(t *testing.T) {
	seen := make(map[event.Type]bool)
	for _, tp := range event.AllTypes() {
		assert.False(t, seen[tp], "duplicate event type %q", tp)
		seen[tp] = true
	}
	assert.Len(t, seen, 24)
}
