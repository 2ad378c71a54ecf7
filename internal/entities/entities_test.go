package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAuditEventType(t *testing.T) {
	for _, known := range AuditEventTypes {
		got, ok := ParseAuditEventType(string(known))
		assert.True(t, ok, known)
		assert.Equal(t, known, got)
	}

	got, ok := ParseAuditEventType("")
	assert.True(t, ok)
	assert.Empty(t, got)

	_, ok = ParseAuditEventType("highlights")
	assert.False(t, ok)
}
