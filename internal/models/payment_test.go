// internal/models/payment_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataUserID(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		wantID   int64
		wantOK   bool
	}{
		{"string id", map[string]any{"user_id": "42"}, 42, true},
		{"json number", map[string]any{"user_id": float64(42)}, 42, true},
		{"int64", map[string]any{"user_id": int64(42)}, 42, true},
		{"int", map[string]any{"user_id": 42}, 42, true},
		{"guest sentinel", map[string]any{"user_id": GuestSentinel}, 0, false},
		{"empty string", map[string]any{"user_id": ""}, 0, false},
		{"zero", map[string]any{"user_id": "0"}, 0, false},
		{"negative", map[string]any{"user_id": "-3"}, 0, false},
		{"garbage", map[string]any{"user_id": "abc"}, 0, false},
		{"missing key", map[string]any{}, 0, false},
		{"nil metadata", nil, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := MetadataUserID(tc.metadata)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestMetadataPlanName(t *testing.T) {
	name, ok := MetadataPlanName(map[string]any{"plan_name": "Growth"})
	assert.True(t, ok)
	assert.Equal(t, "Growth", name)

	_, ok = MetadataPlanName(map[string]any{"plan_name": "  "})
	assert.False(t, ok)

	_, ok = MetadataPlanName(nil)
	assert.False(t, ok)
}
