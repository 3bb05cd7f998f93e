package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid UUID", "550e8400-e29b-41d4-a716-446655440000", nil},
		{"valid alphanumeric", "checkout_PYR-1", nil},
		{"empty key", "", ErrKeyRequired},
		{"too long", strings.Repeat("a", 256), ErrKeyTooLong},
		{"exactly 255 chars", strings.Repeat("a", 255), nil},
		{"spaces", "abc 123", ErrKeyInvalid},
		{"special chars", "abc@123", ErrKeyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateKey(tt.key))
		})
	}
}

func TestComputeFingerprint(t *testing.T) {
	body := []byte(`{"sessionId":"s-1"}`)
	got := ComputeFingerprint("POST", "/api/v1/sessions/s-1/checkout", body)

	assert.Len(t, got, 64)
	assert.Equal(t, got, ComputeFingerprint("POST", "/api/v1/sessions/s-1/checkout", body))
	assert.NotEqual(t, got, ComputeFingerprint("POST", "/api/v1/sessions/s-2/checkout", body))
	assert.NotEqual(t, got, ComputeFingerprint("PUT", "/api/v1/sessions/s-1/checkout", body))
	assert.NotEqual(t, got, ComputeFingerprint("POST", "/api/v1/sessions/s-1/checkout", []byte(`{}`)))
}

func TestNormalizeKey(t *testing.T) {
	for _, key := range []string{"abc123", "  abc123", "abc123  ", "\tabc123\t"} {
		assert.Equal(t, "abc123", NormalizeKey(key))
	}
}

func BenchmarkComputeFingerprint(b *testing.B) {
	body := []byte(`{"productId":"P-1","variantIndex":0,"locationId":"L-1"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeFingerprint("POST", "/api/v1/pricing/quote", body)
	}
}
