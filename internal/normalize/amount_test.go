package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"plain integer string", "200", 200},
		{"currency symbol and decimals", "$200.00", 200},
		{"thousands separators", "1,234.50", 1234.5},
		{"negative with symbol", "-$45.10", -45.1},
		{"already numeric", 99.5, 99.5},
		{"int input", 42, 42},
		{"empty string", "", 0},
		{"whitespace only", "   ", 0},
		{"garbage", "abc", 0},
		{"nil", nil, 0},
		{"unsupported type", []string{"x"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceAmount(tt.value))
		})
	}
}

func TestCoerceDate(t *testing.T) {
	got := CoerceDate("2024-01-05")
	if assert.NotNil(t, got) {
		assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), *got)
	}

	got = CoerceDate("2024-03-01T10:30:00Z")
	if assert.NotNil(t, got) {
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *got)
	}

	assert.Nil(t, CoerceDate(""))
	assert.Nil(t, CoerceDate("not a date"))
	assert.Nil(t, CoerceDate("13/45/9999"))
}
