package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("Patchy light RAIN", "snow", "rain"))
	assert.False(t, HasAny("Sunny", "rain"))
	assert.False(t, HasAny("Sunny"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2150", 2150, true},
		{"₹ 2,150.50 /qtl", 2150.5, true},
		{"Rs.1,800", 1800, true},
		{"-1.2%", -1.2, true},
		{"12.", 12, true},
		{"n/a", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
