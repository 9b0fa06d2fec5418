package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"$500", 500, true},
		{"$0", 0, true},
		{"$12.50", 12.5, true},
		{" $75 ", 75, true},
		{"300", 300, true},
		{"", 0, false},
		{"$", 0, false},
		{"free", 0, false},
		{"$1,200", 0, false},
		{"$NaN", 0, false},
		{"$Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
