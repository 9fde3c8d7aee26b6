package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFine(t *testing.T) {
	due := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		returnedAt time.Time
		want       int64
	}{
		{"returned early", due.Add(-72 * time.Hour), 0},
		{"returned exactly on due", due, 0},
		{"less than a full day late", due.Add(23*time.Hour + 59*time.Minute), 0},
		{"25 hours late", due.Add(25 * time.Hour), 10},
		{"48 hours late", due.Add(48 * time.Hour), 20},
		{"ten and a half days late", due.Add(10*24*time.Hour + 12*time.Hour), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fine(due, tt.returnedAt)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "want %d, got %s", tt.want, got)
		})
	}
}

func TestFine_NeverNegative(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := -100; h <= 100; h += 7 {
		got := Fine(due, due.Add(time.Duration(h)*time.Hour))
		assert.False(t, got.IsNegative(), "offset %dh", h)
	}
}
