package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"600519", 6},
		{"贵州茅台", 8},
		{"万科A", 5},
		{"量比", 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, displayWidth(tt.in), tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "基本面良…", truncate("基本面良好估值合理", 4))
	assert.Equal(t, "abc", truncate("abc", 3))
}
