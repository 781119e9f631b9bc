package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{9.994, 9.99},
		{9.995, 10.00},
		{0.125, 0.13},
		{-0.125, -0.13},
		{100, 100},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round2(tc.in), "Round2(%v)", tc.in)
	}
}

func TestFormatPEN(t *testing.T) {
	assert.Equal(t, "S/ 9.99", FormatPEN(9.99))
	assert.Equal(t, "S/ 400.00", FormatPEN(400))
	assert.Equal(t, "S/ 0.00", FormatPEN(0))
	assert.Equal(t, "S/ 147.50", FormatPEN(147.5))
}
