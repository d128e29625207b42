package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ops  int
	}{
		{"2+2", 4, 1},
		{"2 + 3 * 4", 14, 2},
		{"(2 + 3) * 4", 20, 2},
		{"10 / 4", 2.5, 1},
		{"10 % 4", 2, 1},
		{"2^3^2", 512, 2},
		{"2**10", 1024, 1},
		{"-2^2", -4, 1},
		{"-(3 - 5)", 2, 1},
		{"6 × 7", 42, 1},
		{"9 ÷ 3", 3, 1},
		{"1_000 * 2", 2000, 1},
		{"1.5e3 + 1", 1501, 1},
		{"sqrt(16) + abs(-2)", 6, 3},
		{"round(pi * 100)", 314, 2},
		{"42", 42, 0},
		{"  .5  ", 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ex, err := Eval(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, ex.Value, 1e-9)
			assert.Equal(t, tt.ops, ex.Ops)
		})
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrSyntax},
		{"2 +", ErrSyntax},
		{"(2 + 3", ErrSyntax},
		{"2 3", ErrSyntax},
		{"1 / 0", ErrDivByZero},
		{"5 % 0", ErrDivByZero},
		{"hello", ErrUnknownName},
		{"sqrt 4", ErrSyntax},
		{"1.2.3", ErrSyntax},
		{"sqrt(-1)", ErrNotFinite},
		{"10^400", ErrNotFinite},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Eval(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsCalculation(t *testing.T) {
	ex, err := Eval("e")
	require.NoError(t, err)
	assert.False(t, ex.IsCalculation())
	assert.InDelta(t, math.E, ex.Value, 1e-12)

	ex, err = Eval("e*2")
	require.NoError(t, err)
	assert.True(t, ex.IsCalculation())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "4", Format(4))
	assert.Equal(t, "1,234,567", Format(1234567))
	assert.Equal(t, "0.3", Format(0.1+0.2))
	assert.Equal(t, "-2.5", Format(-2.5))
}
