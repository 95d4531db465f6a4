package values

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFraction(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"96,6%", 0.966},
		{"0.966", 0.966},
		{0.966, 0.966},
		{"15", 0.15},
		{15, 0.15},
		{"  7,5 % ", 0.075},
		{"abc", 0},
		{nil, 0},
		{None, 0},
		{Some(40), 0.4},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, ParseFraction(c.in), 1e-12, "input %v", c.in)
	}
	assert.Equal(t, ParseFraction("96,6%"), ParseFraction("0.966"))
}

func TestCleanNumericText(t *testing.T) {
	cases := []struct {
		in   string
		want Opt
	}{
		{"12,5", Some(12.5)},
		{"45%", Some(45)},
		{"1 200", Some(1200)},
		{"-3.25 mm", Some(-3.25)},
		{"", None},
		{"n/a", None},
		{"1.2.3", None},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CleanNumericText(c.in), "input %q", c.in)
	}
}

func TestNormalizeBoundsOrdersBothSides(t *testing.T) {
	pairs := [][2]float64{{88, 48}, {48, 88}, {-3, 7}, {7, 7}, {100, 0.5}}
	for _, p := range pairs {
		lo, hi := NormalizeBounds(Some(p[0]), Some(p[1]))
		require.True(t, lo.Ok)
		require.True(t, hi.Ok)
		assert.LessOrEqual(t, lo.V, hi.V)
	}
}

func TestNormalizeBoundsSingleSided(t *testing.T) {
	lo1, hi1 := NormalizeBounds(Some(0), Some(88))
	lo2, hi2 := NormalizeBounds(Some(math.NaN()), Some(88))
	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
	assert.False(t, lo1.Ok)
	assert.Equal(t, Some(88), hi1)

	lo, hi := NormalizeBounds(Some(30), None)
	assert.Equal(t, Some(30), lo)
	assert.False(t, hi.Ok)

	lo, hi = NormalizeBounds(Some(0), Some(0))
	assert.False(t, lo.Ok)
	assert.False(t, hi.Ok)
}

func TestOpt(t *testing.T) {
	assert.False(t, Some(math.Inf(1)).Ok)
	assert.Equal(t, 3.0, None.Or(3))
	assert.True(t, Some(0.1).Positive())
	assert.False(t, Some(0).Positive())
	assert.False(t, None.Positive())
	assert.Equal(t, "10", Some(10).String())
	assert.Equal(t, "12.5", Some(12.5).String())
	assert.Equal(t, "nan", None.String())
}

func TestCanon(t *testing.T) {
	assert.Equal(t, "SUMATORIACONDICION", Canon("Sumatoria Condición"))
	assert.Equal(t, Canon("SUMATORIA CONDICION"), Canon("sumatoria_condicion"))
	assert.Equal(t, "MERCADOCLIENTE", Canon(" MERCADO-CLIENTE "))
	assert.Equal(t, "PORCCOLORCUBRIMIENTOMIN", Canon("PORC_COLOR CUBRIMIENTO MIN"))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, Some(1.23), Round2(Some(1.234)))
	assert.Equal(t, Some(2.5), Round2(Some(2.5)))
	assert.False(t, Round2(None).Ok)
}
