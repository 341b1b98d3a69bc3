package toa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadiation_EquatorAlwaysDefined(t *testing.T) {
	for doy := 1; doy <= 366; doy++ {
		r := Radiation(0, doy)
		require.False(t, math.IsNaN(r), "doy %d", doy)
		assert.Greater(t, r, 0.0, "doy %d", doy)
	}
}

func TestRadiation_EquinoxSymmetry(t *testing.T) {
	// Declination crosses zero near doy 81 and doy 263.
	for _, doy := range []int{81, 263} {
		north := Radiation(30, doy)
		south := Radiation(-30, doy)
		assert.InEpsilon(t, north, south, 0.01, "doy %d", doy)
	}
}

func TestRadiation_PoleInSummerIsUndefined(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, math.IsNaN(Radiation(90, 172)))
	})
	assert.True(t, math.IsNaN(Radiation(-90, 172)))
	assert.True(t, math.IsNaN(Radiation(80, 355)))
}

func TestRadiation_SummerSolsticeBounds(t *testing.T) {
	r := Radiation(23.5, 172)
	assert.False(t, math.IsNaN(r))
	assert.False(t, math.IsInf(r, 0))
	assert.Greater(t, r, 0.0)
	assert.Less(t, r, 45.0)
	assert.InDelta(t, 41.42, r, 0.01)
}

func TestRadiation_FAOExample(t *testing.T) {
	// 3 September at 20 degrees south.
	assert.InDelta(t, 32.2, Radiation(-20, 246), 0.5)
}

func TestConvert(t *testing.T) {
	assert.InDelta(t, 4.08, Convert(10.0), 1e-12)
	assert.True(t, math.IsNaN(Convert(math.NaN())))
}

func TestEvaluate(t *testing.T) {
	v := Evaluate(45, 100)
	require.True(t, v.OK)
	assert.Equal(t, Radiation(45, 100), v.MJ)
	assert.Equal(t, v.MJ, v.Float())

	undefined := Evaluate(90, 172)
	assert.False(t, undefined.OK)
	assert.True(t, math.IsNaN(undefined.Float()))
}
