package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

func mustProfile(t *testing.T, name string) model.FormatProfile {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	p, err := reg.Lookup(name)
	require.NoError(t, err)
	return p
}

func TestSerialize(t *testing.T) {
	xs := []float64{10.0, 10.02}
	ys := []float32{123.4, 125.0}

	t.Run("Asc", func(t *testing.T) {
		assert.Equal(t, "10.0000 123.4\n10.0200 125.0\n", Serialize(xs, ys, mustProfile(t, "asc")))
	})
	t.Run("CsvStd", func(t *testing.T) {
		assert.Equal(t, "10.0000,123.4\n10.0200,125.0\n", Serialize(xs, ys, mustProfile(t, "csv_std")))
	})
	t.Run("CsvRu", func(t *testing.T) {
		assert.Equal(t, "10,0000;123,4\n10,0200;125,0\n", Serialize(xs, ys, mustProfile(t, "csv_ru")))
	})
	t.Run("SemicolonWithDot", func(t *testing.T) {
		p := model.FormatProfile{Delimiter: ";", DecimalSeparator: ".", XPrecision: 4, YPrecision: 1}
		assert.Equal(t, "10.0000;123.4\n10.0200;125.0\n", Serialize(xs, ys, p))
	})
}

func TestSerializeCustomProfile(t *testing.T) {
	p := model.FormatProfile{Name: "tab", Extension: "xy", Delimiter: "\t", DecimalSeparator: "·", XPrecision: 2, YPrecision: 0}
	out := Serialize([]float64{-1.005, 2}, []float32{7.5, 1000}, p)
	assert.Equal(t, "-1·00\t8\n2·00\t1000\n", out)
}

func TestSerializeRoundsHalfAwayFromZero(t *testing.T) {
	p := mustProfile(t, "csv_ru")
	ys := []float32{123.25, -0.25, 0.35, 2.75, float32(math.Copysign(0, -1))}
	xs := []float64{0.03125, -0.15625, 0.5, 10.02, 0}
	assert.Equal(t,
		"0,0313;123,3\n-0,1563;-0,3\n0,5000;0,3\n10,0200;2,8\n0,0000;0,0\n",
		Serialize(xs, ys, p))
}

func TestSerializeSpecialValues(t *testing.T) {
	ys := []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))}
	out := Serialize([]float64{1, 2, math.NaN()}, ys, mustProfile(t, "csv_ru"))
	assert.Equal(t, "1,0000;NaN\n2,0000;Infinity\nNaN;-Infinity\n", out)
}

func TestSerializeLengthMismatchTruncates(t *testing.T) {
	p := mustProfile(t, "asc")
	assert.Equal(t, "1.0000 5.0\n", Serialize([]float64{1, 2, 3}, []float32{5}, p))
	assert.Equal(t, "1.0000 5.0\n", Serialize([]float64{1}, []float32{5, 6}, p))
	assert.Equal(t, "", Serialize(nil, nil, p))
}

func TestSerializeIdempotent(t *testing.T) {
	xs := make([]float64, 500)
	ys := make([]float32, 500)
	for i := range xs {
		xs[i] = 5 + float64(i)*0.01
		ys[i] = float32(i) * 1.37
	}
	p := mustProfile(t, "csv_ru")
	assert.Equal(t, Serialize(xs, ys, p), Serialize(xs, ys, p))
}
