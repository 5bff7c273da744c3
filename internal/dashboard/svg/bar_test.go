package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []float64{1100, 0, 250}, []string{"Jan", "Feb", "Mar"}, BarOpts{
		Title:  "Revenue 2024",
		Format: func(v float64) string { return "NGN " + formatTick(v) },
	})
	require.NoError(t, err)
	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Equal(t, 3, strings.Count(out, "<rect"))
	assert.Contains(t, out, "Jan: NGN 1.1K")
	assert.Contains(t, out, `id="revenue-2024-bar-title"`)
}

func TestBarsAllZero(t *testing.T) {
	html, err := Bars(0, 0, []float64{0, 0}, []string{"2023", "2024"}, BarOpts{})
	require.NoError(t, err)
	assert.Contains(t, string(html), `height="0.00"`)
}

func TestBarsRejectsMismatchedInput(t *testing.T) {
	_, err := Bars(420, 220, []float64{1}, []string{"Jan", "Feb"}, BarOpts{})
	require.Error(t, err)
	_, err = Bars(420, 220, nil, nil, BarOpts{})
	require.Error(t, err)
	_, err = Bars(40, 40, []float64{1}, []string{"Jan"}, BarOpts{})
	require.Error(t, err)
}

func TestFormatTick(t *testing.T) {
	assert.Equal(t, "950", formatTick(950))
	assert.Equal(t, "12.50", formatTick(12.5))
	assert.Equal(t, "2.5M", formatTick(2_500_000))
	assert.Equal(t, "1.0B", formatTick(1_000_000_000))
}
