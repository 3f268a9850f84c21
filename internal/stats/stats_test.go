package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	require.Equal(t, 0.0, Mean(nil))
	require.InDelta(t, 11.0, Mean([]float64{10, 12, 8, 14}), 1e-9)
}

func TestMedian(t *testing.T) {
	require.Equal(t, 0.0, Median(nil))
	require.InDelta(t, 3.0, Median([]float64{1, 3, 5}), 1e-9)
	require.InDelta(t, 2.5, Median([]float64{4, 1, 2, 3}), 1e-9)
}

func TestPercentile(t *testing.T) {
	values := []float64{15, 20, 35, 40, 50}
	require.InDelta(t, 15, Percentile(values, 0), 1e-9)
	require.InDelta(t, 50, Percentile(values, 100), 1e-9)
	require.InDelta(t, 35, Percentile(values, 50), 1e-9)
	require.InDelta(t, 29.0, Percentile(values, 40), 1e-9)
}

func TestMinMax(t *testing.T) {
	values := []float64{3.2, 1.1, 9.9, 4.4}
	require.Equal(t, 1.1, Min(values))
	require.Equal(t, 9.9, Max(values))
	require.Equal(t, 0.0, Min(nil))
	require.Equal(t, 0.0, Max(nil))
}

func TestStdDevPopulation(t *testing.T) {
	require.Equal(t, 0.0, StdDevPopulation([]float64{5}))
	// mean 11, squared deviations 1+1+9+9 = 20, sqrt(20/4) = sqrt(5)
	require.InDelta(t, 2.2360679, StdDevPopulation([]float64{10, 12, 8, 14}), 1e-6)
}

func TestStdDevSample(t *testing.T) {
	require.Equal(t, 0.0, StdDevSample([]float64{5}))
	// sqrt(20/3)
	require.InDelta(t, 2.5819888, StdDevSample([]float64{10, 12, 8, 14}), 1e-6)
}

func TestRound(t *testing.T) {
	require.Equal(t, 72.46, Round(72.4567, 2))
	require.Equal(t, 11.0, Round(11.0, 2))
	require.Equal(t, 9.0, Round(8.764, 0))
	require.Equal(t, -2.35, Round(-2.346, 2))
}
