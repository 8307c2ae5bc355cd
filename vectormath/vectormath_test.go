package vectormath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaledAvgSinglePairIsIdentity(t *testing.T) {
	// R2: scaled_avg([(1, v)]) = v
	v := []float64{1, 2, 3}
	out, err := ScaledAvg([]Pair{{Weight: 1, Vector: v}})
	require.NoError(t, err)
	assert.Equal(t, v, out)
}

func TestScaledAvgDividesByCountNotWeightSum(t *testing.T) {
	// The denominator is the pair count, not Σw.
	out, err := ScaledAvg([]Pair{
		{Weight: 0.5, Vector: []float64{2, 0}},
		{Weight: 0.5, Vector: []float64{0, 2}},
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, out, 1e-12)
}

func TestScaledAvgEmptyDisallowed(t *testing.T) {
	_, err := ScaledAvg(nil)
	require.Error(t, err)
}

func TestScaledAvgShapeMismatch(t *testing.T) {
	_, err := ScaledAvg([]Pair{
		{Weight: 1, Vector: []float64{1, 2}},
		{Weight: 1, Vector: []float64{1, 2, 3}},
	})
	require.Error(t, err)
}

func TestCosineUndefinedNormIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float64{1, 1}, []float64{0, 0}))
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
}

func TestArgsortTopKOrderingAndTieBreak(t *testing.T) {
	scores := []float64{0.2, 0.8, 0.8, 0.1}
	got := ArgsortTopK(scores, 3)
	// indices 1 and 2 tie at 0.8; ascending index break -> 1 before 2.
	assert.Equal(t, []int{1, 2, 0}, got)
}

func TestArgsortTopKLengthClampedToCandidates(t *testing.T) {
	got := ArgsortTopK([]float64{1, 2}, 10)
	assert.Len(t, got, 2)
}

func TestWeightsValid(t *testing.T) {
	assert.True(t, WeightsValid(0.4, 0.2, 0.4))
	assert.True(t, WeightsValid(0.5, 0.5))
	assert.False(t, WeightsValid(0.7, 0.5))
	assert.False(t, WeightsValid(1.5, -0.5))
}
