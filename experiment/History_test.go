package experiment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStrictlyIncreasing(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Append(0, []float64{1, 3}))
	require.NoError(t, h.Append(100, []float64{2}))

	assert.Error(t, h.Append(100, []float64{4}))
	assert.Error(t, h.Append(50, nil))
	assert.Equal(t, []int{0, 100}, h.Steps())

	returns, ok := h.Returns(0)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 3}, returns)
	_, ok = h.Returns(7)
	assert.False(t, ok)
}

func TestHistorySummary(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Append(0, []float64{1, 3}))
	require.NoError(t, h.Append(10, []float64{5}))

	points := h.Summary()
	require.Len(t, points, 2)
	assert.Equal(t, Point{Step: 0, Mean: 2, Std: 1}, points[0])
	assert.Equal(t, Point{Step: 10, Mean: 5, Std: 0}, points[1])
}

func TestHistoryIsolation(t *testing.T) {
	returns := []float64{1}
	h := NewHistory()
	require.NoError(t, h.Append(0, returns))
	returns[0] = 9

	clone := h.Clone()
	require.NoError(t, clone.Append(1, nil))

	_, got := h.At(0)
	assert.Equal(t, []float64{1}, got)
	assert.Equal(t, 1, h.Len())
}

func TestHistoryJSON(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Append(0, []float64{1}))
	require.NoError(t, h.Append(5, []float64{2, 3}))

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"step":0,"returns":[1]},{"step":5,"returns":[2,3]}]`,
		string(data))

	decoded := NewHistory()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, h.Steps(), decoded.Steps())

	assert.Error(t, json.Unmarshal([]byte(`[{"step":5},{"step":1}]`),
		decoded))
}
