package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSeries_PushAndWrap(t *testing.T) {
	ts := NewTimeSeries(3)
	assert.Equal(t, 0, ts.Last())
	assert.Empty(t, ts.Values())

	ts.Push(1)
	ts.Push(2)
	assert.Equal(t, []int{1, 2}, ts.Values())

	ts.Push(3)
	ts.Push(4)
	assert.Equal(t, []int{2, 3, 4}, ts.Values())
	assert.Equal(t, 4, ts.Last())
	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, 3, ts.Cap())
}

func TestTimeSeries_LastNAndMax(t *testing.T) {
	ts := NewTimeSeries(5)
	for _, v := range []int{5, 1, 9, 2, 3, 4} {
		ts.Push(v)
	}
	assert.Equal(t, []int{2, 3, 4}, ts.LastN(3))
	assert.Equal(t, []int{1, 9, 2, 3, 4}, ts.LastN(10))
	assert.Equal(t, 4, ts.Max(2))
	assert.Equal(t, 9, ts.Max(5))
}

func TestTimeSeries_Resize(t *testing.T) {
	ts := NewTimeSeries(4)
	for v := 1; v <= 6; v++ {
		ts.Push(v)
	}

	ts.Resize(2)
	assert.Equal(t, []int{5, 6}, ts.Values())

	ts.Resize(4)
	assert.Equal(t, []int{5, 6}, ts.Values())
	ts.Push(7)
	assert.Equal(t, []int{5, 6, 7}, ts.Values())

	ts.Reset()
	assert.Equal(t, 0, ts.Len())
}
