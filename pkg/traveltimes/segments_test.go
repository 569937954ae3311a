package traveltimes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		pathLength float64
		maxLength  float64
		expected   int
	}{
		{pathLength: 0, maxLength: 1000, expected: 1},
		{pathLength: 400, maxLength: 1000, expected: 1},
		{pathLength: 999.99, maxLength: 1000, expected: 1},
		{pathLength: 1000, maxLength: 1000, expected: 2},
		{pathLength: 2500, maxLength: 1000, expected: 3},
		{pathLength: 3000, maxLength: 1000, expected: 4},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, SegmentCount(test.pathLength, test.maxLength), "path length %v", test.pathLength)
	}
}

func TestSegmentLengthProperties(t *testing.T) {
	for _, maxLength := range []float64{1, 75.5, 250, 1000} {
		for pathLength := 0.0; pathLength < 5000; pathLength += 37.3 {
			count := SegmentCount(pathLength, maxLength)
			length := SegmentLength(pathLength, maxLength)

			assert.GreaterOrEqual(t, count, 1)
			assert.LessOrEqual(t, length, maxLength)
			assert.InDelta(t, pathLength, float64(count)*length, 1e-6)
		}
	}
}

func TestSegmentLengthIsDeterministic(t *testing.T) {
	assert.Equal(t, SegmentLength(2500, 1000), SegmentLength(2500, 1000))
	assert.InDelta(t, 833.333, SegmentLength(2500, 1000), 0.001)
}
