package traveltimes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolateTravelTimesSingleSegment(t *testing.T) {
	travelTimes, err := InterpolateTravelTimes([]MatchPoint{
		{Time: 0, DistanceAlongStopPath: 0, Reason: MatchPointReasonDeparture},
		{Time: 60000, DistanceAlongStopPath: 400, Reason: MatchPointReasonArrival},
	}, SegmentLength(400, 1000))

	require.NoError(t, err)
	assert.Equal(t, []int64{60000}, travelTimes)
}

func TestInterpolateTravelTimesMultipleSegments(t *testing.T) {
	matchPoints := []MatchPoint{
		{Time: 0, DistanceAlongStopPath: 0, Reason: MatchPointReasonDeparture},
		{Time: 500, DistanceAlongStopPath: 900, Reason: MatchPointReasonMatch},
		{Time: 1000, DistanceAlongStopPath: 2500, Reason: MatchPointReasonArrival},
	}
	segmentLength := SegmentLength(2500, 1000)

	vertexTimes, err := VertexTimes(matchPoints, segmentLength)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 462, 739, 1000}, vertexTimes)

	travelTimes, err := InterpolateTravelTimes(matchPoints, segmentLength)
	require.NoError(t, err)
	require.Len(t, travelTimes, SegmentCount(2500, 1000))

	var total int64
	for _, travelTime := range travelTimes {
		assert.Positive(t, travelTime)
		total += travelTime
	}
	assert.Equal(t, int64(1000), total)

	again, err := InterpolateTravelTimes(matchPoints, segmentLength)
	require.NoError(t, err)
	assert.Equal(t, travelTimes, again)
}

func TestInterpolateTravelTimesNoMatchesAcrossSegments(t *testing.T) {
	// Straight line between departure and arrival crosses both vertices
	travelTimes, err := InterpolateTravelTimes([]MatchPoint{
		{Time: 10000, DistanceAlongStopPath: 0},
		{Time: 13000, DistanceAlongStopPath: 1500},
	}, SegmentLength(1500, 600))

	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 1000, 1000}, travelTimes)
}

func TestInterpolateTravelTimesMatchOnVertex(t *testing.T) {
	segmentLength := SegmentLength(2000, 1000)

	travelTimes, err := InterpolateTravelTimes([]MatchPoint{
		{Time: 0, DistanceAlongStopPath: 0},
		{Time: 300, DistanceAlongStopPath: segmentLength},
		{Time: 300, DistanceAlongStopPath: segmentLength},
		{Time: 900, DistanceAlongStopPath: 2000},
	}, segmentLength)

	require.NoError(t, err)
	require.Len(t, travelTimes, 3)
	assert.Equal(t, int64(900), travelTimes[0]+travelTimes[1]+travelTimes[2])
	assert.Equal(t, int64(300), travelTimes[0])
}

func TestInterpolateTravelTimesRejectsTimeGoingBackwards(t *testing.T) {
	_, err := InterpolateTravelTimes([]MatchPoint{
		{Time: 0, DistanceAlongStopPath: 0},
		{Time: 800, DistanceAlongStopPath: 900},
		{Time: 500, DistanceAlongStopPath: 1200},
		{Time: 1000, DistanceAlongStopPath: 2500},
	}, SegmentLength(2500, 1000))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonMonotonicMatchPoints))

	var nonMonotonicError *NonMonotonicError
	require.ErrorAs(t, err, &nonMonotonicError)
	assert.Equal(t, int64(800), nonMonotonicError.From.Time)
	assert.Equal(t, int64(500), nonMonotonicError.To.Time)
}

func TestInterpolateTravelTimesRejectsDistanceGoingBackwardsAcrossVertex(t *testing.T) {
	_, err := InterpolateTravelTimes([]MatchPoint{
		{Time: 0, DistanceAlongStopPath: 0},
		{Time: 400, DistanceAlongStopPath: 1900},
		{Time: 600, DistanceAlongStopPath: 100},
		{Time: 1000, DistanceAlongStopPath: 2500},
	}, SegmentLength(2500, 1000))

	assert.ErrorIs(t, err, ErrNonMonotonicMatchPoints)
}

func TestInterpolateTravelTimesInsufficientPoints(t *testing.T) {
	_, err := InterpolateTravelTimes([]MatchPoint{{Time: 0}}, 100)
	assert.ErrorIs(t, err, ErrInsufficientMatchPoints)
}
