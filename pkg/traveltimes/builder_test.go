package traveltimes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/traveltimes/pkg/ctdf"
)

func testTrips(stopPathLengths ...float64) ctdf.TripMap {
	trip := &ctdf.Trip{
		PrimaryIdentifier: "T1",
		AgencyID:          "test",
		ServiceID:         "weekday",
	}
	for i, length := range stopPathLengths {
		trip.StopPaths = append(trip.StopPaths, &ctdf.StopPath{StopPathIndex: i, Length: length})
	}

	trips := ctdf.TripMap{}
	trips.Add(trip)

	return trips
}

func TestMapBuilderBuild(t *testing.T) {
	store := NewAggregationStore()
	key := ProcessedKey{TripID: "T1", StopPathIndex: 1}

	store.AddTravelTimes(key, []int64{60000})
	store.AddTravelTimes(key, []int64{62000})
	store.AddStopTime(key, 10000)
	store.AddStopTime(key, 12000)
	store.AddStopTime(key, 50000)

	builder := NewMapBuilder(testConfig(1000), testTrips(0, 400, 400), nil)
	travelTimeInfoMap := builder.Build(store)

	require.Equal(t, 1, travelTimeInfoMap.Len())

	travelTimeInfo := travelTimeInfoMap.Get("T1", 1)
	require.NotNil(t, travelTimeInfo)
	assert.Equal(t, int64(11000), travelTimeInfo.StopTime)
	assert.Equal(t, []int64{61000}, travelTimeInfo.TravelTimes)
	assert.Equal(t, 400.0, travelTimeInfo.TravelTimeSegmentLength)
	assert.Equal(t, 1, builder.Stats.Records)
}

func TestMapBuilderMissingStopTimes(t *testing.T) {
	store := NewAggregationStore()
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 1}, []int64{60000})
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 2}, []int64{30000})

	builder := NewMapBuilder(testConfig(1000), testTrips(0, 400, 400), nil)
	travelTimeInfoMap := builder.Build(store)

	for _, travelTimeInfo := range travelTimeInfoMap.All() {
		assert.Equal(t, StopTimeNotValid, travelTimeInfo.StopTime)
		assert.False(t, travelTimeInfo.IsStopTimeValid())
	}
	assert.Equal(t, 2, builder.Stats.MissingStopTimes)
}

func TestMapBuilderMissingTrip(t *testing.T) {
	store := NewAggregationStore()
	store.AddTravelTimes(ProcessedKey{TripID: "unknown", StopPathIndex: 1}, []int64{60000})
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 1}, []int64{60000})

	builder := NewMapBuilder(testConfig(1000), testTrips(0, 400), nil)
	travelTimeInfoMap := builder.Build(store)

	assert.Nil(t, travelTimeInfoMap.Get("unknown", 1))
	assert.NotNil(t, travelTimeInfoMap.Get("T1", 1))
	assert.Equal(t, 1, builder.Stats.MissingTrips)
}

func TestMapBuilderSegmentCountFollowsStopPath(t *testing.T) {
	store := NewAggregationStore()
	key := ProcessedKey{TripID: "T1", StopPathIndex: 1}
	store.AddTravelTimes(key, []int64{462, 277, 261})
	store.AddTravelTimes(key, []int64{470, 280, 250})

	builder := NewMapBuilder(testConfig(1000), testTrips(0, 2500), nil)
	travelTimeInfo := builder.Build(store).Get("T1", 1)

	require.NotNil(t, travelTimeInfo)
	assert.Len(t, travelTimeInfo.TravelTimes, SegmentCount(2500, 1000))
	assert.InDelta(t, SegmentLength(2500, 1000), travelTimeInfo.TravelTimeSegmentLength, 0.0001)
	assert.Equal(t, []int64{466, 279, 256}, travelTimeInfo.TravelTimes)
}

func TestMapBuilderSkipsInconsistentKeys(t *testing.T) {
	store := NewAggregationStore()

	// Stop path has since changed length so the data has the wrong number of segments
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 1}, []int64{60000})
	// Occurrences disagree on the number of segments
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 2}, []int64{100, 100})
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 2}, []int64{100})
	// Stop path no longer exists
	store.AddTravelTimes(ProcessedKey{TripID: "T1", StopPathIndex: 7}, []int64{100})

	builder := NewMapBuilder(testConfig(1000), testTrips(0, 2500, 1500), nil)
	travelTimeInfoMap := builder.Build(store)

	assert.Zero(t, travelTimeInfoMap.Len())
	assert.Equal(t, 3, builder.Stats.InvalidKeys)
}
