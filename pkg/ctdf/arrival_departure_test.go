package ctdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleAdherenceIsWithinBounds(t *testing.T) {
	scheduled := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	late := NewScheduleAdherence(scheduled, scheduled.Add(12*time.Minute))
	assert.False(t, late.IsEarly())
	assert.True(t, late.IsWithinBounds(30*time.Minute, 30*time.Minute))
	assert.False(t, late.IsWithinBounds(30*time.Minute, 10*time.Minute))
	assert.Equal(t, "12m0s late", late.String())

	early := NewScheduleAdherence(scheduled, scheduled.Add(-31*time.Minute))
	assert.True(t, early.IsEarly())
	assert.False(t, early.IsWithinBounds(30*time.Minute, 30*time.Minute))
	assert.True(t, early.IsWithinBounds(31*time.Minute, 0))

	onTime := NewScheduleAdherence(scheduled, scheduled)
	assert.True(t, onTime.IsWithinBounds(0, 0))
}

func TestTripStopPaths(t *testing.T) {
	trip := &Trip{
		PrimaryIdentifier: "trip-1",
		StopPaths: []*StopPath{
			{StopPathIndex: 0, Length: 0},
			{StopPathIndex: 1, Length: 420.5},
		},
	}

	assert.Equal(t, 2, trip.NumberStopPaths())
	assert.Equal(t, 1, trip.LastStopPathIndex())
	assert.Equal(t, 420.5, trip.GetStopPath(1).Length)
	assert.Nil(t, trip.GetStopPath(2))
	assert.Nil(t, trip.GetStopPath(-1))

	tripMap := TripMap{}
	tripMap.Add(trip)
	assert.Same(t, trip, tripMap.GetTrip("trip-1"))
	assert.Nil(t, tripMap.GetTrip("unknown"))
}
