package publish

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/traveltimes/pkg/traveltimes"
)

var testGeneratedAt = time.Date(2024, time.March, 9, 2, 0, 0, 0, time.UTC)

func testRun() *Run {
	travelTimeInfoMap := traveltimes.NewTravelTimeInfoMap()
	travelTimeInfoMap.Add(&traveltimes.TravelTimeInfo{
		TripID: "T1", StopPathIndex: 1, StopTime: 11000, TravelTimes: []int64{60000}, TravelTimeSegmentLength: 400,
	})
	travelTimeInfoMap.Add(&traveltimes.TravelTimeInfo{
		TripID: "T1", StopPathIndex: 2, StopTime: traveltimes.StopTimeNotValid, TravelTimes: []int64{462, 277, 261}, TravelTimeSegmentLength: 833.33,
	})
	travelTimeInfoMap.Add(&traveltimes.TravelTimeInfo{
		TripID: "T2", StopPathIndex: 1, StopTime: 5000, TravelTimes: []int64{30000}, TravelTimeSegmentLength: 200,
	})

	return &Run{
		AgencyID:    "test",
		GeneratedAt: testGeneratedAt,
		TravelTimes: travelTimeInfoMap,
	}
}

type recordingSink struct {
	name string
	err  error

	mutex sync.Mutex
	runs  []*Run
}

func (s *recordingSink) Name() string {
	return s.name
}

func (s *recordingSink) Publish(ctx context.Context, run *Run) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.runs = append(s.runs, run)
	return s.err
}

func TestRunRecords(t *testing.T) {
	records := testRun().Records()

	require.Len(t, records, 3)
	assert.Equal(t, "test", records[0].AgencyID)
	assert.Equal(t, "T1", records[0].TripID)
	assert.Equal(t, int64(60000), records[0].TotalTravelTime)
	assert.Equal(t, int64(1000), records[1].TotalTravelTime)
	assert.Equal(t, "T2", records[2].TripID)
	assert.Equal(t, testGeneratedAt, records[2].GeneratedAt)

	assert.Len(t, testRun().RecordsForTrip("T1"), 2)
	assert.Empty(t, testRun().RecordsForTrip("T3"))
}

func TestPublisherWritesEverySink(t *testing.T) {
	first := &recordingSink{name: "first"}
	second := &recordingSink{name: "second"}

	err := NewPublisher(first, second).Publish(context.Background(), testRun())
	require.NoError(t, err)

	assert.Len(t, first.runs, 1)
	assert.Len(t, second.runs, 1)
}

func TestPublisherJoinsErrors(t *testing.T) {
	firstErr := errors.New("mongo unavailable")
	secondErr := errors.New("redis unavailable")

	healthy := &recordingSink{name: "healthy"}

	err := NewPublisher(
		&recordingSink{name: "first", err: firstErr},
		healthy,
		&recordingSink{name: "second", err: secondErr},
	).Publish(context.Background(), testRun())

	assert.ErrorIs(t, err, firstErr)
	assert.ErrorIs(t, err, secondErr)
	assert.Contains(t, err.Error(), "first")
	assert.Len(t, healthy.runs, 1)
}

func TestPublisherSkipsEmptyRuns(t *testing.T) {
	sink := &recordingSink{name: "sink"}

	err := NewPublisher(sink).Publish(context.Background(), &Run{TravelTimes: traveltimes.NewTravelTimeInfoMap()})
	require.NoError(t, err)

	assert.Empty(t, sink.runs)
}

func TestPublisherLogsFailedSinks(t *testing.T) {
	var output bytes.Buffer

	previousLogger := log.Logger
	log.Logger = zerolog.New(&output).Level(zerolog.ErrorLevel)
	t.Cleanup(func() { log.Logger = previousLogger })

	sinkErr := errors.New("redis unavailable")
	err := NewPublisher(
		&recordingSink{name: "healthy"},
		&recordingSink{name: "cache", err: sinkErr},
	).Publish(context.Background(), testRun())
	require.ErrorIs(t, err, sinkErr)

	assert.Contains(t, output.String(), `"sink":"cache"`)
	assert.Contains(t, output.String(), "redis unavailable")
	assert.NotContains(t, output.String(), `"sink":"healthy"`)
}
