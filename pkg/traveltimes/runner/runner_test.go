package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/traveltimes/pkg/ctdf"
	"github.com/travigo/traveltimes/pkg/traveltimes"
	"github.com/travigo/traveltimes/pkg/traveltimes/publish"
)

var startTime = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.Local)

type staticSource struct{}

func (s staticSource) ReadData(ctx context.Context, request traveltimes.RunRequest) (*traveltimes.HistoricalData, error) {
	data := traveltimes.NewHistoricalData()

	data.AddArrivalDeparture(&ctdf.ArrivalDeparture{
		TripID: "T1", ServiceID: "weekday", VehicleID: "V1", StopPathIndex: 0,
		Time: startTime, ScheduledTime: startTime, Type: ctdf.ArrivalDepartureTypeDeparture,
	})
	data.AddArrivalDeparture(&ctdf.ArrivalDeparture{
		TripID: "T1", ServiceID: "weekday", VehicleID: "V1", StopPathIndex: 1, StopPathLength: 200,
		Time: startTime.Add(time.Minute), ScheduledTime: startTime.Add(time.Minute), Type: ctdf.ArrivalDepartureTypeArrival,
	})

	return data, nil
}

func loadTrips(ctx context.Context, agencyID string) (traveltimes.TripProvider, error) {
	return ctdf.TripMap{
		"T1": {PrimaryIdentifier: "T1", StopPaths: []*ctdf.StopPath{{StopPathIndex: 0}, {StopPathIndex: 1, Length: 200}}},
	}, nil
}

type captureSink struct {
	run *publish.Run
	err error
}

func (s *captureSink) Name() string {
	return "capture"
}

func (s *captureSink) Publish(ctx context.Context, run *publish.Run) error {
	s.run = run
	return s.err
}

func TestRunnerPublishes(t *testing.T) {
	sink := &captureSink{}

	r := &Runner{
		Config:     traveltimes.DefaultConfig(),
		DataSource: staticSource{},
		LoadTrips:  loadTrips,
		Publisher:  publish.NewPublisher(sink),
	}

	travelTimeInfoMap, summary, err := r.Run(context.Background(), traveltimes.RunRequest{AgencyID: "test"})
	require.NoError(t, err)

	assert.Equal(t, 1, travelTimeInfoMap.Len())
	assert.Equal(t, 1, summary.Build.Records)

	require.NotNil(t, sink.run)
	assert.Equal(t, "test", sink.run.AgencyID)
	assert.Same(t, summary, sink.run.Summary)
	assert.Equal(t, []int64{60000}, sink.run.TravelTimes.Get("T1", 1).TravelTimes)
}

func TestRunnerWithoutPublisher(t *testing.T) {
	r := &Runner{
		Config:     traveltimes.DefaultConfig(),
		DataSource: staticSource{},
		LoadTrips:  loadTrips,
	}

	travelTimeInfoMap, _, err := r.Run(context.Background(), traveltimes.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, travelTimeInfoMap.Len())
}

func TestRunnerErrors(t *testing.T) {
	t.Run("trip loading", func(t *testing.T) {
		loadErr := errors.New("no trips")

		r := &Runner{
			Config:     traveltimes.DefaultConfig(),
			DataSource: staticSource{},
			LoadTrips: func(ctx context.Context, agencyID string) (traveltimes.TripProvider, error) {
				return nil, loadErr
			},
		}

		_, _, err := r.Run(context.Background(), traveltimes.RunRequest{})
		assert.ErrorIs(t, err, loadErr)
	})

	t.Run("publishing keeps the results", func(t *testing.T) {
		publishErr := errors.New("sink down")

		r := &Runner{
			Config:     traveltimes.DefaultConfig(),
			DataSource: staticSource{},
			LoadTrips:  loadTrips,
			Publisher:  publish.NewPublisher(&captureSink{err: publishErr}),
		}

		travelTimeInfoMap, _, err := r.Run(context.Background(), traveltimes.RunRequest{})
		assert.ErrorIs(t, err, publishErr)
		assert.Equal(t, 1, travelTimeInfoMap.Len())
	})
}
