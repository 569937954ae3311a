package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/traveltimes/pkg/traveltimes"
)

// Record is the stored form of a TravelTimeInfo
type Record struct {
	AgencyID      string `groups:"basic"`
	TripID        string `groups:"basic"`
	StopPathIndex int    `groups:"basic"`

	StopTime                int64   `groups:"basic"`
	TravelTimes             []int64 `groups:"basic"`
	TravelTimeSegmentLength float64 `groups:"basic"`

	TotalTravelTime int64 `groups:"detailed"`

	GeneratedAt time.Time `groups:"basic"`
}

func NewRecord(agencyID string, generatedAt time.Time, travelTimeInfo *traveltimes.TravelTimeInfo) *Record {
	return &Record{
		AgencyID:                agencyID,
		TripID:                  travelTimeInfo.TripID,
		StopPathIndex:           travelTimeInfo.StopPathIndex,
		StopTime:                travelTimeInfo.StopTime,
		TravelTimes:             travelTimeInfo.TravelTimes,
		TravelTimeSegmentLength: travelTimeInfo.TravelTimeSegmentLength,
		TotalTravelTime:         travelTimeInfo.TotalTravelTime(),
		GeneratedAt:             generatedAt,
	}
}

// Run is the output of a single processing run ready to be published
type Run struct {
	AgencyID    string
	GeneratedAt time.Time
	TravelTimes *traveltimes.TravelTimeInfoMap

	// Optional, only used for analytics
	Summary *traveltimes.RunSummary
}

func (r *Run) Records() []*Record {
	all := r.TravelTimes.All()

	records := make([]*Record, 0, len(all))
	for _, travelTimeInfo := range all {
		records = append(records, NewRecord(r.AgencyID, r.GeneratedAt, travelTimeInfo))
	}

	return records
}

func (r *Run) RecordsForTrip(tripID string) []*Record {
	forTrip := r.TravelTimes.ForTrip(tripID)

	records := make([]*Record, 0, len(forTrip))
	for _, travelTimeInfo := range forTrip {
		records = append(records, NewRecord(r.AgencyID, r.GeneratedAt, travelTimeInfo))
	}

	return records
}

type Sink interface {
	Name() string
	Publish(ctx context.Context, run *Run) error
}

// Publisher writes a run to every sink at once. A failing sink doesnt stop the others.
type Publisher struct {
	Sinks []Sink
}

func NewPublisher(sinks ...Sink) *Publisher {
	return &Publisher{Sinks: sinks}
}

func (p *Publisher) Publish(ctx context.Context, run *Run) error {
	if run.TravelTimes == nil || run.TravelTimes.Len() == 0 {
		log.Warn().Str("agency", run.AgencyID).Msg("No travel times to publish")
		return nil
	}

	sinkPool := pool.New().WithErrors().WithContext(ctx)

	for _, sink := range p.Sinks {
		sink := sink
		sinkPool.Go(func(ctx context.Context) error {
			startTime := time.Now()

			if err := sink.Publish(ctx, run); err != nil {
				log.Error().Err(err).Str("sink", sink.Name()).Str("agency", run.AgencyID).Msg("Failed to publish travel times")
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}

			log.Info().
				Str("sink", sink.Name()).
				Int("records", run.TravelTimes.Len()).
				Str("Time", time.Since(startTime).String()).
				Msg("Published travel times")

			return nil
		})
	}

	return sinkPool.Wait()
}
