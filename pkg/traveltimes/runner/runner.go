package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/metrics"
	"github.com/travigo/traveltimes/pkg/traveltimes"
	"github.com/travigo/traveltimes/pkg/traveltimes/publish"
)

// TripLoader returns the current trip configuration for the agency
type TripLoader func(ctx context.Context, agencyID string) (traveltimes.TripProvider, error)

// Runner loads the trip configuration, runs the engine and publishes the result
type Runner struct {
	Config     traveltimes.Config
	DataSource traveltimes.DataSource
	LoadTrips  TripLoader
	Metrics    *metrics.Collector

	// Nil leaves the results unpublished
	Publisher *publish.Publisher
}

func (r *Runner) Run(ctx context.Context, request traveltimes.RunRequest) (*traveltimes.TravelTimeInfoMap, *traveltimes.RunSummary, error) {
	log.Info().
		Str("agency", request.AgencyID).
		Time("begin", request.BeginTime).
		Time("end", request.EndTime).
		Interface("specialdays", request.SpecialDaysOfWeek).
		Msg("Starting travel times run")

	trips, err := r.LoadTrips(ctx, request.AgencyID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading trip configuration: %w", err)
	}

	engine := &traveltimes.Engine{
		Config:     r.Config,
		DataSource: r.DataSource,
		Trips:      trips,
		Metrics:    r.Metrics,
	}

	travelTimeInfoMap, summary, err := engine.Run(ctx, request)
	if err != nil {
		return nil, summary, err
	}

	if r.Publisher == nil {
		return travelTimeInfoMap, summary, nil
	}

	err = r.Publisher.Publish(ctx, &publish.Run{
		AgencyID:    request.AgencyID,
		GeneratedAt: time.Now(),
		TravelTimes: travelTimeInfoMap,
		Summary:     summary,
	})
	if err != nil {
		return travelTimeInfoMap, summary, fmt.Errorf("publishing travel times: %w", err)
	}

	return travelTimeInfoMap, summary, nil
}
