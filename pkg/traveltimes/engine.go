package traveltimes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/metrics"
)

var ErrNoDataSource = errors.New("no historical data source configured")

// RunSummary describes the outcome of a processing run
type RunSummary struct {
	Request RunRequest

	StartTime time.Time
	Duration  time.Duration

	FilteredOccurrences int

	Processing ProcessingStats
	Build      BuildStats
}

// Engine runs the whole travel times pipeline: read the historic data, aggregate every trip occurrence
// into a fresh store and reduce it into a TravelTimeInfoMap
type Engine struct {
	Config     Config
	DataSource DataSource
	Trips      TripProvider
	Metrics    *metrics.Collector
}

func (e *Engine) Run(ctx context.Context, request RunRequest) (*TravelTimeInfoMap, *RunSummary, error) {
	summary := &RunSummary{
		Request:   request,
		StartTime: time.Now(),
	}

	travelTimeInfoMap, err := e.run(ctx, request, summary)

	summary.Duration = time.Since(summary.StartTime)
	e.Metrics.ObserveRun(err == nil, summary.Duration)

	if err != nil {
		return nil, summary, err
	}

	log.Info().
		Str("agency", request.AgencyID).
		Int("occurrences", summary.Processing.Occurrences).
		Int("records", summary.Build.Records).
		Str("Time", summary.Duration.String()).
		Msg("Travel times run complete")

	return travelTimeInfoMap, summary, nil
}

func (e *Engine) run(ctx context.Context, request RunRequest, summary *RunSummary) (*TravelTimeInfoMap, error) {
	if e.DataSource == nil {
		return nil, ErrNoDataSource
	}

	var occurrenceFilter *OccurrenceFilter
	if e.Config.OccurrenceFilter != "" {
		var err error
		occurrenceFilter, err = NewOccurrenceFilter(e.Config.OccurrenceFilter)
		if err != nil {
			return nil, err
		}
	}

	data, err := e.DataSource.ReadData(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to read historic data: %w", err)
	}

	data.FilterDays(request)
	data.Sort()

	log.Info().Msg("Processing data into travel time maps...")
	processingStartTime := time.Now()

	processor := NewProcessor(e.Config, data, e.Metrics)

	for _, key := range data.Occurrences() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		arrivalDepartures := data.ArrivalDepartures[key]

		include, err := occurrenceFilter.Include(key, len(arrivalDepartures))
		if err != nil {
			log.Error().Err(err).Str("occurrence", key.String()).Msg("Failed to evaluate occurrence filter")
		}
		if !include {
			summary.FilteredOccurrences += 1
			e.Metrics.ObserveOccurrence(true)
			continue
		}

		processor.ProcessOccurrence(key, arrivalDepartures)
		e.Metrics.ObserveOccurrence(false)
	}

	summary.Processing = processor.Stats

	log.Info().
		Int("occurrences", processor.Stats.Occurrences).
		Str("Time", time.Since(processingStartTime).String()).
		Msg("Processing data into the travel times and stop times maps complete")

	builder := NewMapBuilder(e.Config, e.Trips, e.Metrics)
	travelTimeInfoMap := builder.Build(processor.Store)

	summary.Build = builder.Stats

	return travelTimeInfoMap, nil
}
