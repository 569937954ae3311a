package traveltimes

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/ctdf"
	"github.com/travigo/traveltimes/pkg/metrics"
	"github.com/travigo/traveltimes/pkg/stats/calculator"
)

// BuildStats counts the outcome of turning an AggregationStore into a TravelTimeInfoMap
type BuildStats struct {
	Records          int
	MissingTrips     int
	InvalidKeys      int
	MissingStopTimes int
}

// MapBuilder reduces the data in an AggregationStore into a TravelTimeInfoMap
type MapBuilder struct {
	Config  Config
	Trips   TripProvider
	Metrics *metrics.Collector

	Stats BuildStats
}

func NewMapBuilder(config Config, trips TripProvider, collector *metrics.Collector) *MapBuilder {
	return &MapBuilder{
		Config:  config,
		Trips:   trips,
		Metrics: collector,
	}
}

// Build creates a TravelTimeInfo for every trip stop path that has travel times in the store
func (b *MapBuilder) Build(store *AggregationStore) *TravelTimeInfoMap {
	log.Info().Msg("Processing data into a TravelTimeInfoMap...")
	startTime := time.Now()

	travelTimeInfoMap := NewTravelTimeInfoMap()

	for _, key := range store.TravelTimeKeys() {
		trip := b.Trips.GetTrip(key.TripID)
		if trip == nil {
			b.Stats.MissingTrips += 1
			b.Metrics.ObserveMissingTrip()

			log.Error().
				Str("tripid", key.TripID).
				Msg("No trip exists in configuration data even though historic data was found for it")
			continue
		}

		travelTimeInfo, err := b.buildTravelTimeInfo(key, trip.GetStopPath(key.StopPathIndex), store)
		if err != nil {
			b.Stats.InvalidKeys += 1
			b.Metrics.ObserveRecord(false)

			log.Error().Err(err).Str("key", key.String()).Msg("Skipping inconsistent travel times")
			continue
		}

		if !travelTimeInfo.IsStopTimeValid() {
			b.Stats.MissingStopTimes += 1

			// Last stop path has no departure so never has a stop time
			if key.StopPathIndex != trip.LastStopPathIndex() {
				log.Debug().Str("key", key.String()).Msg("No stop times even though there are travel times for that key")
			}
		}

		travelTimeInfoMap.Add(travelTimeInfo)
		b.Stats.Records += 1
		b.Metrics.ObserveRecord(true)
	}

	log.Info().
		Int("records", travelTimeInfoMap.Len()).
		Str("Time", time.Since(startTime).String()).
		Msg("Processing data into a TravelTimeInfoMap complete")

	return travelTimeInfoMap
}

func (b *MapBuilder) buildTravelTimeInfo(key ProcessedKey, stopPath *ctdf.StopPath, store *AggregationStore) (*TravelTimeInfo, error) {
	if stopPath == nil {
		return nil, &MissingStopPathError{Key: key}
	}

	travelTimesBySegment, err := BySegment(store.TravelTimes(key))
	if err != nil {
		return nil, err
	}

	// Use the configured length of the stop path as the historic data may have been recorded against an
	// older version of it
	expectedSegments := SegmentCount(stopPath.Length, b.Config.MaxTravelTimeSegmentLength)
	if len(travelTimesBySegment) != expectedSegments {
		return nil, &SegmentCountError{Expected: expectedSegments, Actual: len(travelTimesBySegment)}
	}

	averageTravelTimes := make([]int64, 0, len(travelTimesBySegment))
	for _, travelTimesForSegment := range travelTimesBySegment {
		averageTravelTimes = append(averageTravelTimes, calculator.FilteredAverage(travelTimesForSegment, b.Config.RetainFraction))
	}

	averageStopTime := StopTimeNotValid
	if stopTimes := store.StopTimes(key); len(stopTimes) > 0 {
		averageStopTime = calculator.FilteredAverage(stopTimes, b.Config.RetainFraction)
	}

	return &TravelTimeInfo{
		TripID:                  key.TripID,
		StopPathIndex:           key.StopPathIndex,
		StopTime:                averageStopTime,
		TravelTimes:             averageTravelTimes,
		TravelTimeSegmentLength: SegmentLength(stopPath.Length, b.Config.MaxTravelTimeSegmentLength),
	}, nil
}

type MissingStopPathError struct {
	Key ProcessedKey
}

func (e *MissingStopPathError) Error() string {
	return "trip has no stop path for " + e.Key.String()
}
