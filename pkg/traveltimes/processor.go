package traveltimes

import (
	"errors"
	"fmt"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/ctdf"
	"github.com/travigo/traveltimes/pkg/metrics"
)

// ProcessingStats counts what happened to the samples seen while processing trip occurrences
type ProcessingStats struct {
	Occurrences int

	StopTimes   int
	TravelTimes int

	DiscardedFirstStopLateness int
	DiscardedScheduleAdherence int
	DiscardedNonMonotonic      int
	DiscardedSegmentMismatch   int
}

// Processor walks the arrivals/departures of trip occurrences and puts the resulting stop times and travel
// times into an AggregationStore
type Processor struct {
	Config  Config
	Store   *AggregationStore
	Data    *HistoricalData
	Metrics *metrics.Collector

	Stats ProcessingStats
}

func NewProcessor(config Config, data *HistoricalData, collector *metrics.Collector) *Processor {
	return &Processor{
		Config:  config,
		Store:   NewAggregationStore(),
		Data:    data,
		Metrics: collector,
	}
}

// ProcessOccurrence aggregates the arrivals/departures of a single trip occurrence. They must already be
// sorted by stop path index with the arrival before the departure at each stop.
func (p *Processor) ProcessOccurrence(key OccurrenceKey, arrivalDepartures []*ctdf.ArrivalDeparture) {
	p.Stats.Occurrences += 1

	if traceEvent := log.Trace(); traceEvent.Enabled() {
		traceEvent.Str("occurrence", key.String()).Msg(pretty.Sprint(arrivalDepartures))
	}

	for i, arrivalDeparture1 := range arrivalDepartures {
		if arrivalDeparture1.StopPathIndex == 0 {
			// Arrival time at the layover stop at the start of a trip doesnt mean anything
			if arrivalDeparture1.IsArrival() {
				continue
			}

			p.processFirstStopOfTrip(arrivalDeparture1)
		}

		if i+1 < len(arrivalDepartures) {
			p.processPair(key, arrivalDeparture1, arrivalDepartures[i+1])
		}
	}
}

// First stop of the trip only has a departure so the "stop time" is how late the vehicle left
func (p *Processor) processFirstStopOfTrip(arrivalDeparture *ctdf.ArrivalDeparture) {
	if arrivalDeparture.StopPathIndex != 0 || !arrivalDeparture.IsDeparture() {
		return
	}

	lateTime := arrivalDeparture.ScheduledTime.Sub(arrivalDeparture.Time)

	// Probably assigned to the wrong trip, would only skew the results
	if lateTime.Abs() > p.Config.MaxFirstStopLateness {
		p.Stats.DiscardedFirstStopLateness += 1
		p.Metrics.ObserveDiscard(metrics.DiscardReasonFirstStopLateness)
		return
	}

	p.addStopTime(ProcessedKey{TripID: arrivalDeparture.TripID, StopPathIndex: 0}, lateTime.Milliseconds())
}

func (p *Processor) processPair(key OccurrenceKey, arrivalDeparture1 *ctdf.ArrivalDeparture, arrivalDeparture2 *ctdf.ArrivalDeparture) {
	scheduleAdherence := arrivalDeparture1.ScheduleAdherence
	if scheduleAdherence == nil {
		scheduleAdherence = arrivalDeparture2.ScheduleAdherence
	}
	if scheduleAdherence != nil && !scheduleAdherence.IsWithinBounds(p.Config.MaxScheduleAdherence, p.Config.MaxScheduleAdherence) {
		p.Stats.DiscardedScheduleAdherence += 1
		p.Metrics.ObserveDiscard(metrics.DiscardReasonScheduleAdherence)
		return
	}

	processedKey := ProcessedKey{TripID: arrivalDeparture2.TripID, StopPathIndex: arrivalDeparture2.StopPathIndex}

	// Arrival then departure at the same stop
	if arrivalDeparture1.StopPathIndex == arrivalDeparture2.StopPathIndex &&
		arrivalDeparture1.IsArrival() && arrivalDeparture2.IsDeparture() {
		dwellTime := arrivalDeparture2.Time.Sub(arrivalDeparture1.Time)
		p.addStopTime(processedKey, dwellTime.Milliseconds())

		return
	}

	// Departure from one stop then arrival at the very next one
	if arrivalDeparture2.StopPathIndex == arrivalDeparture1.StopPathIndex+1 &&
		arrivalDeparture1.IsDeparture() && arrivalDeparture2.IsArrival() {
		if arrivalDeparture2.StopPathLength < p.Config.MaxTravelTimeSegmentLength {
			travelTime := arrivalDeparture2.Time.Sub(arrivalDeparture1.Time)
			p.addTravelTimes(processedKey, []int64{travelTime.Milliseconds()})

			return
		}

		travelTimes, err := p.travelTimesForMultipleSegments(key, arrivalDeparture1, arrivalDeparture2)
		if err != nil {
			reason := metrics.DiscardReasonSegmentMismatch
			if errors.Is(err, ErrNonMonotonicMatchPoints) {
				reason = metrics.DiscardReasonNonMonotonic
				p.Stats.DiscardedNonMonotonic += 1
			} else {
				p.Stats.DiscardedSegmentMismatch += 1
			}
			p.Metrics.ObserveDiscard(reason)

			log.Error().Err(err).
				Str("occurrence", key.String()).
				Str("departure", arrivalDeparture1.String()).
				Str("arrival", arrivalDeparture2.String()).
				Msg("Failed to determine travel times for stop path")
			return
		}

		p.addTravelTimes(processedKey, travelTimes)
	}
}

// Uses the matches along the stop path to work out when each travel time segment vertex was crossed
func (p *Processor) travelTimesForMultipleSegments(key OccurrenceKey, departure *ctdf.ArrivalDeparture, arrival *ctdf.ArrivalDeparture) ([]int64, error) {
	segmentLength := SegmentLength(arrival.StopPathLength, p.Config.MaxTravelTimeSegmentLength)

	travelTimes, err := InterpolateTravelTimes(p.matchPoints(key, departure, arrival), segmentLength)
	if err != nil {
		return nil, err
	}

	expectedSegments := SegmentCount(arrival.StopPathLength, p.Config.MaxTravelTimeSegmentLength)
	if len(travelTimes) != expectedSegments {
		return nil, &SegmentCountError{Expected: expectedSegments, Actual: len(travelTimes)}
	}

	return travelTimes, nil
}

// The departure from the previous stop, the matches along the stop path and the arrival at the stop
func (p *Processor) matchPoints(key OccurrenceKey, departure *ctdf.ArrivalDeparture, arrival *ctdf.ArrivalDeparture) []MatchPoint {
	matchPoints := []MatchPoint{
		{
			Time:                  departure.Time.UnixMilli(),
			DistanceAlongStopPath: 0,
			Reason:                MatchPointReasonDeparture,
		},
	}

	for _, match := range p.matchesForStopPath(key, arrival.StopPathIndex) {
		matchPoints = append(matchPoints, MatchPoint{
			Time:                  match.Time.UnixMilli(),
			DistanceAlongStopPath: match.DistanceAlongStopPath,
			Reason:                MatchPointReasonMatch,
		})
	}

	matchPoints = append(matchPoints, MatchPoint{
		Time:                  arrival.Time.UnixMilli(),
		DistanceAlongStopPath: arrival.StopPathLength,
		Reason:                MatchPointReasonArrival,
	})

	return matchPoints
}

func (p *Processor) matchesForStopPath(key OccurrenceKey, stopPathIndex int) []*ctdf.Match {
	if p.Data == nil {
		return nil
	}

	var matchesForStopPath []*ctdf.Match

	for _, match := range p.Data.Matches[key] {
		if match.StopPathIndex == stopPathIndex {
			matchesForStopPath = append(matchesForStopPath, match)
		} else if match.StopPathIndex > stopPathIndex {
			// Matches are in stop path order so nothing further is relevant
			break
		}
	}

	return matchesForStopPath
}

func (p *Processor) addStopTime(key ProcessedKey, stopTimeMsec int64) {
	p.Store.AddStopTime(key, stopTimeMsec)
	p.Stats.StopTimes += 1
	p.Metrics.ObserveSample(metrics.SampleTypeStopTime)
}

func (p *Processor) addTravelTimes(key ProcessedKey, travelTimes []int64) {
	if len(travelTimes) == 0 {
		return
	}

	p.Store.AddTravelTimes(key, travelTimes)
	p.Stats.TravelTimes += 1
	p.Metrics.ObserveSample(metrics.SampleTypeTravelTime)
}

// SegmentCountError is returned when interpolation produced a different number of travel time segments
// than the stop path is divided into
type SegmentCountError struct {
	Expected int
	Actual   int
}

func (e *SegmentCountError) Error() string {
	return fmt.Sprintf("interpolated %d travel time segments but stop path has %d", e.Actual, e.Expected)
}
