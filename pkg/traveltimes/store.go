package traveltimes

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ProcessedKey identifies the aggregated data for a single stop path of a trip
type ProcessedKey struct {
	TripID        string
	StopPathIndex int
}

func (k ProcessedKey) String() string {
	return fmt.Sprintf("ProcessedKey [tripId=%s, stopPathIndex=%d]", k.TripID, k.StopPathIndex)
}

func compareProcessedKeys(a, b ProcessedKey) int {
	if c := strings.Compare(a.TripID, b.TripID); c != 0 {
		return c
	}

	return a.StopPathIndex - b.StopPathIndex
}

// AggregationStore accumulates the stop (dwell) times and travel times from every trip occurrence in a run.
// A store belongs to exactly one run and is not safe for concurrent use.
type AggregationStore struct {
	stopTimes   map[ProcessedKey][]int64
	travelTimes map[ProcessedKey][][]int64
}

func NewAggregationStore() *AggregationStore {
	return &AggregationStore{
		stopTimes:   map[ProcessedKey][]int64{},
		travelTimes: map[ProcessedKey][][]int64{},
	}
}

func (s *AggregationStore) AddStopTime(key ProcessedKey, stopTimeMsec int64) {
	s.stopTimes[key] = append(s.stopTimes[key], stopTimeMsec)
}

// AddTravelTimes records the per segment travel times of one trip occurrence. Empty lists are ignored.
func (s *AggregationStore) AddTravelTimes(key ProcessedKey, travelTimesForStopPath []int64) {
	if len(travelTimesForStopPath) == 0 {
		return
	}

	s.travelTimes[key] = append(s.travelTimes[key], travelTimesForStopPath)
}

func (s *AggregationStore) StopTimes(key ProcessedKey) []int64 {
	return s.stopTimes[key]
}

func (s *AggregationStore) TravelTimes(key ProcessedKey) [][]int64 {
	return s.travelTimes[key]
}

// TravelTimeKeys returns every key that has travel times, in trip then stop path order
func (s *AggregationStore) TravelTimeKeys() []ProcessedKey {
	keys := maps.Keys(s.travelTimes)
	slices.SortFunc(keys, compareProcessedKeys)

	return keys
}

func (s *AggregationStore) StopTimeKeys() []ProcessedKey {
	keys := maps.Keys(s.stopTimes)
	slices.SortFunc(keys, compareProcessedKeys)

	return keys
}

// BySegment regroups the travel times so the outer list is per travel time segment and the inner list
// has a value per trip occurrence. Every occurrence must have the same number of segments.
func BySegment(travelTimes [][]int64) ([][]int64, error) {
	if len(travelTimes) == 0 {
		return nil, nil
	}

	numberSegments := len(travelTimes[0])

	timesBySegment := make([][]int64, numberSegments)
	for segmentIndex := range timesBySegment {
		timesBySegment[segmentIndex] = make([]int64, 0, len(travelTimes))
	}

	for tripIndex, tripTravelTimes := range travelTimes {
		if len(tripTravelTimes) != numberSegments {
			return nil, fmt.Errorf("trip occurrence %d has %d travel time segments, expected %d",
				tripIndex, len(tripTravelTimes), numberSegments)
		}

		for segmentIndex, value := range tripTravelTimes {
			timesBySegment[segmentIndex] = append(timesBySegment[segmentIndex], value)
		}
	}

	return timesBySegment, nil
}
