package traveltimes

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// StopTimeNotValid marks a TravelTimeInfo with no stop time data so it isnt mistaken for a zero stop time
const StopTimeNotValid int64 = -1

// TravelTimeInfo is the historical average stop and travel times for one stop path of a trip
type TravelTimeInfo struct {
	TripID        string `groups:"basic"`
	StopPathIndex int    `groups:"basic"`

	// Msec, or StopTimeNotValid
	StopTime int64 `groups:"basic"`
	// Msec per travel time segment
	TravelTimes []int64 `groups:"basic"`

	TravelTimeSegmentLength float64 `groups:"basic"`
}

func (t *TravelTimeInfo) IsStopTimeValid() bool {
	return t.StopTime != StopTimeNotValid
}

// TotalTravelTime is the travel time for the whole stop path in msec
func (t *TravelTimeInfo) TotalTravelTime() int64 {
	var total int64
	for _, travelTime := range t.TravelTimes {
		total += travelTime
	}

	return total
}

func (t *TravelTimeInfo) String() string {
	return fmt.Sprintf("TravelTimeInfo [tripId=%s, stopPathIndex=%d, stopTime=%d, travelTimes=%v, segmentLength=%.2f]",
		t.TripID, t.StopPathIndex, t.StopTime, t.TravelTimes, t.TravelTimeSegmentLength)
}

func (t *TravelTimeInfo) MarshalBinary() ([]byte, error) {
	return json.Marshal(t)
}

func (t *TravelTimeInfo) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, t)
}

// TravelTimeInfoMap holds the TravelTimeInfo generated by a run, indexed by trip and stop path
type TravelTimeInfoMap struct {
	byTrip map[string]map[int]*TravelTimeInfo
	count  int
}

func NewTravelTimeInfoMap() *TravelTimeInfoMap {
	return &TravelTimeInfoMap{
		byTrip: map[string]map[int]*TravelTimeInfo{},
	}
}

// Add inserts the record, replacing any existing record for the same trip and stop path
func (m *TravelTimeInfoMap) Add(travelTimeInfo *TravelTimeInfo) {
	stopPaths, exists := m.byTrip[travelTimeInfo.TripID]
	if !exists {
		stopPaths = map[int]*TravelTimeInfo{}
		m.byTrip[travelTimeInfo.TripID] = stopPaths
	}

	if _, exists := stopPaths[travelTimeInfo.StopPathIndex]; !exists {
		m.count += 1
	}

	stopPaths[travelTimeInfo.StopPathIndex] = travelTimeInfo
}

func (m *TravelTimeInfoMap) Get(tripID string, stopPathIndex int) *TravelTimeInfo {
	return m.byTrip[tripID][stopPathIndex]
}

// ForTrip returns the records for the trip ordered by stop path index
func (m *TravelTimeInfoMap) ForTrip(tripID string) []*TravelTimeInfo {
	stopPaths := m.byTrip[tripID]

	stopPathIndexes := maps.Keys(stopPaths)
	slices.Sort(stopPathIndexes)

	records := make([]*TravelTimeInfo, 0, len(stopPathIndexes))
	for _, stopPathIndex := range stopPathIndexes {
		records = append(records, stopPaths[stopPathIndex])
	}

	return records
}

func (m *TravelTimeInfoMap) TripIDs() []string {
	tripIDs := maps.Keys(m.byTrip)
	slices.Sort(tripIDs)

	return tripIDs
}

// All returns every record ordered by trip then stop path
func (m *TravelTimeInfoMap) All() []*TravelTimeInfo {
	records := make([]*TravelTimeInfo, 0, m.count)
	for _, tripID := range m.TripIDs() {
		records = append(records, m.ForTrip(tripID)...)
	}

	return records
}

func (m *TravelTimeInfoMap) Len() int {
	return m.count
}
