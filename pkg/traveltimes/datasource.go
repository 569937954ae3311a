package traveltimes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/travigo/traveltimes/pkg/ctdf"
	"github.com/travigo/traveltimes/pkg/util"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// OccurrenceKey identifies a single run of a trip by a vehicle on a given day
type OccurrenceKey struct {
	ServiceID string
	Date      string
	TripID    string
	VehicleID string
}

func (k OccurrenceKey) String() string {
	return fmt.Sprintf("OccurrenceKey [serviceId=%s, date=%s, tripId=%s, vehicleId=%s]",
		k.ServiceID, k.Date, k.TripID, k.VehicleID)
}

func compareOccurrenceKeys(a, b OccurrenceKey) int {
	if c := strings.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	if c := strings.Compare(a.TripID, b.TripID); c != 0 {
		return c
	}
	if c := strings.Compare(a.ServiceID, b.ServiceID); c != 0 {
		return c
	}

	return strings.Compare(a.VehicleID, b.VehicleID)
}

func ArrivalDepartureOccurrenceKey(arrivalDeparture *ctdf.ArrivalDeparture) OccurrenceKey {
	return OccurrenceKey{
		ServiceID: arrivalDeparture.ServiceID,
		Date:      arrivalDeparture.Date(),
		TripID:    arrivalDeparture.TripID,
		VehicleID: arrivalDeparture.VehicleID,
	}
}

func MatchOccurrenceKey(match *ctdf.Match) OccurrenceKey {
	return OccurrenceKey{
		ServiceID: match.ServiceID,
		Date:      match.Date(),
		TripID:    match.TripID,
		VehicleID: match.VehicleID,
	}
}

// RunRequest describes the window of historical data a run processes
type RunRequest struct {
	AgencyID  string
	BeginTime time.Time
	EndTime   time.Time

	// When set only trip occurrences on these days are used
	SpecialDaysOfWeek []time.Weekday
}

func (r RunRequest) IncludesDate(date string) bool {
	if len(r.SpecialDaysOfWeek) == 0 {
		return true
	}

	parsedDate, err := time.ParseInLocation(util.YearMonthDayFormat, date, time.Local)
	if err != nil {
		return false
	}

	return slices.Contains(r.SpecialDaysOfWeek, parsedDate.Weekday())
}

// HistoricalData is the arrivals/departures and matches for every trip occurrence in a run
type HistoricalData struct {
	ArrivalDepartures map[OccurrenceKey][]*ctdf.ArrivalDeparture
	Matches           map[OccurrenceKey][]*ctdf.Match
}

func NewHistoricalData() *HistoricalData {
	return &HistoricalData{
		ArrivalDepartures: map[OccurrenceKey][]*ctdf.ArrivalDeparture{},
		Matches:           map[OccurrenceKey][]*ctdf.Match{},
	}
}

func (h *HistoricalData) AddArrivalDeparture(arrivalDeparture *ctdf.ArrivalDeparture) {
	key := ArrivalDepartureOccurrenceKey(arrivalDeparture)
	h.ArrivalDepartures[key] = append(h.ArrivalDepartures[key], arrivalDeparture)
}

func (h *HistoricalData) AddMatch(match *ctdf.Match) {
	key := MatchOccurrenceKey(match)
	h.Matches[key] = append(h.Matches[key], match)
}

// Occurrences returns the keys of every trip occurrence with arrivals/departures in a stable order
func (h *HistoricalData) Occurrences() []OccurrenceKey {
	keys := maps.Keys(h.ArrivalDepartures)
	slices.SortFunc(keys, compareOccurrenceKeys)

	return keys
}

// Sort puts arrivals/departures into stop path order with the arrival before the departure at each stop,
// and matches into stop path then distance order
func (h *HistoricalData) Sort() {
	for _, arrivalDepartures := range h.ArrivalDepartures {
		slices.SortStableFunc(arrivalDepartures, compareArrivalDepartures)
	}

	for _, matches := range h.Matches {
		slices.SortStableFunc(matches, compareMatches)
	}
}

// FilterDays drops the trip occurrences that dont fall on one of the requests special days
func (h *HistoricalData) FilterDays(request RunRequest) {
	if len(request.SpecialDaysOfWeek) == 0 {
		return
	}

	maps.DeleteFunc(h.ArrivalDepartures, func(key OccurrenceKey, _ []*ctdf.ArrivalDeparture) bool {
		return !request.IncludesDate(key.Date)
	})
	maps.DeleteFunc(h.Matches, func(key OccurrenceKey, _ []*ctdf.Match) bool {
		return !request.IncludesDate(key.Date)
	})
}

func compareArrivalDepartures(a, b *ctdf.ArrivalDeparture) int {
	if a.StopPathIndex != b.StopPathIndex {
		return a.StopPathIndex - b.StopPathIndex
	}
	if a.Type != b.Type {
		if a.IsArrival() {
			return -1
		}
		return 1
	}

	return a.Time.Compare(b.Time)
}

func compareMatches(a, b *ctdf.Match) int {
	if a.StopPathIndex != b.StopPathIndex {
		return a.StopPathIndex - b.StopPathIndex
	}
	if a.DistanceAlongStopPath < b.DistanceAlongStopPath {
		return -1
	}
	if a.DistanceAlongStopPath > b.DistanceAlongStopPath {
		return 1
	}

	return a.Time.Compare(b.Time)
}

// DataSource supplies the historical data for a run
type DataSource interface {
	ReadData(ctx context.Context, request RunRequest) (*HistoricalData, error)
}

// TripProvider looks up the currently configured trips. GetTrip returns nil for unknown trips.
type TripProvider interface {
	GetTrip(tripID string) *ctdf.Trip
}
