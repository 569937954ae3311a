package ctdf

import (
	"fmt"
	"time"

	"github.com/travigo/traveltimes/pkg/util"
)

type ArrivalDepartureType string

const (
	ArrivalDepartureTypeArrival   ArrivalDepartureType = "Arrival"
	ArrivalDepartureTypeDeparture ArrivalDepartureType = "Departure"
)

// ArrivalDeparture is a single historical arrival at or departure from a stop made by a vehicle on a trip.
// StopPathLength is the length of the stop path that ends at this stop.
type ArrivalDeparture struct {
	AgencyID string `groups:"internal"`

	TripID        string `groups:"basic"`
	StopPathIndex int    `groups:"basic"`
	StopRef       string `groups:"basic" bson:",omitempty"`

	ServiceID string `groups:"basic"`
	VehicleID string `groups:"basic"`

	Time          time.Time `groups:"basic"`
	ScheduledTime time.Time `groups:"basic"`

	Type ArrivalDepartureType `groups:"basic"`

	ScheduleAdherence *ScheduleAdherence `groups:"detailed" bson:",omitempty"`

	StopPathLength float64 `groups:"detailed"`
}

func (a *ArrivalDeparture) IsArrival() bool {
	return a.Type == ArrivalDepartureTypeArrival
}

func (a *ArrivalDeparture) IsDeparture() bool {
	return a.Type == ArrivalDepartureTypeDeparture
}

// Date is the service date the event happened on
func (a *ArrivalDeparture) Date() string {
	return util.ServiceDate(a.Time)
}

func (a *ArrivalDeparture) String() string {
	return fmt.Sprintf(
		"%s [trip=%s stopPathIndex=%d vehicle=%s time=%s scheduled=%s]",
		a.Type, a.TripID, a.StopPathIndex, a.VehicleID,
		a.Time.Format(time.RFC3339Nano), a.ScheduledTime.Format(time.RFC3339Nano),
	)
}

// ScheduleAdherence is how far off schedule a vehicle was. Early is negative and late is positive.
type ScheduleAdherence time.Duration

func NewScheduleAdherence(scheduled time.Time, actual time.Time) *ScheduleAdherence {
	adherence := ScheduleAdherence(actual.Sub(scheduled))
	return &adherence
}

func (s ScheduleAdherence) Duration() time.Duration {
	return time.Duration(s)
}

func (s ScheduleAdherence) IsEarly() bool {
	return s < 0
}

// IsWithinBounds reports whether the adherence is no earlier than maxEarly and no later than maxLate
func (s ScheduleAdherence) IsWithinBounds(maxEarly time.Duration, maxLate time.Duration) bool {
	if s.IsEarly() {
		return -s.Duration() <= maxEarly
	}

	return s.Duration() <= maxLate
}

func (s ScheduleAdherence) String() string {
	if s.IsEarly() {
		return fmt.Sprintf("%s early", (-s.Duration()).String())
	}

	return fmt.Sprintf("%s late", s.Duration().String())
}
