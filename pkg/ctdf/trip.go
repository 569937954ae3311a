package ctdf

type Trip struct {
	PrimaryIdentifier string `groups:"basic"`

	AgencyID  string `groups:"internal"`
	ServiceID string `groups:"basic"`
	RouteRef  string `groups:"basic" bson:",omitempty"`

	StopPaths []*StopPath `groups:"detailed"`
}

// StopPath is the route geometry between the previous stop and the stop it is named after
type StopPath struct {
	StopPathIndex int    `groups:"basic"`
	StopRef       string `groups:"basic" bson:",omitempty"`

	Length float64 `groups:"basic"`

	// Layover or timepoint stop where the vehicle is expected to wait for its scheduled departure
	IsWaitStop bool `groups:"detailed"`
}

func (t *Trip) NumberStopPaths() int {
	return len(t.StopPaths)
}

func (t *Trip) LastStopPathIndex() int {
	return len(t.StopPaths) - 1
}

func (t *Trip) GetStopPath(stopPathIndex int) *StopPath {
	if stopPathIndex < 0 || stopPathIndex >= len(t.StopPaths) {
		return nil
	}

	return t.StopPaths[stopPathIndex]
}

// TripMap is an in memory lookup of trips by their identifier
type TripMap map[string]*Trip

func (m TripMap) GetTrip(tripID string) *Trip {
	return m[tripID]
}

func (m TripMap) Add(trip *Trip) {
	m[trip.PrimaryIdentifier] = trip
}
