package ctdf

import (
	"fmt"
	"time"

	"github.com/travigo/traveltimes/pkg/util"
)

// Match is a GPS report that has already been matched to a stop path of a trip
type Match struct {
	AgencyID string `groups:"internal"`

	TripID    string `groups:"basic"`
	ServiceID string `groups:"basic"`
	VehicleID string `groups:"basic"`

	StopPathIndex         int     `groups:"basic"`
	DistanceAlongStopPath float64 `groups:"basic"`

	Time time.Time `groups:"basic"`
}

func (m *Match) Date() string {
	return util.ServiceDate(m.Time)
}

func (m *Match) String() string {
	return fmt.Sprintf(
		"Match [trip=%s stopPathIndex=%d vehicle=%s distance=%.2fm time=%s]",
		m.TripID, m.StopPathIndex, m.VehicleID, m.DistanceAlongStopPath, m.Time.Format(time.RFC3339Nano),
	)
}
