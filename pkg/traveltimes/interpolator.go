package traveltimes

import (
	"errors"
	"fmt"
	"time"
)

// Subtracted from distances before working out the segment so a point sitting exactly on a vertex,
// such as the arrival at the end of the stop path, belongs to the segment that ends there
const segmentBoundaryEpsilon = 0.0000001

var ErrNonMonotonicMatchPoints = errors.New("match points go backwards")
var ErrInsufficientMatchPoints = errors.New("need at least a departure and an arrival match point")

type MatchPointReason string

const (
	MatchPointReasonDeparture MatchPointReason = "Departure"
	MatchPointReasonMatch     MatchPointReason = "Match"
	MatchPointReasonArrival   MatchPointReason = "Arrival"
)

// MatchPoint is where a vehicle was along a stop path at a point in time.
// Time is in epoch milliseconds.
type MatchPoint struct {
	Time                  int64
	DistanceAlongStopPath float64
	Reason                MatchPointReason
}

func (m MatchPoint) String() string {
	return fmt.Sprintf("MatchPoint [time=%s distance=%.2fm reason=%s]",
		time.UnixMilli(m.Time).UTC().Format(time.RFC3339Nano), m.DistanceAlongStopPath, m.Reason)
}

// NonMonotonicError is returned when two consecutive match points go backwards in time,
// or backwards along the stop path across a segment vertex
type NonMonotonicError struct {
	From MatchPoint
	To   MatchPoint
}

func (e *NonMonotonicError) Error() string {
	return fmt.Sprintf("%s: %s followed by %s", ErrNonMonotonicMatchPoints, e.From, e.To)
}

func (e *NonMonotonicError) Unwrap() error {
	return ErrNonMonotonicMatchPoints
}

// VertexTimes determines when each travel time segment vertex was crossed. The result starts with the
// departure time and ends with the arrival time, with the crossing time of every intermediate vertex in
// between. Speed is assumed constant between consecutive match points.
func VertexTimes(matchPoints []MatchPoint, segmentLength float64) ([]int64, error) {
	if len(matchPoints) < 2 {
		return nil, ErrInsufficientMatchPoints
	}

	vertexTimes := []int64{matchPoints[0].Time}

	for i := 0; i < len(matchPoints)-1; i++ {
		point1 := matchPoints[i]
		point2 := matchPoints[i+1]

		// Usually the predictor being restarted and vehicles being matched to the wrong trip
		if point2.Time < point1.Time {
			return nil, &NonMonotonicError{From: point1, To: point2}
		}

		segmentIndex1 := segmentIndex(point1.DistanceAlongStopPath, segmentLength)
		segmentIndex2 := segmentIndex(point2.DistanceAlongStopPath, segmentLength)

		// Going back across a vertex means the vertex would be crossed twice. GPS jitter right next to a
		// vertex ends up here too and drops the whole stop path for this occurrence.
		if segmentIndex2 < segmentIndex1 {
			return nil, &NonMonotonicError{From: point1, To: point2}
		}

		if segmentIndex1 == segmentIndex2 {
			continue
		}

		// Meters per msec. Infinite when both points share a timestamp which puts every crossing at point1.
		speed := (point2.DistanceAlongStopPath - point1.DistanceAlongStopPath) / float64(point2.Time-point1.Time)

		for vertexIndex := segmentIndex1 + 1; vertexIndex <= segmentIndex2; vertexIndex++ {
			vertexDistance := float64(vertexIndex) * segmentLength
			distanceToVertex := vertexDistance - point1.DistanceAlongStopPath

			vertexTimes = append(vertexTimes, point1.Time+int64(distanceToVertex/speed))
		}
	}

	vertexTimes = append(vertexTimes, matchPoints[len(matchPoints)-1].Time)

	return vertexTimes, nil
}

// Truncates towards zero so the departure at distance 0 stays in the first segment
func segmentIndex(distanceAlongStopPath float64, segmentLength float64) int {
	return int((distanceAlongStopPath - segmentBoundaryEpsilon) / segmentLength)
}

// InterpolateTravelTimes returns the travel time in msec for each travel time segment of the stop path
func InterpolateTravelTimes(matchPoints []MatchPoint, segmentLength float64) ([]int64, error) {
	vertexTimes, err := VertexTimes(matchPoints, segmentLength)
	if err != nil {
		return nil, err
	}

	travelTimes := make([]int64, 0, len(vertexTimes)-1)
	for i := 0; i < len(vertexTimes)-1; i++ {
		travelTimes = append(travelTimes, vertexTimes[i+1]-vertexTimes[i])
	}

	return travelTimes, nil
}
