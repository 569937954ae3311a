package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/ctdf"
	"github.com/travigo/traveltimes/pkg/traveltimes"
)

const (
	ArrivalDeparturesFile = "arrival_departures.csv"
	MatchesFile           = "matches.csv"
	StopPathsFile         = "stop_paths.csv"
)

// Times are epoch milliseconds
type arrivalDepartureRow struct {
	AgencyID          string  `csv:"agency_id"`
	TripID            string  `csv:"trip_id"`
	StopPathIndex     int     `csv:"stop_path_index"`
	StopID            string  `csv:"stop_id"`
	ServiceID         string  `csv:"service_id"`
	VehicleID         string  `csv:"vehicle_id"`
	Time              int64   `csv:"time"`
	ScheduledTime     int64   `csv:"scheduled_time"`
	Type              string  `csv:"type"`
	StopPathLength    float64 `csv:"stop_path_length"`
	ScheduleAdherence string  `csv:"schedule_adherence_ms"`
}

type matchRow struct {
	AgencyID              string  `csv:"agency_id"`
	TripID                string  `csv:"trip_id"`
	ServiceID             string  `csv:"service_id"`
	VehicleID             string  `csv:"vehicle_id"`
	StopPathIndex         int     `csv:"stop_path_index"`
	DistanceAlongStopPath float64 `csv:"distance_along_stop_path"`
	Time                  int64   `csv:"time"`
}

type stopPathRow struct {
	AgencyID      string  `csv:"agency_id"`
	TripID        string  `csv:"trip_id"`
	ServiceID     string  `csv:"service_id"`
	RouteID       string  `csv:"route_id"`
	StopPathIndex int     `csv:"stop_path_index"`
	StopID        string  `csv:"stop_id"`
	Length        float64 `csv:"length"`
	IsWaitStop    bool    `csv:"is_wait_stop"`
}

func (r *arrivalDepartureRow) toArrivalDeparture() (*ctdf.ArrivalDeparture, error) {
	arrivalDeparture := &ctdf.ArrivalDeparture{
		AgencyID:       r.AgencyID,
		TripID:         r.TripID,
		StopPathIndex:  r.StopPathIndex,
		StopRef:        r.StopID,
		ServiceID:      r.ServiceID,
		VehicleID:      r.VehicleID,
		Time:           time.UnixMilli(r.Time),
		ScheduledTime:  time.UnixMilli(r.ScheduledTime),
		Type:           ctdf.ArrivalDepartureType(r.Type),
		StopPathLength: r.StopPathLength,
	}

	if !arrivalDeparture.IsArrival() && !arrivalDeparture.IsDeparture() {
		return nil, fmt.Errorf("unknown arrival/departure type %q", r.Type)
	}

	if r.ScheduleAdherence != "" {
		adherenceMsec, err := strconv.ParseInt(r.ScheduleAdherence, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule adherence %q: %w", r.ScheduleAdherence, err)
		}

		scheduleAdherence := ctdf.ScheduleAdherence(time.Duration(adherenceMsec) * time.Millisecond)
		arrivalDeparture.ScheduleAdherence = &scheduleAdherence
	}

	return arrivalDeparture, nil
}

// CSVSource reads exported historical data from a directory, mainly for offline reprocessing
type CSVSource struct {
	Directory string
}

func NewCSVSource(directory string) *CSVSource {
	return &CSVSource{Directory: directory}
}

func inWindow(request traveltimes.RunRequest, agencyID string, eventTime time.Time) bool {
	if request.AgencyID != "" && agencyID != request.AgencyID {
		return false
	}
	if !request.BeginTime.IsZero() && eventTime.Before(request.BeginTime) {
		return false
	}
	if !request.EndTime.IsZero() && !eventTime.Before(request.EndTime) {
		return false
	}

	return true
}

func (s *CSVSource) ReadData(ctx context.Context, request traveltimes.RunRequest) (*traveltimes.HistoricalData, error) {
	data := traveltimes.NewHistoricalData()

	var arrivalDepartureRows []*arrivalDepartureRow
	if err := s.readFile(ArrivalDeparturesFile, &arrivalDepartureRows, true); err != nil {
		return nil, err
	}

	for lineIndex, row := range arrivalDepartureRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		arrivalDeparture, err := row.toArrivalDeparture()
		if err != nil {
			log.Error().Err(err).Int("row", lineIndex+1).Msg("Skipping arrival/departure")
			continue
		}

		if inWindow(request, arrivalDeparture.AgencyID, arrivalDeparture.Time) {
			data.AddArrivalDeparture(arrivalDeparture)
		}
	}

	// Matches are optional, without them every stop path is interpolated in a straight line
	var matchRows []*matchRow
	if err := s.readFile(MatchesFile, &matchRows, false); err != nil {
		return nil, err
	}

	for _, row := range matchRows {
		match := &ctdf.Match{
			AgencyID:              row.AgencyID,
			TripID:                row.TripID,
			ServiceID:             row.ServiceID,
			VehicleID:             row.VehicleID,
			StopPathIndex:         row.StopPathIndex,
			DistanceAlongStopPath: row.DistanceAlongStopPath,
			Time:                  time.UnixMilli(row.Time),
		}

		if inWindow(request, match.AgencyID, match.Time) {
			data.AddMatch(match)
		}
	}

	log.Info().
		Str("directory", s.Directory).
		Int("occurrences", len(data.ArrivalDepartures)).
		Msg("Read historic data from CSV")

	return data, nil
}

// LoadTrips builds the trip configuration from the stop paths file
func (s *CSVSource) LoadTrips(agencyID string) (ctdf.TripMap, error) {
	var stopPathRows []*stopPathRow
	if err := s.readFile(StopPathsFile, &stopPathRows, true); err != nil {
		return nil, err
	}

	tripMap := ctdf.TripMap{}
	for _, row := range stopPathRows {
		if agencyID != "" && row.AgencyID != agencyID {
			continue
		}

		trip := tripMap.GetTrip(row.TripID)
		if trip == nil {
			trip = &ctdf.Trip{
				PrimaryIdentifier: row.TripID,
				AgencyID:          row.AgencyID,
				ServiceID:         row.ServiceID,
				RouteRef:          row.RouteID,
			}
			tripMap.Add(trip)
		}

		// A trip cant have more stop paths than there are rows
		if row.StopPathIndex < 0 || row.StopPathIndex >= len(stopPathRows) {
			return nil, fmt.Errorf("trip %s has invalid stop path index %d", row.TripID, row.StopPathIndex)
		}

		// Rows may be in any order so grow the slice to fit
		for len(trip.StopPaths) <= row.StopPathIndex {
			trip.StopPaths = append(trip.StopPaths, nil)
		}
		trip.StopPaths[row.StopPathIndex] = &ctdf.StopPath{
			StopPathIndex: row.StopPathIndex,
			StopRef:       row.StopID,
			Length:        row.Length,
			IsWaitStop:    row.IsWaitStop,
		}
	}

	for tripID, trip := range tripMap {
		for index, stopPath := range trip.StopPaths {
			if stopPath == nil {
				return nil, fmt.Errorf("trip %s is missing stop path %d", tripID, index)
			}
		}
	}

	return tripMap, nil
}

func (s *CSVSource) readFile(fileName string, destination interface{}, required bool) error {
	path := filepath.Join(s.Directory, fileName)

	file, err := os.Open(path)
	if os.IsNotExist(err) && !required {
		return nil
	} else if err != nil {
		return err
	}
	defer file.Close()

	// Allow exports that have missing trailing columns
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if err := gocsv.UnmarshalCSV(reader, destination); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
