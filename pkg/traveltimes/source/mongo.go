package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/traveltimes/pkg/ctdf"
	"github.com/travigo/traveltimes/pkg/database"
	"github.com/travigo/traveltimes/pkg/traveltimes"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSource reads the historical arrivals/departures and matches stored by the realtime tracker
type MongoSource struct {
	Database *mongo.Database
}

func NewMongoSource() *MongoSource {
	return &MongoSource{Database: database.MongoGlobalInstance.Database}
}

func historicalQuery(request traveltimes.RunRequest) bson.M {
	query := bson.M{
		"time": bson.M{
			"$gte": request.BeginTime,
			"$lt":  request.EndTime,
		},
	}
	if request.AgencyID != "" {
		query["agencyid"] = request.AgencyID
	}

	return query
}

func (s *MongoSource) ReadData(ctx context.Context, request traveltimes.RunRequest) (*traveltimes.HistoricalData, error) {
	startTime := time.Now()

	data := traveltimes.NewHistoricalData()
	var dataMutex sync.Mutex

	p := pool.New().WithErrors().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		arrivalDepartures, err := readCollection[ctdf.ArrivalDeparture](ctx, s.Database.Collection(database.ArrivalDeparturesCollection), historicalQuery(request))
		if err != nil {
			return fmt.Errorf("reading arrivals/departures: %w", err)
		}

		dataMutex.Lock()
		defer dataMutex.Unlock()
		for _, arrivalDeparture := range arrivalDepartures {
			data.AddArrivalDeparture(arrivalDeparture)
		}

		return nil
	})

	p.Go(func(ctx context.Context) error {
		matches, err := readCollection[ctdf.Match](ctx, s.Database.Collection(database.MatchesCollection), historicalQuery(request))
		if err != nil {
			return fmt.Errorf("reading matches: %w", err)
		}

		dataMutex.Lock()
		defer dataMutex.Unlock()
		for _, match := range matches {
			data.AddMatch(match)
		}

		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	log.Info().
		Str("agency", request.AgencyID).
		Int("occurrences", len(data.ArrivalDepartures)).
		Str("Time", time.Since(startTime).String()).
		Msg("Read historic data from MongoDB")

	return data, nil
}

func readCollection[T any](ctx context.Context, collection *mongo.Collection, query bson.M) ([]*T, error) {
	cursor, err := collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*T
	for cursor.Next(ctx) {
		var record T
		if err := cursor.Decode(&record); err != nil {
			log.Error().Err(err).Str("collection", collection.Name()).Msg("Failed to decode record")
			continue
		}

		records = append(records, &record)
	}

	return records, cursor.Err()
}

// LoadTrips reads the configured trips for the agency. An empty agency loads every trip.
func LoadTrips(ctx context.Context, db *mongo.Database, agencyID string) (ctdf.TripMap, error) {
	query := bson.M{}
	if agencyID != "" {
		query["agencyid"] = agencyID
	}

	trips, err := readCollection[ctdf.Trip](ctx, db.Collection(database.TripsCollection), query)
	if err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}

	tripMap := ctdf.TripMap{}
	for _, trip := range trips {
		tripMap.Add(trip)
	}

	log.Info().Str("agency", agencyID).Int("trips", len(tripMap)).Msg("Loaded trip configuration")

	return tripMap, nil
}
