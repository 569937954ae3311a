package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ArrivalDeparturesCollection = "arrival_departures"
	MatchesCollection           = "matches"
	TripsCollection             = "trips"
	TravelTimesCollection       = "travel_times"
)

func createIndexes() {
	createHistoricalIndexes()
	createTripIndexes()
	createTravelTimesIndexes()
}

func createHistoricalIndexes() {
	// Runs read a whole agency over a time window
	for _, collectionName := range []string{ArrivalDeparturesCollection, MatchesCollection} {
		collection := GetCollection(collectionName)
		_, err := collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "agencyid", Value: 1},
					{Key: "time", Value: 1},
				},
			},
			{
				Keys: bson.D{{Key: "tripid", Value: 1}},
			},
		}, options.CreateIndexes())
		if err != nil {
			log.Error().Err(err).Str("collection", collectionName).Msg("Creating Index")
		}
	}
}

func createTripIndexes() {
	tripsCollection := GetCollection(TripsCollection)
	_, err := tripsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "agencyid", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createTravelTimesIndexes() {
	travelTimesCollection := GetCollection(TravelTimesCollection)
	_, err := travelTimesCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tripid", Value: 1},
				{Key: "stoppathindex", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "agencyid", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
