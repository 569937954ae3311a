package calculator

import (
	"context"
	"time"

	"github.com/travigo/traveltimes/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Matches traveltimes.StopTimeNotValid
const stopTimeNotValid = -1

type TravelTimesStats struct {
	Total int
	Trips int

	Agencies map[string]int

	MissingStopTimes int

	// Msec
	AverageStopTime        int64
	AverageTotalTravelTime int64

	LastGenerated time.Time
}

func GetTravelTimes(ctx context.Context) (TravelTimesStats, error) {
	return CalculateTravelTimes(ctx, database.GetCollection(database.TravelTimesCollection))
}

func CalculateTravelTimes(ctx context.Context, collection *mongo.Collection) (TravelTimesStats, error) {
	stats := TravelTimesStats{}

	total, err := collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return stats, err
	}
	stats.Total = int(total)

	trips, err := collection.Distinct(ctx, "tripid", bson.D{})
	if err != nil {
		return stats, err
	}
	stats.Trips = len(trips)

	missingStopTimes, err := collection.CountDocuments(ctx, bson.M{"stoptime": stopTimeNotValid})
	if err != nil {
		return stats, err
	}
	stats.MissingStopTimes = int(missingStopTimes)

	stats.Agencies, err = CountAggregate(ctx, collection, "$agencyid")
	if err != nil {
		return stats, err
	}

	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totaltraveltime", Value: bson.D{{Key: "$avg", Value: "$totaltraveltime"}}},
			{Key: "stoptime", Value: bson.D{{Key: "$avg", Value: bson.D{
				{Key: "$cond", Value: bson.A{bson.D{{Key: "$eq", Value: bson.A{"$stoptime", stopTimeNotValid}}}, nil, "$stoptime"}},
			}}}},
			{Key: "generatedat", Value: bson.D{{Key: "$max", Value: "$generatedat"}}},
		}}},
	})
	if err != nil {
		return stats, err
	}

	var averages []struct {
		TotalTravelTime float64   `bson:"totaltraveltime"`
		StopTime        float64   `bson:"stoptime"`
		GeneratedAt     time.Time `bson:"generatedat"`
	}
	if err := cursor.All(ctx, &averages); err != nil {
		return stats, err
	}

	if len(averages) > 0 {
		stats.AverageTotalTravelTime = int64(averages[0].TotalTravelTime)
		stats.AverageStopTime = int64(averages[0].StopTime)
		stats.LastGenerated = averages[0].GeneratedAt
	}

	return stats, nil
}
