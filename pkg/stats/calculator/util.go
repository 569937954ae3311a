package calculator

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func CountAggregate(ctx context.Context, collection *mongo.Collection, aggregateKey string) (map[string]int, error) {
	countMap := map[string]int{}

	aggregation := mongo.Pipeline{
		bson.D{
			{Key: "$group",
				Value: bson.D{
					{Key: "_id", Value: aggregateKey},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				},
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, aggregation)
	if err != nil {
		return nil, err
	}

	var result []struct {
		ID    interface{} `bson:"_id"`
		Count int         `bson:"count"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}

	for _, record := range result {
		countMap[fmt.Sprint(record.ID)] = record.Count
	}

	return countMap, nil
}
