package publish

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoBatchSize = 1000

// MongoWriter replaces the stored travel times of every trip stop path in the run
type MongoWriter struct {
	Collection *mongo.Collection
}

func NewMongoWriter(collection *mongo.Collection) *MongoWriter {
	return &MongoWriter{Collection: collection}
}

func (w *MongoWriter) Name() string {
	return "mongo"
}

func (w *MongoWriter) Publish(ctx context.Context, run *Run) error {
	operations := replaceModels(run.Records())

	for start := 0; start < len(operations); start += mongoBatchSize {
		end := min(start+mongoBatchSize, len(operations))

		_, err := w.Collection.BulkWrite(ctx, operations[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
	}

	return nil
}

func replaceModels(records []*Record) []mongo.WriteModel {
	operations := make([]mongo.WriteModel, 0, len(records))

	for _, record := range records {
		operations = append(operations, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"tripid": record.TripID, "stoppathindex": record.StopPathIndex}).
			SetReplacement(record).
			SetUpsert(true))
	}

	return operations
}
