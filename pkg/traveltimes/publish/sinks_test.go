package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/traveltimes/pkg/traveltimes"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCacheWriter(t *testing.T) {
	redisServer := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	t.Cleanup(func() { client.Close() })

	writer := NewCacheWriter(client, 24*time.Hour)
	require.NoError(t, writer.Publish(context.Background(), testRun()))

	assert.True(t, redisServer.Exists("traveltimes:T1"))
	assert.True(t, redisServer.Exists("traveltimes:T2"))
	assert.Equal(t, 24*time.Hour, redisServer.TTL("traveltimes:T1"))

	records, err := writer.Get(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].StopPathIndex)
	assert.Equal(t, []int64{462, 277, 261}, records[1].TravelTimes)

	_, err = writer.Get(context.Background(), "missing")
	assert.Error(t, err)
}

type indexedDocument struct {
	indexName  string
	documentID string
	body       map[string]interface{}
}

func TestElasticWriter(t *testing.T) {
	var documents []indexedDocument
	flushed := false

	writer := &ElasticWriter{
		index: func(indexName string, documentID string, document io.ReadSeeker) {
			contents, err := io.ReadAll(document)
			require.NoError(t, err)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(contents, &body))

			documents = append(documents, indexedDocument{indexName, documentID, body})
		},
		flush: func() error {
			flushed = true
			return nil
		},
	}

	require.NoError(t, writer.Publish(context.Background(), testRun()))

	require.Len(t, documents, 3)
	assert.True(t, flushed)

	assert.Equal(t, "travel-times-2024-10", documents[0].indexName)
	assert.Equal(t, "T1-1-1709949600", documents[0].documentID)
	assert.Equal(t, "test", documents[0].body["AgencyID"])
	assert.Equal(t, 60000.0, documents[0].body["TotalTravelTime"])
}

func TestElasticWriterRunSummary(t *testing.T) {
	var indexNames []string

	writer := &ElasticWriter{
		index: func(indexName string, documentID string, document io.ReadSeeker) {
			indexNames = append(indexNames, indexName)
		},
		flush: func() error { return nil },
	}

	run := testRun()
	run.Summary = &traveltimes.RunSummary{Duration: time.Second}

	require.NoError(t, writer.Publish(context.Background(), run))

	require.Len(t, indexNames, 4)
	assert.Equal(t, "travel-times-runs-2024-10", indexNames[3])
}

func TestElasticWriterFlushError(t *testing.T) {
	flushErr := errors.New("bulk indexer closed")

	writer := &ElasticWriter{
		index: func(string, string, io.ReadSeeker) {},
		flush: func() error { return flushErr },
	}

	assert.ErrorIs(t, writer.Publish(context.Background(), testRun()), flushErr)
}

func TestMongoReplaceModels(t *testing.T) {
	models := replaceModels(testRun().Records())
	require.Len(t, models, 3)

	replaceModel, ok := models[1].(*mongo.ReplaceOneModel)
	require.True(t, ok)

	assert.True(t, *replaceModel.Upsert)
	assert.Equal(t, "T1", replaceModel.Filter.(bson.M)["tripid"])
	assert.Equal(t, 2, replaceModel.Replacement.(*Record).StopPathIndex)
}
