package elastic_client

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/util"
)

var ErrNotConfigured = errors.New("elasticsearch configuration not set")

var Client *elasticsearch.Client
var bulkIndexer esutil.BulkIndexer

func Connect(required bool) error {
	env := util.GetEnvironmentVariables()

	address := util.GetEnvironmentVariable(env, "ELASTICSEARCH_ADDRESS", "")
	if address == "" && !required {
		log.Info().Msg("Skipping Elasticsearch setup")
		return nil
	} else if address == "" {
		return ErrNotConfigured
	}

	tp := http.DefaultTransport.(*http.Transport).Clone()
	if util.GetEnvironmentVariable(env, "ELASTICSEARCH_INSECURE", "") == "YES" {
		tp.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{address},
		Username:  util.GetEnvironmentVariable(env, "ELASTICSEARCH_USERNAME", ""),
		Password:  util.GetEnvironmentVariable(env, "ELASTICSEARCH_PASSWORD", ""),
		Transport: tp,

		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
	if err != nil {
		return err
	}

	_, err = es.Info()
	if err != nil {
		return err
	}

	Client = es

	bulkIndexer, err = esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        es,
		FlushInterval: 15 * time.Second,
	})
	if err != nil {
		return err
	}

	log.Info().Msgf("Elasticsearch client setup for %s", address)

	return nil
}

// IndexRequest queues the document on the bulk indexer. Does nothing when Elasticsearch isnt configured.
func IndexRequest(indexName string, documentID string, document io.ReadSeeker) {
	if Client == nil {
		return
	}

	err := bulkIndexer.Add(
		context.Background(),
		esutil.BulkIndexerItem{
			Index:      indexName,
			Action:     "index",
			DocumentID: documentID,
			Body:       document,
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					log.Error().Err(err).Str("indexName", indexName).Msg("Failed to index document")
				} else {
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index document")
				}
			},
		},
	)
	if err != nil {
		log.Error().Err(err).Str("indexName", indexName).Msg("Failed to queue document")
	}
}

func IsConnected() bool {
	return Client != nil
}

// WaitUntilQueueEmpty flushes everything queued so far and starts a fresh bulk indexer
func WaitUntilQueueEmpty() error {
	if Client == nil {
		return nil
	}

	if err := bulkIndexer.Close(context.Background()); err != nil {
		return err
	}

	stats := bulkIndexer.Stats()
	if stats.NumFailed > 0 {
		log.Error().Uint64("failed", stats.NumFailed).Uint64("indexed", stats.NumIndexed).Msg("Bulk indexing had failures")
	}

	var err error
	bulkIndexer, err = esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        Client,
		FlushInterval: 15 * time.Second,
	})

	return err
}
