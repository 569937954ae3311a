package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/database"
	"github.com/travigo/traveltimes/pkg/metrics"
	"github.com/travigo/traveltimes/pkg/redis_client"
)

// Start consumes run jobs from the queue. Runs are done one at a time as each one holds a whole agencies
// history in memory.
func Start(connection rmq.Connection, consumer rmq.BatchConsumer) error {
	log.Info().Str("queue", QueueName).Msg("Starting consumer")

	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return err
	}
	if err := queue.StartConsuming(1, 1*time.Second); err != nil {
		return err
	}

	if _, err := queue.AddBatchConsumer("traveltimes-worker", 1, 1*time.Second, consumer); err != nil {
		return err
	}

	go startCleaner(connection)

	return nil
}

func startCleaner(connection rmq.Connection) {
	cleaner := rmq.NewCleaner(connection)

	for range time.Tick(5 * time.Minute) {
		returned, err := cleaner.Clean()
		if err != nil {
			log.Error().Err(err).Msg("Failed to clean")
			continue
		}

		if returned != 0 {
			log.Info().Msgf("Cleaned %d records", returned)
		}
	}
}

// Enqueue publishes a run job onto the queue
func Enqueue(connection rmq.Connection, job *Job) error {
	if _, err := job.RunRequest(); err != nil {
		return err
	}

	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return err
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return queue.PublishBytes(jobBytes)
}

// NewServeMux serves the worker metrics and health check. Queue stats are only served when a connection is given.
func NewServeMux(collector *metrics.Collector, connection rmq.Connection) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/health", healthHandler)

	if connection != nil {
		mux.Handle(fmt.Sprintf("/%s/stats", QueueName), &queueStatsHandler{connection: connection})
	}

	return mux
}

type queueStatsHandler struct {
	connection rmq.Connection
}

func (handler *queueStatsHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	layout := request.FormValue("layout")
	refresh := request.FormValue("refresh")

	queues, err := handler.connection.GetOpenQueues()
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	stats, err := handler.connection.CollectStats(queues)
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	fmt.Fprint(writer, stats.GetHtml(layout, refresh))
}

func healthHandler(writer http.ResponseWriter, _ *http.Request) {
	if err := redis_client.Client.Ping(context.TODO()).Err(); err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	if err := database.MongoGlobalInstance.Client.Ping(context.TODO(), nil); err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	writer.WriteHeader(http.StatusOK)
	fmt.Fprint(writer, "OK")
}
