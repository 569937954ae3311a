package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/traveltimes"
)

type JobRunner interface {
	Run(ctx context.Context, request traveltimes.RunRequest) (*traveltimes.TravelTimeInfoMap, *traveltimes.RunSummary, error)
}

// JobConsumer runs every job in the batch one after another. Failed jobs are rejected so they can be
// inspected and returned to the queue.
type JobConsumer struct {
	Context context.Context
	Runner  JobRunner
}

func NewJobConsumer(ctx context.Context, runner JobRunner) *JobConsumer {
	return &JobConsumer{
		Context: ctx,
		Runner:  runner,
	}
}

func (c *JobConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		if c.handle(delivery) {
			if err := delivery.Ack(); err != nil {
				log.Error().Err(err).Msg("Failed to ack job")
			}
		} else {
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject job")
			}
		}
	}
}

func (c *JobConsumer) handle(delivery rmq.Delivery) bool {
	var job Job
	if err := json.Unmarshal([]byte(delivery.Payload()), &job); err != nil {
		log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Failed to decode job")
		return false
	}

	request, err := job.RunRequest()
	if err != nil {
		log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Invalid job")
		return false
	}

	startTime := time.Now()

	_, summary, err := c.Runner.Run(c.Context, request)
	if err != nil {
		log.Error().Err(err).Str("agency", request.AgencyID).Msg("Travel times run failed")
		return false
	}

	log.Info().
		Str("agency", request.AgencyID).
		Int("records", summary.Build.Records).
		Str("Time", time.Since(startTime).String()).
		Msg("Travel times job complete")

	return true
}
