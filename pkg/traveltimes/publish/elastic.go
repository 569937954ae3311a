package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/liip/sheriff"
	"github.com/travigo/traveltimes/pkg/elastic_client"
)

// ElasticWriter indexes every record so runs can be compared over time in Kibana
type ElasticWriter struct {
	index func(indexName string, documentID string, document io.ReadSeeker)
	flush func() error
}

func NewElasticWriter() *ElasticWriter {
	return &ElasticWriter{
		index: elastic_client.IndexRequest,
		flush: elastic_client.WaitUntilQueueEmpty,
	}
}

func (w *ElasticWriter) Name() string {
	return "elasticsearch"
}

func IndexName(run *Run) string {
	yearNumber, weekNumber := run.GeneratedAt.ISOWeek()
	return fmt.Sprintf("travel-times-%d-%d", yearNumber, weekNumber)
}

func (w *ElasticWriter) Publish(ctx context.Context, run *Run) error {
	indexName := IndexName(run)

	for _, record := range run.Records() {
		if err := ctx.Err(); err != nil {
			return err
		}

		reduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: []string{"basic", "detailed"},
		}, record)
		if err != nil {
			return err
		}

		document, err := json.Marshal(reduced)
		if err != nil {
			return err
		}

		documentID := fmt.Sprintf("%s-%d-%d", record.TripID, record.StopPathIndex, run.GeneratedAt.Unix())
		w.index(indexName, documentID, bytes.NewReader(document))
	}

	if run.Summary != nil {
		document, err := json.Marshal(newSummaryDocument(run))
		if err != nil {
			return err
		}

		yearNumber, weekNumber := run.GeneratedAt.ISOWeek()
		w.index(fmt.Sprintf("travel-times-runs-%d-%d", yearNumber, weekNumber), "", bytes.NewReader(document))
	}

	return w.flush()
}

type summaryDocument struct {
	AgencyID  string
	BeginTime time.Time
	EndTime   time.Time

	StartTime      time.Time
	DurationMillis int64

	Occurrences         int
	FilteredOccurrences int

	StopTimes   int
	TravelTimes int

	DiscardedFirstStopLateness int
	DiscardedScheduleAdherence int
	DiscardedNonMonotonic      int
	DiscardedSegmentMismatch   int

	Records      int
	MissingTrips int
	InvalidKeys  int
}

func newSummaryDocument(run *Run) summaryDocument {
	summary := run.Summary

	return summaryDocument{
		AgencyID:  run.AgencyID,
		BeginTime: summary.Request.BeginTime,
		EndTime:   summary.Request.EndTime,

		StartTime:      summary.StartTime,
		DurationMillis: summary.Duration.Milliseconds(),

		Occurrences:         summary.Processing.Occurrences,
		FilteredOccurrences: summary.FilteredOccurrences,

		StopTimes:   summary.Processing.StopTimes,
		TravelTimes: summary.Processing.TravelTimes,

		DiscardedFirstStopLateness: summary.Processing.DiscardedFirstStopLateness,
		DiscardedScheduleAdherence: summary.Processing.DiscardedScheduleAdherence,
		DiscardedNonMonotonic:      summary.Processing.DiscardedNonMonotonic,
		DiscardedSegmentMismatch:   summary.Processing.DiscardedSegmentMismatch,

		Records:      summary.Build.Records,
		MissingTrips: summary.Build.MissingTrips,
		InvalidKeys:  summary.Build.InvalidKeys,
	}
}
