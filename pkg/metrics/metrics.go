package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DiscardReasonFirstStopLateness = "first_stop_lateness"
	DiscardReasonScheduleAdherence = "schedule_adherence"
	DiscardReasonNonMonotonic      = "non_monotonic"
	DiscardReasonSegmentMismatch   = "segment_mismatch"
)

const (
	SampleTypeStopTime   = "stop_time"
	SampleTypeTravelTime = "travel_time"
)

// Collector holds the travel times processing metrics. A nil Collector is valid and records nothing.
type Collector struct {
	reg *prometheus.Registry

	Runs                *prometheus.CounterVec // result label: success|failure
	OccurrencesSeen     prometheus.Counter
	OccurrencesFiltered prometheus.Counter

	SamplesRecorded  *prometheus.CounterVec // type label: stop_time|travel_time
	SamplesDiscarded *prometheus.CounterVec // reason label

	MissingTrips   prometheus.Counter
	RecordsBuilt   prometheus.Counter
	RecordsInvalid prometheus.Counter

	RunDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traveltimes_runs_total",
			Help: "Travel times processing runs by result.",
		}, []string{"result"}),
		OccurrencesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_occurrences_processed_total",
			Help: "Trip occurrences processed.",
		}),
		OccurrencesFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_occurrences_filtered_total",
			Help: "Trip occurrences skipped by the occurrence filter.",
		}),
		SamplesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traveltimes_samples_recorded_total",
			Help: "Stop and travel time samples added to the aggregation store.",
		}, []string{"type"}),
		SamplesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traveltimes_samples_discarded_total",
			Help: "Samples discarded as anomalous or inconsistent.",
		}, []string{"reason"}),
		MissingTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_missing_trip_configuration_total",
			Help: "Keys skipped because their trip is not configured.",
		}),
		RecordsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_records_built_total",
			Help: "TravelTimeInfo records generated.",
		}),
		RecordsInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_records_invalid_total",
			Help: "Keys skipped because their travel times were inconsistent.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "traveltimes_run_duration_seconds",
			Help:    "Duration of a complete processing run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
	}

	reg.MustRegister(
		c.Runs, c.OccurrencesSeen, c.OccurrencesFiltered,
		c.SamplesRecorded, c.SamplesDiscarded,
		c.MissingTrips, c.RecordsBuilt, c.RecordsInvalid,
		c.RunDuration,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) ObserveRun(success bool, duration time.Duration) {
	if c == nil {
		return
	}

	result := "success"
	if !success {
		result = "failure"
	}
	c.Runs.WithLabelValues(result).Inc()
	c.RunDuration.Observe(duration.Seconds())
}

func (c *Collector) ObserveOccurrence(filtered bool) {
	if c == nil {
		return
	}

	if filtered {
		c.OccurrencesFiltered.Inc()
	} else {
		c.OccurrencesSeen.Inc()
	}
}

func (c *Collector) ObserveSample(sampleType string) {
	if c == nil {
		return
	}
	c.SamplesRecorded.WithLabelValues(sampleType).Inc()
}

func (c *Collector) ObserveDiscard(reason string) {
	if c == nil {
		return
	}
	c.SamplesDiscarded.WithLabelValues(reason).Inc()
}

func (c *Collector) ObserveMissingTrip() {
	if c == nil {
		return
	}
	c.MissingTrips.Inc()
}

func (c *Collector) ObserveRecord(valid bool) {
	if c == nil {
		return
	}

	if valid {
		c.RecordsBuilt.Inc()
	} else {
		c.RecordsInvalid.Inc()
	}
}
