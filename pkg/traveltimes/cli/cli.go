package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/database"
	"github.com/travigo/traveltimes/pkg/elastic_client"
	"github.com/travigo/traveltimes/pkg/metrics"
	"github.com/travigo/traveltimes/pkg/redis_client"
	"github.com/travigo/traveltimes/pkg/traveltimes"
	"github.com/travigo/traveltimes/pkg/traveltimes/publish"
	"github.com/travigo/traveltimes/pkg/traveltimes/runner"
	"github.com/travigo/traveltimes/pkg/traveltimes/source"
	"github.com/travigo/traveltimes/pkg/traveltimes/worker"
	"github.com/travigo/traveltimes/pkg/util"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "YAML file with the travel times processing parameters",
}

var sourceFlag = &cli.StringFlag{
	Name:  "source",
	Value: "mongo",
	Usage: "where the historic data is read from: mongo or csv",
}

var csvDirectoryFlag = &cli.StringFlag{
	Name:  "csv-dir",
	Usage: "directory containing the CSV export when using the csv source",
}

func RegisterRunCLI() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate travel times from a window of historic data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "agency",
				Usage: "agency to process, all agencies when empty",
			},
			&cli.TimestampFlag{
				Name:   "begin",
				Layout: dateLayout,
				Usage:  "first day of data to use, defaults to a week before end",
			},
			&cli.TimestampFlag{
				Name:   "end",
				Layout: dateLayout,
				Usage:  "day after the last day of data to use, defaults to today",
			},
			&cli.StringFlag{
				Name:  "special-days",
				Usage: "only use trips on these days of the week, eg saturday,sunday",
			},
			configFlag,
			sourceFlag,
			csvDirectoryFlag,
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "write the travel times to MongoDB, the redis cache and Elasticsearch",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "also write the travel times as JSON to this file",
			},
		},
		Action: func(c *cli.Context) error {
			request, err := runRequestFromFlags(c)
			if err != nil {
				return err
			}

			r, err := newRunner(c, c.Bool("publish"), nil)
			if err != nil {
				return err
			}
			defer database.Disconnect()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			travelTimeInfoMap, summary, err := r.Run(ctx, request)
			if err != nil {
				return err
			}

			log.Info().
				Int("occurrences", summary.Processing.Occurrences).
				Int("filtered", summary.FilteredOccurrences).
				Int("records", summary.Build.Records).
				Int("missingtrips", summary.Build.MissingTrips).
				Int("invalid", summary.Build.InvalidKeys).
				Msg("Run summary")

			if output := c.String("output"); output != "" {
				return writeOutput(output, request.AgencyID, travelTimeInfoMap)
			}

			return nil
		},
	}
}

func RegisterWorkerCLI() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run travel times jobs from the queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: ":3333",
				Usage: "listen target for the metrics and health server",
			},
			configFlag,
		},
		Action: func(c *cli.Context) error {
			collector := metrics.NewCollector()

			r, err := newRunner(c, true, collector)
			if err != nil {
				return err
			}
			defer database.Disconnect()

			if redis_client.QueueConnection == nil {
				if err := redis_client.Connect(); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			if err := worker.Start(redis_client.QueueConnection, worker.NewJobConsumer(ctx, r)); err != nil {
				return err
			}

			go func() {
				log.Info().Msgf("Metrics server listening on %s", c.String("listen"))
				if err := http.ListenAndServe(c.String("listen"), worker.NewServeMux(collector, redis_client.QueueConnection)); err != nil {
					log.Fatal().Err(err).Msg("Metrics server failed")
				}
			}()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)

			<-signals // wait for signal
			go func() {
				<-signals // hard exit on second signal (in case shutdown gets stuck)
				os.Exit(1)
			}()

			cancel()
			<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

			return nil
		},
	}
}

func RegisterEnqueueCLI() *cli.Command {
	return &cli.Command{
		Name:  "enqueue",
		Usage: "Queue a travel times run for the worker",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "agency"},
			&cli.TimestampFlag{Name: "begin", Layout: dateLayout},
			&cli.TimestampFlag{Name: "end", Layout: dateLayout},
			&cli.StringFlag{Name: "special-days"},
		},
		Action: func(c *cli.Context) error {
			request, err := runRequestFromFlags(c)
			if err != nil {
				return err
			}

			if err := redis_client.Connect(); err != nil {
				return err
			}

			job := &worker.Job{
				AgencyID:  request.AgencyID,
				BeginTime: request.BeginTime,
				EndTime:   request.EndTime,
			}
			for _, weekday := range request.SpecialDaysOfWeek {
				job.SpecialDaysOfWeek = append(job.SpecialDaysOfWeek, weekday.String())
			}
			if err := worker.Enqueue(redis_client.QueueConnection, job); err != nil {
				return err
			}

			log.Info().Str("queue", worker.QueueName).Str("agency", job.AgencyID).Msg("Queued travel times run")

			return nil
		},
	}
}

func runRequestFromFlags(c *cli.Context) (traveltimes.RunRequest, error) {
	now := time.Now()
	endTime := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if end := c.Timestamp("end"); end != nil {
		endTime = localDate(*end)
	}

	beginTime := endTime.AddDate(0, 0, -7)
	if begin := c.Timestamp("begin"); begin != nil {
		beginTime = localDate(*begin)
	}

	if !endTime.After(beginTime) {
		return traveltimes.RunRequest{}, fmt.Errorf("end %s must be after begin %s", endTime.Format(dateLayout), beginTime.Format(dateLayout))
	}

	var specialDays []time.Weekday
	if c.IsSet("special-days") {
		var err error
		specialDays, err = util.ParseWeekdays(c.String("special-days"))
		if err != nil {
			return traveltimes.RunRequest{}, err
		}
	}

	return traveltimes.RunRequest{
		AgencyID:          c.String("agency"),
		BeginTime:         beginTime,
		EndTime:           endTime,
		SpecialDaysOfWeek: specialDays,
	}, nil
}

// Timestamp flags are parsed as UTC but the days are service days in the local timezone
func localDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func newRunner(c *cli.Context, publishResults bool, collector *metrics.Collector) (*runner.Runner, error) {
	config, err := traveltimes.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	r := &runner.Runner{
		Config:  config,
		Metrics: collector,
	}

	switch c.String("source") {
	case "csv":
		if c.String("csv-dir") == "" {
			return nil, fmt.Errorf("--csv-dir is required for the csv source")
		}

		csvSource := source.NewCSVSource(c.String("csv-dir"))
		r.DataSource = csvSource
		r.LoadTrips = func(ctx context.Context, agencyID string) (traveltimes.TripProvider, error) {
			return csvSource.LoadTrips(agencyID)
		}
	case "mongo", "":
		if err := database.Connect(); err != nil {
			return nil, err
		}

		mongoSource := source.NewMongoSource()
		r.DataSource = mongoSource
		r.LoadTrips = func(ctx context.Context, agencyID string) (traveltimes.TripProvider, error) {
			return source.LoadTrips(ctx, mongoSource.Database, agencyID)
		}
	default:
		return nil, fmt.Errorf("unknown source %q", c.String("source"))
	}

	if publishResults {
		r.Publisher, err = newPublisher()
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

func newPublisher() (*publish.Publisher, error) {
	if database.MongoGlobalInstance == nil {
		if err := database.Connect(); err != nil {
			return nil, err
		}
	}
	if err := redis_client.Connect(); err != nil {
		return nil, err
	}
	if err := elastic_client.Connect(false); err != nil {
		return nil, err
	}

	env := util.GetEnvironmentVariables()
	cacheExpiration, err := time.ParseDuration(util.GetEnvironmentVariable(env, "CACHE_EXPIRATION", "192h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRAVELTIMES_CACHE_EXPIRATION: %w", err)
	}

	sinks := []publish.Sink{
		publish.NewMongoWriter(database.GetCollection(database.TravelTimesCollection)),
		publish.NewCacheWriter(redis_client.Client, cacheExpiration),
	}
	if elastic_client.IsConnected() {
		sinks = append(sinks, publish.NewElasticWriter())
	}

	return publish.NewPublisher(sinks...), nil
}

func writeOutput(path string, agencyID string, travelTimeInfoMap *traveltimes.TravelTimeInfoMap) error {
	run := &publish.Run{
		AgencyID:    agencyID,
		GeneratedAt: time.Now(),
		TravelTimes: travelTimeInfoMap,
	}

	outputBytes, err := json.MarshalIndent(run.Records(), "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, outputBytes, 0644); err != nil {
		return err
	}

	log.Info().Str("file", path).Int("records", travelTimeInfoMap.Len()).Msg("Wrote travel times")

	return nil
}
