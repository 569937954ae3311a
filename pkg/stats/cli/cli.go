package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/traveltimes/pkg/database"
	"github.com/travigo/traveltimes/pkg/elastic_client"
	"github.com/travigo/traveltimes/pkg/stats/calculator"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarise the travel times currently stored",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "index",
				Usage: "also index the stats into Elasticsearch",
			},
		},
		Action: func(c *cli.Context) error {
			if err := database.Connect(); err != nil {
				return err
			}
			defer database.Disconnect()

			stats, err := calculator.GetTravelTimes(c.Context)
			if err != nil {
				return err
			}

			record := calculator.RecordStatsData{
				Type:      "traveltimes",
				Stats:     stats,
				Timestamp: time.Now(),
			}

			recordBytes, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(recordBytes))

			if !c.Bool("index") {
				return nil
			}

			if err := elastic_client.Connect(true); err != nil {
				return err
			}

			yearNumber, weekNumber := record.Timestamp.ISOWeek()
			indexName := fmt.Sprintf("stats-%s-%d-%d", record.Type, yearNumber, weekNumber)

			elastic_client.IndexRequest(indexName, "", bytes.NewReader(recordBytes))
			if err := elastic_client.WaitUntilQueueEmpty(); err != nil {
				return err
			}

			log.Info().Str("index", indexName).Msg("Indexed travel times stats")

			return nil
		},
	}
}
