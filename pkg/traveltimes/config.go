package traveltimes

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the tuning parameters for a travel times processing run
type Config struct {
	// Stop paths are divided into equal length travel time segments no longer than this (meters)
	MaxTravelTimeSegmentLength float64 `yaml:"MaxTravelTimeSegmentLength" validate:"gt=0"`

	// First stop departures later or earlier than this are treated as anomalies
	MaxFirstStopLateness time.Duration `yaml:"MaxFirstStopLateness" validate:"gt=0"`
	// Pairs of events with a schedule adherence worse than this are ignored
	MaxScheduleAdherence time.Duration `yaml:"MaxScheduleAdherence" validate:"gt=0"`

	// Fraction used by the filtered average when discarding outliers
	RetainFraction float64 `yaml:"RetainFraction" validate:"gt=0,lte=1"`

	// Optional expression evaluated against each trip occurrence, eg `ServiceID == "weekday"`
	OccurrenceFilter string `yaml:"OccurrenceFilter"`
}

func DefaultConfig() Config {
	return Config{
		MaxTravelTimeSegmentLength: 250.0,
		MaxFirstStopLateness:       10 * time.Minute,
		MaxScheduleAdherence:       30 * time.Minute,
		RetainFraction:             0.7,
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid travel times config: %w", err)
	}

	if c.OccurrenceFilter != "" {
		if _, err := NewOccurrenceFilter(c.OccurrenceFilter); err != nil {
			return err
		}
	}

	return nil
}

// LoadConfig reads the YAML config file on top of the defaults and then applies environment overrides.
// An empty path only uses the defaults and environment.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return config, err
		}

		if err := yaml.Unmarshal(contents, &config); err != nil {
			return config, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnvironmentOverrides(&config); err != nil {
		return config, err
	}

	return config, config.Validate()
}

func applyEnvironmentOverrides(config *Config) error {
	if val := os.Getenv("TRAVELTIMES_MAX_SEGMENT_LENGTH"); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid TRAVELTIMES_MAX_SEGMENT_LENGTH: %w", err)
		}
		config.MaxTravelTimeSegmentLength = parsed
	}

	if val := os.Getenv("TRAVELTIMES_MAX_FIRST_STOP_LATENESS"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid TRAVELTIMES_MAX_FIRST_STOP_LATENESS: %w", err)
		}
		config.MaxFirstStopLateness = parsed
	}

	if val := os.Getenv("TRAVELTIMES_MAX_SCHEDULE_ADHERENCE"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid TRAVELTIMES_MAX_SCHEDULE_ADHERENCE: %w", err)
		}
		config.MaxScheduleAdherence = parsed
	}

	if val := os.Getenv("TRAVELTIMES_RETAIN_FRACTION"); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid TRAVELTIMES_RETAIN_FRACTION: %w", err)
		}
		config.RetainFraction = parsed
	}

	if val := os.Getenv("TRAVELTIMES_OCCURRENCE_FILTER"); val != "" {
		config.OccurrenceFilter = val
	}

	return nil
}
