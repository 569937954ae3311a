package worker

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/traveltimes/pkg/traveltimes"
	"github.com/travigo/traveltimes/pkg/util"
)

const QueueName = "traveltimes-runs"

// Job is the queue message requesting a processing run
type Job struct {
	AgencyID  string
	BeginTime time.Time `validate:"required"`
	EndTime   time.Time `validate:"required,gtfield=BeginTime"`

	// Weekday names, eg ["saturday", "sunday"]
	SpecialDaysOfWeek []string
}

func (j *Job) RunRequest() (traveltimes.RunRequest, error) {
	if err := validator.New().Struct(j); err != nil {
		return traveltimes.RunRequest{}, fmt.Errorf("invalid job: %w", err)
	}

	specialDays, err := util.ParseWeekdays(strings.Join(j.SpecialDaysOfWeek, ","))
	if err != nil {
		return traveltimes.RunRequest{}, err
	}

	return traveltimes.RunRequest{
		AgencyID:          j.AgencyID,
		BeginTime:         j.BeginTime,
		EndTime:           j.EndTime,
		SpecialDaysOfWeek: specialDays,
	}, nil
}
