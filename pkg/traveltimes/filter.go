package traveltimes

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/travigo/traveltimes/pkg/util"
)

// occurrenceEnvironment is what an occurrence filter expression can reference
type occurrenceEnvironment struct {
	ServiceID string
	Date      string
	TripID    string
	VehicleID string
	Weekday   string

	Events int
}

// OccurrenceFilter decides whether a trip occurrence is used in a run, eg
// `Weekday in ["Saturday", "Sunday"] && !(VehicleID startsWith "TEST")`
type OccurrenceFilter struct {
	program *vm.Program
}

func NewOccurrenceFilter(expression string) (*OccurrenceFilter, error) {
	program, err := expr.Compile(expression, expr.Env(occurrenceEnvironment{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid occurrence filter: %w", err)
	}

	return &OccurrenceFilter{program: program}, nil
}

// Include reports whether the occurrence passes the filter. A nil filter includes everything.
func (f *OccurrenceFilter) Include(key OccurrenceKey, events int) (bool, error) {
	if f == nil {
		return true, nil
	}

	environment := occurrenceEnvironment{
		ServiceID: key.ServiceID,
		Date:      key.Date,
		TripID:    key.TripID,
		VehicleID: key.VehicleID,
		Events:    events,
	}
	if date, err := time.ParseInLocation(util.YearMonthDayFormat, key.Date, time.Local); err == nil {
		environment.Weekday = date.Weekday().String()
	}

	output, err := expr.Run(f.program, environment)
	if err != nil {
		return false, err
	}

	return output.(bool), nil
}
