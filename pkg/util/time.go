package util

import (
	"fmt"
	"strings"
	"time"
)

const YearMonthDayFormat = "2006-01-02"

// ServiceDate is the calendar date of the timestamp in the local timezone
func ServiceDate(t time.Time) string {
	return t.In(time.Local).Format(YearMonthDayFormat)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekdays turns a comma separated list such as "saturday,sunday" into weekdays.
// Three letter abbreviations are accepted.
func ParseWeekdays(list string) ([]time.Weekday, error) {
	var weekdays []time.Weekday

	for _, item := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(item))
		if name == "" {
			continue
		}

		weekday, found := weekdayNames[name]
		if !found {
			for fullName, day := range weekdayNames {
				if len(name) == 3 && strings.HasPrefix(fullName, name) {
					weekday = day
					found = true
					break
				}
			}
		}

		if !found {
			return nil, fmt.Errorf("unknown day of week %q", item)
		}

		weekdays = append(weekdays, weekday)
	}

	return weekdays, nil
}
