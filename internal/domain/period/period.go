// Package period describes the date windows a season is fetched in.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO date format used by the upstream query interface.
const DateLayout = "2006-01-02"

// Season window boundaries.
const (
	openingMonth   = time.March
	openingDay     = 28
	closingMonth   = time.October
	minSeasonYear  = 1000
	maxSeasonYear  = 9999
	seasonYearSize = 4
)

// Period is a contiguous date range fetched with one query and stored as one file.
type Period struct {
	// Name is the lowercase month name, e.g. "april".
	Name  string
	Start time.Time
	End   time.Time
}

// FileName returns the period file name for the given season, e.g. "april_2024.csv".
func (p Period) FileName(year int) string {
	return fmt.Sprintf("%s_%d.csv", p.Name, year)
}

// StartDate renders Start as YYYY-MM-DD.
func (p Period) StartDate() string { return p.Start.Format(DateLayout) }

// EndDate renders End as YYYY-MM-DD.
func (p Period) EndDate() string { return p.End.Format(DateLayout) }

func (p Period) String() string {
	return p.Name + "[" + p.StartDate() + ".." + p.EndDate() + "]"
}

// Season returns the periods covering one regular season: the last four
// days of March followed by every full month from April through October.
func Season(year int) ([]Period, error) {
	if year < minSeasonYear || year > maxSeasonYear {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}

	periods := make([]Period, 0, int(closingMonth-openingMonth)+1)
	periods = append(periods, Period{
		Name:  monthName(openingMonth),
		Start: date(year, openingMonth, openingDay),
		End:   lastDay(year, openingMonth),
	})
	for m := openingMonth + 1; m <= closingMonth; m++ {
		periods = append(periods, Period{
			Name:  monthName(m),
			Start: date(year, m, 1),
			End:   lastDay(year, m),
		})
	}
	return periods, nil
}

// ParseYear parses a four-digit season year such as "2024".
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != seasonYearSize {
		return 0, fmt.Errorf("%w: %q is not a four-digit year", ErrInvalidYear, s)
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < minSeasonYear {
		return 0, fmt.Errorf("%w: %q is not a four-digit year", ErrInvalidYear, s)
	}
	return year, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// lastDay relies on time.Date normalising day 0 to the last day of the previous month.
func lastDay(year int, month time.Month) time.Time {
	return date(year, month+1, 0)
}

func monthName(m time.Month) string {
	return strings.ToLower(m.String())
}
