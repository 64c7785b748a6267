// Package event resolves named holidays into dated markers for charts.
package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aouyang1/go-forecastboard/timedataset"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
)

var (
	ErrStartAfterEnd  = errors.New("event start time is after end time")
	ErrUnsetTime      = errors.New("unset event start or end time")
	ErrNoEventName    = errors.New("no event name")
	ErrUnknownHoliday = errors.New("unknown holiday")
)

// Indonesian national holidays that follow a fixed date or the Easter cycle. Holidays on the
// Islamic, Chinese, Hindu or Buddhist calendars are set by decree each year and are not listed.
var (
	NewYear = aa.NewYear.Clone(&cal.Holiday{Name: "Tahun Baru Masehi", Type: cal.ObservancePublic})

	GoodFriday = aa.GoodFriday.Clone(&cal.Holiday{Name: "Wafat Isa Almasih", Type: cal.ObservancePublic})

	LabourDay = aa.WorkersDay.Clone(&cal.Holiday{Name: "Hari Buruh Internasional", Type: cal.ObservancePublic})

	AscensionDay = aa.AscensionDay.Clone(&cal.Holiday{Name: "Kenaikan Isa Almasih", Type: cal.ObservancePublic})

	PancasilaDay = &cal.Holiday{
		Name:      "Hari Lahir Pancasila",
		Type:      cal.ObservancePublic,
		StartYear: 2017,
		Month:     time.June,
		Day:       1,
		Func:      cal.CalcDayOfMonth,
	}

	IndependenceDay = &cal.Holiday{
		Name:  "Hari Kemerdekaan Republik Indonesia",
		Type:  cal.ObservancePublic,
		Month: time.August,
		Day:   17,
		Func:  cal.CalcDayOfMonth,
	}

	ChristmasDay = aa.ChristmasDay.Clone(&cal.Holiday{Name: "Hari Raya Natal", Type: cal.ObservancePublic})
)

// holidays available as markers keyed by their configuration name
var holidays = map[string]*cal.Holiday{
	"tahun-baru":           NewYear,
	"wafat-isa-almasih":    GoodFriday,
	"hari-buruh":           LabourDay,
	"kenaikan-isa-almasih": AscensionDay,
	"hari-lahir-pancasila": PancasilaDay,
	"hari-kemerdekaan":     IndependenceDay,
	"natal":                ChristmasDay,
}

// Names lists the holiday names accepted by Markers.
func Names() []string {
	names := make([]string, 0, len(holidays))
	for name := range holidays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the holiday registered under name, ignoring case and surrounding space.
func Lookup(name string) (*cal.Holiday, error) {
	hol, exists := holidays[strings.ToLower(strings.TrimSpace(name))]
	if !exists {
		return nil, fmt.Errorf("%q, expected one of [%s], %w", name, strings.Join(Names(), ", "), ErrUnknownHoliday)
	}
	return hol, nil
}

// Event is a named day span drawn as a marker.
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Holiday returns one event per year for every occurrence of hol whose calendar day falls
// within [start, end]. Events cover the whole UTC day.
func Holiday(hol *cal.Holiday, start, end time.Time) []Event {
	startDay := timedataset.TruncateDay(start)
	endDay := timedataset.TruncateDay(end)

	events := []Event{}
	for i := startDay.Year(); i <= endDay.Year(); i++ {
		actual, _ := hol.Calc(i)
		if actual.IsZero() {
			continue
		}
		day := timedataset.TruncateDay(actual)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		events = append(events, NewEvent(fmt.Sprintf("%s %d", hol.Name, i), day, day.Add(24*time.Hour)))
	}
	return events
}

// Markers resolves every named holiday within [start, end] ordered by date.
func Markers(names []string, start, end time.Time) ([]Event, error) {
	if start.After(end) {
		return nil, ErrStartAfterEnd
	}

	var events []Event
	for _, name := range names {
		hol, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		events = append(events, Holiday(hol, start, end)...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}
