package driver

import (
	"iter"
	"time"

	"github.com/datazip-inc/tap-toast/utils/typeutils"
)

// Window bounds a single upstream query, [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// DailyWindows covers whole UTC days from the calendar day of start, taken in
// start's own offset, up to but not including the day of end.
func DailyWindows(start, end time.Time) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		day := typeutils.StartOfDay(start)
		days := int(end.Sub(day) / (24 * time.Hour))
		for n := 0; n < days; n++ {
			window := Window{Start: day.AddDate(0, 0, n), End: day.AddDate(0, 0, n+1)}
			if !yield(window) {
				return
			}
		}
	}
}

// HourlyWindows covers [start, end) in UTC hours, the last window is cut at end.
func HourlyWindows(start, end time.Time) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		stop := end.UTC()
		for cursor := start.UTC().Truncate(time.Hour); cursor.Before(stop); cursor = cursor.Add(time.Hour) {
			window := Window{Start: cursor, End: cursor.Add(time.Hour)}
			if window.End.After(stop) {
				window.End = stop
			}
			if !yield(window) {
				return
			}
		}
	}
}
