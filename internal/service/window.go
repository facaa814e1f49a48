package service

import (
	"strconv"
	"strings"
	"time"
)

// Scheduling uses midnight as the fallback window so day-zero batches
// run immediately; the reschedule path uses a politer 09:00 because it
// fires without a human watching.
const (
	scheduleWindowStart   = "00:00"
	rescheduleWindowStart = "09:00"
)

// atWindowStart pins a timestamp to the window's opening time-of-day on
// the given day, in that day's location.
func atWindowStart(day time.Time, window string) time.Time {
	h, m := parseWindow(window)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// parseWindow reads an "HH:MM" string, tolerating junk by falling back
// to midnight.
func parseWindow(window string) (hour, minute int) {
	parts := strings.SplitN(window, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return 0, 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return h, 0
	}
	return h, m
}
