package wage

import (
	"math"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseClock parses "H:MM" or "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return Clock{}, &ParseError{Value: s, Reason: "expected HH:MM"}
	}
	if len(hh) < 1 || len(hh) > 2 || !digits(hh) {
		return Clock{}, &ParseError{Value: s, Reason: "hour must be one or two digits"}
	}
	if len(mm) != 2 || !digits(mm) {
		return Clock{}, &ParseError{Value: s, Reason: "minute must be two digits"}
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 {
		return Clock{}, &ParseError{Value: s, Reason: "hour out of range 0-23"}
	}
	if m > 59 {
		return Clock{}, &ParseError{Value: s, Reason: "minute out of range 0-59"}
	}
	return Clock{Hour: h, Minute: m}, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseWorkTime converts a shift into net worked hours.
//
// Identical start and end strings mean no shift was entered and yield 0,
// not a 24-hour shift. Otherwise an end at or before the start crosses
// midnight. A break longer than the shift floors the result at 0.
func ParseWorkTime(startTime, endTime string, breakMinutes int) (float64, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return 0, err
	}
	if breakMinutes < 0 {
		return 0, &InvalidInputError{Field: "break_minutes", Value: breakMinutes, Reason: "must not be negative"}
	}

	if startTime == endTime {
		return 0, nil
	}

	startMin, endMin := start.Minutes(), end.Minutes()
	if endMin <= startMin {
		endMin += minutesPerDay
	}
	net := endMin - startMin - breakMinutes
	return math.Max(0, float64(net)/60), nil
}
