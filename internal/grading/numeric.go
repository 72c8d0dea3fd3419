package grading

import (
	"math"
	"strconv"
	"strings"
)

// withinTolerance reports whether both values parse as numbers and the
// submitted one lies within pct percent of the expected one.
func withinTolerance(submitted, expected string, pct float64) bool {
	if pct < 0 {
		return false
	}
	sv, sOK := parseFloatLoose(submitted)
	ev, eOK := parseFloatLoose(expected)
	if !sOK || !eOK {
		return false
	}
	return math.Abs(sv-ev)*100 <= pct*math.Abs(ev)
}

// parseFloatLoose accepts a bare number or a number followed by a unit
// ("9.8 m/s2"). A decimal comma is read as a point.
func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(strings.Replace(sp[0], ",", ".", 1), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
