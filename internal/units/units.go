// Package units provides shared constants and conversions for instrument units
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Pressure constants
const (
	// PSIToDbar converts pounds per square inch to decibar.
	PSIToDbar = 0.689476
	// AtmospherePSI is the standard atmosphere Sea-Bird software subtracts
	// when it reports gauge (relative) pressure.
	AtmospherePSI = 14.7
)

// PresRelAppliedOffset is the offset, in dbar, already applied to relative
// pressure by the instrument software (absolute minus one atmosphere).
const PresRelAppliedOffset = -AtmospherePSI * PSIToDbar

// Duration unit constants
const (
	Seconds = "seconds"
	Minutes = "minutes"
	Hours   = "hours"
	Days    = "days"
)

// ValidDurationUnits contains all accepted canonical duration units
var ValidDurationUnits = []string{Seconds, Minutes, Hours, Days}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidDurationUnits, ", ")
}

// canonical maps the spellings instruments use onto a canonical unit.
func canonical(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "s", "sec", "secs", "second", "seconds":
		return Seconds
	case "m", "min", "mins", "minute", "minutes":
		return Minutes
	case "h", "hr", "hrs", "hour", "hours":
		return Hours
	case "d", "day", "days":
		return Days
	}
	return ""
}

// ToSeconds converts a duration expressed in the given unit to seconds.
func ToSeconds(v float64, unit string) (float64, error) {
	switch canonical(unit) {
	case Seconds:
		return v, nil
	case Minutes:
		return v * 60, nil
	case Hours:
		return v * 3600, nil
	case Days:
		return v * 86400, nil
	}
	return 0, fmt.Errorf("unknown duration unit %q (valid: %s)", unit, GetValidUnitsString())
}

// ParseClock parses an HH:MM:SS (optionally HH:MM:SS.fff or MM:SS) string
// into seconds.
func ParseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock duration %q", s)
	}
	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid clock duration %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// ParseDuration accepts either a clock string ("00:00:10") or a value with
// a unit ("10 seconds", "0.5 min") and returns seconds.
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		return ParseClock(s)
	}
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if len(fields) == 1 {
		return v, nil
	}
	return ToSeconds(v, fields[1])
}
