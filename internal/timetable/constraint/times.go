package constraint

import (
	"fmt"
	"strconv"
	"strings"
)

// Institutional day boundaries, minutes from midnight. Instructors without
// a working scheme may be scheduled anywhere inside this window.
const (
	DayStartMinute = 7 * 60
	DayEndMinute   = 19 * 60
)

// ParseClock converts an "HH:MM" string into minutes from midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", raw, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", raw, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
