package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationField turns an "amount" + "unit" key/value pair from the
// properties file into a time.Duration, per the external form in spec
// §6 (SECONDS|MILLIS|MINUTES|...).
func parseDurationField(amount, unit string) (time.Duration, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration amount %q: %w", amount, err)
	}

	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "NANOS", "NANOSECONDS":
		return time.Duration(n), nil
	case "MICROS", "MICROSECONDS":
		return time.Duration(n) * time.Microsecond, nil
	case "MILLIS", "MILLISECONDS":
		return time.Duration(n) * time.Millisecond, nil
	case "SECONDS":
		return time.Duration(n) * time.Second, nil
	case "MINUTES":
		return time.Duration(n) * time.Minute, nil
	case "HOURS":
		return time.Duration(n) * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit %q", unit)
	}
}

func secondsToDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}
