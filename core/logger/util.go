package logger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Status maps an error to the status field: ok, skip for cancellation, fail otherwise.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "skip"
	}
	return "fail"
}

// RoundMS rounds d to whole milliseconds; negative values become 0.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit values with ", " and reports whether values were cut.
// A cut list ends with "+N", N being the number of omitted values.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	if limit <= 0 {
		return "+" + strconv.Itoa(len(values)), true
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", ") + ", +" + strconv.Itoa(len(values)-limit), true
}
