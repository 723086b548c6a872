// Package interval maps wall-clock timestamps to candle bucket start times
// for the supported chart intervals. The interval set is closed: anything
// outside it is a configuration error, surfaced at the boundary instead of
// silently defaulting.
package interval

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned for intervals outside the supported set.
var ErrUnsupported = errors.New("unsupported interval")

// Bucket widths in milliseconds per supported interval.
var durationsMS = map[string]int64{
	"1m": 60_000,
	"5m": 300_000,
	"1h": 3_600_000,
	"1d": 86_400_000,
}

// DurationMS returns the bucket width in milliseconds for a supported
// interval name, or ErrUnsupported.
func DurationMS(name string) (int64, error) {
	ms, ok := durationsMS[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return ms, nil
}

// Supported reports whether the interval name is in the supported set.
func Supported(name string) bool {
	_, ok := durationsMS[name]
	return ok
}

// BucketStartMS floors a millisecond timestamp to the start of its bucket.
// Total for all non-negative inputs; idempotent.
func BucketStartMS(tsMS, intervalMS int64) int64 {
	return tsMS - tsMS%intervalMS
}

// BucketStartSec floors a millisecond timestamp to its bucket start and
// converts to Unix seconds, the unit the candle series uses.
func BucketStartSec(tsMS, intervalMS int64) int64 {
	return BucketStartMS(tsMS, intervalMS) / 1000
}
