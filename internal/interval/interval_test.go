package interval

import (
	"errors"
	"testing"
)

func TestDurationMS(t *testing.T) {
	cases := []struct {
		name string
		want int64
	}{
		{"1m", 60_000},
		{"5m", 300_000},
		{"1h", 3_600_000},
		{"1d", 86_400_000},
	}
	for _, tc := range cases {
		got, err := DurationMS(tc.name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestDurationMS_Unsupported(t *testing.T) {
	for _, name := range []string{"", "2m", "4h", "1w", "1M"} {
		if _, err := DurationMS(name); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%q: expected ErrUnsupported, got %v", name, err)
		}
	}
}

func TestBucketStartMS(t *testing.T) {
	cases := []struct {
		tsMS, intervalMS, want int64
	}{
		{0, 60_000, 0},
		{59_999, 60_000, 0},
		{60_000, 60_000, 60_000},
		{61_234, 60_000, 60_000},
		{1_700_000_123_456, 300_000, 1_700_000_100_000},
		{1_700_000_123_456, 3_600_000, 1_699_999_200_000},
		{1_700_000_123_456, 86_400_000, 1_699_920_000_000},
	}
	for _, tc := range cases {
		if got := BucketStartMS(tc.tsMS, tc.intervalMS); got != tc.want {
			t.Errorf("BucketStartMS(%d, %d): expected %d, got %d", tc.tsMS, tc.intervalMS, tc.want, got)
		}
	}
}

func TestBucketStart_Idempotent(t *testing.T) {
	timestamps := []int64{0, 1, 59_999, 60_000, 1_700_000_123_456, 86_399_999, 86_400_000}
	for name, ms := range durationsMS {
		for _, ts := range timestamps {
			once := BucketStartMS(ts, ms)
			if twice := BucketStartMS(once, ms); twice != once {
				t.Errorf("%s: BucketStartMS not idempotent for %d: %d != %d", name, ts, twice, once)
			}
		}
	}
}

func TestBucketStartSec(t *testing.T) {
	// 1h bucket for 2023-11-14T22:15:23.456Z starts at 22:00:00.
	if got := BucketStartSec(1_700_000_123_456, 3_600_000); got != 1_699_999_200 {
		t.Errorf("expected 1699999200, got %d", got)
	}
}
