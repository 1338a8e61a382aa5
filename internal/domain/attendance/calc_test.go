package attendance

import (
	"math"
	"testing"
	"time"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2024, 2, 1, hour, min, sec, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestComputeWorkingHours(t *testing.T) {
	cases := []struct {
		name   string
		in     time.Time
		out    time.Time
		breaks []Break
		want   float64
	}{
		{name: "no breaks", in: at(9, 0, 0), out: at(17, 0, 0), want: 8},
		{name: "closed break deducted", in: at(9, 0, 0), out: at(17, 0, 0), breaks: []Break{{Start: at(12, 0, 0), End: ptr(at(12, 30, 0))}}, want: 7.5},
		{name: "several breaks", in: at(9, 0, 0), out: at(18, 0, 0), breaks: []Break{
			{Start: at(11, 0, 0), End: ptr(at(11, 15, 0))},
			{Start: at(13, 0, 0), End: ptr(at(13, 45, 0))},
		}, want: 8},
		{name: "open break ignored", in: at(9, 0, 0), out: at(17, 0, 0), breaks: []Break{{Start: at(12, 0, 0)}}, want: 8},
		{name: "clipped at zero", in: at(9, 0, 0), out: at(10, 0, 0), breaks: []Break{{Start: at(8, 0, 0), End: ptr(at(12, 0, 0))}}, want: 0},
		{name: "zero length", in: at(9, 0, 0), out: at(9, 0, 0), want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeWorkingHours(tc.in, tc.out, tc.breaks)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestComputeWorkingHoursNeverNegative(t *testing.T) {
	in := at(9, 0, 0)
	for minutes := 0; minutes <= 600; minutes += 15 {
		out := in.Add(time.Duration(minutes) * time.Minute)
		breaks := []Break{{Start: in, End: ptr(in.Add(5 * time.Hour))}}
		if got := ComputeWorkingHours(in, out, breaks); got < 0 {
			t.Fatalf("negative hours %v for %d minutes", got, minutes)
		}
	}
}

func TestClassifyCheckIn(t *testing.T) {
	cases := []struct {
		in   time.Time
		want Status
	}{
		{in: at(9, 0, 0), want: StatusPresent},
		{in: at(9, 15, 0), want: StatusPresent},
		{in: at(9, 15, 1), want: StatusLate},
		{in: at(9, 20, 0), want: StatusLate},
		{in: at(10, 0, 0), want: StatusLate},
		{in: at(7, 59, 59), want: StatusPresent},
	}
	for _, tc := range cases {
		if got := ClassifyCheckIn(tc.in); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.in.Format("15:04:05"), tc.want, got)
		}
	}
}

func TestClassifyCheckInUsesLocalWallClock(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	utc := time.Date(2024, 2, 1, 4, 0, 0, 0, time.UTC)
	if got := ClassifyCheckIn(utc.In(loc)); got != StatusPresent {
		t.Fatalf("expected present at 09:00 local, got %s", got)
	}
	if got := ClassifyCheckIn(utc.Add(20 * time.Minute).In(loc)); got != StatusLate {
		t.Fatalf("expected late at 09:20 local, got %s", got)
	}
}

func TestWorkDateFollowsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	instant := time.Date(2024, 2, 2, 3, 0, 0, 0, time.UTC)
	got := WorkDate(instant, loc)
	if got.Format("2006-01-02") != "2024-02-01" {
		t.Fatalf("expected previous local day, got %s", got.Format("2006-01-02"))
	}
}
