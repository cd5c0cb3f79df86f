package importer

import (
	"math"
	"testing"
	"time"
)

func TestParseDurationHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "h:mm:ss", input: "01:30:00", want: 1.5},
		{name: "h:mm", input: "2:15", want: 2.25},
		{name: "seconds", input: "0:00:36", want: 0.01},
		{name: "decimal dot", input: "0.75", want: 0.75},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "negative clock", input: "-0:30:00", want: -0.5},
		{name: "zero", input: "00:00:00", want: 0},
		{name: "minutes out of range", input: "1:75", wantErr: true},
		{name: "too many parts", input: "1:2:3:4", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "invalid", input: "abc", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseDurationHours(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("unexpected hours for %q: want %f, got %f", tc.input, tc.want, got)
			}
		})
	}
}

func TestParseDateAndTime_MissingTimeIsMidnight(t *testing.T) {
	t.Parallel()

	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	got, err := parseDateAndTime("2026-01-22", "", seoul)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 1, 21, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got.UTC())
	}

	if _, err := parseDateAndTime("", "10:00", seoul); err == nil {
		t.Fatalf("expected error for missing date")
	}
}

func TestHashID_IsDeterministic(t *testing.T) {
	t.Parallel()

	a := hashID("csv", "2026-01-22T02:00:00Z", "Platform")
	b := hashID("csv", "2026-01-22T02:00:00Z", "Platform")
	c := hashID("csv", "2026-01-22T02:00:00Z", "Other")
	if a != b {
		t.Fatalf("expected stable hash, got %s and %s", a, b)
	}
	if a == c {
		t.Fatalf("expected different hash for different project")
	}
	if len(a) != len("csv-")+24 {
		t.Fatalf("unexpected id length: %s", a)
	}
}
