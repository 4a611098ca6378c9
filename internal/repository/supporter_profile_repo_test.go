package repository

import (
	"testing"
	"time"
)

func TestParseAvailabilityNormalizesWeekdays(t *testing.T) {
	raw := []byte(`{
		"Monday": [{"start": "09:00", "end": "12:30"}],
		"sat": [{"start": "18:15", "end": "20:00"}],
		"SUNDAY": []
	}`)

	availability, err := ParseAvailability(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	monday := availability.On(time.Monday)
	if len(monday) != 1 || monday[0].StartMinute != 540 || monday[0].EndMinute != 750 {
		t.Fatalf("unexpected monday slots %+v", monday)
	}
	saturday := availability.On(time.Saturday)
	if len(saturday) != 1 || saturday[0].StartHour() != 18 {
		t.Fatalf("unexpected saturday slots %+v", saturday)
	}
	if len(availability.On(time.Sunday)) != 0 {
		t.Fatalf("expected no sunday slots")
	}
}

func TestParseAvailabilityEmptyDocument(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null"), []byte("{}")} {
		availability, err := ParseAvailability(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		for day := time.Sunday; day <= time.Saturday; day++ {
			if len(availability.On(day)) != 0 {
				t.Fatalf("expected empty availability for %q", raw)
			}
		}
	}
}

func TestParseAvailabilityRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"unknown day":   `{"Funday": [{"start": "09:00", "end": "10:00"}]}`,
		"bad clock":     `{"Monday": [{"start": "9am", "end": "10:00"}]}`,
		"bad minutes":   `{"Monday": [{"start": "09:75", "end": "10:00"}]}`,
		"not an object": `["Monday"]`,
		"past midnight": `{"Monday": [{"start": "22:00", "end": "24:30"}]}`,
	}

	for name, raw := range cases {
		if _, err := ParseAvailability([]byte(raw)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestParseAvailabilityMergesAliasedDaysInOrder(t *testing.T) {
	raw := []byte(`{
		"monday": [{"start": "18:00", "end": "24:00"}],
		"Mon": [{"start": "07:00", "end": "09:00"}, {"start": "12:00", "end": "13:00"}]
	}`)

	// Map iteration order varies, so repeat to catch an unsorted merge.
	for i := 0; i < 20; i++ {
		availability, err := ParseAvailability(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		monday := availability.On(time.Monday)
		if len(monday) != 3 {
			t.Fatalf("expected 3 monday slots, got %+v", monday)
		}
		if monday[0].StartMinute != 420 || monday[1].StartMinute != 720 || monday[2].StartMinute != 1080 {
			t.Fatalf("expected slots ordered by start, got %+v", monday)
		}
		if monday[2].EndMinute != 1440 {
			t.Fatalf("expected 24:00 to be accepted as end of day, got %+v", monday[2])
		}
	}
}
