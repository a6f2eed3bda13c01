package timeutil

import (
	"testing"
	"time"
)

func TestParseMinuteOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"midnight", "00:00", 0, false},
		{"morning", "09:00", 540, false},
		{"with seconds", "09:30:00", 570, false},
		{"last minute", "23:59", 1439, false},
		{"end of day boundary", "24:00", 1440, false},
		{"padded input", " 10:15 ", 615, false},
		{"empty", "", 0, true},
		{"no colon", "930", 0, true},
		{"minutes out of range", "10:75", 0, true},
		{"past end of day", "24:01", 0, true},
		{"garbage", "ab:cd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMinuteOfDay(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMinuteOfDay(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseMinuteOfDay(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatMinuteOfDay(t *testing.T) {
	if got := FormatMinuteOfDay(540); got != "09:00" {
		t.Errorf("FormatMinuteOfDay(540) = %q, want %q", got, "09:00")
	}
	if got := FormatMinuteOfDay(1439); got != "23:59" {
		t.Errorf("FormatMinuteOfDay(1439) = %q, want %q", got, "23:59")
	}
	if got := FormatMinuteOfDay(0); got != "00:00" {
		t.Errorf("FormatMinuteOfDay(0) = %q, want %q", got, "00:00")
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, minutes := range []int{0, 1, 59, 60, 719, 720, 1439} {
		parsed, err := ParseMinuteOfDay(FormatMinuteOfDay(minutes))
		if err != nil {
			t.Fatalf("round trip failed for %d: %v", minutes, err)
		}
		if parsed != minutes {
			t.Errorf("round trip for %d returned %d", minutes, parsed)
		}
	}
}

func TestWeekdayOf(t *testing.T) {
	tests := []struct {
		date string
		want Weekday
	}{
		{"2024-01-01", Monday},
		{"2024-01-02", Tuesday},
		{"2024-01-06", Saturday},
		{"2024-01-07", Sunday},
	}

	for _, tt := range tests {
		parsed, err := ParseDate(tt.date)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tt.date, err)
		}
		if got := WeekdayOf(parsed); got != tt.want {
			t.Errorf("WeekdayOf(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestWeekdayString(t *testing.T) {
	if Monday.String() != "Monday" || Sunday.String() != "Sunday" {
		t.Error("weekday names do not match ISO ordering")
	}
	if Weekday(9).Valid() {
		t.Error("Weekday(9) should not be valid")
	}
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if parsed.Year() != 2024 || parsed.Month() != time.June || parsed.Day() != 15 {
		t.Errorf("ParseDate returned %v", parsed)
	}
	if FormatDate(parsed) != "2024-06-15" {
		t.Errorf("FormatDate returned %q", FormatDate(parsed))
	}

	if _, err := ParseDate("15/06/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
