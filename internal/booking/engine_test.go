package booking

import (
	"reflect"
	"testing"

	"github.com/cancha-app/cancha/internal/timeutil"
)

func mustMinute(t *testing.T, value string) int {
	t.Helper()
	minute, err := timeutil.ParseMinuteOfDay(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return minute
}

func window(t *testing.T, day timeutil.Weekday, start, end string) OperatingWindow {
	t.Helper()
	return OperatingWindow{
		CourtID:     1,
		Day:         day,
		StartMinute: mustMinute(t, start),
		EndMinute:   mustMinute(t, end),
		Available:   true,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{540, 600}, Interval{540, 600}, true},
		{"partial", Interval{540, 600}, Interval{570, 630}, true},
		{"contained", Interval{540, 660}, Interval{570, 600}, true},
		{"touching end to start", Interval{540, 600}, Interval{600, 660}, false},
		{"touching start to end", Interval{600, 660}, Interval{540, 600}, false},
		{"disjoint", Interval{540, 600}, Interval{720, 780}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestBuildBaseSlots_FullDay(t *testing.T) {
	windows := []OperatingWindow{window(t, timeutil.Monday, "09:00", "22:00")}

	slots := BuildBaseSlots(windows, 60)
	if len(slots) != 13 {
		t.Fatalf("expected 13 slots from [09:00,22:00) at step 60, got %d", len(slots))
	}
	if slots[0] != (Interval{Start: 540, End: 600}) {
		t.Errorf("first slot = %v, want 09:00-10:00", slots[0])
	}
	if slots[12] != (Interval{Start: 1260, End: 1320}) {
		t.Errorf("last slot = %v, want 21:00-22:00", slots[12])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Start < slots[i-1].End {
			t.Errorf("slots %d and %d overlap: %v %v", i-1, i, slots[i-1], slots[i])
		}
	}
}

func TestBuildBaseSlots_ShortWindow(t *testing.T) {
	// A window shorter than the step yields no partial slots.
	windows := []OperatingWindow{window(t, timeutil.Monday, "09:00", "09:45")}
	if slots := BuildBaseSlots(windows, 60); len(slots) != 0 {
		t.Errorf("expected no slots from 45-minute window at step 60, got %v", slots)
	}
}

func TestBuildBaseSlots_TrailingRemainder(t *testing.T) {
	// [09:00, 10:30) at step 60 emits only 09:00-10:00.
	windows := []OperatingWindow{window(t, timeutil.Monday, "09:00", "10:30")}
	slots := BuildBaseSlots(windows, 60)
	if len(slots) != 1 || slots[0] != (Interval{540, 600}) {
		t.Errorf("expected single slot 09:00-10:00, got %v", slots)
	}
}

func TestBuildBaseSlots_SplitWindows(t *testing.T) {
	windows := []OperatingWindow{
		window(t, timeutil.Monday, "08:00", "12:00"),
		window(t, timeutil.Monday, "16:00", "20:00"),
	}
	slots := BuildBaseSlots(windows, 60)
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots from split schedule, got %d", len(slots))
	}
	if slots[3].End != mustMinute(t, "12:00") || slots[4].Start != mustMinute(t, "16:00") {
		t.Errorf("slots do not respect the midday gap: %v", slots)
	}
}

func TestBuildBaseSlots_SkipsUnavailable(t *testing.T) {
	closed := window(t, timeutil.Monday, "09:00", "12:00")
	closed.Available = false
	if slots := BuildBaseSlots([]OperatingWindow{closed}, 60); len(slots) != 0 {
		t.Errorf("unavailable window should yield no slots, got %v", slots)
	}
}

func TestBuildBaseSlots_HalfHourStep(t *testing.T) {
	windows := []OperatingWindow{window(t, timeutil.Monday, "09:00", "11:00")}
	slots := BuildBaseSlots(windows, 30)
	if len(slots) != 4 {
		t.Errorf("expected 4 half-hour slots, got %d", len(slots))
	}
}

func TestComputeFreeSlots(t *testing.T) {
	base := BuildBaseSlots([]OperatingWindow{window(t, timeutil.Monday, "09:00", "13:00")}, 60)
	busy := []Interval{{Start: mustMinute(t, "10:00"), End: mustMinute(t, "11:00")}}

	free := ComputeFreeSlots(base, busy)
	want := []Interval{
		{540, 600},  // 09:00-10:00
		{660, 720},  // 11:00-12:00
		{720, 780},  // 12:00-13:00
	}
	if !reflect.DeepEqual(free, want) {
		t.Errorf("ComputeFreeSlots = %v, want %v", free, want)
	}
}

func TestComputeFreeSlots_BusySpanningTwoSlots(t *testing.T) {
	base := BuildBaseSlots([]OperatingWindow{window(t, timeutil.Monday, "09:00", "13:00")}, 60)
	// 10:30-11:30 knocks out both the 10:00 and 11:00 slots.
	busy := []Interval{{Start: mustMinute(t, "10:30"), End: mustMinute(t, "11:30")}}

	free := ComputeFreeSlots(base, busy)
	want := []Interval{{540, 600}, {720, 780}}
	if !reflect.DeepEqual(free, want) {
		t.Errorf("ComputeFreeSlots = %v, want %v", free, want)
	}
}

func TestComputeFreeSlots_Idempotent(t *testing.T) {
	base := BuildBaseSlots([]OperatingWindow{window(t, timeutil.Monday, "09:00", "22:00")}, 60)
	busy := []Interval{{600, 660}, {780, 900}}

	first := ComputeFreeSlots(base, busy)
	second := ComputeFreeSlots(base, busy)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ComputeFreeSlots is not idempotent: %v vs %v", first, second)
	}
}

func TestIsRangeFree(t *testing.T) {
	busy := []Interval{{Start: 600, End: 660}}

	free, err := IsRangeFree(Interval{540, 600}, busy)
	if err != nil || !free {
		t.Errorf("touching range should be free, got free=%v err=%v", free, err)
	}

	free, err = IsRangeFree(Interval{630, 690}, busy)
	if err != nil || free {
		t.Errorf("overlapping range should not be free, got free=%v err=%v", free, err)
	}

	if _, err := IsRangeFree(Interval{600, 600}, busy); !IsInvalidRange(err) {
		t.Errorf("empty range should be an invalid-range error, got %v", err)
	}
	if _, err := IsRangeFree(Interval{660, 600}, busy); !IsInvalidRange(err) {
		t.Errorf("reversed range should be an invalid-range error, got %v", err)
	}
}

func TestIsWithinOperatingHours(t *testing.T) {
	windows := []OperatingWindow{window(t, timeutil.Monday, "09:00", "22:00")}

	within, err := IsWithinOperatingHours(Interval{mustMinute(t, "09:00"), mustMinute(t, "10:00")}, windows)
	if err != nil || !within {
		t.Errorf("opening slot should be within hours, got %v %v", within, err)
	}

	within, err = IsWithinOperatingHours(Interval{mustMinute(t, "21:30"), mustMinute(t, "22:30")}, windows)
	if err != nil || within {
		t.Errorf("range past closing should be outside hours, got %v %v", within, err)
	}

	within, err = IsWithinOperatingHours(Interval{mustMinute(t, "08:00"), mustMinute(t, "09:30")}, windows)
	if err != nil || within {
		t.Errorf("range before opening should be outside hours, got %v %v", within, err)
	}
}

func TestIsWithinOperatingHours_GapBetweenWindows(t *testing.T) {
	windows := []OperatingWindow{
		window(t, timeutil.Monday, "08:00", "12:00"),
		window(t, timeutil.Monday, "16:00", "20:00"),
	}

	// Spans the midday gap: intersects both windows but is not covered.
	within, err := IsWithinOperatingHours(Interval{mustMinute(t, "11:00"), mustMinute(t, "17:00")}, windows)
	if err != nil || within {
		t.Errorf("range spanning a gap should be outside hours, got %v %v", within, err)
	}
}

func TestIsWithinOperatingHours_ContiguousWindows(t *testing.T) {
	// Touching windows form one continuous open period.
	windows := []OperatingWindow{
		window(t, timeutil.Monday, "08:00", "12:00"),
		window(t, timeutil.Monday, "12:00", "18:00"),
	}

	within, err := IsWithinOperatingHours(Interval{mustMinute(t, "11:00"), mustMinute(t, "13:00")}, windows)
	if err != nil || !within {
		t.Errorf("range across touching windows should be within hours, got %v %v", within, err)
	}
}

func TestIsWithinOperatingHours_NoWindows(t *testing.T) {
	within, err := IsWithinOperatingHours(Interval{540, 600}, nil)
	if err != nil || within {
		t.Errorf("no windows means closed all day, got %v %v", within, err)
	}

	closed := window(t, timeutil.Monday, "09:00", "22:00")
	closed.Available = false
	within, err = IsWithinOperatingHours(Interval{540, 600}, []OperatingWindow{closed})
	if err != nil || within {
		t.Errorf("unavailable window means closed, got %v %v", within, err)
	}
}

func TestBusyIntervals(t *testing.T) {
	reservations := []Reservation{
		{ID: 1, StartMinute: 540, EndMinute: 600, Status: StatusConfirmed},
		{ID: 2, StartMinute: 600, EndMinute: 660, Status: StatusCancelled},
		{ID: 3, StartMinute: 720, EndMinute: 780, Status: StatusPending},
	}

	busy := BusyIntervals(reservations, 0)
	if len(busy) != 2 {
		t.Fatalf("cancelled reservations must be excluded, got %v", busy)
	}

	busy = BusyIntervals(reservations, 1)
	if len(busy) != 1 || busy[0] != (Interval{720, 780}) {
		t.Errorf("excluded reservation must not appear in busy set, got %v", busy)
	}
}

func TestStatusStateMachine(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPaid, true},
		{StatusConfirmed, StatusPaid, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}
