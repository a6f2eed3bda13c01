package booking

import "sort"

// DefaultSlotMinutes is the step used for base slot generation when a court
// does not configure its own.
const DefaultSlotMinutes = 60

// Overlaps reports whether two half-open intervals share any minute.
// Touching intervals (a.End == b.Start) do not overlap, so back-to-back
// bookings are legal.
func Overlaps(a, b Interval) bool {
	return max(a.Start, b.Start) < min(a.End, b.End)
}

// BuildBaseSlots walks each available window forward from its start in
// stepMinutes increments and emits every slot whose end fits inside the
// window. A window shorter than the step yields no slots; there are no
// partial slots. Windows are processed in input order and are not
// deduplicated, so overlapping windows produce overlapping slots.
func BuildBaseSlots(windows []OperatingWindow, stepMinutes int) []Interval {
	if stepMinutes <= 0 {
		stepMinutes = DefaultSlotMinutes
	}

	var slots []Interval
	for _, window := range windows {
		if !window.Available {
			continue
		}
		for start := window.StartMinute; start+stepMinutes <= window.EndMinute; start += stepMinutes {
			slots = append(slots, Interval{Start: start, End: start + stepMinutes})
		}
	}
	return slots
}

// ComputeFreeSlots returns the subset of base slots that overlap no busy
// interval. Callers must exclude cancelled reservations from busy before
// this call. The function is pure: identical inputs yield identical output.
func ComputeFreeSlots(base []Interval, busy []Interval) []Interval {
	free := make([]Interval, 0, len(base))
	for _, slot := range base {
		if rangeFree(slot, busy) {
			free = append(free, slot)
		}
	}
	return free
}

// IsRangeFree reports whether no busy interval overlaps r. A single call
// against the full requested range covers multi-slot bookings; requests need
// not align to slot boundaries. Malformed ranges are a contract violation.
func IsRangeFree(r Interval, busy []Interval) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	return rangeFree(r, busy), nil
}

func rangeFree(r Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(r, b) {
			return false
		}
	}
	return true
}

// IsWithinOperatingHours reports whether r is covered by the union of the
// court's available windows with no gap. A range that merely intersects a
// window, or spans a gap between two windows, is outside hours.
func IsWithinOperatingHours(r Interval, windows []OperatingWindow) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	open := make([]Interval, 0, len(windows))
	for _, window := range windows {
		if !window.Available {
			continue
		}
		if window.StartMinute >= window.EndMinute {
			continue
		}
		open = append(open, window.Interval())
	}
	if len(open) == 0 {
		return false, nil
	}

	sort.Slice(open, func(i, j int) bool { return open[i].Start < open[j].Start })

	merged := open[:1]
	for _, iv := range open[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	for _, iv := range merged {
		if r.Start >= iv.Start && r.End <= iv.End {
			return true, nil
		}
	}
	return false, nil
}

// BusyIntervals projects active reservations onto their time ranges,
// optionally excluding one reservation (a move does not conflict with
// itself). Cancelled rows are skipped even if the caller forgot to filter.
func BusyIntervals(reservations []Reservation, excludeID int64) []Interval {
	busy := make([]Interval, 0, len(reservations))
	for _, reservation := range reservations {
		if excludeID != 0 && reservation.ID == excludeID {
			continue
		}
		if !reservation.Status.Active() {
			continue
		}
		busy = append(busy, reservation.Interval())
	}
	return busy
}
