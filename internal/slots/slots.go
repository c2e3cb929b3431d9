// Package slots decides which appointment slots are worth an alert and
// formats them for display.
package slots

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pmulholland42/global-entry-appt-checker/internal/ttp"
)

// ClockLayout is the "h:mm a" layout used in status lines.
const ClockLayout = "3:04 PM"

// IsIgnored reports whether t falls in the same minute as any ignored time.
func IsIgnored(t time.Time, ignored []time.Time) bool {
	m := t.Truncate(time.Minute)
	for _, it := range ignored {
		if it.Truncate(time.Minute).Equal(m) {
			return true
		}
	}
	return false
}

// BeforeCutoff reports whether t is strictly before cutoff.
func BeforeCutoff(t, cutoff time.Time) bool {
	return t.Before(cutoff)
}

// IsGood is the alert predicate for a single slot. Slots whose timestamp
// could not be parsed are never good.
func IsGood(s ttp.Slot, ignored []time.Time, cutoff time.Time) bool {
	if s.Start.IsZero() {
		return false
	}
	return !IsIgnored(s.Start, ignored) && BeforeCutoff(s.Start, cutoff)
}

// AnyGood reports whether at least one slot in the full list is good.
func AnyGood(list []ttp.Slot, ignored []time.Time, cutoff time.Time) bool {
	for _, s := range list {
		if IsGood(s, ignored, cutoff) {
			return true
		}
	}
	return false
}

// Times returns the parsed start of every slot with a valid timestamp, in
// list order.
func Times(list []ttp.Slot) []time.Time {
	out := make([]time.Time, 0, len(list))
	for _, s := range list {
		if !s.Start.IsZero() {
			out = append(out, s.Start)
		}
	}
	return out
}

// FormatSlot renders a slot like "April 10th at 10:00 AM" in loc. A slot
// whose timestamp did not parse is shown quoted, so it stays on one line.
func FormatSlot(s ttp.Slot, loc *time.Location) string {
	if s.Start.IsZero() {
		return fmt.Sprintf("%q", s.StartTimestamp)
	}
	t := s.Start.In(loc)
	return fmt.Sprintf("%s %s at %s", t.Month(), humanize.Ordinal(t.Day()), t.Format(ClockLayout))
}

// CountLine is the headline shown above the slot list.
func CountLine(n int) string {
	if n == 1 {
		return "1 appointment slot is available!"
	}
	return fmt.Sprintf("%d appointment slots are available!", n)
}
