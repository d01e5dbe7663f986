package highlight

import (
	"fmt"
	"sort"
	"time"

	"github.com/kifolio/backend/core"
)

// TimelineGroup is one month bucket of a portfolio's timeline.
type TimelineGroup struct {
	Label string      `json:"label"` // "This Month", "Last Month" or "March 2024"
	Month string      `json:"month"` // YYYY-MM
	Items []Highlight `json:"items"`
}

// GroupByMonth buckets highlights into calendar months, most recent first.
// Items within a group keep the same descending date order. Highlights whose
// date fails to parse are dropped; the count of dropped items is returned
// alongside the groups. An optional reference time may be passed in for
// labeling, defaulting to time.Now; it is intended for tests.
func GroupByMonth(items []Highlight, now ...time.Time) ([]TimelineGroup, int) {
	ref := time.Now()
	if len(now) > 0 {
		ref = now[0]
	}

	type dated struct {
		hl Highlight
		t  time.Time
	}
	valid := make([]dated, 0, len(items))
	skipped := 0
	for _, hl := range items {
		t, err := core.ParseDate(hl.Date)
		if err != nil {
			skipped++
			continue
		}
		valid = append(valid, dated{hl, t})
	}

	// newest first; stable so same-day items keep their input order
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].t.After(valid[j].t) })

	groups := make([]TimelineGroup, 0)
	for _, d := range valid {
		key := monthKey(d.t)
		if n := len(groups); n > 0 && groups[n-1].Month == key {
			groups[n-1].Items = append(groups[n-1].Items, d.hl)
			continue
		}
		groups = append(groups, TimelineGroup{
			Label: monthLabel(d.t, ref),
			Month: key,
			Items: []Highlight{d.hl},
		})
	}
	return groups, skipped
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), t.Month())
}

// monthLabel names the bucket relative to ref's calendar month.
func monthLabel(t, ref time.Time) string {
	if t.Year() == ref.Year() && t.Month() == ref.Month() {
		return "This Month"
	}
	// compute the previous calendar month by hand; AddDate normalizes
	// day overflow (eg. Mar 31 minus one month lands in March again)
	prevYear, prevMonth := ref.Year(), ref.Month()-1
	if prevMonth < time.January {
		prevYear, prevMonth = prevYear-1, time.December
	}
	if t.Year() == prevYear && t.Month() == prevMonth {
		return "Last Month"
	}
	return fmt.Sprintf("%s %d", t.Month(), t.Year())
}
