package service

import "time"

// civilDate formats an instant as the YYYY-MM-DD wall date in loc
func civilDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// sendInstant resolves the wall time hour:minute on the given civil day in loc
// to a UTC instant.
//
// DST rules: if the wall time falls in a spring-forward gap, the first valid
// instant at or after it (the jump target) is used. If the wall time is
// ambiguous during fall-back, the earlier UTC instant is used.
func sendInstant(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)

	if t.Hour() == hour && t.Minute() == minute {
		// Valid wall time. If it repeats (fall-back), prefer the earlier
		// instant: one hour before showing the same wall clock means time.Date
		// resolved to the later occurrence.
		if earlier := t.Add(-time.Hour); earlier.Hour() == hour && earlier.Minute() == minute {
			return earlier.UTC()
		}
		return t.UTC()
	}

	// The requested wall time does not exist: time.Date normalized it past a
	// DST gap. The first valid instant >= the skipped wall time is the
	// transition itself; locate it by bisecting on the zone offset.
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	_, startOffset := dayStart.Zone()

	lo, hi := dayStart.Unix(), t.Unix()
	for lo < hi {
		mid := (lo + hi) / 2
		if _, offset := time.Unix(mid, 0).In(loc).Zone(); offset == startOffset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return time.Unix(hi, 0).UTC()
}
