package classify

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
)

// intervalIndex answers "does [start, end] overlap any reference interval"
// in O(log n). References are sorted by start; maxEnd[i] is the latest end
// among the first i+1 references. A row overlaps some reference iff, among
// references starting at or before row.end, the latest end is at or after
// row.start.
type intervalIndex struct {
	starts []time.Time
	maxEnd []time.Time
}

func newIntervalIndex(refs []records.Event) intervalIndex {
	type span struct{ start, end time.Time }
	spans := make([]span, 0, len(refs))
	for _, r := range refs {
		if r.StartDate.IsZero() || r.EndDate.IsZero() {
			continue
		}
		spans = append(spans, span{start: r.StartDate, end: r.EndDate})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	idx := intervalIndex{
		starts: make([]time.Time, len(spans)),
		maxEnd: make([]time.Time, len(spans)),
	}
	for i, s := range spans {
		idx.starts[i] = s.start
		idx.maxEnd[i] = s.end
		if i > 0 && idx.maxEnd[i-1].After(s.end) {
			idx.maxEnd[i] = idx.maxEnd[i-1]
		}
	}
	return idx
}

func (idx intervalIndex) overlaps(start, end time.Time) bool {
	if start.IsZero() || end.IsZero() || len(idx.starts) == 0 {
		return false
	}
	n := sort.Search(len(idx.starts), func(i int) bool { return idx.starts[i].After(end) })
	if n == 0 {
		return false
	}
	return !idx.maxEnd[n-1].Before(start)
}
