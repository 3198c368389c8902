package digest

import (
	"fmt"

	"netwarden/internal/domain"
)

// collapseThreshold is the group size past which non-Info entries are
// collapsed. Info entries collapse at any size above one.
const collapseThreshold = 10

// Collapse reduces a digest batch for scanability. Entries are
// partitioned by source; within each source, Info-severity entries are
// always collapsed by event type (high-frequency low-urgency noise must
// not dominate a digest), while higher severities are left untouched
// unless a (title, severity) group exceeds the threshold. A collapsed
// group is replaced by its most recent entry with an "(Nx)" count
// appended to the title. Relative order of surviving entries is
// preserved.
func Collapse(entries []*domain.HistoryEntry) []*domain.HistoryEntry {
	var sources []string
	bySource := make(map[string][]*domain.HistoryEntry)
	for _, entry := range entries {
		if _, seen := bySource[entry.Source]; !seen {
			sources = append(sources, entry.Source)
		}
		bySource[entry.Source] = append(bySource[entry.Source], entry)
	}

	collapsed := make([]*domain.HistoryEntry, 0, len(entries))
	for _, source := range sources {
		var info, rest []*domain.HistoryEntry
		for _, entry := range bySource[source] {
			if entry.Severity == domain.SeverityInfo {
				info = append(info, entry)
			} else {
				rest = append(rest, entry)
			}
		}

		collapsed = append(collapsed, collapseBy(info, func(e *domain.HistoryEntry) string {
			return e.EventType
		}, 1)...)

		collapsed = append(collapsed, collapseBy(rest, func(e *domain.HistoryEntry) string {
			return e.Title + "\x00" + string(e.Severity)
		}, collapseThreshold)...)
	}

	return collapsed
}

// collapseBy groups entries by key and replaces each group larger than
// maxSize with a single representative. Surviving entries keep their
// original order; a representative takes the position of its group's
// first entry.
func collapseBy(entries []*domain.HistoryEntry, key func(*domain.HistoryEntry) string, maxSize int) []*domain.HistoryEntry {
	groups := make(map[string][]*domain.HistoryEntry)
	for _, entry := range entries {
		k := key(entry)
		groups[k] = append(groups[k], entry)
	}

	emitted := make(map[string]bool)
	out := make([]*domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		k := key(entry)
		group := groups[k]
		if len(group) <= maxSize {
			out = append(out, entry)
			continue
		}
		if emitted[k] {
			continue
		}
		emitted[k] = true
		out = append(out, representative(group))
	}
	return out
}

// representative returns a copy of the group's most recent entry with the
// group count appended to its title.
func representative(group []*domain.HistoryEntry) *domain.HistoryEntry {
	mostRecent := group[0]
	for _, entry := range group[1:] {
		if entry.TriggeredAt.After(mostRecent.TriggeredAt) {
			mostRecent = entry
		}
	}

	rep := *mostRecent
	rep.Title = fmt.Sprintf("%s (%dx)", mostRecent.Title, len(group))
	return &rep
}
