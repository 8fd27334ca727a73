package stats

import (
	"sort"

	"github.com/verte-zerg/attentive/internal/model"
)

// TopSessions returns up to n sessions with the highest attention rate.
// Sessions shorter than minSeconds are skipped. Ties go to the longer session.
func TopSessions(sessions []model.SummaryAggregate, n int, minSeconds float64) []model.SummaryAggregate {
	return rankSessions(sessions, n, minSeconds, true)
}

// WeakestSessions returns up to n sessions with the lowest attention rate.
func WeakestSessions(sessions []model.SummaryAggregate, n int, minSeconds float64) []model.SummaryAggregate {
	return rankSessions(sessions, n, minSeconds, false)
}

func rankSessions(sessions []model.SummaryAggregate, n int, minSeconds float64, best bool) []model.SummaryAggregate {
	if n <= 0 || len(sessions) == 0 {
		return nil
	}
	items := make([]model.SummaryAggregate, 0, len(sessions))
	for _, s := range sessions {
		if s.TotalSeconds < minSeconds {
			continue
		}
		items = append(items, s)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AttentionPct == items[j].AttentionPct {
			return items[i].TotalSeconds > items[j].TotalSeconds
		}
		if best {
			return items[i].AttentionPct > items[j].AttentionPct
		}
		return items[i].AttentionPct < items[j].AttentionPct
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
