package stats

import (
	"context"

	"github.com/verte-zerg/attentive/internal/model"
)

// SummaryLister loads stored session summaries.
type SummaryLister interface {
	ListSummaries(ctx context.Context, cfg model.StatsConfig) ([]model.SummaryAggregate, error)
}

// rankMinSeconds keeps very short sessions out of the best/weakest lists.
const rankMinSeconds = 60

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SummaryAggregate
	Totals   Totals
	Best     []model.SummaryAggregate
	Weakest  []model.SummaryAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st SummaryLister, cfg model.StatsConfig, rankN int) (Report, error) {
	sessions, err := st.ListSummaries(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return Report{
		Sessions: sessions,
		Totals:   ComputeTotals(sessions),
		Best:     TopSessions(sessions, rankN, rankMinSeconds),
		Weakest:  WeakestSessions(sessions, rankN, rankMinSeconds),
	}, nil
}
