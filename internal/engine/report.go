package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"stratlab/internal/diag"
	"stratlab/internal/sim"
)

// AssetResult is the evaluation outcome for a single asset
type AssetResult struct {
	Asset        string      `json:"asset"`
	TrainSamples int         `json:"train_samples"`
	TestSamples  int         `json:"test_samples"`
	TrainStats   *diag.Stats `json:"train_stats"`
	TestStats    *diag.Stats `json:"test_stats"`

	OverfitScore    float64              `json:"overfit_score"`
	OverfitSeverity diag.OverfitSeverity `json:"overfit_severity"`
	Verdict         diag.Verdict         `json:"verdict"`
	VerdictReason   string               `json:"verdict_reason"`

	Importances map[string]float64 `json:"feature_importances"`
	Trades      []sim.Trade        `json:"trades"`
}

// Aggregate is the cross-asset mean of the headline test metrics
type Aggregate struct {
	Sharpe        float64      `json:"sharpe"`
	Sortino       float64      `json:"sortino"`
	MaxDrawdown   float64      `json:"max_drawdown"`
	WinRate       float64      `json:"win_rate"`
	TotalReturn   float64      `json:"total_return"`
	OverfitScore  float64      `json:"overfit_score"`
	TradeCount    int          `json:"trade_count"`
	Verdict       diag.Verdict `json:"verdict"`
	VerdictReason string       `json:"verdict_reason"`
}

// Report is the sole artifact of a successful evaluation. It is immutable
// once produced; the ID is content-derived so identical inputs yield
// field-for-field identical reports.
type Report struct {
	ID          string        `json:"id"`
	Strategy    string        `json:"strategy"`
	Description string        `json:"description,omitempty"`
	Features    []string      `json:"features"`
	Assets      []AssetResult `json:"assets"`
	Aggregate   Aggregate     `json:"aggregate"`
}

// aggregateResults folds per-asset results into the cross-asset summary
func aggregateResults(results []AssetResult) Aggregate {
	agg := Aggregate{}
	if len(results) == 0 {
		return agg
	}
	for _, r := range results {
		agg.Sharpe += r.TestStats.Sharpe
		agg.Sortino += r.TestStats.Sortino
		agg.MaxDrawdown += r.TestStats.MaxDrawdown
		agg.WinRate += r.TestStats.WinRate
		agg.TotalReturn += r.TestStats.TotalReturn
		agg.OverfitScore += r.OverfitScore
		agg.TradeCount += r.TestStats.TradeCount
	}
	n := float64(len(results))
	agg.Sharpe /= n
	agg.Sortino /= n
	agg.MaxDrawdown /= n
	agg.WinRate /= n
	agg.TotalReturn /= n
	agg.OverfitScore /= n

	agg.Verdict = diag.Classify(agg.Sharpe)
	agg.VerdictReason = diag.Reason(agg.Verdict, agg.Sharpe, agg.MaxDrawdown, agg.OverfitScore)
	return agg
}

// reportID derives a stable identifier from the evaluation coordinates
func reportID(strategy *StrategyConfig, seed int64) string {
	assets := make([]string, len(strategy.Assets))
	copy(assets, strategy.Assets)
	sort.Strings(assets)
	key := fmt.Sprintf("%s|%s|%s|%v|%v|%d|%d",
		strategy.Name,
		strings.Join(assets, ","),
		strings.Join(strategy.Features, ","),
		strategy.StopLossPct,
		strategy.TakeProfitPct,
		strategy.MaxHoldingBars,
		seed,
	)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
