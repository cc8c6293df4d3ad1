package diag

import (
	"fmt"
	"math"
	"time"

	"stratlab/internal/sim"
)

// Stats are the performance statistics computed from one simulated
// equity curve and trade log
type Stats struct {
	Sharpe         float64       `json:"sharpe"`
	Sortino        float64       `json:"sortino"`
	MaxDrawdown    float64       `json:"max_drawdown"`
	WinRate        float64       `json:"win_rate"`
	ProfitFactor   float64       `json:"profit_factor"`
	TotalReturn    float64       `json:"total_return"`
	TradeCount     int           `json:"trade_count"`
	AvgTradeReturn float64       `json:"avg_trade_return"`
	AvgHoldingTime time.Duration `json:"avg_holding_time"`
}

// Evaluate computes performance statistics over a simulation result.
// barsPerYear annualizes the per-bar return moments.
func Evaluate(result *sim.Result, barsPerYear float64) *Stats {
	stats := &Stats{
		Sharpe:       sharpe(result.Returns, barsPerYear),
		Sortino:      sortino(result.Returns, barsPerYear),
		MaxDrawdown:  maxDrawdown(result.EquityCurve),
		TradeCount:   len(result.Trades),
		WinRate:      winRate(result.Trades),
		ProfitFactor: profitFactor(result.Trades),
	}
	if len(result.EquityCurve) > 0 {
		first := result.EquityCurve[0].Equity
		if first != 0 {
			stats.TotalReturn = (result.FinalEquity - first) / first
		}
	}
	if len(result.Trades) > 0 {
		sumRet := 0.0
		var sumHold time.Duration
		for _, t := range result.Trades {
			sumRet += t.Return
			sumHold += t.ExitTime.Sub(t.EntryTime)
		}
		stats.AvgTradeReturn = sumRet / float64(len(result.Trades))
		stats.AvgHoldingTime = sumHold / time.Duration(len(result.Trades))
	}
	return stats
}

func sharpe(returns []float64, barsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	sd := stddev(returns, m)
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(barsPerYear)
}

func sortino(returns []float64, barsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	downside := 0.0
	n := 0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
			n++
		}
	}
	if n == 0 || downside == 0 {
		return 0
	}
	dd := math.Sqrt(downside / float64(len(returns)))
	return m / dd * math.Sqrt(barsPerYear)
}

func maxDrawdown(curve []sim.EquityPoint) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func winRate(trades []sim.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

func profitFactor(trades []sim.Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			grossProfit += t.PnL
		} else {
			grossLoss -= t.PnL
		}
	}
	if grossLoss == 0 {
		return 0
	}
	return grossProfit / grossLoss
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, m float64) float64 {
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// OverfitScore measures how much the in-sample Sharpe exceeds the
// out-of-sample Sharpe, normalized to [0,1]. 0 means the test segment
// held up; 1 means the edge existed only in training.
func OverfitScore(trainSharpe, testSharpe, epsilon float64) float64 {
	score := (trainSharpe - testSharpe) / (math.Abs(trainSharpe) + epsilon)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// OverfitSeverity buckets an overfitting score
type OverfitSeverity string

const (
	OverfitLow      OverfitSeverity = "low"
	OverfitModerate OverfitSeverity = "moderate"
	OverfitSevere   OverfitSeverity = "severe"
)

// ClassifyOverfit buckets the score: <0.3 low, 0.3-0.6 moderate, >0.6 severe
func ClassifyOverfit(score float64) OverfitSeverity {
	switch {
	case score < 0.3:
		return OverfitLow
	case score <= 0.6:
		return OverfitModerate
	default:
		return OverfitSevere
	}
}

// Verdict is the categorical quality call on a strategy
type Verdict string

const (
	VerdictPoor   Verdict = "poor"
	VerdictWeak   Verdict = "weak"
	VerdictGood   Verdict = "good"
	VerdictStrong Verdict = "strong"
)

// Classify maps the out-of-sample Sharpe onto a verdict. The call is a
// pure function of test performance; train metrics never inflate it.
func Classify(testSharpe float64) Verdict {
	switch {
	case testSharpe >= 1.5:
		return VerdictStrong
	case testSharpe >= 0.8:
		return VerdictGood
	case testSharpe > 0:
		return VerdictWeak
	default:
		return VerdictPoor
	}
}

// Reason renders a one-line explanation for the verdict
func Reason(verdict Verdict, testSharpe, maxDrawdown, overfitScore float64) string {
	switch verdict {
	case VerdictStrong:
		return fmt.Sprintf("test Sharpe %.2f exceeds 1.5 with %.1f%% max drawdown; overfitting %.2f",
			testSharpe, maxDrawdown*100, overfitScore)
	case VerdictGood:
		return fmt.Sprintf("test Sharpe %.2f clears 0.8; worth refining (overfitting %.2f)",
			testSharpe, overfitScore)
	case VerdictWeak:
		return fmt.Sprintf("test Sharpe %.2f is positive but below 0.8", testSharpe)
	default:
		return fmt.Sprintf("test Sharpe %.2f shows no out-of-sample edge", testSharpe)
	}
}
