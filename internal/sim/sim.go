package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"stratlab/internal/dataset"
	"stratlab/internal/errors"
	"stratlab/internal/logger"
	"stratlab/internal/model"
)

// Direction is the held position direction
type Direction int

const (
	Short Direction = -1
	Flat  Direction = 0
	Long  Direction = 1
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Trade is one completed round trip, P&L net of fees and slippage.
// The trade log is append-only; IDs are content-derived so identical
// simulations produce identical logs.
type Trade struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	Costs      float64   `json:"costs"`
	PnL        float64   `json:"pnl"`
	Return     float64   `json:"return"`
}

// EquityPoint is one mark-to-market observation
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// Result is the simulator output: the equity curve, per-bar returns
// derived from it, and the chronological trade log
type Result struct {
	EquityCurve []EquityPoint
	Returns     []float64
	Trades      []Trade
	FinalEquity float64
}

// Config configures a simulation run
type Config struct {
	FeeRate       float64
	SlippageRate  float64
	InitialEquity float64
	// PositionFraction is the fraction of current equity committed per
	// position; no leverage.
	PositionFraction float64
	// LongThreshold opens a long when the score reaches it; FlatThreshold
	// closes the position when the score falls to it. Short entries use
	// the mirrored thresholds when AllowShort is set.
	LongThreshold float64
	FlatThreshold float64
	AllowShort    bool
}

// Simulator replays a sample segment against a fitted model, converting
// scores into position changes and marking equity to market at every bar
type Simulator struct {
	config Config
	log    logger.Logger
}

// NewSimulator creates a simulator
func NewSimulator(config Config) *Simulator {
	return &Simulator{
		config: config,
		log:    logger.WithField("component", "simulator"),
	}
}

// position is the currently held exposure
type position struct {
	direction  Direction
	entryPrice float64
	entryTime  time.Time
	quantity   float64
	entryCosts float64
}

// Run processes the segment once, strictly in chronological order. The
// model was fitted upstream, so inference at sample i cannot be
// influenced by samples after i. Any position still open at the end of
// the segment is closed at the final price so every trade resolves.
func (s *Simulator) Run(symbol string, samples []dataset.Sample, m model.Model) (*Result, error) {
	if len(samples) == 0 {
		return nil, errors.New(errors.ErrCodeInsufficientSignal,
			"no samples to simulate").WithAsset(symbol)
	}
	if s.config.InitialEquity <= 0 {
		return nil, errors.Newf(errors.ErrCodeConfiguration,
			"initial equity must be positive, got %v", s.config.InitialEquity)
	}

	result := &Result{
		EquityCurve: make([]EquityPoint, 0, len(samples)),
	}

	cash := s.config.InitialEquity
	var pos *position

	for _, sample := range samples {
		price := sample.Price
		score := m.Predict(sample.Features)
		desired := s.desiredDirection(score, currentDirection(pos))

		if pos != nil && desired != pos.direction {
			cash += s.closePosition(symbol, pos, price, sample.Timestamp, result)
			pos = nil
		}
		if pos == nil && desired != Flat {
			equity := cash
			notional := equity * s.config.PositionFraction
			openCosts := notional * (s.config.FeeRate + s.config.SlippageRate)
			pos = &position{
				direction:  desired,
				entryPrice: price,
				entryTime:  sample.Timestamp,
				quantity:   notional / price,
				entryCosts: openCosts,
			}
			if desired == Long {
				cash -= notional + openCosts
			} else {
				cash -= openCosts
			}
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Timestamp: sample.Timestamp,
			Equity:    markToMarket(cash, pos, price),
		})
	}

	if pos != nil {
		last := samples[len(samples)-1]
		cash += s.closePosition(symbol, pos, last.Price, last.Timestamp, result)
		pos = nil
		result.EquityCurve[len(result.EquityCurve)-1].Equity = cash
	}

	result.FinalEquity = result.EquityCurve[len(result.EquityCurve)-1].Equity
	result.Returns = equityReturns(result.EquityCurve)

	s.log.Debug("simulation complete",
		"asset", symbol,
		"bars", len(samples),
		"trades", len(result.Trades),
		"final_equity", result.FinalEquity,
	)
	return result, nil
}

// desiredDirection converts a score into a target direction with
// enter/exit hysteresis
func (s *Simulator) desiredDirection(score float64, current Direction) Direction {
	switch current {
	case Long:
		if score <= s.config.FlatThreshold {
			if s.config.AllowShort && score <= -s.config.LongThreshold {
				return Short
			}
			return Flat
		}
		return Long
	case Short:
		if score >= -s.config.FlatThreshold {
			if score >= s.config.LongThreshold {
				return Long
			}
			return Flat
		}
		return Short
	default:
		if score >= s.config.LongThreshold {
			return Long
		}
		if s.config.AllowShort && score <= -s.config.LongThreshold {
			return Short
		}
		return Flat
	}
}

// closePosition books the realized P&L and appends the trade record,
// returning the cash delta
func (s *Simulator) closePosition(symbol string, pos *position, price float64, ts time.Time, result *Result) float64 {
	exitNotional := pos.quantity * price
	closeCosts := exitNotional * (s.config.FeeRate + s.config.SlippageRate)

	var proceeds float64
	if pos.direction == Long {
		proceeds = exitNotional - closeCosts
	} else {
		proceeds = pos.quantity*(pos.entryPrice-price) - closeCosts
	}

	entryNotional := pos.quantity * pos.entryPrice
	gross := pos.quantity * (price - pos.entryPrice) * float64(pos.direction)
	costs := pos.entryCosts + closeCosts
	pnl := gross - costs

	result.Trades = append(result.Trades, Trade{
		ID:         tradeID(symbol, pos.entryTime, ts),
		Symbol:     symbol,
		Direction:  pos.direction,
		EntryTime:  pos.entryTime,
		ExitTime:   ts,
		EntryPrice: pos.entryPrice,
		ExitPrice:  price,
		Quantity:   pos.quantity,
		Costs:      costs,
		PnL:        pnl,
		Return:     pnl / entryNotional,
	})
	return proceeds
}

// markToMarket values cash plus the open position at the bar close
func markToMarket(cash float64, pos *position, price float64) float64 {
	if pos == nil {
		return cash
	}
	if pos.direction == Long {
		return cash + pos.quantity*price
	}
	return cash + pos.quantity*(pos.entryPrice-price)
}

func currentDirection(pos *position) Direction {
	if pos == nil {
		return Flat
	}
	return pos.direction
}

func equityReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

// tradeID derives a stable UUID from the trade coordinates so repeated
// runs of the same evaluation yield identical logs
func tradeID(symbol string, entry, exit time.Time) string {
	seed := fmt.Sprintf("%s|%d|%d", symbol, entry.UnixNano(), exit.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
