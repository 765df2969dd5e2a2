package importer

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/pkg/logger"
)

// sequence is the transient accumulation state for one instrument key while
// its position is open. Invariants: qty is the sum of opening fill
// quantities; avgPrice() is the quantity-weighted mean of their prices.
type sequence struct {
	fills []Fill
	qty   float64
	cost  float64 // running sum of quantity*price
}

func (s *sequence) add(f Fill) {
	s.fills = append(s.fills, f)
	s.qty += f.Quantity
	s.cost += f.Quantity * f.Price
}

func (s *sequence) avgPrice() float64 {
	if s.qty == 0 {
		return 0
	}
	return s.cost / s.qty
}

// first returns the earliest opening fill; entry date and instrument fields
// of the consolidated trade come from it.
func (s *sequence) first() Fill {
	return s.fills[0]
}

// Reconciler reconstructs round-trip trades from the fills of a single
// instrument key. The walk is a fold over the time-sorted fill list carrying
// an explicit state: no open sequence, or an accumulating sequence of opening
// fills. A closing fill whose quantity exactly matches the accumulated
// position closes the sequence; any other closing fill becomes a standalone
// trade and leaves the sequence untouched. Partial exits are deliberately not
// decomposed.
type Reconciler struct {
	log zerolog.Logger
}

// NewReconciler creates a new sequence reconciler
func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{
		log: logger.ForComponent(log, "reconciler"),
	}
}

// Reconcile consolidates the fills of one instrument key, sorted ascending by
// timestamp with ties broken by original row order, into zero or more trades.
func (r *Reconciler) Reconcile(fills []Fill) []ConsolidatedTrade {
	sorted := make([]Fill, len(fills))
	copy(sorted, fills)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	trades := make([]ConsolidatedTrade, 0, len(sorted))
	var open *sequence

	for _, fill := range sorted {
		switch {
		case fill.completed():
			// The row already describes a full round trip; re-importing an
			// application export must reproduce it unchanged.
			trades = append(trades, completedTrade(fill))

		case fill.Side.IsLong():
			// Opening fill: establish or extend the position.
			if open == nil {
				open = &sequence{}
			}
			open.add(fill)

		default:
			// Closing fill: flattens the position only on an exact quantity
			// match; otherwise it stands alone.
			if open != nil && fill.Quantity == open.qty {
				trades = append(trades, closedTrade(open, fill))
				open = nil
			} else {
				r.log.Debug().
					Str("symbol", fill.Symbol).
					Float64("quantity", fill.Quantity).
					Msg("Closing fill does not match open position, emitting standalone trade")
				trades = append(trades, standaloneTrade(fill))
			}
		}
	}

	// A position still open at the end of the stream is emitted as an open
	// trade at its current weighted-average entry.
	if open != nil {
		trades = append(trades, openTrade(open))
	}

	return trades
}

// closedTrade merges an accumulated sequence with the fill that flattened it.
func closedTrade(open *sequence, closing Fill) ConsolidatedTrade {
	first := open.first()
	entryPrice := open.avgPrice()
	exitPrice := closing.Price
	exitDate := closing.Timestamp

	profitLoss := (exitPrice - entryPrice) * open.qty
	if first.Side.IsShort() {
		profitLoss = (entryPrice - exitPrice) * open.qty
	}

	return ConsolidatedTrade{
		Symbol:         first.Symbol,
		Direction:      first.Side,
		InstrumentType: first.InstrumentType,
		EntryPrice:     entryPrice,
		ExitPrice:      &exitPrice,
		Quantity:       open.qty,
		EntryDate:      first.Timestamp,
		ExitDate:       &exitDate,
		ProfitLoss:     profitLoss,
		Notes:          first.Notes,
		Sector:         first.Sector,
		StrikePrice:    first.StrikePrice,
		OptionType:     first.OptionType,
		ExpiryDate:     first.ExpiryDate,
	}
}

// openTrade emits a still-open sequence at end of stream: no exit fields, no
// realized P&L.
func openTrade(open *sequence) ConsolidatedTrade {
	first := open.first()
	return ConsolidatedTrade{
		Symbol:         first.Symbol,
		Direction:      first.Side,
		InstrumentType: first.InstrumentType,
		EntryPrice:     open.avgPrice(),
		Quantity:       open.qty,
		EntryDate:      first.Timestamp,
		Notes:          first.Notes,
		Sector:         first.Sector,
		StrikePrice:    first.StrikePrice,
		OptionType:     first.OptionType,
		ExpiryDate:     first.ExpiryDate,
	}
}

// standaloneTrade emits a closing fill that matched no open position as its
// own unconsolidated trade.
func standaloneTrade(fill Fill) ConsolidatedTrade {
	return ConsolidatedTrade{
		Symbol:         fill.Symbol,
		Direction:      fill.Side,
		InstrumentType: fill.InstrumentType,
		EntryPrice:     fill.Price,
		Quantity:       fill.Quantity,
		EntryDate:      fill.Timestamp,
		Notes:          fill.Notes,
		Sector:         fill.Sector,
		StrikePrice:    fill.StrikePrice,
		OptionType:     fill.OptionType,
		ExpiryDate:     fill.ExpiryDate,
	}
}

// completedTrade passes a pre-consolidated fill through unchanged.
func completedTrade(fill Fill) ConsolidatedTrade {
	trade := ConsolidatedTrade{
		Symbol:         fill.Symbol,
		Direction:      fill.Side,
		InstrumentType: fill.InstrumentType,
		EntryPrice:     fill.Price,
		ExitPrice:      fill.ExitPrice,
		Quantity:       fill.Quantity,
		EntryDate:      fill.Timestamp,
		ExitDate:       fill.ExitDate,
		Notes:          fill.Notes,
		Sector:         fill.Sector,
		StrikePrice:    fill.StrikePrice,
		OptionType:     fill.OptionType,
		ExpiryDate:     fill.ExpiryDate,
	}
	if fill.ProfitLoss != nil {
		trade.ProfitLoss = *fill.ProfitLoss
	}
	return trade
}
