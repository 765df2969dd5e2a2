// Package importer implements the trade-import reconciliation engine: it
// ingests tabular broker trade exports, normalizes heterogeneous rows into
// canonical fills, and reconstructs round-trip trades by matching opening
// fills against the fill that flattens the position.
package importer

import (
	"time"

	"github.com/aristath/tradebook/internal/domain"
)

// Fill is a canonical single execution produced by the row normalizer.
type Fill struct {
	Symbol         string
	Side           domain.TradeSide
	InstrumentType domain.InstrumentType
	Quantity       float64
	Price          float64
	Timestamp      time.Time
	StrikePrice    *float64
	OptionType     *domain.OptionType
	ExpiryDate     *time.Time
	Notes          string
	Sector         string

	// Application-native rows may already describe a completed round trip.
	// Such fills pass through reconciliation unchanged.
	ExitPrice  *float64
	ExitDate   *time.Time
	ProfitLoss *float64

	// Row is the source line number in the uploaded file (header is line 1).
	Row int
	// Warning carries a low-confidence instrument parse note, empty when
	// the parse was confident.
	Warning string
}

// completed reports whether the fill already carries its own exit leg or
// realized P&L and therefore bypasses sequence matching.
func (f Fill) completed() bool {
	return f.ExitPrice != nil || f.ProfitLoss != nil
}

// InstrumentKey is the grouping identity used to associate related fills.
// Strike is 0 and OptionType empty for instruments without them.
type InstrumentKey struct {
	Symbol     string
	Strike     float64
	OptionType domain.OptionType
}

// keyForFill derives the grouping key for a normalized fill.
func keyForFill(f Fill) InstrumentKey {
	key := InstrumentKey{Symbol: f.Symbol}
	if f.StrikePrice != nil {
		key.Strike = *f.StrikePrice
	}
	if f.OptionType != nil {
		key.OptionType = *f.OptionType
	}
	return key
}

// ConsolidatedTrade is a single entry-to-exit journal record produced by the
// reconciliation engine. Exit fields are nil for positions still open at the
// end of the import stream.
type ConsolidatedTrade struct {
	Symbol         string                `json:"symbol"`
	Direction      domain.TradeSide      `json:"direction"`
	InstrumentType domain.InstrumentType `json:"instrument_type"`
	EntryPrice     float64               `json:"entry_price"`
	ExitPrice      *float64              `json:"exit_price,omitempty"`
	Quantity       float64               `json:"quantity"`
	EntryDate      time.Time             `json:"entry_date"`
	ExitDate       *time.Time            `json:"exit_date,omitempty"`
	ProfitLoss     float64               `json:"profit_loss"`
	Notes          string                `json:"notes,omitempty"`
	Sector         string                `json:"sector,omitempty"`
	StrikePrice    *float64              `json:"strike_price,omitempty"`
	OptionType     *domain.OptionType    `json:"option_type,omitempty"`
	ExpiryDate     *time.Time            `json:"expiry_date,omitempty"`
}

// Rejection records a single row that failed validation. Rejections are
// diagnostics, not errors: the batch continues without the row.
type Rejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of one import run.
type Result struct {
	Trades     []ConsolidatedTrade `json:"trades"`
	Rejections []Rejection         `json:"rejections"`
	Warnings   []string            `json:"warnings"`
	// Rows is the number of non-empty data rows processed.
	Rows int `json:"rows"`
	// Imported is the number of rows that yielded a canonical fill.
	Imported int `json:"imported"`
}
