// Package trades provides the journal trade model and its persistence.
package trades

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/importer"
)

// Trade is a journal entry: one consolidated round trip (or still-open
// position) as stored in the journal database.
type Trade struct {
	ID             int64                 `json:"id"`
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
	// ImportID groups trades created by the same import run.
	ImportID  string     `json:"import_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Validate validates trade data and normalizes the symbol
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if t.EntryPrice <= 0 {
		return fmt.Errorf("entry price must be positive")
	}
	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid direction: %s", t.Direction)
	}
	if !t.InstrumentType.IsValid() {
		return fmt.Errorf("invalid instrument type: %s", t.InstrumentType)
	}

	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))

	return nil
}

// FromConsolidated converts an import engine output record into a journal trade.
func FromConsolidated(ct importer.ConsolidatedTrade) Trade {
	return Trade{
		Symbol:         ct.Symbol,
		Direction:      ct.Direction,
		InstrumentType: ct.InstrumentType,
		EntryPrice:     ct.EntryPrice,
		ExitPrice:      ct.ExitPrice,
		Quantity:       ct.Quantity,
		EntryDate:      ct.EntryDate,
		ExitDate:       ct.ExitDate,
		ProfitLoss:     ct.ProfitLoss,
		Notes:          ct.Notes,
		Sector:         ct.Sector,
		StrikePrice:    ct.StrikePrice,
		OptionType:     ct.OptionType,
		ExpiryDate:     ct.ExpiryDate,
	}
}
