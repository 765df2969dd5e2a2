package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/instruments"
	"github.com/aristath/tradebook/pkg/logger"
	"github.com/rs/zerolog"
)

// lotCountThreshold is the heuristic boundary below which a raw quantity on
// an index derivative row is treated as a lot count rather than an absolute
// unit quantity.
const lotCountThreshold = 10

// reLeadingDigits extracts the quantity from broker cells like "75/75"
// (filled/ordered).
var reLeadingDigits = regexp.MustCompile(`^\d+`)

// timestampLayouts are tried in order; broker exports use "date time" with a
// space separator, application exports usually a bare date.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// Normalizer converts raw rows into canonical fills. It detects which of the
// two recognized schemas a row belongs to and applies the matching field
// mapping. Normalize never panics: a bad row yields a rejection error and the
// batch continues without it.
type Normalizer struct {
	parser *instruments.Parser
	log    zerolog.Logger
}

// NewNormalizer creates a new row normalizer
func NewNormalizer(parser *instruments.Parser, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		parser: parser,
		log:    logger.ForComponent(log, "row_normalizer"),
	}
}

// Normalize maps one raw row to zero or one canonical fill. A row is treated
// as broker execution log format when it has values for time, type,
// instrument, quantity and average price; otherwise it is treated as
// application-native format. The returned error is the rejection reason.
func (n *Normalizer) Normalize(row RawRow) (*Fill, error) {
	view := newRowView(row)

	if view.hasAll(brokerAliases, brokerRequired) {
		return n.normalizeBroker(view)
	}
	return n.normalizeNative(view)
}

// normalizeBroker maps a broker execution log row: the instrument text is
// decoded by the identifier parser, the quantity is taken from the leading
// digit run and lot-converted, and the side comes from BUY/SELL.
func (n *Normalizer) normalizeBroker(view *rowView) (*Fill, error) {
	timeStr, _ := view.field(brokerAliases, "time")
	typeStr, _ := view.field(brokerAliases, "type")
	instrumentStr, _ := view.field(brokerAliases, "instrument")
	qtyStr, _ := view.field(brokerAliases, "quantity")
	priceStr, _ := view.field(brokerAliases, "averageprice")

	side, err := domain.TradeSideFromString(typeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type %q", typeStr)
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid average price %q", priceStr)
	}
	if price <= 0 {
		return nil, fmt.Errorf("average price must be positive, got %v", price)
	}

	digits := reLeadingDigits.FindString(qtyStr)
	if digits == "" {
		return nil, fmt.Errorf("invalid quantity %q", qtyStr)
	}
	qty, err := strconv.ParseFloat(digits, 64)
	if err != nil || qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %q", qtyStr)
	}

	inst := n.parser.Parse(instrumentStr)
	instrumentType := inferInstrumentType(instrumentStr)

	// Index derivatives trade in lots; a small raw quantity on such a row is
	// a lot count, not absolute units.
	if qty <= lotCountThreshold &&
		(instrumentType == domain.InstrumentOptions || instrumentType == domain.InstrumentFutures) &&
		instruments.LotSize(inst.Underlying) > 1 {
		converted := instruments.LotsToQuantity(qty, inst.Underlying)
		n.log.Debug().
			Str("instrument", instrumentStr).
			Float64("lots", qty).
			Float64("quantity", converted).
			Msg("Converted lot count to absolute quantity")
		qty = converted
	}

	fill := &Fill{
		Symbol:         inst.Underlying,
		Side:           side,
		InstrumentType: instrumentType,
		Quantity:       qty,
		Price:          price,
		Timestamp:      n.parseTimestamp(timeStr),
		StrikePrice:    inst.Strike,
		OptionType:     inst.OptionType,
		ExpiryDate:     inst.Expiry,
		Notes:          instrumentStr,
	}

	if inst.Ambiguous {
		fill.Warning = fmt.Sprintf("instrument %q matched low-confidence grammar %s", instrumentStr, inst.Grammar)
	}

	return fill, nil
}

// normalizeNative maps an application-native row through the alias table.
// Rows that carry both entry and exit describe a completed round trip and
// keep their exit fields on the fill.
func (n *Normalizer) normalizeNative(view *rowView) (*Fill, error) {
	for _, required := range nativeRequired {
		if _, ok := view.field(nativeAliases, required); !ok {
			return nil, fmt.Errorf("missing required field %q", required)
		}
	}

	symbol, _ := view.field(nativeAliases, "symbol")
	typeStr, _ := view.field(nativeAliases, "type")
	entryPriceStr, _ := view.field(nativeAliases, "entryprice")
	qtyStr, _ := view.field(nativeAliases, "quantity")
	entryDateStr, _ := view.field(nativeAliases, "entrydate")

	side, err := domain.TradeSideFromString(typeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trade type %q", typeStr)
	}

	entryPrice, err := strconv.ParseFloat(entryPriceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid entry price %q", entryPriceStr)
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	qty, err := strconv.ParseFloat(qtyStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", qtyStr)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %v", qty)
	}

	fill := &Fill{
		Symbol:         strings.ToUpper(symbol),
		Side:           side,
		InstrumentType: domain.InstrumentStock,
		Quantity:       qty,
		Price:          entryPrice,
		Timestamp:      n.parseTimestamp(entryDateStr),
	}

	if instTypeStr, ok := view.field(nativeAliases, "instrumenttype"); ok {
		fill.InstrumentType = domain.InstrumentTypeFromString(instTypeStr)
	}
	if notes, ok := view.field(nativeAliases, "notes"); ok {
		fill.Notes = notes
	}
	if sector, ok := view.field(nativeAliases, "sector"); ok {
		fill.Sector = sector
	}
	if strikeStr, ok := view.field(nativeAliases, "strikeprice"); ok {
		if strike, err := strconv.ParseFloat(strikeStr, 64); err == nil {
			fill.StrikePrice = &strike
		}
	}
	if otStr, ok := view.field(nativeAliases, "optiontype"); ok {
		if ot, err := domain.OptionTypeFromString(otStr); err == nil {
			fill.OptionType = &ot
		}
	}
	if expiryStr, ok := view.field(nativeAliases, "expirydate"); ok {
		if expiry, ok := parseDate(expiryStr); ok {
			fill.ExpiryDate = &expiry
		}
	}

	if exitPriceStr, ok := view.field(nativeAliases, "exitprice"); ok {
		exitPrice, err := strconv.ParseFloat(exitPriceStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exit price %q", exitPriceStr)
		}
		if exitPrice <= 0 {
			return nil, fmt.Errorf("exit price must be positive, got %v", exitPrice)
		}
		fill.ExitPrice = &exitPrice
	}
	if exitDateStr, ok := view.field(nativeAliases, "exitdate"); ok {
		if exitDate, ok := parseDate(exitDateStr); ok {
			fill.ExitDate = &exitDate
		}
	}

	if plStr, ok := view.field(nativeAliases, "profitloss"); ok {
		if pl, err := strconv.ParseFloat(plStr, 64); err == nil {
			fill.ProfitLoss = &pl
		}
	}

	// Realized P&L is derivable when the row has an exit but no explicit
	// figure: (exit-entry)*qty for LONG, (entry-exit)*qty for SHORT.
	if fill.ProfitLoss == nil && fill.ExitPrice != nil {
		pl := (*fill.ExitPrice - entryPrice) * qty
		if side.IsShort() {
			pl = (entryPrice - *fill.ExitPrice) * qty
		}
		fill.ProfitLoss = &pl
	}

	return fill, nil
}

// parseTimestamp parses a timestamp tolerantly. Unparseable values fall back
// to the current time; that is logged, never fatal.
func (n *Normalizer) parseTimestamp(value string) time.Time {
	if t, ok := parseDate(value); ok {
		return t
	}

	n.log.Warn().
		Str("value", value).
		Msg("Unparseable timestamp, falling back to current time")
	return time.Now()
}

func parseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inferInstrumentType classifies the instrument from its raw text: option
// contracts end in PE/CE, futures contain FUT, everything else is a stock.
func inferInstrumentType(instrumentText string) domain.InstrumentType {
	upper := strings.ToUpper(instrumentText)
	if strings.Contains(upper, "PE") || strings.Contains(upper, "CE") {
		return domain.InstrumentOptions
	}
	if strings.Contains(upper, "FUT") {
		return domain.InstrumentFutures
	}
	return domain.InstrumentStock
}
