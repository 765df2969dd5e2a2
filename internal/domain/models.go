// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
)

// TradeSide represents the direction of a journal trade or fill
type TradeSide string

const (
	TradeSideLong  TradeSide = "LONG"
	TradeSideShort TradeSide = "SHORT"
)

// IsValid checks if the trade side is valid
func (ts TradeSide) IsValid() bool {
	return ts == TradeSideLong || ts == TradeSideShort
}

// IsLong returns true if this is a LONG trade
func (ts TradeSide) IsLong() bool {
	return ts == TradeSideLong
}

// IsShort returns true if this is a SHORT trade
func (ts TradeSide) IsShort() bool {
	return ts == TradeSideShort
}

// TradeSideFromString creates TradeSide from string (case-insensitive).
// Broker execution logs use BUY/SELL, application exports use LONG/SHORT;
// both spellings are accepted.
func TradeSideFromString(value string) (TradeSide, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("invalid trade side: empty string")
	}

	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY", "LONG":
		return TradeSideLong, nil
	case "SELL", "SHORT":
		return TradeSideShort, nil
	default:
		return "", fmt.Errorf("invalid trade side: %s", value)
	}
}

// InstrumentType represents the type of traded instrument
type InstrumentType string

const (
	InstrumentStock   InstrumentType = "STOCK"
	InstrumentFutures InstrumentType = "FUTURES"
	InstrumentOptions InstrumentType = "OPTIONS"
)

// IsValid checks if the instrument type is valid
func (it InstrumentType) IsValid() bool {
	return it == InstrumentStock || it == InstrumentFutures || it == InstrumentOptions
}

// InstrumentTypeFromString creates InstrumentType from string (case-insensitive).
// Unrecognized values default to STOCK.
func InstrumentTypeFromString(value string) InstrumentType {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "FUTURES", "FUT":
		return InstrumentFutures
	case "OPTIONS", "OPT":
		return InstrumentOptions
	default:
		return InstrumentStock
	}
}

// OptionType represents the option contract type
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// OptionTypeFromString creates OptionType from string (case-insensitive).
// Accepts both the exchange suffixes (CE/PE) and the full names.
func OptionTypeFromString(value string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CE", "CALL":
		return OptionCall, nil
	case "PE", "PUT":
		return OptionPut, nil
	default:
		return "", fmt.Errorf("invalid option type: %s", value)
	}
}
