package instruments

import "strings"

// Exchange lot sizes by underlying symbol. Index derivatives trade in lots;
// broker execution logs sometimes report the lot count instead of the
// absolute unit quantity.
var lotSizes = map[string]int{
	"NIFTY":  75,
	"SENSEX": 20,
}

// LotSize returns the exchange lot size for an underlying symbol.
// Unknown symbols have a lot size of 1 (quantity is already absolute).
func LotSize(symbol string) int {
	if size, ok := lotSizes[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return size
	}
	return 1
}

// LotsToQuantity converts a lot count into absolute traded units.
func LotsToQuantity(lots float64, symbol string) float64 {
	return lots * float64(LotSize(symbol))
}
