package importer

import (
	"strings"
	"unicode"
)

// RawRow maps a header cell to the row's cell text, exactly as read from the
// uploaded file. Column names arrive with arbitrary case, spacing and
// punctuation ("Avg. price", "avg_price" and "AveragePrice" are the same
// column).
type RawRow map[string]string

// Canonical field names and their accepted spellings. Spellings are listed in
// canonicalized form (lowercase, letters and digits only); resolution happens
// once per row via a canonicalized lookup.
var brokerAliases = map[string][]string{
	"time":         {"time", "ordertime", "executiontime", "orderexecutiontime", "timestamp"},
	"type":         {"type", "transactiontype", "side", "buysell"},
	"instrument":   {"instrument", "tradingsymbol", "contract", "scrip"},
	"quantity":     {"qty", "quantity", "filledqty", "qtyfilled"},
	"averageprice": {"avgprice", "averageprice", "avg", "price"},
}

// brokerRequired lists the canonical fields whose presence identifies a
// broker execution log row.
var brokerRequired = []string{"time", "type", "instrument", "quantity", "averageprice"}

var nativeAliases = map[string][]string{
	"symbol":         {"symbol", "ticker", "scrip"},
	"type":           {"type", "side", "direction"},
	"instrumenttype": {"instrumenttype", "instrument"},
	"entryprice":     {"entryprice", "entry", "buyprice"},
	"exitprice":      {"exitprice", "exit", "sellprice"},
	"quantity":       {"quantity", "qty"},
	"entrydate":      {"entrydate", "date", "entrytime"},
	"exitdate":       {"exitdate", "exittime"},
	"profitloss":     {"profitloss", "pl", "pnl", "netpl", "pandl"},
	"notes":          {"notes", "remarks", "comment", "comments"},
	"sector":         {"sector"},
	"strikeprice":    {"strikeprice", "strike"},
	"optiontype":     {"optiontype"},
	"expirydate":     {"expirydate", "expiry"},
}

// nativeRequired lists the canonical fields an application-native row must
// carry to be importable.
var nativeRequired = []string{"symbol", "type", "entryprice", "quantity", "entrydate"}

// canonicalKey normalizes a column name for alias lookup: lowercase with all
// whitespace and punctuation stripped.
func canonicalKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// rowView resolves alias-tolerant field lookups against one raw row.
// Keys are canonicalized once when the view is built.
type rowView struct {
	values map[string]string
}

func newRowView(row RawRow) *rowView {
	values := make(map[string]string, len(row))
	for name, cell := range row {
		key := canonicalKey(name)
		if key == "" {
			continue
		}
		// First non-empty value wins when two headers collapse to one key.
		if existing, ok := values[key]; !ok || strings.TrimSpace(existing) == "" {
			values[key] = cell
		}
	}
	return &rowView{values: values}
}

// field returns the trimmed value of the first alias with a non-empty cell.
func (v *rowView) field(aliases map[string][]string, canonical string) (string, bool) {
	for _, spelling := range aliases[canonical] {
		if cell, ok := v.values[spelling]; ok {
			if trimmed := strings.TrimSpace(cell); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

// hasAll reports whether every listed canonical field has a value.
func (v *rowView) hasAll(aliases map[string][]string, fields []string) bool {
	for _, f := range fields {
		if _, ok := v.field(aliases, f); !ok {
			return false
		}
	}
	return true
}
