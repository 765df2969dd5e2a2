// Package instruments decodes free-text instrument identifiers from broker
// trade exports. NSE/BSE option contracts encode symbol, expiry date-code,
// strike and option type in a single string (e.g. "NIFTY2561224900PE"), with
// several looser spellings seen in the wild. Parsing walks an ordered list of
// grammars and takes the first structural match.
package instruments

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/pkg/logger"
	"github.com/rs/zerolog"
)

// Instrument is the structured result of parsing an instrument identifier.
// Strike, OptionType and Expiry are nil when the source text doesn't carry them.
type Instrument struct {
	Underlying string
	Strike     *float64
	OptionType *domain.OptionType
	Expiry     *time.Time

	// Grammar names the matcher that produced the result (for diagnostics).
	Grammar string
	// Ambiguous marks low-confidence matches: symbol-less grammars and the
	// default-strike fallback. Not an error, but surfaced to import callers
	// as a quality signal.
	Ambiguous bool
}

// Grammar contract. Order matters: the first structurally matching grammar
// wins, with no backtracking even if the result looks implausible.
var (
	// dated: SYMBOL + 5-digit date-code + 4-6 digit strike + CE/PE
	reDatedContract = regexp.MustCompile(`^([A-Z]+)(\d{5})(\d{4,6})([CP]E)$`)
	// plain: SYMBOL + 4-6 digit strike + CE/PE (no date-code)
	rePlainContract = regexp.MustCompile(`^([A-Z]+)(\d{4,6})([CP]E)$`)
	// loose: SYMBOL + digit run + 4-6 digit strike + CE/PE (ambiguous split)
	reLooseContract = regexp.MustCompile(`^([A-Z]+)(\d+)(\d{4,6})([CP]E)$`)
	// suffix: 4-6 digit strike + CE/PE suffix, symbol missing
	reStrikeSuffix = regexp.MustCompile(`(\d{4,6})([CP]E)$`)
	// bare: a 4-6 digit run treated as strike
	reBareStrike = regexp.MustCompile(`(\d{4,6})`)
)

// Default strikes used when no digits parse at all.
var defaultStrikes = map[string]float64{
	"NIFTY":  24900,
	"SENSEX": 81500,
}

// Parser decodes instrument identifier text via ordered fallback grammars.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a new instrument parser
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{
		log: logger.ForComponent(log, "instrument_parser"),
	}
}

type matcher func(text string) (Instrument, bool)

// Parse decodes raw instrument text into a structured identifier. Matching is
// case-insensitive. Parse never fails: the final fallback assigns a default
// strike by symbol, so every input yields an Instrument.
func (p *Parser) Parse(text string) Instrument {
	normalized := strings.ToUpper(strings.TrimSpace(text))

	matchers := []matcher{
		p.matchDatedContract,
		p.matchPlainContract,
		p.matchLooseContract,
		p.matchStrikeSuffix,
		p.matchBareStrike,
	}

	for _, match := range matchers {
		if inst, ok := match(normalized); ok {
			if inst.Ambiguous {
				p.log.Debug().
					Str("text", text).
					Str("grammar", inst.Grammar).
					Msg("Instrument matched low-confidence grammar")
			}
			return inst
		}
	}

	return p.fallbackDefault(normalized, text)
}

// matchDatedContract handles the canonical dated contract spelling.
func (p *Parser) matchDatedContract(text string) (Instrument, bool) {
	m := reDatedContract.FindStringSubmatch(text)
	if m == nil {
		return Instrument{}, false
	}

	inst := Instrument{
		Underlying: m[1],
		Strike:     parseStrike(m[3]),
		OptionType: optionTypePtr(m[4]),
		Expiry:     decodeDateCode(m[2]),
		Grammar:    "dated",
	}
	return inst, true
}

// matchPlainContract handles symbol+strike+type with no date-code.
func (p *Parser) matchPlainContract(text string) (Instrument, bool) {
	m := rePlainContract.FindStringSubmatch(text)
	if m == nil {
		return Instrument{}, false
	}

	return Instrument{
		Underlying: m[1],
		Strike:     parseStrike(m[2]),
		OptionType: optionTypePtr(m[3]),
		Grammar:    "plain",
	}, true
}

// matchLooseContract handles an arbitrary digit run before the strike.
// The run is decoded as a date-code on a best-effort basis; where the
// date/strike boundary is genuinely ambiguous the structural split stands,
// it is not semantically re-verified.
func (p *Parser) matchLooseContract(text string) (Instrument, bool) {
	m := reLooseContract.FindStringSubmatch(text)
	if m == nil {
		return Instrument{}, false
	}

	return Instrument{
		Underlying: m[1],
		Strike:     parseStrike(m[3]),
		OptionType: optionTypePtr(m[4]),
		Expiry:     decodeDateCode(m[2]),
		Grammar:    "loose",
	}, true
}

// matchStrikeSuffix handles strike+type with the symbol missing.
// The underlying is defaulted by substring containment.
func (p *Parser) matchStrikeSuffix(text string) (Instrument, bool) {
	m := reStrikeSuffix.FindStringSubmatch(text)
	if m == nil {
		return Instrument{}, false
	}

	return Instrument{
		Underlying: defaultUnderlying(text),
		Strike:     parseStrike(m[1]),
		OptionType: optionTypePtr(m[2]),
		Grammar:    "strike_suffix",
		Ambiguous:  true,
	}, true
}

// matchBareStrike treats any 4-6 digit run as the strike; the option
// type is inferred from CE/PE substring containment and may stay unset.
func (p *Parser) matchBareStrike(text string) (Instrument, bool) {
	m := reBareStrike.FindStringSubmatch(text)
	if m == nil {
		return Instrument{}, false
	}

	return Instrument{
		Underlying: defaultUnderlying(text),
		Strike:     parseStrike(m[1]),
		OptionType: containedOptionType(text),
		Grammar:    "bare_strike",
		Ambiguous:  true,
	}, true
}

// fallbackDefault assigns the per-symbol default strike when no digits parse.
func (p *Parser) fallbackDefault(text, original string) Instrument {
	underlying := defaultUnderlying(text)
	strike := defaultStrikes[underlying]

	p.log.Warn().
		Str("text", original).
		Str("underlying", underlying).
		Float64("strike", strike).
		Msg("No strike digits in instrument text, using default strike")

	return Instrument{
		Underlying: underlying,
		Strike:     &strike,
		OptionType: containedOptionType(text),
		Grammar:    "default",
		Ambiguous:  true,
	}
}

// defaultUnderlying picks the index symbol by substring containment,
// defaulting to NIFTY.
func defaultUnderlying(text string) string {
	if strings.Contains(text, "NIFTY") {
		return "NIFTY"
	}
	if strings.Contains(text, "SENSEX") {
		return "SENSEX"
	}
	return "NIFTY"
}

// containedOptionType infers the option type from CE/PE substring containment.
// Returns nil when neither marker is present.
func containedOptionType(text string) *domain.OptionType {
	if strings.Contains(text, "CE") {
		ot := domain.OptionCall
		return &ot
	}
	if strings.Contains(text, "PE") {
		ot := domain.OptionPut
		return &ot
	}
	return nil
}

func optionTypePtr(suffix string) *domain.OptionType {
	ot, err := domain.OptionTypeFromString(suffix)
	if err != nil {
		return nil
	}
	return &ot
}

func parseStrike(digits string) *float64 {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil
	}
	return &v
}

// decodeDateCode decodes an expiry date-code: digits[0:2] are the year offset
// from 2000 and the remainder is month+day. Five-digit codes for single-digit
// months carry only one month digit, so the two-digit month split is tried
// first and the decoder falls back to a one-digit month when the wide split
// yields an invalid month or day ("25612" decodes as 2025-06-12). Decode
// failures return nil, never an error.
func decodeDateCode(code string) *time.Time {
	if len(code) < 3 {
		return nil
	}

	year, err := strconv.Atoi(code[:2])
	if err != nil {
		return nil
	}
	year += 2000

	if len(code) >= 4 {
		if t := buildDate(year, code[2:4], code[4:]); t != nil {
			return t
		}
	}
	return buildDate(year, code[2:3], code[3:])
}

// buildDate validates the month/day split and returns the expiry date,
// or nil if the split is not a real calendar position.
func buildDate(year int, monthStr, dayStr string) *time.Time {
	if monthStr == "" || dayStr == "" {
		return nil
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return nil
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return nil
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}
