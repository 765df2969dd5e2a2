package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/tradebook/internal/modules/instruments"
	"github.com/rs/zerolog"
)

// Batch failures abort the run before any row is processed. Row-level
// failures never do.
var (
	ErrEmptyInput = errors.New("import file is empty")
	ErrNoHeader   = errors.New("import file has no header row")
)

// Service drives an import run: parse the uploaded table, normalize each row,
// group fills by instrument key, reconcile each group, and flatten the
// consolidated trades plus per-row diagnostics into the result. One service
// call owns its entire working set; runs share no state.
type Service struct {
	normalizer *Normalizer
	reconciler *Reconciler
	log        zerolog.Logger
}

// NewService creates a new import service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		normalizer: NewNormalizer(instruments.NewParser(log), log),
		reconciler: NewReconciler(log),
		log:        log.With().Str("service", "importer").Logger(),
	}
}

// Import processes one uploaded file of delimited tabular text with a header
// row. It returns an error only for batch failures (empty input, unreadable
// data, missing header); individual bad rows become rejection diagnostics and
// the batch continues.
func (s *Service) Import(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if isBlank(header) {
		return nil, ErrNoHeader
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	result := &Result{
		Trades:     []ConsolidatedTrade{},
		Rejections: []Rejection{},
		Warnings:   []string{},
	}

	// Group fills by instrument key, preserving first-appearance order so
	// output is deterministic.
	groups := make(map[InstrumentKey][]Fill)
	var keyOrder []InstrumentKey

	for i, record := range records {
		if isBlank(record) {
			continue
		}
		line := i + 2 // header is line 1
		result.Rows++

		row := make(RawRow, len(header))
		for col, cell := range record {
			if col < len(header) {
				row[header[col]] = cell
			}
		}

		fill, err := s.normalizer.Normalize(row)
		if err != nil {
			s.log.Debug().Int("line", line).Err(err).Msg("Row rejected")
			result.Rejections = append(result.Rejections, Rejection{Row: line, Reason: err.Error()})
			continue
		}

		fill.Row = line
		if fill.Warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", line, fill.Warning))
		}

		key := keyForFill(*fill)
		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], *fill)
		result.Imported++
	}

	for _, key := range keyOrder {
		result.Trades = append(result.Trades, s.reconciler.Reconcile(groups[key])...)
	}

	s.log.Info().
		Int("rows", result.Rows).
		Int("imported", result.Imported).
		Int("rejected", len(result.Rejections)).
		Int("trades", len(result.Trades)).
		Msg("Import completed")

	return result, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
