package trades

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// tradesColumns is the column list for the trades table. Kept explicit to
// avoid SELECT * breaking when the schema changes; order must match the scan
// helpers below.
const tradesColumns = `id, symbol, direction, instrument_type, entry_price, exit_price, quantity, entry_date, exit_date, profit_loss, notes, sector, strike_price, option_type, expiry_date, import_id, created_at`

// expiryDateLayout is how expiry dates are stored (date only, no time part).
const expiryDateLayout = "2006-01-02"

// Repository handles trade database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new trade repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "trades").Logger(),
	}
}

const insertTradeQuery = `
	INSERT INTO trades
	(symbol, direction, instrument_type, entry_price, exit_price, quantity,
	 entry_date, exit_date, profit_loss, notes, sector, strike_price,
	 option_type, expiry_date, import_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create inserts a new trade record
func (r *Repository) Create(trade *Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	res, err := r.db.Exec(insertTradeQuery, insertArgs(trade)...)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		trade.ID = id
	}

	r.log.Info().
		Str("symbol", trade.Symbol).
		Str("direction", string(trade.Direction)).
		Float64("quantity", trade.Quantity).
		Msg("Trade created")

	return nil
}

// CreateBatch inserts all trades of one import run in a single transaction.
// The import either lands whole or not at all.
func (r *Repository) CreateBatch(batch []Trade, importID string) error {
	for i := range batch {
		batch[i].ImportID = importID
		if err := batch[i].Validate(); err != nil {
			return fmt.Errorf("invalid trade in batch: %w", err)
		}
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertTradeQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range batch {
			if _, err := stmt.Exec(insertArgs(&batch[i])...); err != nil {
				return fmt.Errorf("failed to insert trade %s: %w", batch[i].Symbol, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Str("import_id", importID).
		Int("count", len(batch)).
		Msg("Import batch stored")

	return nil
}

// GetByID retrieves a trade by its ID. Returns nil when not found.
func (r *Repository) GetByID(id int64) (*Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ?"

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade by id: %w", err)
	}

	return &trade, nil
}

// List retrieves trades newest first with an optional limit (0 = no limit)
func (r *Repository) List(limit int) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades ORDER BY entry_date DESC, id DESC"

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = r.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetBySymbol retrieves trades for a symbol, newest first
func (r *Repository) GetBySymbol(symbol string, limit int) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE symbol = ? ORDER BY entry_date DESC, id DESC"

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.Query(query+" LIMIT ?", symbol, limit)
	} else {
		rows, err = r.db.Query(query, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trades by symbol: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// Update replaces a trade record's mutable fields
func (r *Repository) Update(trade *Trade) error {
	if trade.ID == 0 {
		return fmt.Errorf("cannot update trade without id")
	}
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	query := `
		UPDATE trades SET
			symbol = ?, direction = ?, instrument_type = ?, entry_price = ?,
			exit_price = ?, quantity = ?, entry_date = ?, exit_date = ?,
			profit_loss = ?, notes = ?, sector = ?, strike_price = ?,
			option_type = ?, expiry_date = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query,
		trade.Symbol,
		string(trade.Direction),
		string(trade.InstrumentType),
		trade.EntryPrice,
		nullFloat64Ptr(trade.ExitPrice),
		trade.Quantity,
		trade.EntryDate.Unix(),
		nullUnixPtr(trade.ExitDate),
		trade.ProfitLoss,
		nullString(trade.Notes),
		nullString(trade.Sector),
		nullFloat64Ptr(trade.StrikePrice),
		nullOptionType(trade.OptionType),
		nullExpiry(trade.ExpiryDate),
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("trade %d not found", trade.ID)
	}

	return nil
}

// Delete removes a trade record
func (r *Repository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("trade %d not found", id)
	}

	return nil
}

// Count returns the total number of journal trades
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// CountByImportID returns the number of trades created by one import run
func (r *Repository) CountByImportID(importID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM trades WHERE import_id = ?", importID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades by import id: %w", err)
	}
	return count, nil
}

// insertArgs builds the argument list for insertTradeQuery
func insertArgs(trade *Trade) []interface{} {
	return []interface{}{
		trade.Symbol,
		string(trade.Direction),
		string(trade.InstrumentType),
		trade.EntryPrice,
		nullFloat64Ptr(trade.ExitPrice),
		trade.Quantity,
		trade.EntryDate.Unix(),
		nullUnixPtr(trade.ExitDate),
		trade.ProfitLoss,
		nullString(trade.Notes),
		nullString(trade.Sector),
		nullFloat64Ptr(trade.StrikePrice),
		nullOptionType(trade.OptionType),
		nullExpiry(trade.ExpiryDate),
		nullString(trade.ImportID),
		time.Now().Unix(),
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helper
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (Trade, error) {
	var t Trade
	var direction, instrumentType string
	var exitPrice, strikePrice sql.NullFloat64
	var entryDate int64
	var exitDate sql.NullInt64
	var notes, sector, optionType, expiryDate, importID sql.NullString
	var createdAt sql.NullInt64

	err := row.Scan(
		&t.ID,
		&t.Symbol,
		&direction,
		&instrumentType,
		&t.EntryPrice,
		&exitPrice,
		&t.Quantity,
		&entryDate,
		&exitDate,
		&t.ProfitLoss,
		&notes,
		&sector,
		&strikePrice,
		&optionType,
		&expiryDate,
		&importID,
		&createdAt,
	)
	if err != nil {
		return Trade{}, err
	}

	t.Direction = domain.TradeSide(direction)
	t.InstrumentType = domain.InstrumentType(instrumentType)
	t.EntryDate = time.Unix(entryDate, 0).UTC()
	t.Notes = notes.String
	t.Sector = sector.String
	t.ImportID = importID.String

	if exitPrice.Valid {
		t.ExitPrice = &exitPrice.Float64
	}
	if exitDate.Valid {
		ts := time.Unix(exitDate.Int64, 0).UTC()
		t.ExitDate = &ts
	}
	if strikePrice.Valid {
		t.StrikePrice = &strikePrice.Float64
	}
	if optionType.Valid && optionType.String != "" {
		ot := domain.OptionType(optionType.String)
		t.OptionType = &ot
	}
	if expiryDate.Valid && expiryDate.String != "" {
		if exp, err := time.Parse(expiryDateLayout, expiryDate.String); err == nil {
			t.ExpiryDate = &exp
		}
	}
	if createdAt.Valid {
		ts := time.Unix(createdAt.Int64, 0).UTC()
		t.CreatedAt = &ts
	}

	return t, nil
}

func collectTrades(rows *sql.Rows) ([]Trade, error) {
	var result []Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}
	return result, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat64Ptr(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullUnixPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullOptionType(ot *domain.OptionType) interface{} {
	if ot == nil {
		return nil
	}
	return string(*ot)
}

func nullExpiry(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(expiryDateLayout)
}
