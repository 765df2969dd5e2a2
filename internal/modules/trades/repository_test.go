package trades

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradebook/internal/domain"
)

// testSchema mirrors the trades table from the journal schema
const testSchema = `
CREATE TABLE trades (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    direction TEXT NOT NULL,
    instrument_type TEXT NOT NULL,
    entry_price REAL NOT NULL CHECK(entry_price > 0),
    exit_price REAL,
    quantity REAL NOT NULL CHECK(quantity > 0),
    entry_date INTEGER NOT NULL,
    exit_date INTEGER,
    profit_loss REAL NOT NULL DEFAULT 0,
    notes TEXT,
    sector TEXT,
    strike_price REAL,
    option_type TEXT,
    expiry_date TEXT,
    import_id TEXT,
    created_at INTEGER NOT NULL
);
CREATE INDEX idx_trades_symbol ON trades(symbol);
CREATE INDEX idx_trades_import_id ON trades(import_id);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func sampleTrade() *Trade {
	exitPrice := 210.80
	exitDate := time.Date(2025, time.June, 12, 10, 5, 12, 0, time.UTC)
	strike := 24900.0
	ot := domain.OptionPut
	expiry := time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC)

	return &Trade{
		Symbol:         "NIFTY",
		Direction:      domain.TradeSideLong,
		InstrumentType: domain.InstrumentOptions,
		EntryPrice:     145.25,
		ExitPrice:      &exitPrice,
		Quantity:       75,
		EntryDate:      time.Date(2025, time.June, 12, 9, 21, 35, 0, time.UTC),
		ExitDate:       &exitDate,
		ProfitLoss:     4916.25,
		Notes:          "Weekly expiry momentum",
		StrikePrice:    &strike,
		OptionType:     &ot,
		ExpiryDate:     &expiry,
	}
}

func TestRepository_Create_AndGetByID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	trade := sampleTrade()
	err := repo.Create(trade)
	require.NoError(t, err)
	require.NotZero(t, trade.ID)

	got, err := repo.GetByID(trade.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "NIFTY", got.Symbol)
	assert.Equal(t, domain.TradeSideLong, got.Direction)
	assert.Equal(t, domain.InstrumentOptions, got.InstrumentType)
	assert.Equal(t, 145.25, got.EntryPrice)
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 210.80, *got.ExitPrice)
	assert.Equal(t, 75.0, got.Quantity)
	assert.Equal(t, trade.EntryDate.Unix(), got.EntryDate.Unix())
	require.NotNil(t, got.ExitDate)
	assert.Equal(t, trade.ExitDate.Unix(), got.ExitDate.Unix())
	assert.Equal(t, 4916.25, got.ProfitLoss)
	assert.Equal(t, "Weekly expiry momentum", got.Notes)
	require.NotNil(t, got.StrikePrice)
	assert.Equal(t, 24900.0, *got.StrikePrice)
	require.NotNil(t, got.OptionType)
	assert.Equal(t, domain.OptionPut, *got.OptionType)
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, "2025-06-12", got.ExpiryDate.Format("2006-01-02"))
	require.NotNil(t, got.CreatedAt)
}

func TestRepository_Create_NormalizesSymbol(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	trade := sampleTrade()
	trade.Symbol = "  nifty "
	require.NoError(t, repo.Create(trade))

	got, err := repo.GetByID(trade.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NIFTY", got.Symbol)
}

func TestRepository_Create_InvalidTrade(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	trade := sampleTrade()
	trade.EntryPrice = 0
	assert.Error(t, repo.Create(trade))

	trade = sampleTrade()
	trade.Symbol = ""
	assert.Error(t, repo.Create(trade))

	trade = sampleTrade()
	trade.Direction = "SIDEWAYS"
	assert.Error(t, repo.Create(trade))
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	got, err := repo.GetByID(9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_CreateBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	batch := []Trade{*sampleTrade(), *sampleTrade(), *sampleTrade()}
	batch[1].Symbol = "SENSEX"
	batch[2].Symbol = "RELIANCE"

	importID := "run-abc-123"
	require.NoError(t, repo.CreateBatch(batch, importID))

	count, err := repo.CountByImportID(importID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	total, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestRepository_CreateBatch_InvalidTradeAborts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	batch := []Trade{*sampleTrade(), *sampleTrade()}
	batch[1].Quantity = -5

	err := repo.CreateBatch(batch, "run-bad")
	require.Error(t, err)

	// Nothing from the batch lands
	total, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRepository_List(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	earlier := sampleTrade()
	earlier.Symbol = "TCS"
	earlier.EntryDate = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Create(earlier))

	later := sampleTrade()
	require.NoError(t, repo.Create(later))

	list, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Newest first
	assert.Equal(t, "NIFTY", list[0].Symbol)
	assert.Equal(t, "TCS", list[1].Symbol)

	limited, err := repo.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "NIFTY", limited[0].Symbol)
}

func TestRepository_GetBySymbol(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Create(sampleTrade()))
	other := sampleTrade()
	other.Symbol = "SENSEX"
	require.NoError(t, repo.Create(other))

	list, err := repo.GetBySymbol("NIFTY", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "NIFTY", list[0].Symbol)
}

func TestRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	trade := sampleTrade()
	require.NoError(t, repo.Create(trade))

	trade.Notes = "Revised after review"
	trade.ProfitLoss = 5000
	require.NoError(t, repo.Update(trade))

	got, err := repo.GetByID(trade.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Revised after review", got.Notes)
	assert.Equal(t, 5000.0, got.ProfitLoss)
}

func TestRepository_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	trade := sampleTrade()
	trade.ID = 4242
	assert.Error(t, repo.Update(trade))
}

func TestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	trade := sampleTrade()
	require.NoError(t, repo.Create(trade))
	require.NoError(t, repo.Delete(trade.ID))

	got, err := repo.GetByID(trade.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, repo.Delete(trade.ID))
}
