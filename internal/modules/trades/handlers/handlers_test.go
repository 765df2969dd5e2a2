package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradebook/internal/modules/trades"
)

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
`

func setupRouter(t *testing.T) (chi.Router, *trades.Repository) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	repo := trades.NewRepository(db, zerolog.Nop())
	h := NewHandlers(repo, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, repo
}

const tradeJSON = `{
	"symbol": "NIFTY",
	"direction": "LONG",
	"instrument_type": "OPTIONS",
	"entry_price": 145.25,
	"exit_price": 210.80,
	"quantity": 75,
	"entry_date": "2025-06-12T09:21:35Z",
	"exit_date": "2025-06-12T10:05:12Z",
	"profit_loss": 4916.25,
	"strike_price": 24900,
	"option_type": "PUT"
}`

func TestHandleCreate_AndGet(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(tradeJSON))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created trades.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	req = httptest.NewRequest(http.MethodGet, "/trades/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got trades.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "NIFTY", got.Symbol)
	assert.Equal(t, 145.25, got.EntryPrice)
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 210.80, *got.ExitPrice)
}

func TestHandleCreate_InvalidTrade(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(`{"symbol":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet_NotFound(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/trades/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleList_FilterBySymbol(t *testing.T) {
	router, repo := setupRouter(t)

	for _, symbol := range []string{"NIFTY", "SENSEX"} {
		trade := trades.Trade{
			Symbol:         symbol,
			Direction:      "LONG",
			InstrumentType: "STOCK",
			EntryPrice:     100,
			Quantity:       10,
		}
		require.NoError(t, repo.Create(&trade))
	}

	req := httptest.NewRequest(http.MethodGet, "/trades?symbol=SENSEX", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trades []trades.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, "SENSEX", resp.Trades[0].Symbol)
}

func TestHandleList_Empty(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/trades", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"trades":[]}`, rec.Body.String())
}

func TestHandleDelete(t *testing.T) {
	router, repo := setupRouter(t)

	trade := trades.Trade{
		Symbol:         "TCS",
		Direction:      "SHORT",
		InstrumentType: "STOCK",
		EntryPrice:     3850,
		Quantity:       25,
	}
	require.NoError(t, repo.Create(&trade))

	req := httptest.NewRequest(http.MethodDelete, "/trades/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/trades/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
