package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradebook/internal/modules/importer"
	"github.com/aristath/tradebook/internal/modules/trades"
)

// fakeStore records batches instead of hitting a database
type fakeStore struct {
	batches  [][]trades.Trade
	importID string
	err      error
}

func (s *fakeStore) CreateBatch(batch []trades.Trade, importID string) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, batch)
	s.importID = importID
	return nil
}

func setupRouter(store TradeStore) chi.Router {
	h := NewHandlers(importer.NewService(zerolog.Nop()), store, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

const brokerCSV = `Time,Type,Instrument,Qty.,Avg. price
2025-06-12 09:21:35,BUY,NIFTY2561224900PE,75/75,145.25
2025-06-12 10:05:12,SELL,NIFTY2561224900PE,75/75,210.80
`

func TestHandleImport_RawBody(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(brokerCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ImportID string   `json:"import_id"`
		Imported int      `json:"imported"`
		Rejected int      `json:"rejected"`
		Trades   int      `json:"trades"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ImportID)
	assert.Equal(t, 2, resp.Imported)
	assert.Zero(t, resp.Rejected)
	assert.Equal(t, 1, resp.Trades)

	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 1)
	assert.Equal(t, resp.ImportID, store.importID)
	assert.Equal(t, "NIFTY", store.batches[0][0].Symbol)
}

func TestHandleImport_MultipartUpload(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "tradebook.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(brokerCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.batches, 1)
}

func TestHandleImport_MultipartMissingFileField(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.batches)
}

func TestHandleImport_EmptyBody(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.batches)
}

func TestHandleImport_StoreFailure(t *testing.T) {
	store := &fakeStore{err: assert.AnError}
	router := setupRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(brokerCSV))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleImport_RejectionsReported(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store)

	csv := `Time,Type,Instrument,Qty.,Avg. price
2025-06-12 09:21:35,BUY,NIFTY24900PE,75,145.25
2025-06-12 09:25:00,HOLD,NIFTY24900PE,75,150.00
`
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rejected   int                  `json:"rejected"`
		Rejections []importer.Rejection `json:"rejections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.Rejected)
	require.Len(t, resp.Rejections, 1)
	assert.Equal(t, 3, resp.Rejections[0].Row)
}

func TestHandleTemplate(t *testing.T) {
	router := setupRouter(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/import/template", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "symbol,type,instrumentType")
}
