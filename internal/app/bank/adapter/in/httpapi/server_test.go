package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memory "github.com/hylin716/go-bank-ledger/internal/app/bank/adapter/out/memory"
	"github.com/hylin716/go-bank-ledger/internal/app/bank/usecase"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store, err := memory.NewStore(nil)
	require.NoError(t, err)
	bank := usecase.NewBank(store, zerolog.Nop())
	return NewHandler(bank, zerolog.Nop())
}

func post(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createTestAccount(t *testing.T, h http.Handler) int64 {
	t.Helper()
	rec := post(t, h, "/banks/create", map[string]string{"firstName": "Jane", "lastName": "Doe"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[map[string]int64](t, rec)
	return out["accountNumber"]
}

func TestEndToEndScenario(t *testing.T) {
	h := newTestHandler(t)

	number := createTestAccount(t, h)
	assert.GreaterOrEqual(t, number, int64(10_000_000))
	assert.LessOrEqual(t, number, int64(99_999_999))

	rec := post(t, h, "/banks/transaction", map[string]any{"accountNumber": number, "amount": 100.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["applied"])

	// Overdraw: rejected with a bad-request class failure.
	rec = post(t, h, "/banks/transaction", map[string]any{"accountNumber": number, "amount": -150.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "insufficient balance")

	rec = post(t, h, "/banks/balance", map[string]any{"accountNumber": number})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, decode[map[string]float64](t, rec)["balance"])

	rec = post(t, h, "/banks/transaction", map[string]any{"accountNumber": number, "amount": -100.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["applied"])

	rec = post(t, h, "/banks/balance", map[string]any{"accountNumber": number})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode[map[string]float64](t, rec)["balance"])
}

func TestZeroAmountNotApplied(t *testing.T) {
	h := newTestHandler(t)
	number := createTestAccount(t, h)

	rec := post(t, h, "/banks/transaction", map[string]any{"accountNumber": number, "amount": 0.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]bool](t, rec)["applied"])

	rec = post(t, h, "/banks/transaction", map[string]any{"accountNumber": number})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]bool](t, rec)["applied"])
}

func TestNotFoundMapping(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, "/banks/balance", map[string]any{"accountNumber": 99_999_999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, h, "/banks/account", map[string]any{"accountNumber": 99_999_999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Appending to an unknown account is a soft failure, not a 404.
	rec = post(t, h, "/banks/transaction", map[string]any{"accountNumber": 99_999_999, "amount": 10.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]bool](t, rec)["applied"])
}

func TestBlankHolderRejected(t *testing.T) {
	h := newTestHandler(t)
	rec := post(t, h, "/banks/create", map[string]string{"firstName": " ", "lastName": "Doe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountDetails(t *testing.T) {
	h := newTestHandler(t)
	number := createTestAccount(t, h)

	rec := post(t, h, "/banks/account", map[string]any{"accountNumber": number})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[accountResponse](t, rec)
	assert.Equal(t, number, out.AccountNumber)
	assert.Equal(t, "Jane", out.FirstName)
	assert.Equal(t, "Doe", out.LastName)
	assert.Equal(t, 0.0, out.Balance)
}

func TestHistoryAndRecentShapes(t *testing.T) {
	h := newTestHandler(t)
	number := createTestAccount(t, h)

	for _, amt := range []float64{100, -30, 50} {
		rec := post(t, h, "/banks/transaction", map[string]any{"accountNumber": number, "amount": amt})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := post(t, h, "/banks/transactionsLastTen", map[string]any{"accountNumber": number})
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[[]transactionResponse](t, rec)
	require.Len(t, recent, 3)
	// Same-date ties: newest record first.
	assert.Equal(t, 50.0, recent[0].Amount)
	assert.Equal(t, -30.0, recent[1].Amount)
	assert.Equal(t, 100.0, recent[2].Amount)

	rec = post(t, h, "/banks/transactions", map[string]any{"accountNumber": number})
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]balancePointResponse](t, rec)
	// All on today's date: one collapsed entry with the running sum.
	require.Len(t, history, 1)
	assert.Equal(t, 120.0, history[0].Balance)

	rec = post(t, h, "/banks/transactions", map[string]any{"accountNumber": 99_999_999})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]balancePointResponse](t, rec))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/banks/balance", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
