// Package httpapi exposes the ledger engine as a REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hylin716/go-bank-ledger/internal/app/bank/domain"
	"github.com/hylin716/go-bank-ledger/internal/app/bank/usecase"
)

const dateLayout = "2006-01-02"

type handler struct {
	bank *usecase.Bank
	log  zerolog.Logger
}

// NewHandler returns the REST surface of the ledger service.
func NewHandler(bank *usecase.Bank, log zerolog.Logger) http.Handler {
	h := &handler{bank: bank, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/banks/create", h.createAccount)
	mux.HandleFunc("/banks/transaction", h.addTransaction)
	mux.HandleFunc("/banks/balance", h.getBalance)
	mux.HandleFunc("/banks/account", h.getAccount)
	mux.HandleFunc("/banks/transactionsLastTen", h.recentTransactions)
	mux.HandleFunc("/banks/transactions", h.balanceHistory)
	return withRequestLog(log, mux)
}

type holderRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type accountRequest struct {
	AccountNumber int64 `json:"accountNumber"`
}

type transactionRequest struct {
	AccountNumber int64    `json:"accountNumber"`
	Amount        *float64 `json:"amount"`
}

type transactionResponse struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

type balancePointResponse struct {
	Date    string  `json:"date"`
	Balance float64 `json:"balance"`
}

type accountResponse struct {
	AccountNumber int64   `json:"accountNumber"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Balance       float64 `json:"balance"`
}

func (h *handler) createAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload holderRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	number, err := h.bank.CreateAccount(r.Context(), payload.FirstName, payload.LastName)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"accountNumber": number})
}

func (h *handler) addTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload transactionRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	applied, err := h.bank.AddTransaction(r.Context(), payload.AccountNumber, payload.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	number, ok := h.decodeAccountNumber(w, r)
	if !ok {
		return
	}
	balance, err := h.bank.GetBalance(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	number, ok := h.decodeAccountNumber(w, r)
	if !ok {
		return
	}
	acct, err := h.bank.GetAccountDetails(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		AccountNumber: acct.AccountNumber,
		FirstName:     acct.FirstName,
		LastName:      acct.LastName,
		Balance:       acct.Balance,
	})
}

func (h *handler) recentTransactions(w http.ResponseWriter, r *http.Request) {
	number, ok := h.decodeAccountNumber(w, r)
	if !ok {
		return
	}
	trans, err := h.bank.GetRecentTransactions(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(trans))
	for _, tran := range trans {
		out = append(out, transactionResponse{
			Amount: tran.Amount,
			Date:   tran.Date.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) balanceHistory(w http.ResponseWriter, r *http.Request) {
	number, ok := h.decodeAccountNumber(w, r)
	if !ok {
		return
	}
	history, err := h.bank.GetBalanceHistory(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]balancePointResponse, 0, len(history))
	for _, point := range history {
		out = append(out, balancePointResponse{
			Date:    point.Date.Format(dateLayout),
			Balance: point.Balance,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) decodeAccountNumber(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return 0, false
	}
	var payload accountRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return payload.AccountNumber, true
}

// writeDomainError maps domain errors to statuses; anything unrecognized is
// an internal failure whose detail stays in the log, not the response.
func (h *handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrBlankName):
		writeError(w, http.StatusBadRequest, err)
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, errors.New("internal service error"))
	}
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
