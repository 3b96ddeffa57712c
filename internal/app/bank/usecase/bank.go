package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hylin716/go-bank-ledger/internal/app/bank/domain"
)

const (
	// recentTransactionLimit bounds GetRecentTransactions.
	recentTransactionLimit = 10

	// createAttemptLimit bounds the retry loop on account number collision.
	createAttemptLimit = 3
)

// Bank is the ledger engine. It owns the business rules: the non-negative
// balance invariant, the zero-amount no-op, and the aggregation views. All
// atomicity and per-account serialization lives behind the BankStore port.
type Bank struct {
	store BankStore
	log   zerolog.Logger
}

func NewBank(store BankStore, log zerolog.Logger) *Bank {
	return &Bank{store: store, log: log}
}

// CreateAccount persists a new account for the holder and returns its
// 8-digit account number. A number collision is retried with a fresh number
// a bounded number of times before the failure is surfaced.
func (b *Bank) CreateAccount(ctx context.Context, firstName, lastName string) (int64, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return 0, domain.ErrBlankName
	}

	var lastErr error
	for attempt := 0; attempt < createAttemptLimit; attempt++ {
		number := allocateAccountNumber()
		err := b.store.CreateAccount(ctx, &domain.Account{
			AccountNumber: number,
			FirstName:     firstName,
			LastName:      lastName,
		})
		if err == nil {
			b.log.Info().Int64("account_number", number).Str("first_name", firstName).Msg("account created")
			return number, nil
		}
		if !errors.Is(err, domain.ErrAccountNumberTaken) {
			b.log.Error().Err(err).Msg("create account failed")
			return 0, err
		}
		lastErr = err
	}
	b.log.Error().Err(lastErr).Msg("account number allocation exhausted")
	return 0, lastErr
}

// AddTransaction records a signed amount against the account and reports
// whether it was applied. A nil or exactly-zero amount and an unknown
// account both report applied=false without an error; an amount that would
// drive the balance negative fails with domain.ErrInsufficientBalance and
// persists nothing.
func (b *Bank) AddTransaction(ctx context.Context, number int64, amount *float64) (bool, error) {
	if amount == nil || *amount == 0 {
		return false, nil
	}

	tran, err := b.store.AppendTransaction(ctx, number, *amount, domain.DateOf(time.Now()))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAccountNotFound):
		// The append surface treats an unknown account as "not applied",
		// unlike the lookup operations where it is a hard error.
		return false, nil
	case errors.Is(err, domain.ErrInsufficientBalance):
		b.log.Warn().Int64("account_number", number).Float64("amount", *amount).Msg("transaction rejected: insufficient balance")
		return false, err
	default:
		b.log.Error().Err(err).Int64("account_number", number).Msg("append transaction failed")
		return false, err
	}

	b.log.Info().
		Int64("account_number", number).
		Float64("amount", *amount).
		Int64("transaction_id", tran.ID).
		Msg("transaction applied")
	return true, nil
}

// GetBalance returns the sum of the account's transaction amounts, computed
// fresh from the transaction records rather than the cached balance field.
// A real account with no transactions reports zero; only a missing account
// is an error.
func (b *Bank) GetBalance(ctx context.Context, number int64) (float64, error) {
	if _, err := b.store.AccountByNumber(ctx, number); err != nil {
		return 0, err
	}
	return b.store.SumAmounts(ctx, number)
}

// GetAccountDetails returns the account record for the number.
func (b *Bank) GetAccountDetails(ctx context.Context, number int64) (*domain.Account, error) {
	return b.store.AccountByNumber(ctx, number)
}

// GetRecentTransactions returns up to the 10 most recent transactions,
// newest date first. Absence of transactions is an empty result, not an
// error.
func (b *Bank) GetRecentTransactions(ctx context.Context, number int64) ([]domain.Transaction, error) {
	return b.store.RecentTransactions(ctx, number, recentTransactionLimit)
}

// GetBalanceHistory returns one entry per calendar date that saw at least
// one transaction, in ascending date order, each carrying the running sum
// of all amounts up to and including that date.
func (b *Bank) GetBalanceHistory(ctx context.Context, number int64) ([]domain.BalancePoint, error) {
	trans, err := b.store.TransactionsByDate(ctx, number)
	if err != nil {
		return nil, err
	}

	history := make([]domain.BalancePoint, 0, len(trans))
	var sum float64
	for _, tran := range trans {
		sum += tran.Amount
		if n := len(history); n > 0 && history[n-1].Date.Equal(tran.Date) {
			// Repeated dates collapse into one entry that tracks the
			// running sum through the whole day.
			history[n-1].Balance = sum
			continue
		}
		history = append(history, domain.BalancePoint{Date: tran.Date, Balance: sum})
	}
	return history, nil
}
