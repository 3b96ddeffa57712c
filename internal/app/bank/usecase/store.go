package usecase

import (
	"context"
	"time"

	"github.com/hylin716/go-bank-ledger/internal/app/bank/domain"
)

// BankStore is the persistence port of the ledger engine.
//
// AppendTransaction owns its transactional scope: the balance check, the
// balance update and the transaction insert must commit or roll back as one
// unit, and concurrent appends against the same account must be serialized
// so the sufficiency check never runs against a stale balance.
type BankStore interface {
	// CreateAccount persists a new account with zero balance. It returns
	// domain.ErrAccountNumberTaken when the number is already in use.
	CreateAccount(ctx context.Context, account *domain.Account) error

	// AccountByNumber returns the account for the given number, or
	// domain.ErrAccountNotFound.
	AccountByNumber(ctx context.Context, number int64) (*domain.Account, error)

	// AppendTransaction atomically validates and records a signed amount
	// against the account. It returns domain.ErrAccountNotFound or
	// domain.ErrInsufficientBalance without persisting anything.
	AppendTransaction(ctx context.Context, number int64, amount float64, date time.Time) (*domain.Transaction, error)

	// SumAmounts returns the sum of all transaction amounts for the
	// account, computed from the transaction records rather than the cached
	// account balance. An account with no records sums to zero.
	SumAmounts(ctx context.Context, number int64) (float64, error)

	// TransactionsByDate returns all transactions for the account in
	// ascending date order, same-date records in append order.
	TransactionsByDate(ctx context.Context, number int64) ([]domain.Transaction, error)

	// RecentTransactions returns up to limit transactions, newest date
	// first, same-date ties newest record first. An unknown account yields
	// an empty result, not an error.
	RecentTransactions(ctx context.Context, number int64, limit int) ([]domain.Transaction, error)
}
