package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hylin716/go-bank-ledger/internal/app/bank/domain"
	"github.com/hylin716/go-bank-ledger/internal/app/bank/usecase"
)

// sqlAccount maps to the accounts table.
type sqlAccount struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	AccountNumber int64   `gorm:"uniqueIndex;not null"`
	FirstName     string  `gorm:"size:64;not null"`
	LastName      string  `gorm:"size:64;not null"`
	Balance       float64 `gorm:"not null"`
	CreatedAt     int64   `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64   `gorm:"autoUpdateTime:milli"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction maps to the bank_transactions table.
type sqlTransaction struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	AccountID       int64     `gorm:"index;not null"`
	Amount          float64   `gorm:"not null"`
	TransactionDate time.Time `gorm:"type:date;not null;index"`
}

func (*sqlTransaction) TableName() string {
	return "bank_transactions"
}

// Store persists the ledger in MySQL through GORM. Same-account append
// serialization comes from the row lock taken inside the DB transaction;
// appends to different accounts lock different rows and proceed
// independently.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the ledger tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&sqlAccount{}, &sqlTransaction{})
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	row := sqlAccount{
		AccountNumber: account.AccountNumber,
		FirstName:     account.FirstName,
		LastName:      account.LastName,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	account.ID = row.ID
	account.Balance = 0
	return nil
}

func (s *Store) AccountByNumber(ctx context.Context, number int64) (*domain.Account, error) {
	var row sqlAccount
	err := s.db.WithContext(ctx).Where("account_number = ?", number).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return toDomainAccount(&row), nil
}

func (s *Store) AppendTransaction(ctx context.Context, number int64, amount float64, date time.Time) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the account row for the whole validate-then-append
		// sequence. A concurrent append to the same account blocks here
		// until this transaction commits or rolls back.
		var acct sqlAccount
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_number = ?", number).
			First(&acct).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}

		newBalance := acct.Balance + amount
		if newBalance < 0 {
			return domain.ErrInsufficientBalance
		}

		if err := tx.Model(&sqlAccount{}).
			Where("id = ?", acct.ID).
			Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		row := sqlTransaction{
			AccountID:       acct.ID,
			Amount:          amount,
			TransactionDate: date,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		out = &domain.Transaction{
			ID:            row.ID,
			AccountNumber: number,
			Amount:        amount,
			Date:          date,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SumAmounts(ctx context.Context, number int64) (float64, error) {
	var sum float64
	err := s.forAccount(ctx, number).
		Select("COALESCE(SUM(bank_transactions.amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

func (s *Store) TransactionsByDate(ctx context.Context, number int64) ([]domain.Transaction, error) {
	var rows []sqlTransaction
	err := s.forAccount(ctx, number).
		Order("bank_transactions.transaction_date ASC, bank_transactions.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return toDomainTransactions(number, rows), nil
}

func (s *Store) RecentTransactions(ctx context.Context, number int64, limit int) ([]domain.Transaction, error) {
	var rows []sqlTransaction
	err := s.forAccount(ctx, number).
		Order("bank_transactions.transaction_date DESC, bank_transactions.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select recent transactions: %w", err)
	}
	return toDomainTransactions(number, rows), nil
}

// forAccount scopes a transaction query to an account number.
func (s *Store) forAccount(ctx context.Context, number int64) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&sqlTransaction{}).
		Joins("JOIN accounts ON accounts.id = bank_transactions.account_id").
		Where("accounts.account_number = ?", number)
}

func toDomainAccount(row *sqlAccount) *domain.Account {
	return &domain.Account{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Balance:       row.Balance,
	}
}

func toDomainTransactions(number int64, rows []sqlTransaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Transaction{
			ID:            row.ID,
			AccountNumber: number,
			Amount:        row.Amount,
			Date:          domain.DateOf(row.TransactionDate),
		})
	}
	return out
}

var _ usecase.BankStore = (*Store)(nil)
