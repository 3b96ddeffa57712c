package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hylin716/go-bank-ledger/internal/app/bank/domain"
	"github.com/hylin716/go-bank-ledger/internal/app/bank/usecase"
	"github.com/hylin716/go-bank-ledger/pkg/wal"
)

const journalDateLayout = "2006-01-02"

// journalEntry is one committed write in the WAL. Kind selects which fields
// are meaningful.
type journalEntry struct {
	Kind      string  `json:"kind"` // "account" or "transaction"
	Number    int64   `json:"number"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Date      string  `json:"date,omitempty"`
}

// Store keeps the ledger in process memory, optionally journaling every
// committed write to a WAL so state survives restarts.
//
// mu guards all maps and record state. Each account additionally has its
// own append lock held across the whole validate-then-append sequence, so
// two concurrent appends to the same account can never both pass the
// sufficiency check against a stale balance, while appends to different
// accounts stay independent.
type Store struct {
	mu       sync.RWMutex
	accounts map[int64]*domain.Account
	trans    map[int64][]domain.Transaction

	lockMu      sync.Mutex
	appendLocks map[int64]*sync.Mutex

	nextAccountID int64
	nextTranID    int64

	wal *wal.WAL
}

// NewStore builds a store and, when w is non-nil, replays the journal to
// recover the pre-restart state.
func NewStore(w *wal.WAL) (*Store, error) {
	s := &Store{
		accounts:    make(map[int64]*domain.Account),
		trans:       make(map[int64][]domain.Transaction),
		appendLocks: make(map[int64]*sync.Mutex),
		wal:         w,
	}
	if w != nil {
		if err := s.recover(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// recover replays journal entries in commit order. Runs single-threaded
// before the store is published, so no locking.
func (s *Store) recover() error {
	return s.wal.ReadAll(func(jsonRaw []byte) error {
		var entry journalEntry
		if err := json.Unmarshal(jsonRaw, &entry); err != nil {
			return fmt.Errorf("decode journal entry: %w", err)
		}
		switch entry.Kind {
		case "account":
			s.applyAccount(entry.Number, entry.FirstName, entry.LastName)
		case "transaction":
			date, err := time.ParseInLocation(journalDateLayout, entry.Date, time.UTC)
			if err != nil {
				return fmt.Errorf("decode journal date %q: %w", entry.Date, err)
			}
			s.applyTransaction(entry.Number, entry.Amount, date)
		default:
			return fmt.Errorf("unknown journal entry kind %q", entry.Kind)
		}
		return nil
	})
}

func (s *Store) journal(entry journalEntry) error {
	if s.wal == nil {
		return nil
	}
	if err := s.wal.Write(entry); err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	return nil
}

// applyAccount installs an account record. Caller holds mu (or is the
// single-threaded recovery path).
func (s *Store) applyAccount(number int64, firstName, lastName string) *domain.Account {
	s.nextAccountID++
	acct := &domain.Account{
		ID:            s.nextAccountID,
		AccountNumber: number,
		FirstName:     firstName,
		LastName:      lastName,
	}
	s.accounts[number] = acct
	return acct
}

// applyTransaction installs a transaction record and moves the balance.
// Caller holds mu (or is the single-threaded recovery path).
func (s *Store) applyTransaction(number int64, amount float64, date time.Time) domain.Transaction {
	s.nextTranID++
	tran := domain.Transaction{
		ID:            s.nextTranID,
		AccountNumber: number,
		Amount:        amount,
		Date:          date,
	}
	if acct, ok := s.accounts[number]; ok {
		acct.Balance += amount
	}
	s.trans[number] = append(s.trans[number], tran)
	return tran
}

func (s *Store) appendLock(number int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.appendLocks[number]
	if !ok {
		lock = &sync.Mutex{}
		s.appendLocks[number] = lock
	}
	return lock
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountNumber]; ok {
		return domain.ErrAccountNumberTaken
	}
	if err := s.journal(journalEntry{
		Kind:      "account",
		Number:    account.AccountNumber,
		FirstName: account.FirstName,
		LastName:  account.LastName,
	}); err != nil {
		return err
	}
	acct := s.applyAccount(account.AccountNumber, account.FirstName, account.LastName)
	account.ID = acct.ID
	account.Balance = 0
	return nil
}

func (s *Store) AccountByNumber(ctx context.Context, number int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *Store) AppendTransaction(ctx context.Context, number int64, amount float64, date time.Time) (*domain.Transaction, error) {
	// The per-account lock spans check, journal and apply; the journal is
	// written before state changes so a replayed WAL only holds committed
	// writes in commit order.
	lock := s.appendLock(number)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	acct, ok := s.accounts[number]
	var balance float64
	if ok {
		balance = acct.Balance
	}
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if balance+amount < 0 {
		return nil, domain.ErrInsufficientBalance
	}

	if err := s.journal(journalEntry{
		Kind:   "transaction",
		Number: number,
		Amount: amount,
		Date:   date.Format(journalDateLayout),
	}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	tran := s.applyTransaction(number, amount, date)
	s.mu.Unlock()
	return &tran, nil
}

func (s *Store) SumAmounts(ctx context.Context, number int64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	for _, tran := range s.trans[number] {
		sum += tran.Amount
	}
	return sum, nil
}

func (s *Store) TransactionsByDate(ctx context.Context, number int64) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := append([]domain.Transaction(nil), s.trans[number]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) RecentTransactions(ctx context.Context, number int64, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := append([]domain.Transaction(nil), s.trans[number]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ usecase.BankStore = (*Store)(nil)
