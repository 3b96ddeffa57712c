package domain

import "time"

// Transaction is an immutable signed movement against one account.
// Positive amounts are credits, negative amounts are debits; a zero amount
// is never recorded. Date is a calendar date (midnight UTC), used for daily
// bucketing of the balance history.
type Transaction struct {
	ID            int64
	AccountNumber int64
	Amount        float64
	Date          time.Time
}

// BalancePoint is one entry of a balance history: the running balance after
// all transactions up to and including Date.
type BalancePoint struct {
	Date    time.Time
	Balance float64
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
