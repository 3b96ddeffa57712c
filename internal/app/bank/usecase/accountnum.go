package usecase

import "math/rand"

// Account numbers are 8-digit integers in [10,000,000, 99,999,999].
const (
	accountNumberBase = 10_000_000
	accountNumberSpan = 90_000_000
)

// allocateAccountNumber returns a fresh candidate account number. Uniqueness
// is the store's responsibility; CreateAccount retries on collision.
func allocateAccountNumber() int64 {
	return accountNumberBase + rand.Int63n(accountNumberSpan)
}
