package domain

// Account is a customer account. AccountNumber is the externally visible
// identity, assigned once at creation; ID is the storage key and never
// leaves the store layer. Balance is the cached running total, kept in sync
// with the transaction records by the store's append path.
type Account struct {
	ID            int64
	AccountNumber int64
	FirstName     string
	LastName      string
	Balance       float64
}
