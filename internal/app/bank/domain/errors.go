package domain

import "errors"

var (
	// ErrAccountNotFound is returned when an account number has no record.
	ErrAccountNotFound = errors.New("account number not found")

	// ErrInsufficientBalance is returned when an append would drive the
	// balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNumberTaken is returned when a freshly allocated account
	// number collides with an existing one.
	ErrAccountNumberTaken = errors.New("account number already taken")

	// ErrBlankName is returned when a holder name is empty or whitespace.
	ErrBlankName = errors.New("first name and last name must not be blank")
)
