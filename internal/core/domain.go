package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Purchase   TransactionType = "purchase"
	Sale       TransactionType = "sale"
	Investment TransactionType = "investment"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded cash-flow event. ID and Type are
	// immutable once the transaction is created; Date carries both the
	// calendar date and the time of day.
	Transaction struct {
		ID     string
		Type   TransactionType
		Amount Money
		Date   time.Time
		Remark string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyID       = errors.New("empty transaction id")
	ErrRemarkTooLong = errors.New("remark too long (max 200 characters)")
)

// Valid reports whether the type is one of the three known kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case Purchase, Sale, Investment:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Remark) > 200 {
		return ErrRemarkTooLong
	}
	return nil
}
