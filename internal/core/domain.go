package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// DateLayout is the only wire form a transaction date may take. Range
// filtering compares dates lexicographically, which is only correct while
// every stored date keeps this fixed-width shape.
const DateLayout = "2006-01-02"

type (
	// Kind classifies a transaction as income or expense. The zero value is
	// not a valid kind; build one through ParseKind or the constants.
	Kind string

	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is a single ledger record. ID and CreatedAt are assigned by
	// the store on insert and never change afterwards. Amount is stored as
	// given: the sign is implied by Kind but not enforced, so a negative
	// income is accepted.
	Transaction struct {
		ID        int64
		Amount    float64
		Kind      Kind
		Remarks   string
		Date      Date
		CreatedAt time.Time
	}

	// Changes is a partial update to a transaction. Nil fields are left
	// untouched; the zero value updates nothing.
	Changes struct {
		Amount  *float64
		Kind    *Kind
		Remarks *string
		Date    *Date
	}

	// Filter narrows a query. Zero fields are absent; present fields combine
	// with AND. From and To are inclusive bounds on the transaction date.
	Filter struct {
		From Date
		To   Date
		Kind Kind
	}
)

var (
	ErrInvalidKind = errors.New("invalid kind")
	ErrInvalidDate = errors.New("invalid date")
)

// ParseKind converts an external string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) Validate() error {
	switch k {
	case KindIncome, KindExpense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// ParseDate parses a fixed-width YYYY-MM-DD string. Anything else is
// rejected so that malformed dates never reach storage.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date on the caller's clock.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// IsEmpty reports whether the change set touches no fields.
func (c Changes) IsEmpty() bool {
	return c.Amount == nil && c.Kind == nil && c.Remarks == nil && c.Date == nil
}

// Validate rejects a change set carrying an invalid kind. An empty change set
// is valid; appliers treat it as a no-op.
func (c Changes) Validate() error {
	if c.Kind != nil {
		if err := c.Kind.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the filter's optional kind.
func (f Filter) Validate() error {
	if f.Kind != "" {
		if err := f.Kind.Validate(); err != nil {
			return err
		}
	}
	return nil
}
