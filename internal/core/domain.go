package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Monthly   PeriodType = "MONTHLY"
	Quarterly PeriodType = "QUARTERLY"
	Yearly    PeriodType = "YEARLY"
)

const (
	ThresholdReached AlertKind = "THRESHOLD_REACHED"
	BudgetExceeded   AlertKind = "BUDGET_EXCEEDED"
)

const (
	Cash         PaymentMethod = "CASH"
	CreditCard   PaymentMethod = "CREDIT_CARD"
	DebitCard    PaymentMethod = "DEBIT_CARD"
	BankTransfer PaymentMethod = "BANK_TRANSFER"
	UPI          PaymentMethod = "UPI"
	Other        PaymentMethod = "OTHER"
)

const (
	RecurDaily   RecurrencePattern = "DAILY"
	RecurWeekly  RecurrencePattern = "WEEKLY"
	RecurMonthly RecurrencePattern = "MONTHLY"
	RecurYearly  RecurrencePattern = "YEARLY"
)

// Budget status classification values.
const (
	StatusOnTrack  = "ON_TRACK"
	StatusWarning  = "WARNING"
	StatusExceeded = "EXCEEDED"
)

// WarningCutoff is the fixed percentage at which a budget's display status
// flips to WARNING. It is deliberately separate from Budget.AlertThreshold,
// which only governs alert triggering.
const WarningCutoff = 80.0

// DefaultAlertThreshold is applied when a budget is created without an
// explicit threshold.
const DefaultAlertThreshold = 80

type (
	PeriodType        string
	AlertKind         string
	PaymentMethod     string
	RecurrencePattern string

	// Date is a calendar day with no time component. All period and range
	// arithmetic in this package operates on UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is a single dated, categorized spend record. Immutable once
	// aggregated over; only the owning write path mutates it.
	Transaction struct {
		ID            string
		OwnerID       string
		CategoryID    string // empty = uncategorized
		Amount        decimal.Decimal
		Currency      string
		Description   string
		Date          Date
		PaymentMethod PaymentMethod
		Recurring     bool
		Recurrence    RecurrencePattern
		CreatedAt     time.Time
	}

	// Budget is a spending limit over a repeating period, optionally scoped
	// to one category (empty CategoryID = all categories).
	Budget struct {
		ID             string
		OwnerID        string
		CategoryID     string
		Name           string
		Limit          decimal.Decimal
		Period         PeriodType
		StartDate      Date
		EndDate        Date // zero when open-ended
		AlertThreshold int  // 1..100
		Active         bool
		CreatedAt      time.Time
	}

	// Alert is a recorded threshold crossing. Write-once except for the
	// Notified flag, which the notification worker flips after delivery.
	Alert struct {
		ID          string
		BudgetID    string
		OwnerID     string
		Kind        AlertKind
		Message     string
		Notified    bool
		TriggeredAt time.Time
	}

	// User carries the account attributes the engine needs: digest
	// candidacy and a delivery address for the notifier.
	User struct {
		ID        string
		Email     string
		FirstName string
		Active    bool
	}

	// BudgetStatus is the evaluated state of one budget for the current
	// period, as returned to callers.
	BudgetStatus struct {
		BudgetID       string
		BudgetName     string
		CategoryID     string
		CategoryName   string
		Limit          decimal.Decimal
		Spent          decimal.Decimal
		Remaining      decimal.Decimal
		PercentageUsed float64
		Status         string
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidLimit     = errors.New("limit must be positive")
	ErrInvalidThreshold = errors.New("alert threshold must be between 1 and 100")
	ErrInvalidPeriod    = errors.New("invalid period type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyOwner       = errors.New("empty owner id")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar day in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// YearMonth returns the zero-padded "YYYY-MM" key used for monthly grouping.
// Lexicographic order on these keys is chronological order.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ValidMethod reports whether m is one of the known payment methods.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case Cash, CreditCard, DebitCard, BankTransfer, UPI, Other:
		return true
	}
	return false
}

// ValidPeriod reports whether p is one of the known period types.
func ValidPeriod(p PeriodType) bool {
	switch p {
	case Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.PaymentMethod != "" && !ValidMethod(t.PaymentMethod) {
		return errors.New("invalid payment method")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidLimit
	}
	if !ValidPeriod(b.Period) {
		return ErrInvalidPeriod
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate.Time) {
		return ErrInvalidDateRange
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}

// ClassifyStatus maps a percentage of budget used to a display status.
// The WARNING boundary is the fixed WarningCutoff, not the budget's own
// alert threshold; first match wins.
func ClassifyStatus(percentageUsed float64) string {
	switch {
	case percentageUsed >= 100:
		return StatusExceeded
	case percentageUsed >= WarningCutoff:
		return StatusWarning
	default:
		return StatusOnTrack
	}
}
