package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a donor paid.
type PaymentMethod string

const (
	MethodMomo PaymentMethod = "momo"
	MethodCash PaymentMethod = "cash"
	MethodBank PaymentMethod = "bank"
	MethodCard PaymentMethod = "card"
)

var methodLabels = map[PaymentMethod]string{
	MethodMomo: "Mobile Money",
	MethodCash: "Cash",
	MethodBank: "Bank Transfer",
	MethodCard: "Card",
}

// methodAliases maps alternative spellings accepted from clients.
var methodAliases = map[string]PaymentMethod{
	"mobile-money":  MethodMomo,
	"mobile_money":  MethodMomo,
	"mobilemoney":   MethodMomo,
	"bank-transfer": MethodBank,
	"bank_transfer": MethodBank,
}

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	_, ok := methodLabels[m]
	return ok
}

// Label returns the display name used in notifications.
func (m PaymentMethod) Label() string {
	if label, ok := methodLabels[m]; ok {
		return label
	}
	return string(m)
}

// AutoVerifies reports whether payments of this method are confirmed
// out-of-band before they are entered.
func (m PaymentMethod) AutoVerifies() bool {
	return m == MethodCash || m == MethodBank
}

// Purpose is the fund a donation is earmarked for.
type Purpose string

const (
	PurposeGeneral   Purpose = "general"
	PurposeEvents    Purpose = "events"
	PurposeWelfare   Purpose = "welfare"
	PurposeMinistry  Purpose = "ministry"
	PurposeBuilding  Purpose = "building"
	PurposeEducation Purpose = "education"
	PurposeOther     Purpose = "other"
)

var purposeLabels = map[Purpose]string{
	PurposeGeneral:   "General Fund",
	PurposeEvents:    "Events & Programs",
	PurposeWelfare:   "Welfare",
	PurposeMinistry:  "Ministry Support",
	PurposeBuilding:  "Building Fund",
	PurposeEducation: "Education",
	PurposeOther:     "Other",
}

func (p Purpose) Valid() bool {
	_, ok := purposeLabels[p]
	return ok
}

func (p Purpose) Label() string {
	if label, ok := purposeLabels[p]; ok {
		return label
	}
	return string(p)
}

// DonationStatus is the workflow state of a donation.
type DonationStatus string

const (
	StatusPending   DonationStatus = "pending"
	StatusVerified  DonationStatus = "verified"
	StatusFailed    DonationStatus = "failed"
	StatusCancelled DonationStatus = "cancelled"
)

// Terminal reports whether no transition leaves s.
func (s DonationStatus) Terminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
// Only pending donations move, and only into a terminal state.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	return s == StatusPending && next.Terminal()
}

var frequencies = map[string]bool{
	"weekly":    true,
	"monthly":   true,
	"quarterly": true,
	"yearly":    true,
}

// ValidFrequency reports whether f is a supported recurring frequency.
func ValidFrequency(f string) bool {
	return frequencies[f]
}

// AutoVerifier is stamped as verifier when a donation is confirmed at submission.
const AutoVerifier = "Auto-Verification"

// CardGatewayVerifier is stamped as verifier when the card gateway confirms a charge.
const CardGatewayVerifier = "Card Gateway"

// Donation is a single gift recorded by the organization.
type Donation struct {
	ID            int64           `json:"id"`
	DonorName     string          `json:"donor_name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        DonationStatus  `json:"status"`
	Purpose       Purpose         `json:"purpose"`
	Message       string          `json:"message,omitempty"`
	IsRecurring   bool            `json:"is_recurring"`
	Frequency     string          `json:"frequency,omitempty"`
	ReceiptCode   string          `json:"receipt_code"`
	TransactionID string          `json:"transaction_id,omitempty"`
	VerifiedBy    *string         `json:"verified_by"`
	VerifiedAt    *time.Time      `json:"verified_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewDonation builds a pending donation from a normalized, validated input.
// It performs no I/O; the receipt code is generated by the caller.
func NewDonation(in DonationInput, receiptCode, defaultCurrency string, now time.Time) (Donation, error) {
	amount, err := in.ParseAmount()
	if err != nil {
		return Donation{}, err
	}

	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	d := Donation{
		DonorName:     in.DonorName,
		Email:         in.Email,
		Phone:         in.Phone,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: PaymentMethod(in.PaymentMethod),
		Status:        StatusPending,
		Purpose:       Purpose(in.Purpose),
		Message:       in.Message,
		IsRecurring:   in.IsRecurring,
		ReceiptCode:   receiptCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.IsRecurring {
		d.Frequency = in.Frequency
	}

	return d, nil
}

// MarkVerified moves the donation to verified and stamps the verifier.
func (d *Donation) MarkVerified(by string, at time.Time) {
	d.Status = StatusVerified
	d.VerifiedBy = &by
	d.VerifiedAt = &at
	d.UpdatedAt = at
}

// FlexString accepts either a JSON string or a bare JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// DonationInput is the typed body of a donation submission.
type DonationInput struct {
	DonorName     string     `json:"donor_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Amount        FlexString `json:"amount"`
	Currency      string     `json:"currency"`
	PaymentMethod string     `json:"payment_method"`
	Purpose       string     `json:"purpose"`
	Message       string     `json:"message"`
	IsRecurring   bool       `json:"is_recurring"`
	Frequency     string     `json:"frequency"`
}

// DonationInputFromValues reads a form-encoded submission.
func DonationInputFromValues(v url.Values) DonationInput {
	recurring := strings.ToLower(strings.TrimSpace(v.Get("is_recurring")))
	return DonationInput{
		DonorName:     v.Get("donor_name"),
		Email:         v.Get("email"),
		Phone:         v.Get("phone"),
		Amount:        FlexString(v.Get("amount")),
		Currency:      v.Get("currency"),
		PaymentMethod: v.Get("payment_method"),
		Purpose:       v.Get("purpose"),
		Message:       v.Get("message"),
		IsRecurring:   recurring == "true" || recurring == "1" || recurring == "on",
		Frequency:     v.Get("frequency"),
	}
}

// Normalize trims every field, lower-cases enumerations and resolves
// payment method aliases. It is the only normalization step before validation.
func (in DonationInput) Normalize() DonationInput {
	out := DonationInput{
		DonorName:     strings.TrimSpace(in.DonorName),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:         strings.TrimSpace(in.Phone),
		Amount:        FlexString(strings.TrimSpace(string(in.Amount))),
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		PaymentMethod: strings.ToLower(strings.TrimSpace(in.PaymentMethod)),
		Purpose:       strings.ToLower(strings.TrimSpace(in.Purpose)),
		Message:       strings.TrimSpace(in.Message),
		IsRecurring:   in.IsRecurring,
		Frequency:     strings.ToLower(strings.TrimSpace(in.Frequency)),
	}
	if alias, ok := methodAliases[out.PaymentMethod]; ok {
		out.PaymentMethod = string(alias)
	}
	return out
}

// amountPattern matches the stored column: at most 8 integer digits and
// 2 decimal places, no exponent.
var amountPattern = regexp.MustCompile(`^-?\d{1,8}(\.\d{1,2})?$`)

// ErrAmountFormat is returned by ParseAmount for input that is not a plain
// decimal with at most 2 decimal places.
var ErrAmountFormat = errors.New("amount must be a plain number with at most 2 decimal places")

// ParseAmount parses the submitted amount as a decimal.
func (in DonationInput) ParseAmount() (decimal.Decimal, error) {
	raw := strings.TrimSpace(string(in.Amount))
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	if !amountPattern.MatchString(raw) {
		return decimal.Zero, ErrAmountFormat
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount must be numeric: %w", err)
	}
	return amount, nil
}

// DonationFilter narrows a donation listing. Empty fields match everything.
type DonationFilter struct {
	Status        string
	Purpose       string
	PaymentMethod string
}

// DonationAnalytics aggregates a filtered set of donations.
type DonationAnalytics struct {
	TotalAmount    decimal.Decimal            `json:"total_amount"`
	TotalCount     int                        `json:"total_count"`
	VerifiedAmount decimal.Decimal            `json:"verified_amount"`
	VerifiedCount  int                        `json:"verified_count"`
	PendingCount   int                        `json:"pending_count"`
	AverageAmount  decimal.Decimal            `json:"average_amount"`
	ByPurpose      map[string]decimal.Decimal `json:"by_purpose"`
	ByMethod       map[string]decimal.Decimal `json:"by_payment_method"`
}

// SummarizeDonations computes analytics over donations.
func SummarizeDonations(donations []Donation) DonationAnalytics {
	a := DonationAnalytics{
		TotalAmount:    decimal.Zero,
		VerifiedAmount: decimal.Zero,
		AverageAmount:  decimal.Zero,
		ByPurpose:      make(map[string]decimal.Decimal),
		ByMethod:       make(map[string]decimal.Decimal),
	}

	for _, d := range donations {
		a.TotalCount++
		a.TotalAmount = a.TotalAmount.Add(d.Amount)
		a.ByPurpose[string(d.Purpose)] = a.ByPurpose[string(d.Purpose)].Add(d.Amount)
		a.ByMethod[string(d.PaymentMethod)] = a.ByMethod[string(d.PaymentMethod)].Add(d.Amount)

		switch d.Status {
		case StatusVerified:
			a.VerifiedCount++
			a.VerifiedAmount = a.VerifiedAmount.Add(d.Amount)
		case StatusPending:
			a.PendingCount++
		}
	}

	if a.TotalCount > 0 {
		a.AverageAmount = a.TotalAmount.Div(decimal.NewFromInt(int64(a.TotalCount))).Round(2)
	}

	return a
}
