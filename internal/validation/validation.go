package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"ypg-admin-api/internal/apperrors"
	"ypg-admin-api/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	localPhone    = regexp.MustCompile(`^0\d{9}$`)
	intlPhone     = regexp.MustCompile(`^\+233\d{9}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{3,50}$`)
)

var maxDonationAmount = decimal.NewFromInt(1_000_000)

// Text field bounds applied when sanitizing a donation.
const (
	MaxDonorNameLen = 100
	MaxEmailLen     = 254
	MaxPhoneLen     = 20
	MaxMessageLen   = 1000
)

// ValidateDonation checks every rule and reports all violations at once.
// The input is expected to be normalized already.
func ValidateDonation(in models.DonationInput) apperrors.ValidationErrors {
	errs := apperrors.ValidationErrors{}

	if utf8.RuneCountInString(strings.TrimSpace(in.DonorName)) < 2 {
		errs.Add("donor_name", "must be at least 2 characters")
	}

	if in.Email != "" && !emailRegex.MatchString(in.Email) {
		errs.Add("email", "must be a valid email address")
	}

	if in.Phone != "" && !ValidPhone(in.Phone) {
		errs.Add("phone", "must be 10 digits starting with 0 or +233 followed by 9 digits")
	}

	validateAmount(in, errs)

	if !models.PaymentMethod(in.PaymentMethod).Valid() {
		errs.Add("payment_method", "must be one of momo, cash, bank, card")
	}

	if !models.Purpose(in.Purpose).Valid() {
		errs.Add("purpose", "must be one of general, events, welfare, ministry, building, education, other")
	}

	if in.Currency != "" && !currencyRegex.MatchString(in.Currency) {
		errs.Add("currency", "must be a 3-letter currency code")
	}

	if in.IsRecurring && !models.ValidFrequency(in.Frequency) {
		errs.Add("frequency", "must be one of weekly, monthly, quarterly, yearly")
	}

	return errs
}

func validateAmount(in models.DonationInput, errs apperrors.ValidationErrors) {
	if strings.TrimSpace(string(in.Amount)) == "" {
		errs.Add("amount", "is required")
		return
	}

	amount, err := in.ParseAmount()
	if err != nil {
		errs.Add("amount", "must be a number with at most 2 decimal places")
		return
	}

	if !amount.IsPositive() {
		errs.Add("amount", "must be greater than 0")
		return
	}

	if amount.GreaterThan(maxDonationAmount) {
		errs.Add("amount", "cannot exceed 1,000,000")
	}
}

// ValidateDonationFilter rejects listing filters naming unknown values.
func ValidateDonationFilter(f models.DonationFilter) apperrors.ValidationErrors {
	errs := apperrors.ValidationErrors{}

	switch models.DonationStatus(f.Status) {
	case "", models.StatusPending, models.StatusVerified, models.StatusFailed, models.StatusCancelled:
	default:
		errs.Add("status", "must be one of pending, verified, failed, cancelled")
	}

	if f.Purpose != "" && !models.Purpose(f.Purpose).Valid() {
		errs.Add("purpose", "unknown purpose")
	}

	if f.PaymentMethod != "" && !models.PaymentMethod(f.PaymentMethod).Valid() {
		errs.Add("payment_method", "unknown payment method")
	}

	return errs
}

// ValidPhone accepts local (0XXXXXXXXX) and international (+233XXXXXXXXX)
// numbers once spaces and hyphens are removed.
func ValidPhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	return localPhone.MatchString(cleaned) || intlPhone.MatchString(cleaned)
}

// SanitizeDonation trims and bounds the free-text fields of a validated input.
func SanitizeDonation(in models.DonationInput) models.DonationInput {
	in.DonorName = Truncate(SanitizeString(in.DonorName), MaxDonorNameLen)
	in.Email = Truncate(SanitizeString(in.Email), MaxEmailLen)
	in.Phone = Truncate(SanitizeString(in.Phone), MaxPhoneLen)
	in.Message = Truncate(SanitizeString(in.Message), MaxMessageLen)
	in.Frequency = SanitizeString(in.Frequency)
	return in
}

// ValidateBlogPost checks a blog post payload. On create, title and content
// are required; on update only the supplied fields are checked.
func ValidateBlogPost(in models.BlogPostInput, creating bool) apperrors.ValidationErrors {
	errs := apperrors.ValidationErrors{}

	title := strings.TrimSpace(in.Title)
	if creating && title == "" {
		errs.Add("title", "is required")
	} else if title != "" && utf8.RuneCountInString(title) > 200 {
		errs.Add("title", "cannot exceed 200 characters")
	}

	if creating && strings.TrimSpace(in.Content) == "" {
		errs.Add("content", "is required")
	}

	if utf8.RuneCountInString(in.Excerpt) > 500 {
		errs.Add("excerpt", "cannot exceed 500 characters")
	}

	return errs
}

// ValidateTeamMember checks a team member payload.
func ValidateTeamMember(in models.TeamMemberInput, creating bool) apperrors.ValidationErrors {
	errs := apperrors.ValidationErrors{}

	name := strings.TrimSpace(in.Name)
	if creating || name != "" {
		if utf8.RuneCountInString(name) < 2 {
			errs.Add("name", "must be at least 2 characters")
		} else if utf8.RuneCountInString(name) > 100 {
			errs.Add("name", "cannot exceed 100 characters")
		}
	}

	if creating && strings.TrimSpace(in.Position) == "" {
		errs.Add("position", "is required")
	}

	return errs
}

// ValidateCredentials checks a username/password pair chosen by a supervisor.
func ValidateCredentials(username, password string) apperrors.ValidationErrors {
	errs := apperrors.ValidationErrors{}

	if !usernameRegex.MatchString(username) {
		errs.Add("username", "must be 3-50 letters, digits, dots, dashes or underscores")
	}

	if utf8.RuneCountInString(password) < 8 {
		errs.Add("password", "must be at least 8 characters")
	}

	return errs
}

// SanitizeString removes control characters (except whitespace) and trims.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
