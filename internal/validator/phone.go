package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	ErrInvalidLength = errors.New("phone number must be 10 digits, or 12 with the 255 country code")

	// ErrInvalidPrefix indicates the number is not on a mobile range
	ErrInvalidPrefix = errors.New("phone number must start with 06 or 07")
)

var digitsRegex = regexp.MustCompile(`^\d+$`)

// mobileRegex is the local mobile numbering plan: 06X or 07X then 7 digits.
var mobileRegex = regexp.MustCompile(`^0[67]\d{8}$`)

const countryCode = "255"

// PhoneValidator checks mobile-money account numbers.
type PhoneValidator struct{}

func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate accepts 0712345678, 255712345678 and +255 712 345 678 and returns
// the number in local 10-digit form.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)
	if !digitsRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if strings.HasPrefix(sanitized, countryCode) && len(sanitized) == 12 {
		sanitized = "0" + sanitized[3:]
	}
	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}
	if !mobileRegex.MatchString(sanitized) {
		return "", ErrInvalidPrefix
	}
	return sanitized, nil
}

// Sanitize removes separators and the leading plus sign.
func (v *PhoneValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "", ".", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// International returns the validated number as 255XXXXXXXXX, the form the
// payment gateway expects as accountNumber.
func (v *PhoneValidator) International(phone string) (string, error) {
	local, err := v.Validate(phone)
	if err != nil {
		return "", err
	}
	return countryCode + local[1:], nil
}

func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
