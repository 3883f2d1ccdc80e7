package utils

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "US"

var ssnPattern = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IsValidSSN(ssn string) bool {
	return ssnPattern.MatchString(ssn)
}

func IsValidZipCode(zip string) bool {
	return zipPattern.MatchString(zip)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func GenerateUniqueFilename() string {

	timestamp := time.Now().UnixNano()

	random := rand.Intn(1000)

	uniqueFilename := fmt.Sprintf("%d_%d", timestamp, random)

	return uniqueFilename
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func NewInt(n int) *int {
	return &n
}

func NewDecimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

// DecimalOrZero treats a missing numeric component as zero.
func DecimalOrZero(ptr *decimal.Decimal) decimal.Decimal {
	if ptr == nil {
		return decimal.Zero
	}
	return *ptr
}

func NormalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func ConvertToLocalTime(utcTime time.Time, timezone string) time.Time {
	loc, _ := time.LoadLocation(timezone)
	return utcTime.In(loc)
}

// GetLastDaysRange returns the window [now-days, now].
func GetLastDaysRange(now time.Time, days int) (time.Time, time.Time) {
	return now.AddDate(0, 0, -days), now
}
