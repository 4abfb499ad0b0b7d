package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Symbols accepted by the strength rule. Any other character fails it.
const passwordSymbols = "@#$%^&+=!"

const (
	reasonTooShort     = "Password should be at least 8 characters"
	reasonHasEmail     = "Password should not contain e-mail"
	reasonHasFirstName = "Password should not contain first_name"
	reasonHasLastName  = "Password should not contain last_name"
	reasonTooWeak      = "Password must contain a lowercase letter, uppercase letter, a number and a special symbol"
)

// PasswordContext carries the account attributes a password must not contain.
type PasswordContext struct {
	Email     string
	FirstName string
	LastName  string
}

// PolicyViolation is returned when a password breaks a rule. Reason is the
// user-facing message. It matches common.ErrorInvalidPassword with errors.Is.
type PolicyViolation struct {
	Reason string
}

func (v *PolicyViolation) Error() string { return v.Reason }

func (v *PolicyViolation) Is(target error) bool { return target == common.ErrorInvalidPassword }

// Policy is a password rule set. The zero value enforces the standard rules.
//
// The last-name rule only runs when a first name is present, and an empty
// last name then rejects every password. Set GuardLastNameByOwnPresence to
// run it only when the last name itself is present.
type Policy struct {
	GuardLastNameByOwnPresence bool
}

// DefaultPolicy is the rule set used by ValidatePassword.
var DefaultPolicy = Policy{}

// ValidatePassword checks password against DefaultPolicy.
func ValidatePassword(password string, pc PasswordContext) error {
	return DefaultPolicy.Validate(password, pc)
}

// Validate applies the rules in order and reports the first one broken.
func (p Policy) Validate(password string, pc PasswordContext) error {
	if utf8.RuneCountInString(password) < 8 {
		return &PolicyViolation{Reason: reasonTooShort}
	}

	if pc.Email != "" && strings.Contains(password, pc.Email) {
		return &PolicyViolation{Reason: reasonHasEmail}
	}

	if pc.FirstName != "" && strings.Contains(password, pc.FirstName) {
		return &PolicyViolation{Reason: reasonHasFirstName}
	}

	guard := pc.FirstName != ""
	if p.GuardLastNameByOwnPresence {
		guard = pc.LastName != ""
	}
	if guard && strings.Contains(password, pc.LastName) {
		return &PolicyViolation{Reason: reasonHasLastName}
	}

	if !strongEnough(password) {
		return &PolicyViolation{Reason: reasonTooWeak}
	}

	return nil
}

// strongEnough requires one ASCII lowercase letter, uppercase letter, digit
// and symbol, and nothing outside those classes.
func strongEnough(password string) bool {
	var lower, upper, digit, symbol bool

	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}

	return lower && upper && digit && symbol
}
