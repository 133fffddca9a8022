package model

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

// commonPasswords is a short deny-list of the most frequently leaked passwords.
var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "passw0rd": true,
	"12345678": true, "123456789": true, "1234567890": true, "87654321": true,
	"qwertyuiop": true, "qwerty123": true, "iloveyou": true, "sunshine": true,
	"football": true, "baseball": true, "welcome1": true, "letmein1": true,
	"abc12345": true, "11111111": true, "00000000": true, "admin123": true,
	"trustno1": true, "princess": true, "starwars": true, "superman": true,
}

// NormalizeEmail trims surrounding blanks and lowercases the domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ValidEmail reports whether email is a single bare address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}

// BaseUsername derives the username candidate from the local part of email.
func BaseUsername(email string) string {
	local := email
	if at := strings.LastIndex(email, "@"); at >= 0 {
		local = email[:at]
	}
	return strings.ToLower(local)
}

// UsernameCandidate returns the n-th candidate for base: base, base1, base2...
func UsernameCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, n)
}

// PasswordProblems applies the password strength policy and returns every
// rule the password breaks. email is used for the similarity check.
func PasswordProblems(password, email string) []string {
	var problems []string

	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}

	lower := strings.ToLower(password)
	if commonPasswords[lower] {
		problems = append(problems, "This password is too common.")
	}

	numeric := password != ""
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		problems = append(problems, "This password is entirely numeric.")
	}

	if email != "" {
		local := BaseUsername(email)
		if lower == strings.ToLower(email) || (len(local) >= 3 && strings.Contains(lower, local)) {
			problems = append(problems, "The password is too similar to the email address.")
		}
	}

	return problems
}
