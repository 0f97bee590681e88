package domain

import (
	"regexp"
	"strings"

	dErrors "dsakyc/pkg/domain-errors"
)

// Identity document primitives. Parse at trust boundaries; the zero value is
// never a valid document number.

type (
	AadhaarNumber string
	PAN           string
	IFSC          string
	AccountNumber string
)

var (
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// ParseAadhaar accepts 12 digits, optionally grouped by spaces or dashes.
// The first digit cannot be 0 or 1 and the last digit is a Verhoeff checksum.
func ParseAadhaar(s string) (AadhaarNumber, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
	if len(digits) != 12 {
		return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "aadhaar number must have 12 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "aadhaar number must be numeric")
		}
	}
	if digits[0] == '0' || digits[0] == '1' {
		return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "aadhaar number cannot start with 0 or 1")
	}
	if !verhoeffValid(digits) {
		return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "aadhaar number checksum mismatch")
	}
	return AadhaarNumber(digits), nil
}

func (a AadhaarNumber) String() string { return string(a) }

// Masked renders the only form an Aadhaar number may be stored in.
func (a AadhaarNumber) Masked() string {
	s := string(a)
	if len(s) < 4 {
		return "XXXX-XXXX-XXXX"
	}
	return "XXXX-XXXX-" + s[len(s)-4:]
}

// MaskWithShareCode is used when the provider only returns an offline-KYC share code.
func MaskWithShareCode(shareCode string) string {
	return "XXXX XXXX " + strings.TrimSpace(shareCode)
}

// ParsePAN normalizes case and validates the AAAAA9999A layout.
func ParsePAN(s string) (PAN, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !panPattern.MatchString(v) {
		return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "invalid PAN format")
	}
	return PAN(v), nil
}

func (p PAN) String() string { return string(p) }

// HolderType is the fourth PAN character: P for a person, C company, F firm, etc.
func (p PAN) HolderType() byte {
	if len(p) < 4 {
		return 0
	}
	return p[3]
}

// Redacted returns the PAN safe for logs.
func (p PAN) Redacted() string {
	s := string(p)
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// ParseIFSC normalizes case and validates the branch code layout.
func ParseIFSC(s string) (IFSC, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !ifscPattern.MatchString(v) {
		return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "invalid IFSC format")
	}
	return IFSC(v), nil
}

func (i IFSC) String() string { return string(i) }

// ParseAccountNumber accepts 9 to 18 digits.
func ParseAccountNumber(s string) (AccountNumber, error) {
	v := strings.TrimSpace(s)
	if !accountPattern.MatchString(v) {
		return "", dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "account number must be 9 to 18 digits")
	}
	return AccountNumber(v), nil
}

func (a AccountNumber) String() string { return string(a) }

// Redacted returns the account number safe for logs.
func (a AccountNumber) Redacted() string {
	s := string(a)
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

var (
	verhoeffD = [10][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
		{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
		{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
		{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
		{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
		{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
		{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
		{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}
	verhoeffP = [8][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
		{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
		{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
		{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
		{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
		{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
		{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
	}
)

func verhoeffValid(digits string) bool {
	c := 0
	for i := 0; i < len(digits); i++ {
		n := int(digits[len(digits)-1-i] - '0')
		c = verhoeffD[c][verhoeffP[i%8][n]]
	}
	return c == 0
}
