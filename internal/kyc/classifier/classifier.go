// Package classifier maps heterogeneous provider messages and HTTP statuses to
// a small set of deterministic actions.
//
// Rules are data. Adding a new provider message means adding a row to a table,
// never a branch in the callers.
package classifier

import (
	"net/http"
	"strings"
)

// Action is what the caller should do with a provider outcome.
type Action string

const (
	Block      Action = "block"       // terminal, surface to the user
	RetryLater Action = "retry_later" // transient, the same request may succeed later
	Flag       Action = "flag"        // proceed, but queue for manual review
	Pass       Action = "pass"
)

// Stable reason codes produced by the built-in tables.
const (
	ReasonVerified               = "VERIFIED"
	ReasonInvalidInput           = "INVALID_INPUT"
	ReasonAccountBlocked         = "ACCOUNT_BLOCKED"
	ReasonHolderDeceased         = "HOLDER_DECEASED"
	ReasonNREAccount             = "NRE_ACCOUNT"
	ReasonSourceBankDeclined     = "SOURCE_BANK_DECLINED"
	ReasonBeneficiaryBankOffline = "BENEFICIARY_BANK_OFFLINE"
	ReasonNPCIUnavailable        = "NPCI_UNAVAILABLE"
	ReasonIMPSModeFail           = "IMPS_MODE_FAIL"
	ReasonBeneficiaryBankFailed  = "BENEFICIARY_BANK_FAILED"
	ReasonTransactionFailed      = "TRANSACTION_FAILED"
	ReasonServiceUnavailable     = "SERVICE_UNAVAILABLE"
	ReasonNotFound               = "NOT_FOUND"
	ReasonRateLimited            = "RATE_LIMITED"
	ReasonAccountNotFound        = "ACCOUNT_NOT_FOUND"
	ReasonOTPInvalid             = "OTP_INVALID"
	ReasonOTPExpired             = "OTP_EXPIRED"
	ReasonNoMobileLinked         = "NO_MOBILE_LINKED"
	ReasonOTPLimit               = "OTP_LIMIT"
)

// Decision is the outcome of classification.
type Decision struct {
	Action Action
	Reason string
	Hint   string // optional follow-up suggestion, e.g. "penniless"
}

// Rule matches a provider message by case-insensitive substring.
type Rule struct {
	Pattern string
	Action  Action
	Reason  string
	Hint    string
}

// Input is everything the table looks at.
type Input struct {
	Message    string
	StatusCode int
	Exists     bool // provider explicitly confirmed the record exists
}

// Table is an ordered rule list. The first matching rule wins.
type Table struct {
	rules []Rule
	// fallback applies when nothing matched and the record does not exist.
	fallback Decision
}

// NewTable builds a table from rules. Patterns are lower-cased once here.
func NewTable(fallback Decision, rules ...Rule) *Table {
	t := &Table{fallback: fallback, rules: make([]Rule, len(rules))}
	for i, r := range rules {
		r.Pattern = strings.ToLower(r.Pattern)
		t.rules[i] = r
	}
	return t
}

// With returns a copy of the table with extra rules appended.
func (t *Table) With(rules ...Rule) *Table {
	next := NewTable(t.fallback, t.rules...)
	for _, r := range rules {
		r.Pattern = strings.ToLower(r.Pattern)
		next.rules = append(next.rules, r)
	}
	return next
}

// Decide classifies one provider outcome. It is pure: the same input always
// yields the same decision.
func (t *Table) Decide(in Input) Decision {
	msg := strings.ToLower(strings.TrimSpace(in.Message))
	if msg != "" {
		for _, r := range t.rules {
			if strings.Contains(msg, r.Pattern) {
				return Decision{Action: r.Action, Reason: r.Reason, Hint: r.Hint}
			}
		}
	}

	if d, ok := statusPolicy(in.StatusCode); ok {
		return d
	}

	if in.Exists {
		return Decision{Action: Pass, Reason: ReasonVerified}
	}
	return t.fallback
}

func statusPolicy(status int) (Decision, bool) {
	switch {
	case status == http.StatusUnprocessableEntity:
		return Decision{Action: Block, Reason: ReasonInvalidInput}, true
	case status == http.StatusInternalServerError,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return Decision{Action: RetryLater, Reason: ReasonServiceUnavailable}, true
	case status == http.StatusNotFound:
		return Decision{Action: Block, Reason: ReasonNotFound}, true
	case status == http.StatusTooManyRequests:
		return Decision{Action: RetryLater, Reason: ReasonRateLimited}, true
	case status >= 400 && status < 500:
		return Decision{Action: Block, Reason: ReasonInvalidInput}, true
	case status > 504:
		return Decision{Action: RetryLater, Reason: ReasonServiceUnavailable}, true
	}
	return Decision{}, false
}

// Bank is the decision table for penny-drop and penniless account checks.
var Bank = NewTable(
	Decision{Action: Block, Reason: ReasonAccountNotFound},
	Rule{Pattern: "Invalid account number or ifsc provided", Action: Block, Reason: ReasonInvalidInput},
	Rule{Pattern: "IFSC is invalid", Action: Block, Reason: ReasonInvalidInput},
	Rule{Pattern: "Account is blocked", Action: Block, Reason: ReasonAccountBlocked},
	Rule{Pattern: "Holder is Deceased", Action: Block, Reason: ReasonHolderDeceased},
	Rule{Pattern: "Given account is an NRE account", Action: Flag, Reason: ReasonNREAccount},
	Rule{Pattern: "Source bank declined", Action: RetryLater, Reason: ReasonSourceBankDeclined},
	Rule{Pattern: "Beneficiary bank offline", Action: RetryLater, Reason: ReasonBeneficiaryBankOffline},
	Rule{Pattern: "NPCI Unavailable", Action: RetryLater, Reason: ReasonNPCIUnavailable},
	Rule{Pattern: "IMPS Mode fail", Action: RetryLater, Reason: ReasonIMPSModeFail, Hint: "penniless"},
	Rule{Pattern: "Failed at beneficiary bank", Action: RetryLater, Reason: ReasonBeneficiaryBankFailed},
	Rule{Pattern: "Transaction failed", Action: RetryLater, Reason: ReasonTransactionFailed},
)

// Identity is the decision table for Aadhaar OKYC responses.
var Identity = NewTable(
	Decision{Action: Block, Reason: ReasonInvalidInput},
	Rule{Pattern: "Invalid OTP", Action: Block, Reason: ReasonOTPInvalid},
	Rule{Pattern: "OTP Expired", Action: Block, Reason: ReasonOTPExpired},
	Rule{Pattern: "Invalid Aadhaar", Action: Block, Reason: ReasonInvalidInput},
	Rule{Pattern: "mobile number registered", Action: Block, Reason: ReasonNoMobileLinked},
	Rule{Pattern: "Exceeded Maximum OTP", Action: RetryLater, Reason: ReasonOTPLimit},
)

// Classify runs the bank table on a message and status alone. Without an
// explicit existence signal nothing passes: an unmatched outcome falls back to
// ACCOUNT_NOT_FOUND. Callers holding that signal use Bank.Decide.
func Classify(message string, status int) Decision {
	return Bank.Decide(Input{Message: message, StatusCode: status})
}
