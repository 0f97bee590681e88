// Package providers defines the shared error taxonomy for the external KYC and
// bank verification providers.
package providers

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Provider identifiers used in errors, logs and metrics.
const (
	KYCProviderID  = "kyc-provider"
	BankProviderID = "bank-provider"
)

// FlexString accepts a JSON string or number. Providers are inconsistent about
// reference identifiers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var out string
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
		*f = FlexString(out)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }
