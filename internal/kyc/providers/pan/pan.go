// Package pan is the typed client for PAN verification.
package pan

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dsakyc/internal/kyc/providers/adapters"
)

const verifyPath = "/kyc/pan/verify"

// Executor issues authenticated provider calls. Implemented by adapters.Client.
type Executor interface {
	ID() string
	Execute(ctx context.Context, method, path string, body any) (*adapters.Response, error)
}

type Client struct {
	exec Executor
}

func New(exec Executor) *Client {
	return &Client{exec: exec}
}

// Request is a PAN verification request. DateOfBirth must be DD/MM/YYYY.
type Request struct {
	PAN          string
	NameAsPerPAN string
	DateOfBirth  string
}

// Result mirrors the provider's verdict. NameMatch and DobMatch are nil when
// the provider did not evaluate them.
type Result struct {
	Status               string
	Remarks              string
	Category             string
	NameMatch            *bool
	DobMatch             *bool
	AadhaarSeedingStatus string
	RawPayload           json.RawMessage
}

// Valid reports whether the provider recognised the PAN.
func (r *Result) Valid() bool {
	return strings.EqualFold(r.Status, "valid")
}

type wireRequest struct {
	Entity       string `json:"@entity"`
	PAN          string `json:"pan"`
	NameAsPerPAN string `json:"name_as_per_pan"`
	DateOfBirth  string `json:"date_of_birth"`
	Consent      string `json:"consent"`
	Reason       string `json:"reason"`
}

type wireResponse struct {
	Data json.RawMessage `json:"data"`
}

type wireData struct {
	Status               string `json:"status"`
	Remarks              string `json:"remarks"`
	NameAsPerPANMatch    *bool  `json:"name_as_per_pan_match"`
	DateOfBirthMatch     *bool  `json:"date_of_birth_match"`
	Category             string `json:"category"`
	AadhaarSeedingStatus string `json:"aadhaar_seeding_status"`
}

// Verify checks the PAN against the declared name and date of birth.
func (c *Client) Verify(ctx context.Context, req Request) (*Result, error) {
	resp, err := c.exec.Execute(ctx, http.MethodPost, verifyPath, wireRequest{
		Entity:       "in.co.sandbox.kyc.pan_verification.request",
		PAN:          req.PAN,
		NameAsPerPAN: req.NameAsPerPAN,
		DateOfBirth:  req.DateOfBirth,
		Consent:      "Y",
		Reason:       "DSA partner onboarding KYC",
	})
	if err != nil {
		return nil, err
	}

	var envelope wireResponse
	if err := resp.Decode(c.exec.ID(), &envelope); err != nil {
		return nil, err
	}
	var data wireData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.Status == "" {
		return nil, resp.Rejected(c.exec.ID(), "")
	}

	return &Result{
		Status:               strings.ToLower(data.Status),
		Remarks:              data.Remarks,
		Category:             strings.ToLower(strings.TrimSpace(data.Category)),
		NameMatch:            data.NameAsPerPANMatch,
		DobMatch:             data.DateOfBirthMatch,
		AadhaarSeedingStatus: strings.ToLower(strings.TrimSpace(data.AadhaarSeedingStatus)),
		RawPayload:           envelope.Data,
	}, nil
}
