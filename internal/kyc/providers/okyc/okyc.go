// Package okyc is the typed client for Aadhaar offline e-KYC over OTP.
package okyc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dsakyc/internal/kyc/providers"
	"dsakyc/internal/kyc/providers/adapters"
)

const (
	generatePath = "/kyc/aadhaar/okyc/otp"
	verifyPath   = "/kyc/aadhaar/okyc/otp/verify"

	consentReason = "DSA partner onboarding KYC"
)

// Executor issues authenticated provider calls. Implemented by adapters.Client.
type Executor interface {
	ID() string
	Execute(ctx context.Context, method, path string, body any) (*adapters.Response, error)
}

// Client talks to the OKYC endpoints.
type Client struct {
	exec Executor
}

func New(exec Executor) *Client {
	return &Client{exec: exec}
}

// AadhaarResult is the identity the provider returns once the OTP is accepted.
type AadhaarResult struct {
	Name        string
	DateOfBirth string // as returned, usually DD-MM-YYYY
	Gender      string
	ShareCode   string
	Message     string
	RawPayload  json.RawMessage
}

type generateRequest struct {
	Entity        string `json:"@entity"`
	AadhaarNumber string `json:"aadhaar_number"`
	Consent       string `json:"consent"`
	Reason        string `json:"reason"`
}

type generateResponse struct {
	Data struct {
		ReferenceID providers.FlexString `json:"reference_id"`
		Message     string               `json:"message"`
	} `json:"data"`
}

// GenerateOTP asks the provider to text an OTP to the Aadhaar-linked mobile.
func (c *Client) GenerateOTP(ctx context.Context, aadhaar string) (string, error) {
	resp, err := c.exec.Execute(ctx, http.MethodPost, generatePath, generateRequest{
		Entity:        "in.co.sandbox.kyc.aadhaar.okyc.otp.request",
		AadhaarNumber: aadhaar,
		Consent:       "y",
		Reason:        consentReason,
	})
	if err != nil {
		return "", err
	}

	var out generateResponse
	if err := resp.Decode(c.exec.ID(), &out); err != nil {
		return "", err
	}
	if out.Data.ReferenceID == "" {
		// A 200 without a reference carries the rejection in the message.
		return "", resp.Rejected(c.exec.ID(), out.Data.Message)
	}
	return out.Data.ReferenceID.String(), nil
}

type verifyRequest struct {
	Entity      string `json:"@entity"`
	ReferenceID string `json:"reference_id"`
	OTP         string `json:"otp"`
}

type verifyResponse struct {
	Data json.RawMessage `json:"data"`
}

type verifyData struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	ShareCode   string `json:"share_code"`
}

// VerifyOTP submits the OTP for a previously generated reference.
func (c *Client) VerifyOTP(ctx context.Context, referenceID, otp string) (*AadhaarResult, error) {
	resp, err := c.exec.Execute(ctx, http.MethodPost, verifyPath, verifyRequest{
		Entity:      "in.co.sandbox.kyc.aadhaar.okyc.request",
		ReferenceID: referenceID,
		OTP:         otp,
	})
	if err != nil {
		return nil, err
	}

	var envelope verifyResponse
	if err := resp.Decode(c.exec.ID(), &envelope); err != nil {
		return nil, err
	}
	var data verifyData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, providers.NewProviderError(providers.ErrorContractMismatch, c.exec.ID(), "failed to parse verify data", err)
		}
	}
	if !strings.EqualFold(data.Status, "valid") {
		return nil, resp.Rejected(c.exec.ID(), data.Message)
	}

	return &AadhaarResult{
		Name:        strings.TrimSpace(data.Name),
		DateOfBirth: strings.TrimSpace(data.DateOfBirth),
		Gender:      data.Gender,
		ShareCode:   data.ShareCode,
		Message:     data.Message,
		RawPayload:  stripPhoto(envelope.Data),
	}, nil
}

// stripPhoto drops the base64 photograph before the payload is persisted.
func stripPhoto(raw json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	delete(fields, "photo")
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}
