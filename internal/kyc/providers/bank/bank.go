// Package bank is the typed client for bank account ownership checks and IFSC
// lookups.
package bank

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"dsakyc/internal/kyc/providers/adapters"
)

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

// Result is the provider's answer for an account check. AccountExists is only
// true when the provider explicitly says so.
type Result struct {
	AccountExists bool
	NameAtBank    string
	Message       string
	Reference     string
	StatusCode    int
}

// IFSCDetails describes a bank branch.
type IFSCDetails struct {
	IFSC   string `json:"IFSC"`
	Bank   string `json:"BANK"`
	Branch string `json:"BRANCH"`
	City   string `json:"CITY"`
	State  string `json:"STATE"`
	IMPS   bool   `json:"IMPS"`
}

type verifyResponse struct {
	Data struct {
		AccountExists *bool  `json:"account_exists"`
		NameAtBank    string `json:"name_at_bank"`
		Message       string `json:"message"`
		UTR           string `json:"utr"`
	} `json:"data"`
	Message string `json:"message"`
}

// PennyDrop verifies ownership by crediting a nominal amount.
func (c *Client) PennyDrop(ctx context.Context, ifsc, account, name string) (*Result, error) {
	return c.verify(ctx, ifsc, account, name, "verify")
}

// Pennyless verifies ownership without moving money.
func (c *Client) Pennyless(ctx context.Context, ifsc, account, name string) (*Result, error) {
	return c.verify(ctx, ifsc, account, name, "penniless-verify")
}

func (c *Client) verify(ctx context.Context, ifsc, account, name, action string) (*Result, error) {
	path := "/bank/" + url.PathEscape(ifsc) + "/accounts/" + url.PathEscape(account) + "/" + action
	if name != "" {
		path += "?" + url.Values{"name": {name}}.Encode()
	}

	resp, err := c.exec.Execute(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out verifyResponse
	if err := resp.Decode(c.exec.ID(), &out); err != nil {
		return nil, err
	}
	message := out.Data.Message
	if message == "" {
		message = out.Message
	}
	return &Result{
		AccountExists: out.Data.AccountExists != nil && *out.Data.AccountExists,
		NameAtBank:    strings.TrimSpace(out.Data.NameAtBank),
		Message:       message,
		Reference:     out.Data.UTR,
		StatusCode:    resp.StatusCode,
	}, nil
}

// LookupIFSC resolves branch details. Unknown codes fail with a not-found
// provider error.
func (c *Client) LookupIFSC(ctx context.Context, ifsc string) (*IFSCDetails, error) {
	resp, err := c.exec.Execute(ctx, http.MethodGet, "/bank/"+url.PathEscape(ifsc), nil)
	if err != nil {
		return nil, err
	}
	var details IFSCDetails
	if err := resp.Decode(c.exec.ID(), &details); err != nil {
		return nil, err
	}
	return &details, nil
}
