package handler

import (
	"strings"

	"dsakyc/internal/kyc/service"
	"dsakyc/pkg/platform/validation"
	s "dsakyc/pkg/string"
	v "dsakyc/pkg/validation"
)

// RegisterApplicationRequest opens an application. EntityType is the stored
// application value and loses to the X-Entity-Type header.
type RegisterApplicationRequest struct {
	EntityType string `json:"entity_type"`
}

func (r *RegisterApplicationRequest) Normalize() {
	s.TrimStrings(&r.EntityType)
	r.EntityType = strings.ToLower(r.EntityType)
}

func (r *RegisterApplicationRequest) Validate() error {
	return validation.CheckStringLength("entity_type", r.EntityType, validation.MaxEntityTypeLength)
}

// AddSubjectRequest attaches a person to an application.
type AddSubjectRequest struct {
	Role        string `json:"role" validate:"required,oneof=self partner director"`
	DisplayName string `json:"display_name" validate:"required,notblank"`
	Mobile      string `json:"mobile" validate:"omitempty,numeric,len=10"`
	Email       string `json:"email" validate:"omitempty,email"`
	DeclaredDOB string `json:"declared_dob"`
	IsSignatory bool   `json:"is_signatory"`
}

func (r *AddSubjectRequest) Normalize() {
	s.TrimStrings(&r.Role, &r.DisplayName, &r.Mobile, &r.Email, &r.DeclaredDOB)
	r.Role = strings.ToLower(r.Role)
}

func (r *AddSubjectRequest) Validate() error {
	if err := v.Validate(r); err != nil {
		return err
	}
	if err := validation.CheckStringLength("display_name", r.DisplayName, validation.MaxNameLength); err != nil {
		return err
	}
	return validation.CheckStringLength("email", r.Email, validation.MaxEmailLength)
}

func (r *AddSubjectRequest) toInput() service.SubjectInput {
	return service.SubjectInput{
		Role:        r.Role,
		DisplayName: r.DisplayName,
		Mobile:      r.Mobile,
		Email:       r.Email,
		DeclaredDOB: r.DeclaredDOB,
		IsSignatory: r.IsSignatory,
	}
}

// SendOtpRequest carries the Aadhaar number. Its checksum is validated by the
// service so the number never reaches a log line here.
type SendOtpRequest struct {
	AadhaarNumber string `json:"aadhaar_number" validate:"required"`
}

func (r *SendOtpRequest) Normalize() {
	s.TrimStrings(&r.AadhaarNumber)
}

func (r *SendOtpRequest) Validate() error {
	return v.Validate(r)
}

// VerifyOtpRequest completes Aadhaar OKYC.
type VerifyOtpRequest struct {
	ReferenceID string `json:"reference_id" validate:"required"`
	OTP         string `json:"otp" validate:"required,numeric,len=6"`
}

func (r *VerifyOtpRequest) Normalize() {
	s.TrimStrings(&r.ReferenceID, &r.OTP)
}

func (r *VerifyOtpRequest) Validate() error {
	if err := v.Validate(r); err != nil {
		return err
	}
	return validation.CheckStringLength("reference_id", r.ReferenceID, validation.MaxReferenceIDLength)
}

// VerifyPanRequest carries the subject's PAN.
type VerifyPanRequest struct {
	PAN string `json:"pan" validate:"required,len=10"`
}

func (r *VerifyPanRequest) Normalize() {
	s.TrimStrings(&r.PAN)
	r.PAN = strings.ToUpper(r.PAN)
}

func (r *VerifyPanRequest) Validate() error {
	return v.Validate(r)
}

// VerifyBankRequest identifies the payout account.
type VerifyBankRequest struct {
	IFSC          string `json:"ifsc" validate:"required,len=11"`
	AccountNumber string `json:"account_number" validate:"required,numeric"`
	Method        string `json:"method" validate:"omitempty,oneof=penny penniless"`
}

func (r *VerifyBankRequest) Normalize() {
	s.TrimStrings(&r.IFSC, &r.AccountNumber, &r.Method)
	r.IFSC = strings.ToUpper(r.IFSC)
	r.Method = strings.ToLower(r.Method)
}

func (r *VerifyBankRequest) Validate() error {
	return v.Validate(r)
}

func (r *VerifyBankRequest) toBankRequest() service.BankRequest {
	return service.BankRequest{IFSC: r.IFSC, AccountNumber: r.AccountNumber, Method: r.Method}
}
