package handler

// Handler tests cover the HTTP edge: routing, request validation before the
// service is reached, and the domain error to status mapping. Verification
// behaviour itself is tested in the service package.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dsakyc/internal/kyc/entity"
	"dsakyc/internal/kyc/handler/mocks"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/service"
	id "dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
	"dsakyc/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	appID   id.ApplicationID
	ref     service.SubjectRef
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.appID = id.NewApplicationID()
	s.ref = service.SubjectRef{ApplicationID: s.appID, SubjectID: id.NewSubjectID()}
}

func (s *HandlerSuite) TestRegisterApplication() {
	s.Run("header entity type outranks the body", func() {
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		s.service.EXPECT().
			RegisterApplication(gomock.Any(), entity.Sources{Header: "company", ApplicationRecord: "individual"}).
			Return(&models.Application{ID: s.appID, EntityType: models.EntityCompany, CreatedAt: now, UpdatedAt: now}, nil)

		w := s.do(http.MethodPost, "/applications", map[string]string{"entity_type": " Individual "}, map[string]string{HeaderEntityType: "company"})

		s.Equal(http.StatusCreated, w.Code)
		var res ApplicationResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.Equal(s.appID.String(), res.ID)
		s.Equal("company", res.EntityType)
		s.Empty(res.Subjects)
	})

	s.Run("unresolvable entity type returns 400", func() {
		s.service.EXPECT().RegisterApplication(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT", "entity type is required"))

		w := s.do(http.MethodPost, "/applications", map[string]string{}, nil)

		s.assertError(w, http.StatusBadRequest, "validation_error", "INVALID_INPUT")
	})

	s.Run("body is optional when the header is set", func() {
		s.service.EXPECT().
			RegisterApplication(gomock.Any(), entity.Sources{Header: "partnership"}).
			Return(&models.Application{ID: s.appID, EntityType: models.EntityPartnership}, nil)

		w := s.do(http.MethodPost, "/applications", nil, map[string]string{HeaderEntityType: "partnership"})

		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("malformed body returns 400 without calling the service", func() {
		req := httptest.NewRequest(http.MethodPost, "/applications", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		s.assertError(w, http.StatusBadRequest, "bad_request", "")
	})
}

func (s *HandlerSuite) TestGetApplication() {
	s.Run("redacts stored document numbers", func() {
		subjectID := s.ref.SubjectID
		s.service.EXPECT().GetApplication(gomock.Any(), s.appID).Return(&models.Application{
			ID:         s.appID,
			EntityType: models.EntityIndividual,
			Subjects: []*models.Subject{{
				ID:          subjectID,
				Role:        models.RoleSelf,
				DisplayName: "Rahul Sharma",
				IsSignatory: true,
				Identity: models.IdentityRecord{
					Aadhaar: models.AadhaarRecord{State: models.AadhaarVerified, Verified: true, MaskedNumber: "XXXXXXXX2346"},
					Pan:     models.PanRecord{Verified: true, Number: "ABCPE1234F"},
				},
			}},
			Bank: &models.BankVerificationRecord{
				AccountNumber:      "123456789012",
				IFSC:               "HDFC0001234",
				Method:             models.MethodPenny,
				Verified:           true,
				ReferenceSubjectID: &subjectID,
			},
		}, nil)

		w := s.do(http.MethodGet, "/applications/"+s.appID.String(), nil, nil)

		s.Require().Equal(http.StatusOK, w.Code)
		var res ApplicationResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.Require().Len(res.Subjects, 1)
		s.Equal("****234F", res.Subjects[0].Pan.Number)
		s.Equal("XXXXXXXX2346", res.Subjects[0].Aadhaar.MaskedNumber)
		s.Require().NotNil(res.Bank)
		s.Equal("****9012", res.Bank.AccountNumber)
		s.Equal(subjectID.String(), res.Bank.ReferenceSubjectID)
		s.NotContains(w.Body.String(), "123456789012")
	})

	s.Run("invalid application id returns 400", func() {
		w := s.do(http.MethodGet, "/applications/not-a-uuid", nil, nil)

		s.assertError(w, http.StatusBadRequest, "bad_request", "")
	})

	s.Run("unknown application returns 404", func() {
		s.service.EXPECT().GetApplication(gomock.Any(), s.appID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "application not found"))

		w := s.do(http.MethodGet, "/applications/"+s.appID.String(), nil, nil)

		s.assertError(w, http.StatusNotFound, "not_found", "")
	})
}

func (s *HandlerSuite) TestSubjects() {
	s.Run("add subject passes the normalized input", func() {
		s.service.EXPECT().AddSubject(gomock.Any(), s.appID, service.SubjectInput{
			Role:        "director",
			DisplayName: "Rahul Sharma",
			Mobile:      "9876543210",
			IsSignatory: true,
		}).Return(&models.Subject{ID: s.ref.SubjectID, Role: models.RoleDirector, DisplayName: "Rahul Sharma", IsSignatory: true}, nil)

		w := s.do(http.MethodPost, "/applications/"+s.appID.String()+"/subjects", map[string]any{
			"role":         " Director ",
			"display_name": "Rahul Sharma ",
			"mobile":       "9876543210",
			"is_signatory": true,
		}, nil)

		s.Require().Equal(http.StatusCreated, w.Code)
		var res SubjectResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.Equal(s.ref.SubjectID.String(), res.ID)
		s.Equal(string(models.AadhaarNotStarted), res.Aadhaar.State)
	})

	s.Run("unknown role is rejected before the service", func() {
		w := s.do(http.MethodPost, "/applications/"+s.appID.String()+"/subjects", map[string]any{
			"role":         "guarantor",
			"display_name": "Rahul Sharma",
		}, nil)

		s.assertError(w, http.StatusBadRequest, "validation_error", "")
		s.Contains(s.errorBody(w).ErrorDescription, "role must be one of")
	})

	s.Run("second proprietor returns 409", func() {
		s.service.EXPECT().AddSubject(gomock.Any(), s.appID, gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeConflict, "SUBJECT_EXISTS", "an individual application has one subject"))

		w := s.do(http.MethodPost, "/applications/"+s.appID.String()+"/subjects", map[string]any{
			"role":         "self",
			"display_name": "Rahul Sharma",
		}, nil)

		s.assertError(w, http.StatusConflict, "conflict", "SUBJECT_EXISTS")
	})

	s.Run("set signatory returns 204", func() {
		s.service.EXPECT().SetSignatory(gomock.Any(), s.ref).Return(nil)

		w := s.do(http.MethodPut, s.subjectPath()+"/signatory", nil, nil)

		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("remove subject returns 204", func() {
		s.service.EXPECT().RemoveSubject(gomock.Any(), s.ref).Return(nil)

		w := s.do(http.MethodDelete, s.subjectPath(), nil, nil)

		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("invalid subject id returns 400", func() {
		w := s.do(http.MethodDelete, "/applications/"+s.appID.String()+"/subjects/nope", nil, nil)

		s.assertError(w, http.StatusBadRequest, "bad_request", "")
	})
}

func (s *HandlerSuite) TestAadhaar() {
	s.Run("send otp returns the reference", func() {
		expires := time.Date(2026, 1, 2, 3, 14, 5, 0, time.UTC)
		s.service.EXPECT().SendIdentityOtp(gomock.Any(), s.ref, "2341 2341 2346").
			Return(&service.OtpSent{ReferenceID: "ref-1", ExpiresAt: expires}, nil)

		w := s.do(http.MethodPost, s.subjectPath()+"/aadhaar/otp", map[string]string{"aadhaar_number": " 2341 2341 2346 "}, nil)

		s.Require().Equal(http.StatusOK, w.Code)
		var res OtpSentResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.Equal("ref-1", res.ReferenceID)
		s.True(expires.Equal(res.ExpiresAt))
	})

	s.Run("bad checksum maps to 400 invalid input", func() {
		s.service.EXPECT().SendIdentityOtp(gomock.Any(), s.ref, gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeInvalidInput, "INVALID_INPUT", "invalid aadhaar number"))

		w := s.do(http.MethodPost, s.subjectPath()+"/aadhaar/otp", map[string]string{"aadhaar_number": "234123412345"}, nil)

		s.assertError(w, http.StatusBadRequest, "bad_request", "INVALID_INPUT")
	})

	s.Run("non numeric otp is rejected before the service", func() {
		w := s.do(http.MethodPost, s.subjectPath()+"/aadhaar/verify", map[string]string{"reference_id": "ref-1", "otp": "12a456"}, nil)

		s.assertError(w, http.StatusBadRequest, "validation_error", "")
	})

	s.Run("expired otp returns 422", func() {
		s.service.EXPECT().VerifyIdentityOtp(gomock.Any(), s.ref, "ref-1", "123456").
			Return(nil, dErrors.NewReason(dErrors.CodeProviderBlock, "OTP_EXPIRED", "otp has expired, request a new one"))

		w := s.do(http.MethodPost, s.subjectPath()+"/aadhaar/verify", map[string]string{"reference_id": "ref-1", "otp": "123456"}, nil)

		s.assertError(w, http.StatusUnprocessableEntity, "verification_declined", "OTP_EXPIRED")
	})

	s.Run("verified identity carries review flags", func() {
		s.service.EXPECT().VerifyIdentityOtp(gomock.Any(), s.ref, "ref-1", "123456").Return(&service.IdentityOutcome{
			Verified:             true,
			MaskedID:             "XXXXXXXX2346",
			Name:                 "Rahul Sharma",
			DOB:                  "15/08/1990",
			RequiresManualReview: true,
			Flags:                []models.ManualReviewFlag{{ReasonCode: "DECLARED_DOB_MISMATCH", RaisedBy: models.StepAadhaar}},
		}, nil)

		w := s.do(http.MethodPost, s.subjectPath()+"/aadhaar/verify", map[string]string{"reference_id": "ref-1", "otp": "123456"}, nil)

		s.Require().Equal(http.StatusOK, w.Code)
		var res IdentityResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.True(res.Verified)
		s.True(res.RequiresManualReview)
		s.Require().Len(res.Flags, 1)
		s.Equal("DECLARED_DOB_MISMATCH", res.Flags[0].ReasonCode)
	})
}

func (s *HandlerSuite) TestPan() {
	s.Run("pan before aadhaar returns 412", func() {
		s.service.EXPECT().VerifyPan(gomock.Any(), s.ref, "ABCPE1234F").
			Return(nil, dErrors.NewReason(dErrors.CodePrereqNotMet, "PREREQ_NOT_MET", "aadhaar must be verified before pan"))

		w := s.do(http.MethodPost, s.subjectPath()+"/pan", map[string]string{"pan": "abcpe1234f"}, nil)

		s.assertError(w, http.StatusPreconditionFailed, "prerequisite_not_met", "PREREQ_NOT_MET")
	})

	s.Run("blocked pan exposes the provider remark", func() {
		s.service.EXPECT().VerifyPan(gomock.Any(), s.ref, "ABCPE1234F").
			Return(nil, dErrors.NewReason(dErrors.CodeProviderBlock, "PAN_BLOCKED", "pan can no longer be used").WithRemark("Holder Deceased"))

		w := s.do(http.MethodPost, s.subjectPath()+"/pan", map[string]string{"pan": "ABCPE1234F"}, nil)

		s.assertError(w, http.StatusUnprocessableEntity, "verification_declined", "PAN_BLOCKED")
		s.Equal("Holder Deceased", s.errorBody(w).Remark)
	})

	s.Run("short pan is rejected before the service", func() {
		w := s.do(http.MethodPost, s.subjectPath()+"/pan", map[string]string{"pan": "ABC"}, nil)

		s.assertError(w, http.StatusBadRequest, "validation_error", "")
	})
}

func (s *HandlerSuite) TestBank() {
	path := func() string { return "/applications/" + s.appID.String() + "/bank" }
	body := map[string]string{"ifsc": "hdfc0001234", "account_number": "123456789012"}

	s.Run("mismatch is a 200 with review details", func() {
		s.service.EXPECT().VerifyBank(gomock.Any(), s.appID, service.BankRequest{IFSC: "HDFC0001234", AccountNumber: "123456789012"}).
			Return(&service.BankOutcome{
				Verified:             true,
				HolderName:           "AMIT VERMA",
				Method:               models.MethodPenny,
				RequiresManualReview: true,
				ReviewReason:         "NAME_MISMATCH",
				Mismatch:             &models.NameMismatch{BankName: "AMIT VERMA", KYCName: "Rahul Sharma", Similarity: 0.1},
				ReferenceSubjectID:   s.ref.SubjectID,
			}, nil)

		w := s.do(http.MethodPost, path(), body, nil)

		s.Require().Equal(http.StatusOK, w.Code)
		var res BankResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.True(res.RequiresManualReview)
		s.Equal("NAME_MISMATCH", res.ReviewReason)
		s.Require().NotNil(res.Mismatch)
		s.Equal("Rahul Sharma", res.Mismatch.KYCName)
	})

	s.Run("npci outage is a retryable 503", func() {
		s.service.EXPECT().VerifyBank(gomock.Any(), s.appID, gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeRetryLater, "SERVICE_UNAVAILABLE", "verification could not complete, try again later").WithRemark("NPCI Unavailable"))

		w := s.do(http.MethodPost, path(), body, nil)

		s.assertError(w, http.StatusServiceUnavailable, "retry_later", "SERVICE_UNAVAILABLE")
		s.True(s.errorBody(w).Retryable)
	})

	s.Run("penniless decline suggests penny drop", func() {
		s.service.EXPECT().VerifyBank(gomock.Any(), s.appID, gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeProviderBlock, "IMPS_NOT_SUPPORTED", "verification was declined").WithDetail("suggested_method", "penny"))

		w := s.do(http.MethodPost, path(), map[string]string{"ifsc": "HDFC0001234", "account_number": "123456789012", "method": "penniless"}, nil)

		s.assertError(w, http.StatusUnprocessableEntity, "verification_declined", "IMPS_NOT_SUPPORTED")
		s.Equal("penny", s.errorBody(w).Details["suggested_method"])
	})

	s.Run("provider credential failure is a 502", func() {
		s.service.EXPECT().VerifyBank(gomock.Any(), s.appID, gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeProviderAuth, "PROVIDER_AUTH", "verification provider rejected our credentials"))

		w := s.do(http.MethodPost, path(), body, nil)

		s.assertError(w, http.StatusBadGateway, "provider_unavailable", "PROVIDER_AUTH")
	})

	s.Run("unknown ifsc is a 400 carrying not found", func() {
		s.service.EXPECT().VerifyBank(gomock.Any(), s.appID, gomock.Any()).
			Return(nil, dErrors.NewReason(dErrors.CodeInvalidInput, "NOT_FOUND", "ifsc is not recognised"))

		w := s.do(http.MethodPost, path(), body, nil)

		s.assertError(w, http.StatusBadRequest, "bad_request", "NOT_FOUND")
	})

	s.Run("unknown method is rejected before the service", func() {
		w := s.do(http.MethodPost, path(), map[string]string{"ifsc": "HDFC0001234", "account_number": "123456789012", "method": "upi"}, nil)

		s.assertError(w, http.StatusBadRequest, "validation_error", "")
	})
}

func (s *HandlerSuite) subjectPath() string {
	return "/applications/" + s.ref.ApplicationID.String() + "/subjects/" + s.ref.SubjectID.String()
}

func (s *HandlerSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) errorBody(w *httptest.ResponseRecorder) httputil.ErrorResponse {
	var res httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func (s *HandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code, reason string) {
	s.Equal(status, w.Code)
	res := s.errorBody(w)
	s.Equal(code, res.Error)
	if reason != "" {
		s.Equal(reason, res.Reason)
	}
}
