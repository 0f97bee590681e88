package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dsakyc/internal/kyc/entity"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/service"
	id "dsakyc/pkg/domain"
	"dsakyc/pkg/platform/httputil"
	"dsakyc/pkg/platform/middleware/request"
)

// HeaderEntityType lets the onboarding front end state the entity type
// explicitly. It outranks the value sent in the request body.
const HeaderEntityType = "X-Entity-Type"

// Service defines the interface for KYC verification operations.
type Service interface {
	RegisterApplication(ctx context.Context, src entity.Sources) (*models.Application, error)
	GetApplication(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	AddSubject(ctx context.Context, appID id.ApplicationID, in service.SubjectInput) (*models.Subject, error)
	SetSignatory(ctx context.Context, ref service.SubjectRef) error
	RemoveSubject(ctx context.Context, ref service.SubjectRef) error
	SendIdentityOtp(ctx context.Context, ref service.SubjectRef, nationalID string) (*service.OtpSent, error)
	VerifyIdentityOtp(ctx context.Context, ref service.SubjectRef, referenceID, otp string) (*service.IdentityOutcome, error)
	VerifyPan(ctx context.Context, ref service.SubjectRef, pan string) (*service.PanOutcome, error)
	VerifyBank(ctx context.Context, appID id.ApplicationID, req service.BankRequest) (*service.BankOutcome, error)
}

// Handler serves the partner onboarding KYC endpoints.
type Handler struct {
	logger *slog.Logger
	kyc    Service
}

// New creates a new KYC Handler.
func New(kyc Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		kyc:    kyc,
	}
}

// Register registers the KYC routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.HandleRegisterApplication)
		r.Route("/{applicationID}", func(r chi.Router) {
			r.Get("/", h.HandleGetApplication)
			r.Post("/subjects", h.HandleAddSubject)
			r.Put("/subjects/{subjectID}/signatory", h.HandleSetSignatory)
			r.Delete("/subjects/{subjectID}", h.HandleRemoveSubject)
			r.Post("/subjects/{subjectID}/aadhaar/otp", h.HandleSendOtp)
			r.Post("/subjects/{subjectID}/aadhaar/verify", h.HandleVerifyOtp)
			r.Post("/subjects/{subjectID}/pan", h.HandleVerifyPan)
			r.Post("/bank", h.HandleVerifyBank)
		})
	})
}

func (h *Handler) HandleRegisterApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	// The body is optional when the entity type travels in the header.
	req := &RegisterApplicationRequest{}
	if r.ContentLength != 0 {
		decoded, ok := httputil.DecodeAndPrepare[RegisterApplicationRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		req = decoded
	}

	app, err := h.kyc.RegisterApplication(ctx, entity.Sources{
		Header:            r.Header.Get(HeaderEntityType),
		ApplicationRecord: req.EntityType,
	})
	if err != nil {
		h.fail(ctx, w, "failed to register application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) HandleGetApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.kyc.GetApplication(ctx, appID)
	if err != nil {
		h.fail(ctx, w, "failed to load application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) HandleAddSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddSubjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	subject, err := h.kyc.AddSubject(ctx, appID, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to add subject", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSubjectResponse(subject))
}

func (h *Handler) HandleSetSignatory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := subjectRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.kyc.SetSignatory(ctx, ref); err != nil {
		h.fail(ctx, w, "failed to set signatory", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := subjectRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.kyc.RemoveSubject(ctx, ref); err != nil {
		h.fail(ctx, w, "failed to remove subject", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSendOtp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	ref, err := subjectRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SendOtpRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sent, err := h.kyc.SendIdentityOtp(ctx, ref, req.AadhaarNumber)
	if err != nil {
		h.fail(ctx, w, "failed to send aadhaar otp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OtpSentResponse{ReferenceID: sent.ReferenceID, ExpiresAt: sent.ExpiresAt})
}

func (h *Handler) HandleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	ref, err := subjectRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyOtpRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	out, err := h.kyc.VerifyIdentityOtp(ctx, ref, req.ReferenceID, req.OTP)
	if err != nil {
		h.fail(ctx, w, "failed to verify aadhaar otp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(out))
}

func (h *Handler) HandleVerifyPan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	ref, err := subjectRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyPanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	out, err := h.kyc.VerifyPan(ctx, ref, req.PAN)
	if err != nil {
		h.fail(ctx, w, "failed to verify pan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPanResponse(out))
}

func (h *Handler) HandleVerifyBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyBankRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	out, err := h.kyc.VerifyBank(ctx, appID, req.toBankRequest())
	if err != nil {
		h.fail(ctx, w, "failed to verify bank account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBankResponse(out))
}

// fail logs and writes a service error. Declines are expected outcomes and
// logged at warn; everything else is an error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status := httputil.StatusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", request.GetRequestID(ctx),
		"status", status,
		"error", err,
	)
	httputil.WriteError(w, err)
}

func subjectRef(r *http.Request) (service.SubjectRef, error) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		return service.SubjectRef{}, err
	}
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		return service.SubjectRef{}, err
	}
	return service.SubjectRef{ApplicationID: appID, SubjectID: subjectID}, nil
}
