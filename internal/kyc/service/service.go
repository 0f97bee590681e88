// Package service is the verification sequencer. It enforces the
// Aadhaar, PAN, bank ordering for every subject of an application, calls the
// typed provider clients, classifies their answers and cross-validates the
// identity attributes they return.
//
// Every mutating operation runs under a per-application lock, loads the
// application document, mutates a private copy and saves it back with an
// optimistic version check. Blocking outcomes and validation failures return
// before anything is written.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"dsakyc/internal/kyc/correlation"
	"dsakyc/internal/kyc/lock"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/providers/bank"
	"dsakyc/internal/kyc/providers/okyc"
	"dsakyc/internal/kyc/providers/pan"
	"dsakyc/internal/kyc/review"
	"dsakyc/internal/kyc/store"
	"dsakyc/internal/kyc/tracer"
	id "dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
)

// DefaultOTPValidity is how long an OTP reference is accepted after it was sent.
const DefaultOTPValidity = 10 * time.Minute

// Store persists application documents.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	Find(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	Save(ctx context.Context, app *models.Application) error
}

// IdentityProvider runs Aadhaar OKYC.
type IdentityProvider interface {
	GenerateOTP(ctx context.Context, aadhaar string) (string, error)
	VerifyOTP(ctx context.Context, referenceID, otp string) (*okyc.AadhaarResult, error)
}

// PanProvider verifies a PAN against a name and date of birth.
type PanProvider interface {
	Verify(ctx context.Context, req pan.Request) (*pan.Result, error)
}

// BankProvider checks account ownership.
type BankProvider interface {
	PennyDrop(ctx context.Context, ifsc, account, name string) (*bank.Result, error)
	Pennyless(ctx context.Context, ifsc, account, name string) (*bank.Result, error)
	LookupIFSC(ctx context.Context, ifsc string) (*bank.IFSCDetails, error)
}

// Metrics records sequencer outcomes.
type Metrics interface {
	RecordStepOutcome(step, outcome string)
	RecordReviewFlag(reason string)
	ObserveLockWait(d time.Duration, contended bool)
}

// SubjectRef addresses one subject of one application.
type SubjectRef struct {
	ApplicationID id.ApplicationID
	SubjectID     id.SubjectID
}

// Service sequences verification steps for DSA partner applications.
type Service struct {
	store       Store
	identity    IdentityProvider
	pan         PanProvider
	bank        BankProvider
	locker      lock.Locker
	publisher   review.Publisher
	metrics     Metrics
	tracer      tracer.Tracer
	names       *correlation.NameMatcher
	otpValidity time.Duration
	ifscCheck   bool
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLocker replaces the in-process lock, e.g. with a Redis locker when
// several instances share one store.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithPublisher(p review.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithNameThreshold sets the bank holder name similarity cut-off.
func WithNameThreshold(threshold float64) Option {
	return func(s *Service) {
		s.names = correlation.NewNameMatcher(threshold)
	}
}

func WithOTPValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.otpValidity = d
		}
	}
}

// WithIFSCPrecheck resolves the IFSC before any account check is attempted.
func WithIFSCPrecheck(enabled bool) Option {
	return func(s *Service) {
		s.ifscCheck = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the sequencer.
func New(st Store, identity IdentityProvider, panProvider PanProvider, bankProvider BankProvider, opts ...Option) *Service {
	s := &Service{
		store:       st,
		identity:    identity,
		pan:         panProvider,
		bank:        bankProvider,
		metrics:     noopMetrics{},
		tracer:      tracer.NewNoop(),
		names:       correlation.NewNameMatcher(correlation.DefaultNameThreshold),
		otpValidity: DefaultOTPValidity,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLocker(lock.DefaultWait)
	}
	if s.publisher == nil {
		s.publisher = review.NewLogPublisher(s.logger)
	}
	return s
}

// GetApplication returns the current application document.
func (s *Service) GetApplication(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.Find(ctx, appID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return app, nil
}

// mutate runs fn on a fresh copy of the application under its lock and saves
// the result. Nothing is written when fn fails.
func (s *Service) mutate(ctx context.Context, appID id.ApplicationID, fn func(app *models.Application) error) error {
	lockCtx, span := s.tracer.Start(ctx, tracer.SpanLockAcquire, tracer.String(tracer.AttrApplicationID, appID.String()))
	start := time.Now()
	release, err := s.locker.Acquire(lockCtx, lockKey(appID))
	s.metrics.ObserveLockWait(time.Since(start), errors.Is(err, lock.ErrLockHeld))
	span.End(err)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			return dErrors.NewReason(dErrors.CodeConflict, "APPLICATION_BUSY", "another operation is in progress for this application").WithCause(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dErrors.Wrap(ctxErr, dErrors.CodeTimeout, "request cancelled while waiting for application")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock application")
	}
	defer release()

	app, err := s.store.Find(ctx, appID)
	if err != nil {
		return translateStoreError(err)
	}
	if err := fn(app); err != nil {
		return err
	}
	app.UpdatedAt = s.now()
	if err := s.store.Save(ctx, app); err != nil {
		return translateStoreError(err)
	}
	return nil
}

func lockKey(appID id.ApplicationID) string {
	return "application:" + appID.String()
}

func activeSubject(app *models.Application, subjectID id.SubjectID) (*models.Subject, error) {
	subject, ok := app.Subject(subjectID)
	if !ok || !subject.Active() {
		return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
	}
	return subject, nil
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, store.ErrConflict):
		return dErrors.NewReason(dErrors.CodeConflict, "VERSION_CONFLICT", "application was modified concurrently")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
}

// raise builds a review flag stamped with the service clock.
func (s *Service) raise(step models.Step, reason string, detail map[string]string) models.ManualReviewFlag {
	return models.ManualReviewFlag{
		ReasonCode: reason,
		Detail:     detail,
		RaisedBy:   step,
		RaisedAt:   s.now(),
	}
}

// publish fans flags out after the document is saved. Delivery failures are
// logged only; the flags are already on the document.
func (s *Service) publish(ctx context.Context, appID id.ApplicationID, subjectID *id.SubjectID, flags []models.ManualReviewFlag) {
	for _, f := range flags {
		s.metrics.RecordReviewFlag(f.ReasonCode)
		event := review.Event{
			ApplicationID: appID.String(),
			Step:          string(f.RaisedBy),
			ReasonCode:    f.ReasonCode,
			Detail:        f.Detail,
			RaisedAt:      f.RaisedAt,
		}
		if subjectID != nil {
			event.SubjectID = subjectID.String()
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review flag",
				"application_id", appID.String(),
				"reason_code", f.ReasonCode,
				"error", err,
			)
		}
	}
}

// recordOutcome labels a finished step for metrics: verified, review or the
// failure reason.
func (s *Service) recordOutcome(step models.Step, review bool, err error) {
	outcome := "verified"
	switch {
	case err != nil:
		outcome = dErrors.ReasonOf(err)
		if outcome == "" {
			outcome = "error"
		}
	case review:
		outcome = "review"
	}
	s.metrics.RecordStepOutcome(string(step), outcome)
}

type noopMetrics struct{}

func (noopMetrics) RecordStepOutcome(string, string)    {}
func (noopMetrics) RecordReviewFlag(string)             {}
func (noopMetrics) ObserveLockWait(time.Duration, bool) {}
