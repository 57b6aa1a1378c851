// Package enrollment runs the signup side of placement: a member registers
// against a tariff, their payment waits in the pending queue, and completing
// it places them.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
	"equilibrium/pkg/requestcontext"
)

type MemberStore interface {
	Create(ctx context.Context, m *models.Member) error
	Load(ctx context.Context, member id.MemberID) (*models.Member, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	Load(ctx context.Context, payment id.PaymentID) (*models.Payment, error)
	Complete(ctx context.Context, payment id.PaymentID, at time.Time) error
	ListPending(ctx context.Context, limit int) ([]*models.Payment, error)
}

type TariffCatalog interface {
	Resolve(ctx context.Context, code id.TariffCode) (*models.Tariff, error)
}

// Placer is the placement facade.
type Placer interface {
	Place(ctx context.Context, member id.MemberID, payment id.PaymentID) (*models.PlacementResult, error)
}

const (
	DefaultQueueLimit = 100
	MaxQueueLimit     = 500
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

type Service struct {
	tx       tx.Runner
	members  MemberStore
	payments PaymentStore
	tariffs  TariffCatalog
	placer   Placer
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(runner tx.Runner, members MemberStore, payments PaymentStore, tariffs TariffCatalog, placer Placer, opts ...Option) *Service {
	s := &Service{
		tx:       runner,
		members:  members,
		payments: payments,
		tariffs:  tariffs,
		placer:   placer,
		logger:   slog.Default(),
		tracer:   otel.Tracer("equilibrium/enrollment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest signs up one member. ReferrerID is nil only for the member
// who will become the tree root.
type RegisterRequest struct {
	Username   string
	ReferrerID *id.MemberID
	TariffCode id.TariffCode
}

// Register creates an UNPLACED member and a PENDING payment for the
// tariff's entry amount in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.Register")
	defer span.End()
	span.SetAttributes(attribute.String("tariff_code", string(req.TariffCode)))

	reg, err := s.register(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.logger.InfoContext(ctx, "member registered",
		"member_id", reg.Member.ID,
		"payment_id", reg.Payment.ID,
		"tariff_code", reg.Payment.TariffCode,
	)
	return reg, nil
}

func (s *Service) register(ctx context.Context, req RegisterRequest) (*models.Registration, error) {
	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		return nil, dErrors.New(dErrors.CodeValidation,
			"username must be 1-150 letters, digits or @.+-_")
	}
	tariff, err := s.tariffs.Resolve(ctx, req.TariffCode)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && !tariff.Active) {
		return nil, dErrors.New(dErrors.CodeTariffUnavailable,
			fmt.Sprintf("tariff %s is not available", req.TariffCode))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve tariff")
	}

	now := requestcontext.Now(ctx)
	reg := &models.Registration{
		Member: &models.Member{
			ID:         id.NewMemberID(),
			ReferrerID: req.ReferrerID,
			Username:   username,
			Status:     models.MemberStatusUnplaced,
			CreatedAt:  now,
		},
	}
	reg.Payment = &models.Payment{
		ID:         id.NewPaymentID(),
		MemberID:   reg.Member.ID,
		TariffCode: tariff.Code,
		Amount:     tariff.EntryAmount,
		Status:     models.PaymentStatusPending,
		CreatedAt:  now,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if req.ReferrerID != nil {
			_, err := s.members.Load(txCtx, *req.ReferrerID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("referrer %s does not exist", req.ReferrerID))
			}
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load referrer")
			}
		}
		if err := s.members.Create(txCtx, reg.Member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
		}
		if err := s.payments.Create(txCtx, reg.Payment); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Queue lists pending payments oldest first with the member and referrer
// they belong to. limit defaults to DefaultQueueLimit and is capped at
// MaxQueueLimit.
func (s *Service) Queue(ctx context.Context, limit int) ([]*models.QueueItem, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.Queue")
	defer span.End()

	switch {
	case limit <= 0:
		limit = DefaultQueueLimit
	case limit > MaxQueueLimit:
		limit = MaxQueueLimit
	}
	payments, err := s.payments.ListPending(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending payments")
	}

	usernames := map[id.MemberID]string{}
	username := func(member id.MemberID) (string, error) {
		if name, ok := usernames[member]; ok {
			return name, nil
		}
		m, err := s.members.Load(ctx, member)
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
		}
		usernames[member] = m.Username
		return m.Username, nil
	}

	items := make([]*models.QueueItem, 0, len(payments))
	for _, p := range payments {
		m, err := s.members.Load(ctx, p.MemberID)
		if err != nil {
			// A payment without its member is billing data we cannot show.
			s.logger.WarnContext(ctx, "pending payment without member", "payment_id", p.ID, "error", err)
			continue
		}
		item := &models.QueueItem{
			PaymentID:  p.ID,
			MemberID:   m.ID,
			Username:   m.Username,
			ReferrerID: m.ReferrerID,
			Tariff:     s.summary(ctx, p),
			Amount:     p.Amount,
			CreatedAt:  p.CreatedAt,
		}
		if m.HasReferrer() {
			if item.ReferrerUsername, err = username(*m.ReferrerID); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// summary describes the payment's tariff, falling back to the bare code when
// the tariff has since left the catalog.
func (s *Service) summary(ctx context.Context, p *models.Payment) models.TariffSummary {
	t, err := s.tariffs.Resolve(ctx, p.TariffCode)
	if err != nil {
		return models.TariffSummary{Code: p.TariffCode, Name: string(p.TariffCode)}
	}
	return models.TariffSummary{Code: t.Code, Name: t.Name, EntryAmount: t.EntryAmount}
}

// Complete confirms a payment and places its member. The payment is marked
// COMPLETED before placement runs, so a placement that fails can be retried
// by completing the same payment again. FAILED and CANCELLED payments are
// refused.
func (s *Service) Complete(ctx context.Context, payment id.PaymentID) (*models.PlacementResult, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("payment_id", payment.String()))

	p, err := s.confirm(ctx, payment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return s.placer.Place(ctx, p.MemberID, p.ID)
}

func (s *Service) confirm(ctx context.Context, payment id.PaymentID) (*models.Payment, error) {
	p, err := s.loadPayment(ctx, payment)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PaymentStatusPending {
		err := s.payments.Complete(ctx, payment, requestcontext.Now(ctx))
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "payment completed", "payment_id", payment, "member_id", p.MemberID)
			p.Status = models.PaymentStatusCompleted
		case errors.Is(err, sentinel.ErrInvalidState):
			// Another caller moved it first; act on whatever it is now.
			if p, err = s.loadPayment(ctx, payment); err != nil {
				return nil, err
			}
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete payment")
		}
	}
	if !p.IsCompleted() {
		return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("payment is %s and cannot be completed", p.Status))
	}
	return p, nil
}

func (s *Service) loadPayment(ctx context.Context, payment id.PaymentID) (*models.Payment, error) {
	p, err := s.payments.Load(ctx, payment)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("payment %s not found", payment))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	return p, nil
}
