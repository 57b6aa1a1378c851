package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/platform/metrics"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/requestcontext"
)

// Place puts member into the tree for a completed payment and credits the
// referral and placement bonuses, all in one transaction. The member flips to
// PLACED only when that transaction commits.
//
// Calling Place again for a member that already has a node writes nothing and
// returns the existing node with AlreadyPlaced set. BonusEntries then holds
// what paymentID itself was credited: the original entries when it is the
// payment that funded the placement, and an empty list for any other payment,
// which is never credited because a member is placed only once.
//
// A parent that fills up while the attempt waits for its lock is skipped and
// the search continues in the same transaction. An insert that still loses
// its slot is retried in a fresh transaction up to the configured attempt
// limit, after which placement_failed is returned.
func (s *Service) Place(ctx context.Context, memberID id.MemberID, paymentID id.PaymentID) (*models.PlacementResult, error) {
	start := time.Now()
	defer s.observePlacement(start)
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

	ctx, span := s.tracer.Start(ctx, "placement.Place", trace.WithAttributes(
		attribute.String("member_id", memberID.String()),
		attribute.String("payment_id", paymentID.String()),
	))
	defer span.End()

	result, err := s.place(ctx, memberID, paymentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.incrementPlacement(outcomeFor(err))
		s.logFailure(ctx, memberID, paymentID, err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("already_placed", result.AlreadyPlaced))
	return result, nil
}

func (s *Service) place(ctx context.Context, memberID id.MemberID, paymentID id.PaymentID) (*models.PlacementResult, error) {
	payment, err := s.payments.Load(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	if payment.MemberID != memberID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payment belongs to another member")
	}
	if !payment.IsCompleted() {
		return nil, dErrors.New(dErrors.CodePaymentNotCompleted,
			fmt.Sprintf("payment is %s, not %s", payment.Status, models.PaymentStatusCompleted))
	}

	member, err := s.members.Load(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	if replay, err := s.replayIfPlaced(ctx, memberID, paymentID); replay != nil || err != nil {
		return replay, err
	}

	tariff, err := s.resolveTariff(ctx, payment.TariffCode)
	if err != nil {
		return nil, err
	}

	var lastConflict error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := s.attempt(ctx, attempt, member, payment, tariff)
		switch {
		case err == nil:
			s.afterCommit(ctx, result)
			return result, nil
		case dErrors.HasCode(err, dErrors.CodePositionConflict):
			lastConflict = err
			s.incrementConflict()
			s.logger.WarnContext(ctx, "placement insert lost a slot race, retrying",
				"member_id", memberID,
				"payment_id", paymentID,
				"attempt", attempt,
				"error", err,
			)
			continue
		case dErrors.HasCode(err, dErrors.CodeAlreadyPlaced):
			// A concurrent Place for the same member committed first.
			if replay, rerr := s.replayIfPlaced(ctx, memberID, paymentID); replay != nil || rerr != nil {
				return replay, rerr
			}
			return nil, err
		default:
			return nil, err
		}
	}

	return nil, dErrors.Wrap(lastConflict, dErrors.CodePlacementFailed,
		fmt.Sprintf("placement failed after %d attempts under contention", s.maxAttempts))
}

// attempt runs one search-insert-credit transaction.
func (s *Service) attempt(ctx context.Context, attempt int, member *models.Member, payment *models.Payment, tariff *models.Tariff) (*models.PlacementResult, error) {
	ctx, span := s.tracer.Start(ctx, "placement.attempt", trace.WithAttributes(attribute.Int("attempt", attempt)))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	var result *models.PlacementResult
	err := s.tx.RunInTx(attemptCtx, func(txCtx context.Context) error {
		node, err := s.engine.Place(txCtx, member.ID, tariff)
		if err != nil {
			return err
		}
		entries, err := s.ledger.ApplyOnPlacement(txCtx, member, payment, tariff, node)
		if err != nil {
			return err
		}
		if err := s.members.MarkPlaced(txCtx, member.ID, node.CreatedAt); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "member not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark member placed")
		}
		events, err := placementEvents(payment, node, entries)
		if err != nil {
			return err
		}
		for _, event := range events {
			if err := s.outbox.Append(txCtx, event); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append outbox event")
			}
		}
		result = &models.PlacementResult{Node: node, BonusEntries: entries}
		return nil
	})
	if err != nil {
		if attemptCtx.Err() != nil && !dErrors.HasCode(err, dErrors.CodeTimeout) {
			err = dErrors.Wrap(err, dErrors.CodeTimeout, "placement transaction timed out")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return result, nil
}

// replayIfPlaced returns the committed placement of member, or (nil, nil)
// when the member has no node yet.
func (s *Service) replayIfPlaced(ctx context.Context, memberID id.MemberID, paymentID id.PaymentID) (*models.PlacementResult, error) {
	node, err := s.tree.NodeOf(ctx, memberID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing placement")
	}
	entries, err := s.ledger.ForPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.BonusEntry{}
	}
	s.incrementPlacement(metrics.OutcomeAlreadyPlaced)
	s.logger.InfoContext(ctx, "member already placed",
		"member_id", memberID,
		"payment_id", paymentID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.PlacementResult{Node: node, BonusEntries: entries, AlreadyPlaced: true}, nil
}

func (s *Service) resolveTariff(ctx context.Context, code id.TariffCode) (*models.Tariff, error) {
	tariff, err := s.tariffs.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeTariffUnavailable, fmt.Sprintf("tariff %s does not exist", code))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve tariff")
	}
	if !tariff.Active {
		return nil, dErrors.New(dErrors.CodeTariffUnavailable, fmt.Sprintf("tariff %s is inactive", code))
	}
	return tariff, nil
}

func (s *Service) afterCommit(ctx context.Context, result *models.PlacementResult) {
	s.incrementPlacement(metrics.OutcomePlaced)
	s.recordBonuses(result.BonusEntries)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate tree cache", "error", err)
		}
	}

	args := []any{
		"member_id", result.Node.MemberID,
		"level", result.Node.Level,
		"position", result.Node.Position,
		"bonus_entries", len(result.BonusEntries),
		"request_id", requestcontext.RequestID(ctx),
	}
	if result.Node.ParentMemberID != nil {
		args = append(args, "parent_id", *result.Node.ParentMemberID)
	}
	s.logger.InfoContext(ctx, "member placed", args...)
}

func (s *Service) logFailure(ctx context.Context, memberID id.MemberID, paymentID id.PaymentID, err error) {
	args := []any{
		"member_id", memberID,
		"payment_id", paymentID,
		"code", dErrors.CodeOf(err),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	}
	switch {
	case dErrors.HasCode(err, dErrors.CodeStructureCorruption), dErrors.HasCode(err, dErrors.CodePlacementFailed),
		dErrors.HasCode(err, dErrors.CodeInternal):
		s.logger.ErrorContext(ctx, "placement failed", args...)
	default:
		s.logger.InfoContext(ctx, "placement rejected", args...)
	}
}

func outcomeFor(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeStructureCorruption, dErrors.CodeInternal, dErrors.CodeTimeout, dErrors.CodePlacementFailed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeRejected
	}
}
