package service

import (
	"encoding/json"
	"time"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
)

// PlacementCompleted is the payload of a placement.completed event.
type PlacementCompleted struct {
	MemberID       id.MemberID   `json:"member_id"`
	PaymentID      id.PaymentID  `json:"payment_id"`
	ParentMemberID *id.MemberID  `json:"parent_member_id,omitempty"`
	Level          int           `json:"level"`
	Position       int           `json:"position"`
	TariffCode     id.TariffCode `json:"tariff_code"`
	PlacedAt       time.Time     `json:"placed_at"`
}

// BonusCredited is the payload of a bonus.credited event.
type BonusCredited struct {
	EntryID           id.BonusEntryID  `json:"entry_id"`
	RecipientMemberID id.MemberID      `json:"recipient_member_id"`
	SourceMemberID    id.MemberID      `json:"source_member_id"`
	PaymentID         id.PaymentID     `json:"payment_id"`
	Kind              models.BonusKind `json:"kind"`
	Amount            string           `json:"amount"`
	CreditedAt        time.Time        `json:"credited_at"`
}

func placementEvents(payment *models.Payment, node *models.PlacementNode, entries []*models.BonusEntry) ([]*models.OutboxEvent, error) {
	events := make([]*models.OutboxEvent, 0, len(entries)+1)

	placed, err := newEvent(node.MemberID, models.EventPlacementCompleted, node.CreatedAt, PlacementCompleted{
		MemberID:       node.MemberID,
		PaymentID:      payment.ID,
		ParentMemberID: node.ParentMemberID,
		Level:          node.Level,
		Position:       node.Position,
		TariffCode:     node.TariffCode,
		PlacedAt:       node.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, placed)

	for _, e := range entries {
		credited, err := newEvent(e.RecipientMemberID, models.EventBonusCredited, e.CreatedAt, BonusCredited{
			EntryID:           e.ID,
			RecipientMemberID: e.RecipientMemberID,
			SourceMemberID:    e.SourceMemberID,
			PaymentID:         e.PaymentID,
			Kind:              e.Kind,
			Amount:            e.Amount.StringFixed(2),
			CreditedAt:        e.CreatedAt,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, credited)
	}
	return events, nil
}

func newEvent(aggregate id.MemberID, typ models.EventType, at time.Time, payload any) (*models.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode "+string(typ)+" event")
	}
	return &models.OutboxEvent{
		ID:          id.NewEventID(),
		AggregateID: aggregate,
		Type:        typ,
		Payload:     raw,
		CreatedAt:   at,
	}, nil
}
