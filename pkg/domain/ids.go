package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "equilibrium/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler rejects passing a
// payment id where a member id is expected.
type (
	MemberID     uuid.UUID
	PaymentID    uuid.UUID
	BonusEntryID uuid.UUID
	EventID      uuid.UUID
)

// TariffCode identifies a tariff in the catalog (for example "tariff_100").
type TariffCode string

const maxTariffCodeLen = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

// ParseMemberID parses a member id at a trust boundary.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed or the nil UUID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID("member id", s)
	return MemberID(u), err
}

// ParsePaymentID parses a payment id at a trust boundary.
func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID("payment id", s)
	return PaymentID(u), err
}

// ParseBonusEntryID parses a bonus entry id.
func ParseBonusEntryID(s string) (BonusEntryID, error) {
	u, err := parseUUID("bonus entry id", s)
	return BonusEntryID(u), err
}

// ParseTariffCode validates a tariff code: non-empty, bounded, and limited to
// lowercase letters, digits, '_' and '-'.
func ParseTariffCode(s string) (TariffCode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tariff code cannot be empty")
	}
	if len(s) > maxTariffCodeLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tariff code too long")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tariff code")
		}
	}
	return TariffCode(s), nil
}

func (id MemberID) String() string     { return uuid.UUID(id).String() }
func (id PaymentID) String() string    { return uuid.UUID(id).String() }
func (id BonusEntryID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string      { return uuid.UUID(id).String() }
func (c TariffCode) String() string    { return string(c) }

func (id MemberID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BonusEntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id MemberID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id BonusEntryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }

func (id *MemberID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *PaymentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *BonusEntryID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *EventID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// NewMemberID returns a random member id.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewPaymentID returns a random payment id.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// NewBonusEntryID returns a random bonus entry id.
func NewBonusEntryID() BonusEntryID { return BonusEntryID(uuid.New()) }

// NewEventID returns a random event id.
func NewEventID() EventID { return EventID(uuid.New()) }
