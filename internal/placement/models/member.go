package models

import (
	"time"

	id "equilibrium/pkg/domain"
)

// MemberStatus tracks whether a member has a node in the tree.
type MemberStatus string

const (
	MemberStatusUnplaced MemberStatus = "UNPLACED"
	MemberStatusPlaced   MemberStatus = "PLACED"
)

// Member is a participant who may be placed in the tree and may refer others.
// Members are created by the signup collaborator; the placement core only
// reads them and flips Status to PLACED when a placement commits.
type Member struct {
	ID         id.MemberID  `json:"id"`
	ReferrerID *id.MemberID `json:"referrer_id,omitempty"`
	Username   string       `json:"username,omitempty"`
	Status     MemberStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	PlacedAt   *time.Time   `json:"placed_at,omitempty"`
}

func (m *Member) HasReferrer() bool {
	return m.ReferrerID != nil && !m.ReferrerID.IsNil()
}

func (m *Member) IsPlaced() bool {
	return m.Status == MemberStatusPlaced
}
