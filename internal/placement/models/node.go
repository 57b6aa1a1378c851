package models

import (
	"fmt"
	"time"

	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
)

// DefaultMaxChildren is the tree's branching factor when not configured.
const DefaultMaxChildren = 3

// RootPosition is the position assigned to the root node.
const RootPosition = 1

// PlacementNode is one member's place in the tree.
//
// Invariants:
//   - exactly one node per member, never deleted or moved
//   - ParentMemberID is nil only for the root, and there is at most one root
//   - Position is in [1, MaxChildren] and unique among siblings
//   - Level equals the parent's level + 1 (root level is 0)
type PlacementNode struct {
	MemberID       id.MemberID   `json:"member_id"`
	ParentMemberID *id.MemberID  `json:"parent_member_id,omitempty"`
	Level          int           `json:"level"`
	Position       int           `json:"position"`
	TariffCode     id.TariffCode `json:"tariff_code"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (n *PlacementNode) IsRoot() bool {
	return n.ParentMemberID == nil
}

// NewRootNode builds the node for the first member placed in an empty tree.
func NewRootNode(member id.MemberID, tariff id.TariffCode, now time.Time) *PlacementNode {
	return &PlacementNode{
		MemberID:   member,
		Level:      0,
		Position:   RootPosition,
		TariffCode: tariff,
		CreatedAt:  now,
	}
}

// NewChildNode builds the node for member under parent at position.
func NewChildNode(member id.MemberID, parent *PlacementNode, position int, tariff id.TariffCode, now time.Time) *PlacementNode {
	parentID := parent.MemberID
	return &PlacementNode{
		MemberID:       member,
		ParentMemberID: &parentID,
		Level:          parent.Level + 1,
		Position:       position,
		TariffCode:     tariff,
		CreatedAt:      now,
	}
}

// ValidateChildOf checks the node against its parent and the branching factor.
// A failure means stored data no longer satisfies the tree invariants.
func (n *PlacementNode) ValidateChildOf(parent *PlacementNode, maxChildren int) error {
	if n.ParentMemberID == nil || *n.ParentMemberID != parent.MemberID {
		return corruption(fmt.Sprintf("node %s listed under %s but points elsewhere", n.MemberID, parent.MemberID))
	}
	if n.Level != parent.Level+1 {
		return corruption(fmt.Sprintf("node %s has level %d under parent level %d", n.MemberID, n.Level, parent.Level))
	}
	if n.Position < 1 || n.Position > maxChildren {
		return corruption(fmt.Sprintf("node %s has position %d outside [1, %d]", n.MemberID, n.Position, maxChildren))
	}
	if n.MemberID == parent.MemberID {
		return corruption(fmt.Sprintf("node %s is its own parent", n.MemberID))
	}
	return nil
}

// ValidateRoot checks root-specific invariants.
func (n *PlacementNode) ValidateRoot() error {
	if n.ParentMemberID != nil {
		return corruption(fmt.Sprintf("root node %s has a parent", n.MemberID))
	}
	if n.Level != 0 {
		return corruption(fmt.Sprintf("root node %s has level %d", n.MemberID, n.Level))
	}
	return nil
}

// FreePosition returns the smallest position in [1, maxChildren] not used by
// children, or 0 when every position is taken.
func FreePosition(children []*PlacementNode, maxChildren int) int {
	used := make(map[int]bool, len(children))
	for _, c := range children {
		used[c.Position] = true
	}
	for pos := 1; pos <= maxChildren; pos++ {
		if !used[pos] {
			return pos
		}
	}
	return 0
}

func corruption(msg string) error {
	return dErrors.New(dErrors.CodeStructureCorruption, msg)
}
