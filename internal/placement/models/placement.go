package models

import id "equilibrium/pkg/domain"

// PlacementResult is returned by Place. AlreadyPlaced is set when the call was
// an idempotent replay and nothing was written.
type PlacementResult struct {
	Node          *PlacementNode `json:"node"`
	BonusEntries  []*BonusEntry  `json:"bonus_entries"`
	AlreadyPlaced bool           `json:"already_placed"`
}

// TreeView is a read-only nested rendering of a subtree.
type TreeView struct {
	MemberID   id.MemberID   `json:"member_id"`
	Level      int           `json:"level"`
	Position   int           `json:"position"`
	TariffCode id.TariffCode `json:"tariff_code"`
	Children   []*TreeView   `json:"children"`
}

// Stats summarizes the tree and ledger.
type Stats struct {
	Nodes   int         `json:"nodes"`
	Members int         `json:"members"`
	Bonuses BonusTotals `json:"bonuses"`
}

// BonusHistory is a ledger slice in append order with its totals.
type BonusHistory struct {
	Entries []*BonusEntry `json:"entries"`
	Totals  BonusTotals   `json:"totals"`
}
