// Package engine chooses where a new member lands in the placement tree.
//
// The search is a capacity-bounded breadth-first traversal from the root: the
// first node with fewer than MaxChildren children becomes the parent and the
// smallest unused position is taken. No member is ever placed at level L+1
// while a slot at level <= L is free.
package engine

import (
	"context"
	"errors"
	"fmt"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/requestcontext"
)

// TreeIndex is the storage the engine reads and writes. All calls made by a
// single Place share the caller's transaction through ctx.
type TreeIndex interface {
	NodeOf(ctx context.Context, member id.MemberID) (*models.PlacementNode, error)
	ChildrenOf(ctx context.Context, member id.MemberID) ([]*models.PlacementNode, error)
	RootNode(ctx context.Context) (*models.PlacementNode, error)
	LockParent(ctx context.Context, member id.MemberID) error
	Insert(ctx context.Context, node *models.PlacementNode) error
}

// Slot is a free (parent, position) pair found by the search.
type Slot struct {
	Parent   *models.PlacementNode
	Position int
}

// Level is the level the new node will occupy.
func (s Slot) Level() int {
	return s.Parent.Level + 1
}

// Engine runs one search-and-insert attempt. A parent found full once locked
// is skipped and the search resumes in the same transaction; only a failed
// insert (a unique violation, which aborts the transaction) is left to the
// caller to retry.
type Engine struct {
	tree        TreeIndex
	maxChildren int
}

type Option func(*Engine)

// WithMaxChildren sets the branching factor. Values below 1 are ignored.
func WithMaxChildren(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChildren = n
		}
	}
}

func New(tree TreeIndex, opts ...Option) *Engine {
	e := &Engine{
		tree:        tree,
		maxChildren: models.DefaultMaxChildren,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxChildren returns the configured branching factor.
func (e *Engine) MaxChildren() int {
	return e.maxChildren
}

// Place inserts a node for member in the shallowest, leftmost free slot.
//
// Errors carry these codes:
//   - tariff_unavailable when tariff is nil or inactive
//   - already_placed when the member has a node, checked first and again by
//     the insert
//   - position_conflict when the insert loses a slot or root race
//   - structure_corruption when stored nodes violate the tree invariants
func (e *Engine) Place(ctx context.Context, member id.MemberID, tariff *models.Tariff) (*models.PlacementNode, error) {
	if tariff == nil || !tariff.Active {
		return nil, dErrors.New(dErrors.CodeTariffUnavailable, "tariff is not available")
	}

	if _, err := e.tree.NodeOf(ctx, member); err == nil {
		return nil, dErrors.New(dErrors.CodeAlreadyPlaced, "member is already placed")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing placement")
	}

	root, err := e.tree.RootNode(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		node := models.NewRootNode(member, tariff.Code, requestcontext.Now(ctx))
		if err := e.tree.Insert(ctx, node); err != nil {
			return nil, translateInsertErr(err)
		}
		return node, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load root node")
	}
	if err := root.ValidateRoot(); err != nil {
		return nil, err
	}

	search := e.newSearch(root)
	for {
		slot, err := search.next(ctx)
		if err != nil {
			return nil, err
		}
		position, locked, err := e.claim(ctx, slot.Parent)
		if err != nil {
			return nil, err
		}
		if position == 0 {
			// Filled by placements that committed after our read. Slots never
			// free up, so the search continues behind it.
			search.enqueue(locked)
			continue
		}

		node := models.NewChildNode(member, slot.Parent, position, tariff.Code, requestcontext.Now(ctx))
		if err := e.tree.Insert(ctx, node); err != nil {
			return nil, translateInsertErr(err)
		}
		return node, nil
	}
}

// FindSlot runs the breadth-first search from root without writing. Every
// child observed is validated against its parent on the way.
func (e *Engine) FindSlot(ctx context.Context, root *models.PlacementNode) (Slot, error) {
	return e.newSearch(root).next(ctx)
}

// search is a resumable breadth-first walk. next returns the first candidate
// with a free position; a candidate that turns out full under lock hands its
// children back through enqueue.
type search struct {
	engine  *Engine
	queue   []*models.PlacementNode
	visited map[id.MemberID]bool
}

func (e *Engine) newSearch(root *models.PlacementNode) *search {
	return &search{
		engine:  e,
		queue:   []*models.PlacementNode{root},
		visited: make(map[id.MemberID]bool),
	}
}

func (s *search) enqueue(nodes []*models.PlacementNode) {
	s.queue = append(s.queue, nodes...)
}

func (s *search) next(ctx context.Context) (Slot, error) {
	for len(s.queue) > 0 {
		candidate := s.queue[0]
		s.queue = s.queue[1:]
		if s.visited[candidate.MemberID] {
			continue
		}
		s.visited[candidate.MemberID] = true

		children, err := s.engine.children(ctx, candidate)
		if err != nil {
			return Slot{}, err
		}
		if position := models.FreePosition(children, s.engine.maxChildren); position != 0 {
			return Slot{Parent: candidate, Position: position}, nil
		}
		s.enqueue(children)
	}

	// Unreachable for a consistent tree: the deepest level always has room.
	return Slot{}, dErrors.New(dErrors.CodeStructureCorruption,
		fmt.Sprintf("no free slot found after visiting %d nodes", len(s.visited)))
}

// claim locks the chosen parent and recomputes its free position against the
// children visible under the lock. A zero position means the parent filled
// up; the locked children are returned so the search can descend into them.
func (e *Engine) claim(ctx context.Context, parent *models.PlacementNode) (int, []*models.PlacementNode, error) {
	if err := e.tree.LockParent(ctx, parent.MemberID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil, dErrors.Wrap(err, dErrors.CodeStructureCorruption,
				fmt.Sprintf("parent %s disappeared during placement", parent.MemberID))
		}
		return 0, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock parent node")
	}
	children, err := e.children(ctx, parent)
	if err != nil {
		return 0, nil, err
	}
	return models.FreePosition(children, e.maxChildren), children, nil
}

func (e *Engine) children(ctx context.Context, parent *models.PlacementNode) ([]*models.PlacementNode, error) {
	children, err := e.tree.ChildrenOf(ctx, parent.MemberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load children")
	}
	if len(children) > e.maxChildren {
		return nil, dErrors.New(dErrors.CodeStructureCorruption,
			fmt.Sprintf("node %s has %d children, limit is %d", parent.MemberID, len(children), e.maxChildren))
	}
	seen := make(map[int]bool, len(children))
	for _, child := range children {
		if err := child.ValidateChildOf(parent, e.maxChildren); err != nil {
			return nil, err
		}
		if seen[child.Position] {
			return nil, dErrors.New(dErrors.CodeStructureCorruption,
				fmt.Sprintf("node %s has two children at position %d", parent.MemberID, child.Position))
		}
		seen[child.Position] = true
	}
	return children, nil
}

func translateInsertErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeAlreadyPlaced, "member is already placed")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodePositionConflict, "slot taken by a concurrent placement")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeStructureCorruption, "parent node missing at insert")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert placement node")
	}
}
