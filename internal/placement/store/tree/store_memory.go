package tree

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
)

// InMemory is an arena of placement nodes keyed by member id. Children are
// derived through a parent -> position -> member index rather than stored on
// the node. Writers must run under tx.MemoryRunner, which serializes them;
// readers only take the read lock and never see staged nodes.
type InMemory struct {
	mu       sync.RWMutex
	nodes    map[id.MemberID]models.PlacementNode
	children map[id.MemberID]map[int]id.MemberID
	root     *id.MemberID
}

func NewInMemory() *InMemory {
	return &InMemory{
		nodes:    make(map[id.MemberID]models.PlacementNode),
		children: make(map[id.MemberID]map[int]id.MemberID),
	}
}

func (s *InMemory) NodeOf(_ context.Context, member id.MemberID) (*models.PlacementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[member]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &n, nil
}

func (s *InMemory) RootNode(_ context.Context) (*models.PlacementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.root == nil {
		return nil, sentinel.ErrNotFound
	}
	n := s.nodes[*s.root]
	return &n, nil
}

func (s *InMemory) ChildrenOf(_ context.Context, member id.MemberID) ([]*models.PlacementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenLocked(member), nil
}

func (s *InMemory) ChildrenOfMany(_ context.Context, members []id.MemberID) (map[id.MemberID][]*models.PlacementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.MemberID][]*models.PlacementNode, len(members))
	for _, m := range members {
		if kids := s.childrenLocked(m); len(kids) > 0 {
			out[m] = kids
		}
	}
	return out, nil
}

func (s *InMemory) childrenLocked(member id.MemberID) []*models.PlacementNode {
	slots := s.children[member]
	positions := make([]int, 0, len(slots))
	for pos := range slots {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	out := make([]*models.PlacementNode, 0, len(positions))
	for _, pos := range positions {
		n := s.nodes[slots[pos]]
		out = append(out, &n)
	}
	return out
}

// LockParent is a no-op: the memory runner already serializes writers.
func (s *InMemory) LockParent(ctx context.Context, member id.MemberID) error {
	_, err := s.NodeOf(ctx, member)
	return err
}

// Insert validates referential integrity against committed state and stages
// the node. Returns sentinel.ErrAlreadyUsed when the member already has a
// node, and sentinel.ErrConflict when the (parent, position) slot or the root
// is taken.
func (s *InMemory) Insert(ctx context.Context, node *models.PlacementNode) error {
	if node == nil {
		return fmt.Errorf("placement node is required")
	}
	s.mu.RLock()
	err := s.checkInsertLocked(node)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	stored := *node
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.nodes[stored.MemberID] = stored
		if stored.ParentMemberID == nil {
			root := stored.MemberID
			s.root = &root
			return
		}
		parent := *stored.ParentMemberID
		if s.children[parent] == nil {
			s.children[parent] = make(map[int]id.MemberID)
		}
		s.children[parent][stored.Position] = stored.MemberID
	})
	return nil
}

func (s *InMemory) checkInsertLocked(node *models.PlacementNode) error {
	if _, exists := s.nodes[node.MemberID]; exists {
		return fmt.Errorf("member %s: %w", node.MemberID, sentinel.ErrAlreadyUsed)
	}
	if node.ParentMemberID == nil {
		if s.root != nil {
			return fmt.Errorf("root already exists: %w", sentinel.ErrConflict)
		}
		return nil
	}
	if _, ok := s.nodes[*node.ParentMemberID]; !ok {
		return fmt.Errorf("parent %s: %w", *node.ParentMemberID, sentinel.ErrNotFound)
	}
	if _, taken := s.children[*node.ParentMemberID][node.Position]; taken {
		return fmt.Errorf("parent %s position %d: %w", *node.ParentMemberID, node.Position, sentinel.ErrConflict)
	}
	return nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), nil
}
