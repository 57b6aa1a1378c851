package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"equilibrium/internal/placement/cache"
	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/sentinel"
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// GetSubtree renders the subtree under root (the tree root when nil) down to
// maxDepth levels below it (unbounded when nil). Reads never block
// placements. The returned view may be shared with concurrent callers and
// must not be modified.
func (s *Service) GetSubtree(ctx context.Context, root *id.MemberID, maxDepth *int) (*models.TreeView, error) {
	if maxDepth != nil && *maxDepth < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "max depth must not be negative")
	}

	ctx, span := s.tracer.Start(ctx, "placement.GetSubtree")
	defer span.End()
	if root != nil {
		span.SetAttributes(attribute.String("root_member_id", root.String()))
	}

	gen := int64(-1)
	if s.cache != nil {
		view, g, ok, err := s.cache.Lookup(ctx, root, maxDepth)
		switch {
		case err != nil:
			s.recordCache(cacheError)
			s.logger.WarnContext(ctx, "tree cache lookup failed", "error", err)
		case ok:
			s.recordCache(cacheHit)
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return view, nil
		default:
			s.recordCache(cacheMiss)
			gen = g
		}
	}

	// The build is shared by every caller waiting on the same key, so it must
	// not die with whichever caller happened to start it.
	flight := s.subtrees.DoChan(flightKey(gen, root, maxDepth), func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.attemptTimeout)
		defer cancel()
		view, err := s.buildSubtree(buildCtx, root, maxDepth)
		if err != nil {
			return nil, err
		}
		if gen >= 0 {
			if err := s.cache.Store(buildCtx, gen, root, maxDepth, view); err != nil {
				s.logger.WarnContext(ctx, "tree cache store failed", "error", err)
			}
		}
		return view, nil
	})

	var v any
	var err error
	select {
	case res := <-flight:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "subtree query cancelled")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return v.(*models.TreeView), nil
}

func flightKey(gen int64, root *id.MemberID, maxDepth *int) string {
	if gen < 0 {
		return "nocache:" + cache.Key(0, root, maxDepth)
	}
	return cache.Key(gen, root, maxDepth)
}

// buildSubtree walks the tree one level at a time, fetching each level's
// children in a single batched read.
func (s *Service) buildSubtree(ctx context.Context, root *id.MemberID, maxDepth *int) (*models.TreeView, error) {
	start, err := s.subtreeRoot(ctx, root)
	if err != nil {
		return nil, err
	}

	top := viewOf(start)
	frontier := []*models.TreeView{top}
	for depth := 0; len(frontier) > 0; depth++ {
		if maxDepth != nil && depth >= *maxDepth {
			break
		}
		ids := make([]id.MemberID, len(frontier))
		for i, v := range frontier {
			ids[i] = v.MemberID
		}
		children, err := s.tree.ChildrenOfMany(ctx, ids)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read tree level")
		}
		var next []*models.TreeView
		for _, parent := range frontier {
			for _, child := range children[parent.MemberID] {
				cv := viewOf(child)
				parent.Children = append(parent.Children, cv)
				next = append(next, cv)
			}
		}
		frontier = next
	}
	return top, nil
}

func (s *Service) subtreeRoot(ctx context.Context, root *id.MemberID) (*models.PlacementNode, error) {
	if root == nil {
		node, err := s.tree.RootNode(ctx)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tree is empty")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read tree root")
		}
		return node, nil
	}
	node, err := s.tree.NodeOf(ctx, *root)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("member %s is not placed", root))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read subtree root")
	}
	return node, nil
}

func viewOf(n *models.PlacementNode) *models.TreeView {
	return &models.TreeView{
		MemberID:   n.MemberID,
		Level:      n.Level,
		Position:   n.Position,
		TariffCode: n.TariffCode,
		Children:   []*models.TreeView{},
	}
}

// BonusHistory lists ledger entries in append order, all of them or only
// those credited to member, with totals computed over the same entries.
func (s *Service) BonusHistory(ctx context.Context, member *id.MemberID) (*models.BonusHistory, error) {
	entries, err := s.ledger.History(ctx, member)
	if err != nil {
		return nil, err
	}
	history := &models.BonusHistory{Entries: entries}
	for _, e := range entries {
		history.Totals.Add(e)
	}
	if history.Entries == nil {
		history.Entries = []*models.BonusEntry{}
	}
	return history, nil
}

// Stats counts placed nodes and members and sums the ledger.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	nodes, err := s.tree.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count nodes")
	}
	members, err := s.members.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count members")
	}
	totals, err := s.ledger.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Stats{Nodes: nodes, Members: members, Bonuses: totals}, nil
}

// Tariffs lists the active catalog ordered by entry amount.
func (s *Service) Tariffs(ctx context.Context) []*models.Tariff {
	return s.tariffs.ListActive(ctx)
}
