package tree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	constraintMemberPK   = "placement_nodes_pkey"
	constraintSlot       = "placement_nodes_parent_position_key"
	constraintSingleRoot = "placement_nodes_single_root"
)

// PostgresStore persists placement nodes in PostgreSQL. It is pure I/O: the
// BFS and slot selection live in the engine. Methods join the caller's
// transaction when the context carries one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const nodeColumns = `member_id, parent_member_id, level, position, tariff_code, created_at`

func (s *PostgresStore) NodeOf(ctx context.Context, member id.MemberID) (*models.PlacementNode, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM placement_nodes WHERE member_id = $1`, uuid.UUID(member))
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find placement node: %w", err)
	}
	return node, nil
}

func (s *PostgresStore) RootNode(ctx context.Context) (*models.PlacementNode, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM placement_nodes WHERE parent_member_id IS NULL`)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find root node: %w", err)
	}
	return node, nil
}

func (s *PostgresStore) ChildrenOf(ctx context.Context, member id.MemberID) ([]*models.PlacementNode, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM placement_nodes WHERE parent_member_id = $1 ORDER BY position`,
		uuid.UUID(member))
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var out []*models.PlacementNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return out, nil
}

// ChildrenOfMany loads the children of several parents in one round trip.
func (s *PostgresStore) ChildrenOfMany(ctx context.Context, members []id.MemberID) (map[id.MemberID][]*models.PlacementNode, error) {
	out := make(map[id.MemberID][]*models.PlacementNode, len(members))
	if len(members) == 0 {
		return out, nil
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.String()
	}
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM placement_nodes
		 WHERE parent_member_id = ANY($1::uuid[])
		 ORDER BY parent_member_id, position`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list children batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child batch: %w", err)
		}
		parent := *node.ParentMemberID
		out[parent] = append(out[parent], node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children batch: %w", err)
	}
	return out, nil
}

// LockParent takes a row lock on the parent node for the rest of the
// transaction, so concurrent placements under the same parent queue up.
func (s *PostgresStore) LockParent(ctx context.Context, member id.MemberID) error {
	var locked uuid.UUID
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT member_id FROM placement_nodes WHERE member_id = $1 FOR UPDATE`,
		uuid.UUID(member)).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock parent node: %w", err)
	}
	return nil
}

// Insert writes the node. Unique violations are translated: the member key to
// sentinel.ErrAlreadyUsed, the (parent, position) slot and the single-root
// index to sentinel.ErrConflict.
func (s *PostgresStore) Insert(ctx context.Context, node *models.PlacementNode) error {
	if node == nil {
		return fmt.Errorf("placement node is required")
	}
	var parent any
	if node.ParentMemberID != nil {
		parent = uuid.UUID(*node.ParentMemberID)
	}
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO placement_nodes (member_id, parent_member_id, level, position, tariff_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(node.MemberID), parent, node.Level, node.Position, string(node.TariffCode), node.CreatedAt)
	if err != nil {
		return translateInsertErr(err)
	}
	return nil
}

func translateInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("insert placement node: %w", err)
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintMemberPK:
		return fmt.Errorf("insert placement node: %w", sentinel.ErrAlreadyUsed)
	case pgErr.Code == pgUniqueViolation && (pgErr.ConstraintName == constraintSlot || pgErr.ConstraintName == constraintSingleRoot):
		return fmt.Errorf("insert placement node: %w", sentinel.ErrConflict)
	case pgErr.Code == pgForeignKeyViolation:
		return fmt.Errorf("insert placement node: parent: %w", sentinel.ErrNotFound)
	default:
		return fmt.Errorf("insert placement node: %w", err)
	}
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := tx.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM placement_nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count placement nodes: %w", err)
	}
	return n, nil
}

type nodeRow interface {
	Scan(dest ...any) error
}

func scanNode(row nodeRow) (*models.PlacementNode, error) {
	var (
		node     models.PlacementNode
		memberID uuid.UUID
		parentID uuid.NullUUID
		tariff   string
	)
	if err := row.Scan(&memberID, &parentID, &node.Level, &node.Position, &tariff, &node.CreatedAt); err != nil {
		return nil, err
	}
	node.MemberID = id.MemberID(memberID)
	node.TariffCode = id.TariffCode(tariff)
	if parentID.Valid {
		p := id.MemberID(parentID.UUID)
		node.ParentMemberID = &p
	}
	return &node, nil
}
