package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/scrolldepth/internal/ir"
)

// InstanceSummary is an instance row with its crossing count.
type InstanceSummary struct {
	Instance
	Crossings int
}

// ReadCrossings returns the crossings of one instance in firing order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadCrossings(ctx context.Context, instance string) ([]ir.Crossing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, epoch, label, depth, seq
		FROM crossings
		WHERE instance_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, instance)
	if err != nil {
		return nil, fmt.Errorf("query crossings: %w", err)
	}
	return scanCrossings(rows)
}

// ReadAllCrossings returns every crossing, grouped by instance and in
// firing order within each instance.
func (s *Store) ReadAllCrossings(ctx context.Context) ([]ir.Crossing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, epoch, label, depth, seq
		FROM crossings
		ORDER BY instance_id COLLATE BINARY ASC, seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query crossings: %w", err)
	}
	return scanCrossings(rows)
}

// Instances lists every recorded instance with its crossing count.
func (s *Store) Instances(ctx context.Context) ([]InstanceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.context, i.page, i.config, i.created_at, COUNT(c.id)
		FROM instances i
		LEFT JOIN crossings c ON c.instance_id = i.id
		GROUP BY i.id
		ORDER BY i.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	out := []InstanceSummary{}
	for rows.Next() {
		var sum InstanceSummary
		if err := rows.Scan(&sum.ID, &sum.Context, &sum.Page, &sum.Config, &sum.CreatedAt, &sum.Crossings); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return out, nil
}

func scanCrossings(rows *sql.Rows) ([]ir.Crossing, error) {
	defer rows.Close()

	crossings := []ir.Crossing{}
	for rows.Next() {
		var c ir.Crossing
		if err := rows.Scan(&c.Instance, &c.Epoch, &c.Label, &c.Depth, &c.Seq); err != nil {
			return nil, fmt.Errorf("scan crossing: %w", err)
		}
		crossings = append(crossings, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crossings: %w", err)
	}
	return crossings, nil
}
