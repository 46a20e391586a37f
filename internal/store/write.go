package store

import (
	"context"
	"fmt"

	"github.com/roach88/scrolldepth/internal/ir"
)

// Instance describes one engine instance in the log.
type Instance struct {
	ID      string
	Context string
	// Page labels the tracked page, typically its path.
	Page string
	// Config is the canonical JSON of the tracker configuration.
	Config string
	// CreatedAt is a unix timestamp in seconds. Informational only;
	// nothing orders by it.
	CreatedAt int64
}

// WriteInstance records an engine instance.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteInstance(ctx context.Context, inst Instance) error {
	cfg := inst.Config
	if cfg == "" {
		cfg = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, context, page, config, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, inst.ID, inst.Context, inst.Page, cfg, inst.CreatedAt)
	if err != nil {
		return fmt.Errorf("write instance: %w", err)
	}
	return nil
}

// WriteCrossing appends a crossing. The row id is the crossing's
// content-addressed identity, so writing the same (instance, epoch,
// label) twice is silently ignored.
//
// The instance row is created on demand with an unknown context when
// it was never written explicitly.
func (s *Store) WriteCrossing(ctx context.Context, c ir.Crossing) error {
	id, err := ir.CrossingID(c.Instance, c.Epoch, c.Label)
	if err != nil {
		return fmt.Errorf("write crossing: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, context) VALUES (?, '')
		ON CONFLICT(id) DO NOTHING
	`, c.Instance); err != nil {
		return fmt.Errorf("write crossing: ensure instance: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crossings
		(id, instance_id, epoch, label, depth, seq, engine_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		id,
		c.Instance,
		c.Epoch,
		c.Label,
		c.Depth,
		c.Seq,
		ir.EngineVersion,
		ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write crossing: %w", err)
	}
	return nil
}

// Send implements sink.Sink.
func (s *Store) Send(ctx context.Context, c ir.Crossing) error {
	return s.WriteCrossing(ctx, c)
}
