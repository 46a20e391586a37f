package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/sink"
)

var _ sink.Sink = (*Store)(nil)

func TestWriteCrossing_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestCrossing("eng-1", "25%", 0, 250, 1)
	require.NoError(t, s.WriteCrossing(ctx, c))

	var (
		id, instance, label, engineVersion, recordVersion string
		epoch, depth, seq                                 int64
	)
	err := s.db.QueryRow(`
		SELECT id, instance_id, epoch, label, depth, seq, engine_version, record_version
		FROM crossings
	`).Scan(&id, &instance, &epoch, &label, &depth, &seq, &engineVersion, &recordVersion)
	require.NoError(t, err)

	assert.Equal(t, ir.MustCrossingID("eng-1", 0, "25%"), id)
	assert.Equal(t, "eng-1", instance)
	assert.Equal(t, "25%", label)
	assert.Equal(t, int64(0), epoch)
	assert.Equal(t, int64(250), depth)
	assert.Equal(t, int64(1), seq)
	assert.Equal(t, ir.EngineVersion, engineVersion)
	assert.Equal(t, ir.RecordVersion, recordVersion)
}

func TestWriteCrossing_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCrossing(ctx, createTestCrossing("eng-1", "25%", 0, 250, 1)))
	// Same logical crossing after the geometry changed.
	require.NoError(t, s.WriteCrossing(ctx, createTestCrossing("eng-1", "25%", 0, 900, 7)))

	got, err := s.ReadCrossings(ctx, "eng-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(250), got[0].Depth, "first write wins")
}

func TestWriteCrossing_NewEpochIsNewRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCrossing(ctx, createTestCrossing("eng-1", "25%", 0, 250, 1)))
	require.NoError(t, s.WriteCrossing(ctx, createTestCrossing("eng-1", "25%", 1, 250, 2)))

	got, err := s.ReadCrossings(ctx, "eng-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWriteCrossing_CreatesInstance(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Send(ctx, createTestCrossing("eng-9", "10%", 0, 100, 1)))

	insts, err := s.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, "eng-9", insts[0].ID)
	assert.Equal(t, "", insts[0].Context)
	assert.Equal(t, 1, insts[0].Crossings)
}

func TestWriteInstance_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteInstance(ctx, Instance{ID: "eng-1", Context: "#main", Page: "/a", Config: `{"min_height":0}`, CreatedAt: 1700000000}))
	require.NoError(t, s.WriteInstance(ctx, Instance{ID: "eng-1", Context: "body"}))

	insts, err := s.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, Instance{ID: "eng-1", Context: "#main", Page: "/a", Config: `{"min_height":0}`, CreatedAt: 1700000000}, insts[0].Instance)
	assert.Equal(t, 0, insts[0].Crossings)
}

func TestWriteInstance_DefaultConfig(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteInstance(ctx, Instance{ID: "eng-1", Context: "body"}))

	insts, err := s.Instances(ctx)
	require.NoError(t, err)
	assert.Equal(t, "{}", insts[0].Config)
}

func TestWriteCrossing_ClosedStore(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	err := s.WriteCrossing(context.Background(), createTestCrossing("eng-1", "25%", 0, 250, 1))
	assert.Error(t, err)
}
